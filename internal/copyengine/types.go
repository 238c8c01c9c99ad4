package copyengine

import (
	"github.com/google/uuid"
)

type Strategy string

const (
	StrategySkip   Strategy = "skip"
	StrategySuffix Strategy = "suffix"
)

type EntitySelection struct {
	ID          uuid.UUID `json:"id"`
	IncludeData bool      `json:"includeData,omitempty"`
}

// Selection is the explicit per-module id list the caller approved.
// The engine never copies "everything in the tenant".
type Selection struct {
	Roles        []uuid.UUID       `json:"roles,omitempty"`
	Entities     []EntitySelection `json:"entities,omitempty"`
	Pages        []uuid.UUID       `json:"pages,omitempty"`
	Endpoints    []uuid.UUID       `json:"endpoints,omitempty"`
	PdfTemplates []uuid.UUID       `json:"pdfTemplates,omitempty"`
}

func (s Selection) Empty() bool {
	return len(s.Roles) == 0 && len(s.Entities) == 0 && len(s.Pages) == 0 &&
		len(s.Endpoints) == 0 && len(s.PdfTemplates) == 0
}

type Request struct {
	SourceTenantID uuid.UUID `json:"sourceTenantId"`
	TargetTenantID uuid.UUID `json:"targetTenantId"`
	Strategy       Strategy  `json:"conflictStrategy,omitempty"`
	Modules        Selection `json:"modules"`
}

type Counts struct {
	Roles        int `json:"roles"`
	Entities     int `json:"entities"`
	EntityData   int `json:"entityData"`
	Endpoints    int `json:"endpoints"`
	PdfTemplates int `json:"pdfTemplates"`
	Pages        int `json:"pages"`
}

type Result struct {
	Copied   Counts   `json:"copied"`
	Skipped  []string `json:"skipped"`
	Warnings []string `json:"warnings"`
}

type RolePreview struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	UserCount int       `json:"userCount"`
}

type EntityPreview struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	RecordCount int64     `json:"recordCount"`
}

type EndpointPreview struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Path   string    `json:"path"`
	Method string    `json:"method"`
}

type PdfTemplatePreview struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type PagePreview struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Slug  string    `json:"slug"`
}

// Preview is the read-only inventory a caller uses to build a Selection.
type Preview struct {
	Roles        []RolePreview        `json:"roles"`
	Entities     []EntityPreview      `json:"entities"`
	Endpoints    []EndpointPreview    `json:"endpoints"`
	PdfTemplates []PdfTemplatePreview `json:"pdfTemplates"`
	Pages        []PagePreview        `json:"pages"`
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Field types understood by the platform. Relation fields hold the id
// (or ids) of records belonging to the entity named by Field.Relation.
const (
	FieldTypeText     = "text"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
	FieldTypeBool     = "bool"
	FieldTypeSelect   = "select"
	FieldTypeRelation = "relation"
)

type Field struct {
	Slug     string          `json:"slug"`
	Label    string          `json:"label,omitempty"`
	Type     string          `json:"type"`
	Required bool            `json:"required,omitempty"`
	Relation string          `json:"relation,omitempty"` // target entity slug, relation fields only
	Options  json.RawMessage `json:"options,omitempty"`
}

type Entity struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	TenantID   uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name       string          `json:"name" db:"name"`
	PluralName string          `json:"plural_name,omitempty" db:"plural_name"`
	Slug       string          `json:"slug" db:"slug"`
	Icon       string          `json:"icon,omitempty" db:"icon"`
	Color      string          `json:"color,omitempty" db:"color"`
	Fields     []Field         `json:"fields" db:"fields"`
	Settings   json.RawMessage `json:"settings" db:"settings"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

type EntityData struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	EntityID      uuid.UUID       `json:"entity_id" db:"entity_id"`
	ParentID      *uuid.UUID      `json:"parent_id,omitempty" db:"parent_id"`
	Data          json.RawMessage `json:"data" db:"data"`
	VisibleTo     []uuid.UUID     `json:"visible_to,omitempty" db:"visible_to"`
	VisibleToJSON json.RawMessage `json:"visible_to_json,omitempty" db:"visible_to_json"`
	CreatedBy     *uuid.UUID      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

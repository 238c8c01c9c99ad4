package copyengine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Engine clones a selected subset of one tenant's configuration and data
// into another tenant. Each Execute call runs the module copiers in
// dependency order inside a single transaction: roles, then entities,
// then entity data (parents before children), then the relation remap
// pass, then endpoints, templates and pages. Either the whole selection
// lands or nothing does.
type Engine struct {
	db        DB
	txTimeout time.Duration
}

func NewEngine(db DB, txTimeout time.Duration) *Engine {
	if txTimeout <= 0 {
		txTimeout = 2 * time.Minute
	}
	return &Engine{db: db, txTimeout: txTimeout}
}

// Preview reports everything copyable from the source tenant, with enough
// counts for a caller to build the selection a user approves. Read-only.
func (e *Engine) Preview(ctx context.Context, sourceTenantID uuid.UUID) (*Preview, error) {
	if _, err := e.db.GetTenant(ctx, sourceTenantID); err != nil {
		return nil, err
	}

	p := &Preview{
		Roles:        []RolePreview{},
		Entities:     []EntityPreview{},
		Endpoints:    []EndpointPreview{},
		PdfTemplates: []PdfTemplatePreview{},
		Pages:        []PagePreview{},
	}

	roles, err := e.db.ListRoles(ctx, sourceTenantID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	for _, r := range roles {
		users, err := e.db.CountUsersByRole(ctx, sourceTenantID, r.ID)
		if err != nil {
			return nil, fmt.Errorf("count users of role %q: %w", r.Name, err)
		}
		p.Roles = append(p.Roles, RolePreview{ID: r.ID, Name: r.Name, UserCount: users})
	}

	entities, err := e.db.ListEntities(ctx, sourceTenantID)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	for _, en := range entities {
		records, err := e.db.CountEntityData(ctx, sourceTenantID, en.ID)
		if err != nil {
			return nil, fmt.Errorf("count records of entity %q: %w", en.Slug, err)
		}
		p.Entities = append(p.Entities, EntityPreview{ID: en.ID, Name: en.Name, Slug: en.Slug, RecordCount: records})
	}

	endpoints, err := e.db.ListEndpoints(ctx, sourceTenantID)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	for _, ep := range endpoints {
		p.Endpoints = append(p.Endpoints, EndpointPreview{ID: ep.ID, Name: ep.Name, Path: ep.Path, Method: ep.Method})
	}

	templates, err := e.db.ListPdfTemplates(ctx, sourceTenantID)
	if err != nil {
		return nil, fmt.Errorf("list pdf templates: %w", err)
	}
	for _, t := range templates {
		p.PdfTemplates = append(p.PdfTemplates, PdfTemplatePreview{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}

	pages, err := e.db.ListPages(ctx, sourceTenantID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	for _, pg := range pages {
		p.Pages = append(p.Pages, PagePreview{ID: pg.ID, Title: pg.Title, Slug: pg.Slug})
	}

	return p, nil
}

// Execute validates the request, then runs the full ordered copy in one
// transaction. Skips and warnings are advisory and never abort; any store
// error rolls back everything copied so far and surfaces to the caller.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategySkip
	}
	if strategy != StrategySkip && strategy != StrategySuffix {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, req.Strategy)
	}
	if req.SourceTenantID == req.TargetTenantID {
		return nil, ErrSameTenant
	}
	if req.Modules.Empty() {
		return nil, ErrEmptySelection
	}
	if _, err := e.db.GetTenant(ctx, req.SourceTenantID); err != nil {
		return nil, fmt.Errorf("source tenant: %w", err)
	}
	if _, err := e.db.GetTenant(ctx, req.TargetTenantID); err != nil {
		return nil, fmt.Errorf("target tenant: %w", err)
	}

	cc := newCopyContext(strategy, req.SourceTenantID, req.TargetTenantID)
	steps := []moduleCopier{
		roleCopier{ids: req.Modules.Roles},
		entityCopier{selections: req.Modules.Entities},
		recordCopier{},
		relationRemapPass{},
		endpointCopier{ids: req.Modules.Endpoints},
		templateCopier{ids: req.Modules.PdfTemplates},
		pageCopier{ids: req.Modules.Pages},
	}

	start := time.Now()
	err := e.db.WithinTx(ctx, e.txTimeout, func(s Store) error {
		for _, step := range steps {
			if err := step.run(ctx, s, cc); err != nil {
				return fmt.Errorf("copy %s: %w", step.name(), err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("tenant copy finished",
		"source", req.SourceTenantID,
		"target", req.TargetTenantID,
		"strategy", strategy,
		"copied", cc.result.Copied,
		"skipped", len(cc.result.Skipped),
		"warnings", len(cc.result.Warnings),
		"elapsed", time.Since(start),
	)

	result := cc.result
	return &result, nil
}

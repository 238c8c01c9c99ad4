package copyengine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/models"
)

// Store is the persistence port the copy engine runs against. Reads are
// always scoped to one tenant and, where a selection exists, to an explicit
// id list. Inserts return the id the store generated for the new row.
type Store interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)

	ListRoles(ctx context.Context, tenantID uuid.UUID) ([]models.Role, error)
	ListRolesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Role, error)
	InsertRole(ctx context.Context, r models.Role) (uuid.UUID, error)

	ListEntities(ctx context.Context, tenantID uuid.UUID) ([]models.Entity, error)
	ListEntitiesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Entity, error)
	InsertEntity(ctx context.Context, e models.Entity) (uuid.UUID, error)

	// ListEntityData returns the non-deleted records of one entity in
	// creation order.
	ListEntityData(ctx context.Context, tenantID, entityID uuid.UUID) ([]models.EntityData, error)
	InsertEntityData(ctx context.Context, d models.EntityData) (uuid.UUID, error)
	UpdateEntityDataPayload(ctx context.Context, tenantID, id uuid.UUID, data json.RawMessage) error

	ListEndpoints(ctx context.Context, tenantID uuid.UUID) ([]models.Endpoint, error)
	ListEndpointsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Endpoint, error)
	InsertEndpoint(ctx context.Context, e models.Endpoint) (uuid.UUID, error)

	ListPdfTemplates(ctx context.Context, tenantID uuid.UUID) ([]models.PdfTemplate, error)
	ListPdfTemplatesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.PdfTemplate, error)
	InsertPdfTemplate(ctx context.Context, t models.PdfTemplate) (uuid.UUID, error)

	ListPages(ctx context.Context, tenantID uuid.UUID) ([]models.Page, error)
	ListPagesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Page, error)
	InsertPage(ctx context.Context, p models.Page) (uuid.UUID, error)

	CountUsersByRole(ctx context.Context, tenantID, roleID uuid.UUID) (int, error)
	CountEntityData(ctx context.Context, tenantID, entityID uuid.UUID) (int64, error)
}

// DB is a Store that can also run a function atomically. Everything the
// function does through the passed Store happens in one transaction; any
// returned error rolls the whole transaction back.
type DB interface {
	Store
	WithinTx(ctx context.Context, timeout time.Duration, fn func(Store) error) error
}

package copyengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/models"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgStore struct {
	q querier
}

// PostgresDB backs the engine with pgx. Outside a transaction it reads
// through the pool; WithinTx rebinds the same store onto one transaction
// for the duration of fn.
type PostgresDB struct {
	pool *pgxpool.Pool
	pgStore
}

func NewPostgresDB(pool *pgxpool.Pool) *PostgresDB {
	return &PostgresDB{pool: pool, pgStore: pgStore{q: pool}}
}

func (db *PostgresDB) WithinTx(ctx context.Context, timeout time.Duration, fn func(Store) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(pgStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (st pgStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	err := st.q.QueryRow(ctx,
		"SELECT id, name, slug, settings, created_at, updated_at FROM tenants WHERE id = $1", id,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.Settings, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

const roleColumns = `id, tenant_id, name, description, color, kind, is_system, is_default,
	permissions, module_permissions, tenant_permissions, created_at`

func (st pgStore) queryRoles(ctx context.Context, sql string, args ...any) ([]models.Role, error) {
	rows, err := st.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var out []models.Role
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Name, &r.Description, &r.Color, &r.Kind,
			&r.IsSystem, &r.IsDefault, &r.Permissions, &r.ModulePermissions, &r.TenantPermissions,
			&r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (st pgStore) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]models.Role, error) {
	return st.queryRoles(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE tenant_id = $1 ORDER BY created_at, id", tenantID)
}

func (st pgStore) ListRolesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Role, error) {
	return st.queryRoles(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE tenant_id = $1 AND id = ANY($2) ORDER BY created_at, id",
		tenantID, ids)
}

func (st pgStore) InsertRole(ctx context.Context, r models.Role) (uuid.UUID, error) {
	var id uuid.UUID
	err := st.q.QueryRow(ctx,
		`INSERT INTO roles (tenant_id, name, description, color, kind, is_system, is_default,
			permissions, module_permissions, tenant_permissions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		r.TenantID, r.Name, r.Description, r.Color, r.Kind, r.IsSystem, r.IsDefault,
		r.Permissions, r.ModulePermissions, r.TenantPermissions,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert role: %w", err)
	}
	return id, nil
}

const entityColumns = `id, tenant_id, name, plural_name, slug, icon, color, fields, settings, created_at`

func (st pgStore) queryEntities(ctx context.Context, sql string, args ...any) ([]models.Entity, error) {
	rows, err := st.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var out []models.Entity
	for rows.Next() {
		var e models.Entity
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Name, &e.PluralName, &e.Slug, &e.Icon,
			&e.Color, &e.Fields, &e.Settings, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (st pgStore) ListEntities(ctx context.Context, tenantID uuid.UUID) ([]models.Entity, error) {
	return st.queryEntities(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE tenant_id = $1 ORDER BY created_at, id", tenantID)
}

func (st pgStore) ListEntitiesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Entity, error) {
	return st.queryEntities(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE tenant_id = $1 AND id = ANY($2) ORDER BY created_at, id",
		tenantID, ids)
}

func (st pgStore) InsertEntity(ctx context.Context, e models.Entity) (uuid.UUID, error) {
	var id uuid.UUID
	err := st.q.QueryRow(ctx,
		`INSERT INTO entities (tenant_id, name, plural_name, slug, icon, color, fields, settings)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		e.TenantID, e.Name, e.PluralName, e.Slug, e.Icon, e.Color, e.Fields, e.Settings,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert entity: %w", err)
	}
	return id, nil
}

func (st pgStore) ListEntityData(ctx context.Context, tenantID, entityID uuid.UUID) ([]models.EntityData, error) {
	rows, err := st.q.Query(ctx,
		`SELECT id, tenant_id, entity_id, parent_id, data, visible_to, visible_to_json, created_by, created_at, deleted_at
		 FROM entity_data
		 WHERE tenant_id = $1 AND entity_id = $2 AND deleted_at IS NULL
		 ORDER BY created_at, id`,
		tenantID, entityID)
	if err != nil {
		return nil, fmt.Errorf("query entity data: %w", err)
	}
	defer rows.Close()

	var out []models.EntityData
	for rows.Next() {
		var d models.EntityData
		if err := rows.Scan(&d.ID, &d.TenantID, &d.EntityID, &d.ParentID, &d.Data, &d.VisibleTo,
			&d.VisibleToJSON, &d.CreatedBy, &d.CreatedAt, &d.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan entity data: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (st pgStore) InsertEntityData(ctx context.Context, d models.EntityData) (uuid.UUID, error) {
	var id uuid.UUID
	err := st.q.QueryRow(ctx,
		`INSERT INTO entity_data (tenant_id, entity_id, parent_id, data, visible_to, visible_to_json, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		d.TenantID, d.EntityID, d.ParentID, d.Data, d.VisibleTo, d.VisibleToJSON, d.CreatedBy,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert entity data: %w", err)
	}
	return id, nil
}

func (st pgStore) UpdateEntityDataPayload(ctx context.Context, tenantID, id uuid.UUID, data json.RawMessage) error {
	tag, err := st.q.Exec(ctx,
		"UPDATE entity_data SET data = $3 WHERE tenant_id = $1 AND id = $2", tenantID, id, data)
	if err != nil {
		return fmt.Errorf("update entity data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update entity data: record %s not found", id)
	}
	return nil
}

const endpointColumns = `id, tenant_id, name, path, method, entity_id, query_config, auth_config, created_at`

func (st pgStore) queryEndpoints(ctx context.Context, sql string, args ...any) ([]models.Endpoint, error) {
	rows, err := st.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query endpoints: %w", err)
	}
	defer rows.Close()

	var out []models.Endpoint
	for rows.Next() {
		var e models.Endpoint
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Name, &e.Path, &e.Method, &e.EntityID,
			&e.QueryConfig, &e.AuthConfig, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (st pgStore) ListEndpoints(ctx context.Context, tenantID uuid.UUID) ([]models.Endpoint, error) {
	return st.queryEndpoints(ctx,
		"SELECT "+endpointColumns+" FROM endpoints WHERE tenant_id = $1 ORDER BY created_at, id", tenantID)
}

func (st pgStore) ListEndpointsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Endpoint, error) {
	return st.queryEndpoints(ctx,
		"SELECT "+endpointColumns+" FROM endpoints WHERE tenant_id = $1 AND id = ANY($2) ORDER BY created_at, id",
		tenantID, ids)
}

func (st pgStore) InsertEndpoint(ctx context.Context, e models.Endpoint) (uuid.UUID, error) {
	var id uuid.UUID
	err := st.q.QueryRow(ctx,
		`INSERT INTO endpoints (tenant_id, name, path, method, entity_id, query_config, auth_config)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		e.TenantID, e.Name, e.Path, e.Method, e.EntityID, e.QueryConfig, e.AuthConfig,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert endpoint: %w", err)
	}
	return id, nil
}

const pdfTemplateColumns = `id, tenant_id, name, slug, entity_id, layout, content, published, created_at`

func (st pgStore) queryPdfTemplates(ctx context.Context, sql string, args ...any) ([]models.PdfTemplate, error) {
	rows, err := st.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query pdf templates: %w", err)
	}
	defer rows.Close()

	var out []models.PdfTemplate
	for rows.Next() {
		var t models.PdfTemplate
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.Slug, &t.EntityID, &t.Layout,
			&t.Content, &t.Published, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pdf template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (st pgStore) ListPdfTemplates(ctx context.Context, tenantID uuid.UUID) ([]models.PdfTemplate, error) {
	return st.queryPdfTemplates(ctx,
		"SELECT "+pdfTemplateColumns+" FROM pdf_templates WHERE tenant_id = $1 ORDER BY created_at, id", tenantID)
}

func (st pgStore) ListPdfTemplatesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.PdfTemplate, error) {
	return st.queryPdfTemplates(ctx,
		"SELECT "+pdfTemplateColumns+" FROM pdf_templates WHERE tenant_id = $1 AND id = ANY($2) ORDER BY created_at, id",
		tenantID, ids)
}

func (st pgStore) InsertPdfTemplate(ctx context.Context, t models.PdfTemplate) (uuid.UUID, error) {
	var id uuid.UUID
	err := st.q.QueryRow(ctx,
		`INSERT INTO pdf_templates (tenant_id, name, slug, entity_id, layout, content, published)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		t.TenantID, t.Name, t.Slug, t.EntityID, t.Layout, t.Content, t.Published,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert pdf template: %w", err)
	}
	return id, nil
}

const pageColumns = `id, tenant_id, title, slug, content, published, created_at`

func (st pgStore) queryPages(ctx context.Context, sql string, args ...any) ([]models.Page, error) {
	rows, err := st.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var out []models.Page
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Title, &p.Slug, &p.Content, &p.Published, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (st pgStore) ListPages(ctx context.Context, tenantID uuid.UUID) ([]models.Page, error) {
	return st.queryPages(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE tenant_id = $1 ORDER BY created_at, id", tenantID)
}

func (st pgStore) ListPagesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Page, error) {
	return st.queryPages(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE tenant_id = $1 AND id = ANY($2) ORDER BY created_at, id",
		tenantID, ids)
}

func (st pgStore) InsertPage(ctx context.Context, p models.Page) (uuid.UUID, error) {
	var id uuid.UUID
	err := st.q.QueryRow(ctx,
		`INSERT INTO pages (tenant_id, title, slug, content, published)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		p.TenantID, p.Title, p.Slug, p.Content, p.Published,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert page: %w", err)
	}
	return id, nil
}

func (st pgStore) CountUsersByRole(ctx context.Context, tenantID, roleID uuid.UUID) (int, error) {
	var n int
	err := st.q.QueryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE tenant_id = $1 AND role_id = $2", tenantID, roleID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (st pgStore) CountEntityData(ctx context.Context, tenantID, entityID uuid.UUID) (int64, error) {
	var n int64
	err := st.q.QueryRow(ctx,
		"SELECT COUNT(*) FROM entity_data WHERE tenant_id = $1 AND entity_id = $2 AND deleted_at IS NULL",
		tenantID, entityID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entity data: %w", err)
	}
	return n, nil
}

package copyengine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/models"
)

// memDB is an in-memory Store/DB with snapshot rollback: WithinTx runs fn
// against a deep copy of the state and swaps it in only on success, so a
// failed copy leaves the target tenant untouched just like a rolled-back
// transaction. failAfterInserts injects a write failure after N inserts.
type memDB struct {
	state *memState

	failAfterInserts int // 0 = never fail
	inserts          int
}

type memState struct {
	tenants      map[uuid.UUID]models.Tenant
	users        []models.User
	roles        []models.Role
	entities     []models.Entity
	entityData   []models.EntityData
	endpoints    []models.Endpoint
	pdfTemplates []models.PdfTemplate
	pages        []models.Page

	seq int // monotonic creation order stand-in
}

func newMemDB() *memDB {
	return &memDB{state: &memState{tenants: make(map[uuid.UUID]models.Tenant)}}
}

func (s *memState) clone() *memState {
	out := &memState{
		tenants:      make(map[uuid.UUID]models.Tenant, len(s.tenants)),
		users:        append([]models.User(nil), s.users...),
		roles:        append([]models.Role(nil), s.roles...),
		entities:     append([]models.Entity(nil), s.entities...),
		entityData:   append([]models.EntityData(nil), s.entityData...),
		endpoints:    append([]models.Endpoint(nil), s.endpoints...),
		pdfTemplates: append([]models.PdfTemplate(nil), s.pdfTemplates...),
		pages:        append([]models.Page(nil), s.pages...),
		seq:          s.seq,
	}
	for k, v := range s.tenants {
		out.tenants[k] = v
	}
	return out
}

func (s *memState) nextCreatedAt() time.Time {
	s.seq++
	return time.Unix(int64(s.seq), 0)
}

func (db *memDB) addTenant(name string) uuid.UUID {
	id := uuid.New()
	db.state.tenants[id] = models.Tenant{ID: id, Name: name, Slug: name}
	return id
}

func (db *memDB) WithinTx(ctx context.Context, timeout time.Duration, fn func(Store) error) error {
	snapshot := db.state
	db.state = snapshot.clone()
	if err := fn(db); err != nil {
		db.state = snapshot
		return err
	}
	return nil
}

func (db *memDB) checkInsert() error {
	db.inserts++
	if db.failAfterInserts > 0 && db.inserts > db.failAfterInserts {
		return fmt.Errorf("injected write failure after %d inserts", db.failAfterInserts)
	}
	return nil
}

func (db *memDB) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, ok := db.state.tenants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	return &t, nil
}

func byCreation[T any](rows []T, createdAt func(T) time.Time) []T {
	out := append([]T(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return createdAt(out[i]).Before(createdAt(out[j])) })
	return out
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	m := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func (db *memDB) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]models.Role, error) {
	var out []models.Role
	for _, r := range db.state.roles {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return byCreation(out, func(r models.Role) time.Time { return r.CreatedAt }), nil
}

func (db *memDB) ListRolesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Role, error) {
	want := idSet(ids)
	all, _ := db.ListRoles(ctx, tenantID)
	var out []models.Role
	for _, r := range all {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (db *memDB) InsertRole(ctx context.Context, r models.Role) (uuid.UUID, error) {
	if err := db.checkInsert(); err != nil {
		return uuid.Nil, err
	}
	r.ID = uuid.New()
	r.CreatedAt = db.state.nextCreatedAt()
	db.state.roles = append(db.state.roles, r)
	return r.ID, nil
}

func (db *memDB) ListEntities(ctx context.Context, tenantID uuid.UUID) ([]models.Entity, error) {
	var out []models.Entity
	for _, e := range db.state.entities {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return byCreation(out, func(e models.Entity) time.Time { return e.CreatedAt }), nil
}

func (db *memDB) ListEntitiesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Entity, error) {
	want := idSet(ids)
	all, _ := db.ListEntities(ctx, tenantID)
	var out []models.Entity
	for _, e := range all {
		if want[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (db *memDB) InsertEntity(ctx context.Context, e models.Entity) (uuid.UUID, error) {
	if err := db.checkInsert(); err != nil {
		return uuid.Nil, err
	}
	e.ID = uuid.New()
	e.CreatedAt = db.state.nextCreatedAt()
	db.state.entities = append(db.state.entities, e)
	return e.ID, nil
}

func (db *memDB) ListEntityData(ctx context.Context, tenantID, entityID uuid.UUID) ([]models.EntityData, error) {
	var out []models.EntityData
	for _, d := range db.state.entityData {
		if d.TenantID == tenantID && d.EntityID == entityID && d.DeletedAt == nil {
			out = append(out, d)
		}
	}
	return byCreation(out, func(d models.EntityData) time.Time { return d.CreatedAt }), nil
}

func (db *memDB) InsertEntityData(ctx context.Context, d models.EntityData) (uuid.UUID, error) {
	if err := db.checkInsert(); err != nil {
		return uuid.Nil, err
	}
	d.ID = uuid.New()
	d.CreatedAt = db.state.nextCreatedAt()
	db.state.entityData = append(db.state.entityData, d)
	return d.ID, nil
}

func (db *memDB) UpdateEntityDataPayload(ctx context.Context, tenantID, id uuid.UUID, data json.RawMessage) error {
	for i := range db.state.entityData {
		if db.state.entityData[i].TenantID == tenantID && db.state.entityData[i].ID == id {
			db.state.entityData[i].Data = data
			return nil
		}
	}
	return fmt.Errorf("update entity data: record %s not found", id)
}

func (db *memDB) ListEndpoints(ctx context.Context, tenantID uuid.UUID) ([]models.Endpoint, error) {
	var out []models.Endpoint
	for _, e := range db.state.endpoints {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return byCreation(out, func(e models.Endpoint) time.Time { return e.CreatedAt }), nil
}

func (db *memDB) ListEndpointsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Endpoint, error) {
	want := idSet(ids)
	all, _ := db.ListEndpoints(ctx, tenantID)
	var out []models.Endpoint
	for _, e := range all {
		if want[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (db *memDB) InsertEndpoint(ctx context.Context, e models.Endpoint) (uuid.UUID, error) {
	if err := db.checkInsert(); err != nil {
		return uuid.Nil, err
	}
	e.ID = uuid.New()
	e.CreatedAt = db.state.nextCreatedAt()
	db.state.endpoints = append(db.state.endpoints, e)
	return e.ID, nil
}

func (db *memDB) ListPdfTemplates(ctx context.Context, tenantID uuid.UUID) ([]models.PdfTemplate, error) {
	var out []models.PdfTemplate
	for _, t := range db.state.pdfTemplates {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	return byCreation(out, func(t models.PdfTemplate) time.Time { return t.CreatedAt }), nil
}

func (db *memDB) ListPdfTemplatesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.PdfTemplate, error) {
	want := idSet(ids)
	all, _ := db.ListPdfTemplates(ctx, tenantID)
	var out []models.PdfTemplate
	for _, t := range all {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (db *memDB) InsertPdfTemplate(ctx context.Context, t models.PdfTemplate) (uuid.UUID, error) {
	if err := db.checkInsert(); err != nil {
		return uuid.Nil, err
	}
	t.ID = uuid.New()
	t.CreatedAt = db.state.nextCreatedAt()
	db.state.pdfTemplates = append(db.state.pdfTemplates, t)
	return t.ID, nil
}

func (db *memDB) ListPages(ctx context.Context, tenantID uuid.UUID) ([]models.Page, error) {
	var out []models.Page
	for _, p := range db.state.pages {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return byCreation(out, func(p models.Page) time.Time { return p.CreatedAt }), nil
}

func (db *memDB) ListPagesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Page, error) {
	want := idSet(ids)
	all, _ := db.ListPages(ctx, tenantID)
	var out []models.Page
	for _, p := range all {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (db *memDB) InsertPage(ctx context.Context, p models.Page) (uuid.UUID, error) {
	if err := db.checkInsert(); err != nil {
		return uuid.Nil, err
	}
	p.ID = uuid.New()
	p.CreatedAt = db.state.nextCreatedAt()
	db.state.pages = append(db.state.pages, p)
	return p.ID, nil
}

func (db *memDB) CountUsersByRole(ctx context.Context, tenantID, roleID uuid.UUID) (int, error) {
	n := 0
	for _, u := range db.state.users {
		if u.TenantID == tenantID && u.RoleID != nil && *u.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

func (db *memDB) CountEntityData(ctx context.Context, tenantID, entityID uuid.UUID) (int64, error) {
	rows, _ := db.ListEntityData(ctx, tenantID, entityID)
	return int64(len(rows)), nil
}

package copyengine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/models"
)

func newTestEngine(db *memDB) *Engine {
	return NewEngine(db, time.Minute)
}

func mustInsertRole(t *testing.T, db *memDB, tenantID uuid.UUID, name string, system bool) uuid.UUID {
	t.Helper()
	id, err := db.InsertRole(context.Background(), models.Role{
		TenantID: tenantID, Name: name, IsSystem: system,
		Permissions: json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("insert role: %v", err)
	}
	return id
}

func mustInsertEntity(t *testing.T, db *memDB, tenantID uuid.UUID, name, slug string, fields []models.Field) uuid.UUID {
	t.Helper()
	id, err := db.InsertEntity(context.Background(), models.Entity{
		TenantID: tenantID, Name: name, Slug: slug, Fields: fields,
	})
	if err != nil {
		t.Fatalf("insert entity: %v", err)
	}
	return id
}

func mustInsertRecord(t *testing.T, db *memDB, tenantID, entityID uuid.UUID, data string, parentID *uuid.UUID, visibleTo []uuid.UUID) uuid.UUID {
	t.Helper()
	id, err := db.InsertEntityData(context.Background(), models.EntityData{
		TenantID: tenantID, EntityID: entityID, Data: json.RawMessage(data),
		ParentID: parentID, VisibleTo: visibleTo,
	})
	if err != nil {
		t.Fatalf("insert record: %v", err)
	}
	return id
}

func findTargetEntity(t *testing.T, db *memDB, tenantID uuid.UUID, slug string) models.Entity {
	t.Helper()
	entities, _ := db.ListEntities(context.Background(), tenantID)
	for _, e := range entities {
		if e.Slug == slug {
			return e
		}
	}
	t.Fatalf("entity %q not found in tenant %s", slug, tenantID)
	return models.Entity{}
}

func TestExecuteBasicScenario(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")

	roleID := mustInsertRole(t, db, src, "Manager", false)
	invoiceID := mustInsertEntity(t, db, src, "Invoice", "invoice", []models.Field{
		{Slug: "number", Type: models.FieldTypeText},
	})
	for i := 0; i < 3; i++ {
		mustInsertRecord(t, db, src, invoiceID, `{"number":"A"}`, nil, nil)
	}
	deleted := mustInsertRecord(t, db, src, invoiceID, `{"number":"gone"}`, nil, nil)
	for i := range db.state.entityData {
		if db.state.entityData[i].ID == deleted {
			now := time.Now()
			db.state.entityData[i].DeletedAt = &now
		}
	}
	db.inserts = 0

	result, err := newTestEngine(db).Execute(context.Background(), Request{
		SourceTenantID: src,
		TargetTenantID: dst,
		Strategy:       StrategySkip,
		Modules: Selection{
			Roles:    []uuid.UUID{roleID},
			Entities: []EntitySelection{{ID: invoiceID, IncludeData: true}},
		},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := Counts{Roles: 1, Entities: 1, EntityData: 3}
	if result.Copied != want {
		t.Fatalf("copied = %+v, want %+v", result.Copied, want)
	}
	if len(result.Skipped) != 0 || len(result.Warnings) != 0 {
		t.Fatalf("unexpected skips %v or warnings %v", result.Skipped, result.Warnings)
	}

	roles, _ := db.ListRoles(context.Background(), dst)
	if len(roles) != 1 || roles[0].Name != "Manager" {
		t.Fatalf("target roles = %+v", roles)
	}
	if roles[0].IsSystem {
		t.Fatal("copied role must not be a system role")
	}
}

func TestExecuteCopiedSystemRoleLosesFlag(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")
	roleID := mustInsertRole(t, db, src, "Admin", true)

	_, err := newTestEngine(db).Execute(context.Background(), Request{
		SourceTenantID: src, TargetTenantID: dst,
		Modules: Selection{Roles: []uuid.UUID{roleID}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	roles, _ := db.ListRoles(context.Background(), dst)
	if len(roles) != 1 || roles[0].IsSystem {
		t.Fatalf("expected one regular role, got %+v", roles)
	}
}

func TestExecuteValidation(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")
	roleID := mustInsertRole(t, db, src, "Manager", false)
	sel := Selection{Roles: []uuid.UUID{roleID}}

	eng := newTestEngine(db)
	ctx := context.Background()

	if _, err := eng.Execute(ctx, Request{SourceTenantID: src, TargetTenantID: src, Modules: sel}); !errors.Is(err, ErrSameTenant) {
		t.Fatalf("self copy: got %v, want ErrSameTenant", err)
	}
	if _, err := eng.Execute(ctx, Request{SourceTenantID: src, TargetTenantID: dst}); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("empty selection: got %v, want ErrEmptySelection", err)
	}
	if _, err := eng.Execute(ctx, Request{SourceTenantID: uuid.New(), TargetTenantID: dst, Modules: sel}); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("unknown source: got %v, want ErrTenantNotFound", err)
	}
	if _, err := eng.Execute(ctx, Request{SourceTenantID: src, TargetTenantID: uuid.New(), Modules: sel}); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("unknown target: got %v, want ErrTenantNotFound", err)
	}
	if _, err := eng.Execute(ctx, Request{SourceTenantID: src, TargetTenantID: dst, Strategy: "merge", Modules: sel}); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("bad strategy: got %v, want ErrInvalidStrategy", err)
	}
}

func TestExecuteRollsBackOnWriteFailure(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")

	roleID := mustInsertRole(t, db, src, "Manager", false)
	entID := mustInsertEntity(t, db, src, "Invoice", "invoice", nil)
	mustInsertRecord(t, db, src, entID, `{}`, nil, nil)
	mustInsertRecord(t, db, src, entID, `{}`, nil, nil)

	db.inserts = 0
	db.failAfterInserts = 3 // role + entity + first record succeed, then boom

	_, err := newTestEngine(db).Execute(context.Background(), Request{
		SourceTenantID: src, TargetTenantID: dst,
		Modules: Selection{
			Roles:    []uuid.UUID{roleID},
			Entities: []EntitySelection{{ID: entID, IncludeData: true}},
		},
	})
	if err == nil {
		t.Fatal("expected injected failure to surface")
	}

	ctx := context.Background()
	if roles, _ := db.ListRoles(ctx, dst); len(roles) != 0 {
		t.Fatalf("rollback left %d roles in target", len(roles))
	}
	if entities, _ := db.ListEntities(ctx, dst); len(entities) != 0 {
		t.Fatalf("rollback left %d entities in target", len(entities))
	}
}

func TestExecuteParentBeforeChild(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")

	entID := mustInsertEntity(t, db, src, "Folder", "folder", nil)
	parent := mustInsertRecord(t, db, src, entID, `{"name":"root"}`, nil, nil)
	child := mustInsertRecord(t, db, src, entID, `{"name":"sub"}`, &parent, nil)
	mustInsertRecord(t, db, src, entID, `{"name":"leaf"}`, &child, nil)

	result, err := newTestEngine(db).Execute(context.Background(), Request{
		SourceTenantID: src, TargetTenantID: dst,
		Modules: Selection{Entities: []EntitySelection{{ID: entID, IncludeData: true}}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Copied.EntityData != 3 {
		t.Fatalf("copied %d records, want 3", result.Copied.EntityData)
	}

	newEnt := findTargetEntity(t, db, dst, "folder")
	rows, _ := db.ListEntityData(context.Background(), dst, newEnt.ID)
	byName := map[string]models.EntityData{}
	for _, r := range rows {
		var payload struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(r.Data, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		byName[payload.Name] = r
	}

	if byName["root"].ParentID != nil {
		t.Fatal("root must stay parent-less")
	}
	if byName["sub"].ParentID == nil || *byName["sub"].ParentID != byName["root"].ID {
		t.Fatalf("sub parent = %v, want new root id %s", byName["sub"].ParentID, byName["root"].ID)
	}
	if byName["leaf"].ParentID == nil || *byName["leaf"].ParentID != byName["sub"].ID {
		t.Fatalf("leaf parent = %v, want new sub id %s", byName["leaf"].ParentID, byName["sub"].ID)
	}
}

func TestExecuteOrphanChildIsDroppedWithWarning(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")

	parentEnt := mustInsertEntity(t, db, src, "Project", "project", nil)
	childEnt := mustInsertEntity(t, db, src, "Task", "task", nil)
	parent := mustInsertRecord(t, db, src, parentEnt, `{}`, nil, nil)
	child := mustInsertRecord(t, db, src, childEnt, `{}`, &parent, nil)

	result, err := newTestEngine(db).Execute(context.Background(), Request{
		SourceTenantID: src, TargetTenantID: dst,
		Modules: Selection{Entities: []EntitySelection{{ID: childEnt, IncludeData: true}}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Copied.EntityData != 0 {
		t.Fatalf("orphan child counted as copied: %d", result.Copied.EntityData)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, child.String()) {
			found = true
		}
	}
	if !found {
		t.Fatalf("no warning names the orphan child %s: %v", child, result.Warnings)
	}
}

func TestExecuteVisibilityListRemap(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")

	roleID := mustInsertRole(t, db, src, "Manager", false)
	foreign := uuid.New() // never selected, stays dangling on purpose
	entID := mustInsertEntity(t, db, src, "Invoice", "invoice", nil)
	mustInsertRecord(t, db, src, entID, `{}`, nil, []uuid.UUID{roleID, foreign})

	_, err := newTestEngine(db).Execute(context.Background(), Request{
		SourceTenantID: src, TargetTenantID: dst,
		Modules: Selection{
			Roles:    []uuid.UUID{roleID},
			Entities: []EntitySelection{{ID: entID, IncludeData: true}},
		},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	newRoles, _ := db.ListRoles(context.Background(), dst)
	newEnt := findTargetEntity(t, db, dst, "invoice")
	rows, _ := db.ListEntityData(context.Background(), dst, newEnt.ID)
	if len(rows) != 1 {
		t.Fatalf("target records = %d, want 1", len(rows))
	}

	got := rows[0].VisibleTo
	if len(got) != 2 || got[0] != newRoles[0].ID || got[1] != foreign {
		t.Fatalf("visible_to = %v, want [%s %s]", got, newRoles[0].ID, foreign)
	}
	if len(rows[0].VisibleToJSON) == 0 {
		t.Fatal("visibility JSON mirror not written")
	}
}

func TestExecuteRelationRemap(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")

	customerEnt := mustInsertEntity(t, db, src, "Customer", "customer", nil)
	invoiceEnt := mustInsertEntity(t, db, src, "Invoice", "invoice", []models.Field{
		{Slug: "number", Type: models.FieldTypeText},
		{Slug: "customer", Type: models.FieldTypeRelation, Relation: "customer"},
		{Slug: "related", Type: models.FieldTypeRelation, Relation: "customer"},
	})

	b1 := mustInsertRecord(t, db, src, customerEnt, `{"name":"ACME"}`, nil, nil)
	unknown := uuid.New()
	mustInsertRecord(t, db, src, invoiceEnt,
		`{"number":"INV-1","customer":"`+b1.String()+`","related":["`+b1.String()+`","`+unknown.String()+`"]}`,
		nil, nil)

	_, err := newTestEngine(db).Execute(context.Background(), Request{
		SourceTenantID: src, TargetTenantID: dst,
		Modules: Selection{Entities: []EntitySelection{
			{ID: customerEnt, IncludeData: true},
			{ID: invoiceEnt, IncludeData: true},
		}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	ctx := context.Background()
	newCustomerEnt := findTargetEntity(t, db, dst, "customer")
	newInvoiceEnt := findTargetEntity(t, db, dst, "invoice")
	customers, _ := db.ListEntityData(ctx, dst, newCustomerEnt.ID)
	invoices, _ := db.ListEntityData(ctx, dst, newInvoiceEnt.ID)
	if len(customers) != 1 || len(invoices) != 1 {
		t.Fatalf("target records: %d customers, %d invoices", len(customers), len(invoices))
	}

	var payload struct {
		Customer string   `json:"customer"`
		Related  []string `json:"related"`
	}
	if err := json.Unmarshal(invoices[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Customer != customers[0].ID.String() {
		t.Fatalf("relation = %s, want new customer id %s", payload.Customer, customers[0].ID)
	}
	if len(payload.Related) != 2 || payload.Related[0] != customers[0].ID.String() || payload.Related[1] != unknown.String() {
		t.Fatalf("array relation = %v", payload.Related)
	}
}

func TestExecuteDropsUncopiedEntityReference(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")

	entID := mustInsertEntity(t, db, src, "Invoice", "invoice", nil)
	epID, err := db.InsertEndpoint(context.Background(), models.Endpoint{
		TenantID: src, Name: "List invoices", Path: "/invoices", Method: "GET", EntityID: &entID,
	})
	if err != nil {
		t.Fatalf("insert endpoint: %v", err)
	}

	result, err := newTestEngine(db).Execute(context.Background(), Request{
		SourceTenantID: src, TargetTenantID: dst,
		Modules: Selection{Endpoints: []uuid.UUID{epID}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Copied.Endpoints != 1 {
		t.Fatalf("copied.endpoints = %d, want 1", result.Copied.Endpoints)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "List invoices") {
		t.Fatalf("warnings = %v", result.Warnings)
	}

	eps, _ := db.ListEndpoints(context.Background(), dst)
	if len(eps) != 1 || eps[0].EntityID != nil {
		t.Fatalf("target endpoint = %+v, want nil entity reference", eps)
	}
}

func TestExecuteCopiesAreUnpublished(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")
	ctx := context.Background()

	tplID, _ := db.InsertPdfTemplate(ctx, models.PdfTemplate{
		TenantID: src, Name: "Invoice PDF", Slug: "invoice-pdf", Published: true,
	})
	pageID, _ := db.InsertPage(ctx, models.Page{
		TenantID: src, Title: "Home", Slug: "home", Published: true,
	})

	_, err := newTestEngine(db).Execute(ctx, Request{
		SourceTenantID: src, TargetTenantID: dst,
		Modules: Selection{PdfTemplates: []uuid.UUID{tplID}, Pages: []uuid.UUID{pageID}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	tpls, _ := db.ListPdfTemplates(ctx, dst)
	pages, _ := db.ListPages(ctx, dst)
	if len(tpls) != 1 || tpls[0].Published {
		t.Fatalf("template copy published: %+v", tpls)
	}
	if len(pages) != 1 || pages[0].Published {
		t.Fatalf("page copy published: %+v", pages)
	}
}

func seedFullTenant(t *testing.T, db *memDB, src uuid.UUID) Request {
	t.Helper()
	ctx := context.Background()

	roleID := mustInsertRole(t, db, src, "Manager", false)
	entID := mustInsertEntity(t, db, src, "Invoice", "invoice", nil)
	mustInsertRecord(t, db, src, entID, `{}`, nil, nil)
	epID, _ := db.InsertEndpoint(ctx, models.Endpoint{TenantID: src, Name: "List", Path: "/invoices", Method: "GET"})
	tplID, _ := db.InsertPdfTemplate(ctx, models.PdfTemplate{TenantID: src, Name: "Invoice PDF", Slug: "invoice-pdf"})
	pageID, _ := db.InsertPage(ctx, models.Page{TenantID: src, Title: "Home", Slug: "home"})

	return Request{
		SourceTenantID: src,
		Modules: Selection{
			Roles:        []uuid.UUID{roleID},
			Entities:     []EntitySelection{{ID: entID, IncludeData: true}},
			Endpoints:    []uuid.UUID{epID},
			PdfTemplates: []uuid.UUID{tplID},
			Pages:        []uuid.UUID{pageID},
		},
	}
}

func TestExecuteSkipStrategyIsIdempotentForNamedObjects(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")

	req := seedFullTenant(t, db, src)
	req.TargetTenantID = dst
	req.Strategy = StrategySkip

	eng := newTestEngine(db)
	ctx := context.Background()

	first, err := eng.Execute(ctx, req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	want := Counts{Roles: 1, Entities: 1, EntityData: 1, Endpoints: 1, PdfTemplates: 1, Pages: 1}
	if first.Copied != want {
		t.Fatalf("first copied = %+v, want %+v", first.Copied, want)
	}

	second, err := eng.Execute(ctx, req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	// every named object skips; anonymous data records are re-copied
	wantSecond := Counts{EntityData: 1}
	if second.Copied != wantSecond {
		t.Fatalf("second copied = %+v, want %+v", second.Copied, wantSecond)
	}
	if len(second.Skipped) != 5 {
		t.Fatalf("second skipped = %v, want 5 entries", second.Skipped)
	}
}

func TestExecuteSuffixStrategyKeepsNamesUnique(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	dst := db.addTenant("target")

	req := seedFullTenant(t, db, src)
	req.TargetTenantID = dst
	req.Strategy = StrategySuffix

	eng := newTestEngine(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := eng.Execute(ctx, req); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	roles, _ := db.ListRoles(ctx, dst)
	names := map[string]bool{}
	for _, r := range roles {
		if names[r.Name] {
			t.Fatalf("duplicate role name %q in target", r.Name)
		}
		names[r.Name] = true
	}
	if !names["Manager"] || !names["Manager (copy)"] {
		t.Fatalf("role names = %v", names)
	}

	entities, _ := db.ListEntities(ctx, dst)
	slugs := map[string]bool{}
	for _, e := range entities {
		if slugs[e.Slug] {
			t.Fatalf("duplicate entity slug %q in target", e.Slug)
		}
		slugs[e.Slug] = true
	}
	if !slugs["invoice"] || !slugs["invoice-copy"] {
		t.Fatalf("entity slugs = %v", slugs)
	}

	eps, _ := db.ListEndpoints(ctx, dst)
	routes := map[string]bool{}
	for _, ep := range eps {
		key := ep.Method + " " + ep.Path
		if routes[key] {
			t.Fatalf("duplicate endpoint route %q in target", key)
		}
		routes[key] = true
	}
	if !routes["GET /invoices"] || !routes["GET /invoices-copy"] {
		t.Fatalf("endpoint routes = %v", routes)
	}
}

func TestPreview(t *testing.T) {
	db := newMemDB()
	src := db.addTenant("source")
	ctx := context.Background()

	roleID := mustInsertRole(t, db, src, "Manager", false)
	db.state.users = append(db.state.users, models.User{ID: uuid.New(), TenantID: src, RoleID: &roleID})
	entID := mustInsertEntity(t, db, src, "Invoice", "invoice", nil)
	mustInsertRecord(t, db, src, entID, `{}`, nil, nil)
	mustInsertRecord(t, db, src, entID, `{}`, nil, nil)
	db.InsertPage(ctx, models.Page{TenantID: src, Title: "Home", Slug: "home"})

	p, err := newTestEngine(db).Preview(ctx, src)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	if len(p.Roles) != 1 || p.Roles[0].UserCount != 1 {
		t.Fatalf("roles preview = %+v", p.Roles)
	}
	if len(p.Entities) != 1 || p.Entities[0].RecordCount != 2 {
		t.Fatalf("entities preview = %+v", p.Entities)
	}
	if len(p.Pages) != 1 || len(p.Endpoints) != 0 || len(p.PdfTemplates) != 0 {
		t.Fatalf("preview = %+v", p)
	}

	if _, err := newTestEngine(db).Preview(ctx, uuid.New()); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("unknown tenant: got %v, want ErrTenantNotFound", err)
	}
}

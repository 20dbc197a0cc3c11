package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"realty_backoffice/auth"
	"realty_backoffice/errs"
)

type doc struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	IsRead bool   `json:"isRead"`
}

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	backend, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), DefaultTables())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	gw := NewGateway(backend)
	t.Cleanup(func() { gw.Close() })
	return gw
}

func adminCtx() context.Context {
	return auth.WithSession(context.Background(), auth.SystemSession(time.Hour))
}

func adminClient(t *testing.T, gw *Gateway) *Client {
	t.Helper()
	c, err := gw.Admin(adminCtx())
	if err != nil {
		t.Fatalf("Admin: %v", err)
	}
	return c
}

func TestAdminRequiresSession(t *testing.T) {
	gw := newTestGateway(t)

	if _, err := gw.Admin(context.Background()); !errs.Is(err, errs.KindAuthRequired) {
		t.Fatalf("expected AuthRequired without session, got %v", err)
	}

	expired := &auth.Session{Subject: "a", Role: auth.RoleAdmin, ExpiresAt: time.Now().Add(-time.Minute)}
	if _, err := gw.Admin(auth.WithSession(context.Background(), expired)); !errs.Is(err, errs.KindAuthRequired) {
		t.Fatalf("expected AuthRequired for expired session, got %v", err)
	}

	c := adminClient(t, gw)
	if !c.IsAdmin() {
		t.Error("admin client should report IsAdmin")
	}
}

func TestPublicClientPermissions(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()
	pub := gw.Public()

	if err := pub.PutDocument(ctx, Inquiries, "inq_1", doc{ID: "inq_1"}); err != nil {
		t.Fatalf("public put inquiry: %v", err)
	}
	if _, err := pub.ScanDocuments(ctx, Listings); err != nil {
		t.Fatalf("public scan listings: %v", err)
	}

	denied := map[string]error{
		"put listing":    pub.PutDocument(ctx, Listings, "l1", doc{ID: "l1"}),
		"delete listing": pub.DeleteDocument(ctx, Listings, "l1"),
		"update inquiry": pub.UpdateAttributes(ctx, Inquiries, "inq_1", map[string]any{"isRead": true}),
		"delete inquiry": pub.DeleteDocument(ctx, Inquiries, "inq_1"),
	}
	_, scanErr := pub.ScanDocuments(ctx, Inquiries)
	denied["scan inquiries"] = scanErr

	for name, err := range denied {
		if !errs.Is(err, errs.KindAuthRequired) {
			t.Errorf("%s: expected AuthRequired, got %v", name, err)
		}
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()
	c := adminClient(t, gw)

	if err := c.PutDocument(ctx, Listings, "l1", doc{ID: "l1", Title: "Cottage"}); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}

	var got doc
	if err := c.GetDocument(ctx, Listings, "l1", &got); err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != "Cottage" {
		t.Errorf("Title = %q, want Cottage", got.Title)
	}

	// Put replaces
	if err := c.PutDocument(ctx, Listings, "l1", doc{ID: "l1", Title: "Manor"}); err != nil {
		t.Fatalf("PutDocument replace: %v", err)
	}
	docs, err := c.ScanDocuments(ctx, Listings)
	if err != nil {
		t.Fatalf("ScanDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	var scanned doc
	if err := json.Unmarshal(docs[0], &scanned); err != nil {
		t.Fatal(err)
	}
	if scanned.Title != "Manor" {
		t.Errorf("scanned Title = %q, want Manor", scanned.Title)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	gw := newTestGateway(t)
	var got doc
	err := gw.Public().GetDocument(context.Background(), Listings, "nope", &got)
	if !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestUpdateAttributesMergesFields(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()
	c := adminClient(t, gw)

	if err := c.PutDocument(ctx, Inquiries, "inq_1", doc{ID: "inq_1", Title: "Hello"}); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateAttributes(ctx, Inquiries, "inq_1", map[string]any{"isRead": true}); err != nil {
		t.Fatalf("UpdateAttributes: %v", err)
	}

	var got doc
	if err := c.GetDocument(ctx, Inquiries, "inq_1", &got); err != nil {
		t.Fatal(err)
	}
	if !got.IsRead || got.Title != "Hello" {
		t.Errorf("got %+v, want isRead=true and title preserved", got)
	}
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	gw := newTestGateway(t)
	c := adminClient(t, gw)

	err := c.UpdateAttributes(context.Background(), Inquiries, "inq_missing", map[string]any{"isRead": true})
	if !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDeleteMissingSucceeds(t *testing.T) {
	gw := newTestGateway(t)
	c := adminClient(t, gw)

	if err := c.DeleteDocument(context.Background(), Listings, "never-existed"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
}

func TestTablesRejectInvalidNames(t *testing.T) {
	tables := Tables{Listings: "Listings; DROP TABLE x", Inquiries: "Inquiries"}
	if _, err := tables.name(Listings); err == nil {
		t.Error("expected error for invalid table name")
	}
	if _, err := tables.name(Collection("other")); err == nil {
		t.Error("expected error for unknown collection")
	}
	if name, err := DefaultTables().name(Inquiries); err != nil || name != "Inquiries" {
		t.Errorf("name = %q, %v", name, err)
	}
}

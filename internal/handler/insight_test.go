package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rslater/leadscout/internal/database"
	"github.com/rslater/leadscout/internal/insight"
	"github.com/rslater/leadscout/internal/provision"
	"github.com/rslater/leadscout/internal/store"
)

type insightFixture struct {
	handler  *InsightHandler
	users    *store.UserStore
	payments *store.PaymentStore
	catalog  *insight.Catalog
}

func setupInsight(t *testing.T) *insightFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	catalog, err := insight.NewCatalog()
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	users := store.NewUserStore(db)
	payments := store.NewPaymentStore(db)
	provisioner := provision.NewService(users, &fakeCreator{id: "cus_123"}, slog.Default())

	h := NewInsightHandler(catalog, provisioner, payments, slog.Default())
	return &insightFixture{handler: h, users: users, payments: payments, catalog: catalog}
}

func TestInsightList(t *testing.T) {
	f := setupInsight(t)

	rec := httptest.NewRecorder()
	f.handler.List(rec, authedRequest("GET", "/api/insights"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var cards []insight.Insight
	if err := json.NewDecoder(rec.Body).Decode(&cards); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cards) != f.catalog.Len() {
		t.Errorf("cards = %d, want %d", len(cards), f.catalog.Len())
	}
	for _, c := range cards {
		if c.Body != "" {
			t.Errorf("card %q leaked premium body", c.ID)
		}
	}
}

func TestInsightGetUnpaid(t *testing.T) {
	f := setupInsight(t)
	id := f.catalog.List()[0].ID

	req := authedRequest("GET", "/api/insights/"+id)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	f.handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var card insight.Insight
	json.NewDecoder(rec.Body).Decode(&card)
	if card.Body != "" {
		t.Error("unpaid user must not receive the premium body")
	}
}

func TestInsightGetPaid(t *testing.T) {
	f := setupInsight(t)
	id := f.catalog.List()[0].ID

	// Provision then pay
	req := authedRequest("GET", "/api/insights/"+id)
	req.SetPathValue("id", id)
	f.handler.Get(httptest.NewRecorder(), req)

	user, _ := f.users.GetByClerkID("u_1")
	if _, err := f.payments.Create(user.ID, "cs_test_1", 40.00, "usd", "paid"); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	req = authedRequest("GET", "/api/insights/"+id)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	f.handler.Get(rec, req)

	var card insight.Insight
	json.NewDecoder(rec.Body).Decode(&card)
	if card.Body == "" {
		t.Error("paid user must receive the premium body")
	}
}

func TestInsightGetUnknownID(t *testing.T) {
	f := setupInsight(t)

	req := authedRequest("GET", "/api/insights/no-such-card")
	req.SetPathValue("id", "no-such-card")
	rec := httptest.NewRecorder()
	f.handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

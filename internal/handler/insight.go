package handler

import (
	"log/slog"
	"net/http"

	"github.com/rslater/leadscout/internal/insight"
	"github.com/rslater/leadscout/internal/provision"
	"github.com/rslater/leadscout/internal/store"
)

type InsightHandler struct {
	catalog     *insight.Catalog
	provisioner *provision.Service
	payments    *store.PaymentStore
	logger      *slog.Logger
}

func NewInsightHandler(c *insight.Catalog, p *provision.Service, ps *store.PaymentStore, logger *slog.Logger) *InsightHandler {
	return &InsightHandler{catalog: c, provisioner: p, payments: ps, logger: logger}
}

// List returns every card summary. Premium bodies are never included here.
func (h *InsightHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

// Get returns a single card. The premium body is included only when the
// visitor has completed a purchase.
func (h *InsightHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if id == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.provisioner.Ensure(r.Context(), id)
	if err != nil {
		h.logger.Error("provision user", "clerk_id", id.Subject, "error", err)
		http.Error(w, "something went wrong, please retry", http.StatusInternalServerError)
		return
	}

	paid, err := h.payments.HasPaid(user.ID)
	if err != nil {
		h.logger.Error("check entitlement", "user_id", user.ID, "error", err)
		http.Error(w, "something went wrong, please retry", http.StatusInternalServerError)
		return
	}

	ins, ok := h.catalog.Get(r.PathValue("id"), paid)
	if !ok {
		http.Error(w, "insight not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

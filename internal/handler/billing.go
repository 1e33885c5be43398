package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rslater/leadscout/internal/model"
	"github.com/rslater/leadscout/internal/provision"
	"github.com/rslater/leadscout/internal/store"
)

// BillingRedirector produces hosted-page URLs for the payment provider.
// *stripe.Client satisfies this.
type BillingRedirector interface {
	CreateCheckoutSession(customerID string) (string, error)
	CreateBillingPortalSession(customerID string) (string, error)
}

type BillingHandler struct {
	provisioner *provision.Service
	payments    *store.PaymentStore
	redirector  BillingRedirector
	logger      *slog.Logger
}

func NewBillingHandler(
	p *provision.Service,
	ps *store.PaymentStore,
	redirector BillingRedirector,
	logger *slog.Logger,
) *BillingHandler {
	return &BillingHandler{
		provisioner: p,
		payments:    ps,
		redirector:  redirector,
		logger:      logger,
	}
}

// Dashboard provisions the visitor lazily and returns their user record.
func (h *BillingHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := h.ensureUser(w, r)
	if user == nil {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type billingState struct {
	Paid     bool             `json:"paid"`
	Payments []*model.Payment `json:"payments"`
}

// BillingPage returns the entitlement state gating the billing page between
// "offer to purchase" and "manage".
func (h *BillingHandler) BillingPage(w http.ResponseWriter, r *http.Request) {
	user := h.ensureUser(w, r)
	if user == nil {
		return
	}

	paid, err := h.payments.HasPaid(user.ID)
	if err != nil {
		h.logger.Error("check entitlement", "error", err)
		http.Error(w, "something went wrong, please retry", http.StatusInternalServerError)
		return
	}
	payments, err := h.payments.ListByUserID(user.ID)
	if err != nil {
		h.logger.Error("list payments", "error", err)
		http.Error(w, "something went wrong, please retry", http.StatusInternalServerError)
		return
	}
	if payments == nil {
		payments = []*model.Payment{}
	}

	writeJSON(w, http.StatusOK, billingState{Paid: paid, Payments: payments})
}

// CreateCheckoutSession returns the hosted checkout URL for the fixed price.
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	user := h.ensureUser(w, r)
	if user == nil {
		return
	}

	url, err := h.redirector.CreateCheckoutSession(*user.StripeCustomerID)
	if err != nil {
		h.logger.Error("create checkout session", "user_id", user.ID, "error", err)
		http.Error(w, "failed to start checkout, please retry", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// BillingPortal returns the hosted self-service portal URL.
func (h *BillingHandler) BillingPortal(w http.ResponseWriter, r *http.Request) {
	user := h.ensureUser(w, r)
	if user == nil {
		return
	}

	url, err := h.redirector.CreateBillingPortalSession(*user.StripeCustomerID)
	if err != nil {
		h.logger.Error("create portal session", "user_id", user.ID, "error", err)
		http.Error(w, "failed to open billing portal, please retry", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// ensureUser runs lazy provisioning for the authenticated identity. On
// failure it writes the generic retry response and returns nil.
func (h *BillingHandler) ensureUser(w http.ResponseWriter, r *http.Request) *model.User {
	id := IdentityFromContext(r.Context())
	if id == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil
	}

	user, err := h.provisioner.Ensure(r.Context(), id)
	if err != nil {
		h.logger.Error("provision user", "clerk_id", id.Subject, "error", err)
		http.Error(w, "something went wrong, please retry", http.StatusInternalServerError)
		return nil
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		h.logger.Error("user has no billing customer after provisioning", "clerk_id", id.Subject)
		http.Error(w, "something went wrong, please retry", http.StatusInternalServerError)
		return nil
	}
	return user
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/rslater/leadscout/internal/store"
	leadstripe "github.com/rslater/leadscout/internal/stripe"
)

type WebhookHandler struct {
	stripeClient  *leadstripe.Client
	users         *store.UserStore
	payments      *store.PaymentStore
	subscriptions *store.SubscriptionStore
	subsEnabled   bool
	logger        *slog.Logger
}

func NewWebhookHandler(
	sc *leadstripe.Client,
	us *store.UserStore,
	ps *store.PaymentStore,
	ss *store.SubscriptionStore,
	subsEnabled bool,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		stripeClient:  sc,
		users:         us,
		payments:      ps,
		subscriptions: ss,
		subsEnabled:   subsEnabled,
		logger:        logger,
	}
}

// HandleStripeWebhook verifies the delivery signature and applies the local
// state transition for the event. At most one payment row is written per
// delivery; a dispatch failure returns 5xx so Stripe redelivers.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := h.stripeClient.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		err = h.handleCheckoutCompleted(event)
	case "invoice.payment_succeeded":
		err = h.handleInvoicePaymentSucceeded(event)
	default:
		// Unsubscribed event kinds are acknowledged without effect.
	}

	if err != nil {
		h.logger.Error("webhook dispatch failed", "type", event.Type, "error", err)
		http.Error(w, "event not applied", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCheckoutCompleted(event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("unmarshal checkout session: %w", err)
	}

	switch sess.Mode {
	case stripe.CheckoutSessionModePayment:
		return h.recordOneTimePayment(sess)
	case stripe.CheckoutSessionModeSubscription:
		if !h.subsEnabled {
			return nil
		}
		return h.recordSubscription(sess)
	default:
		return nil
	}
}

func (h *WebhookHandler) recordOneTimePayment(sess stripe.CheckoutSession) error {
	if sess.Customer == nil || sess.Customer.ID == "" {
		return fmt.Errorf("checkout session %s has no customer", sess.ID)
	}

	user, err := h.users.GetByStripeCustomerID(sess.Customer.ID)
	if err != nil {
		return err
	}
	if user == nil {
		// The customer was created by provisioning, so a missing user means
		// the ledger and Stripe disagree. Redelivery is the recovery path.
		return fmt.Errorf("no user for stripe customer %s", sess.Customer.ID)
	}

	amount := float64(sess.AmountTotal) / 100
	_, err = h.payments.Create(user.ID, sess.ID, amount, string(sess.Currency), string(sess.PaymentStatus))
	if errors.Is(err, store.ErrDuplicatePayment) {
		h.logger.Info("payment already recorded, skipping", "session_id", sess.ID)
		return nil
	}
	if err != nil {
		return err
	}

	h.logger.Info("payment recorded",
		"session_id", sess.ID, "user_id", user.ID, "amount", amount, "currency", string(sess.Currency))
	return nil
}

func (h *WebhookHandler) recordSubscription(sess stripe.CheckoutSession) error {
	if sess.Customer == nil || sess.Customer.ID == "" {
		return fmt.Errorf("checkout session %s has no customer", sess.ID)
	}
	if sess.Subscription == nil {
		return fmt.Errorf("checkout session %s has no subscription", sess.ID)
	}

	user, err := h.users.GetByStripeCustomerID(sess.Customer.ID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no user for stripe customer %s", sess.Customer.ID)
	}

	if existing, err := h.subscriptions.GetByStripeID(sess.Subscription.ID); err != nil {
		return err
	} else if existing != nil {
		return nil
	}

	_, err = h.subscriptions.Create(user.ID, sess.Subscription.ID, "active")
	return err
}

func (h *WebhookHandler) handleInvoicePaymentSucceeded(event stripe.Event) error {
	if !h.subsEnabled {
		return nil
	}

	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("unmarshal invoice: %w", err)
	}

	subID := subscriptionIDFromInvoice(invoice)
	if subID == "" {
		return nil
	}

	sub, err := h.subscriptions.GetByStripeID(subID)
	if err != nil || sub == nil {
		return err
	}

	if err := h.subscriptions.UpdateStatus(sub.ID, "active"); err != nil {
		return err
	}
	if invoice.PeriodEnd > 0 {
		return h.subscriptions.UpdatePeriodEnd(sub.ID, time.Unix(invoice.PeriodEnd, 0).UTC())
	}
	return nil
}

// subscriptionIDFromInvoice extracts the subscription ID from an invoice's parent.
func subscriptionIDFromInvoice(invoice stripe.Invoice) string {
	if invoice.Parent != nil &&
		invoice.Parent.SubscriptionDetails != nil &&
		invoice.Parent.SubscriptionDetails.Subscription != nil {
		return invoice.Parent.SubscriptionDetails.Subscription.ID
	}
	return ""
}

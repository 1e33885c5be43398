package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rslater/leadscout/internal/clerk"
	"github.com/rslater/leadscout/internal/config"
	"github.com/rslater/leadscout/internal/handler"
	"github.com/rslater/leadscout/internal/insight"
	"github.com/rslater/leadscout/internal/middleware"
	"github.com/rslater/leadscout/internal/provision"
	"github.com/rslater/leadscout/internal/store"
	leadstripe "github.com/rslater/leadscout/internal/stripe"
)

type Server struct {
	db          *sql.DB
	users       *store.UserStore
	payments    *store.PaymentStore
	webhookH    *handler.WebhookHandler
	billingH    *handler.BillingHandler
	profileH    *handler.ProfileHandler
	insightH    *handler.InsightHandler
	verifier    *clerk.Verifier
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	users := store.NewUserStore(db)
	payments := store.NewPaymentStore(db)
	subscriptions := store.NewSubscriptionStore(db)
	profiles := store.NewProfileStore(db)

	verifier, err := clerk.NewVerifier(cfg.Clerk.PEMPublicKey)
	if err != nil {
		return nil, fmt.Errorf("clerk verifier: %w", err)
	}

	stripeClient := leadstripe.NewClient(leadstripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		PriceID:       cfg.Stripe.PriceID,
		BaseURL:       cfg.BaseURL,
	})

	catalog, err := insight.NewCatalog()
	if err != nil {
		return nil, fmt.Errorf("insight catalog: %w", err)
	}

	provisioner := provision.NewService(users, stripeClient, logger.With("component", "provision"))

	webhookH := handler.NewWebhookHandler(
		stripeClient, users, payments, subscriptions,
		cfg.SubscriptionsEnabled, logger.With("component", "webhook"))
	billingH := handler.NewBillingHandler(
		provisioner, payments, stripeClient, logger.With("component", "billing"))
	profileH := handler.NewProfileHandler(provisioner, profiles, logger.With("component", "profile"))
	insightH := handler.NewInsightHandler(catalog, provisioner, payments, logger.With("component", "insight"))

	return &Server{
		db:          db,
		users:       users,
		payments:    payments,
		webhookH:    webhookH,
		billingH:    billingH,
		profileH:    profileH,
		insightH:    insightH,
		verifier:    verifier,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}, nil
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /{$}", s.landingPage)
	mux.HandleFunc("GET /health", s.healthCheck)

	// Stripe webhook (public, authenticated by signature)
	mux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleStripeWebhook)

	// Protected routes
	authMw := middleware.RequireSession(s.verifier)
	rateLimitMw := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)

	mux.Handle("GET /dashboard", authMw(http.HandlerFunc(s.billingH.Dashboard)))
	mux.Handle("GET /dashboard/billing", authMw(http.HandlerFunc(s.billingH.BillingPage)))
	mux.Handle("POST /api/checkout", authMw(rateLimitMw(http.HandlerFunc(s.billingH.CreateCheckoutSession))))
	mux.Handle("POST /api/billing-portal", authMw(rateLimitMw(http.HandlerFunc(s.billingH.BillingPortal))))
	mux.Handle("GET /api/profile", authMw(http.HandlerFunc(s.profileH.Get)))
	mux.Handle("PUT /api/profile", authMw(http.HandlerFunc(s.profileH.Put)))
	mux.Handle("GET /api/insights", authMw(http.HandlerFunc(s.insightH.List)))
	mux.Handle("GET /api/insights/{id}", authMw(http.HandlerFunc(s.insightH.Get)))

	return middleware.RequestLogger(s.logger)(mux)
}

func (s *Server) landingPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"name":    "LeadScout",
		"tagline": "Sales research insights for revenue teams",
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

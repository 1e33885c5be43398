package model

import "time"

// User is the local record for an authenticated visitor. ClerkID is the
// identity provider's subject id and acts as the natural key; the Stripe
// customer id is filled in lazily on first dashboard visit and is immutable
// once set.
type User struct {
	ID               int64     `json:"id"`
	ClerkID          string    `json:"clerk_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	StripeCustomerID *string   `json:"stripe_customer_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Payment records a single completed one-time purchase. Amount is in major
// currency units (Stripe's amount_total divided by 100). StripePaymentID is
// unique so a redelivered webhook cannot record the same purchase twice.
type Payment struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	StripePaymentID string    `json:"stripe_payment_id"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// PaymentStatusPaid is the status value that grants entitlement.
const PaymentStatusPaid = "paid"

// Subscription is the parallel recurring-billing entity. The path that
// writes it is disabled unless subscriptions are enabled in config.
type Subscription struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"user_id"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id"`
	Status               string     `json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// CompanyProfile holds the research context a user fills in about their own
// company. One profile per user.
type CompanyProfile struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	CompanyName string    `json:"company_name"`
	Industry    string    `json:"industry"`
	Website     string    `json:"website"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

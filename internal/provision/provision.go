// Package provision guarantees that every authenticated visitor has exactly
// one local user record and exactly one Stripe customer, creating either on
// demand.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/rslater/leadscout/internal/clerk"
	"github.com/rslater/leadscout/internal/model"
	"github.com/rslater/leadscout/internal/store"
)

// CustomerCreator creates a billing customer keyed by email and returns the
// provider's customer id. *stripe.Client satisfies this.
type CustomerCreator interface {
	CreateCustomer(email string) (string, error)
}

type Service struct {
	users    *store.UserStore
	billing  CustomerCreator
	logger   *slog.Logger
	attempts uint64
}

func NewService(users *store.UserStore, billing CustomerCreator, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		billing:  billing,
		logger:   logger,
		attempts: 2,
	}
}

// Ensure returns the user row for the given identity, creating the row and
// its Stripe customer as needed. Each write is followed by a re-read so the
// returned record always reflects the store, never a write return value.
//
// If the Stripe call fails, the error propagates and the user row keeps an
// empty customer reference; the next visit retries. The reference is
// write-once: when a concurrent visit sets it first, the stored value wins
// and the customer created here is discarded.
func (s *Service) Ensure(ctx context.Context, id *clerk.Identity) (*model.User, error) {
	if id.Email == "" {
		return nil, fmt.Errorf("provision requires an email")
	}

	user, err := s.users.GetByClerkID(id.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		if _, err := s.users.Create(id.Subject, id.Email, id.Name()); err != nil {
			// A concurrent first visit may have won the insert; the unique
			// constraint on clerk_id is the arbiter. Re-read and continue if
			// the row is there now.
			existing, getErr := s.users.GetByClerkID(id.Subject)
			if getErr != nil || existing == nil {
				return nil, fmt.Errorf("create user: %w", err)
			}
			s.logger.Debug("concurrent provisioning detected", "clerk_id", id.Subject)
		}
		user, err = s.users.GetByClerkID(id.Subject)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("user %s missing after create", id.Subject)
		}
	}

	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return user, nil
	}

	customerID, err := s.createCustomer(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateStripeCustomerID(user.ClerkID, customerID); err != nil {
		if !errors.Is(err, store.ErrCustomerAlreadySet) {
			return nil, err
		}
		// A concurrent visit finished first while our Stripe call was in
		// flight. The stored reference is authoritative; ours is discarded.
		s.logger.Info("billing customer already set, discarding",
			"clerk_id", id.Subject, "discarded_customer_id", customerID)
	}

	user, err = s.users.GetByClerkID(id.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s missing after provisioning", id.Subject)
	}
	s.logger.Info("provisioned billing customer",
		"clerk_id", id.Subject, "customer_id", *user.StripeCustomerID)
	return user, nil
}

// createCustomer retries transient Stripe failures a couple of times before
// giving up; the final error still propagates to the caller.
func (s *Service) createCustomer(ctx context.Context, email string) (string, error) {
	var customerID string
	backoff := retry.WithMaxRetries(s.attempts, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, err := s.billing.CreateCustomer(email)
		if err != nil {
			return retry.RetryableError(err)
		}
		customerID = id
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create billing customer: %w", err)
	}
	return customerID, nil
}

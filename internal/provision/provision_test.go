package provision

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/rslater/leadscout/internal/clerk"
	"github.com/rslater/leadscout/internal/database"
	"github.com/rslater/leadscout/internal/store"
)

type fakeCreator struct {
	calls int
	id    string
	err   error
}

func (f *fakeCreator) CreateCustomer(email string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

// interleavedCreator simulates a concurrent first visit finishing while this
// request's Stripe call is still in flight: the winner's reference lands in
// the store before CreateCustomer returns.
type interleavedCreator struct {
	users    *store.UserStore
	clerkID  string
	winnerID string
	loserID  string
}

func (c *interleavedCreator) CreateCustomer(email string) (string, error) {
	if err := c.users.UpdateStripeCustomerID(c.clerkID, c.winnerID); err != nil {
		return "", err
	}
	return c.loserID, nil
}

func setupService(t *testing.T, creator CustomerCreator) (*Service, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	return NewService(users, creator, slog.Default()), users
}

func identity() *clerk.Identity {
	return &clerk.Identity{Subject: "u_1", Email: "a@b.com", FirstName: "Alice", LastName: "Birch"}
}

func TestEnsureFirstVisit(t *testing.T) {
	creator := &fakeCreator{id: "cus_123"}
	svc, users := setupService(t, creator)

	user, err := svc.Ensure(context.Background(), identity())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if user.ClerkID != "u_1" || user.Email != "a@b.com" {
		t.Errorf("user = %+v", user)
	}
	if user.Name != "Alice Birch" {
		t.Errorf("name = %q, want %q", user.Name, "Alice Birch")
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID != "cus_123" {
		t.Errorf("stripe_customer_id = %v, want cus_123", user.StripeCustomerID)
	}
	if creator.calls != 1 {
		t.Errorf("creator calls = %d, want 1", creator.calls)
	}

	// Exactly one row, keyed by subject id
	stored, _ := users.GetByClerkID("u_1")
	if stored == nil || stored.ID != user.ID {
		t.Fatalf("stored user = %v, want id %d", stored, user.ID)
	}
}

func TestEnsureAlreadyProvisioned(t *testing.T) {
	creator := &fakeCreator{id: "cus_123"}
	svc, _ := setupService(t, creator)

	first, err := svc.Ensure(context.Background(), identity())
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}

	second, err := svc.Ensure(context.Background(), identity())
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second visit created a new user: %d then %d", first.ID, second.ID)
	}
	if creator.calls != 1 {
		t.Errorf("creator calls = %d, want 1 (no provider call on revisit)", creator.calls)
	}
}

func TestEnsureExistingUserWithoutCustomer(t *testing.T) {
	creator := &fakeCreator{id: "cus_999"}
	svc, users := setupService(t, creator)

	users.Create("u_1", "a@b.com", "Alice Birch")

	user, err := svc.Ensure(context.Background(), identity())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID != "cus_999" {
		t.Errorf("stripe_customer_id = %v, want cus_999", user.StripeCustomerID)
	}
}

func TestEnsureProviderFailureLeavesNoReference(t *testing.T) {
	creator := &fakeCreator{err: fmt.Errorf("stripe unavailable")}
	svc, users := setupService(t, creator)

	_, err := svc.Ensure(context.Background(), identity())
	if err == nil {
		t.Fatal("expected error from provider failure")
	}
	if creator.calls == 0 {
		t.Error("expected at least one provider attempt")
	}

	// The user row exists but stays providerless, to be retried next visit.
	user, _ := users.GetByClerkID("u_1")
	if user == nil {
		t.Fatal("expected user row to exist")
	}
	if user.StripeCustomerID != nil {
		t.Error("no partial customer reference may be persisted")
	}
}

func TestEnsureConcurrentWinnerKeepsItsCustomer(t *testing.T) {
	creator := &interleavedCreator{clerkID: "u_1", winnerID: "cus_winner", loserID: "cus_loser"}
	svc, users := setupService(t, creator)
	creator.users = users

	user, err := svc.Ensure(context.Background(), identity())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID != "cus_winner" {
		t.Errorf("stripe_customer_id = %v, want cus_winner (first write wins)", user.StripeCustomerID)
	}

	stored, _ := users.GetByClerkID("u_1")
	if stored.StripeCustomerID == nil || *stored.StripeCustomerID != "cus_winner" {
		t.Errorf("stored reference = %v, want cus_winner untouched", stored.StripeCustomerID)
	}
}

func TestEnsureRequiresEmail(t *testing.T) {
	creator := &fakeCreator{id: "cus_123"}
	svc, users := setupService(t, creator)

	_, err := svc.Ensure(context.Background(), &clerk.Identity{Subject: "u_1"})
	if err == nil {
		t.Fatal("expected error for missing email")
	}
	if creator.calls != 0 {
		t.Error("provider must not be called without an email")
	}
	if u, _ := users.GetByClerkID("u_1"); u != nil {
		t.Error("no user row may be created without an email")
	}
}

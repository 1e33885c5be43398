package store

import (
	"testing"

	"github.com/rslater/leadscout/internal/database"
)

func setupProfileTestDB(t *testing.T) (*ProfileStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := NewUserStore(db)
	u, err := users.Create("u_1", "a@b.com", "Alice Birch")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewProfileStore(db), u.ID
}

func TestProfileGetByUserIDEmpty(t *testing.T) {
	s, userID := setupProfileTestDB(t)

	p, err := s.GetByUserID(userID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p != nil {
		t.Error("expected nil before upsert")
	}
}

func TestProfileUpsertCreates(t *testing.T) {
	s, userID := setupProfileTestDB(t)

	p, err := s.Upsert(userID, "Birch Analytics", "SaaS", "https://birch.example", "Pipeline tooling")
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	if p.CompanyName != "Birch Analytics" {
		t.Errorf("company_name = %q, want %q", p.CompanyName, "Birch Analytics")
	}
}

func TestProfileUpsertReplaces(t *testing.T) {
	s, userID := setupProfileTestDB(t)

	first, _ := s.Upsert(userID, "Birch Analytics", "SaaS", "", "")
	second, err := s.Upsert(userID, "Birch Data", "Analytics", "https://birch.example", "")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a second row: id %d then %d", first.ID, second.ID)
	}
	if second.CompanyName != "Birch Data" {
		t.Errorf("company_name = %q, want %q", second.CompanyName, "Birch Data")
	}
	if second.Industry != "Analytics" {
		t.Errorf("industry = %q, want %q", second.Industry, "Analytics")
	}
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/rslater/leadscout/internal/model"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func scanProfile(scanner interface{ Scan(...any) error }) (*model.CompanyProfile, error) {
	var p model.CompanyProfile
	err := scanner.Scan(
		&p.ID, &p.UserID, &p.CompanyName, &p.Industry, &p.Website, &p.Description,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const profileCols = `id, user_id, company_name, industry, website, description, created_at, updated_at`

func (s *ProfileStore) GetByUserID(userID int64) (*model.CompanyProfile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM company_profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Upsert creates or replaces the user's company profile.
func (s *ProfileStore) Upsert(userID int64, companyName, industry, website, description string) (*model.CompanyProfile, error) {
	_, err := s.db.Exec(
		`INSERT INTO company_profiles (user_id, company_name, industry, website, description)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   company_name = excluded.company_name,
		   industry = excluded.industry,
		   website = excluded.website,
		   description = excluded.description,
		   updated_at = CURRENT_TIMESTAMP`,
		userID, companyName, industry, website, description,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return s.GetByUserID(userID)
}

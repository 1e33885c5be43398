package store

import (
	"database/sql"
	"fmt"

	"github.com/rslater/leadscout/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var customerID sql.NullString
	err := scanner.Scan(&u.ID, &u.ClerkID, &u.Email, &u.Name, &customerID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		u.StripeCustomerID = &customerID.String
	}
	return &u, nil
}

const userCols = `id, clerk_id, email, name, stripe_customer_id, created_at, updated_at`

func (s *UserStore) Create(clerkID, email, name string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (clerk_id, email, name) VALUES (?, ?, ?)`,
		clerkID, email, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByClerkID(clerkID string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE clerk_id = ?`, clerkID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by clerk id: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByStripeCustomerID(customerID string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE stripe_customer_id = ?`, customerID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by stripe customer id: %w", err)
	}
	return u, nil
}

// ErrCustomerAlreadySet is returned when the row already carries a billing
// customer reference. The reference is write-once; concurrent provisioning
// attempts hit this instead of overwriting each other.
var ErrCustomerAlreadySet = fmt.Errorf("stripe customer id already set")

// UpdateStripeCustomerID persists the billing customer reference, scoped by
// the clerk id so the write cannot land on any other row. The write only
// lands while the column is still empty; otherwise ErrCustomerAlreadySet.
func (s *UserStore) UpdateStripeCustomerID(clerkID, customerID string) error {
	result, err := s.db.Exec(
		`UPDATE users SET stripe_customer_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE clerk_id = ? AND stripe_customer_id IS NULL`,
		customerID, clerkID,
	)
	if err != nil {
		return fmt.Errorf("update stripe customer id: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrCustomerAlreadySet
	}
	return nil
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

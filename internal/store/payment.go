package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rslater/leadscout/internal/model"
)

type PaymentStore struct {
	db *sql.DB
}

func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

func scanPayment(scanner interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	err := scanner.Scan(&p.ID, &p.UserID, &p.StripePaymentID, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const paymentCols = `id, user_id, stripe_payment_id, amount, currency, status, created_at`

// ErrDuplicatePayment is returned when a payment with the same external
// reference already exists. Webhook redeliveries hit this.
var ErrDuplicatePayment = fmt.Errorf("payment already recorded")

func (s *PaymentStore) Create(userID int64, stripePaymentID string, amount float64, currency, status string) (*model.Payment, error) {
	result, err := s.db.Exec(
		`INSERT INTO payments (user_id, stripe_payment_id, amount, currency, status) VALUES (?, ?, ?, ?, ?)`,
		userID, stripePaymentID, amount, currency, status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePayment
		}
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PaymentStore) GetByID(id int64) (*model.Payment, error) {
	row := s.db.QueryRow(`SELECT `+paymentCols+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (s *PaymentStore) GetByStripePaymentID(stripePaymentID string) (*model.Payment, error) {
	row := s.db.QueryRow(`SELECT `+paymentCols+` FROM payments WHERE stripe_payment_id = ?`, stripePaymentID)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment by stripe id: %w", err)
	}
	return p, nil
}

func (s *PaymentStore) ListByUserID(userID int64) ([]*model.Payment, error) {
	rows, err := s.db.Query(
		`SELECT `+paymentCols+` FROM payments WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// HasPaid reports whether the user holds at least one payment with status
// "paid". This is the sole entitlement check.
func (s *PaymentStore) HasPaid(userID int64) (bool, error) {
	var exists int
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM payments WHERE user_id = ? AND status = ?)`,
		userID, model.PaymentStatusPaid,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check paid: %w", err)
	}
	return exists == 1, nil
}

// isUniqueViolation detects a sqlite unique-constraint failure without
// depending on driver error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

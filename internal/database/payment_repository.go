package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

const paymentColumns = `
	id, user_id, status, amount, currency, exchange_rate,
	charged_amount, charged_currency, gateway, gateway_order_id,
	metadata, booking_group_id, created_at, updated_at`

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create persists a freshly initiated payment with its snapshot
func (r *PaymentRepository) Create(p *models.Payment) error {
	query := `
		INSERT INTO payments (
			user_id, status, amount, currency, exchange_rate,
			charged_amount, charged_currency, gateway, gateway_order_id, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowx(query,
		p.UserID, p.Status, p.Amount, p.Currency, p.ExchangeRate,
		p.ChargedAmount, p.ChargedCurrency, p.Gateway, p.GatewayOrderID, p.Metadata,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(paymentID uuid.UUID) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	if err := r.db.Get(payment, query, paymentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// GetByGatewayOrderID retrieves a payment by its gateway correlation id
func (r *PaymentRepository) GetByGatewayOrderID(orderID string) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_order_id = $1`

	if err := r.db.Get(payment, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// UpdateStatus transitions a payment's status. The expected current status is
// part of the WHERE clause so a late duplicate callback cannot flip a settled
// payment.
func (r *PaymentRepository) UpdateStatus(paymentID uuid.UUID, from, to models.PaymentStatus) error {
	res, err := r.db.Exec(`
		UPDATE payments SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		to, paymentID, from)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read payment update result: %w", err)
	}
	if rows == 0 {
		return models.ErrPaymentNotFound
	}
	return nil
}

// StampBookingGroupTx sets booking_group_id exactly once, inside the booking
// transaction. A second confirmation never reaches this statement because the
// service returns the existing group first; the IS NULL guard is the
// last-resort protection for a racing replay.
func (r *PaymentRepository) StampBookingGroupTx(tx *sqlx.Tx, paymentID, groupID uuid.UUID) error {
	res, err := tx.Exec(`
		UPDATE payments
		SET booking_group_id = $1, updated_at = NOW()
		WHERE id = $2 AND booking_group_id IS NULL`,
		groupID, paymentID)
	if err != nil {
		return fmt.Errorf("failed to stamp payment: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read payment stamp result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("payment %s already confirmed", paymentID)
	}
	return nil
}

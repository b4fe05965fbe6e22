package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

const offerColumns = `
	id, code, discount_type, discount_value, max_discount, min_booking_amount,
	usage_limit, usage_count, valid_from, valid_until, applicable_buses,
	created_by, creator_role, active, created_at, updated_at`

// OfferRepository handles offer database operations
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository creates a new OfferRepository
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// GetByCode retrieves an active offer by its code. Codes are matched
// case-insensitively and stored upper-case.
func (r *OfferRepository) GetByCode(code string) (*models.Offer, error) {
	offer := &models.Offer{}
	query := `SELECT ` + offerColumns + ` FROM offers WHERE code = $1`

	if err := r.db.Get(offer, query, strings.ToUpper(code)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

// IncrementUsageTx bumps the usage counter inside the booking transaction.
// The WHERE clause re-checks the limit under the row lock so two racing
// confirmations cannot both consume the final use.
func (r *OfferRepository) IncrementUsageTx(tx *sqlx.Tx, offerID uuid.UUID) error {
	res, err := tx.Exec(`
		UPDATE offers
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1
		  AND active = true
		  AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		offerID)
	if err != nil {
		return fmt.Errorf("failed to increment offer usage: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read offer update result: %w", err)
	}
	if rows == 0 {
		return &models.OfferRejection{Code: offerID.String(), Reason: "offer usage limit reached"}
	}
	return nil
}

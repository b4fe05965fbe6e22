package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/spytro26/gantabya-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentUpdateStatus_GuardsCurrentStatus(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	repo := NewPaymentRepository(db)
	paymentID := uuid.New()

	t.Run("matching current status transitions", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments SET status").
			WithArgs(models.PaymentStatusSuccess, paymentID, models.PaymentStatusInitiated).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(paymentID, models.PaymentStatusInitiated, models.PaymentStatusSuccess)
		require.NoError(t, err)
	})

	t.Run("stale transition affects no rows", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments SET status").
			WithArgs(models.PaymentStatusFailed, paymentID, models.PaymentStatusInitiated).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(paymentID, models.PaymentStatusInitiated, models.PaymentStatusFailed)
		assert.ErrorIs(t, err, models.ErrPaymentNotFound)
	})
}

func TestStampBookingGroupTx_SetOnce(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	repo := NewPaymentRepository(db)
	paymentID := uuid.New()
	groupID := uuid.New()

	t.Run("first stamp succeeds", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payments").
			WithArgs(groupID, paymentID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.Beginx()
		require.NoError(t, err)
		assert.NoError(t, repo.StampBookingGroupTx(tx, paymentID, groupID))
	})

	t.Run("second stamp is rejected by the null guard", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payments").
			WithArgs(groupID, paymentID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.Beginx()
		require.NoError(t, err)
		assert.Error(t, repo.StampBookingGroupTx(tx, paymentID, groupID))
	})
}

func TestOfferIncrementUsageTx_LimitGuard(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	repo := NewOfferRepository(db)
	offerID := uuid.New()

	t.Run("under limit increments", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE offers").
			WithArgs(offerID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.Beginx()
		require.NoError(t, err)
		assert.NoError(t, repo.IncrementUsageTx(tx, offerID))
	})

	t.Run("exhausted offer is rejected under the lock", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE offers").
			WithArgs(offerID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.Beginx()
		require.NoError(t, err)

		err = repo.IncrementUsageTx(tx, offerID)
		var rejection *models.OfferRejection
		assert.ErrorAs(t, err, &rejection)
	})
}

func TestPaymentGetByID_RestoresSnapshot(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	repo := NewPaymentRepository(db)
	paymentID := uuid.New()
	userID := uuid.New()

	metadata := []byte(`{"request":{"trip_id":"t","from_stop_id":"a","to_stop_id":"b","boarding_point_id":"p1","dropping_point_id":"p2","seats":[]},"pricing":{"seat_fares":{},"total_price":1500,"discount_amount":0,"final_price":1500,"currency":"NPR","calculated_at":"2026-08-29T10:00:00Z"}}`)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(paymentID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "status", "amount", "currency", "exchange_rate",
			"charged_amount", "charged_currency", "gateway", "gateway_order_id",
			"metadata", "booking_group_id", "created_at", "updated_at",
		}).AddRow(
			paymentID, userID, models.PaymentStatusSuccess, 1500.0, "NPR", 0.625,
			937.50, "INR", "razorpay", "order_abc", metadata, nil, time.Now(), time.Now()))

	payment, err := repo.GetByID(paymentID)
	require.NoError(t, err)

	assert.Equal(t, 937.50, payment.ChargedAmount)
	assert.Equal(t, 1500.0, payment.Metadata.Pricing.FinalPrice)
	assert.False(t, payment.Confirmed())
}

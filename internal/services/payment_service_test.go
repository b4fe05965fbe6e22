package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spytro26/gantabya-sub000/internal/config"
	"github.com/spytro26/gantabya-sub000/internal/database"
	"github.com/spytro26/gantabya-sub000/internal/gateway"
	"github.com/spytro26/gantabya-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway scripts gateway answers for service tests
type fakeGateway struct {
	orderID string
	results []gateway.VerificationResult
	calls   int
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) CreateOrder(_ context.Context, _ float64, _, _ string) (string, error) {
	return f.orderID, nil
}

func (f *fakeGateway) Verify(_ context.Context, _ gateway.VerificationInput) (gateway.VerificationResult, error) {
	result := f.results[f.calls]
	if f.calls < len(f.results)-1 {
		f.calls++
	}
	return result, nil
}

// noopNotifier satisfies Notifier for tests that never reach a notification
type noopNotifier struct{}

func (noopNotifier) BookingConfirmed(uuid.UUID, models.BookingResult)       {}
func (noopNotifier) BookingCancelled(uuid.UUID, uuid.UUID)                  {}
func (noopNotifier) CouponApplied(uuid.UUID, uuid.UUID, uuid.UUID, float64) {}

var paymentRows = []string{
	"id", "user_id", "status", "amount", "currency", "exchange_rate",
	"charged_amount", "charged_currency", "gateway", "gateway_order_id",
	"metadata", "booking_group_id", "created_at", "updated_at",
}

func paymentRow(t *testing.T, p *models.Payment) *sqlmock.Rows {
	metadata, err := json.Marshal(p.Metadata)
	require.NoError(t, err)
	return sqlmock.NewRows(paymentRows).AddRow(
		p.ID, p.UserID, p.Status, p.Amount, p.Currency, p.ExchangeRate,
		p.ChargedAmount, p.ChargedCurrency, p.Gateway, p.GatewayOrderID,
		metadata, p.BookingGroupID, time.Now(), time.Now(),
	)
}

func initiatedPayment(userID uuid.UUID) *models.Payment {
	return &models.Payment{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          models.PaymentStatusInitiated,
		Amount:          1500,
		Currency:        "NPR",
		ExchangeRate:    0.625,
		ChargedAmount:   937.50,
		ChargedCurrency: "INR",
		Gateway:         "fake",
		GatewayOrderID:  "order_abc",
	}
}

func newPaymentService(db *sqlx.DB, gw gateway.PaymentGateway) *PaymentService {
	cfg := config.PaymentConfig{
		ChargedCurrency: "INR",
		ExchangeRate:    0.625,
		VerifyTimeout:   time.Second,
		VerifyAttempts:  3,
	}
	return NewPaymentService(database.NewPaymentRepository(db), nil, gw, cfg, "NPR", testLogger())
}

func TestVerify_SuccessMovesPaymentToSuccess(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	userID := uuid.New()
	payment := initiatedPayment(userID)
	gw := &fakeGateway{results: []gateway.VerificationResult{{Verified: true}}}
	svc := newPaymentService(db, gw)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))
	mock.ExpectExec("UPDATE payments SET status").
		WithArgs(models.PaymentStatusSuccess, payment.ID, models.PaymentStatusInitiated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := svc.Verify(context.Background(), userID, payment.ID, &models.VerifyPaymentRequest{
		GatewayPaymentID: "pay_123",
		Signature:        "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerify_RejectedSignatureFailsPayment(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	userID := uuid.New()
	payment := initiatedPayment(userID)
	gw := &fakeGateway{results: []gateway.VerificationResult{{Verified: false}}}
	svc := newPaymentService(db, gw)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))
	mock.ExpectExec("UPDATE payments SET status").
		WithArgs(models.PaymentStatusFailed, payment.ID, models.PaymentStatusInitiated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.Verify(context.Background(), userID, payment.ID, &models.VerifyPaymentRequest{
		GatewayPaymentID: "pay_123",
		Signature:        "tampered",
	})
	assert.ErrorIs(t, err, models.ErrPaymentFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerify_PendingLeavesPaymentInitiated(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	userID := uuid.New()
	payment := initiatedPayment(userID)
	gw := &fakeGateway{results: []gateway.VerificationResult{{Pending: true}}}
	svc := newPaymentService(db, gw)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))

	_, err := svc.Verify(context.Background(), userID, payment.ID, &models.VerifyPaymentRequest{
		GatewayPaymentID: "pay_123",
	})
	assert.ErrorIs(t, err, models.ErrPaymentNotVerified)
	// No status update was expected
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerify_PendingThenCompletedRetries(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	userID := uuid.New()
	payment := initiatedPayment(userID)
	gw := &fakeGateway{results: []gateway.VerificationResult{
		{Pending: true},
		{Verified: true},
	}}
	svc := newPaymentService(db, gw)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))
	mock.ExpectExec("UPDATE payments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := svc.Verify(context.Background(), userID, payment.ID, &models.VerifyPaymentRequest{
		GatewayPaymentID: "pay_123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, got.Status)
}

func TestVerify_AlreadySuccessfulIsNoOp(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	userID := uuid.New()
	payment := initiatedPayment(userID)
	payment.Status = models.PaymentStatusSuccess
	svc := newPaymentService(db, &fakeGateway{})

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))

	got, err := svc.Verify(context.Background(), userID, payment.ID, &models.VerifyPaymentRequest{
		GatewayPaymentID: "pay_123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, got.Status)
}

func TestVerify_WrongUserIsForbidden(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	payment := initiatedPayment(uuid.New())
	svc := newPaymentService(db, &fakeGateway{})

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))

	_, err := svc.Verify(context.Background(), uuid.New(), payment.ID, &models.VerifyPaymentRequest{
		GatewayPaymentID: "pay_123",
	})
	assert.ErrorIs(t, err, models.ErrNotOwner)
}

func TestConfirm_UnverifiedPaymentRejected(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	userID := uuid.New()
	payment := initiatedPayment(userID)
	svc := newPaymentService(db, &fakeGateway{})

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))

	_, err := svc.Confirm(context.Background(), userID, payment.ID)
	assert.ErrorIs(t, err, models.ErrPaymentNotVerified)
}

func TestVerify_RefundedPaymentIsTerminal(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	userID := uuid.New()
	payment := initiatedPayment(userID)
	payment.Status = models.PaymentStatusRefunded
	svc := newPaymentService(db, &fakeGateway{results: []gateway.VerificationResult{{Verified: true}}})

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))

	_, err := svc.Verify(context.Background(), userID, payment.ID, &models.VerifyPaymentRequest{
		GatewayPaymentID: "pay_123",
	})
	assert.ErrorIs(t, err, models.ErrPaymentRefunded)
	// The gateway was never asked and no status update was issued
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirm_ReplayReturnsExistingGroup(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	userID := uuid.New()
	groupID := uuid.New()
	tripID := uuid.New()
	busID := uuid.New()
	fromStopID := uuid.New()
	toStopID := uuid.New()
	boardingID := uuid.New()
	droppingID := uuid.New()
	offerID := uuid.New()
	now := time.Now()

	payment := initiatedPayment(userID)
	payment.Status = models.PaymentStatusSuccess
	payment.BookingGroupID = &groupID

	bookings := NewBookingService(
		database.NewTripRepository(db),
		database.NewCatalogRepository(db),
		database.NewBookingRepository(db),
		database.NewOfferRepository(db),
		database.NewPaymentRepository(db),
		nil,
		noopNotifier{},
		config.BookingConfig{CutoffMinutes: 30, TxTimeout: time.Second, Currency: "NPR"},
		testLogger(),
	)
	svc := NewPaymentService(database.NewPaymentRepository(db), bookings, &fakeGateway{}, config.PaymentConfig{}, "NPR", testLogger())

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))
	mock.ExpectQuery("SELECT (.+) FROM booking_groups WHERE id").
		WithArgs(groupID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "trip_id", "from_stop_id", "to_stop_id", "direction",
			"boarding_point_id", "dropping_point_id",
			"total_price", "discount_amount", "final_price", "offer_id", "status",
			"cancelled_at", "created_at", "updated_at",
		}).AddRow(groupID, userID, tripID, fromStopID, toStopID, "forward",
			boardingID, droppingID, 1500.0, 100.0, 1400.0, offerID, "confirmed",
			nil, now, now))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE booking_group_id").
		WithArgs(groupID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_group_id", "trip_id", "seat_id", "seat_number", "direction",
			"from_position", "to_position", "status", "cancelled_at", "created_at", "updated_at",
		}).AddRow(uuid.New(), groupID, tripID, uuid.New(), "A1", "forward",
			0, 2, "confirmed", nil, now, now))
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE id").
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "service_date", "status", "created_at", "updated_at",
		}).AddRow(tripID, busID, now.AddDate(0, 0, 7), "scheduled", now, now))
	mock.ExpectQuery("SELECT (.+) FROM stops WHERE bus_id").
		WithArgs(busID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "name", "position",
			"forward_departure", "forward_arrival", "return_departure", "return_arrival",
			"price_upper_seater", "price_upper_sleeper",
			"price_lower_seater", "price_lower_sleeper", "price_from_origin",
			"created_at", "updated_at",
		}).
			AddRow(fromStopID, busID, "Kathmandu", 0, "06:00", nil, nil, nil, 0.0, 0.0, 0.0, 0.0, 0.0, now, now).
			AddRow(toStopID, busID, "Narayanghat", 2, nil, "11:00", nil, nil, 500.0, 700.0, 500.0, 600.0, 500.0, now, now))
	mock.ExpectQuery("SELECT (.+) FROM stop_points WHERE id").
		WithArgs(boardingID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stop_id", "name", "kind"}).
			AddRow(boardingID, fromStopID, "Kalanki", "boarding"))
	mock.ExpectQuery("SELECT (.+) FROM stop_points WHERE id").
		WithArgs(droppingID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stop_id", "name", "kind"}).
			AddRow(droppingID, toStopID, "Pulchowk", "dropping"))

	result, err := svc.Confirm(context.Background(), userID, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, groupID, result.GroupID)
	assert.Equal(t, []string{"A1"}, result.SeatNumbers)
	assert.Equal(t, 1400.0, result.FinalPrice)
	// The replay issued reads only: no booking insert, no offer usage bump
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirm_RefundedPaymentRejected(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	userID := uuid.New()
	groupID := uuid.New()
	payment := initiatedPayment(userID)
	payment.Status = models.PaymentStatusRefunded
	payment.BookingGroupID = &groupID
	svc := newPaymentService(db, &fakeGateway{})

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))

	_, err := svc.Confirm(context.Background(), userID, payment.ID)
	assert.ErrorIs(t, err, models.ErrPaymentRefunded)
	// The stamped group was not replayed
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirm_FailedPaymentRejected(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	userID := uuid.New()
	payment := initiatedPayment(userID)
	payment.Status = models.PaymentStatusFailed
	svc := newPaymentService(db, &fakeGateway{})

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(payment.ID).
		WillReturnRows(paymentRow(t, payment))

	_, err := svc.Confirm(context.Background(), userID, payment.ID)
	assert.ErrorIs(t, err, models.ErrPaymentFailed)
}

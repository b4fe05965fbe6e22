package services

import (
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spytro26/gantabya-sub000/internal/database"
	"github.com/spytro26/gantabya-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

var offerRows = []string{
	"id", "code", "discount_type", "discount_value", "max_discount",
	"min_booking_amount", "usage_limit", "usage_count", "valid_from",
	"valid_until", "applicable_buses", "created_by", "creator_role",
	"active", "created_at", "updated_at",
}

// uuidArrayLiteral renders the Postgres array literal the driver would hand
// back for a uuid[] column
func uuidArrayLiteral(ids models.UUIDArray) []byte {
	return []byte("{" + strings.Join(ids, ",") + "}")
}

func offerRow(offer *models.Offer) *sqlmock.Rows {
	return sqlmock.NewRows(offerRows).AddRow(
		offer.ID, offer.Code, offer.DiscountType, offer.DiscountValue,
		offer.MaxDiscount, offer.MinBookingAmount, offer.UsageLimit,
		offer.UsageCount, offer.ValidFrom, offer.ValidUntil,
		uuidArrayLiteral(offer.ApplicableBuses), offer.CreatedBy,
		offer.CreatorRole, offer.Active, time.Now(), time.Now(),
	)
}

func platformOffer() *models.Offer {
	return &models.Offer{
		ID:               uuid.New(),
		Code:             "SAVE50",
		DiscountType:     models.DiscountPercentage,
		DiscountValue:    50,
		MaxDiscount:      floatPtr(500),
		MinBookingAmount: floatPtr(1000),
		ValidFrom:        time.Now().Add(-24 * time.Hour),
		ValidUntil:       time.Now().Add(24 * time.Hour),
		CreatedBy:        uuid.New(),
		CreatorRole:      models.CreatorRolePlatform,
		Active:           true,
	}
}

func newOfferService(db *sqlx.DB) *OfferService {
	return NewOfferService(
		database.NewOfferRepository(db),
		database.NewCatalogRepository(db),
		database.NewTripRepository(db),
		testLogger(),
	)
}

func TestEvaluate_PercentageCappedByMaxDiscount(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	svc := newOfferService(db)

	offer := platformOffer()
	mock.ExpectQuery("SELECT (.+) FROM offers WHERE code").
		WithArgs("SAVE50").
		WillReturnRows(offerRow(offer))

	bus := &models.Bus{ID: uuid.New(), OperatorID: uuid.New()}
	got, breakdown, err := svc.Evaluate("save50", bus, 2000)
	require.NoError(t, err)

	assert.Equal(t, offer.ID, got.ID)
	// 50% of 2000 is 1000, capped at 500
	assert.Equal(t, 500.0, breakdown.DiscountAmount)
	assert.Equal(t, 1500.0, breakdown.FinalPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluate_RejectionOrder(t *testing.T) {
	bus := &models.Bus{ID: uuid.New(), OperatorID: uuid.New()}

	tests := []struct {
		name   string
		mutate func(*models.Offer)
		total  float64
		reason string
	}{
		{
			name:   "inactive",
			mutate: func(o *models.Offer) { o.Active = false },
			total:  2000,
			reason: "offer is not active",
		},
		{
			name:   "expired window",
			mutate: func(o *models.Offer) { o.ValidUntil = time.Now().Add(-time.Hour) },
			total:  2000,
			reason: "offer is outside its validity window",
		},
		{
			name: "exhausted",
			mutate: func(o *models.Offer) {
				o.UsageLimit = intPtr(10)
				o.UsageCount = 10
			},
			total:  2000,
			reason: "offer usage limit reached",
		},
		{
			name:   "below minimum",
			mutate: func(o *models.Offer) {},
			total:  500,
			reason: "booking total below offer minimum",
		},
		{
			name: "wrong operator bus",
			mutate: func(o *models.Offer) {
				o.CreatorRole = models.CreatorRoleOperator
			},
			total:  2000,
			reason: "offer does not apply to this bus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupTestDB(t)
			defer db.Close()
			svc := newOfferService(db)

			offer := platformOffer()
			tt.mutate(offer)
			mock.ExpectQuery("SELECT (.+) FROM offers WHERE code").
				WithArgs("SAVE50").
				WillReturnRows(offerRow(offer))

			_, _, err := svc.Evaluate("SAVE50", bus, tt.total)
			var rejection *models.OfferRejection
			require.ErrorAs(t, err, &rejection)
			assert.Equal(t, tt.reason, rejection.Reason)
		})
	}
}

func TestEvaluate_UnknownCodeIsRejection(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	svc := newOfferService(db)

	mock.ExpectQuery("SELECT (.+) FROM offers WHERE code").
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows(offerRows))

	bus := &models.Bus{ID: uuid.New()}
	_, _, err := svc.Evaluate("NOPE", bus, 2000)
	var rejection *models.OfferRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, "offer does not exist", rejection.Reason)
}

func TestComputeDiscount(t *testing.T) {
	t.Run("fixed discount clamped to total", func(t *testing.T) {
		offer := &models.Offer{DiscountType: models.DiscountFixed, DiscountValue: 300}
		assert.Equal(t, 200.0, computeDiscount(offer, 200))
	})

	t.Run("percentage without cap", func(t *testing.T) {
		offer := &models.Offer{DiscountType: models.DiscountPercentage, DiscountValue: 10}
		assert.Equal(t, 150.0, computeDiscount(offer, 1500))
	})
}

func TestOfferAppliesToBus(t *testing.T) {
	operatorID := uuid.New()
	bus := &models.Bus{ID: uuid.New(), OperatorID: operatorID}

	t.Run("operator offer scoped to listed buses", func(t *testing.T) {
		offer := &models.Offer{
			CreatedBy:       operatorID,
			CreatorRole:     models.CreatorRoleOperator,
			ApplicableBuses: models.UUIDArray{uuid.New().String()},
		}
		assert.False(t, offer.AppliesToBus(bus))

		offer.ApplicableBuses = append(offer.ApplicableBuses, bus.ID.String())
		assert.True(t, offer.AppliesToBus(bus))
	})

	t.Run("operator offer with empty list covers own fleet", func(t *testing.T) {
		offer := &models.Offer{CreatedBy: operatorID, CreatorRole: models.CreatorRoleOperator}
		assert.True(t, offer.AppliesToBus(bus))
	})
}

package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spytro26/gantabya-sub000/internal/config"
	"github.com/spytro26/gantabya-sub000/internal/database"
	"github.com/spytro26/gantabya-sub000/internal/gateway"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

// PaymentService runs the pay-then-book flow: initiate an order with the
// gateway, verify the charge, then confirm the booking from the priced
// snapshot frozen at initiation.
type PaymentService struct {
	paymentRepo *database.PaymentRepository
	bookings    *BookingService
	gw          gateway.PaymentGateway
	cfg         config.PaymentConfig
	currency    string
	logger      *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo *database.PaymentRepository,
	bookings *BookingService,
	gw gateway.PaymentGateway,
	cfg config.PaymentConfig,
	currency string,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		bookings:    bookings,
		gw:          gw,
		cfg:         cfg,
		currency:    currency,
		logger:      logger,
	}
}

// Initiate prices the booking request, registers an order with the gateway
// and records the payment attempt with the priced request frozen in its
// metadata. When the gateway settles in a different currency the amount is
// converted at the configured rate, and the rate used is captured on the row.
func (s *PaymentService) Initiate(ctx context.Context, userID uuid.UUID, req *models.CreateBookingRequest) (*models.InitiatePaymentResponse, error) {
	priced, err := s.bookings.Price(req)
	if err != nil {
		return nil, err
	}

	rate := 1.0
	chargedCurrency := s.currency
	chargedAmount := priced.Pricing.FinalPrice
	if s.cfg.ChargedCurrency != "" && s.cfg.ChargedCurrency != s.currency {
		rate = s.cfg.ExchangeRate
		chargedCurrency = s.cfg.ChargedCurrency
		chargedAmount = RoundHalfUp2(priced.Pricing.FinalPrice * rate)
	}

	receipt := "bkg_" + uuid.New().String()
	orderID, err := s.gw.CreateOrder(ctx, chargedAmount, chargedCurrency, receipt)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:          userID,
		Status:          models.PaymentStatusInitiated,
		Amount:          priced.Pricing.FinalPrice,
		Currency:        s.currency,
		ExchangeRate:    rate,
		ChargedAmount:   chargedAmount,
		ChargedCurrency: chargedCurrency,
		Gateway:         s.gw.Name(),
		GatewayOrderID:  orderID,
		Metadata: models.BookingSnapshot{
			Request: *req,
			Pricing: priced.Pricing,
		},
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"order_id":   orderID,
		"gateway":    payment.Gateway,
		"amount":     chargedAmount,
		"currency":   chargedCurrency,
	}).Info("Payment initiated")

	return &models.InitiatePaymentResponse{
		PaymentID:       payment.ID,
		GatewayOrderID:  orderID,
		Gateway:         payment.Gateway,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		ChargedAmount:   chargedAmount,
		ChargedCurrency: chargedCurrency,
		Pricing:         priced.Pricing,
	}, nil
}

// Verify settles the payment's status with the gateway. A definitive
// rejection moves the payment to failed; an answer the gateway cannot give
// yet leaves it initiated so verification can be retried. Verifying an
// already-successful payment is a no-op.
func (s *PaymentService) Verify(ctx context.Context, userID uuid.UUID, paymentID uuid.UUID, req *models.VerifyPaymentRequest) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, models.ErrNotOwner
	}
	switch payment.Status {
	case models.PaymentStatusSuccess:
		return payment, nil
	case models.PaymentStatusFailed:
		return nil, models.ErrPaymentFailed
	case models.PaymentStatusRefunded:
		return nil, models.ErrPaymentRefunded
	}

	input := gateway.VerificationInput{
		OrderID:   payment.GatewayOrderID,
		PaymentID: req.GatewayPaymentID,
		Signature: req.Signature,
	}

	var result gateway.VerificationResult
	attempts := s.cfg.VerifyAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.VerifyTimeout)
		result, err = s.gw.Verify(attemptCtx, input)
		cancel()
		if err != nil {
			return nil, err
		}
		if !result.Pending {
			break
		}
	}

	if result.Pending {
		s.logger.WithField("payment_id", payment.ID).Warn("Payment status still unknown after verification attempts")
		return nil, models.ErrPaymentNotVerified
	}
	if !result.Verified {
		if err := s.paymentRepo.UpdateStatus(payment.ID, models.PaymentStatusInitiated, models.PaymentStatusFailed); err != nil {
			return nil, err
		}
		s.logger.WithField("payment_id", payment.ID).Warn("Payment verification rejected")
		return nil, models.ErrPaymentFailed
	}

	if err := s.paymentRepo.UpdateStatus(payment.ID, models.PaymentStatusInitiated, models.PaymentStatusSuccess); err != nil {
		return nil, err
	}
	payment.Status = models.PaymentStatusSuccess

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"order_id":   payment.GatewayOrderID,
	}).Info("Payment verified")

	return payment, nil
}

// Confirm turns a verified payment into a confirmed booking group. The
// booking-group stamp on the payment row makes this idempotent: replaying a
// confirmation for an already-confirmed payment returns the existing group
// instead of booking twice.
func (s *PaymentService) Confirm(ctx context.Context, userID uuid.UUID, paymentID uuid.UUID) (*models.BookingResult, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, models.ErrNotOwner
	}
	// A refunded payment never books, even when a group was stamped before
	// the refund
	if payment.Status == models.PaymentStatusRefunded {
		return nil, models.ErrPaymentRefunded
	}
	if payment.Confirmed() {
		return s.bookings.ResultForGroup(*payment.BookingGroupID)
	}

	switch payment.Status {
	case models.PaymentStatusInitiated:
		return nil, models.ErrPaymentNotVerified
	case models.PaymentStatusFailed:
		return nil, models.ErrPaymentFailed
	}

	result, err := s.bookings.ConfirmFromPayment(ctx, payment)
	if err != nil {
		// Money has been captured but no seats were secured. Flag loudly so
		// support can refund or rebook.
		s.logger.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"order_id":   payment.GatewayOrderID,
		}).WithError(err).Error("Confirmation failed for a successful payment")
		return nil, err
	}
	return result, nil
}

// Get returns one payment after checking ownership
func (s *PaymentService) Get(paymentID, userID uuid.UUID) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, models.ErrNotOwner
	}
	return payment, nil
}

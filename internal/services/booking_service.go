package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spytro26/gantabya-sub000/internal/config"
	"github.com/spytro26/gantabya-sub000/internal/database"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

// BookingService prices booking requests and materializes confirmed booking
// groups from verified payments.
type BookingService struct {
	tripRepo    *database.TripRepository
	catalogRepo *database.CatalogRepository
	bookingRepo *database.BookingRepository
	offerRepo   *database.OfferRepository
	paymentRepo *database.PaymentRepository
	offers      *OfferService
	notifier    Notifier
	cfg         config.BookingConfig
	logger      *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	tripRepo *database.TripRepository,
	catalogRepo *database.CatalogRepository,
	bookingRepo *database.BookingRepository,
	offerRepo *database.OfferRepository,
	paymentRepo *database.PaymentRepository,
	offers *OfferService,
	notifier Notifier,
	cfg config.BookingConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		tripRepo:    tripRepo,
		catalogRepo: catalogRepo,
		bookingRepo: bookingRepo,
		offerRepo:   offerRepo,
		paymentRepo: paymentRepo,
		offers:      offers,
		notifier:    notifier,
		cfg:         cfg,
		logger:      logger,
	}
}

// PricedBooking is a fully resolved and server-priced booking request, the
// input to payment initiation.
type PricedBooking struct {
	Trip            *models.Trip
	Bus             *models.Bus
	Route           *RouteSegment
	BoardingPointID uuid.UUID
	DroppingPointID uuid.UUID
	Seats           []models.Seat
	Pricing         models.PricingBreakdown
}

// Price resolves and prices a booking request entirely server-side: client
// amounts are never trusted. It runs the advisory availability check so the
// caller learns about taken seats before paying, and evaluates the coupon in
// soft mode, degrading a rejected coupon to zero discount with the reason
// recorded.
func (s *BookingService) Price(req *models.CreateBookingRequest) (*PricedBooking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		return nil, models.ErrTripNotFound
	}
	fromStopID, err := uuid.Parse(req.FromStopID)
	if err != nil {
		return nil, models.ErrStopNotFound
	}
	toStopID, err := uuid.Parse(req.ToStopID)
	if err != nil {
		return nil, models.ErrStopNotFound
	}
	boardingID, err := uuid.Parse(req.BoardingPointID)
	if err != nil {
		return nil, models.ErrStopNotFound
	}
	droppingID, err := uuid.Parse(req.DroppingPointID)
	if err != nil {
		return nil, models.ErrStopNotFound
	}

	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsBookable() {
		return nil, models.ErrTripNotBookable
	}
	bus, err := s.catalogRepo.GetBusByID(trip.BusID)
	if err != nil {
		return nil, err
	}
	stops, err := s.catalogRepo.GetStopsByBusID(trip.BusID)
	if err != nil {
		return nil, err
	}
	route, err := ResolveSegment(stops, fromStopID, toStopID)
	if err != nil {
		return nil, err
	}

	seatIDs := make([]uuid.UUID, len(req.Seats))
	for i, sr := range req.Seats {
		id, err := uuid.Parse(sr.SeatID)
		if err != nil {
			return nil, models.ErrSeatNotFound
		}
		seatIDs[i] = id
	}
	seats, err := s.catalogRepo.GetSeatsByIDs(seatIDs)
	if err != nil {
		return nil, err
	}
	for i := range seats {
		if seats[i].BusID != trip.BusID {
			return nil, models.ErrSeatNotFound
		}
		if !seats[i].Active {
			return nil, models.ErrSeatInactive
		}
	}

	// Advisory availability check so the user is not sent to the gateway for
	// seats that are already gone
	existing, err := s.bookingRepo.GetConfirmedBookings(trip.ID)
	if err != nil {
		return nil, err
	}
	if conflicting := models.ConflictingSeats(seats, existing, route.Direction, route.Segment); len(conflicting) > 0 {
		return nil, &models.SeatConflictError{SeatNumbers: conflicting}
	}

	fares, total, err := TotalFare(&route.From, &route.To, seats)
	if err != nil {
		return nil, err
	}

	pricing := models.PricingBreakdown{
		SeatFares:    fares,
		TotalPrice:   total,
		FinalPrice:   total,
		Currency:     s.cfg.Currency,
		CalculatedAt: time.Now(),
	}
	if req.OfferCode != nil && *req.OfferCode != "" {
		offer, breakdown, err := s.offers.Evaluate(*req.OfferCode, bus, total)
		switch e := err.(type) {
		case nil:
			pricing.OfferID = &offer.ID
			pricing.OfferCode = &offer.Code
			pricing.DiscountAmount = breakdown.DiscountAmount
			pricing.FinalPrice = breakdown.FinalPrice
		case *models.OfferRejection:
			// Degrade to full price rather than failing the whole booking
			reason := e.Reason
			pricing.OfferReason = &reason
			s.logger.WithFields(logrus.Fields{
				"code":   *req.OfferCode,
				"reason": e.Reason,
			}).Info("Coupon rejected, booking continues without discount")
		default:
			return nil, err
		}
	}

	return &PricedBooking{
		Trip:            trip,
		Bus:             bus,
		Route:           route,
		BoardingPointID: boardingID,
		DroppingPointID: droppingID,
		Seats:           seats,
		Pricing:         pricing,
	}, nil
}

// ConfirmFromPayment materializes the booking group for a successful
// payment, replaying the priced snapshot stored on the payment row. The
// caller has already established that the payment is verified and not yet
// confirmed.
func (s *BookingService) ConfirmFromPayment(ctx context.Context, payment *models.Payment) (*models.BookingResult, error) {
	snapshot := payment.Metadata
	req := snapshot.Request

	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		return nil, models.ErrTripNotFound
	}
	fromStopID, err := uuid.Parse(req.FromStopID)
	if err != nil {
		return nil, models.ErrStopNotFound
	}
	toStopID, err := uuid.Parse(req.ToStopID)
	if err != nil {
		return nil, models.ErrStopNotFound
	}
	boardingID, err := uuid.Parse(req.BoardingPointID)
	if err != nil {
		return nil, models.ErrStopNotFound
	}
	droppingID, err := uuid.Parse(req.DroppingPointID)
	if err != nil {
		return nil, models.ErrStopNotFound
	}

	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	stops, err := s.catalogRepo.GetStopsByBusID(trip.BusID)
	if err != nil {
		return nil, err
	}
	route, err := ResolveSegment(stops, fromStopID, toStopID)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	paymentID := payment.ID
	group, err := s.bookingRepo.CreateBookingGroup(txCtx, database.CreateBookingGroupParams{
		UserID:          payment.UserID,
		TripID:          trip.ID,
		FromStop:        route.From,
		ToStop:          route.To,
		BoardingPointID: boardingID,
		DroppingPointID: droppingID,
		Seats:           req.Seats,
		TotalPrice:      snapshot.Pricing.TotalPrice,
		DiscountAmount:  snapshot.Pricing.DiscountAmount,
		FinalPrice:      snapshot.Pricing.FinalPrice,
		OfferID:         snapshot.Pricing.OfferID,
		PaymentID:       &paymentID,
		CutoffMinutes:   s.cfg.CutoffMinutes,
	}, s.offerRepo, s.paymentRepo)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"group_id":   group.ID,
		"trip_id":    trip.ID,
		"payment_id": payment.ID,
		"seats":      len(group.Bookings),
	}).Info("Booking group confirmed")

	result, err := s.buildResult(group, route)
	if err != nil {
		return nil, err
	}

	// Notification is best effort and must never fail the booking
	go s.notifier.BookingConfirmed(payment.UserID, *result)
	if group.OfferID != nil {
		go s.notifier.CouponApplied(payment.UserID, group.ID, *group.OfferID, group.DiscountAmount)
	}

	return result, nil
}

// CreateDirect books without a payment attached, the path used for
// cash-on-board and operational bookings. Pricing and the availability
// re-check run exactly as in the payment flow.
func (s *BookingService) CreateDirect(ctx context.Context, userID uuid.UUID, req *models.CreateBookingRequest) (*models.BookingResult, error) {
	priced, err := s.Price(req)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	group, err := s.bookingRepo.CreateBookingGroup(txCtx, database.CreateBookingGroupParams{
		UserID:          userID,
		TripID:          priced.Trip.ID,
		FromStop:        priced.Route.From,
		ToStop:          priced.Route.To,
		BoardingPointID: priced.BoardingPointID,
		DroppingPointID: priced.DroppingPointID,
		Seats:           req.Seats,
		TotalPrice:      priced.Pricing.TotalPrice,
		DiscountAmount:  priced.Pricing.DiscountAmount,
		FinalPrice:      priced.Pricing.FinalPrice,
		OfferID:         priced.Pricing.OfferID,
		CutoffMinutes:   s.cfg.CutoffMinutes,
	}, s.offerRepo, s.paymentRepo)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"group_id": group.ID,
		"trip_id":  priced.Trip.ID,
		"seats":    len(group.Bookings),
	}).Info("Booking group created without payment")

	result, err := s.buildResult(group, priced.Route)
	if err != nil {
		return nil, err
	}
	go s.notifier.BookingConfirmed(userID, *result)
	if group.OfferID != nil {
		go s.notifier.CouponApplied(userID, group.ID, *group.OfferID, group.DiscountAmount)
	}
	return result, nil
}

// ResultForGroup rebuilds the confirmation result for an existing group,
// used when a confirmation is replayed for an already-confirmed payment.
func (s *BookingService) ResultForGroup(groupID uuid.UUID) (*models.BookingResult, error) {
	group, err := s.bookingRepo.GetGroupByID(groupID)
	if err != nil {
		return nil, err
	}
	trip, err := s.tripRepo.GetByID(group.TripID)
	if err != nil {
		return nil, err
	}
	stops, err := s.catalogRepo.GetStopsByBusID(trip.BusID)
	if err != nil {
		return nil, err
	}
	route, err := ResolveSegment(stops, group.FromStopID, group.ToStopID)
	if err != nil {
		return nil, err
	}
	return s.buildResult(group, route)
}

// GetGroup returns one booking group after checking ownership
func (s *BookingService) GetGroup(groupID, userID uuid.UUID) (*models.BookingGroup, error) {
	group, err := s.bookingRepo.GetGroupByID(groupID)
	if err != nil {
		return nil, err
	}
	if group.UserID != userID {
		return nil, models.ErrNotOwner
	}
	return group, nil
}

// ListGroups lists the user's booking groups
func (s *BookingService) ListGroups(userID uuid.UUID) ([]models.BookingGroup, error) {
	return s.bookingRepo.GetGroupsByUserID(userID)
}

// Cancel logically cancels a booking group owned by the user
func (s *BookingService) Cancel(ctx context.Context, groupID, userID uuid.UUID) error {
	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	if err := s.bookingRepo.CancelGroup(txCtx, groupID, userID); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"group_id": groupID,
		"user_id":  userID,
	}).Info("Booking group cancelled")
	go s.notifier.BookingCancelled(userID, groupID)
	return nil
}

func (s *BookingService) buildResult(group *models.BookingGroup, route *RouteSegment) (*models.BookingResult, error) {
	boarding, err := s.catalogRepo.GetStopPoint(group.BoardingPointID)
	if err != nil {
		return nil, fmt.Errorf("failed to load boarding point: %w", err)
	}
	dropping, err := s.catalogRepo.GetStopPoint(group.DroppingPointID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dropping point: %w", err)
	}

	seatNumbers := make([]string, len(group.Bookings))
	for i, b := range group.Bookings {
		seatNumbers[i] = b.SeatNumber
	}

	return &models.BookingResult{
		GroupID:        group.ID,
		Status:         group.Status,
		TripID:         group.TripID,
		Direction:      group.Direction,
		FromStop:       route.From.Name,
		ToStop:         route.To.Name,
		BoardingPoint:  boarding.Name,
		DroppingPoint:  dropping.Name,
		SeatNumbers:    seatNumbers,
		TotalPrice:     group.TotalPrice,
		DiscountAmount: group.DiscountAmount,
		FinalPrice:     group.FinalPrice,
	}, nil
}

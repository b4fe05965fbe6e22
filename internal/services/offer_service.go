package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spytro26/gantabya-sub000/internal/database"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

// OfferService evaluates discount coupons
type OfferService struct {
	offerRepo   *database.OfferRepository
	catalogRepo *database.CatalogRepository
	tripRepo    *database.TripRepository
	logger      *logrus.Logger
}

// NewOfferService creates a new OfferService
func NewOfferService(
	offerRepo *database.OfferRepository,
	catalogRepo *database.CatalogRepository,
	tripRepo *database.TripRepository,
	logger *logrus.Logger,
) *OfferService {
	return &OfferService{
		offerRepo:   offerRepo,
		catalogRepo: catalogRepo,
		tripRepo:    tripRepo,
		logger:      logger,
	}
}

// Evaluate validates a coupon code against a pre-discount total and the bus
// being booked. Checks run in a fixed order so the caller always learns the
// first reason a coupon fails: existence and active flag, validity window,
// usage limit, minimum booking amount, bus eligibility. A failure is an
// *models.OfferRejection.
func (s *OfferService) Evaluate(code string, bus *models.Bus, total float64) (*models.Offer, *models.DiscountBreakdown, error) {
	offer, err := s.offerRepo.GetByCode(code)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, nil, &models.OfferRejection{Code: code, Reason: "offer does not exist"}
		}
		return nil, nil, err
	}
	if !offer.Active {
		return nil, nil, &models.OfferRejection{Code: code, Reason: "offer is not active"}
	}
	if !offer.WithinWindow(time.Now()) {
		return nil, nil, &models.OfferRejection{Code: code, Reason: "offer is outside its validity window"}
	}
	if offer.Exhausted() {
		return nil, nil, &models.OfferRejection{Code: code, Reason: "offer usage limit reached"}
	}
	if offer.MinBookingAmount != nil && total < *offer.MinBookingAmount {
		return nil, nil, &models.OfferRejection{Code: code, Reason: "booking total below offer minimum"}
	}
	if !offer.AppliesToBus(bus) {
		return nil, nil, &models.OfferRejection{Code: code, Reason: "offer does not apply to this bus"}
	}

	discount := computeDiscount(offer, total)
	return offer, &models.DiscountBreakdown{
		OfferID:        offer.ID,
		Code:           offer.Code,
		DiscountAmount: discount,
		FinalPrice:     RoundHalfUp2(total - discount),
	}, nil
}

// Apply is the standalone coupon check exposed over the API. Unlike the
// booking flow, a rejected coupon here is a hard error.
func (s *OfferService) Apply(req *models.ApplyOfferRequest) (*models.DiscountBreakdown, error) {
	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		return nil, models.ErrTripNotFound
	}
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	bus, err := s.catalogRepo.GetBusByID(trip.BusID)
	if err != nil {
		return nil, err
	}

	_, breakdown, err := s.Evaluate(req.Code, bus, req.Total)
	if err != nil {
		return nil, err
	}
	return breakdown, nil
}

// computeDiscount applies the offer's magnitude to the total. Percentage
// discounts are capped by max_discount when set; every discount is clamped so
// the final price never goes negative.
func computeDiscount(offer *models.Offer, total float64) float64 {
	var discount float64
	switch offer.DiscountType {
	case models.DiscountPercentage:
		discount = total * offer.DiscountValue / 100
		if offer.MaxDiscount != nil && discount > *offer.MaxDiscount {
			discount = *offer.MaxDiscount
		}
	case models.DiscountFixed:
		discount = offer.DiscountValue
	}
	if discount > total {
		discount = total
	}
	return RoundHalfUp2(discount)
}

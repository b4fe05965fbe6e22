package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spytro26/gantabya-sub000/internal/database"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

// SearchService answers seat-availability queries. Availability is always
// advisory: the authoritative check reruns inside the booking transaction.
type SearchService struct {
	tripRepo    *database.TripRepository
	catalogRepo *database.CatalogRepository
	bookingRepo *database.BookingRepository
	logger      *logrus.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(
	tripRepo *database.TripRepository,
	catalogRepo *database.CatalogRepository,
	bookingRepo *database.BookingRepository,
	logger *logrus.Logger,
) *SearchService {
	return &SearchService{
		tripRepo:    tripRepo,
		catalogRepo: catalogRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// SearchTrip resolves (bus, date) to a trip, creating the trip row lazily on
// first touch, and returns per-seat availability for the requested segment.
func (s *SearchService) SearchTrip(busID uuid.UUID, serviceDate time.Time, fromStopID, toStopID uuid.UUID) (*models.TripAvailability, error) {
	trip, err := s.tripRepo.EnsureTrip(busID, serviceDate)
	if err != nil {
		return nil, err
	}
	return s.TripSeats(trip.ID, fromStopID, toStopID)
}

// TripSeats computes per-seat availability and fares for one trip and
// segment. A seat is available when none of its confirmed bookings in the
// same direction overlap the requested positions.
func (s *SearchService) TripSeats(tripID, fromStopID, toStopID uuid.UUID) (*models.TripAvailability, error) {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
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

	seats, err := s.catalogRepo.GetActiveSeatsByBusID(trip.BusID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.GetConfirmedBookings(trip.ID)
	if err != nil {
		return nil, err
	}

	conflicting := models.ConflictingSeats(seats, bookings, route.Direction, route.Segment)
	taken := make(map[string]bool, len(conflicting))
	for _, num := range conflicting {
		taken[num] = true
	}

	result := &models.TripAvailability{
		TripID:      trip.ID,
		BusID:       bus.ID,
		BusName:     bus.Name,
		ServiceDate: trip.ServiceDate,
		Direction:   route.Direction,
		FromStop:    route.From.Name,
		ToStop:      route.To.Name,
		Departure:   route.From.DepartureFor(route.Direction),
		TotalSeats:  len(seats),
	}
	for i := range seats {
		fare, err := SeatFare(&route.From, &route.To, &seats[i])
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"seat": seats[i].SeatNumber,
				"bus":  bus.ID,
			}).Warn("Seat has no fare for segment, hidden from results")
			continue
		}
		available := !taken[seats[i].SeatNumber]
		if available {
			result.AvailableSeats++
		}
		result.Seats = append(result.Seats, models.SeatOccupancy{
			SeatID:     seats[i].ID,
			SeatNumber: seats[i].SeatNumber,
			Level:      seats[i].Level,
			SeatType:   seats[i].SeatType,
			Fare:       fare,
			Available:  available,
		})
	}
	return result, nil
}

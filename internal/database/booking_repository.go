package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

const bookingColumns = `
	id, booking_group_id, trip_id, seat_id, seat_number, direction,
	from_position, to_position, status, cancelled_at, created_at, updated_at`

// BookingRepository handles booking-group database operations, including the
// atomic booking-creation transaction.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateBookingGroupParams carries everything the booking transaction needs.
// Pricing is computed by the caller (either freshly or replayed from a stored
// payment snapshot); availability is re-validated here regardless.
type CreateBookingGroupParams struct {
	UserID          uuid.UUID
	TripID          uuid.UUID
	FromStop        models.Stop
	ToStop          models.Stop
	BoardingPointID uuid.UUID
	DroppingPointID uuid.UUID
	Seats           []models.SeatRequest
	TotalPrice      float64
	DiscountAmount  float64
	FinalPrice      float64
	OfferID         *uuid.UUID
	PaymentID       *uuid.UUID
	CutoffMinutes   int
}

// CreateBookingGroup commits a reservation atomically. Inside one
// transaction it re-loads the trip, re-validates the boarding/dropping
// points, locks the requested seat rows, re-runs the segment conflict check
// against committed state, inserts the group with its bookings and
// passengers, bumps the offer usage counter and stamps the originating
// payment. Any failure rolls the whole thing back.
//
// Locking the seat rows with FOR UPDATE serializes concurrent attempts on the
// same (trip, seat) pair: the loser of the race re-reads the winner's
// committed bookings and fails the conflict check with the seat named.
func (r *BookingRepository) CreateBookingGroup(
	ctx context.Context,
	params CreateBookingGroupParams,
	offerRepo *OfferRepository,
	paymentRepo *PaymentRepository,
) (*models.BookingGroup, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	direction := models.TravelDirection(params.FromStop.Position, params.ToStop.Position)
	segment := models.NewSegment(params.FromStop.Position, params.ToStop.Position)

	// 1. Re-load trip and check it is still bookable
	trip := &models.Trip{}
	err = tx.Get(trip, `
		SELECT id, bus_id, service_date, status, created_at, updated_at
		FROM trips WHERE id = $1`, params.TripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	if !trip.IsBookable() {
		return nil, models.ErrTripNotBookable
	}
	if err := checkDepartureCutoff(trip, &params.FromStop, direction, params.CutoffMinutes, time.Now()); err != nil {
		return nil, err
	}

	// 2. Boarding point must be a boarding-kind point under the from stop,
	// dropping point a dropping-kind point under the to stop
	if err := checkStopPoint(tx, params.BoardingPointID, params.FromStop.ID, models.StopPointBoarding); err != nil {
		return nil, err
	}
	if err := checkStopPoint(tx, params.DroppingPointID, params.ToStop.ID, models.StopPointDropping); err != nil {
		return nil, err
	}

	// 3. Lock and validate the requested seats
	seatIDs := make([]string, len(params.Seats))
	for i, s := range params.Seats {
		seatIDs[i] = s.SeatID
	}
	seats, err := lockSeats(tx, seatIDs)
	if err != nil {
		return nil, err
	}
	for i := range seats {
		if !seats[i].Active {
			return nil, models.ErrSeatInactive
		}
		if seats[i].BusID != trip.BusID {
			return nil, models.ErrSeatNotFound
		}
	}

	// 4. Authoritative conflict check against committed state. Same function
	// as the advisory quote-time check, different snapshot.
	existing, err := confirmedBookingsTx(tx, trip.ID, seatIDs)
	if err != nil {
		return nil, err
	}
	if conflicting := models.ConflictingSeats(seats, existing, direction, segment); len(conflicting) > 0 {
		return nil, &models.SeatConflictError{SeatNumbers: conflicting}
	}

	// 5. Insert the group
	group := &models.BookingGroup{
		UserID:          params.UserID,
		TripID:          trip.ID,
		FromStopID:      params.FromStop.ID,
		ToStopID:        params.ToStop.ID,
		Direction:       direction,
		BoardingPointID: params.BoardingPointID,
		DroppingPointID: params.DroppingPointID,
		TotalPrice:      params.TotalPrice,
		DiscountAmount:  params.DiscountAmount,
		FinalPrice:      params.FinalPrice,
		OfferID:         params.OfferID,
		Status:          models.GroupStatusConfirmed,
	}
	err = tx.QueryRowx(`
		INSERT INTO booking_groups (
			user_id, trip_id, from_stop_id, to_stop_id, direction,
			boarding_point_id, dropping_point_id,
			total_price, discount_amount, final_price, offer_id, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		group.UserID, group.TripID, group.FromStopID, group.ToStopID, group.Direction,
		group.BoardingPointID, group.DroppingPointID,
		group.TotalPrice, group.DiscountAmount, group.FinalPrice, group.OfferID, group.Status,
	).Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return nil, translateBookingError(err, seats)
	}

	// 6. One booking and one passenger per seat
	seatByID := make(map[string]models.Seat, len(seats))
	for _, s := range seats {
		seatByID[s.ID.String()] = s
	}
	for _, req := range params.Seats {
		seat := seatByID[req.SeatID]
		booking := models.Booking{
			BookingGroupID: group.ID,
			TripID:         trip.ID,
			SeatID:         seat.ID,
			SeatNumber:     seat.SeatNumber,
			Direction:      direction,
			FromPosition:   params.FromStop.Position,
			ToPosition:     params.ToStop.Position,
			Status:         models.BookingStatusConfirmed,
		}
		err = tx.QueryRowx(`
			INSERT INTO bookings (
				booking_group_id, trip_id, seat_id, seat_number, direction,
				from_position, to_position, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at`,
			booking.BookingGroupID, booking.TripID, booking.SeatID, booking.SeatNumber,
			booking.Direction, booking.FromPosition, booking.ToPosition, booking.Status,
		).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
		if err != nil {
			return nil, translateBookingError(err, seats)
		}

		_, err = tx.Exec(`
			INSERT INTO passengers (booking_id, name, age, gender)
			VALUES ($1, $2, $3, $4)`,
			booking.ID, req.Passenger, req.Age, req.Gender)
		if err != nil {
			return nil, fmt.Errorf("failed to create passenger for seat %s: %w", seat.SeatNumber, err)
		}

		group.Bookings = append(group.Bookings, booking)
	}

	// 7. Coupon usage increments in the same transaction, exactly once per
	// confirmed group
	if params.OfferID != nil {
		if err := offerRepo.IncrementUsageTx(tx, *params.OfferID); err != nil {
			return nil, err
		}
	}

	// 8. Stamp the payment in the same transaction so a crash between
	// booking creation and stamping cannot happen
	if params.PaymentID != nil {
		if err := paymentRepo.StampBookingGroupTx(tx, *params.PaymentID, group.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, translateBookingError(err, seats)
	}
	return group, nil
}

// GetConfirmedBookings loads all confirmed bookings for a trip, the input to
// the advisory availability computation.
func (r *BookingRepository) GetConfirmedBookings(tripID uuid.UUID) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE trip_id = $1 AND status = 'confirmed'`

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, nil
}

// GetGroupByID retrieves a booking group with its bookings
func (r *BookingRepository) GetGroupByID(groupID uuid.UUID) (*models.BookingGroup, error) {
	group := &models.BookingGroup{}
	query := `
		SELECT id, user_id, trip_id, from_stop_id, to_stop_id, direction,
		       boarding_point_id, dropping_point_id,
		       total_price, discount_amount, final_price, offer_id, status,
		       cancelled_at, created_at, updated_at
		FROM booking_groups WHERE id = $1`

	if err := r.db.Get(group, query, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get booking group: %w", err)
	}

	var bookings []models.Booking
	err := r.db.Select(&bookings, `SELECT `+bookingColumns+`
		FROM bookings WHERE booking_group_id = $1 ORDER BY seat_number`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	group.Bookings = bookings
	return group, nil
}

// GetGroupsByUserID lists a user's booking groups, newest first
func (r *BookingRepository) GetGroupsByUserID(userID uuid.UUID) ([]models.BookingGroup, error) {
	var groups []models.BookingGroup
	err := r.db.Select(&groups, `
		SELECT id, user_id, trip_id, from_stop_id, to_stop_id, direction,
		       boarding_point_id, dropping_point_id,
		       total_price, discount_amount, final_price, offer_id, status,
		       cancelled_at, created_at, updated_at
		FROM booking_groups
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking groups: %w", err)
	}
	return groups, nil
}

// CancelGroup logically cancels a booking group and its bookings. Rows are
// never deleted; cancelled bookings simply stop counting toward conflicts.
func (r *BookingRepository) CancelGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group := &models.BookingGroup{}
	err = tx.Get(group, `
		SELECT id, user_id, trip_id, from_stop_id, to_stop_id, direction,
		       boarding_point_id, dropping_point_id,
		       total_price, discount_amount, final_price, offer_id, status,
		       cancelled_at, created_at, updated_at
		FROM booking_groups WHERE id = $1 FOR UPDATE`, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrGroupNotFound
		}
		return fmt.Errorf("failed to load booking group: %w", err)
	}
	if group.UserID != userID {
		return models.ErrNotOwner
	}
	if group.Status == models.GroupStatusCancelled {
		return models.ErrBookingCancelled
	}

	_, err = tx.Exec(`
		UPDATE booking_groups
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to cancel booking group: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE booking_group_id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to cancel bookings: %w", err)
	}

	return tx.Commit()
}

// checkDepartureCutoff enforces the same-day booking window: past-date trips
// are gone, and same-day bookings close a fixed number of minutes before the
// direction-appropriate departure at the boarding stop.
func checkDepartureCutoff(trip *models.Trip, fromStop *models.Stop, direction models.Direction, cutoffMinutes int, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := trip.ServiceDate
	tripDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())

	if tripDay.Before(today) {
		return models.ErrTripDeparted
	}
	if !tripDay.Equal(today) {
		return nil
	}

	dep := fromStop.DepartureFor(direction)
	if dep == nil {
		return nil
	}
	tod, err := time.Parse("15:04", *dep)
	if err != nil {
		return fmt.Errorf("malformed departure time %q: %w", *dep, err)
	}
	departure := tripDay.Add(time.Duration(tod.Hour())*time.Hour + time.Duration(tod.Minute())*time.Minute)

	if now.After(departure) {
		return models.ErrTripDeparted
	}
	if now.After(departure.Add(-time.Duration(cutoffMinutes) * time.Minute)) {
		return models.ErrBookingClosed
	}
	return nil
}

func checkStopPoint(tx *sqlx.Tx, pointID, stopID uuid.UUID, kind models.StopPointKind) error {
	point := &models.StopPoint{}
	err := tx.Get(point, `SELECT id, stop_id, name, kind FROM stop_points WHERE id = $1`, pointID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrStopNotFound
		}
		return fmt.Errorf("failed to load stop point: %w", err)
	}
	if point.StopID != stopID || point.Kind != kind {
		return fmt.Errorf("%s point %s does not belong to the chosen stop", kind, pointID)
	}
	return nil
}

func lockSeats(tx *sqlx.Tx, seatIDs []string) ([]models.Seat, error) {
	query, args, err := sqlx.In(`
		SELECT id, bus_id, seat_number, level, seat_type, active, created_at, updated_at
		FROM seats WHERE id IN (?)
		FOR UPDATE`, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build seat lock query: %w", err)
	}

	var seats []models.Seat
	if err := tx.Select(&seats, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to lock seats: %w", err)
	}
	if len(seats) != len(seatIDs) {
		return nil, models.ErrSeatNotFound
	}
	return seats, nil
}

func confirmedBookingsTx(tx *sqlx.Tx, tripID uuid.UUID, seatIDs []string) ([]models.Booking, error) {
	query, args, err := sqlx.In(`SELECT `+bookingColumns+`
		FROM bookings
		WHERE trip_id = ? AND seat_id IN (?) AND status = 'confirmed'`, tripID, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build booking query: %w", err)
	}

	var bookings []models.Booking
	if err := tx.Select(&bookings, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load existing bookings: %w", err)
	}
	return bookings, nil
}

// translateBookingError reclassifies a storage-layer unique violation (two
// racing transactions both reaching the safety-net constraint) into the same
// seat-conflict outcome the in-transaction check produces.
func translateBookingError(err error, seats []models.Seat) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		numbers := make([]string, len(seats))
		for i, s := range seats {
			numbers[i] = s.SeatNumber
		}
		return &models.SeatConflictError{SeatNumbers: numbers}
	}
	return fmt.Errorf("failed to create booking: %w", err)
}

package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

// Notifier delivers booking lifecycle notifications. Delivery is best
// effort; callers invoke it in a goroutine and never wait on it.
type Notifier interface {
	BookingConfirmed(userID uuid.UUID, result models.BookingResult)
	BookingCancelled(userID uuid.UUID, groupID uuid.UUID)
	CouponApplied(userID uuid.UUID, groupID uuid.UUID, offerID uuid.UUID, discount float64)
}

// LogNotifier writes notifications to the structured log. It stands in for a
// real push/SMS channel in environments that have none configured.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// BookingConfirmed implements Notifier
func (n *LogNotifier) BookingConfirmed(userID uuid.UUID, result models.BookingResult) {
	n.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"group_id": result.GroupID,
		"trip_id":  result.TripID,
		"seats":    result.SeatNumbers,
		"amount":   result.FinalPrice,
	}).Info("Booking confirmation notification")
}

// BookingCancelled implements Notifier
func (n *LogNotifier) BookingCancelled(userID uuid.UUID, groupID uuid.UUID) {
	n.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"group_id": groupID,
	}).Info("Booking cancellation notification")
}

// CouponApplied implements Notifier
func (n *LogNotifier) CouponApplied(userID uuid.UUID, groupID uuid.UUID, offerID uuid.UUID, discount float64) {
	n.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"group_id": groupID,
		"offer_id": offerID,
		"discount": discount,
	}).Info("Coupon applied notification")
}

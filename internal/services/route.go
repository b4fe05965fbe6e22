package services

import (
	"github.com/google/uuid"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

// RouteSegment is a resolved journey on one bus's fixed route: the two stops,
// the travel direction derived from their ordinals, and the normalized
// position interval used for conflict checks.
type RouteSegment struct {
	From      models.Stop
	To        models.Stop
	Direction models.Direction
	Segment   models.Segment
}

// ResolveSegment finds both stops on the route and derives the direction from
// their positions. The return direction is only valid when the bus actually
// runs a return leg, which at least one stop declaring a return departure
// signals. Intermediate stops without their own return time are still valid
// boarding points on that leg.
func ResolveSegment(stops []models.Stop, fromStopID, toStopID uuid.UUID) (*RouteSegment, error) {
	var from, to *models.Stop
	returnOffered := false
	for i := range stops {
		if stops[i].ID == fromStopID {
			from = &stops[i]
		}
		if stops[i].ID == toStopID {
			to = &stops[i]
		}
		if stops[i].ReturnDeparture != nil {
			returnOffered = true
		}
	}
	if from == nil || to == nil {
		return nil, models.ErrStopNotFound
	}
	if from.Position == to.Position {
		return nil, models.ErrSameStop
	}

	direction := models.TravelDirection(from.Position, to.Position)
	if direction == models.DirectionReturn && !returnOffered {
		return nil, models.ErrReturnNotOffered
	}

	return &RouteSegment{
		From:      *from,
		To:        *to,
		Direction: direction,
		Segment:   models.NewSegment(from.Position, to.Position),
	}, nil
}

package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/spytro26/gantabya-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testRoute() []models.Stop {
	return []models.Stop{
		{ID: uuid.New(), Name: "Kathmandu", Position: 0, ForwardDeparture: strPtr("06:00")},
		{ID: uuid.New(), Name: "Mugling", Position: 1, ForwardDeparture: strPtr("09:30"), ReturnDeparture: strPtr("14:00")},
		{ID: uuid.New(), Name: "Narayanghat", Position: 2, ForwardDeparture: strPtr("11:00")},
		{ID: uuid.New(), Name: "Pokhara", Position: 3, ReturnDeparture: strPtr("10:00")},
	}
}

func TestResolveSegment_Forward(t *testing.T) {
	stops := testRoute()
	route, err := ResolveSegment(stops, stops[0].ID, stops[2].ID)
	require.NoError(t, err)

	assert.Equal(t, models.DirectionForward, route.Direction)
	assert.Equal(t, "Kathmandu", route.From.Name)
	assert.Equal(t, "Narayanghat", route.To.Name)
	assert.Equal(t, models.Segment{Min: 0, Max: 2}, route.Segment)
}

func TestResolveSegment_ReturnWithDeclaredDeparture(t *testing.T) {
	stops := testRoute()
	route, err := ResolveSegment(stops, stops[3].ID, stops[1].ID)
	require.NoError(t, err)

	assert.Equal(t, models.DirectionReturn, route.Direction)
	assert.Equal(t, models.Segment{Min: 1, Max: 3}, route.Segment)
}

func TestResolveSegment_ReturnFromIntermediateStop(t *testing.T) {
	stops := testRoute()
	// Narayanghat declares no return departure of its own, but the route runs
	// a return leg, so boarding it in the return direction is valid
	route, err := ResolveSegment(stops, stops[2].ID, stops[0].ID)
	require.NoError(t, err)

	assert.Equal(t, models.DirectionReturn, route.Direction)
	assert.Equal(t, models.Segment{Min: 0, Max: 2}, route.Segment)
}

func TestResolveSegment_ReturnNotOffered(t *testing.T) {
	// One-way route: no stop declares a return departure
	stops := []models.Stop{
		{ID: uuid.New(), Name: "Kathmandu", Position: 0, ForwardDeparture: strPtr("06:00")},
		{ID: uuid.New(), Name: "Mugling", Position: 1, ForwardDeparture: strPtr("09:30")},
		{ID: uuid.New(), Name: "Pokhara", Position: 2},
	}
	_, err := ResolveSegment(stops, stops[2].ID, stops[0].ID)
	assert.ErrorIs(t, err, models.ErrReturnNotOffered)
}

func TestResolveSegment_UnknownStop(t *testing.T) {
	stops := testRoute()
	_, err := ResolveSegment(stops, uuid.New(), stops[1].ID)
	assert.ErrorIs(t, err, models.ErrStopNotFound)
}

func TestResolveSegment_SameStop(t *testing.T) {
	stops := testRoute()
	_, err := ResolveSegment(stops, stops[1].ID, stops[1].ID)
	assert.ErrorIs(t, err, models.ErrSameStop)
}

package Routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRouter counts calls and replays a canned answer.
type stubRouter struct {
	calls    int
	lastReq  RouteRequest
	result   RouteResult
	err      error
	matrices int
}

func (s *stubRouter) ComputeRoute(ctx context.Context, req RouteRequest) (RouteResult, error) {
	s.calls++
	s.lastReq = req
	return s.result, s.err
}

func (s *stubRouter) ComputeDistanceMatrix(ctx context.Context, origins, destinations []Point) ([][]RouteLeg, error) {
	s.matrices++
	return nil, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func routeStops(n int) []Stop {
	stops := make([]Stop, n)
	for i := range stops {
		stops[i] = Stop{
			Name:           string(rune('A' + i)),
			Latitude:       -26.0 - float64(i)*0.1,
			Longitude:      28.0 + float64(i)*0.1,
			HasCoordinates: true,
		}
	}
	return stops
}

func TestComposeEmptyStopListSkipsRouter(t *testing.T) {
	router := &stubRouter{}
	composer := NewRouteComposer(router)

	route := composer.OptimizeDeliveries(context.Background(), Depot{}, nil, ComposeOptions{})
	assert.False(t, route.Success)
	assert.Equal(t, "nothing to route: empty stop list", route.Error)
	assert.Zero(t, router.calls)
}

func TestComposeReordersStopsAndSumsLegs(t *testing.T) {
	router := &stubRouter{
		result: RouteResult{
			StopOrder: []int{2, 0, 1},
			Legs: []RouteLeg{
				{DistanceKm: 10, DurationMin: 12},
				{DistanceKm: 4.5, DurationMin: 6},
				{DistanceKm: 7, DurationMin: 9},
				{DistanceKm: 11.5, DurationMin: 13},
			},
		},
	}
	composer := NewRouteComposer(router)

	route := composer.OptimizeDeliveries(context.Background(), Depot{Name: "Depot"}, routeStops(3), ComposeOptions{
		OptimizeOrder: true,
		ReturnToDepot: true,
	})
	require.True(t, route.Success)
	assert.True(t, route.Optimized)
	require.Len(t, route.Stops, 3)

	// The visiting order is the router's permutation over the input stops.
	assert.Equal(t, "C", route.Stops[0].Name)
	assert.Equal(t, "A", route.Stops[1].Name)
	assert.Equal(t, "B", route.Stops[2].Name)

	// Each stop carries its inbound leg.
	assert.Equal(t, 10.0, route.Stops[0].LegDistanceKm)
	assert.Equal(t, 4.5, route.Stops[1].LegDistanceKm)
	assert.Equal(t, 7.0, route.Stops[2].LegDistanceKm)

	// Totals are the exact sum over every leg, return leg included.
	assert.Equal(t, 33.0, route.TotalDistanceKm)
	assert.Equal(t, 40.0, route.TotalDurationMin)
}

func TestComposeRejectsInvalidStopOrder(t *testing.T) {
	cases := map[string][]int{
		"duplicate index": {0, 0, 1},
		"out of range":    {0, 1, 3},
		"short order":     {0, 1},
		"negative index":  {-1, 0, 1},
	}
	for name, order := range cases {
		t.Run(name, func(t *testing.T) {
			router := &stubRouter{result: RouteResult{
				StopOrder: order,
				Legs:      []RouteLeg{{}, {}, {}},
			}}
			composer := NewRouteComposer(router)

			route := composer.OptimizeDeliveries(context.Background(), Depot{}, routeStops(3), ComposeOptions{OptimizeOrder: true})
			assert.False(t, route.Success)
			assert.Equal(t, "routing capability returned an invalid stop order", route.Error)
		})
	}
}

func TestComposeRejectsIncompleteLegs(t *testing.T) {
	router := &stubRouter{result: RouteResult{
		StopOrder: []int{0, 1, 2},
		Legs:      []RouteLeg{{}, {}, {}},
	}}
	composer := NewRouteComposer(router)

	// Return to depot requested, so four legs are required.
	route := composer.OptimizeDeliveries(context.Background(), Depot{}, routeStops(3), ComposeOptions{ReturnToDepot: true})
	assert.False(t, route.Success)
	assert.Equal(t, "routing capability returned an incomplete leg set", route.Error)
}

func TestComposeUpstreamErrorPassthrough(t *testing.T) {
	router := &stubRouter{err: errors.New("OVER_QUERY_LIMIT: quota exhausted")}
	composer := NewRouteComposer(router)

	route := composer.OptimizeDeliveries(context.Background(), Depot{}, routeStops(2), ComposeOptions{})
	assert.False(t, route.Success)
	assert.Equal(t, "OVER_QUERY_LIMIT: quota exhausted", route.Error)
	assert.Empty(t, route.Stops)

	// An in-band error reads the same way.
	router = &stubRouter{result: RouteResult{Error: "no route found"}}
	composer = NewRouteComposer(router)
	route = composer.OptimizeDeliveries(context.Background(), Depot{}, routeStops(2), ComposeOptions{})
	assert.False(t, route.Success)
	assert.Equal(t, "no route found", route.Error)
}

func TestComposeDepartureDefaulting(t *testing.T) {
	now := time.Date(2024, 3, 12, 14, 30, 0, 0, time.UTC)
	future := now.Add(3 * time.Hour)
	past := now.Add(-2 * time.Hour)
	lateNight := time.Date(2024, 3, 12, 23, 45, 0, 0, time.UTC)

	tests := []struct {
		name  string
		now   time.Time
		given *time.Time
		want  time.Time
	}{
		{"nil defaults to now plus one hour", now, nil, now.Add(time.Hour)},
		{"future kept as given", now, &future, future},
		{"past moved to next day seven", now, &past, time.Date(2024, 3, 13, 7, 0, 0, 0, time.UTC)},
		{"late night past still moves to next day seven", lateNight, &past, time.Date(2024, 3, 13, 7, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeDeparture(tc.now, tc.given)
			assert.Equal(t, tc.want, got)
			// Whichever rule applies, the substituted time lies after now.
			assert.True(t, got.After(tc.now))
		})
	}
}

func TestComposeForwardsDepartureToRouter(t *testing.T) {
	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	router := &stubRouter{result: RouteResult{
		StopOrder: []int{0},
		Legs:      []RouteLeg{{DistanceKm: 1, DurationMin: 2}},
	}}
	composer := NewRouteComposer(router)
	composer.Now = fixedClock(now)

	route := composer.OptimizeDeliveries(context.Background(), Depot{}, routeStops(1), ComposeOptions{})
	require.True(t, route.Success)
	assert.Equal(t, now.Add(time.Hour), route.DepartureTime)
	assert.Equal(t, now.Add(time.Hour), router.lastReq.DepartureTime)
}

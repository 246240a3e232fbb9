package Routing

import (
	"context"
	"time"
)

// ComposeOptions control one optimization request.
type ComposeOptions struct {
	OptimizeOrder bool
	ReturnToDepot bool
	AvoidTolls    bool
	AvoidHighways bool

	// DepartureTime is optional; nil or past values are substituted, see
	// normalizeDeparture.
	DepartureTime *time.Time
}

// RouteComposer turns a depot plus stops into a rider-ready itinerary by
// calling the routing capability once. It holds no state between calls; two
// identical requests against a deterministic router yield identical results.
type RouteComposer struct {
	Router Router

	// Now is overridable in tests.
	Now func() time.Time
}

func NewRouteComposer(router Router) *RouteComposer {
	return &RouteComposer{
		Router: router,
		Now:    time.Now,
	}
}

// normalizeDeparture applies the departure-time defaulting rules: no time
// given means one hour from now; a time already in the past is replaced by the
// later of now+1h and the next day 07:00, so the substituted time always lies
// strictly after now.
func normalizeDeparture(now time.Time, given *time.Time) time.Time {
	if given == nil {
		return now.Add(time.Hour)
	}
	if given.After(now) {
		return *given
	}

	nextDay := time.Date(now.Year(), now.Month(), now.Day(), 7, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	inAnHour := now.Add(time.Hour)
	if inAnHour.After(nextDay) {
		return inAnHour
	}
	return nextDay
}

// OptimizeDeliveries requests a visiting order and distances for the stops
// and assembles the result. On upstream failure the routing capability's
// message is passed through unchanged and Success is false; callers fall back
// to the unoptimized input order. No retry is performed.
func (c *RouteComposer) OptimizeDeliveries(ctx context.Context, depot Depot, stops []Stop, opts ComposeOptions) OptimizedRoute {
	route := OptimizedRoute{
		Depot:         depot,
		ReturnToDepot: opts.ReturnToDepot,
	}

	if len(stops) == 0 {
		route.Error = "nothing to route: empty stop list"
		return route
	}

	departure := normalizeDeparture(c.Now(), opts.DepartureTime)
	route.DepartureTime = departure

	points := make([]Point, len(stops))
	for i, stop := range stops {
		points[i] = Point{Lat: stop.Latitude, Lng: stop.Longitude}
	}

	result, err := c.Router.ComputeRoute(ctx, RouteRequest{
		Origin:         Point{Lat: depot.Latitude, Lng: depot.Longitude},
		Stops:          points,
		OptimizeOrder:  opts.OptimizeOrder,
		ReturnToOrigin: opts.ReturnToDepot,
		DepartureTime:  departure,
		AvoidTolls:     opts.AvoidTolls,
		AvoidHighways:  opts.AvoidHighways,
	})
	if err != nil {
		route.Error = err.Error()
		return route
	}
	if result.Error != "" {
		route.Error = result.Error
		return route
	}
	if !isPermutation(result.StopOrder, len(stops)) {
		route.Error = "routing capability returned an invalid stop order"
		return route
	}

	expectedLegs := len(stops)
	if opts.ReturnToDepot {
		expectedLegs++
	}
	if len(result.Legs) != expectedLegs {
		route.Error = "routing capability returned an incomplete leg set"
		return route
	}

	ordered := make([]Stop, 0, len(stops))
	for position, index := range result.StopOrder {
		stop := stops[index]
		stop.LegDistanceKm = result.Legs[position].DistanceKm
		stop.LegDurationMin = result.Legs[position].DurationMin
		ordered = append(ordered, stop)
	}

	// Cumulative totals are the exact sum of the legs, return leg included.
	for _, leg := range result.Legs {
		route.TotalDistanceKm += leg.DistanceKm
		route.TotalDurationMin += leg.DurationMin
	}

	route.Stops = ordered
	route.Success = true
	route.Optimized = opts.OptimizeOrder
	return route
}

// isPermutation checks that order visits each of n stops exactly once.
func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

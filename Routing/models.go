package Routing

import (
	"context"
	"time"
)

// Earth radius in kilometers
const earthRadius = 6371.0

// Aggregation and pacing constants. Values in rands and minutes.
const (
	// An invoice above this amount marks its whole stop high priority.
	HighPriorityThreshold = 5000.0

	// On-site service time: base per stop plus an increment per invoice.
	BaseServiceMinutes       = 15
	PerInvoiceServiceMinutes = 5

	// Reference numbers listed in a stop's notes before truncating.
	MaxNotesReferences = 5

	// Cooperative delay between successive geocoding calls in a batch.
	GeocodePacingDelay = 120 * time.Millisecond

	// Default country bias for ambiguous queries.
	DefaultCountry = "South Africa"
)

// Average driving speed used by the local router to estimate durations.
const averageSpeedKmh = 60.0

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeResult carries a resolved position plus administrative components.
// Success implies coordinates are set; failure implies Error is non-empty and
// coordinates are zero.
type GeocodeResult struct {
	Success          bool    `json:"success"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Province         string  `json:"province"`
	City             string  `json:"city"`
	PostalCode       string  `json:"postal_code"`
	FormattedAddress string  `json:"formatted_address"`
	Error            string  `json:"error,omitempty"`
}

// Geocoder is the external geocoding capability.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (GeocodeResult, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (GeocodeResult, error)
}

// Stop is one delivery destination, aggregating every invoice bound for the
// same place. Stops are rebuilt per optimization request and never persisted
// directly (trip sheet rows are written from them instead).
type Stop struct {
	InvoiceIDs []uint `json:"invoice_ids"`
	CustomerID *uint  `json:"customer_id,omitempty"`

	Name    string `json:"name"`
	Address string `json:"address"`

	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	HasCoordinates bool    `json:"has_coordinates"`

	Value              float64 `json:"value"`
	Priority           string  `json:"priority"` // "high" or "normal"
	ServiceTimeMinutes int     `json:"service_time_minutes"`
	Notes              string  `json:"notes"`

	// Filled in by the composer once the route comes back.
	LegDistanceKm  float64 `json:"leg_distance_km"`
	LegDurationMin float64 `json:"leg_duration_min"`
}

// Depot is the route origin (and optional return point).
type Depot struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type RouteLeg struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// RouteRequest asks the routing capability for a visiting order and legs for
// a depot plus stop coordinates.
type RouteRequest struct {
	Origin         Point     `json:"origin"`
	Stops          []Point   `json:"stops"`
	OptimizeOrder  bool      `json:"optimize_order"`
	ReturnToOrigin bool      `json:"return_to_origin"`
	DepartureTime  time.Time `json:"departure_time"`
	AvoidTolls     bool      `json:"avoid_tolls"`
	AvoidHighways  bool      `json:"avoid_highways"`
}

// RouteResult is the routing capability's answer. StopOrder is a permutation
// of indexes into RouteRequest.Stops. Legs holds one leg per stop in visiting
// order, plus a final return leg when ReturnToOrigin was requested.
type RouteResult struct {
	StopOrder []int      `json:"stop_order"`
	Legs      []RouteLeg `json:"legs"`
	Error     string     `json:"error,omitempty"`
}

// Router is the external routing capability.
type Router interface {
	ComputeRoute(ctx context.Context, req RouteRequest) (RouteResult, error)
	ComputeDistanceMatrix(ctx context.Context, origins, destinations []Point) ([][]RouteLeg, error)
}

// OptimizedRoute is the composed itinerary returned to callers.
type OptimizedRoute struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Depot Depot  `json:"depot"`
	Stops []Stop `json:"stops"` // final visiting order

	TotalDistanceKm  float64 `json:"total_distance_km"`
	TotalDurationMin float64 `json:"total_duration_min"`

	DepartureTime time.Time `json:"departure_time"`
	ReturnToDepot bool      `json:"return_to_depot"`
	Optimized     bool      `json:"optimized"`
}

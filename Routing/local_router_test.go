package Routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRouterKeepsInputOrderWhenNotOptimizing(t *testing.T) {
	router := &LocalRouter{}
	result, err := router.ComputeRoute(context.Background(), RouteRequest{
		Origin: Point{Lat: -26.2041, Lng: 28.0473}, // Johannesburg
		Stops: []Point{
			{Lat: -25.7479, Lng: 28.2293}, // Pretoria
			{Lat: -26.7145, Lng: 27.0970}, // Potchefstroom
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Error)
	assert.Equal(t, []int{0, 1}, result.StopOrder)
	require.Len(t, result.Legs, 2)
}

func TestLocalRouterOptimizedOrderIsPermutation(t *testing.T) {
	stops := []Point{
		{Lat: -25.7479, Lng: 28.2293},
		{Lat: -29.8587, Lng: 31.0218},
		{Lat: -33.9249, Lng: 18.4241},
		{Lat: -26.7145, Lng: 27.0970},
		{Lat: -28.7282, Lng: 24.7499},
	}
	router := &LocalRouter{}
	result, err := router.ComputeRoute(context.Background(), RouteRequest{
		Origin:         Point{Lat: -26.2041, Lng: 28.0473},
		Stops:          stops,
		OptimizeOrder:  true,
		ReturnToOrigin: true,
	})
	require.NoError(t, err)
	assert.True(t, isPermutation(result.StopOrder, len(stops)))
	// One leg per stop plus the return leg.
	assert.Len(t, result.Legs, len(stops)+1)
}

func TestLocalRouterDeterministic(t *testing.T) {
	// Ten stops crosses the annealing threshold; the run must still be
	// repeatable request to request.
	stops := make([]Point, 10)
	for i := range stops {
		stops[i] = Point{Lat: -26.0 - float64(i)*0.37, Lng: 28.0 + float64(i%4)*0.91}
	}
	req := RouteRequest{
		Origin:        Point{Lat: -26.2041, Lng: 28.0473},
		Stops:         stops,
		OptimizeOrder: true,
	}

	router := &LocalRouter{}
	first, err := router.ComputeRoute(context.Background(), req)
	require.NoError(t, err)
	second, err := router.ComputeRoute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.StopOrder, second.StopOrder)
	assert.Equal(t, first.Legs, second.Legs)
}

func TestLocalRouterOptimizedNoWorseThanInputOrder(t *testing.T) {
	stops := []Point{
		{Lat: -33.9249, Lng: 18.4241},
		{Lat: -25.7479, Lng: 28.2293},
		{Lat: -29.8587, Lng: 31.0218},
		{Lat: -26.7145, Lng: 27.0970},
	}
	origin := Point{Lat: -26.2041, Lng: 28.0473}
	router := &LocalRouter{}

	plain, err := router.ComputeRoute(context.Background(), RouteRequest{Origin: origin, Stops: stops})
	require.NoError(t, err)
	optimized, err := router.ComputeRoute(context.Background(), RouteRequest{Origin: origin, Stops: stops, OptimizeOrder: true})
	require.NoError(t, err)

	total := func(legs []RouteLeg) float64 {
		sum := 0.0
		for _, leg := range legs {
			sum += leg.DistanceKm
		}
		return sum
	}
	assert.LessOrEqual(t, total(optimized.Legs), total(plain.Legs))
}

func TestLocalRouterEmptyStops(t *testing.T) {
	router := &LocalRouter{}
	result, err := router.ComputeRoute(context.Background(), RouteRequest{Origin: Point{Lat: -26.0, Lng: 28.0}})
	require.NoError(t, err)
	assert.Equal(t, "no stops supplied", result.Error)
}

func TestLocalRouterDistanceMatrix(t *testing.T) {
	router := &LocalRouter{SpeedKmh: 60}
	origins := []Point{{Lat: -26.2041, Lng: 28.0473}}
	destinations := []Point{
		{Lat: -26.2041, Lng: 28.0473},
		{Lat: -25.7479, Lng: 28.2293},
	}
	matrix, err := router.ComputeDistanceMatrix(context.Background(), origins, destinations)
	require.NoError(t, err)
	require.Len(t, matrix, 1)
	require.Len(t, matrix[0], 2)

	assert.Zero(t, matrix[0][0].DistanceKm)
	// Johannesburg to Pretoria is roughly 54 km great-circle.
	assert.InDelta(t, 54, matrix[0][1].DistanceKm, 5)
	// At 60 km/h the minutes figure matches the kilometers figure.
	assert.InDelta(t, matrix[0][1].DistanceKm, matrix[0][1].DurationMin, 0.001)
}

func TestHaversineKnownDistance(t *testing.T) {
	johannesburg := Point{Lat: -26.2041, Lng: 28.0473}
	capeTown := Point{Lat: -33.9249, Lng: 18.4241}
	// Great-circle distance is about 1,260 km.
	assert.InDelta(t, 1260, haversineDistance(johannesburg, capeTown), 20)
}

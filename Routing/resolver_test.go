package Routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGeocoder answers from a fixed map and records every query it saw.
type stubGeocoder struct {
	results map[string]GeocodeResult
	queries []string
}

func (s *stubGeocoder) Geocode(ctx context.Context, query string) (GeocodeResult, error) {
	s.queries = append(s.queries, query)
	if result, ok := s.results[query]; ok {
		return result, nil
	}
	return GeocodeResult{Success: false, Error: "no match"}, nil
}

func (s *stubGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (GeocodeResult, error) {
	return GeocodeResult{Success: false, Error: "not implemented"}, nil
}

func TestResolveEmptyInput(t *testing.T) {
	geocoder := &stubGeocoder{}
	resolver := NewAddressResolver(geocoder)

	result := resolver.Resolve(context.Background(), "   ")

	assert.False(t, result.Success)
	assert.Equal(t, "no address data", result.Error)
	assert.Empty(t, geocoder.queries, "no external call for empty input")
}

func TestResolveNoMatchNeverReturnsPartialCoordinates(t *testing.T) {
	geocoder := &stubGeocoder{}
	resolver := NewAddressResolver(geocoder)

	result := resolver.Resolve(context.Background(), "Nowhere Street 999")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Zero(t, result.Latitude)
	assert.Zero(t, result.Longitude)
}

func TestResolvePrefersResultWithProvince(t *testing.T) {
	geocoder := &stubGeocoder{results: map[string]GeocodeResult{
		"Main Road Store": {
			Success:  true,
			Latitude: -26.1, Longitude: 28.0,
		},
		"Main Road Store, South Africa": {
			Success:  true,
			Latitude: -33.9, Longitude: 18.4,
			Province: "Western Cape",
			City:     "Cape Town",
		},
	}}
	resolver := NewAddressResolver(geocoder)

	result := resolver.Resolve(context.Background(), "Main Road Store")

	require.True(t, result.Success)
	assert.Equal(t, "Western Cape", result.Province)
	assert.InDelta(t, -33.9, result.Latitude, 0.001)
}

func TestResolveKeepsFirstSuccessWhenNoProvinceAnywhere(t *testing.T) {
	geocoder := &stubGeocoder{results: map[string]GeocodeResult{
		"Corner Shop, South Africa": {
			Success:  true,
			Latitude: -29.8, Longitude: 31.0,
		},
	}}
	resolver := NewAddressResolver(geocoder)

	result := resolver.Resolve(context.Background(), "Corner Shop")

	require.True(t, result.Success)
	assert.InDelta(t, -29.8, result.Latitude, 0.001)
	assert.Empty(t, result.Province)
}

func TestResolveTriesCleanedBusinessName(t *testing.T) {
	geocoder := &stubGeocoder{results: map[string]GeocodeResult{
		"ABC Trading, South Africa": {
			Success:  true,
			Latitude: -25.7, Longitude: 28.2,
			Province: "Gauteng",
		},
	}}
	resolver := NewAddressResolver(geocoder)

	result := resolver.Resolve(context.Background(), "ABC Trading (PTY) LTD, South Africa")

	require.True(t, result.Success)
	assert.Equal(t, "Gauteng", result.Province)
	assert.Contains(t, geocoder.queries, "ABC Trading, South Africa")
}

func TestResolveCleaningDisabledSkipsVariant(t *testing.T) {
	geocoder := &stubGeocoder{results: map[string]GeocodeResult{
		"ABC Trading, South Africa": {Success: true, Latitude: -25.7, Longitude: 28.2, Province: "Gauteng"},
	}}
	resolver := NewAddressResolver(geocoder)
	resolver.CleanBusinessNames = false

	result := resolver.Resolve(context.Background(), "ABC Trading (PTY) LTD, South Africa")

	assert.False(t, result.Success)
	assert.NotContains(t, geocoder.queries, "ABC Trading, South Africa")
}

func TestResolveNeighbourCountryFallback(t *testing.T) {
	geocoder := &stubGeocoder{results: map[string]GeocodeResult{
		"Katima Mulilo Depot, Namibia": {
			Success:  true,
			Latitude: -17.5, Longitude: 24.3,
			Province: "Zambezi",
		},
	}}
	resolver := NewAddressResolver(geocoder)

	result := resolver.Resolve(context.Background(), "Katima Mulilo Depot")

	require.True(t, result.Success)
	assert.Equal(t, "Zambezi", result.Province)
}

func TestResolveStructuredJoinsFields(t *testing.T) {
	geocoder := &stubGeocoder{results: map[string]GeocodeResult{
		"12 Loop Street, Cape Town, Western Cape, 8001, South Africa": {
			Success:  true,
			Latitude: -33.92, Longitude: 18.42,
			Province: "Western Cape",
		},
	}}
	resolver := NewAddressResolver(geocoder)

	result := resolver.ResolveStructured(context.Background(), StructuredAddress{
		Line1:      "12 Loop Street",
		City:       "Cape Town",
		Province:   "Western Cape",
		PostalCode: "8001",
	})

	require.True(t, result.Success)
	assert.Equal(t, "Western Cape", result.Province)
}

func TestResolveStructuredEmpty(t *testing.T) {
	resolver := NewAddressResolver(&stubGeocoder{})

	result := resolver.ResolveStructured(context.Background(), StructuredAddress{})

	assert.False(t, result.Success)
	assert.Equal(t, "no address data", result.Error)
}

func TestCleanBusinessName(t *testing.T) {
	cases := map[string]string{
		"ABC Trading (PTY) LTD":               "ABC Trading",
		"ABC Trading (PTY) LTD, South Africa": "ABC Trading, South Africa",
		"Mokoena Hardware CC":                 "Mokoena Hardware",
		"Plain Name":                          "Plain Name",
	}
	for input, want := range cases {
		assert.Equal(t, want, cleanBusinessName(input), "input %q", input)
	}
}

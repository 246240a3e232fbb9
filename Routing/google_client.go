package Routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	googleGeocodeURL   = "https://maps.googleapis.com/maps/api/geocode/json"
	googleDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"
	googleMatrixURL    = "https://maps.googleapis.com/maps/api/distancematrix/json"
)

// GoogleClient implements Geocoder and Router against the Google Maps web
// services. Error messages from the upstream are passed through unchanged so
// callers can surface them as-is.
type GoogleClient struct {
	APIKey     string
	HTTPClient *http.Client

	// Region bias for geocoding, "za" unless overridden.
	Region string
}

// NewGoogleClient reads GOOGLE_MAPS_API_KEY from the environment.
func NewGoogleClient() *GoogleClient {
	return &GoogleClient{
		APIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Region: "za",
	}
}

type googleGeocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		Geometry          struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

func (g *GoogleClient) geocodeCall(ctx context.Context, params url.Values) (GeocodeResult, error) {
	params.Set("key", g.APIKey)
	if g.Region != "" {
		params.Set("region", g.Region)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", googleGeocodeURL+"?"+params.Encode(), nil)
	if err != nil {
		return GeocodeResult{}, fmt.Errorf("failed to create geocode request: %w", err)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return GeocodeResult{}, fmt.Errorf("failed to execute geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeocodeResult{}, fmt.Errorf("geocoding API returned status %d", resp.StatusCode)
	}

	var decoded googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return GeocodeResult{}, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if decoded.Status == "ZERO_RESULTS" || len(decoded.Results) == 0 {
		return GeocodeResult{Success: false, Error: "geocoding failed: no match"}, nil
	}
	if decoded.Status != "OK" {
		message := decoded.Status
		if decoded.ErrorMessage != "" {
			message = decoded.ErrorMessage
		}
		return GeocodeResult{Success: false, Error: message}, nil
	}

	best := decoded.Results[0]
	result := GeocodeResult{
		Success:          true,
		Latitude:         best.Geometry.Location.Lat,
		Longitude:        best.Geometry.Location.Lng,
		FormattedAddress: best.FormattedAddress,
	}
	for _, component := range best.AddressComponents {
		for _, t := range component.Types {
			switch t {
			case "administrative_area_level_1":
				result.Province = component.LongName
			case "locality":
				result.City = component.LongName
			case "postal_code":
				result.PostalCode = component.LongName
			}
		}
	}
	return result, nil
}

func (g *GoogleClient) Geocode(ctx context.Context, query string) (GeocodeResult, error) {
	params := url.Values{}
	params.Set("address", query)
	return g.geocodeCall(ctx, params)
}

func (g *GoogleClient) ReverseGeocode(ctx context.Context, lat, lng float64) (GeocodeResult, error) {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	return g.geocodeCall(ctx, params)
}

type googleDirectionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		WaypointOrder []int `json:"waypoint_order"`
		Legs          []struct {
			Distance struct {
				Value float64 `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"` // seconds
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
	ErrorMessage string `json:"error_message"`
}

func formatPoint(p Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}

// ComputeRoute asks the Directions API for a route from the depot through the
// stops. With OptimizeOrder set, Google decides the visiting order; otherwise
// the input order is preserved. The final stop serves as the destination
// unless a return to the origin was requested.
func (g *GoogleClient) ComputeRoute(ctx context.Context, req RouteRequest) (RouteResult, error) {
	if len(req.Stops) == 0 {
		return RouteResult{Error: "no stops supplied"}, nil
	}

	var destination string
	waypoints := req.Stops
	if req.ReturnToOrigin {
		destination = formatPoint(req.Origin)
	} else {
		destination = formatPoint(req.Stops[len(req.Stops)-1])
		waypoints = req.Stops[:len(req.Stops)-1]
	}

	params := url.Values{}
	params.Set("origin", formatPoint(req.Origin))
	params.Set("destination", destination)
	params.Set("key", g.APIKey)
	if !req.DepartureTime.IsZero() {
		params.Set("departure_time", fmt.Sprintf("%d", req.DepartureTime.Unix()))
	}

	var avoid []string
	if req.AvoidTolls {
		avoid = append(avoid, "tolls")
	}
	if req.AvoidHighways {
		avoid = append(avoid, "highways")
	}
	if len(avoid) > 0 {
		params.Set("avoid", strings.Join(avoid, "|"))
	}

	if len(waypoints) > 0 {
		parts := make([]string, 0, len(waypoints))
		for _, wp := range waypoints {
			parts = append(parts, formatPoint(wp))
		}
		value := strings.Join(parts, "|")
		if req.OptimizeOrder {
			value = "optimize:true|" + value
		}
		params.Set("waypoints", value)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", googleDirectionsURL+"?"+params.Encode(), nil)
	if err != nil {
		return RouteResult{}, fmt.Errorf("failed to create directions request: %w", err)
	}

	resp, err := g.HTTPClient.Do(httpReq)
	if err != nil {
		return RouteResult{}, fmt.Errorf("failed to execute directions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RouteResult{}, fmt.Errorf("directions API returned status %d", resp.StatusCode)
	}

	var decoded googleDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return RouteResult{}, fmt.Errorf("failed to decode directions response: %w", err)
	}

	if decoded.Status != "OK" || len(decoded.Routes) == 0 {
		message := decoded.Status
		if decoded.ErrorMessage != "" {
			message = decoded.ErrorMessage
		}
		if message == "" {
			message = "routing failed: no route"
		}
		return RouteResult{Error: message}, nil
	}

	best := decoded.Routes[0]

	// Reassemble the full stop order. Google's waypoint_order covers the
	// intermediate waypoints only; the fixed destination stop (when not
	// returning to the depot) goes last.
	order := make([]int, 0, len(req.Stops))
	if len(waypoints) > 0 {
		if len(best.WaypointOrder) == len(waypoints) {
			order = append(order, best.WaypointOrder...)
		} else {
			for i := range waypoints {
				order = append(order, i)
			}
		}
	}
	if !req.ReturnToOrigin {
		order = append(order, len(req.Stops)-1)
	}

	legs := make([]RouteLeg, 0, len(best.Legs))
	for _, leg := range best.Legs {
		legs = append(legs, RouteLeg{
			DistanceKm:  leg.Distance.Value / 1000.0,
			DurationMin: leg.Duration.Value / 60.0,
		})
	}

	return RouteResult{StopOrder: order, Legs: legs}, nil
}

type googleMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
	ErrorMessage string `json:"error_message"`
}

func (g *GoogleClient) ComputeDistanceMatrix(ctx context.Context, origins, destinations []Point) ([][]RouteLeg, error) {
	originParts := make([]string, 0, len(origins))
	for _, p := range origins {
		originParts = append(originParts, formatPoint(p))
	}
	destinationParts := make([]string, 0, len(destinations))
	for _, p := range destinations {
		destinationParts = append(destinationParts, formatPoint(p))
	}

	params := url.Values{}
	params.Set("origins", strings.Join(originParts, "|"))
	params.Set("destinations", strings.Join(destinationParts, "|"))
	params.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, "GET", googleMatrixURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix request: %w", err)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute matrix request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("distance matrix API returned status %d", resp.StatusCode)
	}

	var decoded googleMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode matrix response: %w", err)
	}

	if decoded.Status != "OK" {
		message := decoded.Status
		if decoded.ErrorMessage != "" {
			message = decoded.ErrorMessage
		}
		return nil, fmt.Errorf("distance matrix API error: %s", message)
	}

	matrix := make([][]RouteLeg, len(decoded.Rows))
	for i, row := range decoded.Rows {
		matrix[i] = make([]RouteLeg, len(row.Elements))
		for j, element := range row.Elements {
			if element.Status != "OK" {
				continue
			}
			matrix[i][j] = RouteLeg{
				DistanceKm:  element.Distance.Value / 1000.0,
				DurationMin: element.Duration.Value / 60.0,
			}
		}
	}
	return matrix, nil
}

package Routing

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// StructuredAddress is the field-level form of an address, as stored on
// customer records.
type StructuredAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a StructuredAddress) join() string {
	parts := []string{a.Line1, a.Line2, a.City, a.Province, a.PostalCode, a.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}

// AddressResolver turns free-text or structured addresses into coordinates by
// trying a fixed priority order of query variants against the geocoder. The
// first variant whose result includes a province wins; if none do, the first
// outright success is kept as a fallback.
type AddressResolver struct {
	Geocoder Geocoder

	// CleanBusinessNames enables the "(PTY) LTD"-stripping variant.
	CleanBusinessNames bool
}

func NewAddressResolver(geocoder Geocoder) *AddressResolver {
	return &AddressResolver{
		Geocoder:           geocoder,
		CleanBusinessNames: true,
	}
}

// queryVariant is one formulation attempt. Build returns ok=false when the
// variant does not apply to this input.
type queryVariant struct {
	Name  string
	Build func(query string) (string, bool)
}

var businessSuffixPattern = regexp.MustCompile(`(?i)\s+(\(pty\)\s*ltd|\(pty\)|pty\s*ltd|ltd|cc|t/a\s+\S.*)\s*$`)

// cleanBusinessName strips company-form suffixes that throw the geocoder off
// ("ABC Trading (PTY) LTD, South Africa" -> "ABC Trading, South Africa").
// The suffix is removed from the name segment, not from trailing locality
// segments.
func cleanBusinessName(name string) string {
	segments := strings.Split(name, ",")
	head := strings.TrimSpace(segments[0])
	for {
		next := strings.TrimSpace(businessSuffixPattern.ReplaceAllString(head, ""))
		if next == head || next == "" {
			break
		}
		head = next
	}
	if head == "" {
		return ""
	}
	out := []string{head}
	for _, seg := range segments[1:] {
		if s := strings.TrimSpace(seg); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}

// Institution keywords that benefit from a type hint in the query.
var institutionHints = map[string]string{
	"hospital": "hospital",
	"clinic":   "clinic",
	"school":   "school",
	"college":  "college",
	"mine":     "mine",
	"farm":     "farm",
}

// Countries bordering South Africa, tried last for border-town addresses the
// ZA bias cannot place.
var neighbourCountries = []string{"Namibia", "Botswana", "Zimbabwe", "Mozambique", "Lesotho", "Eswatini"}

func hasCountry(query string) bool {
	lower := strings.ToLower(query)
	if strings.Contains(lower, strings.ToLower(DefaultCountry)) {
		return true
	}
	for _, c := range neighbourCountries {
		if strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// variants builds the ordered strategy list for a query.
func (r *AddressResolver) variants(query string) []queryVariant {
	list := []queryVariant{
		{Name: "raw", Build: func(q string) (string, bool) {
			return q, true
		}},
		{Name: "raw+country", Build: func(q string) (string, bool) {
			if hasCountry(q) {
				return "", false
			}
			return q + ", " + DefaultCountry, true
		}},
	}

	if r.CleanBusinessNames {
		list = append(list, queryVariant{Name: "cleaned-name", Build: func(q string) (string, bool) {
			cleaned := cleanBusinessName(q)
			if cleaned == "" || cleaned == q {
				return "", false
			}
			if !hasCountry(cleaned) {
				cleaned += ", " + DefaultCountry
			}
			return cleaned, true
		}})
	}

	list = append(list, queryVariant{Name: "institution-hint", Build: func(q string) (string, bool) {
		lower := strings.ToLower(q)
		for keyword, hint := range institutionHints {
			if strings.Contains(lower, keyword) {
				return q + " " + hint + ", " + DefaultCountry, true
			}
		}
		return "", false
	}})

	for _, country := range neighbourCountries {
		country := country
		list = append(list, queryVariant{Name: "neighbour-" + strings.ToLower(country), Build: func(q string) (string, bool) {
			if hasCountry(q) {
				return "", false
			}
			base := q
			if r.CleanBusinessNames {
				if cleaned := cleanBusinessName(q); cleaned != "" {
					base = cleaned
				}
			}
			return base + ", " + country, true
		}})
	}

	return list
}

// Resolve geocodes a free-text query through the variant chain.
func (r *AddressResolver) Resolve(ctx context.Context, query string) GeocodeResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return GeocodeResult{Success: false, Error: "no address data"}
	}

	var fallback *GeocodeResult
	var lastError string

	for _, variant := range r.variants(query) {
		formulated, ok := variant.Build(query)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return GeocodeResult{Success: false, Error: err.Error()}
		}

		result, err := r.Geocoder.Geocode(ctx, formulated)
		if err != nil {
			lastError = err.Error()
			continue
		}
		if !result.Success {
			if result.Error != "" {
				lastError = result.Error
			}
			continue
		}

		// First success that carries a province short-circuits the chain.
		if result.Province != "" {
			return result
		}
		if fallback == nil {
			saved := result
			fallback = &saved
		}
	}

	if fallback != nil {
		return *fallback
	}

	message := "geocoding failed"
	if lastError != "" {
		message = fmt.Sprintf("geocoding failed: %s", lastError)
	}
	return GeocodeResult{Success: false, Error: message}
}

// ResolveStructured geocodes field-level address input. Falls back to the
// variant chain on the joined string, so partial or business-name-only rows
// still get the full treatment.
func (r *AddressResolver) ResolveStructured(ctx context.Context, address StructuredAddress) GeocodeResult {
	joined := address.join()
	if joined == "" {
		return GeocodeResult{Success: false, Error: "no address data"}
	}
	if address.Country == "" && !hasCountry(joined) {
		joined += ", " + DefaultCountry
	}
	return r.Resolve(ctx, joined)
}

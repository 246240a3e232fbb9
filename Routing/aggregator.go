package Routing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"Kudu/Models"
)

// AggregateResult is the outcome of grouping pending invoices into stops.
// Skipped destinations are reported as a count plus short reasons, not as a
// hard failure.
type AggregateResult struct {
	Stops          []Stop   `json:"stops"`
	SkippedCount   int      `json:"skipped_count"`
	SkippedDetails []string `json:"skipped_details,omitempty"`
}

// StopAggregator groups invoices by destination and resolves coordinates for
// stops that don't have one stored. Resolution is sequential with a fixed
// pacing delay between geocoder calls.
type StopAggregator struct {
	Resolver *AddressResolver

	// PriorityThreshold marks a stop high priority when any member
	// invoice's amount exceeds it.
	PriorityThreshold float64

	// PacingDelay is overridable so tests don't sleep.
	PacingDelay time.Duration
}

func NewStopAggregator(resolver *AddressResolver) *StopAggregator {
	return &StopAggregator{
		Resolver:          resolver,
		PriorityThreshold: HighPriorityThreshold,
		PacingDelay:       GeocodePacingDelay,
	}
}

type stopGroup struct {
	key      string
	customer *Models.Customer
	invoices []Models.Invoice
}

// Aggregate builds one stop per destination. Customers must contain every
// customer referenced by the invoices; invoices without a customer row fall
// back to province+city grouping on the invoice's own address fields.
func (a *StopAggregator) Aggregate(ctx context.Context, invoices []Models.Invoice, customers map[uint]Models.Customer) (AggregateResult, error) {
	if len(invoices) == 0 {
		return AggregateResult{}, errors.New("no pending invoices to aggregate")
	}

	groups := make(map[string]*stopGroup)
	for _, inv := range invoices {
		var key string
		var customer *Models.Customer
		if c, ok := customers[inv.CustomerID]; ok && inv.CustomerID != 0 {
			key = fmt.Sprintf("customer:%d", inv.CustomerID)
			saved := c
			customer = &saved
		} else {
			// Customer-level grouping unavailable; fall back to the
			// invoice's own destination pair.
			key = "area:" + strings.ToLower(strings.TrimSpace(inv.Province)) + "|" + strings.ToLower(strings.TrimSpace(inv.City))
		}

		group, ok := groups[key]
		if !ok {
			group = &stopGroup{key: key, customer: customer}
			groups[key] = group
		}
		group.invoices = append(group.invoices, inv)
	}

	// Deterministic stop order regardless of invoice input order.
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := AggregateResult{}
	firstResolve := true

	for _, key := range keys {
		group := groups[key]
		stop := a.buildStop(group)

		if !stop.HasCoordinates {
			address := stopAddress(group)
			if strings.TrimSpace(address) == "" {
				result.SkippedCount++
				result.SkippedDetails = append(result.SkippedDetails, stop.Name+": no address data")
				continue
			}

			if !firstResolve && a.PacingDelay > 0 {
				select {
				case <-ctx.Done():
					return result, ctx.Err()
				case <-time.After(a.PacingDelay):
				}
			}
			firstResolve = false

			query := address
			if !hasCountry(query) {
				query += ", " + DefaultCountry
			}
			geocoded := a.Resolver.Resolve(ctx, query)
			if !geocoded.Success {
				result.SkippedCount++
				result.SkippedDetails = append(result.SkippedDetails, stop.Name+": "+geocoded.Error)
				continue
			}
			stop.Latitude = geocoded.Latitude
			stop.Longitude = geocoded.Longitude
			stop.HasCoordinates = true
			if stop.Address == "" {
				stop.Address = geocoded.FormattedAddress
			}
		}

		result.Stops = append(result.Stops, stop)
	}

	if len(result.Stops) == 0 {
		return result, errors.New("no valid delivery destinations")
	}
	return result, nil
}

// buildStop aggregates a group's invoices into a single stop.
func (a *StopAggregator) buildStop(group *stopGroup) Stop {
	stop := Stop{}

	first := group.invoices[0]
	if group.customer != nil {
		id := group.customer.ID
		stop.CustomerID = &id
		stop.Name = group.customer.Name
		stop.Address = group.customer.FullAddress()
		if group.customer.HasCoordinates() {
			stop.Latitude = group.customer.DeliveryLatitude
			stop.Longitude = group.customer.DeliveryLongitude
			stop.HasCoordinates = true
		}
	} else {
		stop.Name = strings.TrimSpace(first.City + ", " + first.Province)
		stop.Name = strings.Trim(stop.Name, ", ")
		stop.Address = first.Address
	}

	refs := make([]string, 0, len(group.invoices))
	priority := "normal"
	for _, inv := range group.invoices {
		stop.InvoiceIDs = append(stop.InvoiceIDs, inv.ID)
		stop.Value += inv.NetValue()
		if inv.Amount > a.PriorityThreshold {
			priority = "high"
		}
		ref := inv.ReferenceNo
		if ref == "" {
			ref = inv.InvoiceNo
		}
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	sort.Strings(refs)

	stop.Priority = priority
	stop.ServiceTimeMinutes = BaseServiceMinutes + PerInvoiceServiceMinutes*len(group.invoices)
	stop.Notes = joinReferences(refs)

	return stop
}

// joinReferences renders the member reference list, truncated so notes stay
// bounded.
func joinReferences(refs []string) string {
	if len(refs) == 0 {
		return ""
	}
	if len(refs) <= MaxNotesReferences {
		return strings.Join(refs, ", ")
	}
	shown := strings.Join(refs[:MaxNotesReferences], ", ")
	return fmt.Sprintf("%s +%d more", shown, len(refs)-MaxNotesReferences)
}

// stopAddress picks the best geocoding query for a group lacking stored
// coordinates.
func stopAddress(group *stopGroup) string {
	if group.customer != nil {
		if addr := group.customer.FullAddress(); addr != "" {
			return addr
		}
		return group.customer.Name
	}
	first := group.invoices[0]
	if first.Address != "" {
		return first.Address
	}
	return strings.Trim(strings.TrimSpace(first.City+", "+first.Province), ", ")
}

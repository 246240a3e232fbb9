package Routing

import (
	"context"
	"math/rand"
	"testing"

	"Kudu/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInvoice(id uint, customerID uint, amount, returns float64, ref string) Models.Invoice {
	inv := Models.Invoice{
		CustomerID:  customerID,
		Amount:      amount,
		Returns:     returns,
		ReferenceNo: ref,
		Status:      Models.InvoiceStatusPending,
	}
	inv.ID = id
	return inv
}

func testCustomer(id uint, name string, lat, lng float64) Models.Customer {
	c := Models.Customer{
		Code:              name,
		Name:              name,
		DeliveryLatitude:  lat,
		DeliveryLongitude: lng,
	}
	c.ID = id
	return c
}

func newTestAggregator(geocoder Geocoder) *StopAggregator {
	aggregator := NewStopAggregator(NewAddressResolver(geocoder))
	aggregator.PacingDelay = 0
	return aggregator
}

func TestAggregateValueAndPriorityScenario(t *testing.T) {
	// 3 invoices for customer A (100, 200, 50; no returns), 2 for customer B
	// (600, 10; returns 10): A.value=350, B.value=600. With the threshold at
	// 500, B is high priority (a member amount of 600 exceeds it), A normal.
	invoices := []Models.Invoice{
		testInvoice(1, 1, 100, 0, "INV-001"),
		testInvoice(2, 1, 200, 0, "INV-002"),
		testInvoice(3, 1, 50, 0, "INV-003"),
		testInvoice(4, 2, 600, 0, "INV-004"),
		testInvoice(5, 2, 10, 10, "INV-005"),
	}
	customers := map[uint]Models.Customer{
		1: testCustomer(1, "Customer A", -26.2, 28.0),
		2: testCustomer(2, "Customer B", -33.9, 18.4),
	}

	aggregator := newTestAggregator(&stubGeocoder{})
	aggregator.PriorityThreshold = 500
	result, err := aggregator.Aggregate(context.Background(), invoices, customers)
	require.NoError(t, err)
	require.Len(t, result.Stops, 2)

	byName := map[string]Stop{}
	for _, stop := range result.Stops {
		byName[stop.Name] = stop
	}

	a := byName["Customer A"]
	b := byName["Customer B"]
	assert.Equal(t, 350.0, a.Value)
	assert.Equal(t, 600.0, b.Value)
	assert.Equal(t, "normal", a.Priority)
	assert.Equal(t, "high", b.Priority)
	assert.Len(t, a.InvoiceIDs, 3)
	assert.Len(t, b.InvoiceIDs, 2)

	// Service time: base plus per-invoice increment.
	assert.Equal(t, BaseServiceMinutes+3*PerInvoiceServiceMinutes, a.ServiceTimeMinutes)
	assert.Equal(t, BaseServiceMinutes+2*PerInvoiceServiceMinutes, b.ServiceTimeMinutes)
}

func TestAggregatePriorityThreshold(t *testing.T) {
	invoices := []Models.Invoice{
		testInvoice(1, 1, 5100, 0, "INV-001"), // above threshold
		testInvoice(2, 1, 20, 0, "INV-002"),
		testInvoice(3, 2, 4999, 0, "INV-003"),
	}
	customers := map[uint]Models.Customer{
		1: testCustomer(1, "Customer A", -26.2, 28.0),
		2: testCustomer(2, "Customer B", -33.9, 18.4),
	}

	aggregator := newTestAggregator(&stubGeocoder{})
	result, err := aggregator.Aggregate(context.Background(), invoices, customers)
	require.NoError(t, err)

	byName := map[string]Stop{}
	for _, stop := range result.Stops {
		byName[stop.Name] = stop
	}
	assert.Equal(t, "high", byName["Customer A"].Priority)
	assert.Equal(t, "normal", byName["Customer B"].Priority)
}

func TestAggregateOrderIndependent(t *testing.T) {
	invoices := []Models.Invoice{
		testInvoice(1, 1, 100, 5, "R1"),
		testInvoice(2, 1, 250, 0, "R2"),
		testInvoice(3, 2, 75, 25, "R3"),
		testInvoice(4, 2, 900, 0, "R4"),
		testInvoice(5, 3, 40, 0, "R5"),
	}
	customers := map[uint]Models.Customer{
		1: testCustomer(1, "A", -26.0, 28.0),
		2: testCustomer(2, "B", -29.0, 30.0),
		3: testCustomer(3, "C", -33.0, 18.0),
	}

	aggregator := newTestAggregator(&stubGeocoder{})
	baseline, err := aggregator.Aggregate(context.Background(), invoices, customers)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]Models.Invoice, len(invoices))
		copy(shuffled, invoices)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		result, err := aggregator.Aggregate(context.Background(), shuffled, customers)
		require.NoError(t, err)
		require.Len(t, result.Stops, len(baseline.Stops))

		for i := range baseline.Stops {
			assert.Equal(t, baseline.Stops[i].Name, result.Stops[i].Name)
			assert.Equal(t, baseline.Stops[i].Value, result.Stops[i].Value)
			assert.Equal(t, baseline.Stops[i].Priority, result.Stops[i].Priority)
		}
	}
}

func TestAggregateGeocodesMissingCoordinates(t *testing.T) {
	invoices := []Models.Invoice{testInvoice(1, 1, 100, 0, "R1")}
	customer := testCustomer(1, "Far Shop", 0, 0)
	customer.AddressLine1 = "5 Kerk Street"
	customer.City = "Polokwane"
	customers := map[uint]Models.Customer{1: customer}

	geocoder := &stubGeocoder{results: map[string]GeocodeResult{
		"5 Kerk Street, Polokwane, South Africa": {
			Success:  true,
			Latitude: -23.9, Longitude: 29.45,
			Province: "Limpopo",
		},
	}}

	aggregator := newTestAggregator(geocoder)
	result, err := aggregator.Aggregate(context.Background(), invoices, customers)
	require.NoError(t, err)
	require.Len(t, result.Stops, 1)
	assert.True(t, result.Stops[0].HasCoordinates)
	assert.InDelta(t, -23.9, result.Stops[0].Latitude, 0.001)
}

func TestAggregateSkipsUnresolvableStops(t *testing.T) {
	// 10 stops, 2 of which cannot be geocoded: the batch yields 8 stops and a
	// skipped count of 2, not a hard failure.
	invoices := make([]Models.Invoice, 0, 10)
	customers := make(map[uint]Models.Customer, 10)
	geocoder := &stubGeocoder{results: map[string]GeocodeResult{}}

	for i := uint(1); i <= 10; i++ {
		invoices = append(invoices, testInvoice(i, i, 100, 0, ""))
		c := testCustomer(i, "Shop "+string(rune('A'+i-1)), 0, 0)
		c.AddressLine1 = "Plot " + string(rune('A'+i-1))
		customers[i] = c
		if i > 2 {
			geocoder.results["Plot "+string(rune('A'+i-1))+", South Africa"] = GeocodeResult{
				Success:  true,
				Latitude: -26.0 - float64(i)*0.1, Longitude: 28.0,
				Province: "Gauteng",
			}
		}
	}

	aggregator := newTestAggregator(geocoder)
	result, err := aggregator.Aggregate(context.Background(), invoices, customers)
	require.NoError(t, err)
	assert.Len(t, result.Stops, 8)
	assert.Equal(t, 2, result.SkippedCount)
	assert.Len(t, result.SkippedDetails, 2)
}

func TestAggregateAllUnresolvableFails(t *testing.T) {
	invoices := []Models.Invoice{testInvoice(1, 1, 100, 0, "R1")}
	customers := map[uint]Models.Customer{1: testCustomer(1, "Ghost", 0, 0)}

	aggregator := newTestAggregator(&stubGeocoder{})
	result, err := aggregator.Aggregate(context.Background(), invoices, customers)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid delivery destinations")
	assert.Equal(t, 1, result.SkippedCount)
}

func TestAggregateFallsBackToAreaGrouping(t *testing.T) {
	// Invoices without a customer row group by province+city.
	inv1 := testInvoice(1, 0, 100, 0, "R1")
	inv1.Province = "KwaZulu-Natal"
	inv1.City = "Durban"
	inv1.Address = "Umgeni Road"
	inv2 := testInvoice(2, 0, 300, 0, "R2")
	inv2.Province = "KwaZulu-Natal"
	inv2.City = "Durban"
	inv2.Address = "Umgeni Road"

	geocoder := &stubGeocoder{results: map[string]GeocodeResult{
		"Umgeni Road, South Africa": {
			Success: true, Latitude: -29.8, Longitude: 31.0, Province: "KwaZulu-Natal",
		},
	}}

	aggregator := newTestAggregator(geocoder)
	result, err := aggregator.Aggregate(context.Background(), []Models.Invoice{inv1, inv2}, map[uint]Models.Customer{})
	require.NoError(t, err)
	require.Len(t, result.Stops, 1)
	assert.Equal(t, 400.0, result.Stops[0].Value)
	assert.Equal(t, "Durban, KwaZulu-Natal", result.Stops[0].Name)
}

func TestAggregateNotesTruncation(t *testing.T) {
	invoices := make([]Models.Invoice, 0, 8)
	for i := uint(1); i <= 8; i++ {
		invoices = append(invoices, testInvoice(i, 1, 10, 0, "REF-"+string(rune('0'+i))))
	}
	customers := map[uint]Models.Customer{1: testCustomer(1, "Busy Shop", -26.0, 28.0)}

	aggregator := newTestAggregator(&stubGeocoder{})
	result, err := aggregator.Aggregate(context.Background(), invoices, customers)
	require.NoError(t, err)
	require.Len(t, result.Stops, 1)
	assert.Contains(t, result.Stops[0].Notes, "+3 more")
}

func TestAggregateEmptyInput(t *testing.T) {
	aggregator := newTestAggregator(&stubGeocoder{})
	_, err := aggregator.Aggregate(context.Background(), nil, map[uint]Models.Customer{})
	assert.Error(t, err)
}

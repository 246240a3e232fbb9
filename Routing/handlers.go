package Routing

import (
	"context"
	"log"
	"net/http"
	"time"

	"Kudu/Models"
	"Kudu/Notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoutingHandler wires the resolver, aggregator and composer to the HTTP
// surface and to the invoice/warehouse store.
type RoutingHandler struct {
	DB         *gorm.DB
	Resolver   *AddressResolver
	Aggregator *StopAggregator
	Composer   *RouteComposer
}

func NewRoutingHandler(db *gorm.DB, geocoder Geocoder, router Router) *RoutingHandler {
	resolver := NewAddressResolver(geocoder)
	return &RoutingHandler{
		DB:         db,
		Resolver:   resolver,
		Aggregator: NewStopAggregator(resolver),
		Composer:   NewRouteComposer(router),
	}
}

// Overall budget for one optimization request, geocoding included.
const optimizeTimeout = 2 * time.Minute

type optimizeRequest struct {
	InvoiceIDs    []uint `json:"invoice_ids"`
	WarehouseID   *uint  `json:"warehouse_id"`
	DepotName     string `json:"depot_name"`
	DepotAddress  string `json:"depot_address"`
	DepartureTime string `json:"departure_time"` // RFC 3339, optional
	ReturnToDepot bool   `json:"return_to_depot"`
	OptimizeOrder *bool  `json:"optimize_order"`
	AvoidTolls    bool   `json:"avoid_tolls"`
	AvoidHighways bool   `json:"avoid_highways"`
	LoadID        *uint  `json:"load_id"`
	SaveTripSheet bool   `json:"save_trip_sheet"`
}

type optimizeSummary struct {
	Processed int      `json:"processed"`
	Updated   int      `json:"updated"`
	Failed    int      `json:"failed"`
	Failures  []string `json:"failures,omitempty"`
}

// OptimizeDeliveries is the main orchestration endpoint: selected pending
// invoices are grouped into stops, unresolved stops are geocoded, the route
// is composed, and the invoices are stamped with the outcome. A failed
// optimization call degrades to the unoptimized input order instead of
// failing the whole request.
func (h *RoutingHandler) OptimizeDeliveries(c *fiber.Ctx) error {
	var req optimizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), optimizeTimeout)
	defer cancel()

	// Depot first: every stop and the route itself depend on it.
	depot, err := h.resolveDepot(ctx, req)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not determine depot",
			"error":   err.Error(),
		})
	}

	invoices, err := Models.PendingInvoices(h.DB, req.InvoiceIDs)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to fetch pending invoices",
			"error":   err.Error(),
		})
	}
	if len(invoices) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "No pending invoices selected",
		})
	}

	customers, err := h.loadCustomers(invoices)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to fetch customers",
			"error":   err.Error(),
		})
	}

	aggregated, err := h.Aggregator.Aggregate(ctx, invoices, customers)
	if err != nil {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"message":         err.Error(),
			"skipped_count":   aggregated.SkippedCount,
			"skipped_details": aggregated.SkippedDetails,
		})
	}

	opts := ComposeOptions{
		OptimizeOrder: true,
		ReturnToDepot: req.ReturnToDepot,
		AvoidTolls:    req.AvoidTolls,
		AvoidHighways: req.AvoidHighways,
	}
	if req.OptimizeOrder != nil {
		opts.OptimizeOrder = *req.OptimizeOrder
	}
	if req.DepartureTime != "" {
		parsed, parseErr := time.Parse(time.RFC3339, req.DepartureTime)
		if parseErr != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid departure_time, expected RFC 3339",
				"error":   parseErr.Error(),
			})
		}
		opts.DepartureTime = &parsed
	}

	route := h.Composer.OptimizeDeliveries(ctx, depot, aggregated.Stops, opts)
	if !route.Success {
		// Fall back to the input order with no distances; the upstream
		// message rides along untouched.
		route.Stops = aggregated.Stops
		log.Printf("Route optimization failed, presenting unoptimized order: %s", route.Error)
	}

	batchID := uuid.NewString()
	summary := h.stampInvoices(route.Stops, batchID)

	response := fiber.Map{
		"success":         route.Success,
		"batch_id":        batchID,
		"route":           route,
		"skipped_count":   aggregated.SkippedCount,
		"skipped_details": aggregated.SkippedDetails,
		"summary":         summary,
	}

	if route.Success && req.SaveTripSheet {
		sheet, sheetErr := h.saveTripSheet(route, batchID, req.LoadID)
		if sheetErr != nil {
			log.Printf("Failed to save trip sheet: %v", sheetErr)
			response["trip_sheet_error"] = sheetErr.Error()
		} else {
			response["trip_sheet"] = sheet
			if req.LoadID != nil {
				var load Models.Load
				if h.DB.First(&load, *req.LoadID).Error == nil {
					go Notifications.SendTripSheetReady(h.DB, &load, sheet)
				}
			}
		}
	}

	return c.JSON(response)
}

// resolveDepot picks the depot from an explicit override, a named warehouse,
// or the default warehouse, geocoding its address when no position is stored.
func (h *RoutingHandler) resolveDepot(ctx context.Context, req optimizeRequest) (Depot, error) {
	if req.DepotAddress != "" {
		name := req.DepotName
		if name == "" {
			name = "Depot"
		}
		geocoded := h.Resolver.Resolve(ctx, req.DepotAddress)
		if !geocoded.Success {
			return Depot{}, &depotError{"depot address could not be resolved: " + geocoded.Error}
		}
		return Depot{
			Name:      name,
			Address:   req.DepotAddress,
			Latitude:  geocoded.Latitude,
			Longitude: geocoded.Longitude,
		}, nil
	}

	var warehouse *Models.Warehouse
	var err error
	if req.WarehouseID != nil {
		warehouse = &Models.Warehouse{}
		err = h.DB.First(warehouse, *req.WarehouseID).Error
	} else {
		warehouse, err = Models.DefaultWarehouse(h.DB)
	}
	if err != nil {
		return Depot{}, &depotError{"no active warehouse available"}
	}

	depot := Depot{
		Name:      warehouse.Name,
		Address:   warehouse.Address,
		Latitude:  warehouse.Latitude,
		Longitude: warehouse.Longitude,
	}
	if depot.Latitude == 0 && depot.Longitude == 0 {
		if warehouse.Address == "" {
			return Depot{}, &depotError{"warehouse has no address to resolve"}
		}
		geocoded := h.Resolver.Resolve(ctx, warehouse.Address)
		if !geocoded.Success {
			return Depot{}, &depotError{"warehouse address could not be resolved: " + geocoded.Error}
		}
		depot.Latitude = geocoded.Latitude
		depot.Longitude = geocoded.Longitude

		// Persist so the next request skips the geocoder.
		h.DB.Model(warehouse).Updates(map[string]interface{}{
			"latitude":  geocoded.Latitude,
			"longitude": geocoded.Longitude,
		})
	}
	return depot, nil
}

type depotError struct{ message string }

func (e *depotError) Error() string { return e.message }

func (h *RoutingHandler) loadCustomers(invoices []Models.Invoice) (map[uint]Models.Customer, error) {
	ids := make([]uint, 0, len(invoices))
	seen := make(map[uint]bool)
	for _, inv := range invoices {
		if inv.CustomerID != 0 && !seen[inv.CustomerID] {
			seen[inv.CustomerID] = true
			ids = append(ids, inv.CustomerID)
		}
	}
	customers := make(map[uint]Models.Customer, len(ids))
	if len(ids) == 0 {
		return customers, nil
	}
	var rows []Models.Customer
	if err := h.DB.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		customers[row.ID] = row
	}
	return customers, nil
}

// stampInvoices marks each routed invoice Assigned and records its resolved
// position and visiting sequence. Failures are per-invoice; siblings continue.
func (h *RoutingHandler) stampInvoices(stops []Stop, batchID string) optimizeSummary {
	summary := optimizeSummary{}
	for sequence, stop := range stops {
		for _, invoiceID := range stop.InvoiceIDs {
			summary.Processed++
			updates := map[string]interface{}{
				"status":             Models.InvoiceStatusAssigned,
				"delivery_latitude":  stop.Latitude,
				"delivery_longitude": stop.Longitude,
				"route_sequence":     sequence + 1,
				"route_batch_id":     batchID,
			}
			result := h.DB.Model(&Models.Invoice{}).Where("id = ?", invoiceID).Updates(updates)
			if result.Error != nil {
				summary.Failed++
				summary.Failures = append(summary.Failures, result.Error.Error())
				continue
			}
			summary.Updated++
		}
	}
	return summary
}

func (h *RoutingHandler) saveTripSheet(route OptimizedRoute, batchID string, loadID *uint) (*Models.TripSheet, error) {
	number, err := Models.AllocateNumber(h.DB, "trip_sheet", "TS")
	if err != nil {
		return nil, err
	}

	departure := route.DepartureTime
	sheet := Models.TripSheet{
		TripSheetNo:      number,
		BatchID:          batchID,
		DepotName:        route.Depot.Name,
		DepotAddress:     route.Depot.Address,
		DepotLatitude:    route.Depot.Latitude,
		DepotLongitude:   route.Depot.Longitude,
		TotalDistanceKm:  route.TotalDistanceKm,
		TotalDurationMin: route.TotalDurationMin,
		ReturnToDepot:    route.ReturnToDepot,
		Optimized:        route.Optimized,
		DepartureTime:    &departure,
	}
	if loadID != nil {
		sheet.LoadID = *loadID
	}

	for i, stop := range route.Stops {
		row := Models.TripSheetStop{
			Sequence:           i + 1,
			CustomerName:       stop.Name,
			Address:            stop.Address,
			Latitude:           stop.Latitude,
			Longitude:          stop.Longitude,
			Value:              stop.Value,
			Priority:           stop.Priority,
			ServiceTimeMinutes: stop.ServiceTimeMinutes,
			Notes:              stop.Notes,
			LegDistanceKm:      stop.LegDistanceKm,
			LegDurationMin:     stop.LegDurationMin,
		}
		if stop.CustomerID != nil {
			id := *stop.CustomerID
			row.CustomerID = &id
		}
		sheet.Stops = append(sheet.Stops, row)
	}

	if err := h.DB.Create(&sheet).Error; err != nil {
		return nil, err
	}
	return &sheet, nil
}

type resolveAddressRequest struct {
	Query      string             `json:"query"`
	Structured *StructuredAddress `json:"structured"`
}

// ResolveAddress exposes the resolver directly.
func (h *RoutingHandler) ResolveAddress(c *fiber.Ctx) error {
	var req resolveAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	var result GeocodeResult
	if req.Structured != nil {
		result = h.Resolver.ResolveStructured(ctx, *req.Structured)
	} else {
		result = h.Resolver.Resolve(ctx, req.Query)
	}
	return c.JSON(result)
}

// GeocodeCustomers walks customers missing coordinates and resolves them
// sequentially with the pacing delay, stamping successes back onto the rows.
// The response is always a summary; individual failures never abort the batch.
func (h *RoutingHandler) GeocodeCustomers(c *fiber.Ctx) error {
	var customers []Models.Customer
	if err := h.DB.Where("delivery_latitude = 0 AND delivery_longitude = 0").Find(&customers).Error; err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to fetch customers",
			"error":   err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Minute)
	defer cancel()

	processed := 0
	updated := 0
	var failures []string

	for i, customer := range customers {
		if ctx.Err() != nil {
			failures = append(failures, "batch abandoned: "+ctx.Err().Error())
			break
		}
		processed++

		if i > 0 {
			time.Sleep(h.Aggregator.PacingDelay)
		}

		result := h.Resolver.ResolveStructured(ctx, StructuredAddress{
			Line1:      customer.AddressLine1,
			Line2:      customer.AddressLine2,
			City:       customer.City,
			Province:   customer.Province,
			PostalCode: customer.PostalCode,
			Country:    customer.Country,
		})
		if !result.Success {
			// Second chance: the account name itself often geocodes when
			// the stored address does not.
			result = h.Resolver.Resolve(ctx, customer.Name)
		}
		if !result.Success {
			failures = append(failures, customer.Code+": "+result.Error)
			continue
		}

		updates := map[string]interface{}{
			"delivery_latitude":  result.Latitude,
			"delivery_longitude": result.Longitude,
			"geocode_accuracy":   "geocoded",
		}
		if customer.Province == "" && result.Province != "" {
			updates["province"] = result.Province
		}
		if customer.City == "" && result.City != "" {
			updates["city"] = result.City
		}
		if customer.PostalCode == "" && result.PostalCode != "" {
			updates["postal_code"] = result.PostalCode
		}
		if err := h.DB.Model(&Models.Customer{}).Where("id = ?", customer.ID).Updates(updates).Error; err != nil {
			failures = append(failures, customer.Code+": "+err.Error())
			continue
		}
		updated++
	}

	return c.JSON(fiber.Map{
		"processed": processed,
		"updated":   updated,
		"failed":    len(failures),
		"failures":  failures,
	})
}

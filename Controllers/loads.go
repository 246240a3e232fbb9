package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kudu/Models"
	"Kudu/Notifications"
)

// LoadController handles dispatch loads: creation, assignment, the status
// lifecycle and the on-time delivery report.
type LoadController struct {
	DB *gorm.DB
}

func NewLoadController(db *gorm.DB) *LoadController {
	return &LoadController{DB: db}
}

type createLoadInput struct {
	WarehouseID           uint       `json:"warehouse_id" validate:"required"`
	InvoiceIDs            []uint     `json:"invoice_ids" validate:"required,min=1"`
	ScheduledPickupDate   *time.Time `json:"scheduled_pickup_date"`
	ScheduledDeliveryDate *time.Time `json:"scheduled_delivery_date"`
	Notes                 string     `json:"notes"`
}

// GetLoads lists loads, newest first, optionally filtered by status or driver
func (c *LoadController) GetLoads(ctx *fiber.Ctx) error {
	query := c.DB.Model(&Models.Load{}).Preload("Invoices")
	if raw := ctx.Query("status"); raw != "" {
		status, err := Models.ParseLoadStatus(raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		query = query.Where("status = ?", status)
	}
	if driverID := ctx.Query("driver_id"); driverID != "" {
		query = query.Where("driver_id = ?", driverID)
	}

	var loads []Models.Load
	if err := query.Order("id DESC").Find(&loads).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve loads"})
	}
	return ctx.JSON(loads)
}

// GetLoad retrieves a single load with its invoices and trip sheets
func (c *LoadController) GetLoad(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid load ID"})
	}

	var load Models.Load
	if err := c.DB.Preload("Invoices").Preload("TripSheets.Stops").First(&load, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Load not found"})
	}
	return ctx.JSON(load)
}

// CreateLoad groups pending invoices into a new Available load. The load
// number comes from the sequence allocator.
func (c *LoadController) CreateLoad(ctx *fiber.Ctx) error {
	var input createLoadInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	invoices, err := Models.PendingInvoices(c.DB, input.InvoiceIDs)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load invoices"})
	}
	if len(invoices) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No pending invoices selected"})
	}

	loadNo, err := Models.AllocateNumber(c.DB, "load", "LD")
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to allocate load number"})
	}

	load := Models.Load{
		LoadNo:                loadNo,
		Status:                Models.LoadStatusAvailable,
		WarehouseID:           input.WarehouseID,
		ScheduledPickupDate:   input.ScheduledPickupDate,
		ScheduledDeliveryDate: input.ScheduledDeliveryDate,
		Notes:                 input.Notes,
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&load).Error; err != nil {
			return err
		}
		ids := make([]uint, len(invoices))
		for i, inv := range invoices {
			ids[i] = inv.ID
		}
		return tx.Model(&Models.Invoice{}).Where("id IN ?", ids).
			Updates(map[string]interface{}{"load_id": load.ID, "status": Models.InvoiceStatusAssigned}).Error
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create load"})
	}

	c.DB.Preload("Invoices").First(&load, load.ID)
	return ctx.Status(fiber.StatusCreated).JSON(load)
}

type assignLoadInput struct {
	DriverID  uint `json:"driver_id" validate:"required"`
	VehicleID uint `json:"vehicle_id" validate:"required"`
}

// AssignLoad puts a driver and vehicle on an Available load and notifies the
// driver's device
func (c *LoadController) AssignLoad(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid load ID"})
	}

	var load Models.Load
	if err := c.DB.First(&load, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Load not found"})
	}

	if !load.Status.CanTransitionTo(Models.LoadStatusAssigned) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Load cannot be assigned from status " + string(load.Status),
		})
	}

	var input assignLoadInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var driver Models.Driver
	if err := c.DB.First(&driver, input.DriverID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Driver not found"})
	}
	if !driver.IsActive {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Driver is inactive"})
	}
	var vehicle Models.Vehicle
	if err := c.DB.First(&vehicle, input.VehicleID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}

	load.Status = Models.LoadStatusAssigned
	load.DriverID = &driver.ID
	load.VehicleID = &vehicle.ID
	load.DriverName = driver.Name
	load.RegistrationNo = vehicle.RegistrationNo
	if err := c.DB.Save(&load).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to assign load"})
	}

	go Notifications.SendLoadAssigned(c.DB, &load)

	return ctx.JSON(load)
}

type statusInput struct {
	Status string `json:"status" validate:"required"`
}

// UpdateLoadStatus moves a load through its lifecycle. Illegal transitions
// are rejected with 409.
func (c *LoadController) UpdateLoadStatus(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid load ID"})
	}

	var load Models.Load
	if err := c.DB.First(&load, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Load not found"})
	}

	var input statusInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	target, err := Models.ParseLoadStatus(input.Status)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if !load.Status.CanTransitionTo(target) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot move load from " + string(load.Status) + " to " + string(target),
		})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		load.Status = target
		switch target {
		case Models.LoadStatusDelivered:
			now := time.Now()
			load.DeliveredAt = &now
			if err := tx.Model(&Models.Invoice{}).Where("load_id = ?", load.ID).
				Update("status", Models.InvoiceStatusDelivered).Error; err != nil {
				return err
			}
		case Models.LoadStatusAvailable:
			// Unassignment clears the crew
			load.DriverID = nil
			load.VehicleID = nil
			load.DriverName = ""
			load.RegistrationNo = ""
		case Models.LoadStatusCancelled:
			if err := tx.Model(&Models.Invoice{}).Where("load_id = ?", load.ID).
				Updates(map[string]interface{}{"load_id": nil, "status": Models.InvoiceStatusPending}).Error; err != nil {
				return err
			}
		}
		return tx.Save(&load).Error
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update load status"})
	}

	return ctx.JSON(load)
}

// OnTimeReport summarises delivery punctuality over a date range. A load is
// on time when it was delivered within a day of its scheduled delivery date;
// loads missing either date count as late.
func (c *LoadController) OnTimeReport(ctx *fiber.Ctx) error {
	query := c.DB.Model(&Models.Load{}).Where("status = ?", Models.LoadStatusDelivered)
	if from := ctx.Query("from"); from != "" {
		fromDate, err := time.Parse("2006-01-02", from)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from date, expected YYYY-MM-DD"})
		}
		query = query.Where("delivered_at >= ?", fromDate)
	}
	if to := ctx.Query("to"); to != "" {
		toDate, err := time.Parse("2006-01-02", to)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to date, expected YYYY-MM-DD"})
		}
		query = query.Where("delivered_at < ?", toDate.AddDate(0, 0, 1))
	}

	var loads []Models.Load
	if err := query.Find(&loads).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build report"})
	}

	onTime := 0
	late := make([]fiber.Map, 0)
	for i := range loads {
		if loads[i].DeliveredOnTime() {
			onTime++
			continue
		}
		late = append(late, fiber.Map{
			"load_no":                 loads[i].LoadNo,
			"driver_name":             loads[i].DriverName,
			"scheduled_delivery_date": loads[i].ScheduledDeliveryDate,
			"delivered_at":            loads[i].DeliveredAt,
		})
	}

	percent := 0.0
	if len(loads) > 0 {
		percent = float64(onTime) / float64(len(loads)) * 100
	}
	return ctx.JSON(fiber.Map{
		"total_delivered": len(loads),
		"on_time":         onTime,
		"late":            len(late),
		"on_time_percent": percent,
		"late_loads":      late,
	})
}

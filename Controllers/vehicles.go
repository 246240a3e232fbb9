package Controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kudu/Models"
)

// VehicleController handles vehicle-related API endpoints
type VehicleController struct {
	DB *gorm.DB
}

func NewVehicleController(db *gorm.DB) *VehicleController {
	return &VehicleController{DB: db}
}

type vehicleInput struct {
	RegistrationNo        string `json:"registration_no" validate:"required"`
	Make                  string `json:"make"`
	VehicleModel          string `json:"vehicle_model"`
	VehicleType           string `json:"vehicle_type" validate:"omitempty,oneof=Rigid Link Bakkie"`
	CapacityKg            int    `json:"capacity_kg" validate:"min=0"`
	LicenseExpirationDate string `json:"license_expiration_date"`
	Transporter           string `json:"transporter"`
	TrackingUnitID        string `json:"tracking_unit_id"`
	FuelCardNo            string `json:"fuel_card_no"`
}

// GetVehicles retrieves all vehicles
func (c *VehicleController) GetVehicles(ctx *fiber.Ctx) error {
	var vehicles []Models.Vehicle
	if err := c.DB.Order("registration_no").Find(&vehicles).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve vehicles"})
	}
	return ctx.JSON(vehicles)
}

// GetVehicle retrieves a single vehicle by ID
func (c *VehicleController) GetVehicle(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}

	var vehicle Models.Vehicle
	if err := c.DB.First(&vehicle, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}
	return ctx.JSON(vehicle)
}

// GetVehiclePositions returns the last synced position for every tracked
// vehicle, for the live map
func (c *VehicleController) GetVehiclePositions(ctx *fiber.Ctx) error {
	var vehicles []Models.Vehicle
	err := c.DB.Where("tracking_unit_id <> ''").
		Select("id", "registration_no", "last_latitude", "last_longitude", "last_speed", "last_ignition", "last_seen_at").
		Find(&vehicles).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve positions"})
	}
	return ctx.JSON(vehicles)
}

// CreateVehicle creates a new vehicle
func (c *VehicleController) CreateVehicle(ctx *fiber.Ctx) error {
	var input vehicleInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	vehicle := Models.Vehicle{
		RegistrationNo:        strings.ToUpper(strings.TrimSpace(input.RegistrationNo)),
		Make:                  input.Make,
		VehicleModel:          input.VehicleModel,
		VehicleType:           input.VehicleType,
		CapacityKg:            input.CapacityKg,
		LicenseExpirationDate: input.LicenseExpirationDate,
		Transporter:           input.Transporter,
		TrackingUnitID:        input.TrackingUnitID,
		FuelCardNo:            input.FuelCardNo,
	}

	if err := c.DB.Create(&vehicle).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A vehicle with this registration already exists",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create vehicle"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(vehicle)
}

// UpdateVehicle updates an existing vehicle
func (c *VehicleController) UpdateVehicle(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}

	var vehicle Models.Vehicle
	if err := c.DB.First(&vehicle, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}

	var input vehicleInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	vehicle.RegistrationNo = strings.ToUpper(strings.TrimSpace(input.RegistrationNo))
	vehicle.Make = input.Make
	vehicle.VehicleModel = input.VehicleModel
	vehicle.VehicleType = input.VehicleType
	vehicle.CapacityKg = input.CapacityKg
	vehicle.LicenseExpirationDate = input.LicenseExpirationDate
	vehicle.Transporter = input.Transporter
	vehicle.TrackingUnitID = input.TrackingUnitID
	vehicle.FuelCardNo = input.FuelCardNo

	if err := c.DB.Save(&vehicle).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update vehicle"})
	}
	return ctx.JSON(vehicle)
}

// DeleteVehicle soft deletes a vehicle
func (c *VehicleController) DeleteVehicle(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}

	var vehicle Models.Vehicle
	if err := c.DB.First(&vehicle, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}

	var openLoads int64
	c.DB.Model(&Models.Load{}).
		Where("vehicle_id = ? AND status IN ?", vehicle.ID, []Models.LoadStatus{Models.LoadStatusAssigned, Models.LoadStatusInTransit}).
		Count(&openLoads)
	if openLoads > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Vehicle has open loads and cannot be deleted",
		})
	}

	if err := c.DB.Delete(&vehicle).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete vehicle"})
	}
	return ctx.JSON(fiber.Map{"message": "Vehicle deleted successfully"})
}

package Controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kudu/Models"
)

// DriverController handles driver-related API endpoints
type DriverController struct {
	DB *gorm.DB
}

func NewDriverController(db *gorm.DB) *DriverController {
	return &DriverController{DB: db}
}

type driverInput struct {
	Name                  string `json:"name" validate:"required"`
	IDNumber              string `json:"id_number" validate:"required"`
	MobileNumber          string `json:"mobile_number"`
	LicenseCode           string `json:"license_code"`
	LicenseExpirationDate string `json:"license_expiration_date"`
	PrDPExpirationDate    string `json:"prdp_expiration_date"`
	Transporter           string `json:"transporter"`
}

// GetDrivers retrieves all drivers, active ones first
func (c *DriverController) GetDrivers(ctx *fiber.Ctx) error {
	query := c.DB.Model(&Models.Driver{})
	if ctx.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var drivers []Models.Driver
	if err := query.Order("is_active DESC, name").Find(&drivers).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve drivers"})
	}
	return ctx.JSON(drivers)
}

// GetDriver retrieves a single driver by ID
func (c *DriverController) GetDriver(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid driver ID"})
	}

	var driver Models.Driver
	if err := c.DB.First(&driver, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Driver not found"})
	}
	return ctx.JSON(driver)
}

// CreateDriver creates a new driver
func (c *DriverController) CreateDriver(ctx *fiber.Ctx) error {
	var input driverInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	driver := Models.Driver{
		Name:                  strings.TrimSpace(input.Name),
		IDNumber:              strings.TrimSpace(input.IDNumber),
		MobileNumber:          input.MobileNumber,
		LicenseCode:           input.LicenseCode,
		LicenseExpirationDate: input.LicenseExpirationDate,
		PrDPExpirationDate:    input.PrDPExpirationDate,
		Transporter:           input.Transporter,
		IsActive:              true,
	}

	if err := c.DB.Create(&driver).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A driver with this ID number already exists",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create driver"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(driver)
}

// UpdateDriver updates an existing driver
func (c *DriverController) UpdateDriver(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid driver ID"})
	}

	var driver Models.Driver
	if err := c.DB.First(&driver, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Driver not found"})
	}

	var input driverInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	driver.Name = strings.TrimSpace(input.Name)
	driver.IDNumber = strings.TrimSpace(input.IDNumber)
	driver.MobileNumber = input.MobileNumber
	driver.LicenseCode = input.LicenseCode
	driver.LicenseExpirationDate = input.LicenseExpirationDate
	driver.PrDPExpirationDate = input.PrDPExpirationDate
	driver.Transporter = input.Transporter

	if err := c.DB.Save(&driver).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update driver"})
	}
	return ctx.JSON(driver)
}

// DeactivateDriver marks a driver inactive instead of deleting the row, so
// historical loads keep their reference
func (c *DriverController) DeactivateDriver(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid driver ID"})
	}

	var driver Models.Driver
	if err := c.DB.First(&driver, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Driver not found"})
	}

	var openLoads int64
	c.DB.Model(&Models.Load{}).
		Where("driver_id = ? AND status IN ?", driver.ID, []Models.LoadStatus{Models.LoadStatusAssigned, Models.LoadStatusInTransit}).
		Count(&openLoads)
	if openLoads > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Driver has open loads and cannot be deactivated",
		})
	}

	driver.IsActive = false
	if err := c.DB.Save(&driver).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate driver"})
	}
	return ctx.JSON(driver)
}

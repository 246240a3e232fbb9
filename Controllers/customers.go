package Controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kudu/Models"
)

// CustomerController handles customer-related API endpoints
type CustomerController struct {
	DB *gorm.DB
}

func NewCustomerController(db *gorm.DB) *CustomerController {
	return &CustomerController{DB: db}
}

type customerInput struct {
	Code         string `json:"code" validate:"required"`
	Name         string `json:"name" validate:"required"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	Email        string `json:"email" validate:"omitempty,email"`

	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	Province     string `json:"province"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`

	DeliveryLatitude  float64 `json:"delivery_latitude"`
	DeliveryLongitude float64 `json:"delivery_longitude"`
	OnHold            bool    `json:"on_hold"`
}

// GetCustomers retrieves all customers, optionally filtered by province or a
// name/code search term
func (c *CustomerController) GetCustomers(ctx *fiber.Ctx) error {
	query := c.DB.Model(&Models.Customer{})
	if province := ctx.Query("province"); province != "" {
		query = query.Where("province = ?", province)
	}
	if search := ctx.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", like, like)
	}
	if ctx.Query("missing_coords") == "true" {
		query = query.Where("delivery_latitude = 0 AND delivery_longitude = 0")
	}

	var customers []Models.Customer
	if err := query.Order("name").Find(&customers).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve customers"})
	}
	return ctx.JSON(customers)
}

// GetCustomer retrieves a single customer by ID
func (c *CustomerController) GetCustomer(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}

	var customer Models.Customer
	if err := c.DB.First(&customer, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}
	return ctx.JSON(customer)
}

// CreateCustomer creates a new customer
func (c *CustomerController) CreateCustomer(ctx *fiber.Ctx) error {
	var input customerInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	customer := Models.Customer{
		Code:              strings.TrimSpace(input.Code),
		Name:              strings.TrimSpace(input.Name),
		ContactName:       input.ContactName,
		ContactPhone:      input.ContactPhone,
		Email:             input.Email,
		AddressLine1:      input.AddressLine1,
		AddressLine2:      input.AddressLine2,
		City:              input.City,
		Province:          input.Province,
		PostalCode:        input.PostalCode,
		Country:           input.Country,
		DeliveryLatitude:  input.DeliveryLatitude,
		DeliveryLongitude: input.DeliveryLongitude,
		OnHold:            input.OnHold,
	}

	if err := c.DB.Create(&customer).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A customer with this code already exists",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create customer"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(customer)
}

// UpdateCustomer updates an existing customer. Changing the address clears
// the stored coordinates so the next optimization geocodes afresh.
func (c *CustomerController) UpdateCustomer(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}

	var customer Models.Customer
	if err := c.DB.First(&customer, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	var input customerInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	addressChanged := input.AddressLine1 != customer.AddressLine1 ||
		input.AddressLine2 != customer.AddressLine2 ||
		input.City != customer.City ||
		input.Province != customer.Province ||
		input.PostalCode != customer.PostalCode

	customer.Code = strings.TrimSpace(input.Code)
	customer.Name = strings.TrimSpace(input.Name)
	customer.ContactName = input.ContactName
	customer.ContactPhone = input.ContactPhone
	customer.Email = input.Email
	customer.AddressLine1 = input.AddressLine1
	customer.AddressLine2 = input.AddressLine2
	customer.City = input.City
	customer.Province = input.Province
	customer.PostalCode = input.PostalCode
	customer.Country = input.Country
	customer.OnHold = input.OnHold

	if input.DeliveryLatitude != 0 || input.DeliveryLongitude != 0 {
		customer.DeliveryLatitude = input.DeliveryLatitude
		customer.DeliveryLongitude = input.DeliveryLongitude
		customer.GeocodeAccuracy = "manual"
	} else if addressChanged {
		customer.DeliveryLatitude = 0
		customer.DeliveryLongitude = 0
		customer.GeocodeAccuracy = ""
	}

	if err := c.DB.Save(&customer).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update customer"})
	}
	return ctx.JSON(customer)
}

// DeleteCustomer soft deletes a customer
func (c *CustomerController) DeleteCustomer(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}

	var customer Models.Customer
	if err := c.DB.First(&customer, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	var openInvoices int64
	c.DB.Model(&Models.Invoice{}).
		Where("customer_id = ? AND status IN ?", customer.ID, []string{Models.InvoiceStatusPending, Models.InvoiceStatusAssigned}).
		Count(&openInvoices)
	if openInvoices > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Customer has open invoices and cannot be deleted",
		})
	}

	if err := c.DB.Delete(&customer).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete customer"})
	}
	return ctx.JSON(fiber.Map{"message": "Customer deleted successfully"})
}

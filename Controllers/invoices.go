package Controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kudu/Models"
)

// InvoiceController handles invoice-related API endpoints
type InvoiceController struct {
	DB *gorm.DB
}

func NewInvoiceController(db *gorm.DB) *InvoiceController {
	return &InvoiceController{DB: db}
}

type invoiceInput struct {
	InvoiceNo   string  `json:"invoice_no" validate:"required"`
	ReferenceNo string  `json:"reference_no"`
	CustomerID  uint    `json:"customer_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"min=0"`
	Returns     float64 `json:"returns" validate:"min=0"`
}

// GetInvoices lists invoices, optionally filtered by status, customer or load
func (c *InvoiceController) GetInvoices(ctx *fiber.Ctx) error {
	query := c.DB.Model(&Models.Invoice{})
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := ctx.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if loadID := ctx.Query("load_id"); loadID != "" {
		query = query.Where("load_id = ?", loadID)
	}

	var invoices []Models.Invoice
	if err := query.Order("id DESC").Find(&invoices).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve invoices"})
	}
	return ctx.JSON(invoices)
}

// GetPendingInvoices lists the invoices available for a new optimization run
func (c *InvoiceController) GetPendingInvoices(ctx *fiber.Ctx) error {
	invoices, err := Models.PendingInvoices(c.DB, nil)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve invoices"})
	}
	return ctx.JSON(invoices)
}

// GetInvoice retrieves a single invoice by ID
func (c *InvoiceController) GetInvoice(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	var invoice Models.Invoice
	if err := c.DB.First(&invoice, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice not found"})
	}
	return ctx.JSON(invoice)
}

// CreateInvoice creates a new pending invoice. Customer name and address
// details are denormalized onto the row at creation time.
func (c *InvoiceController) CreateInvoice(ctx *fiber.Ctx) error {
	var input invoiceInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var customer Models.Customer
	if err := c.DB.First(&customer, input.CustomerID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}
	if customer.OnHold {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Customer account is on hold"})
	}

	invoice := Models.Invoice{
		InvoiceNo:    strings.TrimSpace(input.InvoiceNo),
		ReferenceNo:  input.ReferenceNo,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		City:         customer.City,
		Province:     customer.Province,
		Address:      customer.FullAddress(),
		Amount:       input.Amount,
		Returns:      input.Returns,
		Status:       Models.InvoiceStatusPending,
	}

	if err := c.DB.Create(&invoice).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "An invoice with this number already exists",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create invoice"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(invoice)
}

// UpdateInvoice updates amounts and reference on a pending invoice. Assigned
// and delivered invoices are frozen.
func (c *InvoiceController) UpdateInvoice(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	var invoice Models.Invoice
	if err := c.DB.First(&invoice, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice not found"})
	}
	if invoice.Status != Models.InvoiceStatusPending {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Only pending invoices can be edited",
		})
	}

	var input invoiceInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	invoice.InvoiceNo = strings.TrimSpace(input.InvoiceNo)
	invoice.ReferenceNo = input.ReferenceNo
	invoice.Amount = input.Amount
	invoice.Returns = input.Returns

	if err := c.DB.Save(&invoice).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update invoice"})
	}
	return ctx.JSON(invoice)
}

// CancelInvoice marks a pending invoice cancelled
func (c *InvoiceController) CancelInvoice(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	var invoice Models.Invoice
	if err := c.DB.First(&invoice, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice not found"})
	}
	if invoice.Status != Models.InvoiceStatusPending {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Only pending invoices can be cancelled",
		})
	}

	invoice.Status = Models.InvoiceStatusCancelled
	if err := c.DB.Save(&invoice).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel invoice"})
	}
	return ctx.JSON(invoice)
}

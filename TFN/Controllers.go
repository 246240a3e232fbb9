package TFN

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kudu/Models"
)

// Handler exposes fuel transactions and manual imports over the API
type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// ImportNow runs one import on demand
func (h *Handler) ImportNow(ctx *fiber.Ctx) error {
	result, err := RunImport(h.DB)
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Fuel import failed: " + err.Error(),
		})
	}
	return ctx.JSON(result)
}

// GetTransactions lists fuel transactions, optionally filtered by vehicle or
// date range
func (h *Handler) GetTransactions(ctx *fiber.Ctx) error {
	query := h.DB.Model(&Models.FuelTransaction{})
	if vehicleID := ctx.Query("vehicle_id"); vehicleID != "" {
		query = query.Where("vehicle_id = ?", vehicleID)
	}
	if from := ctx.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := ctx.Query("to"); to != "" {
		query = query.Where("date <= ?", to+" 23:59:59")
	}

	var transactions []Models.FuelTransaction
	if err := query.Order("date DESC").Limit(500).Find(&transactions).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve transactions"})
	}
	return ctx.JSON(transactions)
}

// GetVehicleConsumption summarises litres and spend per vehicle over a month
func (h *Handler) GetVehicleConsumption(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}

	month := ctx.Query("month", time.Now().Format("2006-01"))
	if _, err := time.Parse("2006-01", month); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid month, expected YYYY-MM"})
	}

	var transactions []Models.FuelTransaction
	err = h.DB.Where("vehicle_id = ? AND date LIKE ?", id, month+"%").
		Order("date").Find(&transactions).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve transactions"})
	}

	var litres, amount float64
	for _, transaction := range transactions {
		litres += transaction.Litres
		amount += transaction.Amount
	}

	return ctx.JSON(fiber.Map{
		"vehicle_id":   id,
		"month":        month,
		"transactions": len(transactions),
		"litres":       litres,
		"amount":       amount,
	})
}

// LinkFuelCard creates or re-points a fuel card at a vehicle
func (h *Handler) LinkFuelCard(ctx *fiber.Ctx) error {
	var input struct {
		CardNo    string `json:"card_no"`
		VehicleID uint   `json:"vehicle_id"`
	}
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.CardNo == "" || input.VehicleID == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "card_no and vehicle_id are required"})
	}

	var vehicle Models.Vehicle
	if err := h.DB.First(&vehicle, input.VehicleID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}

	var card Models.FuelCard
	err := h.DB.Where("card_no = ?", input.CardNo).First(&card).Error
	if err == gorm.ErrRecordNotFound {
		card = Models.FuelCard{CardNo: input.CardNo, IsActive: true}
	} else if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to look up card"})
	}

	card.VehicleID = &vehicle.ID
	card.RegistrationNo = vehicle.RegistrationNo
	if err := h.DB.Save(&card).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save card"})
	}

	h.DB.Model(&vehicle).Update("fuel_card_no", card.CardNo)
	return ctx.JSON(card)
}

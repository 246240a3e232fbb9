package Controllers

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"Kudu/Models"
)

// TripSheetController serves generated trip sheets: JSON, a printable HTML
// view and an Excel download for riders without the app.
type TripSheetController struct {
	DB *gorm.DB
}

func NewTripSheetController(db *gorm.DB) *TripSheetController {
	return &TripSheetController{DB: db}
}

// GetTripSheets lists trip sheets, newest first
func (c *TripSheetController) GetTripSheets(ctx *fiber.Ctx) error {
	query := c.DB.Model(&Models.TripSheet{})
	if loadID := ctx.Query("load_id"); loadID != "" {
		query = query.Where("load_id = ?", loadID)
	}

	var sheets []Models.TripSheet
	if err := query.Order("id DESC").Limit(100).Find(&sheets).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve trip sheets"})
	}
	return ctx.JSON(sheets)
}

// GetTripSheet retrieves a trip sheet with its stops in visiting order
func (c *TripSheetController) GetTripSheet(ctx *fiber.Ctx) error {
	sheet, status, err := c.loadSheet(ctx)
	if err != nil {
		return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(sheet)
}

// RenderTripSheet renders the printable HTML view
func (c *TripSheetController) RenderTripSheet(ctx *fiber.Ctx) error {
	sheet, status, err := c.loadSheet(ctx)
	if err != nil {
		return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Render("tripsheet", fiber.Map{
		"Sheet": sheet,
	})
}

// ExportTripSheet streams the trip sheet as an Excel workbook
func (c *TripSheetController) ExportTripSheet(ctx *fiber.Ctx) error {
	sheet, status, err := c.loadSheet(ctx)
	if err != nil {
		return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	file := excelize.NewFile()
	defer file.Close()

	const tab = "Trip Sheet"
	index, err := file.NewSheet(tab)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build workbook"})
	}
	file.SetActiveSheet(index)
	file.DeleteSheet("Sheet1")

	header := map[string]interface{}{
		"A1": "Trip Sheet", "B1": sheet.TripSheetNo,
		"A2": "Depot", "B2": sheet.DepotName,
		"A3": "Total Distance (km)", "B3": sheet.TotalDistanceKm,
		"A4": "Total Duration (min)", "B4": sheet.TotalDurationMin,

		"A6": "Seq", "B6": "Customer", "C6": "Address", "D6": "Value",
		"E6": "Priority", "F6": "Service (min)", "G6": "Leg (km)", "H6": "Leg (min)", "I6": "Notes",
	}
	for cell, value := range header {
		file.SetCellValue(tab, cell, value)
	}

	for i, stop := range sheet.Stops {
		row := i + 7
		file.SetCellValue(tab, fmt.Sprintf("A%d", row), stop.Sequence)
		file.SetCellValue(tab, fmt.Sprintf("B%d", row), stop.CustomerName)
		file.SetCellValue(tab, fmt.Sprintf("C%d", row), stop.Address)
		file.SetCellValue(tab, fmt.Sprintf("D%d", row), stop.Value)
		file.SetCellValue(tab, fmt.Sprintf("E%d", row), stop.Priority)
		file.SetCellValue(tab, fmt.Sprintf("F%d", row), stop.ServiceTimeMinutes)
		file.SetCellValue(tab, fmt.Sprintf("G%d", row), stop.LegDistanceKm)
		file.SetCellValue(tab, fmt.Sprintf("H%d", row), stop.LegDurationMin)
		file.SetCellValue(tab, fmt.Sprintf("I%d", row), stop.Notes)
	}
	file.SetColWidth(tab, "B", "C", 35)
	file.SetColWidth(tab, "I", "I", 45)

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write workbook"})
	}

	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.xlsx"`, sheet.TripSheetNo))
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return ctx.Send(buffer.Bytes())
}

func (c *TripSheetController) loadSheet(ctx *fiber.Ctx) (*Models.TripSheet, int, error) {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return nil, fiber.StatusBadRequest, fmt.Errorf("invalid trip sheet ID")
	}

	var sheet Models.TripSheet
	err = c.DB.Preload("Stops", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence")
	}).First(&sheet, id).Error
	if err != nil {
		return nil, fiber.StatusNotFound, fmt.Errorf("trip sheet not found")
	}
	return &sheet, fiber.StatusOK, nil
}

package Controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"Kudu/Models"
)

// WarehouseController handles warehouses and SOH (stock on hand) imports
type WarehouseController struct {
	DB *gorm.DB
}

func NewWarehouseController(db *gorm.DB) *WarehouseController {
	return &WarehouseController{DB: db}
}

type warehouseInput struct {
	Name      string  `json:"name" validate:"required"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Province  string  `json:"province"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsDefault bool    `json:"is_default"`
}

// GetWarehouses retrieves all warehouses
func (c *WarehouseController) GetWarehouses(ctx *fiber.Ctx) error {
	var warehouses []Models.Warehouse
	if err := c.DB.Order("is_default DESC, name").Find(&warehouses).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve warehouses"})
	}
	return ctx.JSON(warehouses)
}

// CreateWarehouse creates a new warehouse. Marking it default clears the flag
// on every other warehouse.
func (c *WarehouseController) CreateWarehouse(ctx *fiber.Ctx) error {
	var input warehouseInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	warehouse := Models.Warehouse{
		Name:      strings.TrimSpace(input.Name),
		Address:   input.Address,
		City:      input.City,
		Province:  input.Province,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		IsActive:  true,
		IsDefault: input.IsDefault,
	}

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if warehouse.IsDefault {
			if err := tx.Model(&Models.Warehouse{}).Where("is_default = ?", true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&warehouse).Error
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A warehouse with this name already exists",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create warehouse"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(warehouse)
}

// UpdateWarehouse updates an existing warehouse
func (c *WarehouseController) UpdateWarehouse(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid warehouse ID"})
	}

	var warehouse Models.Warehouse
	if err := c.DB.First(&warehouse, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Warehouse not found"})
	}

	var input warehouseInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	warehouse.Name = strings.TrimSpace(input.Name)
	warehouse.Address = input.Address
	warehouse.City = input.City
	warehouse.Province = input.Province
	warehouse.Latitude = input.Latitude
	warehouse.Longitude = input.Longitude

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if input.IsDefault && !warehouse.IsDefault {
			if err := tx.Model(&Models.Warehouse{}).Where("is_default = ?", true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		warehouse.IsDefault = input.IsDefault
		return tx.Save(&warehouse).Error
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update warehouse"})
	}
	return ctx.JSON(warehouse)
}

// ImportStock ingests an SOH spreadsheet for a warehouse. Expected columns:
// Item Code, Description, Qty On Hand, Unit Cost, Bin. The first row is a
// header and is skipped.
func (c *WarehouseController) ImportStock(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid warehouse ID"})
	}

	var warehouse Models.Warehouse
	if err := c.DB.First(&warehouse, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Warehouse not found"})
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Could not open uploaded file"})
	}
	defer file.Close()

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File is not a valid spreadsheet"})
	}
	defer workbook.Close()

	sheetName := workbook.GetSheetName(0)
	rows, err := workbook.GetRows(sheetName)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Could not read sheet " + sheetName})
	}
	if len(rows) < 2 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Spreadsheet has no data rows"})
	}

	snapshot := Models.StockSnapshot{
		WarehouseID: warehouse.ID,
		BatchID:     uuid.NewString(),
		SourceFile:  fileHeader.Filename,
		TakenAt:     time.Now(),
	}

	skipped := 0
	for _, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		item := Models.StockItem{ItemCode: strings.TrimSpace(row[0])}
		if len(row) > 1 {
			item.Description = row[1]
		}
		if len(row) > 2 {
			qty, err := strconv.ParseFloat(strings.ReplaceAll(row[2], ",", ""), 64)
			if err != nil {
				skipped++
				continue
			}
			item.QtyOnHand = qty
		}
		if len(row) > 3 {
			if cost, err := strconv.ParseFloat(strings.ReplaceAll(row[3], ",", ""), 64); err == nil {
				item.UnitCost = cost
			}
		}
		if len(row) > 4 {
			item.BinNo = row[4]
		}
		snapshot.Items = append(snapshot.Items, item)
	}
	snapshot.LineCount = len(snapshot.Items)

	if snapshot.LineCount == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No usable stock lines found"})
	}
	if err := c.DB.Create(&snapshot).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save stock snapshot"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"batch_id": snapshot.BatchID,
		"imported": snapshot.LineCount,
		"skipped":  skipped,
	})
}

// GetStockSnapshot returns the latest SOH snapshot for a warehouse
func (c *WarehouseController) GetStockSnapshot(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid warehouse ID"})
	}

	var snapshot Models.StockSnapshot
	err = c.DB.Preload("Items").Where("warehouse_id = ?", id).Order("id DESC").First(&snapshot).Error
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No stock snapshot for this warehouse"})
	}
	return ctx.JSON(snapshot)
}

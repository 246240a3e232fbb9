package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Kudu/Models"
)

// LogController serves the persisted request logs to administrators
type LogController struct {
	DB *gorm.DB
}

func NewLogController(db *gorm.DB) *LogController {
	return &LogController{DB: db}
}

// GetLogs retrieves request logs with pagination and filtering. Defaults to
// today's traffic.
func (c *LogController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(ctx.Query("page_size", "50"))
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	query := c.DB.Model(&Models.RequestLog{})

	from := ctx.Query("date_from")
	to := ctx.Query("date_to")
	if from == "" && to == "" {
		now := time.Now()
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		query = query.Where("created_at >= ?", start)
	} else {
		if from != "" {
			fromDate, err := time.Parse("2006-01-02", from)
			if err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date_from, expected YYYY-MM-DD"})
			}
			query = query.Where("created_at >= ?", fromDate)
		}
		if to != "" {
			toDate, err := time.Parse("2006-01-02", to)
			if err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date_to, expected YYYY-MM-DD"})
			}
			query = query.Where("created_at < ?", toDate.AddDate(0, 0, 1))
		}
	}

	if path := ctx.Query("path"); path != "" {
		query = query.Where("path LIKE ?", path+"%")
	}
	if method := ctx.Query("method"); method != "" {
		query = query.Where("method = ?", method)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var logs []Models.RequestLog
	err := query.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve logs"})
	}

	return ctx.JSON(fiber.Map{
		"logs":        logs,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetLogStats summarises traffic per path over the last day
func (c *LogController) GetLogStats(ctx *fiber.Ctx) error {
	type pathStat struct {
		Path       string  `json:"path"`
		Method     string  `json:"method"`
		Count      int64   `json:"count"`
		AvgLatency float64 `json:"avg_latency_ms"`
		MaxLatency int64   `json:"max_latency_ms"`
		Errors     int64   `json:"errors"`
	}

	var stats []pathStat
	err := c.DB.Model(&Models.RequestLog{}).
		Select("path, method, COUNT(*) as count, AVG(latency_ms) as avg_latency, MAX(latency_ms) as max_latency, SUM(CASE WHEN status >= 400 THEN 1 ELSE 0 END) as errors").
		Where("created_at >= ?", time.Now().Add(-24*time.Hour)).
		Group("path, method").
		Order("count DESC").
		Scan(&stats).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build log stats"})
	}
	return ctx.JSON(stats)
}

package CarTrack

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Handler exposes manual sync over the API
type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// SyncNow runs one synchronisation on demand, for the dispatcher's refresh
// button
func (h *Handler) SyncNow(ctx *fiber.Ctx) error {
	result, err := RunSync(h.DB)
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Tracking sync failed: " + err.Error(),
		})
	}
	return ctx.JSON(result)
}

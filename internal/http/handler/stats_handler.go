package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dbids-ops/dbids-console/internal/usecase"
)

type StatsHandler struct {
	statsUsecase *usecase.StatsUsecase
}

func NewStatsHandler(statsUsecase *usecase.StatsUsecase) *StatsHandler {
	return &StatsHandler{statsUsecase: statsUsecase}
}

func (h *StatsHandler) Register(app *fiber.App) {
	app.Get("/console/stats", h.Collect)
}

// Collect returns both aggregate views for the date range. A degraded
// result (both summary and fallback failed) still renders; the error field
// drives a non-blocking indicator in the shell.
func (h *StatsHandler) Collect(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")

	stats, err := h.statsUsecase.Collect(c.Context(), from, to)
	body := fiber.Map{"stats": stats}
	if err != nil {
		body["error"] = "statistics are incomplete; backend unavailable"
	}
	return c.JSON(body)
}

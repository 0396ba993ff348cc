package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dbids-ops/dbids-console/entity"
	"github.com/dbids-ops/dbids-console/internal/usecase"
)

type SettingsHandler struct {
	settingsUsecase *usecase.SettingsUsecase
}

func NewSettingsHandler(settingsUsecase *usecase.SettingsUsecase) *SettingsHandler {
	return &SettingsHandler{settingsUsecase: settingsUsecase}
}

func (h *SettingsHandler) Register(app *fiber.App) {
	app.Get("/console/settings/alerts", h.Load)
	app.Patch("/console/settings/alerts", h.Save)
}

// Load prefills the form. A backend failure is not fatal here; the form
// stays usable with empty values.
func (h *SettingsHandler) Load(c *fiber.Ctx) error {
	settings, err := h.settingsUsecase.Load(c.Context())
	if err != nil {
		return c.JSON(fiber.Map{
			"settings": entity.AlertSettings{},
			"error":    "prefill unavailable",
		})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (h *SettingsHandler) Save(c *fiber.Ctx) error {
	var settings entity.AlertSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	if err := h.settingsUsecase.Save(c.Context(), settings); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

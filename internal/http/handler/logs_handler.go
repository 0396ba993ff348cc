package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/dbids-ops/dbids-console/entity"
	"github.com/dbids-ops/dbids-console/internal/repository/dbids"
	"github.com/dbids-ops/dbids-console/internal/usecase"
)

// LogExporter downloads the CSV export for a filter set.
type LogExporter interface {
	ExportLogs(ctx context.Context, req entity.PageRequest) (*dbids.ExportFile, error)
}

// LogsHandler exposes the query-log controller to the browser shell. Each
// controller operation is one endpoint; GET / returns the current snapshot.
type LogsHandler struct {
	pager    *usecase.Pager[entity.QueryLogRow]
	exporter LogExporter
}

func NewLogsHandler(pager *usecase.Pager[entity.QueryLogRow], exporter LogExporter) *LogsHandler {
	return &LogsHandler{
		pager:    pager,
		exporter: exporter,
	}
}

func (h *LogsHandler) Register(app *fiber.App) {
	group := app.Group("/console/logs")
	group.Get("/", h.View)
	group.Get("/export", h.Export)
	group.Post("/refresh", h.Refresh)
	group.Post("/filter", h.SetFilter)
	group.Post("/sort", h.SetSort)
	group.Post("/page", h.GoToPage)
	group.Post("/size", h.SetSize)
	group.Post("/expand", h.ToggleExpand)
	group.Post("/auto-refresh", h.SetAutoRefresh)
}

func (h *LogsHandler) View(c *fiber.Ctx) error {
	return c.JSON(h.pager.View())
}

func (h *LogsHandler) Refresh(c *fiber.Ctx) error {
	h.pager.Refresh(c.Context())
	return c.JSON(h.pager.View())
}

func (h *LogsHandler) SetFilter(c *fiber.Ctx) error {
	var body struct {
		Name   string   `json:"name"`
		Value  string   `json:"value"`
		Values []string `json:"values"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid filter"})
	}

	if body.Values != nil {
		h.pager.SetFilterValues(body.Name, body.Values)
	} else {
		h.pager.SetFilter(body.Name, body.Value)
	}
	// The fetch is debounced; the shell polls the view for the result.
	return c.Status(fiber.StatusAccepted).JSON(h.pager.View())
}

func (h *LogsHandler) SetSort(c *fiber.Ctx) error {
	var body struct {
		Field string `json:"field"`
	}
	if err := c.BodyParser(&body); err != nil || body.Field == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid sort field"})
	}
	h.pager.SetSort(c.Context(), body.Field)
	return c.JSON(h.pager.View())
}

func (h *LogsHandler) GoToPage(c *fiber.Ctx) error {
	var body struct {
		Page int `json:"page"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid page"})
	}
	h.pager.GoToPage(c.Context(), body.Page)
	return c.JSON(h.pager.View())
}

func (h *LogsHandler) SetSize(c *fiber.Ctx) error {
	var body struct {
		Size int `json:"size"`
	}
	if err := c.BodyParser(&body); err != nil || body.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid size"})
	}
	h.pager.SetSize(body.Size)
	return c.Status(fiber.StatusAccepted).JSON(h.pager.View())
}

func (h *LogsHandler) ToggleExpand(c *fiber.Ctx) error {
	var body struct {
		ID string `json:"id"`
	}
	if err := c.BodyParser(&body); err != nil || body.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid row id"})
	}
	h.pager.ToggleExpand(body.ID)
	return c.JSON(h.pager.View())
}

func (h *LogsHandler) SetAutoRefresh(c *fiber.Ctx) error {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid body"})
	}
	h.pager.SetAutoRefresh(body.Enabled)
	return c.JSON(h.pager.View())
}

// Export downloads the CSV for the controller's current filters and sort.
// This is a one-shot user action, so unlike the polled view it fails loudly.
func (h *LogsHandler) Export(c *fiber.Ctx) error {
	file, err := h.exporter.ExportLogs(c.Context(), h.pager.Request())
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.Name+`"`)
	return c.Send(file.Data)
}

package handler

import (
	"bufio"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/dbids-ops/dbids-console/entity"
	"github.com/dbids-ops/dbids-console/internal/usecase"
)

// EventsHandler exposes the detection-event listing (page/size only) and
// the live feed the watcher maintains.
type EventsHandler struct {
	pager   *usecase.Pager[entity.DetectionEvent]
	watcher *usecase.Watcher
}

func NewEventsHandler(pager *usecase.Pager[entity.DetectionEvent], watcher *usecase.Watcher) *EventsHandler {
	return &EventsHandler{
		pager:   pager,
		watcher: watcher,
	}
}

func (h *EventsHandler) Register(app *fiber.App) {
	group := app.Group("/console/events")
	group.Get("/", h.View)
	group.Get("/live", h.Live)
	group.Post("/refresh", h.Refresh)
	group.Post("/page", h.GoToPage)
	group.Post("/size", h.SetSize)
	group.Post("/auto-refresh", h.SetAutoRefresh)
}

func (h *EventsHandler) View(c *fiber.Ctx) error {
	return c.JSON(h.pager.View())
}

func (h *EventsHandler) Refresh(c *fiber.Ctx) error {
	h.pager.Refresh(c.Context())
	return c.JSON(h.pager.View())
}

func (h *EventsHandler) GoToPage(c *fiber.Ctx) error {
	var body struct {
		Page int `json:"page"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid page"})
	}
	h.pager.GoToPage(c.Context(), body.Page)
	return c.JSON(h.pager.View())
}

func (h *EventsHandler) SetSize(c *fiber.Ctx) error {
	var body struct {
		Size int `json:"size"`
	}
	if err := c.BodyParser(&body); err != nil || body.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid size"})
	}
	h.pager.SetSize(body.Size)
	return c.Status(fiber.StatusAccepted).JSON(h.pager.View())
}

func (h *EventsHandler) SetAutoRefresh(c *fiber.Ctx) error {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid body"})
	}
	h.pager.SetAutoRefresh(body.Enabled)
	return c.JSON(h.pager.View())
}

// Live streams detection events to the shell as line-delimited JSON. The
// subscription closes when the client disconnects.
func (h *EventsHandler) Live(c *fiber.Ctx) error {
	events, unsubscribe := h.watcher.Subscribe()

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		enc := json.NewEncoder(w)
		for ev := range events {
			if err := enc.Encode(ev); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

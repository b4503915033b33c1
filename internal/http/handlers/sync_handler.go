package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "smarttrade/internal/log"
	"smarttrade/internal/sync"
)

type SyncHandler struct {
	Drainer *sync.Drainer
}

func (h *SyncHandler) Status(c *fiber.Ctx) error {
	status, err := h.Drainer.Status()
	if err != nil {
		return respondErr(c, "sync.status", err)
	}
	return c.JSON(status)
}

// Run triggers a drain pass immediately (the UI's "sync now" button and the
// reconnect hook). Push failures are not request failures: the pass result is
// reported and retries stay with the drainer.
func (h *SyncHandler) Run(c *fiber.Ctx) error {
	pushed, err := h.Drainer.DrainOnce(c.Context())
	if err != nil && pushed == 0 {
		return respondErr(c, "sync.run", err)
	}
	applog.Info(c, "sync.run", map[string]any{"pushed": pushed})
	resp := fiber.Map{"pushed": pushed}
	if err != nil {
		resp["error"] = err.Error()
	}
	return c.JSON(resp)
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"smarttrade/internal/services"
	"smarttrade/internal/sync"
	"smarttrade/internal/validate"
)

type ReportHandler struct {
	Reports  *services.ReportService
	Settings *services.SettingsService
	Drainer  *sync.Drainer
}

// Home renders the HTML dashboard: stock and sales figures plus sync health.
func (h *ReportHandler) Home(c *fiber.Ctx) error {
	stats, err := h.Reports.DashboardStats()
	if err != nil {
		return respondErr(c, "report.dashboard", err)
	}
	status, err := h.Drainer.Status()
	if err != nil {
		return respondErr(c, "report.dashboard", err)
	}
	return c.Render("dashboard", fiber.Map{
		"Stats":    stats,
		"Sync":     status,
		"Currency": h.Settings.Currency(),
	})
}

func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.Reports.DashboardStats()
	if err != nil {
		return respondErr(c, "report.dashboard", err)
	}
	return c.JSON(stats)
}

func (h *ReportHandler) Sales(c *fiber.Ctx) error {
	from := validate.Millis(c.Query("from"), 0)
	to := validate.Millis(c.Query("to"), time.Now().UnixMilli())
	rep, err := h.Reports.SalesReport(from, to)
	if err != nil {
		return respondErr(c, "report.sales", err)
	}
	return c.JSON(rep)
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	applog "smarttrade/internal/log"
	"smarttrade/internal/services"
	"smarttrade/internal/validate"
)

type SaleHandler struct {
	Sales *services.SaleService
}

func (h *SaleHandler) Record(c *fiber.Ctx) error {
	var in services.SaleInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "malformed sale body")
	}
	sale, err := h.Sales.Record(in)
	if err != nil {
		return respondErr(c, "sale.record", err)
	}
	applog.Info(c, "sale.record", map[string]any{
		"id": sale.ID, "product": sale.ProductID, "qty": sale.Quantity,
	})
	return c.Status(fiber.StatusCreated).JSON(sale)
}

// List returns sales for ?period=today, or a ?from=&to= epoch-ms range, or
// everything when no filter is given.
func (h *SaleHandler) List(c *fiber.Ctx) error {
	if c.Query("period") == "today" {
		out, err := h.Sales.ListToday()
		if err != nil {
			return respondErr(c, "sale.list", err)
		}
		return c.JSON(out)
	}

	if c.Query("from") != "" || c.Query("to") != "" {
		from := validate.Millis(c.Query("from"), 0)
		to := validate.Millis(c.Query("to"), time.Now().UnixMilli())
		out, err := h.Sales.ListByDateRange(from, to)
		if err != nil {
			return respondErr(c, "sale.list", err)
		}
		return c.JSON(out)
	}

	out, err := h.Sales.ListAll()
	if err != nil {
		return respondErr(c, "sale.list", err)
	}
	return c.JSON(out)
}

func (h *SaleHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid sale id")
	}
	sale, err := h.Sales.Get(id)
	if err != nil {
		return respondErr(c, "sale.get", err)
	}
	return c.JSON(sale)
}

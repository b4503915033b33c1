package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "smarttrade/internal/log"
	"smarttrade/internal/services"
	"smarttrade/internal/validate"
)

type ProductHandler struct {
	Products *services.ProductService
}

// List serves both the full catalog and search: ?q= switches to substring
// match on name/sku/barcode, ?category= filters exactly.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	category := validate.Category(c.Query("category"))

	if raw := c.Query("q"); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			return badRequest(c, "invalid search query")
		}
		out, err := h.Products.Search(q, category)
		if err != nil {
			return respondErr(c, "product.search", err)
		}
		return c.JSON(out)
	}

	out, err := h.Products.ListAll()
	if err != nil {
		return respondErr(c, "product.list", err)
	}
	return c.JSON(out)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var draft services.ProductDraft
	if err := c.BodyParser(&draft); err != nil {
		return badRequest(c, "malformed product body")
	}
	p, err := h.Products.Create(draft)
	if err != nil {
		return respondErr(c, "product.create", err)
	}
	applog.Info(c, "product.create", map[string]any{"id": p.ID})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	p, err := h.Products.Get(id)
	if err != nil {
		return respondErr(c, "product.get", err)
	}
	return c.JSON(p)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var patch services.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "malformed patch body")
	}
	p, err := h.Products.Update(id, patch)
	if err != nil {
		return respondErr(c, "product.update", err)
	}
	applog.Info(c, "product.update", map[string]any{"id": p.ID})
	return c.JSON(p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	if err := h.Products.Delete(id); err != nil {
		return respondErr(c, "product.delete", err)
	}
	applog.Info(c, "product.delete", map[string]any{"id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.Products.ListLowStock()
	if err != nil {
		return respondErr(c, "product.lowstock", err)
	}
	return c.JSON(out)
}

func (h *ProductHandler) OutOfStock(c *fiber.Ctx) error {
	out, err := h.Products.ListOutOfStock()
	if err != nil {
		return respondErr(c, "product.outofstock", err)
	}
	return c.JSON(out)
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"smarttrade/internal/domain"
	applog "smarttrade/internal/log"
	"smarttrade/internal/services"
	"smarttrade/internal/validate"
)

type SettingsHandler struct {
	Settings *services.SettingsService
}

func (h *SettingsHandler) List(c *fiber.Ctx) error {
	all, err := h.Settings.All()
	if err != nil {
		return respondErr(c, "settings.list", err)
	}
	// The PIN hash is device-internal, never served.
	out := make([]domain.Setting, 0, len(all))
	for _, s := range all {
		if s.Key == "pin_hash" {
			continue
		}
		out = append(out, s)
	}
	return c.JSON(out)
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	key, ok := validate.SettingKey(c.Params("key"))
	if !ok || key == "pin_hash" {
		return badRequest(c, "invalid setting key")
	}
	v, err := h.Settings.Get(key)
	if err != nil {
		return respondErr(c, "settings.get", err)
	}
	return c.JSON(domain.Setting{Key: key, Value: v})
}

func (h *SettingsHandler) Put(c *fiber.Ctx) error {
	key, ok := validate.SettingKey(c.Params("key"))
	if !ok || key == "pin_hash" {
		return badRequest(c, "invalid setting key")
	}
	var body struct {
		Value string `json:"value"`
	}
	if err := c.BodyParser(&body); err != nil || body.Value == "" {
		return badRequest(c, "missing value")
	}
	if err := h.Settings.Set(key, body.Value); err != nil {
		return respondErr(c, "settings.put", err)
	}
	applog.Info(c, "settings.put", map[string]any{"key": key})
	return c.JSON(domain.Setting{Key: key, Value: body.Value})
}

func (h *SettingsHandler) SetPIN(c *fiber.Ctx) error {
	var body struct {
		PIN string `json:"pin"`
	}
	if err := c.BodyParser(&body); err != nil || !validate.PIN(body.PIN) {
		return badRequest(c, "pin must be 4-8 digits")
	}
	if err := h.Settings.SetPIN(body.PIN); err != nil {
		return respondErr(c, "pin.set", err)
	}
	applog.Info(c, "pin.set", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SettingsHandler) VerifyPIN(c *fiber.Ctx) error {
	var body struct {
		PIN string `json:"pin"`
	}
	if err := c.BodyParser(&body); err != nil || !validate.PIN(body.PIN) {
		return badRequest(c, "pin must be 4-8 digits")
	}
	ok, err := h.Settings.VerifyPIN(body.PIN)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no pin set"})
	}
	if err != nil {
		return respondErr(c, "pin.verify", err)
	}
	return c.JSON(fiber.Map{"valid": ok})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postcraft/internal/service"
	"github.com/maheshrc27/postcraft/internal/transfer"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetPreferences(c *fiber.Ctx) error {
	userID := GetUserID(c)

	prefs, err := h.s.GetPreferences(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(prefs)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var settings transfer.SettingsUpdate
	if err := c.BodyParser(&settings); err != nil {
		return badRequest(c, "Unable to parse json")
	}

	prefs, err := h.s.UpdatePreferences(c.UserContext(), userID, settings.PreferredPostingTime, settings.ContentTone)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(prefs)
}

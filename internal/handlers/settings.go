package handlers

import (
	"log/slog"

	"github.com/calculon/goals-api/internal/middleware"
	"github.com/calculon/goals-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

func GetTheme(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	setting, err := store().UserSetting(c.UserContext(), userID)
	if err != nil {
		slog.Error("failed to load settings", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load settings",
		})
	}

	return c.JSON(setting)
}

// UpdateTheme sets the theme, or toggles it when none is given.
func UpdateTheme(c *fiber.Ctx) error {
	var req models.UpdateThemeRequest
	if len(c.Body()) > 0 {
		if err := parseAndValidate(c, &req); err != nil {
			return err
		}
	}

	ctx := c.UserContext()
	userID := middleware.GetUserID(c)
	setting, err := store().UserSetting(ctx, userID)
	if err != nil {
		slog.Error("failed to load settings", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update theme",
		})
	}

	if req.Theme == "" {
		req.Theme = setting.Toggled()
	}
	setting.Theme = req.Theme
	if err := store().UpsertUserSetting(ctx, setting); err != nil {
		slog.Error("failed to save theme", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update theme",
		})
	}

	return c.JSON(setting)
}

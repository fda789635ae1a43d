package handlers

import (
	"log/slog"

	"github.com/calculon/goals-api/internal/access"
	"github.com/calculon/goals-api/internal/middleware"
	"github.com/calculon/goals-api/internal/models"
	"github.com/calculon/goals-api/internal/services"
	"github.com/calculon/goals-api/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// CreateAdjustment raises the :id goal's budget.
func CreateAdjustment(c *fiber.Ctx) error {
	var req models.CreateAdjustmentRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	goal, role, err := goalForUser(c)
	if err != nil {
		return err
	}
	if !access.CanWrite(role) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to adjust this budget",
		})
	}

	amount, _ := validation.Amount(string(req.Amount))
	userID := middleware.GetUserID(c)
	adjustment := models.BudgetAdjustment{
		GoalID:    goal.ID,
		Amount:    amount,
		Reason:    req.Reason,
		CreatedBy: userID,
	}
	if err := store().CreateAdjustment(c.UserContext(), &adjustment); err != nil {
		slog.Error("failed to create adjustment", "error", err, "user_id", userID, "goal_id", goal.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to adjust budget",
		})
	}

	services.Events.Publish(services.Event{
		Type:   services.EventAdjustmentAdded,
		UserID: userID,
		GoalID: goal.ID,
		Data:   adjustment,
	})
	return c.Status(fiber.StatusCreated).JSON(adjustment)
}

func GetAdjustments(c *fiber.Ctx) error {
	snap, err := resolver().Snapshot(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch adjustments",
		})
	}

	return c.JSON(snap.Adjustments)
}

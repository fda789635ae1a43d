package handlers

import (
	"log/slog"

	"github.com/calculon/goals-api/internal/access"
	"github.com/calculon/goals-api/internal/budget"
	"github.com/calculon/goals-api/internal/middleware"
	"github.com/calculon/goals-api/internal/models"
	"github.com/calculon/goals-api/internal/services"
	"github.com/calculon/goals-api/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type goalWithSummary struct {
	models.Goal
	Summary budget.Summary `json:"summary"`
}

type goalDetail struct {
	Goal              models.Goal               `json:"goal"`
	Role              string                    `json:"role"`
	Summary           budget.Summary            `json:"summary"`
	DisplayPercentage float64                   `json:"display_percentage"`
	Warning           string                    `json:"warning,omitempty"`
	Chart             []budget.Slice            `json:"chart"`
	Expenses          []models.Expense          `json:"expenses"`
	Adjustments       []models.BudgetAdjustment `json:"adjustments"`
}

func GetCategories(c *fiber.Ctx) error {
	categories := make([]fiber.Map, 0, len(models.DefaultCategories))
	for _, name := range models.DefaultCategories {
		categories = append(categories, fiber.Map{
			"name":  name,
			"color": models.CategoryColor(name),
		})
	}
	return c.JSON(categories)
}

// GetGoals lists every goal the user owns or collaborates on, newest first.
func GetGoals(c *fiber.Ctx) error {
	snap, err := resolver().Snapshot(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch goals",
		})
	}

	summaries := budget.SummarizeAll(snap.Goals, snap.Expenses, snap.Adjustments)
	goals := make([]goalWithSummary, 0, len(snap.Goals))
	for _, g := range snap.Goals {
		goals = append(goals, goalWithSummary{Goal: g, Summary: summaries[g.ID]})
	}

	return c.JSON(goals)
}

func CreateGoal(c *fiber.Ctx) error {
	var req models.CreateGoalRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	target, _ := validation.Amount(string(req.TargetAmount))

	ctx := c.UserContext()
	userID := middleware.GetUserID(c)
	if err := store().EnsureProfile(ctx, userID, middleware.GetEmail(c)); err != nil {
		slog.Error("failed to ensure profile", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create goal",
		})
	}

	goal := models.Goal{
		UserID:       userID,
		Name:         req.Name,
		TargetAmount: target,
		Deadline:     req.Deadline,
	}
	if err := store().CreateGoal(ctx, &goal); err != nil {
		slog.Error("failed to create goal", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create goal",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(goal)
}

func GetGoal(c *fiber.Ctx) error {
	goal, role, err := goalForUser(c)
	if err != nil {
		return err
	}

	expenses, adjustments, err := goalActivity(c, goal.ID)
	if err != nil {
		return err
	}

	summary := budget.Summarize(*goal, expenses, adjustments)
	return c.JSON(goalDetail{
		Goal:              *goal,
		Role:              role,
		Summary:           summary,
		DisplayPercentage: summary.DisplayPercentage(),
		Warning:           summary.WarningMessage(),
		Chart:             summary.ChartSlices(),
		Expenses:          expenses,
		Adjustments:       adjustments,
	})
}

func GetGoalSummary(c *fiber.Ctx) error {
	goal, _, err := goalForUser(c)
	if err != nil {
		return err
	}

	expenses, adjustments, err := goalActivity(c, goal.ID)
	if err != nil {
		return err
	}

	return c.JSON(budget.Summarize(*goal, expenses, adjustments))
}

// DeleteGoal removes the goal with its expenses, adjustments and
// collaborators. Only the owner may do this.
func DeleteGoal(c *fiber.Ctx) error {
	goal, role, err := goalForUser(c)
	if err != nil {
		return err
	}
	if !access.CanDelete(role) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the owner can delete this goal",
		})
	}

	userID := middleware.GetUserID(c)
	if err := store().DeleteGoal(c.UserContext(), goal.ID); err != nil {
		slog.Error("failed to delete goal", "error", err, "user_id", userID, "goal_id", goal.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete goal",
		})
	}

	services.Events.Publish(services.Event{
		Type:   services.EventGoalDeleted,
		UserID: userID,
		GoalID: goal.ID,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

func goalActivity(c *fiber.Ctx, goalID uuid.UUID) ([]models.Expense, []models.BudgetAdjustment, error) {
	ids := []uuid.UUID{goalID}
	expenses, err := store().ExpensesForGoals(c.UserContext(), ids)
	if err != nil {
		slog.Error("failed to fetch expenses", "error", err, "goal_id", goalID)
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch expenses")
	}
	adjustments, err := store().AdjustmentsForGoals(c.UserContext(), ids)
	if err != nil {
		slog.Error("failed to fetch adjustments", "error", err, "goal_id", goalID)
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch adjustments")
	}
	return expenses, adjustments, nil
}

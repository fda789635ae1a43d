package handlers

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/calculon/goals-api/internal/access"
	"github.com/calculon/goals-api/internal/middleware"
	"github.com/calculon/goals-api/internal/models"
	"github.com/calculon/goals-api/internal/services"
	"github.com/calculon/goals-api/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CreateExpense records an expense against the :id goal. Submissions are
// capped by ExpenseLimiter; only stored expenses count against the cap.
func CreateExpense(c *fiber.Ctx) error {
	var req models.CreateExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.GoalID == "" {
		req.GoalID = c.Params("id")
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}
	bodyGoalID, _ := uuid.Parse(req.GoalID)
	if routeGoalID, err := uuid.Parse(c.Params("id")); err != nil || bodyGoalID != routeGoalID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	goal, role, err := goalForUser(c)
	if err != nil {
		return err
	}
	if !access.CanWrite(role) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to add expenses to this goal",
		})
	}

	if !ExpenseLimiter.Attempt(time.Now()) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Too many expenses added. Please wait a minute.",
		})
	}

	amount, _ := validation.Amount(string(req.Amount))
	userID := middleware.GetUserID(c)
	expense := models.Expense{
		GoalID:    goal.ID,
		Amount:    amount,
		Category:  req.Category,
		Date:      req.Date,
		CreatedBy: userID,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		expense.Notes = &notes
	}

	if err := store().CreateExpense(c.UserContext(), &expense); err != nil {
		slog.Error("failed to create expense", "error", err, "user_id", userID, "goal_id", goal.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add expense",
		})
	}
	ExpenseLimiter.Commit()

	services.Events.Publish(services.Event{
		Type:   services.EventExpenseAdded,
		UserID: userID,
		GoalID: goal.ID,
		Data:   expense,
	})
	return c.Status(fiber.StatusCreated).JSON(expense)
}

// GetExpenses lists expenses across all accessible goals. Newest date first
// unless ?sort=date|amount|category and ?dir=asc|desc say otherwise.
func GetExpenses(c *fiber.Ctx) error {
	less, ok := expenseOrder(c.Query("sort", "date"), c.Query("dir", "desc"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid sort order",
		})
	}

	snap, err := resolver().Snapshot(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch expenses",
		})
	}

	expenses := snap.Expenses
	sort.SliceStable(expenses, func(i, j int) bool {
		return less(expenses[i], expenses[j])
	})
	return c.JSON(expenses)
}

func expenseOrder(field, dir string) (func(a, b models.Expense) bool, bool) {
	var less func(a, b models.Expense) bool
	switch field {
	case "date":
		less = func(a, b models.Expense) bool { return a.Date < b.Date }
	case "amount":
		less = func(a, b models.Expense) bool { return a.Amount.LessThan(b.Amount) }
	case "category":
		less = func(a, b models.Expense) bool { return a.Category < b.Category }
	default:
		return nil, false
	}

	switch dir {
	case "asc":
		return less, true
	case "desc":
		return func(a, b models.Expense) bool { return less(b, a) }, true
	}
	return nil, false
}

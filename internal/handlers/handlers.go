package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/calculon/goals-api/internal/access"
	"github.com/calculon/goals-api/internal/config"
	"github.com/calculon/goals-api/internal/database"
	"github.com/calculon/goals-api/internal/middleware"
	"github.com/calculon/goals-api/internal/models"
	"github.com/calculon/goals-api/internal/ratelimit"
	"github.com/calculon/goals-api/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	// ExpenseLimiter caps expense inserts for the whole process.
	ExpenseLimiter = ratelimit.NewFixedWindow(time.Minute, 5)

	sessionTTL = 7 * 24 * time.Hour
)

func Configure(cfg *config.Config) {
	ExpenseLimiter = ratelimit.NewFixedWindow(cfg.ExpenseRateWindow, cfg.ExpenseRateLimit)
	if cfg.SessionTTL > 0 {
		sessionTTL = cfg.SessionTTL
	}
}

func store() *database.Store {
	return database.NewStore(database.DB)
}

func resolver() *access.Resolver {
	return access.NewResolver(store(), slog.Default())
}

// ErrorHandler renders errors returned from handlers as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": fields,
		})
	}

	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		slog.Error("unhandled error", "error", err, "method", c.Method(), "path", c.Path())
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

// parseAndValidate decodes the body into req and runs its validation tags.
func parseAndValidate(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return validation.Struct(req)
}

// goalForUser loads the :id goal together with the caller's role on it.
// Goals the caller cannot see are reported as not found.
func goalForUser(c *fiber.Ctx) (*models.Goal, string, error) {
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "Invalid goal ID")
	}

	userID := middleware.GetUserID(c)
	goal, role, err := resolver().Role(c.UserContext(), userID, goalID)
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, access.ErrNoAccess):
		return nil, "", fiber.NewError(fiber.StatusNotFound, "Goal not found")
	case err != nil:
		slog.Error("failed to resolve goal role", "error", err, "user_id", userID, "goal_id", goalID)
		return nil, "", fiber.NewError(fiber.StatusInternalServerError, "Failed to load goal")
	}
	return goal, role, nil
}

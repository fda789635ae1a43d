package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/calculon/goals-api/internal/access"
	"github.com/calculon/goals-api/internal/database"
	"github.com/calculon/goals-api/internal/middleware"
	"github.com/calculon/goals-api/internal/models"
	"github.com/calculon/goals-api/internal/services"
	"github.com/calculon/goals-api/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// AddCollaborator shares the :id goal with the profile registered under
// the given email (owner or admin only)
func AddCollaborator(c *fiber.Ctx) error {
	var req models.InviteCollaboratorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.ApplyDefaults()
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(&req); err != nil {
		return err
	}

	goal, role, err := goalForUser(c)
	if err != nil {
		return err
	}
	if !access.CanShare(role) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to share this goal",
		})
	}

	ctx := c.UserContext()
	userID := middleware.GetUserID(c)
	invitee, err := store().ProfileByEmail(ctx, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	if err != nil {
		slog.Error("failed to look up invitee", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add collaborator",
		})
	}
	if invitee.ID == goal.UserID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "The owner already has access to this goal",
		})
	}

	collaborator := models.Collaborator{
		GoalID: goal.ID,
		UserID: invitee.ID,
		Role:   req.Role,
	}
	if err := store().CreateCollaborator(ctx, &collaborator); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "This user is already a collaborator",
			})
		}
		slog.Error("failed to create collaborator", "error", err, "user_id", userID, "goal_id", goal.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add collaborator",
		})
	}

	info := models.CollaboratorInfo{
		ID:     collaborator.ID,
		UserID: invitee.ID,
		Email:  invitee.Email,
		Role:   collaborator.Role,
	}

	services.Push.SendToUser(ctx, invitee.ID,
		"Goal shared with you",
		middleware.GetEmail(c)+" shared \""+goal.Name+"\" with you",
		map[string]string{"type": services.EventCollaboratorAdded, "goalId": goal.ID.String()},
	)
	services.Events.Publish(services.Event{
		Type:   services.EventCollaboratorAdded,
		UserID: userID,
		GoalID: goal.ID,
		Data:   info,
	})

	return c.Status(fiber.StatusCreated).JSON(info)
}

// GetCollaborators lists the collaborators of the :id goal with their emails
func GetCollaborators(c *fiber.Ctx) error {
	goal, _, err := goalForUser(c)
	if err != nil {
		return err
	}

	collaborators, err := store().CollaboratorsForGoal(c.UserContext(), goal.ID)
	if err != nil {
		slog.Error("failed to fetch collaborators", "error", err, "goal_id", goal.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch collaborators",
		})
	}

	result := make([]models.CollaboratorInfo, 0, len(collaborators))
	for _, col := range collaborators {
		result = append(result, models.CollaboratorInfo{
			ID:     col.ID,
			UserID: col.UserID,
			Email:  col.Profile.Email,
			Role:   col.Role,
		})
	}

	return c.JSON(result)
}

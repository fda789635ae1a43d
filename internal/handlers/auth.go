package handlers

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/calculon/goals-api/internal/database"
	"github.com/calculon/goals-api/internal/middleware"
	"github.com/calculon/goals-api/internal/models"
	"github.com/calculon/goals-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func Signup(c *fiber.Ctx) error {
	var req models.CredentialsRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	ctx := c.UserContext()
	profile := models.Profile{
		Email:    strings.TrimSpace(req.Email),
		Password: string(hashedPassword),
	}
	if err := store().CreateProfile(ctx, &profile); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email already registered",
			})
		}
		slog.Error("failed to create profile", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	// Creates the default light theme row.
	if _, err := store().UserSetting(ctx, profile.ID); err != nil {
		slog.Warn("failed to create default settings", "error", err, "user_id", profile.ID)
	}

	token, err := startSession(c, profile)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
		Token: token,
		User:  profile,
	})
}

func Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := store().ProfileByEmail(c.UserContext(), strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			slog.Error("failed to load profile", "error", err)
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := startSession(c, *profile)
	if err != nil {
		return err
	}

	return c.JSON(models.AuthResponse{
		Token: token,
		User:  *profile,
	})
}

func Logout(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if err := store().RevokeSession(c.UserContext(), middleware.GetSessionID(c), time.Now()); err != nil {
		slog.Error("failed to revoke session", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sign out",
		})
	}

	services.Events.Publish(services.Event{
		Type:      services.EventSignedOut,
		UserID:    userID,
		SessionID: middleware.GetSessionID(c),
	})
	return c.SendStatus(fiber.StatusNoContent)
}

func GetMe(c *fiber.Ctx) error {
	profile, err := store().ProfileByID(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(profile)
}

func RegisterDeviceToken(c *fiber.Ctx) error {
	var req models.DeviceTokenRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	userID := middleware.GetUserID(c)
	if err := store().SetFCMToken(c.UserContext(), userID, req.Token); err != nil {
		slog.Error("failed to save device token", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save device token",
		})
	}

	return c.JSON(fiber.Map{"message": "Device token registered"})
}

// startSession persists a session for the profile and signs its token.
func startSession(c *fiber.Ctx, profile models.Profile) (string, error) {
	session := models.Session{
		UserID:    profile.ID,
		ExpiresAt: time.Now().Add(sessionTTL),
	}
	if err := store().CreateSession(c.UserContext(), &session); err != nil {
		slog.Error("failed to create session", "error", err, "user_id", profile.ID)
		return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to create session")
	}

	token, err := middleware.GenerateToken(profile.ID, profile.Email, session)
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to generate token")
	}

	services.Events.Publish(services.Event{
		Type:      services.EventSignedIn,
		UserID:    profile.ID,
		SessionID: session.ID,
	})
	return token, nil
}

package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/calculon/goals-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultSecret = "your-secret-key-change-in-production"

var errInactiveSession = errors.New("session is no longer active")

type Claims struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// SessionLookup checks that a token's session has not been revoked.
type SessionLookup interface {
	ActiveSession(ctx context.Context, id uuid.UUID, now time.Time) (*models.Session, error)
}

var (
	secret   = []byte(defaultSecret)
	sessions SessionLookup
)

// Configure sets the signing secret and the session store. With a nil
// lookup, tokens are trusted until they expire.
func Configure(jwtSecret string, lookup SessionLookup) {
	if jwtSecret != "" {
		secret = []byte(jwtSecret)
	}
	sessions = lookup
}

// GenerateToken signs a token for the session.
func GenerateToken(userID uuid.UUID, email string, session models.Session) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID.String(),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates the signature, expiry and session of a token.
func ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	if sessions != nil {
		sessionID, err := uuid.Parse(claims.ID)
		if err != nil {
			return nil, errInactiveSession
		}
		if _, err := sessions.ActiveSession(ctx, sessionID, time.Now()); err != nil {
			return nil, errInactiveSession
		}
	}

	return claims, nil
}

// Authenticate stores the token's identity on the request. It reports
// false if the token is not acceptable.
func Authenticate(c *fiber.Ctx, tokenString string) bool {
	claims, err := ParseToken(c.UserContext(), tokenString)
	if err != nil {
		return false
	}

	sessionID, _ := uuid.Parse(claims.ID)
	c.Locals("userId", claims.UserID)
	c.Locals("email", claims.Email)
	c.Locals("sessionId", sessionID)
	return true
}

func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		// Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization format",
			})
		}

		if !Authenticate(c, tokenString) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) uuid.UUID {
	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

func GetEmail(c *fiber.Ctx) string {
	email, _ := c.Locals("email").(string)
	return email
}

func GetSessionID(c *fiber.Ctx) uuid.UUID {
	sessionID, ok := c.Locals("sessionId").(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return sessionID
}

package services

import (
	"context"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/calculon/goals-api/internal/models"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// ProfileReader loads the profile that carries a user's device token.
type ProfileReader interface {
	ProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Sender delivers one message. *messaging.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushService sends notifications through Firebase Cloud Messaging.
type PushService struct {
	client   Sender
	profiles ProfileReader
}

// Push is the global push service; a disabled one until InitPush runs.
var Push = &PushService{}

func NewPushService(client Sender, profiles ProfileReader) *PushService {
	return &PushService{client: client, profiles: profiles}
}

// InitPush sets up Push. A missing service account, or one Firebase
// rejects, leaves push disabled rather than failing startup.
func InitPush(ctx context.Context, serviceAccountPath string, profiles ProfileReader) {
	if serviceAccountPath == "" {
		slog.Info("fcm: no service account configured, push notifications disabled")
		Push = &PushService{profiles: profiles}
		return
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		slog.Warn("fcm: failed to initialize firebase app", "error", err)
		Push = &PushService{profiles: profiles}
		return
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		slog.Warn("fcm: failed to get messaging client", "error", err)
		Push = &PushService{profiles: profiles}
		return
	}

	Push = NewPushService(client, profiles)
	slog.Info("fcm: push notifications enabled")
}

func (p *PushService) Enabled() bool {
	return p != nil && p.client != nil && p.profiles != nil
}

// SendToUser is a no-op when push is disabled or the user has no token.
func (p *PushService) SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	if !p.Enabled() {
		return
	}

	profile, err := p.profiles.ProfileByID(ctx, userID)
	if err != nil || profile.FCMToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: profile.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := p.client.Send(ctx, msg); err != nil {
		slog.Error("fcm: failed to send", "error", err, "user_id", userID)
	}
}

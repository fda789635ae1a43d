package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type UserSetting struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	Theme     string    `json:"theme" gorm:"not null;default:'light'"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Toggled returns the opposite theme.
func (s UserSetting) Toggled() string {
	if s.Theme == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// UpdateThemeRequest with an empty Theme toggles the current one.
type UpdateThemeRequest struct {
	Theme string `json:"theme" validate:"omitempty,oneof=light dark"`
}

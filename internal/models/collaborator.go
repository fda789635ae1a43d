package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

type Collaborator struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	GoalID    uuid.UUID `json:"goal_id" gorm:"type:uuid;not null;uniqueIndex:idx_collaborator_goal_user"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_collaborator_goal_user;index"`
	Role      string    `json:"role" gorm:"not null;default:'viewer'"` // viewer, editor, admin
	CreatedAt time.Time `json:"created_at"`

	// Relations (for preloading)
	Profile Profile `json:"-" gorm:"foreignKey:UserID"`
}

func (c *Collaborator) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type InviteCollaboratorRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"oneof=viewer editor admin"`
}

type CollaboratorInfo struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

// ApplyDefaults fills in the role when the client leaves it out.
func (r *InviteCollaboratorRequest) ApplyDefaults() {
	if r.Role == "" {
		r.Role = RoleViewer
	}
}

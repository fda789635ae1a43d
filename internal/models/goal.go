package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Goal struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID       `json:"user_id" gorm:"type:uuid;index;not null"`
	Name          string          `json:"name" gorm:"not null"`
	TargetAmount  decimal.Decimal `json:"target_amount" gorm:"type:numeric(14,2);not null"`
	CurrentAmount decimal.Decimal `json:"current_amount" gorm:"type:numeric(14,2);not null;default:0"`
	Deadline      string          `json:"deadline" gorm:"type:varchar(10);not null"` // YYYY-MM-DD
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type CreateGoalRequest struct {
	Name         string      `json:"name" validate:"required"`
	TargetAmount AmountInput `json:"target_amount" validate:"posamount"`
	Deadline     string      `json:"deadline" validate:"ymd"`
}

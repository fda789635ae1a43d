package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetAdjustment is always additive to the goal's effective budget.
type BudgetAdjustment struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	GoalID    uuid.UUID       `json:"goal_id" gorm:"type:uuid;index;not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	Reason    string          `json:"reason" gorm:"not null"`
	CreatedBy uuid.UUID       `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt time.Time       `json:"created_at"`
}

func (a *BudgetAdjustment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type CreateAdjustmentRequest struct {
	Amount AmountInput `json:"amount" validate:"posamount"`
	Reason string      `json:"reason" validate:"required"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCategories are offered as suggestions; any non-empty category is accepted.
var DefaultCategories = []string{"ING", "Revolut", "ING Blik", "Other"}

// CategoryColors maps the suggested categories to their chart colours.
var CategoryColors = map[string]string{
	"ING":      "#f97316",
	"Revolut":  "#3b82f6",
	"ING Blik": "#9333ea",
	"Other":    "#6b7280",
}

const FallbackCategoryColor = "#6b7280"

// CategoryColor returns the chart colour for a category.
func CategoryColor(category string) string {
	if c, ok := CategoryColors[category]; ok {
		return c
	}
	return FallbackCategoryColor
}

type Expense struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	GoalID    uuid.UUID       `json:"goal_id" gorm:"type:uuid;index;not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	Category  string          `json:"category" gorm:"not null"`
	Date      string          `json:"date" gorm:"type:varchar(10);not null"` // YYYY-MM-DD
	Notes     *string         `json:"notes"`
	CreatedBy uuid.UUID       `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt time.Time       `json:"created_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// CreateExpenseRequest carries the goal reference in the body as well as
// the route so a mismatched client form is rejected.
type CreateExpenseRequest struct {
	Amount   AmountInput `json:"amount" validate:"posamount"`
	Category string      `json:"category" validate:"required"`
	Date     string      `json:"date" validate:"ymd"`
	Notes    string      `json:"notes"`
	GoalID   string      `json:"goal_id" validate:"uuid"`
}

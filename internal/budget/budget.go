// Package budget derives progress summaries for goals from their expenses
// and budget adjustments. Everything here is a pure function of its inputs.
package budget

import (
	"fmt"
	"sort"

	"github.com/calculon/goals-api/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// WarningThreshold is the percentage at which the advisory warning fires.
	WarningThreshold = 90.0
	// OverBudgetThreshold is exceeded (strictly) when a goal is over budget.
	OverBudgetThreshold = 100.0

	emptySliceLabel = "Empty"
)

var hundred = decimal.NewFromInt(100)

type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Color    string          `json:"color"`
}

// Summary is the progress of a single goal.
type Summary struct {
	GoalID            uuid.UUID       `json:"goal_id"`
	TargetAmount      decimal.Decimal `json:"target_amount"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
	TotalAdjustments  decimal.Decimal `json:"total_adjustments"`
	AdjustedBudget    decimal.Decimal `json:"adjusted_budget"`
	Percentage        float64         `json:"percentage"`
	OverBudgetWarning bool            `json:"over_budget_warning"`
	IsOverBudget      bool            `json:"is_over_budget"`
	Categories        []CategoryTotal `json:"categories"`
}

// Slice is one segment of the category chart.
type Slice struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Color    string  `json:"color"`
}

// Summarize computes the progress of goal. Expenses and adjustments that
// belong to other goals are ignored, so callers may pass whole collections.
// Percentage is not clamped; use DisplayPercentage for gauges.
func Summarize(goal models.Goal, expenses []models.Expense, adjustments []models.BudgetAdjustment) Summary {
	spent := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		if e.GoalID != goal.ID {
			continue
		}
		spent = spent.Add(e.Amount)
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
	}

	adjusted := decimal.Zero
	for _, a := range adjustments {
		if a.GoalID != goal.ID {
			continue
		}
		adjusted = adjusted.Add(a.Amount)
	}

	budget := goal.TargetAmount.Add(adjusted)

	var pct float64
	if budget.IsPositive() {
		pct = spent.Div(budget).Mul(hundred).InexactFloat64()
	}

	return Summary{
		GoalID:            goal.ID,
		TargetAmount:      goal.TargetAmount,
		TotalSpent:        spent,
		TotalAdjustments:  adjusted,
		AdjustedBudget:    budget,
		Percentage:        pct,
		OverBudgetWarning: pct >= WarningThreshold,
		IsOverBudget:      pct > OverBudgetThreshold,
		Categories:        categoryTotals(byCategory),
	}
}

// SummarizeAll returns a summary for every goal, keyed by goal id.
func SummarizeAll(goals []models.Goal, expenses []models.Expense, adjustments []models.BudgetAdjustment) map[uuid.UUID]Summary {
	out := make(map[uuid.UUID]Summary, len(goals))
	for _, g := range goals {
		out[g.ID] = Summarize(g, expenses, adjustments)
	}
	return out
}

// categoryTotals orders categories by amount, largest first, then by name.
func categoryTotals(byCategory map[string]decimal.Decimal) []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(byCategory))
	for category, amount := range byCategory {
		totals = append(totals, CategoryTotal{
			Category: category,
			Amount:   amount,
			Color:    models.CategoryColor(category),
		})
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Amount.Cmp(totals[j].Amount); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// DisplayPercentage is the percentage clamped to 100 for ring gauges.
func (s Summary) DisplayPercentage() float64 {
	if s.Percentage > OverBudgetThreshold {
		return OverBudgetThreshold
	}
	return s.Percentage
}

// WarningMessage is empty unless the advisory warning fires.
func (s Summary) WarningMessage() string {
	if !s.OverBudgetWarning {
		return ""
	}
	return fmt.Sprintf("Warning: You've used %.1f%% of your budget!", s.Percentage)
}

// ChartSlices returns the category breakdown for the chart. A goal with no
// expenses renders as a single placeholder slice.
func (s Summary) ChartSlices() []Slice {
	if len(s.Categories) == 0 {
		return []Slice{{Category: emptySliceLabel, Value: 100, Color: models.FallbackCategoryColor}}
	}
	slices := make([]Slice, len(s.Categories))
	for i, c := range s.Categories {
		slices[i] = Slice{Category: c.Category, Value: c.Amount.InexactFloat64(), Color: c.Color}
	}
	return slices
}

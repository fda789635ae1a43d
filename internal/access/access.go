// Package access resolves which goals a user may see and what they may do
// with them. A goal is accessible to its owner and to every collaborator.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/calculon/goals-api/internal/database"
	"github.com/calculon/goals-api/internal/models"
	"github.com/google/uuid"
)

// ErrNoAccess is returned when a goal exists but the user may not see it.
var ErrNoAccess = errors.New("goal not accessible")

// GoalIndex is the subset of the store the resolver reads from.
type GoalIndex interface {
	OwnedGoalIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CollaboratedGoalIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CollaboratorRole(ctx context.Context, goalID, userID uuid.UUID) (string, error)
	GoalByID(ctx context.Context, id uuid.UUID) (*models.Goal, error)
	GoalsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Goal, error)
	ExpensesForGoals(ctx context.Context, goalIDs []uuid.UUID) ([]models.Expense, error)
	AdjustmentsForGoals(ctx context.Context, goalIDs []uuid.UUID) ([]models.BudgetAdjustment, error)
}

// Snapshot is everything a user can see, fetched in one resolution.
type Snapshot struct {
	GoalIDs     []uuid.UUID               `json:"-"`
	Goals       []models.Goal             `json:"goals"`
	Expenses    []models.Expense          `json:"expenses"`
	Adjustments []models.BudgetAdjustment `json:"adjustments"`
}

type Resolver struct {
	index GoalIndex
	log   *slog.Logger
}

// NewResolver uses slog.Default when log is nil.
func NewResolver(index GoalIndex, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{index: index, log: log}
}

// AccessibleGoalIDs is the union of owned and collaborated goals. The two
// sets are read with separate queries.
func (r *Resolver) AccessibleGoalIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	owned, err := r.index.OwnedGoalIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("owned goals: %w", err)
	}
	shared, err := r.index.CollaboratedGoalIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("collaborated goals: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(owned)+len(shared))
	ids := make([]uuid.UUID, 0, len(owned)+len(shared))
	for _, id := range append(owned, shared...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// Snapshot reads the user's goals with their expenses and adjustments.
// Nothing past the id lookup is queried when the user has no goals.
// Failures are logged and returned whole; a partial snapshot is never
// returned.
func (r *Resolver) Snapshot(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	snap, err := r.snapshot(ctx, userID)
	if err != nil {
		r.log.Error("failed to resolve accessible goals", "error", err, "user_id", userID)
		return Snapshot{}, err
	}
	return snap, nil
}

func (r *Resolver) snapshot(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	ids, err := r.AccessibleGoalIDs(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	if len(ids) == 0 {
		return Snapshot{
			Goals:       []models.Goal{},
			Expenses:    []models.Expense{},
			Adjustments: []models.BudgetAdjustment{},
		}, nil
	}

	goals, err := r.index.GoalsByIDs(ctx, ids)
	if err != nil {
		return Snapshot{}, fmt.Errorf("goals: %w", err)
	}
	expenses, err := r.index.ExpensesForGoals(ctx, ids)
	if err != nil {
		return Snapshot{}, fmt.Errorf("expenses: %w", err)
	}
	adjustments, err := r.index.AdjustmentsForGoals(ctx, ids)
	if err != nil {
		return Snapshot{}, fmt.Errorf("adjustments: %w", err)
	}

	return Snapshot{GoalIDs: ids, Goals: goals, Expenses: expenses, Adjustments: adjustments}, nil
}

// Role returns the goal and the user's role on it: owner, admin, editor or
// viewer. A missing goal yields database.ErrNotFound, a goal the user is
// not part of yields ErrNoAccess.
func (r *Resolver) Role(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, string, error) {
	goal, err := r.index.GoalByID(ctx, goalID)
	if err != nil {
		return nil, "", err
	}
	if goal.UserID == userID {
		return goal, models.RoleOwner, nil
	}

	role, err := r.index.CollaboratorRole(ctx, goalID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, "", ErrNoAccess
	}
	if err != nil {
		return nil, "", err
	}
	return goal, role, nil
}

// CanWrite reports whether role may add expenses and adjustments.
func CanWrite(role string) bool {
	switch role {
	case models.RoleOwner, models.RoleAdmin, models.RoleEditor:
		return true
	}
	return false
}

// CanShare reports whether role may invite collaborators.
func CanShare(role string) bool {
	return role == models.RoleOwner || role == models.RoleAdmin
}

// CanDelete reports whether role may delete the goal.
func CanDelete(role string) bool {
	return role == models.RoleOwner
}

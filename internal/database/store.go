package database

import (
	"context"
	"errors"
	"time"

	"github.com/calculon/goals-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store is the data access layer over the goal tracker collections.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// Profiles

func (s *Store) CreateProfile(ctx context.Context, p *models.Profile) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Profile{}).Where("email = ?", p.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicate
		}
		return translate(tx.Create(p).Error)
	})
}

func (s *Store) ProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ProfileByEmail matches the email exactly.
func (s *Store) ProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// EnsureProfile creates the profile for an authenticated account if it is
// missing.
func (s *Store) EnsureProfile(ctx context.Context, id uuid.UUID, email string) error {
	p := models.Profile{ID: id}
	err := s.db.WithContext(ctx).
		Where(models.Profile{ID: id}).
		Attrs(models.Profile{Email: email}).
		FirstOrCreate(&p).Error
	return translate(err)
}

func (s *Store) SetFCMToken(ctx context.Context, id uuid.UUID, token string) error {
	res := s.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Update("fcm_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

// ActiveSession returns the session if it is neither revoked nor expired at now.
func (s *Store) ActiveSession(ctx context.Context, id uuid.UUID, now time.Time) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).
		Where("id = ? AND revoked_at IS NULL AND expires_at > ?", id, now).
		First(&sess).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sess, nil
}

func (s *Store) RevokeSession(ctx context.Context, id uuid.UUID, now time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now).Error
}

// Goals

func (s *Store) OwnedGoalIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Goal{}).Where("user_id = ?", userID).Pluck("id", &ids).Error
	return ids, err
}

func (s *Store) GoalByID(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	var g models.Goal
	if err := s.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// GoalsByIDs returns the goals newest first.
func (s *Store) GoalsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Goal, error) {
	var goals []models.Goal
	if len(ids) == 0 {
		return goals, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at DESC").Find(&goals).Error
	return goals, err
}

func (s *Store) CreateGoal(ctx context.Context, g *models.Goal) error {
	return s.db.WithContext(ctx).Create(g).Error
}

// DeleteGoal removes the goal with its expenses, adjustments and
// collaborators.
func (s *Store) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", id).Delete(&models.Expense{}).Error; err != nil {
			return err
		}
		if err := tx.Where("goal_id = ?", id).Delete(&models.BudgetAdjustment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("goal_id = ?", id).Delete(&models.Collaborator{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Goal{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Collaborators

func (s *Store) CollaboratedGoalIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Collaborator{}).Where("user_id = ?", userID).Pluck("goal_id", &ids).Error
	return ids, err
}

func (s *Store) CollaboratorRole(ctx context.Context, goalID, userID uuid.UUID) (string, error) {
	var c models.Collaborator
	if err := s.db.WithContext(ctx).Where("goal_id = ? AND user_id = ?", goalID, userID).First(&c).Error; err != nil {
		return "", translate(err)
	}
	return c.Role, nil
}

// CreateCollaborator fails with ErrDuplicate if the user already
// collaborates on the goal.
func (s *Store) CreateCollaborator(ctx context.Context, c *models.Collaborator) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Collaborator{}).
			Where("goal_id = ? AND user_id = ?", c.GoalID, c.UserID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicate
		}
		return translate(tx.Omit("Profile").Create(c).Error)
	})
}

func (s *Store) CollaboratorsForGoal(ctx context.Context, goalID uuid.UUID) ([]models.Collaborator, error) {
	var collaborators []models.Collaborator
	err := s.db.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Preload("Profile").
		Order("created_at ASC").
		Find(&collaborators).Error
	return collaborators, err
}

// Expenses

// ExpensesForGoals returns expenses most recent date first.
func (s *Store) ExpensesForGoals(ctx context.Context, goalIDs []uuid.UUID) ([]models.Expense, error) {
	var expenses []models.Expense
	if len(goalIDs) == 0 {
		return expenses, nil
	}
	err := s.db.WithContext(ctx).
		Where("goal_id IN ?", goalIDs).
		Order("date DESC").
		Order("created_at DESC").
		Find(&expenses).Error
	return expenses, err
}

func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	return s.db.WithContext(ctx).Create(e).Error
}

// Budget adjustments

func (s *Store) AdjustmentsForGoals(ctx context.Context, goalIDs []uuid.UUID) ([]models.BudgetAdjustment, error) {
	var adjustments []models.BudgetAdjustment
	if len(goalIDs) == 0 {
		return adjustments, nil
	}
	err := s.db.WithContext(ctx).
		Where("goal_id IN ?", goalIDs).
		Order("created_at DESC").
		Find(&adjustments).Error
	return adjustments, err
}

func (s *Store) CreateAdjustment(ctx context.Context, a *models.BudgetAdjustment) error {
	return s.db.WithContext(ctx).Create(a).Error
}

// Settings

// UserSetting returns the user's settings, creating the default row on
// first access.
func (s *Store) UserSetting(ctx context.Context, userID uuid.UUID) (*models.UserSetting, error) {
	setting := models.UserSetting{UserID: userID}
	err := s.db.WithContext(ctx).
		Where(models.UserSetting{UserID: userID}).
		Attrs(models.UserSetting{Theme: models.ThemeLight}).
		FirstOrCreate(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (s *Store) UpsertUserSetting(ctx context.Context, setting *models.UserSetting) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"theme", "updated_at"}),
	}).Create(setting).Error
}

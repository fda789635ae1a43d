package database

import (
	"strings"

	"github.com/calculon/goals-api/internal/config"
	"github.com/calculon/goals-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to PostgreSQL if the URL starts with postgres, otherwise to
// SQLite.
func Open(databaseURL string, level logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "postgres") {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
}

func Connect(cfg *config.Config) error {
	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}

	db, err := Open(cfg.DatabaseURL, level)
	if err != nil {
		return err
	}

	DB = db
	return nil
}

func Migrate() error {
	return AutoMigrate(DB)
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Session{},
		&models.Goal{},
		&models.Expense{},
		&models.BudgetAdjustment{},
		&models.Collaborator{},
		&models.UserSetting{},
	)
}

package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/unilak/community/internal/config"
	"github.com/unilak/community/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate runs AutoMigrate for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// PromoteModerators grants the moderator role to the configured emails.
func PromoteModerators(db *gorm.DB, emails string) (int64, error) {
	var list []string
	for _, e := range strings.Split(emails, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			list = append(list, e)
		}
	}
	if len(list) == 0 {
		return 0, nil
	}
	res := db.Model(&models.Profile{}).
		Where("LOWER(email) IN ? AND role <> ?", list, models.RoleModerator).
		Update("role", models.RoleModerator)
	return res.RowsAffected, res.Error
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

package database

import (
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationNotificationUnreadIndex = "2024-06-01_notification_unread_index"
	migrationSeedDemoUser            = "2024-06-02_seed_demo_user"

	DemoUsername = "demo"
	DemoPassword = "password"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger, options Options) error {
	migrations := []migrationDefinition{
		{name: migrationNotificationUnreadIndex, apply: createNotificationUnreadIndex},
	}
	if options.SeedDemo {
		migrations = append(migrations, migrationDefinition{name: migrationSeedDemoUser, apply: seedDemoUser})
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := migration.apply(tx); err != nil {
				return err
			}
			appliedAt := time.Now().UTC().Unix()
			return tx.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error
		})
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

func createNotificationUnreadIndex(db *gorm.DB) error {
	return db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications (user_id, read)").Error
}

func seedDemoUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&store.User{}).Where("username = ?", DemoUsername).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	bio := "Exploring the demo account."
	return db.Create(&store.User{
		Username:    DemoUsername,
		Password:    DemoPassword,
		DisplayName: "Demo User",
		Bio:         &bio,
		CreatedAt:   time.Now().UTC(),
	}).Error
}

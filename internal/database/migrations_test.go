package database

import (
	"path/filepath"
	"testing"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
)

func TestOpenSQLiteSeedsDemoUserOnce(testContext *testing.T) {
	databasePath := filepath.Join(testContext.TempDir(), "seed.db")

	for attempt := 0; attempt < 2; attempt++ {
		database, err := OpenSQLite(databasePath, zap.NewNop(), Options{SeedDemo: true})
		if err != nil {
			testContext.Fatalf("failed to open sqlite (attempt %d): %v", attempt, err)
		}
		sqlDB, err := database.DB()
		if err != nil {
			testContext.Fatalf("failed to access sql db: %v", err)
		}
		if attempt == 0 {
			if err := sqlDB.Close(); err != nil {
				testContext.Fatalf("failed to close sqlite: %v", err)
			}
			continue
		}
		defer sqlDB.Close()

		var users []store.User
		if err := database.Where("username = ?", DemoUsername).Find(&users).Error; err != nil {
			testContext.Fatalf("failed to query demo user: %v", err)
		}
		if len(users) != 1 {
			testContext.Fatalf("expected exactly one demo user, got %d", len(users))
		}
		if users[0].Password != DemoPassword {
			testContext.Fatalf("unexpected demo password")
		}

		var record migrationRecord
		if err := database.Where("name = ?", migrationSeedDemoUser).Take(&record).Error; err != nil {
			testContext.Fatalf("expected migration record to be created: %v", err)
		}
		if record.AppliedAtSeconds == 0 {
			testContext.Fatalf("expected migration timestamp to be set")
		}
	}
}

func TestOpenSQLiteWithoutSeed(testContext *testing.T) {
	database, err := OpenSQLite(filepath.Join(testContext.TempDir(), "plain.db"), nil, Options{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	var count int64
	if err := database.Model(&store.User{}).Count(&count).Error; err != nil {
		testContext.Fatalf("failed to count users: %v", err)
	}
	if count != 0 {
		testContext.Fatalf("expected no users without seeding, got %d", count)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationNotificationUnreadIndex).Take(&record).Error; err != nil {
		testContext.Fatalf("expected index migration to be recorded: %v", err)
	}
}

func TestOpenSQLiteRequiresPath(testContext *testing.T) {
	if _, err := OpenSQLite("", nil, Options{}); err == nil {
		testContext.Fatalf("expected error for empty path")
	}
}

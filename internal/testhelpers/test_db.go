package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"chessconnect/api/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	openSQLite = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	}
	migrateSchema        = func(db *gorm.DB) error { return db.AutoMigrate(&models.User{}, &models.ChessInfo{}) }
	dropUserTableFn      = func(db *gorm.DB) error { return db.Migrator().DropTable(&models.User{}) }
	dropChessInfoTableFn = func(db *gorm.DB) error { return db.Migrator().DropTable(&models.ChessInfo{}) }
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := openSQLite(dsn)
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	if err := migrateSchema(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SeedUser inserts a user, optionally linked to a Chess.com username.
func SeedUser(t *testing.T, db *gorm.DB, googleID, chessUsername string) *models.User {
	t.Helper()
	user := &models.User{GoogleID: googleID, Email: googleID + "@example.com", Name: googleID}
	if chessUsername != "" {
		user.ChessUsername = &chessUsername
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", googleID, err)
	}
	return user
}

// DropUserTable removes the users table to force repository errors.
func DropUserTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := dropUserTableFn(db); err != nil {
		panic(fmt.Sprintf("failed to drop user table: %v", err))
	}
}

// DropChessInfoTable removes the chess_infos table to force repository errors.
func DropChessInfoTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := dropChessInfoTableFn(db); err != nil {
		panic(fmt.Sprintf("failed to drop chess info table: %v", err))
	}
}

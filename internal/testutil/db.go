// Package testutil provides an in-memory database for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mlm-platform/internal/database"
	"mlm-platform/internal/models"
)

// NewTestDB opens a private SQLite memory database with every table migrated.
// A single connection is kept open so concurrent goroutines serialize on it
// the way row locks serialize them on PostgreSQL.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

// CreateUser inserts a user under referrerID (nil for a root)
func CreateUser(t testing.TB, db *gorm.DB, referrerID *uint, active bool) *models.User {
	t.Helper()

	var count int64
	db.Model(&models.User{}).Count(&count)
	user := &models.User{
		WalletAddress:    fmt.Sprintf("wallet-%d", count+1),
		Nickname:         fmt.Sprintf("member_%d", count+1),
		MembershipStatus: active,
		ReferrerID:       referrerID,
		WalletBalance:    decimal.Zero,
		LevelIncome:      decimal.Zero,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CreateChain builds a line of n active users, each referred by the previous
// one. chain[0] is the root.
func CreateChain(t testing.TB, db *gorm.DB, n int) []*models.User {
	t.Helper()

	chain := make([]*models.User, 0, n)
	var parent *uint
	for i := 0; i < n; i++ {
		u := CreateUser(t, db, parent, true)
		chain = append(chain, u)
		id := u.ID
		parent = &id
	}
	return chain
}

// SeedCatalog inserts one reward definition per level 1..5
func SeedCatalog(t testing.TB, db *gorm.DB) []models.RewardDefinition {
	t.Helper()

	defs := []models.RewardDefinition{
		{Slug: "level-1-bonus", Level: 1, ReqMembers: 10, Amount: decimal.NewFromInt(100), Name: "Level 1 Bonus"},
		{Slug: "level-2-bonus", Level: 2, ReqMembers: 100, Amount: decimal.NewFromInt(500), Name: "Level 2 Bonus"},
		{Slug: "level-3-bonus", Level: 3, ReqMembers: 1000, Amount: decimal.NewFromInt(2500), Name: "Level 3 Bonus"},
		{Slug: "level-4-bonus", Level: 4, ReqMembers: 10000, Amount: decimal.NewFromInt(10000), Name: "Level 4 Bonus"},
		{Slug: "level-5-bonus", Level: 5, ReqMembers: 100000, Amount: decimal.NewFromInt(50000), Name: "Level 5 Bonus"},
	}
	if err := db.Create(&defs).Error; err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	return defs
}

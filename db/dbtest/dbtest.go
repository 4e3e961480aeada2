// Package dbtest opens throwaway sqlite databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/techagentng/marketplace/db"
	"github.com/techagentng/marketplace/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Uint64

// New returns a migrated, seeded in-memory database private to t.
func New(t testing.TB) *db.GormDB {
	t.Helper()
	dsn := fmt.Sprintf("file:marketplace_%d?mode=memory&cache=shared&_foreign_keys=on", seq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	g := &db.GormDB{DB: gdb}
	if err := g.Init(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return g
}

func CreateUser(t testing.TB, g *db.GormDB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	if err := g.DB.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func CreateStaff(t testing.TB, g *db.GormDB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", IsStaff: true}
	if err := g.DB.Create(u).Error; err != nil {
		t.Fatalf("create staff %s: %v", username, err)
	}
	return u
}

// CreateListing stores a listing for seller in the first seeded category.
func CreateListing(t testing.TB, g *db.GormDB, seller *models.User, title, status string) *models.Listing {
	t.Helper()
	var category models.Category
	if err := g.DB.Order("id").First(&category).Error; err != nil {
		t.Fatalf("category: %v", err)
	}
	l := &models.Listing{
		Title:       title,
		Description: title + " description",
		Price:       decimal.NewFromInt(10),
		CategoryID:  &category.ID,
		Location:    "Lagos",
		SellerID:    seller.ID,
		Status:      status,
		Condition:   models.DefaultCondition,
	}
	if err := g.DB.Omit("Seller", "Category").Create(l).Error; err != nil {
		t.Fatalf("create listing %s: %v", title, err)
	}
	return l
}

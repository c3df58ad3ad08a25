package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// setupRepositoryTestDB 每个用例独立的内存库，走与服务启动相同的打开流程
func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.Open(models.DBOptions{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:repository_%d?mode=memory&cache=shared", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func mustCreate[T any](t *testing.T, db *gorm.DB, row *T) *T {
	t.Helper()
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create %T failed: %v", row, err)
	}
	return row
}

func createTestProduct(t *testing.T, db *gorm.DB, name, category string, stock int) *models.Product {
	t.Helper()
	return mustCreate(t, db, &models.Product{Name: name, Category: category, Stock: stock, Price: models.MustMoney("2.50")})
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	return mustCreate(t, db, &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
	})
}

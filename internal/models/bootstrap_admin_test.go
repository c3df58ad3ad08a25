package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openModelsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:models_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func TestEnsureBootstrapAdminCreatesOnce(t *testing.T) {
	db := openModelsTestDB(t)

	created, err := EnsureBootstrapAdmin(db, " owner ", "S3cure-pass!")
	if err != nil || !created {
		t.Fatalf("first call should create admin, created=%v err=%v", created, err)
	}
	var admin Admin
	if err := db.Where("username = ?", "owner").Take(&admin).Error; err != nil {
		t.Fatalf("load admin failed: %v", err)
	}
	if !admin.IsSuper {
		t.Fatalf("bootstrap admin should be super")
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("S3cure-pass!")) != nil {
		t.Fatalf("password hash mismatch")
	}

	created, err = EnsureBootstrapAdmin(db, "another", "x")
	if err != nil || created {
		t.Fatalf("second call should be a no-op, created=%v err=%v", created, err)
	}
	var count int64
	db.Model(&Admin{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single admin, got %d", count)
	}
}

func TestEnsureBootstrapAdminPromotesDefaultAccount(t *testing.T) {
	db := openModelsTestDB(t)
	if err := db.Create(&Admin{Username: "admin", PasswordHash: "x"}).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if _, err := EnsureBootstrapAdmin(db, "", ""); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	var admin Admin
	db.Where("username = ?", "admin").Take(&admin)
	if !admin.IsSuper {
		t.Fatalf("existing admin account should be promoted to super")
	}
}

package repository

import (
	"testing"

	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"
)

func TestUserRepositoryListRestockSubscribers(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewUserRepository(db)
	plain := createTestUser(t, db, "ivy")
	optedIn := createTestUser(t, db, "jack")
	optedOut := createTestUser(t, db, "kate")
	disabled := createTestUser(t, db, "liam")

	in := models.DefaultPreference(optedIn.ID, constants.DefaultLowStockThreshold)
	mustCreate(t, db, &in)
	out := models.DefaultPreference(optedOut.ID, constants.DefaultLowStockThreshold)
	out.RestockEmailAlerts = false
	mustCreate(t, db, &out)
	if err := db.Model(&models.User{}).Where("id = ?", disabled.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}

	users, err := repo.ListRestockSubscribers()
	if err != nil {
		t.Fatalf("list subscribers failed: %v", err)
	}
	if len(users) != 2 || users[0].ID != plain.ID || users[1].ID != optedIn.ID {
		t.Fatalf("expected [%d %d], got %+v", plain.ID, optedIn.ID, users)
	}
}

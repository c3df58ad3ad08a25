package repository

import (
	"testing"
	"time"

	"github.com/candy-store/internal/models"
)

func TestStockAlertRepositoryPendingUniqueness(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewStockAlertRepository(db)
	product := createTestProduct(t, db, "Jelly Beans", "Gummies", 0)
	user := createTestUser(t, db, "erin")

	first := &models.StockAlert{UserID: user.ID, ProductID: product.ID}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create alert failed: %v", err)
	}
	if err := repo.Create(&models.StockAlert{UserID: user.ID, ProductID: product.ID}); err == nil {
		t.Fatalf("expected duplicate pending alert to be rejected")
	}

	affected, err := repo.MarkNotified(first.ID, time.Now())
	if err != nil || affected != 1 {
		t.Fatalf("mark notified failed: affected=%d err=%v", affected, err)
	}
	affected, err = repo.MarkNotified(first.ID, time.Now())
	if err != nil || affected != 0 {
		t.Fatalf("second mark should be a no-op: affected=%d err=%v", affected, err)
	}

	if err := repo.Create(&models.StockAlert{UserID: user.ID, ProductID: product.ID}); err != nil {
		t.Fatalf("re-request after notification should be allowed: %v", err)
	}
}

func TestStockAlertRepositoryListPendingInStock(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewStockAlertRepository(db)
	restocked := createTestProduct(t, db, "Candy Corn", "Seasonal", 4)
	empty := createTestProduct(t, db, "Peppermint", "Hard Candy", 0)
	user := createTestUser(t, db, "frank")

	_ = repo.Create(&models.StockAlert{UserID: user.ID, ProductID: restocked.ID})
	_ = repo.Create(&models.StockAlert{UserID: user.ID, ProductID: empty.ID})

	alerts, err := repo.ListPendingInStock()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].ProductID != restocked.ID || alerts[0].Product == nil {
		t.Fatalf("unexpected pending in-stock alerts: %+v", alerts)
	}
}

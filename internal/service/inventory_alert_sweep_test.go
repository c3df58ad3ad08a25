package service

import (
	"strings"
	"testing"
	"time"

	"github.com/candy-store/internal/models"
)

func newTestSweep(env *storeTestEnv) *InventoryAlertSweep {
	sweep := NewInventoryAlertSweep(env.cfg, env.watchlistRepo, env.alertRepo, env.prefRepo, env.userRepo, env.logRepo, env.mailer, env.engine)
	sweep.SetClock(env.clock.Now)
	return sweep
}

func TestInventoryAlertSweepGroupsLowStockPerUser(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	bears := env.createProduct(t, "Gummy Bears", 2)
	worms := env.createProduct(t, "Sour Worms", 4)
	plenty := env.createProduct(t, "Jelly Beans", 50)
	alice := env.createUser(t, "alice", true)
	bob := env.createUser(t, "bob", true)
	env.updatePreference(t, bob.ID, func(pref *models.Preference) {
		pref.LowStockEmailAlerts = false
	})

	env.watch(t, alice.ID, bears.ID, nil)
	env.watch(t, alice.ID, worms.ID, intPtr(5))
	env.watch(t, alice.ID, plenty.ID, nil)
	env.watch(t, bob.ID, bears.ID, nil)

	sweep := newTestSweep(env)
	result, err := sweep.Run(t.Context())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.LowStockEmails != 1 || result.LowStockItems != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	mails := env.mailer.to(alice.Email)
	if len(mails) != 1 {
		t.Fatalf("alice should receive one digest, got %d", len(mails))
	}
	if !containsAll(mails[0].Body, "Gummy Bears - Only 2 left", "Sour Worms - Only 4 left! (Alert threshold: 5)") {
		t.Fatalf("digest should list both items:\n%s", mails[0].Body)
	}
	if strings.Contains(mails[0].Body, "Jelly Beans") {
		t.Fatalf("digest must not include items above threshold")
	}
	if len(env.mailer.to(bob.Email)) != 0 {
		t.Fatalf("bob disabled low stock alerts")
	}

	again, err := sweep.Run(t.Context())
	if err != nil || again.LowStockEmails != 0 {
		t.Fatalf("second run within cooldown should not resend: %+v err=%v", again, err)
	}
	env.clock.Advance(25 * time.Hour)
	later, err := sweep.Run(t.Context())
	if err != nil || later.LowStockEmails != 1 {
		t.Fatalf("run after cooldown should resend: %+v err=%v", later, err)
	}
}

func TestInventoryAlertSweepRestock(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	toffee := env.createProduct(t, "Toffee", 3)
	fudge := env.createProduct(t, "Fudge", 6)
	soldOut := env.createProduct(t, "Nougat", 0)
	alice := env.createUser(t, "alice", true)
	bob := env.createUser(t, "bob", true)
	env.mailer.failFor[bob.Email] = errMailboxUnavailable

	for _, alert := range []models.StockAlert{
		{UserID: alice.ID, ProductID: toffee.ID},
		{UserID: alice.ID, ProductID: fudge.ID},
		{UserID: alice.ID, ProductID: soldOut.ID},
		{UserID: bob.ID, ProductID: toffee.ID},
	} {
		record := alert
		if err := env.alertRepo.Create(&record); err != nil {
			t.Fatalf("create alert failed: %v", err)
		}
	}

	result, err := newTestSweep(env).Run(t.Context())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.RestockEmails != 1 || result.RestockAlerts != 2 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	mails := env.mailer.to(alice.Email)
	if len(mails) != 1 || mails[0].Subject != "✅ 2 Items Back in Stock!" {
		t.Fatalf("alice should receive a grouped restock email, got %+v", mails)
	}
	if pending, _ := env.alertRepo.GetPending(alice.ID, soldOut.ID); pending == nil {
		t.Fatalf("sold out alert should stay pending")
	}
	if pending, _ := env.alertRepo.GetPending(bob.ID, toffee.ID); pending == nil {
		t.Fatalf("failed send should keep alert pending")
	}
}

func TestInventoryAlertSweepInterval(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	if got := newTestSweep(env).Interval(); got != time.Hour {
		t.Fatalf("expected 1h interval, got %v", got)
	}
	sweep := NewInventoryAlertSweep(nil, nil, nil, nil, nil, nil, nil, nil)
	if got := sweep.Interval(); got != time.Hour {
		t.Fatalf("default interval should be 1h, got %v", got)
	}
}

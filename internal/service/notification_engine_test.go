package service

import (
	"strings"
	"testing"
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

func TestApplyStockChangeHybridThresholds(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Gummy Bears", 20)

	watcher := env.createUser(t, "watcher", true)
	buyer := env.createUser(t, "buyer", true)
	hybrid := env.createUser(t, "hybrid", true)

	env.watch(t, watcher.ID, product.ID, intPtr(10))
	env.recordPurchase(t, buyer.ID, product)
	env.recordPurchase(t, hybrid.ID, product)
	env.watch(t, hybrid.ID, product.ID, intPtr(5))

	env.setStock(t, product, 8)
	if got := len(env.mailer.to(watcher.Email)); got != 1 {
		t.Fatalf("stock 8: expected watcher email, got %d", got)
	}
	if len(env.mailer.to(buyer.Email)) != 0 || len(env.mailer.to(hybrid.Email)) != 0 {
		t.Fatalf("stock 8: buyer and hybrid should not be notified")
	}

	env.setStock(t, product, 4)
	if got := len(env.mailer.to(watcher.Email)); got != 2 {
		t.Fatalf("stock 4: expected 2 watcher emails, got %d", got)
	}
	if got := len(env.mailer.to(hybrid.Email)); got != 1 {
		t.Fatalf("stock 4: expected hybrid email, got %d", got)
	}
	if len(env.mailer.to(buyer.Email)) != 0 {
		t.Fatalf("stock 4: buyer threshold 3 should not trigger")
	}

	report := env.setStock(t, product, 2)
	if got := len(env.mailer.to(buyer.Email)); got != 1 {
		t.Fatalf("stock 2: expected buyer email, got %d", got)
	}
	if got := len(env.mailer.to(hybrid.Email)); got != 2 {
		t.Fatalf("stock 2: expected exactly one email per event for hybrid, got %d", got)
	}
	if report.Sent() != 3 {
		t.Fatalf("stock 2: expected 3 sends, got %d", report.Sent())
	}

	buyerMail := env.mailer.to(buyer.Email)[0]
	if !strings.Contains(buyerMail.Body, "You previously purchased") {
		t.Fatalf("buyer should receive history wording: %q", buyerMail.Body)
	}
	for _, mail := range env.mailer.to(hybrid.Email) {
		if !strings.Contains(mail.Body, "An item on your watchlist is running low") {
			t.Fatalf("hybrid should receive watchlist wording: %q", mail.Body)
		}
		if strings.Contains(mail.Body, "You previously purchased") {
			t.Fatalf("hybrid must not receive history wording")
		}
	}
	if !containsAll(env.mailer.to(watcher.Email)[0].Body, "Gummy Bears", "Only 8 left", "threshold: 10") {
		t.Fatalf("watcher mail should carry product, stock and threshold")
	}
}

func TestApplyStockChangeUnchangedStockIsNoop(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Lollipop", 2)
	user := env.createUser(t, "alice", true)
	env.watch(t, user.ID, product.ID, intPtr(10))
	env.recordPurchase(t, user.ID, product)

	report, err := env.engine.ApplyStockChange(t.Context(), product, 2, 2)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(report.Deliveries) != 0 || len(env.mailer.all()) != 0 {
		t.Fatalf("unchanged stock must not notify, deliveries=%d", len(report.Deliveries))
	}
}

func TestApplyStockChangeCooldown(t *testing.T) {
	cases := []struct {
		name          string
		enabled       bool
		watcherEmails int
		buyerEmails   int
	}{
		{name: "enabled", enabled: true, watcherEmails: 2, buyerEmails: 1},
		{name: "disabled", enabled: false, watcherEmails: 4, buyerEmails: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newStoreTestEnv(t, func(cfg *config.Config) {
				cfg.Notify.LowStockCooldownEnabled = tc.enabled
			})
			product := env.createProduct(t, "Jelly Beans", 20)
			watcher := env.createUser(t, "watcher", true)
			buyer := env.createUser(t, "buyer", true)
			env.watch(t, watcher.ID, product.ID, intPtr(10))
			env.recordPurchase(t, buyer.ID, product)

			env.setStock(t, product, 8)
			env.clock.Advance(time.Hour)
			env.setStock(t, product, 6)
			env.clock.Advance(25 * time.Hour)
			env.setStock(t, product, 3)
			env.clock.Advance(time.Hour)
			report := env.setStock(t, product, 2)

			if got := len(env.mailer.to(watcher.Email)); got != tc.watcherEmails {
				t.Fatalf("expected %d watcher emails, got %d", tc.watcherEmails, got)
			}
			if got := len(env.mailer.to(buyer.Email)); got != tc.buyerEmails {
				t.Fatalf("expected %d buyer emails, got %d", tc.buyerEmails, got)
			}
			if tc.enabled {
				for _, d := range report.Deliveries {
					if d.Status != constants.NotificationStatusSkipped || d.Reason != skipReasonCooldown {
						t.Fatalf("expected cooldown skip, got %+v", d)
					}
				}
			}

			entry, err := env.watchlistRepo.GetByUserAndProduct(watcher.ID, product.ID)
			if err != nil || entry == nil || entry.LastNotified == nil {
				t.Fatalf("last_notified should be recorded after send: %+v err=%v", entry, err)
			}
		})
	}
}

func TestApplyStockChangeDedupeIsPerStockEvent(t *testing.T) {
	startRedis(t)
	env := newStoreTestEnv(t, func(cfg *config.Config) {
		cfg.Notify.LowStockCooldownEnabled = false
		cfg.Notify.DedupeSeconds = 60
	})
	product := env.createProduct(t, "Sour Worms", 100)
	buyer := env.createUser(t, "buyer", false)
	env.recordPurchase(t, buyer.ID, product)

	env.setStock(t, product, 2)
	env.setStock(t, product, 50)
	env.setStock(t, product, 2)

	if got := len(env.mailer.to(buyer.Email)); got != 2 {
		t.Fatalf("expected 2 buyer emails for two separate drops, got %d", got)
	}
}

func TestApplyStockChangeReplayedEventIsSkipped(t *testing.T) {
	startRedis(t)
	env := newStoreTestEnv(t, func(cfg *config.Config) {
		cfg.Notify.LowStockCooldownEnabled = false
		cfg.Notify.DedupeSeconds = 60
	})
	product := env.createProduct(t, "Gummy Bears", 20)
	buyer := env.createUser(t, "buyer", false)
	env.recordPurchase(t, buyer.ID, product)

	env.setStockEvent(t, product, 2, "evt-1")
	report, err := env.engine.ApplyStockChange(WithStockEvent(t.Context(), "evt-1"), product, 20, 2)
	if err != nil {
		t.Fatalf("replay stock change failed: %v", err)
	}

	if got := len(env.mailer.to(buyer.Email)); got != 1 {
		t.Fatalf("replayed event should not resend, got %d emails", got)
	}
	if len(report.Deliveries) != 1 || report.Deliveries[0].Reason != skipReasonDuplicate {
		t.Fatalf("expected duplicate skip on replay, got %+v", report.Deliveries)
	}
}

func TestApplyStockChangeRestockIsOneShot(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Sour Worms", 0)
	alice := env.createUser(t, "alice", true)
	bob := env.createUser(t, "bob", true)
	carol := env.createUser(t, "carol", true)
	env.updatePreference(t, bob.ID, func(pref *models.Preference) {
		pref.RestockEmailAlerts = false
	})

	for _, userID := range []uint{alice.ID, bob.ID} {
		if err := env.alertRepo.Create(&models.StockAlert{UserID: userID, ProductID: product.ID}); err != nil {
			t.Fatalf("create alert failed: %v", err)
		}
	}

	env.setStock(t, product, 5)
	aliceMails := env.mailer.to(alice.Email)
	if len(aliceMails) != 1 || !strings.HasPrefix(aliceMails[0].Subject, "✅ Back in Stock") {
		t.Fatalf("alice should receive one restock email, got %+v", aliceMails)
	}
	if len(env.mailer.to(bob.Email)) != 0 || len(env.mailer.to(carol.Email)) != 0 {
		t.Fatalf("only alice should be notified")
	}
	pending, err := env.alertRepo.GetPending(alice.ID, product.ID)
	if err != nil || pending != nil {
		t.Fatalf("alice alert should be marked notified, pending=%+v err=%v", pending, err)
	}

	env.setStock(t, product, 0)
	env.setStock(t, product, 3)
	if got := len(env.mailer.to(alice.Email)); got != 1 {
		t.Fatalf("notified alert must not fire again, got %d", got)
	}
}

func TestApplyStockChangeBroadcastDoesNotDoubleSend(t *testing.T) {
	env := newStoreTestEnv(t, func(cfg *config.Config) {
		cfg.Notify.RestockBroadcast = true
	})
	product := env.createProduct(t, "Toffee", -1)
	alice := env.createUser(t, "alice", true)
	carol := env.createUser(t, "carol", false)
	dave := env.createUser(t, "dave", true)
	env.updatePreference(t, dave.ID, func(pref *models.Preference) {
		pref.RestockEmailAlerts = false
	})
	if err := env.alertRepo.Create(&models.StockAlert{UserID: alice.ID, ProductID: product.ID}); err != nil {
		t.Fatalf("create alert failed: %v", err)
	}

	report := env.setStock(t, product, 4)
	if got := len(env.mailer.to(alice.Email)); got != 1 {
		t.Fatalf("alice should receive exactly one restock email, got %d", got)
	}
	if got := len(env.mailer.to(carol.Email)); got != 1 {
		t.Fatalf("carol should receive broadcast, got %d", got)
	}
	if len(env.mailer.to(dave.Email)) != 0 {
		t.Fatalf("dave disabled restock alerts")
	}
	recipients := report.Recipients(constants.NotificationKindRestock)
	if len(recipients) != 2 {
		t.Fatalf("expected 2 restock recipients, got %v", recipients)
	}
}

func TestApplyStockChangeSkipsDisabledUsers(t *testing.T) {
	env := newStoreTestEnv(t, func(cfg *config.Config) {
		cfg.Notify.RestockBroadcast = true
	})
	product := env.createProduct(t, "Caramels", 0)
	active := env.createUser(t, "active", false)
	banned := env.createUser(t, "banned", false)
	alerted := env.createUser(t, "alerted", false)
	if err := env.alertRepo.Create(&models.StockAlert{UserID: alerted.ID, ProductID: product.ID}); err != nil {
		t.Fatalf("create alert failed: %v", err)
	}
	for _, id := range []uint{banned.ID, alerted.ID} {
		if err := env.db.Model(&models.User{}).Where("id = ?", id).Update("status", constants.UserStatusDisabled).Error; err != nil {
			t.Fatalf("disable user failed: %v", err)
		}
	}

	report := env.setStock(t, product, 5)
	if got := len(env.mailer.to(active.Email)); got != 1 {
		t.Fatalf("active user should receive broadcast, got %d", got)
	}
	if len(env.mailer.to(banned.Email)) != 0 || len(env.mailer.to(alerted.Email)) != 0 {
		t.Fatalf("disabled users must not be mailed")
	}
	for _, d := range report.Deliveries {
		if d.UserID == alerted.ID && d.Reason != skipReasonInactive {
			t.Fatalf("expected inactive skip for disabled alert owner, got %+v", d)
		}
	}
}

func TestApplyStockChangeSendFailureContinues(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Caramel Chews", 0)
	alice := env.createUser(t, "alice", true)
	bob := env.createUser(t, "bob", true)
	env.mailer.failFor[alice.Email] = errMailboxUnavailable
	for _, userID := range []uint{alice.ID, bob.ID} {
		if err := env.alertRepo.Create(&models.StockAlert{UserID: userID, ProductID: product.ID}); err != nil {
			t.Fatalf("create alert failed: %v", err)
		}
	}

	report, err := env.engine.ApplyStockChange(t.Context(), product, 0, 6)
	if err != nil {
		t.Fatalf("send failures must not surface as errors: %v", err)
	}
	if len(env.mailer.to(bob.Email)) != 1 {
		t.Fatalf("bob should still be notified")
	}
	pending, err := env.alertRepo.GetPending(alice.ID, product.ID)
	if err != nil || pending == nil {
		t.Fatalf("failed send should leave alert pending")
	}
	if report.Sent() != 1 {
		t.Fatalf("expected one successful send, got %d", report.Sent())
	}
	logs, total, err := env.logRepo.List(repository.NotificationLogListFilter{Status: constants.NotificationStatusFailed})
	if err != nil || total != 1 || logs[0].Recipient != alice.Email {
		t.Fatalf("expected failed log for alice, total=%d err=%v", total, err)
	}
}

func TestApplyStockChangeRespectsPreferences(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Licorice", 10)
	noPref := env.createUser(t, "nopref", false)
	optedOut := env.createUser(t, "optedout", true)
	env.updatePreference(t, optedOut.ID, func(pref *models.Preference) {
		pref.LowStockEmailAlerts = false
	})
	env.watch(t, noPref.ID, product.ID, nil)
	env.watch(t, optedOut.ID, product.ID, intPtr(50))
	env.recordPurchase(t, optedOut.ID, product)

	env.setStock(t, product, 3)
	if len(env.mailer.to(noPref.Email)) != 1 {
		t.Fatalf("missing preference should default to enabled with threshold 3")
	}
	if len(env.mailer.to(optedOut.Email)) != 0 {
		t.Fatalf("opted-out user must not receive low stock email")
	}
}

func TestApplyStockChangeSkipsUsersWithoutEmail(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Mints", 5)
	user := env.createUser(t, "silent", true)
	if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("email", "").Error; err != nil {
		t.Fatalf("clear email failed: %v", err)
	}
	env.watch(t, user.ID, product.ID, nil)

	report := env.setStock(t, product, 1)
	if len(env.mailer.all()) != 0 {
		t.Fatalf("user without email must not be mailed")
	}
	if len(report.Deliveries) != 1 || report.Deliveries[0].Reason != skipReasonNoEmail {
		t.Fatalf("expected no_email skip, got %+v", report.Deliveries)
	}
}

func TestEffectiveThresholdPrecedence(t *testing.T) {
	engine := NewNotificationEngine(newTestConfig(), nil, nil, nil, nil, nil, nil, nil)
	pref := &models.Preference{LowStockThreshold: 7}

	if got := engine.EffectiveThreshold(&models.WatchlistEntry{CustomThreshold: intPtr(12)}, pref); got != 12 {
		t.Fatalf("custom threshold should win, got %d", got)
	}
	if got := engine.EffectiveThreshold(&models.WatchlistEntry{CustomThreshold: intPtr(0)}, pref); got != 0 {
		t.Fatalf("explicit zero custom threshold should be honoured, got %d", got)
	}
	if got := engine.EffectiveThreshold(&models.WatchlistEntry{}, pref); got != 7 {
		t.Fatalf("global threshold expected, got %d", got)
	}
	if got := engine.EffectiveThreshold(&models.WatchlistEntry{}, nil); got != constants.DefaultLowStockThreshold {
		t.Fatalf("default threshold expected, got %d", got)
	}
}

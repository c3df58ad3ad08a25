package worker

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/candy-store/internal/cache"
	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/provider"
	"github.com/candy-store/internal/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func newTestConsumer(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{
		Notify: config.NotifyConfig{DefaultLowStockThreshold: 3, LowStockCooldownHours: 24, DedupeSeconds: 60},
	}
	return NewConsumer(provider.NewContainerWithDB(cfg, db, nil)), db
}

func countLogs(t *testing.T, db *gorm.DB, kind string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.NotificationLog{}).Where("kind = ?", kind).Count(&count).Error; err != nil {
		t.Fatalf("count logs failed: %v", err)
	}
	return count
}

func TestHandleStockChangedRunsEngine(t *testing.T) {
	consumer, db := newTestConsumer(t)
	product := &models.Product{Name: "Gumdrop", Price: models.MustMoney("0.30"), Stock: 6}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	user := &models.User{Username: "dana", Email: "dana@example.com", PasswordHash: "hash", Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if err := db.Create(&models.StockAlert{UserID: user.ID, ProductID: product.ID}).Error; err != nil {
		t.Fatalf("create alert failed: %v", err)
	}

	task, err := queue.NewTask(queue.StockChangedPayload{ProductID: product.ID, OldStock: 0, NewStock: 6})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleStockChanged(context.Background(), task); err != nil {
		t.Fatalf("handle stock changed failed: %v", err)
	}
	if got := countLogs(t, db, constants.NotificationKindRestock); got != 1 {
		t.Fatalf("expected one restock attempt, got %d", got)
	}
}

func TestHandleStockChangedRedeliveryIsDeduped(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("parse miniredis port failed: %v", err)
	}
	if err := cache.InitRedis(&config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	t.Cleanup(cache.CloseRedis)

	consumer, db := newTestConsumer(t)
	product := &models.Product{Name: "Fudge", Price: models.MustMoney("1.20"), Stock: 5}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	user := &models.User{Username: "erin", Email: "erin@example.com", PasswordHash: "hash", Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if err := db.Create(&models.StockAlert{UserID: user.ID, ProductID: product.ID}).Error; err != nil {
		t.Fatalf("create alert failed: %v", err)
	}

	payload := queue.StockChangedPayload{EventID: "evt-redelivered", ProductID: product.ID, OldStock: 0, NewStock: 5}
	for i := 0; i < 2; i++ {
		task, err := queue.NewTask(payload)
		if err != nil {
			t.Fatalf("build task failed: %v", err)
		}
		if err := consumer.handleStockChanged(context.Background(), task); err != nil {
			t.Fatalf("handle stock changed failed: %v", err)
		}
	}
	if got := countLogs(t, db, constants.NotificationKindRestock); got != 1 {
		t.Fatalf("redelivered event should attempt once, got %d", got)
	}
}

func TestHandleStockChangedSkipsUnknownProduct(t *testing.T) {
	consumer, _ := newTestConsumer(t)
	task, err := queue.NewTask(queue.StockChangedPayload{ProductID: 404, OldStock: 0, NewStock: 3})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleStockChanged(context.Background(), task); err != nil {
		t.Fatalf("missing product should be dropped, got %v", err)
	}
	same, _ := queue.NewTask(queue.StockChangedPayload{ProductID: 1, OldStock: 3, NewStock: 3})
	if err := consumer.handleStockChanged(context.Background(), same); err != nil {
		t.Fatalf("unchanged stock should be dropped, got %v", err)
	}
}

func TestHandleOrderStatusEmailSkipsMissingOrder(t *testing.T) {
	consumer, _ := newTestConsumer(t)
	task, err := queue.NewTask(queue.OrderStatusEmailPayload{OrderID: 77, Status: constants.OrderStatusShipped})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleOrderStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("missing order should be dropped, got %v", err)
	}
}

func TestHandleAlertSweepAcceptsEmptyPayload(t *testing.T) {
	consumer, _ := newTestConsumer(t)
	if err := consumer.handleAlertSweep(context.Background(), asynq.NewTask(queue.TaskAlertSweep, nil)); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
}

func TestTriggerSweepRunsInlineWithoutQueue(t *testing.T) {
	consumer, db := newTestConsumer(t)
	product := &models.Product{Name: "Toffee", Price: models.MustMoney("1.10"), Stock: 4}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	user := &models.User{Username: "erin", Email: "erin@example.com", PasswordHash: "hash", Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if err := db.Create(&models.StockAlert{UserID: user.ID, ProductID: product.ID}).Error; err != nil {
		t.Fatalf("create alert failed: %v", err)
	}

	consumer.TriggerSweep(context.Background(), "scheduler", time.Minute)
	if got := countLogs(t, db, constants.NotificationKindRestock); got != 1 {
		t.Fatalf("expected inline sweep to attempt one restock email, got %d", got)
	}
}

func TestNewSweepSchedulerRequiresSweepEnabled(t *testing.T) {
	consumer, _ := newTestConsumer(t)
	if NewSweepScheduler(consumer) != nil {
		t.Fatalf("scheduler should be nil when sweep is disabled")
	}
	consumer.Config.Notify.SweepEnabled = true
	scheduler := NewSweepScheduler(consumer)
	if scheduler == nil || scheduler.Name() != "sweep" {
		t.Fatalf("expected sweep scheduler, got %+v", scheduler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("start with cancelled context should return nil, got %v", err)
	}
}

package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/candy-store/internal/cache"
	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{failFor: map[string]error{}}
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) all() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMail, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *recordingMailer) to(addr string) []sentMail {
	out := make([]sentMail, 0)
	for _, mail := range m.all() {
		if mail.To == addr {
			out = append(out, mail)
		}
	}
	return out
}

func (m *recordingMailer) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type storeTestEnv struct {
	db            *gorm.DB
	cfg           *config.Config
	mailer        *recordingMailer
	clock         *testClock
	productRepo   *repository.GormProductRepository
	orderRepo     *repository.GormOrderRepository
	userRepo      *repository.GormUserRepository
	prefRepo      *repository.GormPreferenceRepository
	watchlistRepo *repository.GormWatchlistRepository
	alertRepo     *repository.GormStockAlertRepository
	cartRepo      *repository.GormCartRepository
	favoriteRepo  *repository.GormFavoriteRepository
	reviewRepo    *repository.GormReviewRepository
	logRepo       *repository.GormNotificationLogRepository
	engine        *NotificationEngine
	notifier      *StockChangeNotifier
	orders        *OrderService
	inventory     *InventoryService
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		UserJWT: config.JWTConfig{SecretKey: "user-secret", ExpireHours: 24, RememberMeExpireHours: 24 * 7},
		JWT:     config.JWTConfig{SecretKey: "admin-secret", ExpireHours: 12},
		Order:   config.OrderConfig{ShipAfterSeconds: 60, DeliverAfterSeconds: 120},
		Notify: config.NotifyConfig{
			DefaultLowStockThreshold: 3,
			LowStockCooldownHours:    24,
			SweepIntervalMinutes:     60,
		},
		Store: config.StoreConfig{Name: "Keanu's Candy Store", BaseURL: "http://localhost:8000"},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8},
		},
	}
}

func newStoreTestEnv(t *testing.T, mutate func(cfg *config.Config)) *storeTestEnv {
	t.Helper()
	cfg := newTestConfig()
	if mutate != nil {
		mutate(cfg)
	}
	db := setupServiceTestDB(t)
	env := &storeTestEnv{
		db:            db,
		cfg:           cfg,
		mailer:        newRecordingMailer(),
		clock:         newTestClock(),
		productRepo:   repository.NewProductRepository(db),
		orderRepo:     repository.NewOrderRepository(db),
		userRepo:      repository.NewUserRepository(db),
		prefRepo:      repository.NewPreferenceRepository(db),
		watchlistRepo: repository.NewWatchlistRepository(db),
		alertRepo:     repository.NewStockAlertRepository(db),
		cartRepo:      repository.NewCartRepository(db),
		favoriteRepo:  repository.NewFavoriteRepository(db),
		reviewRepo:    repository.NewReviewRepository(db),
		logRepo:       repository.NewNotificationLogRepository(db),
	}
	env.engine = NewNotificationEngine(cfg, env.orderRepo, env.userRepo, env.prefRepo, env.watchlistRepo, env.alertRepo, env.logRepo, env.mailer)
	env.engine.SetClock(env.clock.Now)
	env.notifier = NewStockChangeNotifier(cfg, env.engine, nil)
	env.orders = NewOrderService(cfg, env.orderRepo, env.productRepo, env.cartRepo, env.watchlistRepo, env.userRepo, env.logRepo, nil, env.mailer, env.notifier)
	env.orders.SetClock(env.clock.Now)
	env.inventory = NewInventoryService(env.productRepo, env.notifier)
	return env
}

func (env *storeTestEnv) createProduct(t *testing.T, name string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Price:    models.MustMoney("2.50"),
		Stock:    stock,
		Category: "Gummies",
	}
	if err := env.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (env *storeTestEnv) createUser(t *testing.T, username string, withPreference bool) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
	}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if withPreference {
		pref := models.DefaultPreference(user.ID, constants.DefaultLowStockThreshold)
		if err := env.db.Create(&pref).Error; err != nil {
			t.Fatalf("create preference failed: %v", err)
		}
	}
	return user
}

func (env *storeTestEnv) updatePreference(t *testing.T, userID uint, mutate func(pref *models.Preference)) {
	t.Helper()
	pref, err := env.prefRepo.GetByUserID(userID)
	if err != nil || pref == nil {
		t.Fatalf("load preference failed: %v", err)
	}
	mutate(pref)
	if err := env.prefRepo.Update(pref); err != nil {
		t.Fatalf("update preference failed: %v", err)
	}
}

func (env *storeTestEnv) watch(t *testing.T, userID, productID uint, threshold *int) *models.WatchlistEntry {
	t.Helper()
	entry := &models.WatchlistEntry{UserID: userID, ProductID: productID, CustomThreshold: threshold}
	if err := env.watchlistRepo.Create(entry); err != nil {
		t.Fatalf("create watchlist entry failed: %v", err)
	}
	return entry
}

// recordPurchase 直接写入一笔历史订单（不扣库存）
func (env *storeTestEnv) recordPurchase(t *testing.T, userID uint, product *models.Product) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:    fmt.Sprintf("T%d_%d_%d", userID, product.ID, time.Now().UnixNano()),
		UserID:     &userID,
		Status:     constants.OrderStatusDelivered,
		TotalPrice: product.Price,
		FullName:   "Test Buyer",
		Address:    "1 Candy Lane",
		City:       "Sweetville",
		ZipCode:    "12345",
	}
	items := []models.OrderItem{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    1,
	}}
	if err := env.orderRepo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

// setStock 每次调用视为一次新的库存事件
func (env *storeTestEnv) setStock(t *testing.T, product *models.Product, stock int) *StockChangeReport {
	t.Helper()
	return env.setStockEvent(t, product, stock, uuid.NewString())
}

func (env *storeTestEnv) setStockEvent(t *testing.T, product *models.Product, stock int, eventID string) *StockChangeReport {
	t.Helper()
	old := product.Stock
	if err := env.db.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock", stock).Error; err != nil {
		t.Fatalf("update stock failed: %v", err)
	}
	product.Stock = stock
	report, err := env.engine.ApplyStockChange(WithStockEvent(t.Context(), eventID), product, old, stock)
	if err != nil {
		t.Fatalf("apply stock change failed: %v", err)
	}
	return report
}

func (env *storeTestEnv) stockOf(t *testing.T, productID uint) int {
	t.Helper()
	stock, err := env.productRepo.GetStock(productID)
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	return stock
}

// startRedis 启动内存 Redis 并接入全局缓存，测试结束后关闭
func startRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("parse miniredis port failed: %v", err)
	}
	if err := cache.InitRedis(&config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port, Prefix: "candy-test"}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	t.Cleanup(cache.CloseRedis)
	return mr
}

func intPtr(v int) *int {
	return &v
}

func containsAll(s string, parts ...string) bool {
	for _, part := range parts {
		if !strings.Contains(s, part) {
			return false
		}
	}
	return true
}

var errMailboxUnavailable = errors.New("550 mailbox unavailable")

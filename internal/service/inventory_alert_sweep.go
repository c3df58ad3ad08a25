package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

// SweepResult 批量巡检结果
type SweepResult struct {
	LowStockEmails int `json:"low_stock_emails"`
	LowStockItems  int `json:"low_stock_items"`
	RestockEmails  int `json:"restock_emails"`
	RestockAlerts  int `json:"restock_alerts"`
	Failed         int `json:"failed"`
}

// InventoryAlertSweep 按用户合并发送的批量库存提醒
type InventoryAlertSweep struct {
	cfg           config.NotifyConfig
	templates     mailTemplates
	watchlistRepo repository.WatchlistRepository
	alertRepo     repository.StockAlertRepository
	prefRepo      repository.PreferenceRepository
	userRepo      repository.UserRepository
	logRepo       repository.NotificationLogRepository
	mailer        Mailer
	engine        *NotificationEngine
	now           func() time.Time
}

// NewInventoryAlertSweep 创建批量巡检
func NewInventoryAlertSweep(cfg *config.Config, watchlistRepo repository.WatchlistRepository, alertRepo repository.StockAlertRepository, prefRepo repository.PreferenceRepository, userRepo repository.UserRepository, logRepo repository.NotificationLogRepository, mailer Mailer, engine *NotificationEngine) *InventoryAlertSweep {
	sweep := &InventoryAlertSweep{
		watchlistRepo: watchlistRepo,
		alertRepo:     alertRepo,
		prefRepo:      prefRepo,
		userRepo:      userRepo,
		logRepo:       logRepo,
		mailer:        mailer,
		engine:        engine,
		templates:     newMailTemplates(config.StoreConfig{}),
		now:           time.Now,
	}
	if cfg != nil {
		sweep.cfg = cfg.Notify
		sweep.templates = newMailTemplates(cfg.Store)
	}
	return sweep
}

// SetClock 注入时钟
func (s *InventoryAlertSweep) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Interval 巡检周期
func (s *InventoryAlertSweep) Interval() time.Duration {
	minutes := s.cfg.SweepIntervalMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

func (s *InventoryAlertSweep) cooldownWindow() time.Duration {
	hours := s.cfg.LowStockCooldownHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Run 执行一次巡检
func (s *InventoryAlertSweep) Run(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}
	if err := s.sweepLowStock(ctx, result); err != nil {
		return result, err
	}
	if err := s.sweepRestock(ctx, result); err != nil {
		return result, err
	}
	logger.Infow("inventory_alert_sweep_done",
		"low_stock_emails", result.LowStockEmails,
		"low_stock_items", result.LowStockItems,
		"restock_emails", result.RestockEmails,
		"restock_alerts", result.RestockAlerts,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *InventoryAlertSweep) sweepLowStock(ctx context.Context, result *SweepResult) error {
	entries, err := s.watchlistRepo.ListWithProducts()
	if err != nil {
		return fmt.Errorf("load watchlist: %w", err)
	}
	userIDs := make([]uint, 0, len(entries))
	for _, entry := range entries {
		userIDs = append(userIDs, entry.UserID)
	}
	prefs, users, err := s.loadRecipients(userIDs)
	if err != nil {
		return err
	}

	now := s.now()
	window := s.cooldownWindow()
	grouped := make(map[uint][]*models.WatchlistEntry)
	order := make([]uint, 0)
	for i := range entries {
		entry := &entries[i]
		if entry.Product == nil {
			continue
		}
		pref := prefs[entry.UserID]
		if pref != nil && !pref.LowStockEmailAlerts {
			continue
		}
		if entry.Product.Stock > s.effectiveThreshold(entry, pref) {
			continue
		}
		if entry.LastNotified != nil && now.Sub(*entry.LastNotified) < window {
			continue
		}
		user := users[entry.UserID]
		if user == nil || strings.TrimSpace(user.Email) == "" {
			continue
		}
		if _, ok := grouped[entry.UserID]; !ok {
			order = append(order, entry.UserID)
		}
		grouped[entry.UserID] = append(grouped[entry.UserID], entry)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	for _, userID := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		user := users[userID]
		items := grouped[userID]
		lines := make([]SweepLowStockLine, 0, len(items))
		for _, entry := range items {
			lines = append(lines, SweepLowStockLine{
				ProductName: entry.Product.Name,
				Stock:       entry.Product.Stock,
				Threshold:   s.effectiveThreshold(entry, prefs[userID]),
			})
		}
		delivery := NotificationDelivery{
			UserID:    userID,
			Kind:      constants.NotificationKindLowStock,
			Origin:    constants.NotificationOriginSweep,
			Recipient: strings.TrimSpace(user.Email),
		}
		delivery = deliverMail(s.mailer, s.logRepo, now, delivery, singleProductID(items), nil, s.templates.sweepLowStock(user.Username, lines))
		if delivery.Status != constants.NotificationStatusSent {
			result.Failed++
			continue
		}
		result.LowStockEmails++
		result.LowStockItems += len(items)
		for _, entry := range items {
			if err := s.watchlistRepo.TouchLastNotified(entry.ID, now); err != nil {
				logger.Warnw("inventory_alert_sweep_touch_failed", "watchlist_id", entry.ID, "error", err)
			}
		}
	}
	return nil
}

func (s *InventoryAlertSweep) sweepRestock(ctx context.Context, result *SweepResult) error {
	alerts, err := s.alertRepo.ListPendingInStock()
	if err != nil {
		return fmt.Errorf("load stock alerts: %w", err)
	}
	userIDs := make([]uint, 0, len(alerts))
	for _, alert := range alerts {
		userIDs = append(userIDs, alert.UserID)
	}
	prefs, users, err := s.loadRecipients(userIDs)
	if err != nil {
		return err
	}

	grouped := make(map[uint][]models.StockAlert)
	order := make([]uint, 0)
	for _, alert := range alerts {
		if alert.Product == nil {
			continue
		}
		if pref := prefs[alert.UserID]; pref != nil && !pref.RestockEmailAlerts {
			continue
		}
		user := users[alert.UserID]
		if user == nil || strings.TrimSpace(user.Email) == "" {
			continue
		}
		if _, ok := grouped[alert.UserID]; !ok {
			order = append(order, alert.UserID)
		}
		grouped[alert.UserID] = append(grouped[alert.UserID], alert)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	now := s.now()
	for _, userID := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		user := users[userID]
		items := grouped[userID]
		products := make([]models.Product, 0, len(items))
		for _, alert := range items {
			products = append(products, *alert.Product)
		}
		var productID uint
		if len(products) == 1 {
			productID = products[0].ID
		}
		delivery := NotificationDelivery{
			UserID:    userID,
			Kind:      constants.NotificationKindRestock,
			Origin:    constants.NotificationOriginSweep,
			Recipient: strings.TrimSpace(user.Email),
		}
		delivery = deliverMail(s.mailer, s.logRepo, now, delivery, productID, nil, s.templates.sweepRestock(user.Username, products))
		if delivery.Status != constants.NotificationStatusSent {
			result.Failed++
			continue
		}
		result.RestockEmails++
		for _, alert := range items {
			if _, err := s.alertRepo.MarkNotified(alert.ID, now); err != nil {
				logger.Warnw("inventory_alert_sweep_mark_failed", "alert_id", alert.ID, "error", err)
				continue
			}
			result.RestockAlerts++
		}
	}
	return nil
}

func (s *InventoryAlertSweep) effectiveThreshold(entry *models.WatchlistEntry, pref *models.Preference) int {
	if s.engine != nil {
		return s.engine.EffectiveThreshold(entry, pref)
	}
	if entry.CustomThreshold != nil {
		return *entry.CustomThreshold
	}
	if pref != nil {
		return pref.LowStockThreshold
	}
	if s.cfg.DefaultLowStockThreshold > 0 {
		return s.cfg.DefaultLowStockThreshold
	}
	return constants.DefaultLowStockThreshold
}

func (s *InventoryAlertSweep) loadRecipients(userIDs []uint) (map[uint]*models.Preference, map[uint]*models.User, error) {
	prefs := make(map[uint]*models.Preference)
	users := make(map[uint]*models.User)
	if len(userIDs) == 0 {
		return prefs, users, nil
	}
	userIDs = uniqueIDs(userIDs)
	prefRows, err := s.prefRepo.ListByUserIDs(userIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load preferences: %w", err)
	}
	for i := range prefRows {
		prefs[prefRows[i].UserID] = &prefRows[i]
	}
	userRows, err := s.userRepo.ListByIDs(userIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}
	for i := range userRows {
		users[userRows[i].ID] = &userRows[i]
	}
	return prefs, users, nil
}

func singleProductID(entries []*models.WatchlistEntry) uint {
	if len(entries) == 1 {
		return entries[0].ProductID
	}
	return 0
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

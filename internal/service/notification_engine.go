package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/candy-store/internal/cache"
	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

const (
	skipReasonAboveThreshold  = "above_threshold"
	skipReasonNoEmail         = "no_email"
	skipReasonCooldown        = "cooldown"
	skipReasonDuplicate       = "duplicate"
	skipReasonDisabled        = "disabled"
	skipReasonAlreadyNotified = "already_notified"
	skipReasonInactive        = "inactive"
)

// NotificationDelivery 单个目标的处理结果
type NotificationDelivery struct {
	UserID    uint   `json:"user_id"`
	Kind      string `json:"kind"`
	Origin    string `json:"origin"`
	Recipient string `json:"recipient,omitempty"`
	Threshold int    `json:"threshold,omitempty"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// StockChangeReport 一次库存变更的通知结果
type StockChangeReport struct {
	ProductID  uint                   `json:"product_id"`
	OldStock   int                    `json:"old_stock"`
	NewStock   int                    `json:"new_stock"`
	Deliveries []NotificationDelivery `json:"deliveries"`
}

// Sent 成功发送数量
func (r *StockChangeReport) Sent() int {
	if r == nil {
		return 0
	}
	count := 0
	for _, d := range r.Deliveries {
		if d.Status == constants.NotificationStatusSent {
			count++
		}
	}
	return count
}

// Recipients 指定类型下成功发送的收件人
func (r *StockChangeReport) Recipients(kind string) []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0)
	for _, d := range r.Deliveries {
		if d.Status == constants.NotificationStatusSent && d.Kind == kind {
			out = append(out, d.Recipient)
		}
	}
	return out
}

func (r *StockChangeReport) add(d NotificationDelivery) {
	r.Deliveries = append(r.Deliveries, d)
}

type lowStockTarget struct {
	userID    uint
	origin    string
	threshold int
	entry     *models.WatchlistEntry
}

// NotificationEngine 库存变更通知决策
type NotificationEngine struct {
	cfg           config.NotifyConfig
	templates     mailTemplates
	orderRepo     repository.OrderRepository
	userRepo      repository.UserRepository
	prefRepo      repository.PreferenceRepository
	watchlistRepo repository.WatchlistRepository
	alertRepo     repository.StockAlertRepository
	logRepo       repository.NotificationLogRepository
	mailer        Mailer
	now           func() time.Time
}

// NewNotificationEngine 创建通知决策引擎
func NewNotificationEngine(cfg *config.Config, orderRepo repository.OrderRepository, userRepo repository.UserRepository, prefRepo repository.PreferenceRepository, watchlistRepo repository.WatchlistRepository, alertRepo repository.StockAlertRepository, logRepo repository.NotificationLogRepository, mailer Mailer) *NotificationEngine {
	engine := &NotificationEngine{
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		prefRepo:      prefRepo,
		watchlistRepo: watchlistRepo,
		alertRepo:     alertRepo,
		logRepo:       logRepo,
		mailer:        mailer,
		now:           time.Now,
	}
	if cfg != nil {
		engine.cfg = cfg.Notify
		engine.templates = newMailTemplates(cfg.Store)
	} else {
		engine.templates = newMailTemplates(config.StoreConfig{})
	}
	return engine
}

// SetClock 注入时钟
func (e *NotificationEngine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// SetNotifyConfig 运行时更新通知开关
func (e *NotificationEngine) SetNotifyConfig(cfg config.NotifyConfig) {
	e.cfg = cfg
}

// DefaultThreshold 全局默认阈值
func (e *NotificationEngine) DefaultThreshold() int {
	if e.cfg.DefaultLowStockThreshold > 0 {
		return e.cfg.DefaultLowStockThreshold
	}
	return constants.DefaultLowStockThreshold
}

func (e *NotificationEngine) globalThreshold(pref *models.Preference) int {
	if pref == nil {
		return e.DefaultThreshold()
	}
	return pref.LowStockThreshold
}

// EffectiveThreshold 解析自定义阈值、全局阈值与默认值的优先级
func (e *NotificationEngine) EffectiveThreshold(entry *models.WatchlistEntry, pref *models.Preference) int {
	if entry != nil && entry.CustomThreshold != nil {
		return *entry.CustomThreshold
	}
	return e.globalThreshold(pref)
}

func (e *NotificationEngine) cooldownWindow() time.Duration {
	hours := e.cfg.LowStockCooldownHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// ApplyStockChange 根据库存的前后值决定通知对象并发送
func (e *NotificationEngine) ApplyStockChange(ctx context.Context, product *models.Product, oldStock, newStock int) (*StockChangeReport, error) {
	if product == nil || product.ID == 0 {
		return nil, ErrProductNotFound
	}
	report := &StockChangeReport{ProductID: product.ID, OldStock: oldStock, NewStock: newStock}
	if oldStock == newStock {
		return report, nil
	}

	var errs []error
	if newStock < oldStock {
		if err := e.evaluateLowStock(ctx, product, newStock, report); err != nil {
			errs = append(errs, err)
		}
	}
	if oldStock <= 0 && newStock > 0 {
		if err := e.evaluateRestock(ctx, product, newStock, report); err != nil {
			errs = append(errs, err)
		}
	}
	return report, errors.Join(errs...)
}

func (e *NotificationEngine) evaluateLowStock(ctx context.Context, product *models.Product, stock int, report *StockChangeReport) error {
	buyerIDs, err := e.orderRepo.ListBuyerIDsByProduct(product.ID)
	if err != nil {
		return fmt.Errorf("load buyers: %w", err)
	}
	entries, err := e.watchlistRepo.ListByProduct(product.ID)
	if err != nil {
		return fmt.Errorf("load watchlist: %w", err)
	}

	userIDs := make([]uint, 0, len(buyerIDs)+len(entries))
	userIDs = append(userIDs, buyerIDs...)
	for _, entry := range entries {
		userIDs = append(userIDs, entry.UserID)
	}
	prefs, users, err := e.loadRecipients(userIDs)
	if err != nil {
		return err
	}

	targets := make(map[uint]*lowStockTarget)
	for _, userID := range buyerIDs {
		pref := prefs[userID]
		if pref != nil && !pref.LowStockEmailAlerts {
			continue
		}
		targets[userID] = &lowStockTarget{
			userID:    userID,
			origin:    constants.NotificationOriginHistory,
			threshold: e.globalThreshold(pref),
		}
	}
	for i := range entries {
		entry := &entries[i]
		pref := prefs[entry.UserID]
		if pref != nil && !pref.LowStockEmailAlerts {
			delete(targets, entry.UserID)
			continue
		}
		targets[entry.UserID] = &lowStockTarget{
			userID:    entry.UserID,
			origin:    constants.NotificationOriginWatchlist,
			threshold: e.EffectiveThreshold(entry, pref),
			entry:     entry,
		}
	}

	ordered := make([]uint, 0, len(targets))
	for userID := range targets {
		ordered = append(ordered, userID)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, userID := range ordered {
		target := targets[userID]
		delivery := NotificationDelivery{
			UserID:    userID,
			Kind:      constants.NotificationKindLowStock,
			Origin:    target.origin,
			Threshold: target.threshold,
		}
		if stock > target.threshold {
			report.add(skipped(delivery, skipReasonAboveThreshold))
			continue
		}
		user := users[userID]
		if user == nil {
			report.add(skipped(delivery, skipReasonInactive))
			continue
		}
		if strings.TrimSpace(user.Email) == "" {
			report.add(skipped(delivery, skipReasonNoEmail))
			continue
		}
		delivery.Recipient = strings.TrimSpace(user.Email)
		if e.inCooldown(target, product.ID) {
			report.add(skipped(delivery, skipReasonCooldown))
			continue
		}
		if !e.markOnce(ctx, delivery, product.ID) {
			report.add(skipped(delivery, skipReasonDuplicate))
			continue
		}

		var content MailContent
		if target.origin == constants.NotificationOriginWatchlist {
			content = e.templates.lowStockWatchlist(user.Username, product, stock, target.threshold)
		} else {
			content = e.templates.lowStockHistory(user.Username, product, stock, target.threshold)
		}
		delivery = e.dispatch(delivery, product.ID, nil, content)
		report.add(delivery)

		if delivery.Status == constants.NotificationStatusSent && target.entry != nil {
			if err := e.watchlistRepo.TouchLastNotified(target.entry.ID, e.now()); err != nil {
				logger.Warnw("notify_low_stock_touch_last_notified_failed",
					"watchlist_id", target.entry.ID,
					"user_id", userID,
					"error", err,
				)
			}
		}
	}
	return nil
}

func (e *NotificationEngine) inCooldown(target *lowStockTarget, productID uint) bool {
	if !e.cfg.LowStockCooldownEnabled {
		return false
	}
	now := e.now()
	window := e.cooldownWindow()
	if target.entry != nil {
		return target.entry.LastNotified != nil && now.Sub(*target.entry.LastNotified) < window
	}
	if e.logRepo == nil {
		return false
	}
	latest, err := e.logRepo.LatestSent(target.userID, productID, constants.NotificationKindLowStock)
	if err != nil {
		logger.Warnw("notify_low_stock_cooldown_lookup_failed", "user_id", target.userID, "product_id", productID, "error", err)
		return false
	}
	return latest != nil && now.Sub(latest.CreatedAt) < window
}

func (e *NotificationEngine) evaluateRestock(ctx context.Context, product *models.Product, stock int, report *StockChangeReport) error {
	alerts, err := e.alertRepo.ListPendingByProduct(product.ID)
	if err != nil {
		return fmt.Errorf("load stock alerts: %w", err)
	}

	var subscribers []models.User
	if e.cfg.RestockBroadcast {
		subscribers, err = e.userRepo.ListRestockSubscribers()
		if err != nil {
			return fmt.Errorf("load restock subscribers: %w", err)
		}
	}

	userIDs := make([]uint, 0, len(alerts))
	for _, alert := range alerts {
		userIDs = append(userIDs, alert.UserID)
	}
	prefs, users, err := e.loadRecipients(userIDs)
	if err != nil {
		return err
	}

	notified := make(map[uint]bool)
	for _, alert := range alerts {
		delivery := NotificationDelivery{
			UserID: alert.UserID,
			Kind:   constants.NotificationKindRestock,
			Origin: constants.NotificationOriginStockAlert,
		}
		if notified[alert.UserID] {
			report.add(skipped(delivery, skipReasonAlreadyNotified))
			continue
		}
		if pref := prefs[alert.UserID]; pref != nil && !pref.RestockEmailAlerts {
			report.add(skipped(delivery, skipReasonDisabled))
			continue
		}
		user := users[alert.UserID]
		if user == nil {
			report.add(skipped(delivery, skipReasonInactive))
			continue
		}
		if strings.TrimSpace(user.Email) == "" {
			report.add(skipped(delivery, skipReasonNoEmail))
			continue
		}
		delivery.Recipient = strings.TrimSpace(user.Email)
		if !e.markOnce(ctx, delivery, product.ID) {
			report.add(skipped(delivery, skipReasonDuplicate))
			continue
		}

		delivery = e.dispatch(delivery, product.ID, nil, e.templates.restock(user.Username, product, stock))
		report.add(delivery)
		if delivery.Status != constants.NotificationStatusSent {
			continue
		}
		notified[alert.UserID] = true
		if _, err := e.alertRepo.MarkNotified(alert.ID, e.now()); err != nil {
			logger.Warnw("notify_restock_mark_notified_failed", "alert_id", alert.ID, "user_id", alert.UserID, "error", err)
		}
	}

	for i := range subscribers {
		user := &subscribers[i]
		if notified[user.ID] {
			continue
		}
		delivery := NotificationDelivery{
			UserID: user.ID,
			Kind:   constants.NotificationKindRestock,
			Origin: constants.NotificationOriginBroadcast,
		}
		if strings.TrimSpace(user.Email) == "" {
			report.add(skipped(delivery, skipReasonNoEmail))
			continue
		}
		delivery.Recipient = strings.TrimSpace(user.Email)
		if !e.markOnce(ctx, delivery, product.ID) {
			report.add(skipped(delivery, skipReasonDuplicate))
			continue
		}
		delivery = e.dispatch(delivery, product.ID, nil, e.templates.restockBroadcast(user.Username, product, stock))
		report.add(delivery)
		if delivery.Status == constants.NotificationStatusSent {
			notified[user.ID] = true
		}
	}
	return nil
}

func (e *NotificationEngine) loadRecipients(userIDs []uint) (map[uint]*models.Preference, map[uint]*models.User, error) {
	prefs := make(map[uint]*models.Preference)
	users := make(map[uint]*models.User)
	if len(userIDs) == 0 {
		return prefs, users, nil
	}
	prefRows, err := e.prefRepo.ListByUserIDs(userIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load preferences: %w", err)
	}
	for i := range prefRows {
		prefs[prefRows[i].UserID] = &prefRows[i]
	}
	userRows, err := e.userRepo.ListByIDs(userIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}
	for i := range userRows {
		// 停用账号不再接收任何通知
		if userRows[i].Status != constants.UserStatusActive {
			continue
		}
		users[userRows[i].ID] = &userRows[i]
	}
	return prefs, users, nil
}

type stockEventKey struct{}

// WithStockEvent 为一次库存变更绑定事件 ID，同一事件重复投递时已发送的目标会被跳过
func WithStockEvent(ctx context.Context, eventID string) context.Context {
	if eventID = strings.TrimSpace(eventID); eventID == "" {
		return ctx
	}
	return context.WithValue(ctx, stockEventKey{}, eventID)
}

func stockEventID(ctx context.Context) string {
	id, _ := ctx.Value(stockEventKey{}).(string)
	return id
}

// markOnce 去重键取自事件而非消息内容；没有事件 ID 时不去重
func (e *NotificationEngine) markOnce(ctx context.Context, d NotificationDelivery, productID uint) bool {
	eventID := stockEventID(ctx)
	if eventID == "" {
		return true
	}
	window := time.Duration(e.cfg.DedupeSeconds) * time.Second
	key := cache.NotifyDedupeKey(d.Kind, d.UserID, productID, eventID)
	first, err := cache.MarkOnce(ctx, key, window)
	if err != nil {
		logger.Warnw("notify_dedupe_failed", "key", key, "error", err)
		return true
	}
	return first
}

// dispatch 发送邮件并写入通知记录，失败只记录不返回
func (e *NotificationEngine) dispatch(d NotificationDelivery, productID uint, orderID *uint, content MailContent) NotificationDelivery {
	return deliverMail(e.mailer, e.logRepo, e.now(), d, productID, orderID, content)
}

func deliverMail(mailer Mailer, logRepo repository.NotificationLogRepository, now time.Time, d NotificationDelivery, productID uint, orderID *uint, content MailContent) NotificationDelivery {
	d.Status = constants.NotificationStatusSent
	var sendErr error
	if mailer == nil {
		sendErr = ErrEmailServiceNotConfigured
	} else {
		sendErr = mailer.Send(d.Recipient, content.Subject, content.Body)
	}
	if sendErr != nil {
		d.Status = constants.NotificationStatusFailed
		d.Reason = sendErr.Error()
		logger.Warnw("notify_send_failed",
			"kind", d.Kind,
			"origin", d.Origin,
			"user_id", d.UserID,
			"product_id", productID,
			"recipient", d.Recipient,
			"error", sendErr,
		)
	}
	if logRepo == nil {
		return d
	}
	record := &models.NotificationLog{
		OrderID:   orderID,
		Kind:      d.Kind,
		Origin:    d.Origin,
		Recipient: d.Recipient,
		Subject:   content.Subject,
		Status:    d.Status,
		Error:     d.Reason,
		CreatedAt: now,
	}
	if d.UserID != 0 {
		userID := d.UserID
		record.UserID = &userID
	}
	if productID != 0 {
		pid := productID
		record.ProductID = &pid
	}
	if err := logRepo.Create(record); err != nil {
		logger.Warnw("notify_log_write_failed", "kind", d.Kind, "user_id", d.UserID, "error", err)
	}
	return d
}

func skipped(d NotificationDelivery, reason string) NotificationDelivery {
	d.Status = constants.NotificationStatusSkipped
	d.Reason = reason
	return d
}

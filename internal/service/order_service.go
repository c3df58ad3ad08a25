package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/queue"
	"github.com/candy-store/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	cartRepo      repository.CartRepository
	watchlistRepo repository.WatchlistRepository
	userRepo      repository.UserRepository
	logRepo       repository.NotificationLogRepository
	queueClient   *queue.Client
	mailer        Mailer
	stockNotifier *StockChangeNotifier
	lifecycle     OrderLifecycle
	templates     mailTemplates
	now           func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(cfg *config.Config, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, watchlistRepo repository.WatchlistRepository, userRepo repository.UserRepository, logRepo repository.NotificationLogRepository, queueClient *queue.Client, mailer Mailer, stockNotifier *StockChangeNotifier) *OrderService {
	svc := &OrderService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		cartRepo:      cartRepo,
		watchlistRepo: watchlistRepo,
		userRepo:      userRepo,
		logRepo:       logRepo,
		queueClient:   queueClient,
		mailer:        mailer,
		stockNotifier: stockNotifier,
		lifecycle:     DefaultOrderLifecycle(),
		templates:     newMailTemplates(config.StoreConfig{}),
		now:           time.Now,
	}
	if cfg != nil {
		svc.lifecycle = NewOrderLifecycle(cfg.Order)
		svc.templates = newMailTemplates(cfg.Store)
	}
	return svc
}

// SetClock 注入时钟
func (s *OrderService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CheckoutItem 下单商品
type CheckoutItem struct {
	ProductID uint
	Quantity  int
}

// CheckoutInput 结算输入，Items 为空时使用购物车
type CheckoutInput struct {
	FullName string
	Address  string
	City     string
	ZipCode  string
	Items    []CheckoutItem
}

type stockChange struct {
	product  models.Product
	oldStock int
	newStock int
}

// Checkout 结算下单（模拟支付总是成功）
func (s *OrderService) Checkout(ctx context.Context, userID uint, input CheckoutInput) (*models.Order, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	input.FullName = strings.TrimSpace(input.FullName)
	input.Address = strings.TrimSpace(input.Address)
	input.City = strings.TrimSpace(input.City)
	input.ZipCode = strings.TrimSpace(input.ZipCode)
	if input.FullName == "" || input.Address == "" || input.City == "" || input.ZipCode == "" {
		return nil, ErrShippingInfoRequired
	}

	items, err := s.resolveCheckoutItems(userID, input.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uint]models.Product, len(products))
	for _, product := range products {
		productMap[product.ID] = product
	}

	shortage := &InsufficientStockError{}
	for _, item := range items {
		product, ok := productMap[item.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		if product.Stock < item.Quantity {
			shortage.Items = append(shortage.Items, StockShortage{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Stock,
			})
		}
	}
	if len(shortage.Items) > 0 {
		return nil, shortage
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	order := &models.Order{
		OrderNo:   generateOrderNo(now),
		UserID:    &userID,
		Status:    constants.OrderStatusCreated,
		FullName:  input.FullName,
		Address:   input.Address,
		City:      input.City,
		ZipCode:   input.ZipCode,
		Email:     strings.TrimSpace(user.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	orderItems := make([]models.OrderItem, 0, len(items))
	total := models.Money{}
	for _, item := range items {
		product := productMap[item.ProductID]
		line := models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    item.Quantity,
			CreatedAt:   now,
		}
		total = total.Add(line.LineTotal())
		orderItems = append(orderItems, line)
	}
	order.TotalPrice = total

	var changes []stockChange
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		changes = changes[:0]
		for _, item := range items {
			product := productMap[item.ProductID]
			affected, err := productRepo.DecrementStock(item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				available, _ := productRepo.GetStock(item.ProductID)
				return &InsufficientStockError{Items: []StockShortage{{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   item.Quantity,
					Available:   available,
				}}}
			}
			newStock, err := productRepo.GetStock(item.ProductID)
			if err != nil {
				return err
			}
			changes = append(changes, stockChange{product: product, oldStock: newStock + item.Quantity, newStock: newStock})
		}

		if err := s.orderRepo.WithTx(tx).Create(order, orderItems); err != nil {
			return err
		}

		watchlistRepo := s.watchlistRepo.WithTx(tx)
		for _, item := range items {
			existing, err := watchlistRepo.GetByUserAndProduct(userID, item.ProductID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := watchlistRepo.Create(&models.WatchlistEntry{
				UserID:    userID,
				ProductID: item.ProductID,
				AutoAdded: true,
			}); err != nil {
				return err
			}
		}
		return s.cartRepo.WithTx(tx).DeleteByUserAndProducts(userID, ids)
	})
	if err != nil {
		var shortageErr *InsufficientStockError
		if errors.As(err, &shortageErr) {
			return nil, shortageErr
		}
		logger.Errorw("order_checkout_failed", "user_id", userID, "error", err)
		return nil, err
	}

	s.notifyStatus(order, constants.OrderStatusCreated)
	for _, change := range changes {
		product := change.product
		product.Stock = change.newStock
		s.publishStockChange(ctx, &product, change.oldStock, change.newStock)
	}
	return order, nil
}

func (s *OrderService) resolveCheckoutItems(userID uint, explicit []CheckoutItem) ([]CheckoutItem, error) {
	merged := make(map[uint]int)
	if len(explicit) > 0 {
		for _, item := range explicit {
			if item.ProductID == 0 || item.Quantity <= 0 {
				return nil, ErrInvalidQuantity
			}
			merged[item.ProductID] += item.Quantity
		}
	} else {
		cartItems, err := s.cartRepo.ListByUser(userID)
		if err != nil {
			return nil, err
		}
		for _, item := range cartItems {
			if item.Quantity > 0 {
				merged[item.ProductID] += item.Quantity
			}
		}
	}
	if len(merged) == 0 {
		return nil, ErrCartEmpty
	}
	items := make([]CheckoutItem, 0, len(merged))
	for productID, quantity := range merged {
		items = append(items, CheckoutItem{ProductID: productID, Quantity: quantity})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

// CancelOrder 取消订单：仅 created 状态允许，恢复库存后触发通知
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	order = s.refreshStatus(order)
	if order.Status != constants.OrderStatusCreated {
		return nil, ErrOrderCancelNotAllowed
	}

	quantities := make(map[uint]int)
	productIDs := make([]uint, 0)
	for _, item := range order.Items {
		if _, ok := quantities[item.ProductID]; !ok {
			productIDs = append(productIDs, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	now := s.now()
	var changes []stockChange
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		changes = changes[:0]
		affected, err := s.orderRepo.WithTx(tx).UpdateStatusIfCurrent(order.ID, constants.OrderStatusCreated, constants.OrderStatusCancelled, map[string]interface{}{
			"cancelled_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderCancelNotAllowed
		}
		productRepo := s.productRepo.WithTx(tx)
		for _, productID := range productIDs {
			product, err := productRepo.GetByID(productID)
			if err != nil {
				return err
			}
			if product == nil {
				continue
			}
			if _, err := productRepo.AdjustStock(productID, quantities[productID]); err != nil {
				return err
			}
			newStock, err := productRepo.GetStock(productID)
			if err != nil {
				return err
			}
			changes = append(changes, stockChange{product: *product, oldStock: product.Stock, newStock: newStock})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOrderCancelNotAllowed) {
			return nil, ErrOrderCancelNotAllowed
		}
		logger.Errorw("order_cancel_failed", "order_id", order.ID, "error", err)
		return nil, ErrOrderUpdateFailed
	}

	order.Status = constants.OrderStatusCancelled
	order.CancelledAt = &now
	order.UpdatedAt = now
	for _, change := range changes {
		product := change.product
		product.Stock = change.newStock
		s.publishStockChange(ctx, &product, change.oldStock, change.newStock)
	}
	s.notifyStatus(order, constants.OrderStatusCancelled)
	return order, nil
}

func (s *OrderService) publishStockChange(ctx context.Context, product *models.Product, oldStock, newStock int) {
	if s.stockNotifier == nil {
		return
	}
	s.stockNotifier.Publish(ctx, product, oldStock, newStock)
}

// notifyStatus 每次真实的状态变化发送一封邮件：队列可用时入队，否则同步发送
func (s *OrderService) notifyStatus(order *models.Order, status string) {
	if order == nil {
		return
	}
	route, err := routeStatusEmail(context.Background(), s.orderRepo, s.queueClient, order.ID, status)
	if err != nil {
		logger.Warnw("order_enqueue_status_email_failed", "order_id", order.ID, "status", status, "error", err)
	}
	switch route {
	case statusEmailQueued:
		return
	case statusEmailNoRecipient:
		logger.Debugw("order_status_email_skipped", "order_id", order.ID, "status", status)
		return
	}
	s.sendStatusEmail(order, status)
}

// SendStatusEmail 按订单 ID 发送状态邮件（队列消费使用）
func (s *OrderService) SendStatusEmail(orderID uint, status string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = order.Status
	}
	delivery := s.sendStatusEmail(order, status)
	if delivery.Status == constants.NotificationStatusFailed && delivery.Reason != "" {
		return fmt.Errorf("send order status email: %s", delivery.Reason)
	}
	return nil
}

func (s *OrderService) sendStatusEmail(order *models.Order, status string) NotificationDelivery {
	delivery := NotificationDelivery{
		Kind:   constants.NotificationKindOrderStatus,
		Origin: constants.NotificationOriginOrder,
	}
	if order.UserID != nil {
		delivery.UserID = *order.UserID
	}
	receiver, err := s.orderRepo.ResolveReceiverEmailByOrderID(order.ID)
	if err != nil {
		logger.Warnw("order_status_email_resolve_receiver_failed", "order_id", order.ID, "error", err)
		receiver = order.Email
	}
	receiver = strings.TrimSpace(receiver)
	if receiver == "" {
		return skipped(delivery, skipReasonNoEmail)
	}
	delivery.Recipient = receiver
	orderID := order.ID
	return deliverMail(s.mailer, s.logRepo, s.now(), delivery, 0, &orderID, s.templates.orderStatus(order, status))
}

func generateOrderNo(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("CS%s%s", now.Format("20060102150405"), suffix)
}

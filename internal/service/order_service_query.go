package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

// OrderStatusView 订单状态轮询结果
type OrderStatusView struct {
	OrderID     uint       `json:"order_id"`
	OrderNo     string     `json:"order_no"`
	Status      string     `json:"status"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	IsShipped   bool       `json:"is_shipped"`
	IsDelivered bool       `json:"is_delivered"`
}

// ListOrders 获取用户订单列表（读取时推进状态）
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	for i := range orders {
		orders[i] = *s.refreshStatus(&orders[i])
	}
	return orders, total, nil
}

// ListAdminOrders 管理端订单列表
func (s *OrderService) ListAdminOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	for i := range orders {
		orders[i] = *s.refreshStatus(&orders[i])
	}
	return orders, total, nil
}

// GetOrder 获取用户订单详情
func (s *OrderService) GetOrder(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.refreshStatus(order), nil
}

// GetAdminOrder 管理端订单详情
func (s *OrderService) GetAdminOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.refreshStatus(order), nil
}

// GetOrderStatus 轮询订单状态
func (s *OrderService) GetOrderStatus(userID, orderID uint) (*OrderStatusView, error) {
	order, err := s.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderStatusView{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		Status:      order.Status,
		ShippedAt:   order.ShippedAt,
		DeliveredAt: order.DeliveredAt,
		IsShipped:   order.Status == constants.OrderStatusShipped || order.Status == constants.OrderStatusDelivered,
		IsDelivered: order.Status == constants.OrderStatusDelivered,
	}, nil
}

// RenderInvoice 生成纯文本发票
func (s *OrderService) RenderInvoice(userID, orderID uint) (string, error) {
	order, err := s.GetOrder(userID, orderID)
	if err != nil {
		return "", err
	}
	return renderInvoiceText(s.templates.storeName, order), nil
}

func renderInvoiceText(storeName string, order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", storeName)
	fmt.Fprintf(&b, "INVOICE\n")
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 40))
	fmt.Fprintf(&b, "Order Number: %s\n", order.OrderNo)
	fmt.Fprintf(&b, "Order Date: %s\n", order.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Status: %s\n\n", displayOrderStatus(order.Status))
	fmt.Fprintf(&b, "Ship To:\n%s\n%s\n%s, %s\n\n", order.FullName, order.Address, order.City, order.ZipCode)
	fmt.Fprintf(&b, "Items:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %s x%d @ $%s = $%s\n", item.ProductName, item.Quantity, item.Price.String(), item.LineTotal().String())
	}
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(&b, "Total: $%s\n\n", order.TotalPrice.String())
	fmt.Fprintf(&b, "Thank you for shopping with us!\n")
	return b.String()
}

// refreshStatus 按时间推进订单状态；条件更新保证并发读取时每次推进只发一封邮件
func (s *OrderService) refreshStatus(order *models.Order) *models.Order {
	if order == nil || isTerminalOrderStatus(order.Status) {
		return order
	}
	target, shippedAt, deliveredAt := s.lifecycle.Derive(order.CreatedAt, s.now())
	if orderStatusRank(target) <= orderStatusRank(order.Status) {
		return order
	}

	now := s.now()
	updates := map[string]interface{}{"updated_at": now}
	if shippedAt != nil && order.ShippedAt == nil {
		updates["shipped_at"] = *shippedAt
	}
	if deliveredAt != nil {
		updates["delivered_at"] = *deliveredAt
	}
	affected, err := s.orderRepo.UpdateStatusIfCurrent(order.ID, order.Status, target, updates)
	if err != nil {
		logger.Warnw("order_status_refresh_failed",
			"order_id", order.ID,
			"from", order.Status,
			"to", target,
			"error", err,
		)
		return order
	}
	if affected == 0 {
		latest, err := s.orderRepo.GetByID(order.ID)
		if err != nil || latest == nil {
			return order
		}
		return latest
	}

	order.Status = target
	order.UpdatedAt = now
	if shippedAt != nil && order.ShippedAt == nil {
		order.ShippedAt = shippedAt
	}
	if deliveredAt != nil {
		order.DeliveredAt = deliveredAt
	}
	s.notifyStatus(order, target)
	return order
}

func displayOrderStatus(status string) string {
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

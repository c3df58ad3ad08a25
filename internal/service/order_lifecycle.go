package service

import (
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
)

const (
	defaultShipAfter    = time.Minute
	defaultDeliverAfter = 2 * time.Minute
)

// OrderLifecycle 订单状态随时间推进的规则
type OrderLifecycle struct {
	ShipAfter    time.Duration
	DeliverAfter time.Duration
}

// DefaultOrderLifecycle 下单 1 分钟发货，2 分钟送达
func DefaultOrderLifecycle() OrderLifecycle {
	return OrderLifecycle{ShipAfter: defaultShipAfter, DeliverAfter: defaultDeliverAfter}
}

// NewOrderLifecycle 根据配置创建生命周期规则
func NewOrderLifecycle(cfg config.OrderConfig) OrderLifecycle {
	lifecycle := DefaultOrderLifecycle()
	if cfg.ShipAfterSeconds > 0 {
		lifecycle.ShipAfter = time.Duration(cfg.ShipAfterSeconds) * time.Second
	}
	if cfg.DeliverAfterSeconds > 0 {
		lifecycle.DeliverAfter = time.Duration(cfg.DeliverAfterSeconds) * time.Second
	}
	if lifecycle.DeliverAfter < lifecycle.ShipAfter {
		lifecycle.DeliverAfter = lifecycle.ShipAfter
	}
	return lifecycle
}

// Derive 推导订单在 now 时刻应处的状态，时间戳回溯到规则节点而非检查时刻
func (l OrderLifecycle) Derive(createdAt, now time.Time) (string, *time.Time, *time.Time) {
	elapsed := now.Sub(createdAt)
	switch {
	case elapsed >= l.DeliverAfter:
		shippedAt := createdAt.Add(l.ShipAfter)
		deliveredAt := createdAt.Add(l.DeliverAfter)
		return constants.OrderStatusDelivered, &shippedAt, &deliveredAt
	case elapsed >= l.ShipAfter:
		shippedAt := createdAt.Add(l.ShipAfter)
		return constants.OrderStatusShipped, &shippedAt, nil
	default:
		return constants.OrderStatusCreated, nil, nil
	}
}

// DeriveStatus 按默认规则推导订单状态
func DeriveStatus(createdAt, now time.Time) (string, *time.Time, *time.Time) {
	return DefaultOrderLifecycle().Derive(createdAt, now)
}

// orderStatusRank 状态先后顺序，取消为终态
func orderStatusRank(status string) int {
	switch status {
	case constants.OrderStatusCreated:
		return 0
	case constants.OrderStatusShipped:
		return 1
	case constants.OrderStatusDelivered:
		return 2
	default:
		return -1
	}
}

// isTerminalOrderStatus 是否为终态
func isTerminalOrderStatus(status string) bool {
	return status == constants.OrderStatusDelivered || status == constants.OrderStatusCancelled
}

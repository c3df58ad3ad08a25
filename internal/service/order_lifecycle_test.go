package service

import (
	"testing"
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
)

func TestDeriveStatus(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	status, shippedAt, deliveredAt := DeriveStatus(created, created.Add(59*time.Second))
	if status != constants.OrderStatusCreated || shippedAt != nil || deliveredAt != nil {
		t.Fatalf("expected created, got %s", status)
	}

	status, shippedAt, deliveredAt = DeriveStatus(created, created.Add(61*time.Second))
	if status != constants.OrderStatusShipped || shippedAt == nil || deliveredAt != nil {
		t.Fatalf("expected shipped, got %s", status)
	}
	if !shippedAt.Equal(created.Add(time.Minute)) {
		t.Fatalf("shipped_at should be backdated to the rule boundary, got %v", shippedAt)
	}

	status, shippedAt, deliveredAt = DeriveStatus(created, created.Add(121*time.Second))
	if status != constants.OrderStatusDelivered || shippedAt == nil || deliveredAt == nil {
		t.Fatalf("expected delivered, got %s", status)
	}
	if !deliveredAt.Equal(created.Add(2 * time.Minute)) {
		t.Fatalf("delivered_at should be backdated, got %v", deliveredAt)
	}
}

func TestNewOrderLifecycleClampsDeliverAfter(t *testing.T) {
	lifecycle := NewOrderLifecycle(config.OrderConfig{ShipAfterSeconds: 300, DeliverAfterSeconds: 100})
	if lifecycle.DeliverAfter != lifecycle.ShipAfter {
		t.Fatalf("deliver window must not precede ship window: %+v", lifecycle)
	}
	if got := NewOrderLifecycle(config.OrderConfig{}); got != DefaultOrderLifecycle() {
		t.Fatalf("empty config should use defaults, got %+v", got)
	}
}

func TestOrderStatusRank(t *testing.T) {
	if orderStatusRank(constants.OrderStatusDelivered) <= orderStatusRank(constants.OrderStatusShipped) {
		t.Fatalf("delivered must rank after shipped")
	}
	if !isTerminalOrderStatus(constants.OrderStatusCancelled) || isTerminalOrderStatus(constants.OrderStatusShipped) {
		t.Fatalf("unexpected terminal classification")
	}
}

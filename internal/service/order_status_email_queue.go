package service

import (
	"context"
	"strings"

	"github.com/candy-store/internal/queue"
	"github.com/candy-store/internal/repository"
)

type statusEmailRoute int

const (
	// 队列不可用，调用方需同步发送
	statusEmailInline statusEmailRoute = iota
	statusEmailQueued
	// 订单与账号都没有邮箱
	statusEmailNoRecipient
)

// routeStatusEmail 决定订单状态邮件走队列、同步发送还是跳过。
// 收件人查询失败时仍然入队，由 worker 重新解析。
func routeStatusEmail(ctx context.Context, orderRepo repository.OrderRepository, queueClient *queue.Client, orderID uint, status string) (statusEmailRoute, error) {
	if orderID == 0 {
		return statusEmailNoRecipient, nil
	}
	if !queueClient.Enabled() {
		return statusEmailInline, nil
	}
	if orderRepo != nil {
		receiver, err := orderRepo.ResolveReceiverEmailByOrderID(orderID)
		if err == nil && strings.TrimSpace(receiver) == "" {
			return statusEmailNoRecipient, nil
		}
	}
	payload := queue.OrderStatusEmailPayload{OrderID: orderID, Status: strings.TrimSpace(status)}
	if err := queueClient.Enqueue(ctx, payload); err != nil {
		return statusEmailInline, err
	}
	return statusEmailQueued, nil
}

package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/provider"
	"github.com/candy-store/internal/queue"
	"github.com/candy-store/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskStockChanged, c.handleStockChanged)
	mux.HandleFunc(queue.TaskAlertSweep, c.handleAlertSweep)
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := queue.DecodePayload(task, &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_status_email_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderService.SendStatusEmail(payload.OrderID, payload.Status); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("worker_order_status_email_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_order_status_email_send_failed",
			"order_id", payload.OrderID,
			"status", payload.Status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleStockChanged(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stock_changed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StockChangedPayload
	if err := queue.DecodePayload(task, &payload); err != nil {
		logger.Warnw("worker_stock_changed_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.ProductID == 0 || payload.OldStock == payload.NewStock {
		logger.Debugw("worker_stock_changed_skip_invalid_payload",
			"product_id", payload.ProductID,
			"old_stock", payload.OldStock,
			"new_stock", payload.NewStock,
		)
		return nil
	}
	if c.NotificationEngine == nil || c.ProductRepo == nil {
		logger.Warnw("worker_stock_changed_skip_engine_nil", "product_id", payload.ProductID)
		return nil
	}
	product, err := c.ProductRepo.GetByID(payload.ProductID)
	if err != nil {
		logger.Warnw("worker_stock_changed_fetch_product_failed", "product_id", payload.ProductID, "error", err)
		return err
	}
	if product == nil {
		logger.Debugw("worker_stock_changed_skip_product_not_found", "product_id", payload.ProductID)
		return nil
	}
	eventID := payload.EventID
	if eventID == "" {
		eventID, _ = asynq.GetTaskID(ctx)
	}
	ctx = service.WithStockEvent(ctx, eventID)
	report, err := c.NotificationEngine.ApplyStockChange(ctx, product, payload.OldStock, payload.NewStock)
	if err != nil {
		logger.Warnw("worker_stock_changed_evaluate_failed", "product_id", payload.ProductID, "error", err)
		return err
	}
	if report != nil {
		logger.Debugw("worker_stock_changed_done",
			"product_id", payload.ProductID,
			"targets", len(report.Deliveries),
			"sent", report.Sent(),
		)
	}
	return nil
}

func (c *Consumer) handleAlertSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_alert_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AlertSweepPayload
	if err := queue.DecodePayload(task, &payload); err != nil {
		logger.Warnw("worker_alert_sweep_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if c.InventoryAlertSweep == nil {
		logger.Warnw("worker_alert_sweep_skip_sweep_nil", "trigger", payload.Trigger)
		return nil
	}
	result, err := c.InventoryAlertSweep.Run(ctx)
	if err != nil {
		logger.Warnw("worker_alert_sweep_failed", "trigger", payload.Trigger, "error", err)
		return err
	}
	logger.Infow("worker_alert_sweep_done", "trigger", payload.Trigger, "failed", result.Failed)
	return nil
}

package service

import (
	"context"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/queue"

	"github.com/google/uuid"
)

// StockChangeNotifier 库存变更发布器：队列可用时异步，否则同步执行通知引擎
type StockChangeNotifier struct {
	engine      *NotificationEngine
	queueClient *queue.Client
	async       bool
}

// NewStockChangeNotifier 创建库存变更发布器
func NewStockChangeNotifier(cfg *config.Config, engine *NotificationEngine, queueClient *queue.Client) *StockChangeNotifier {
	async := false
	if cfg != nil {
		async = cfg.Notify.Async
	}
	return &StockChangeNotifier{engine: engine, queueClient: queueClient, async: async}
}

// Publish 发布一次库存变更，错误只记录日志
func (n *StockChangeNotifier) Publish(ctx context.Context, product *models.Product, oldStock, newStock int) {
	if n == nil || product == nil || oldStock == newStock {
		return
	}
	eventID := uuid.NewString()
	if n.async && n.queueClient != nil && n.queueClient.Enabled() {
		err := n.queueClient.Enqueue(ctx, queue.StockChangedPayload{
			EventID:   eventID,
			ProductID: product.ID,
			OldStock:  oldStock,
			NewStock:  newStock,
		})
		if err == nil {
			return
		}
		logger.Warnw("stock_change_enqueue_failed_fallback_inline",
			"product_id", product.ID,
			"old_stock", oldStock,
			"new_stock", newStock,
			"error", err,
		)
	}
	n.apply(WithStockEvent(ctx, eventID), product, oldStock, newStock)
}

func (n *StockChangeNotifier) apply(ctx context.Context, product *models.Product, oldStock, newStock int) {
	if n.engine == nil {
		return
	}
	report, err := n.engine.ApplyStockChange(ctx, product, oldStock, newStock)
	if err != nil {
		logger.Warnw("stock_change_evaluate_failed",
			"product_id", product.ID,
			"old_stock", oldStock,
			"new_stock", newStock,
			"error", err,
		)
	}
	if report != nil {
		logger.Debugw("stock_change_evaluated",
			"product_id", product.ID,
			"old_stock", oldStock,
			"new_stock", newStock,
			"sent", report.Sent(),
			"targets", len(report.Deliveries),
		)
	}
}

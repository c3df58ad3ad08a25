package admin

import (
	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/repository"

	"github.com/gin-gonic/gin"
)

// TriggerAlertSweep 手动触发批量库存提醒；队列可用时入队，否则同步执行
func (h *Handler) TriggerAlertSweep(c *gin.Context) {
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		err := h.QueueClient.EnqueueAlertSweep(c.Request.Context(), "admin", h.InventoryAlertSweep.Interval())
		if err == nil {
			requestLog(c).Infow("admin_alert_sweep_enqueued", "admin_id", currentAdminID(c))
			response.Success(c, gin.H{"queued": true})
			return
		}
		requestLog(c).Warnw("admin_alert_sweep_enqueue_failed", "error", err)
	}

	result, err := h.InventoryAlertSweep.Run(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	requestLog(c).Infow("admin_alert_sweep_finished",
		"admin_id", currentAdminID(c),
		"low_stock_emails", result.LowStockEmails,
		"restock_emails", result.RestockEmails,
		"failed", result.Failed,
	)
	response.Success(c, gin.H{"queued": false, "result": result})
}

// ListNotificationLogs 通知发送记录
func (h *Handler) ListNotificationLogs(c *gin.Context) {
	page, pageSize := handlershared.ReadPagination(c)
	filter := repository.NotificationLogListFilter{
		Page:     page,
		PageSize: pageSize,
		Kind:      handlershared.QueryText(c, "kind"),
		Status:    handlershared.QueryText(c, "status"),
		UserID:    handlershared.QueryUint(c, "user_id"),
		ProductID: handlershared.QueryUint(c, "product_id"),
	}
	logs, total, err := h.NotificationLogService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

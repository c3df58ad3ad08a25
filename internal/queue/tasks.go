package queue

import (
	"encoding/json"
	"fmt"

	"github.com/candy-store/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusEmail 订单状态邮件
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskStockChanged 库存变更后评估通知
	TaskStockChanged = constants.TaskInventoryStockChange
	// TaskAlertSweep 库存提醒批量巡检
	TaskAlertSweep = constants.TaskInventoryAlertSweep
)

// Job 可入队的任务载荷，自带任务类型与默认投递选项
type Job interface {
	TaskType() string
	defaultOptions() []asynq.Option
}

// OrderStatusEmailPayload 订单状态邮件任务载荷
type OrderStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

func (OrderStatusEmailPayload) TaskType() string { return TaskOrderStatusEmail }

// 订单每个状态只会进入一次，按订单加状态去重
func (p OrderStatusEmailPayload) defaultOptions() []asynq.Option {
	return []asynq.Option{
		asynq.Queue(constants.QueueDefault),
		asynq.MaxRetry(5),
		asynq.TaskID(fmt.Sprintf("order-status:%d:%s", p.OrderID, p.Status)),
	}
}

// StockChangedPayload 库存变更任务载荷，EventID 标识一次变更
type StockChangedPayload struct {
	EventID   string `json:"event_id,omitempty"`
	ProductID uint   `json:"product_id"`
	OldStock  int    `json:"old_stock"`
	NewStock  int    `json:"new_stock"`
}

func (StockChangedPayload) TaskType() string { return TaskStockChanged }

// 同一事件只入队一次
func (p StockChangedPayload) defaultOptions() []asynq.Option {
	opts := []asynq.Option{asynq.Queue(constants.QueueCritical), asynq.MaxRetry(3)}
	if p.EventID != "" {
		opts = append(opts, asynq.TaskID("stock-changed:"+p.EventID))
	}
	return opts
}

// AlertSweepPayload 批量巡检任务载荷
type AlertSweepPayload struct {
	Trigger string `json:"trigger"` // admin / scheduler
}

func (AlertSweepPayload) TaskType() string { return TaskAlertSweep }

// 巡检自身幂等，失败等待下一轮
func (AlertSweepPayload) defaultOptions() []asynq.Option {
	return []asynq.Option{asynq.Queue(constants.QueueDefault), asynq.MaxRetry(0)}
}

// NewTask 序列化载荷并附带默认选项
func NewTask(job Job) (*asynq.Task, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", job.TaskType(), err)
	}
	return asynq.NewTask(job.TaskType(), body, job.defaultOptions()...), nil
}

// DecodePayload 解析任务载荷，空载荷保持零值
func DecodePayload(task *asynq.Task, dest interface{}) error {
	if len(task.Payload()) == 0 {
		return nil
	}
	if err := json.Unmarshal(task.Payload(), dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	return nil
}

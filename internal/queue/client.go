package queue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/logger"

	"github.com/hibiken/asynq"
)

// Client asynq 客户端封装，未启用时所有投递为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 判断队列是否可用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// Enqueue 投递任务；重复任务视为已投递
func (c *Client) Enqueue(ctx context.Context, job Job, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewTask(job)
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Debugw("queue_task_already_pending", "type", job.TaskType())
		return nil
	}
	if err != nil {
		return err
	}
	logger.Debugw("queue_task_enqueued", "type", job.TaskType(), "id", info.ID, "queue", info.Queue)
	return nil
}

// EnqueueAlertSweep 同一窗口内最多保留一个巡检任务
func (c *Client) EnqueueAlertSweep(ctx context.Context, trigger string, window time.Duration) error {
	var opts []asynq.Option
	if window >= time.Second {
		opts = append(opts, asynq.Unique(window))
	}
	return c.Enqueue(ctx, AlertSweepPayload{Trigger: trigger}, opts...)
}

// NewSweepScheduler 按固定间隔投递巡检任务，队列未启用时返回 nil
func NewSweepScheduler(cfg *config.QueueConfig, interval time.Duration) (*asynq.Scheduler, error) {
	if cfg == nil || !cfg.Enabled || interval < time.Second {
		return nil, nil
	}
	task, err := NewTask(AlertSweepPayload{Trigger: "scheduler"})
	if err != nil {
		return nil, err
	}
	scheduler := asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{
		Location: time.UTC,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
				logger.Warnw("queue_sweep_schedule_failed", "error", err)
			}
		},
	})
	if _, err := scheduler.Register(sweepCronSpec(interval), task, asynq.Unique(interval)); err != nil {
		return nil, fmt.Errorf("register sweep schedule: %w", err)
	}
	return scheduler, nil
}

func sweepCronSpec(interval time.Duration) string {
	return "@every " + interval.Truncate(time.Second).String()
}

// BuildServerConfig 生成 worker 配置，库存通知队列权重更高
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{constants.QueueCritical: 6, constants.QueueDefault: 3}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return redisOpt(cfg), asynq.Config{
		Concurrency:     concurrency,
		Queues:          queues,
		ShutdownTimeout: 8 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Warnw("queue_task_failed", "type", task.Type(), "error", err)
		}),
	}
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host, port := "127.0.0.1", 6379
	opt := asynq.RedisClientOpt{}
	if cfg != nil {
		if trimmed := strings.TrimSpace(cfg.Host); trimmed != "" {
			host = trimmed
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		opt.Password = cfg.Password
		opt.DB = cfg.DB
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	return opt
}

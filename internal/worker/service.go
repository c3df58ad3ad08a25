package worker

import (
	"context"
	"errors"
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 队列消费进程；开启巡检时同时运行 asynq 周期调度
type Service struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

// NewService 队列未启用时返回错误，由调用方决定是否降级
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	svc := &Service{server: asynq.NewServer(opt, serverCfg), mux: asynq.NewServeMux()}
	consumer.Register(svc.mux)

	if interval := consumer.sweepInterval(); interval > 0 {
		scheduler, err := queue.NewSweepScheduler(cfg, interval)
		if err != nil {
			return nil, err
		}
		svc.scheduler = scheduler
	}
	return svc, nil
}

func (s *Service) Name() string { return "worker" }

// Start 阻塞直到 Stop 被调用
func (s *Service) Start(context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return err
		}
	}
	return s.server.Run(s.mux)
}

// Stop 先停调度再等待进行中的任务
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	if s.scheduler != nil {
		s.scheduler.Shutdown()
	}
	s.server.Shutdown()
	return nil
}

// SweepScheduler 队列不可用时在进程内按周期直接执行巡检
type SweepScheduler struct {
	consumer *Consumer
	interval time.Duration
}

// NewSweepScheduler 未开启巡检时返回 nil
func NewSweepScheduler(consumer *Consumer) *SweepScheduler {
	interval := consumer.sweepInterval()
	if interval <= 0 {
		return nil
	}
	return &SweepScheduler{consumer: consumer, interval: interval}
}

func (s *SweepScheduler) Name() string { return "sweep" }

// Start 阻塞直到 ctx 结束
func (s *SweepScheduler) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("sweep scheduler not initialized")
	}
	logger.Infow("sweep_scheduler_started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.consumer.TriggerSweep(ctx, "scheduler", s.interval)
		}
	}
}

func (s *SweepScheduler) Stop(context.Context) error { return nil }

// sweepInterval 巡检关闭或未装配时为 0
func (c *Consumer) sweepInterval() time.Duration {
	if c == nil || c.Container == nil || c.Config == nil || !c.Config.Notify.SweepEnabled || c.InventoryAlertSweep == nil {
		return 0
	}
	return c.InventoryAlertSweep.Interval()
}

// TriggerSweep 队列可用时投递巡检任务，否则直接执行
func (c *Consumer) TriggerSweep(ctx context.Context, trigger string, window time.Duration) {
	if c == nil || c.Container == nil || c.InventoryAlertSweep == nil {
		return
	}
	if c.QueueClient.Enabled() {
		err := c.QueueClient.EnqueueAlertSweep(ctx, trigger, window)
		if err == nil {
			return
		}
		logger.Warnw("worker_alert_sweep_enqueue_failed_fallback_inline", "trigger", trigger, "error", err)
	}
	if _, err := c.InventoryAlertSweep.Run(ctx); err != nil {
		logger.Warnw("worker_alert_sweep_inline_failed", "trigger", trigger, "error", err)
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service 可独立启停的进程组件（HTTP、队列消费、巡检调度）
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 并行运行多个 Service，任一退出即整体关闭
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器，忽略 nil 服务
func NewRunner(services ...Service) *Runner {
	list := make([]Service, 0, len(services))
	for _, svc := range services {
		if svc != nil {
			list = append(list, svc)
		}
	}
	return &Runner{services: list}
}

// Names 返回服务名称，按启动顺序
func (r *Runner) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.services))
	for _, svc := range r.services {
		names = append(names, svc.Name())
	}
	return names
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = opts.withDefaults()
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// errServiceExited 服务正常返回同样触发整体关闭
var errServiceExited = errors.New("service exited")

// Run 启动全部服务，等待信号或首个服务退出后按启动逆序停止
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if stopTimeout <= 0 {
		stopTimeout = defaultShutdownTimeout
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range r.services {
		g.Go(func() error {
			log.Infow("service_start", "service", svc.Name())
			err := svc.Start(gctx)
			log.Infow("service_exit", "service", svc.Name(), "error", err)
			if err != nil {
				return fmt.Errorf("%s: %w", svc.Name(), err)
			}
			return errServiceExited
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		r.stopAll(stopTimeout, log)
		return nil
	})

	if err := g.Wait(); !errors.Is(err, errServiceExited) {
		return err
	}
	return nil
}

func (r *Runner) stopAll(timeout time.Duration, log *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if err := svc.Stop(ctx); err != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}

package app

import (
	"errors"
	"fmt"
	"net"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/provider"
	"github.com/candy-store/internal/router"
	"github.com/candy-store/internal/worker"
)

// ListenAddr 监听地址
func ListenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}

// BuildRunner 按模式装配服务；返回的容器由调用方关闭
func BuildRunner(cfg *config.Config, rawMode string) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}
	mode, ok := ParseMode(rawMode)
	if !ok {
		return nil, nil, fmt.Errorf("unknown mode: %s", rawMode)
	}

	container := provider.NewContainer(cfg)
	var services []Service
	if mode != ModeWorker {
		services = append(services, NewHTTPService(ListenAddr(cfg), router.SetupRouter(cfg, container)))
	}
	if mode != ModeAPI {
		background, err := backgroundServices(cfg, container, mode)
		if err != nil {
			container.Close()
			return nil, nil, err
		}
		services = append(services, background...)
	}
	if len(services) == 0 {
		container.Close()
		return nil, nil, errors.New("no services initialized (check mode and config)")
	}
	return NewRunner(services...), container, nil
}

// backgroundServices 队列不可用时 worker 模式直接失败，all 模式退化为进程内巡检
func backgroundServices(cfg *config.Config, container *provider.Container, mode string) ([]Service, error) {
	consumer := worker.NewConsumer(container)
	svc, err := worker.NewService(&cfg.Queue, consumer)
	if err == nil {
		return []Service{svc}, nil
	}
	if mode == ModeWorker {
		return nil, err
	}
	logger.Warnw("app_worker_disabled", "error", err)
	if scheduler := worker.NewSweepScheduler(consumer); scheduler != nil {
		return []Service{scheduler}, nil
	}
	return nil, nil
}

// Run 装配并运行直到收到信号或任一服务退出
func Run(opts Options) error {
	opts = opts.withDefaults()
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	runner, container, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	defer container.Close()

	opts.Logger.Infow("app_start", "addr", ListenAddr(opts.Config), "mode", opts.Mode, "services", runner.Names())
	return RunWithOptions(runner, opts)
}

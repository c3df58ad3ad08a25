package app

import (
	"os"
	"strings"
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/logger"

	"go.uber.org/zap"
)

// 启动模式
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

const defaultShutdownTimeout = 10 * time.Second

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// ParseMode 规范化启动模式，空值视为 all
func ParseMode(raw string) (string, bool) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	switch mode {
	case "":
		return ModeAll, true
	case ModeAll, ModeAPI, ModeWorker:
		return mode, true
	default:
		return mode, false
	}
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.S()
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = defaultShutdownTimeout
	}
	if mode, ok := ParseMode(o.Mode); ok {
		o.Mode = mode
	}
	return o
}

package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 滚动文件与级别配置，零值字段使用默认值
type Options struct {
	Level      string // 为空时 debug 模式用 debug，其余用 info
	Dir        string // 为空时使用 ./logs
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Stdout     bool // 非 debug 模式同时输出到控制台
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Filename) == "" {
		o.Filename = "candy.log"
	}
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 100
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 7
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 30
	}
	return o
}

// L 全局日志实例，Init 之前为 nil
var L *zap.Logger

var (
	level       = zap.NewAtomicLevelAt(zap.InfoLevel)
	fallbackLog = sync.OnceValue(func() *zap.Logger {
		return newLogger(zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stdout), level))
	})
)

// Init 初始化全局日志并替换 zap 全局实例
func Init(mode string, options Options) *zap.Logger {
	L = New(mode, options)
	zap.ReplaceGlobals(L)
	return L
}

// New debug 模式输出彩色控制台，其余模式写 JSON 滚动文件
func New(mode string, options Options) *zap.Logger {
	debug := strings.EqualFold(strings.TrimSpace(mode), "debug")
	level.SetLevel(resolveLevel(options.Level, debug))

	if debug {
		enc := encoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return newLogger(zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stdout), level))
	}

	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig())
	file, err := openRotatingFile(options.withDefaults())
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file unavailable, writing to stdout: %v\n", err)
		return newLogger(zapcore.NewCore(jsonEncoder, zapcore.Lock(os.Stdout), level))
	}
	core := zapcore.NewCore(jsonEncoder, file, level)
	if options.Stdout {
		core = zapcore.NewTee(core, zapcore.NewCore(jsonEncoder, zapcore.Lock(os.Stdout), level))
	}
	return newLogger(core)
}

// SetLevel 运行时调整级别，非法值返回错误且不改变当前级别
func SetLevel(text string) error {
	parsed, err := zapcore.ParseLevel(strings.TrimSpace(text))
	if err != nil {
		return err
	}
	level.SetLevel(parsed)
	return nil
}

func resolveLevel(text string, debug bool) zapcore.Level {
	if text = strings.TrimSpace(text); text != "" {
		if parsed, err := zapcore.ParseLevel(text); err == nil {
			return parsed
		}
	}
	if debug {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

// StdLogger 供标准库 log 接口使用
func StdLogger() *log.Logger {
	return zap.NewStdLog(current())
}

func current() *zap.Logger {
	if L != nil {
		return L
	}
	return fallbackLog()
}

// S 返回 SugaredLogger
func S() *zap.SugaredLogger {
	return current().Sugar()
}

// SW 附带固定字段，例如 request_id
func SW(kv ...interface{}) *zap.SugaredLogger {
	return S().With(kv...)
}

func Debugw(message string, kv ...interface{}) { S().Debugw(message, kv...) }
func Infow(message string, kv ...interface{})  { S().Infow(message, kv...) }
func Warnw(message string, kv ...interface{})  { S().Warnw(message, kv...) }
func Errorw(message string, kv ...interface{}) { S().Errorw(message, kv...) }

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func newLogger(core zapcore.Core) *zap.Logger {
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel))
}

// openRotatingFile 先探测文件可写，失败时由调用方回退 stdout
func openRotatingFile(options Options) (zapcore.WriteSyncer, error) {
	dir := strings.TrimSpace(options.Dir)
	if dir == "" {
		workDir, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve workdir: %w", err)
		}
		dir = filepath.Join(workDir, "logs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, strings.TrimSpace(options.Filename))
	probe, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	_ = probe.Close()

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    options.MaxSizeMB,
		MaxBackups: options.MaxBackups,
		MaxAge:     options.MaxAgeDays,
		Compress:   options.Compress,
	}), nil
}

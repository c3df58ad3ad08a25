package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/candy-store/internal/logger"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 进程级连接，由 InitDB 设置
var DB *gorm.DB

// DBPoolConfig 连接池参数，零值表示沿用 database/sql 默认
type DBPoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
}

// DBOptions 连接参数
type DBOptions struct {
	Driver string
	DSN    string
	Debug  bool
	// Slow 超过该耗时的 SQL 以 warn 记录
	Slow time.Duration
	Pool DBPoolConfig
}

// OpenDialector sqlite（默认）或 postgres
func OpenDialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s", driver)
}

// Open 建立连接并应用连接池参数
func Open(opts DBOptions) (*gorm.DB, error) {
	dialector, err := OpenDialector(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(opts),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	pool := opts.Pool
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(pool.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.MaxIdleTime)
	return db, nil
}

// InitDB 打开连接并设置全局 DB
func InitDB(opts DBOptions) error {
	db, err := Open(opts)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// newGormLogger SQL 日志并入应用日志，debug 下输出全部语句
func newGormLogger(opts DBOptions) gormlogger.Interface {
	level := gormlogger.Warn
	if opts.Debug {
		level = gormlogger.Info
	}
	slow := opts.Slow
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return gormlogger.New(logger.StdLogger(), gormlogger.Config{
		SlowThreshold:             slow,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Admin{},
		&User{},
		&Preference{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&WatchlistEntry{},
		&StockAlert{},
		&Favorite{},
		&Review{},
		&NotificationLog{},
	}
}

// AutoMigrate 迁移全局 DB
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return DB.AutoMigrate(AllModels()...)
}

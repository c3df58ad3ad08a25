package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/candy-store/internal/app"
	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"

	"github.com/gin-gonic/gin"
)

// 明显不适合生产环境的 JWT 密钥片段
var weakSecretMarkers = []string{"change-me", "change-in-production", "your-secret-key"}

func main() {
	mode := flag.String("mode", app.ModeAll, "启动模式: all | api | worker")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	release := cfg.Server.Mode == "release"
	if release {
		gin.SetMode(gin.ReleaseMode)
	}
	fmt.Fprintf(os.Stderr, "\033[95m\033[1mCandy Store API\033[0m \033[2m(mode=%s, env=%s)\033[0m\n", *mode, cfg.Server.Mode)

	if err := run(cfg, *mode, release); err != nil {
		logger.StdLogger().Fatalf("candy store exited: %v", err)
	}
}

func run(cfg *config.Config, mode string, release bool) error {
	for name, secret := range map[string]string{"jwt": cfg.JWT.SecretKey, "user_jwt": cfg.UserJWT.SecretKey} {
		if !isWeakSecret(secret) {
			continue
		}
		if release {
			return fmt.Errorf("%s secret is weak or still the default value", name)
		}
		logger.Warnw("weak_jwt_secret", "name", name)
	}

	if err := models.InitDB(cfg.Database.ToDBOptions(cfg.Server.Mode == "debug")); err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if err := models.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	seedBootstrapAdmin(release)

	return app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	})
}

// seedBootstrapAdmin 生产环境必须显式提供初始密码
func seedBootstrapAdmin(release bool) {
	username := os.Getenv("CANDY_DEFAULT_ADMIN_USERNAME")
	password := os.Getenv("CANDY_DEFAULT_ADMIN_PASSWORD")
	if release && password == "" {
		logger.Warnw("bootstrap_admin_skipped", "reason", "CANDY_DEFAULT_ADMIN_PASSWORD not set")
		return
	}
	if _, err := models.EnsureBootstrapAdmin(models.DB, username, password); err != nil {
		logger.Warnw("bootstrap_admin_failed", "error", err)
	}
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	lower := strings.ToLower(secret)
	for _, marker := range weakSecretMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

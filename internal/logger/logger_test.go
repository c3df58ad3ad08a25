package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestOpenRotatingFileDefaultsToWorkdirLogs(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	if _, err := openRotatingFile(Options{}.withDefaults()); err != nil {
		t.Fatalf("open default log file failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "logs", "candy.log")); err != nil {
		t.Fatalf("expected logs/candy.log to be created: %v", err)
	}
}

func TestReleaseModeWritesJSONFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "release.log"})
	log.Info("restock-mail-sent", zap.Uint("product_id", 9))
	log.Debug("hidden-at-info")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), `"message":"restock-mail-sent"`) || !strings.Contains(string(content), `"product_id":9`) {
		t.Fatalf("expected json log line, got=%s", string(content))
	}
	if strings.Contains(string(content), "hidden-at-info") {
		t.Fatalf("debug lines should be filtered at info level")
	}
}

func TestConfiguredLevelOverridesMode(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "warn.log", Level: "warn"})
	log.Info("dropped-info")
	log.Warn("kept-warn")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "warn.log"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if strings.Contains(string(content), "dropped-info") || !strings.Contains(string(content), "kept-warn") {
		t.Fatalf("level filter mismatch: %s", string(content))
	}
}

func TestDebugModeSkipsFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("DEBUG", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	if err := SetLevel("chatty"); err == nil {
		t.Fatalf("unknown level should be rejected")
	}
	if err := SetLevel("error"); err != nil {
		t.Fatalf("set level failed: %v", err)
	}
	if level.Level() != zap.ErrorLevel {
		t.Fatalf("level should be error, got %s", level.Level())
	}
}

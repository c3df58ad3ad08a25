package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/candy-store/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  int32
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	atomic.AddInt32(&s.stopped, 1)
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	failing := &fakeService{name: "broken", startErr: errors.New("boom")}
	blocking := &fakeService{name: "http", block: true}
	runner := NewRunner(failing, blocking)

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "broken: boom" {
		t.Fatalf("expected start error, got %v", err)
	}
	if atomic.LoadInt32(&failing.stopped) != 1 || atomic.LoadInt32(&blocking.stopped) != 1 {
		t.Fatalf("expected every service to be stopped")
	}
}

func TestRunnerReturnsNilOnCancel(t *testing.T) {
	blocking := &fakeService{name: "worker", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(blocking).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("expected nil on cancel, got %v", err)
	}
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	if _, _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("expected nil config error")
	}
	if _, _, err := BuildRunner(&config.Config{}, "cron"); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestNewRunnerSkipsNilServices(t *testing.T) {
	runner := NewRunner(nil, &fakeService{name: "http"}, nil, &fakeService{name: "sweep"})
	names := runner.Names()
	if len(names) != 2 || names[0] != "http" || names[1] != "sweep" {
		t.Fatalf("unexpected services: %v", names)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]struct {
		mode string
		ok   bool
	}{
		"":       {ModeAll, true},
		" API ":  {ModeAPI, true},
		"worker": {ModeWorker, true},
		"cron":   {"cron", false},
	}
	for raw, want := range cases {
		mode, ok := ParseMode(raw)
		if mode != want.mode || ok != want.ok {
			t.Fatalf("ParseMode(%q) = %q,%v want %q,%v", raw, mode, ok, want.mode, want.ok)
		}
	}
}

package lifecycle_test

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/vantage/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()
	if lc.Ready() {
		t.Error("ready before WaitForStartup")
	}

	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup: %v", err)
	}
	if !lc.Ready() {
		t.Error("not ready after WaitForStartup")
	}
}

func TestStartupHooksRun(t *testing.T) {
	lc := lifecycle.New()

	var count atomic.Int32
	for _, name := range []string{"database", "storage", "model"} {
		lc.OnStartup(name, func() error {
			count.Add(1)
			return nil
		})
	}

	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup: %v", err)
	}
	if got := count.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}
}

func TestStartupFailure(t *testing.T) {
	lc := lifecycle.New()
	errPing := errors.New("connection refused")

	lc.OnStartup("database", func() error { return errPing })
	lc.OnStartup("storage", func() error { return nil })

	err := lc.WaitForStartup()
	if !errors.Is(err, errPing) {
		t.Fatalf("WaitForStartup: got %v, want %v", err, errPing)
	}
	if !strings.Contains(err.Error(), "database") {
		t.Errorf("error %q should name the failing hook", err)
	}
	if lc.Ready() {
		t.Error("ready despite failed startup hook")
	}
	if !errors.Is(lc.Err(), errPing) {
		t.Errorf("Err: got %v", lc.Err())
	}
}

func TestShutdown(t *testing.T) {
	lc := lifecycle.New()

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		cleaned.Store(true)
	})
	lc.WaitForStartup()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !cleaned.Load() {
		t.Error("shutdown hook did not run")
	}

	select {
	case <-lc.Context().Done():
	default:
		t.Error("context not cancelled after shutdown")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	release := make(chan struct{})
	defer close(release)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-release
	})

	if err := lc.Shutdown(50 * time.Millisecond); err == nil {
		t.Error("expected timeout error")
	}
}

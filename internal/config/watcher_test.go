package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWatcherDeliversReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	workDir := t.TempDir()
	if err := InitWorkspace(workDir); err != nil {
		t.Fatalf("init workspace: %v", err)
	}

	w, err := WatchConfig(workDir)
	if err != nil {
		t.Fatalf("watch config: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	defer w.Stop()

	cfg, err := NewConfig(workDir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.File.Physics.BoxSpeed = 650
	if err := cfg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	select {
	case update := <-w.Updates():
		if update.Err != nil {
			t.Fatalf("reload reported error: %v", update.Err)
		}
		if got := update.Config.File.Physics.BoxSpeed; got != 650 {
			t.Fatalf("expected reloaded box_speed 650, got %v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatcherReportsInvalidDocument(t *testing.T) {
	defer goleak.VerifyNone(t)

	workDir := t.TempDir()
	if err := InitWorkspace(workDir); err != nil {
		t.Fatalf("init workspace: %v", err)
	}

	w, err := WatchConfig(workDir)
	if err != nil {
		t.Fatalf("watch config: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	defer w.Stop()

	cfg, err := NewConfig(workDir)
	if err != nil {
		t.Fatal(err)
	}
	bad := "physics:\n  friction: 9\n"
	if err := os.WriteFile(cfg.ConfigPath(), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case update := <-w.Updates():
		if update.Err == nil {
			t.Fatal("expected an error for an invalid document")
		}
		if !strings.Contains(update.Err.Error(), "friction") {
			t.Fatalf("unexpected error: %v", update.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher update")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	workDir := t.TempDir()
	if err := InitWorkspace(workDir); err != nil {
		t.Fatal(err)
	}
	w, err := WatchConfig(workDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcherStopReleasesUnstartedHandle(t *testing.T) {
	defer goleak.VerifyNone(t)

	workDir := t.TempDir()
	if err := InitWorkspace(workDir); err != nil {
		t.Fatal(err)
	}
	w, err := WatchConfig(workDir)
	if err != nil {
		t.Fatal(err)
	}
	// Never started; Stop must still close the fsnotify handle.
	w.Stop()
}

func TestWatcherStopReleasesHandleAfterStartFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	workDir := t.TempDir()
	w, err := WatchConfig(workDir)
	if err != nil {
		t.Fatal(err)
	}
	// The workspace was never scaffolded, so the watch target is missing.
	if err := w.Start(); err == nil {
		t.Fatal("expected Start to fail for a missing workspace directory")
	}
	w.Stop()
}

package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithDevelopment()); err != nil {
		t.Fatalf("failed to initialize development logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerWritesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	if err := Init(WithOutputPaths(path)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	ctx := WithRequestID(context.Background(), "req-1")
	Named("predict").Info(ctx, "prediction served",
		String("winner", "BOS"),
		Float64("confidence", 61.5),
		Error(errors.New("boom")),
	)
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(raw)
	for _, want := range []string{`"msg":"prediction served"`, `"logger":"predict"`, `"winner":"BOS"`, `"request_id":"req-1"`, `"error":"boom"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %s", line, want)
		}
	}
}

func TestSetLevelString(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "", "warn", "warning", "error", " INFO "} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q) = %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

func TestLoggerDebugFiltered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	if err := Init(WithOutputPaths(path)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	_ = SetLevelString("info")
	Get().Debug(context.Background(), "hidden")
	Get().Warn(context.Background(), "shown")
	_ = Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(raw), "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(string(raw), "shown") {
		t.Error("warn line missing")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info(context.Background(), "discarded", Int("n", 1), Bool("ok", true), Any("x", 1))
	if l.Named("child") == nil {
		t.Fatal("named nop logger is nil")
	}
}

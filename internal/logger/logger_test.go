package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		l, err := NewLogger(env)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", env, err)
		}
		if l == nil {
			t.Fatalf("%s: nil logger", env)
		}
	}
}

func TestNewLogger_DefaultLevels(t *testing.T) {
	prod, _ := NewLogger("prod")
	if prod.Core().Enabled(zapcore.DebugLevel) {
		t.Error("prod must not log debug by default")
	}
	local, _ := NewLogger("local")
	if !local.Core().Enabled(zapcore.DebugLevel) {
		t.Error("local must log debug by default")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("local", "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info must be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn must be enabled")
	}

	// Empty override keeps the environment default.
	l, err = NewLogger("local", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("empty override must keep debug")
	}
}

func TestNewLogger_Errors(t *testing.T) {
	if _, err := NewLogger("staging"); err == nil {
		t.Error("expected error for unknown env")
	}
	if _, err := NewLogger("prod", "verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	ctx := ContextWithLogger(context.Background(), l)
	FromContext(ctx).Info("from context")
	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}

	// Missing logger: FromContext returns a no-op, FromContextOr the fallback.
	FromContext(context.Background()).Info("dropped")
	FromContextOr(context.Background(), l).Info("fallback")
	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	if got := FromContextOr(ctx, zap.NewNop()); got != l {
		t.Error("FromContextOr must prefer the context logger")
	}
}

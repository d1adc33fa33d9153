package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewAttachesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: "api",
		Handler:   slog.NewTextHandler(&buf, nil),
	})

	logger.Info("started")

	out := buf.String()
	if !strings.Contains(out, "component=api") {
		t.Fatalf("missing component attribute: %q", out)
	}
	if !strings.Contains(out, "msg=started") {
		t.Fatalf("missing message: %q", out)
	}
	if logger.Component() != "api" {
		t.Fatalf("Component() = %q, want %q", logger.Component(), "api")
	}
}

func TestWithComponentRescopes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil)})

	scoped := logger.WithComponent("events")
	scoped.Info("consumed")

	if scoped.Component() != "events" {
		t.Fatalf("Component() = %q, want %q", scoped.Component(), "events")
	}
	if !strings.Contains(buf.String(), "component=events") {
		t.Fatalf("missing component attribute: %q", buf.String())
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:   slog.LevelWarn,
		Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	})

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info record leaked past warn level: %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "msg=kept") {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

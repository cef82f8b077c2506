package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandlerWritesLevelAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug)

	log.Info("forward pass", "len", 25)
	out := buf.String()
	if !strings.Contains(out, "forward pass") {
		t.Fatalf("missing message: %q", out)
	}
	if !strings.Contains(out, "len=25") {
		t.Fatalf("missing attribute: %q", out)
	}
	if !strings.Contains(out, "INFO") {
		t.Fatalf("missing level: %q", out)
	}
}

func TestPrettyHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelWarn)

	log.Debug("hidden")
	log.Info("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("records below level were written: %q", buf.String())
	}
	log.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

func TestWithAddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelInfo).With("atom", 3)
	log.Info("pass done")
	if !strings.Contains(buf.String(), "atom=3") {
		t.Fatalf("bound attribute missing: %q", buf.String())
	}
}

func TestWithGroupNestsAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo).WithGroup("request")
	log.Info("served", "id", "pred-1")
	out := buf.String()
	if !strings.Contains(out, `"request":{"id":"pred-1"}`) {
		t.Fatalf("group missing from record: %q", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	ctx := WithContext(context.Background(), log)
	if FromContext(ctx) != log {
		t.Fatalf("logger not recovered from context")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): got %v, want %v", in, got, want)
		}
	}
}

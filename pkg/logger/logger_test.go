package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInfoWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "portal", Output: &buf})

	logg.Info(context.Background(), "engine started")

	line := decodeLine(t, buf.String())
	if line["service"] != "portal" {
		t.Fatalf("expected service field, got %v", line["service"])
	}
	if line["message"] != "engine started" {
		t.Fatalf("unexpected message %v", line["message"])
	}
	if line["level"] != "info" {
		t.Fatalf("unexpected level %v", line["level"])
	}
}

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "portal", Output: &buf})

	ctx := logg.WithCustomerID(context.Background(), "cus_1")
	ctx = logg.WithPaymentID(ctx, "pay_1")
	logg.Info(ctx, "merged")

	line := decodeLine(t, buf.String())
	if line["customer_id"] != "cus_1" || line["payment_id"] != "pay_1" {
		t.Fatalf("expected context fields, got %v", line)
	}
}

func TestErrorIncludesErrAndStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "portal", Output: &buf})

	logg.Error(context.Background(), "merge failed", errors.New("deadline exceeded"))

	line := decodeLine(t, buf.String())
	if line["error"] != "deadline exceeded" {
		t.Fatalf("expected error field, got %v", line["error"])
	}
	stack, _ := line["stack"].(string)
	if stack == "" {
		t.Fatal("expected a stack trace on error logs")
	}
}

func TestLevelFiltersLowerEvents(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "portal", Level: zerolog.WarnLevel, Output: &buf})

	logg.Info(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Fatalf("info below warn level must be dropped, got %q", buf.String())
	}

	logg.Warn(context.Background(), "kept")
	if buf.Len() == 0 {
		t.Fatal("warn at warn level must be written")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		value string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nope", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.value); got != tt.want {
			t.Fatalf("ParseLevel(%q): expected %v got %v", tt.value, tt.want, got)
		}
	}
}

func decodeLine(t *testing.T, raw string) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("expected at least one log line")
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &decoded); err != nil {
		t.Fatalf("decode log line %q: %v", raw, err)
	}
	return decoded
}

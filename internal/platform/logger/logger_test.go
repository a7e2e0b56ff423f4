package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        Info,
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"bogus":   Info,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestJSONLogger_MergesFieldsAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatJSON, App: "pet-adoption", Output: &buf})

	l.Debug("hidden", nil)
	l.With(map[string]any{"request_id": "r-1"}).Warn("notification failed", map[string]any{
		"err": errors.New("smtp down"),
		"":    "dropped",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json line: %v", err)
	}
	if entry["app"] != "pet-adoption" || entry["request_id"] != "r-1" {
		t.Fatalf("missing base fields: %#v", entry)
	}
	if entry["err"] != "smtp down" {
		t.Fatalf("expected error rendered as string, got %#v", entry["err"])
	}
	if entry["level"] != "warning" {
		t.Fatalf("expected level warning, got %#v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts field")
	}
}

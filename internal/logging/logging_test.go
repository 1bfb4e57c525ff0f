package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFieldsToOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf}).With(String("component", "scene"))
	l.Warn(context.Background(), "building skipped", Int64("id", 42), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if rec["msg"] != "building skipped" || rec["level"] != "WARN" {
		t.Fatalf("record = %v", rec)
	}
	if rec["component"] != "scene" || rec["id"] != float64(42) || rec["error"] != "boom" {
		t.Fatalf("fields = %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	l.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	l.Error(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("error not logged: %q", buf.String())
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "abc")
	if got := RequestIDFromContext(ctx); got != "abc" {
		t.Fatalf("RequestIDFromContext = %q, want abc", got)
	}
	if _, ok := FromContext(ctx, nil).(noopLogger); !ok {
		t.Fatal("FromContext without logger should fall back to Noop")
	}
	l := New(Config{Output: &bytes.Buffer{}})
	if got := FromContext(ContextWithLogger(ctx, l), nil); got != l {
		t.Fatal("FromContext did not return stored logger")
	}
}

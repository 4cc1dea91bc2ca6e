package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestFromContextAttachesKeys(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "json")

	ctx := WithContext(context.Background(), RequestIDKey, "req-1")
	ctx = WithContext(ctx, ClientIPKey, "10.0.0.1")
	Error(ctx, "lookup failed", errors.New("boom"), "term", "China")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["request_id"] != "req-1" || line["client_ip"] != "10.0.0.1" {
		t.Fatalf("context keys missing: %v", line)
	}
	if line["error"] != "boom" || line["term"] != "China" {
		t.Fatalf("attrs missing: %v", line)
	}
}

func TestParseLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", "text")

	Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}
	Warn(context.Background(), "shown")
	if buf.Len() == 0 {
		t.Fatalf("warn should be written")
	}
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/Strob0t/DealerForge/internal/config"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
)

func TestNew(t *testing.T) {
	cfg := config.Logging{Level: "debug", Service: "test-svc"}
	l, closer := New(cfg)
	defer closer.Close()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewAsync(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Logging{Level: "debug", Service: "test-svc", Async: true}
	l, closer := NewWithWriter(cfg, &buf)
	l.Info("queued")
	closer.Close()

	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"queued"`)) {
		t.Fatalf("expected record after Close, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input).String()
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()

	if got := RequestID(ctx); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %q", got)
	}
}

func TestContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	l, closer := NewWithWriter(config.Logging{Level: "info", Service: "svc"}, &buf)
	defer closer.Close()

	ctx := WithRequestID(context.Background(), "req-9")
	ctx = auth.WithRequestContext(ctx, &auth.RequestContext{UserID: "u1", TenantID: "t1"})
	l.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	for key, want := range map[string]string{"service": "svc", "request_id": "req-9", "tenant_id": "t1", "user_id": "u1"} {
		if rec[key] != want {
			t.Errorf("%s = %v, want %s", key, rec[key], want)
		}
	}
}

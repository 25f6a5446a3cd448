package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/DealerForge/internal/domain/auth"
)

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestResponseWriterHijack(t *testing.T) {
	inner := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw := &responseWriter{ResponseWriter: inner, status: http.StatusOK}

	// The websocket upgrade needs the hijacker behind the access logger.
	hj, ok := http.ResponseWriter(rw).(http.Hijacker)
	if !ok {
		t.Fatal("responseWriter does not implement http.Hijacker")
	}
	if _, _, err := hj.Hijack(); err != nil {
		t.Fatalf("Hijack: %v", err)
	}
	if !inner.hijacked {
		t.Fatal("Hijack did not reach the inner writer")
	}

	plain := &responseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	if _, _, err := plain.Hijack(); err == nil {
		t.Fatal("expected error when upstream does not implement Hijacker")
	}
}

func TestResponseWriterFlush(t *testing.T) {
	inner := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: inner, status: http.StatusOK}
	rw.Flush()
	if !inner.Flushed {
		t.Fatal("expected inner ResponseRecorder to be flushed")
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggerRecordsTenantAndStatus(t *testing.T) {
	buf := captureLog(t)

	authed := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := &auth.RequestContext{UserID: "u1", TenantID: "t1"}
			next.ServeHTTP(w, r.WithContext(auth.WithRequestContext(r.Context(), rc)))
		})
	}
	h := Logger(authed(recordTenant(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/v1/sales", http.NoBody))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["tenant_id"] != "t1" {
		t.Fatalf("expected tenant_id t1, got %v", rec["tenant_id"])
	}
	if rec["status"] != float64(http.StatusConflict) {
		t.Fatalf("expected status 409, got %v", rec["status"])
	}
	if rec["level"] != "INFO" {
		t.Fatalf("expected INFO, got %v", rec["level"])
	}
}

func TestLoggerServerErrorLevel(t *testing.T) {
	buf := captureLog(t)
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", http.NoBody))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["level"] != "ERROR" {
		t.Fatalf("expected ERROR, got %v", rec["level"])
	}
	if rec["tenant_id"] != "" {
		t.Fatalf("expected empty tenant_id, got %v", rec["tenant_id"])
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(w, httptest.NewRequest("GET", "/", http.NoBody))

	for k, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := w.Header().Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

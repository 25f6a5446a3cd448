package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/port/cache"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyBody   = 1 << 20 // 1 MB
)

// idempotencyEntry stores a cached HTTP response and a fingerprint of the
// request body that produced it.
type idempotencyEntry struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
	Request    string              `json:"request"`
}

// Idempotency returns middleware that replays the response of a successful
// POST/PUT/DELETE when the same caller repeats it with the same
// Idempotency-Key header. Keys are scoped to the caller's tenant and user,
// so one tenant can never receive another tenant's stored response. Reusing
// a key with a different body is rejected with 422. Failed requests are not
// stored and may be retried.
func Idempotency(store cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(headerIdempotencyKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			fingerprint, ok := bodyFingerprint(r)
			if !ok {
				// Oversized bodies are left to the handler's body limit.
				next.ServeHTTP(w, r)
				return
			}
			storeKey := idempotencyStoreKey(r, key)

			if data, ok, err := store.Get(r.Context(), storeKey); err != nil {
				slog.WarnContext(r.Context(), "idempotency lookup failed", "error", err)
			} else if ok {
				var cached idempotencyEntry
				if err := json.Unmarshal(data, &cached); err == nil {
					if cached.Request != fingerprint {
						writeKeyReused(w)
						return
					}
					for k, vals := range cached.Headers {
						w.Header()[k] = vals
					}
					w.Header().Set(headerReplayed, "true")
					w.WriteHeader(cached.StatusCode)
					_, _ = w.Write(cached.Body)
					return
				}
				slog.WarnContext(r.Context(), "idempotency: corrupt cache entry", "key", storeKey)
			}

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= 300 || rec.body.Len() > maxIdempotencyBody {
				return
			}
			headers := w.Header().Clone()
			headers.Del(headerRequestID)
			data, err := json.Marshal(idempotencyEntry{
				StatusCode: rec.statusCode,
				Headers:    headers,
				Body:       rec.body.Bytes(),
				Request:    fingerprint,
			})
			if err != nil {
				return
			}
			if err := store.Set(r.Context(), storeKey, data, ttl); err != nil {
				slog.WarnContext(r.Context(), "idempotency: failed to store response", "key", storeKey, "error", err)
			}
		})
	}
}

// bodyFingerprint hashes the request body and puts the bytes back for the
// handler. It reports false when the body is larger than maxIdempotencyBody.
func bodyFingerprint(r *http.Request) (string, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return hex.EncodeToString(sha256.New().Sum(nil)), true
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBody+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
	if err != nil || len(buf) > maxIdempotencyBody {
		return "", false
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), true
}

func writeKeyReused(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "idempotency key reused with a different request body"})
}

// idempotencyStoreKey hashes the caller, the route and the client key into a
// key that is valid for every cache backend.
func idempotencyStoreKey(r *http.Request, key string) string {
	h := sha256.New()
	if rc := auth.FromContext(r.Context()); rc != nil {
		h.Write([]byte(rc.TenantID + "\x00" + rc.UserID + "\x00"))
	}
	h.Write([]byte(r.Method + " " + r.URL.Path + "\x00" + key))
	return "idem." + hex.EncodeToString(h.Sum(nil))
}

// responseRecorder wraps http.ResponseWriter to capture the response.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
)

// Authenticator turns credentials into a verified request identity.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*auth.RequestContext, error)
	AuthenticateToken(ctx context.Context, raw string) (*auth.RequestContext, error)
}

// Auth returns middleware that runs every request through the access gate
// and stores the resulting RequestContext. Denied requests never reach next.
// Only the Authorization header is accepted.
func Auth(gate Authenticator) func(http.Handler) http.Handler {
	return authenticate(func(r *http.Request) (*auth.RequestContext, error) {
		return gate.Authenticate(r.Context(), r.Header.Get("Authorization"))
	})
}

// WSAuth is Auth for websocket upgrades. Browsers cannot set headers on an
// upgrade, so the token query parameter is accepted when no Authorization
// header is present. Mount it on the websocket route only.
func WSAuth(gate Authenticator) func(http.Handler) http.Handler {
	return authenticate(func(r *http.Request) (*auth.RequestContext, error) {
		header := r.Header.Get("Authorization")
		if token := r.URL.Query().Get("token"); header == "" && token != "" {
			return gate.AuthenticateToken(r.Context(), token)
		}
		return gate.Authenticate(r.Context(), header)
	})
}

func authenticate(verify func(*http.Request) (*auth.RequestContext, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, err := verify(r)
			if err != nil {
				logDenied(r, err)
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithRequestContext(r.Context(), rc)))
		})
	}
}

func logDenied(r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		// Too common to be interesting.
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrTenantSuspended):
		slog.InfoContext(r.Context(), "request denied", "path", r.URL.Path, "reason", err.Error())
	default:
		slog.ErrorContext(r.Context(), "access gate failed", "path", r.URL.Path, "error", err)
	}
}

package middleware

import (
	"net/http"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
)

// RequireTenant rejects callers without a tenant, such as super-admins, on
// routes that operate on tenant data.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := auth.FromContext(r.Context())
		if rc == nil {
			WriteError(w, domain.ErrUnauthenticated)
			return
		}
		if rc.TenantID == "" {
			WriteError(w, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"net/http"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/user"
)

// RequirePrivilege returns middleware that restricts access to callers
// holding one of the given privileges.
func RequirePrivilege(privs ...user.Privilege) func(http.Handler) http.Handler {
	allowed := make(map[user.Privilege]bool, len(privs))
	for _, p := range privs {
		allowed[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := auth.FromContext(r.Context())
			if rc == nil {
				WriteError(w, domain.ErrUnauthenticated)
				return
			}
			if !allowed[rc.Privilege] {
				WriteError(w, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

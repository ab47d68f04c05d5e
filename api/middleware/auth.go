package middleware

import (
	"net/http"

	"github.com/angelmondragon/marketplace-storefront/api/responses"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

// RequireAuth rejects requests whose session holds no access token. It must
// run after Session.
func RequireAuth(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := StateFromContext(r.Context())
			if state == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session state missing"))
				return
			}
			if !state.IsAuthenticated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Please sign in to continue"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

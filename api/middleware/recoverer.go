package middleware

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/marketplace-storefront/api/responses"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

// Recoverer answers a handler panic with the generic toast and logs it against
// the storefront session. http.ErrAbortHandler is re-raised for net/http.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				err := pkgerrors.Wrap(pkgerrors.CodeInternal, fmt.Errorf("panic: %v", recovered), "panic")
				ctx := r.Context()
				if logg != nil {
					fields := map[string]any{
						"method":           r.Method,
						"path":             r.URL.Path,
						"toast":            pkgerrors.UserMessage(err),
						"response_started": rec.status != 0,
					}
					if trace := traceFromContext(ctx); trace != nil && trace.sessionID != "" {
						fields["session_id"] = trace.sessionID
					}
					ctx = logg.WithFields(ctx, fields)
					logg.Error(ctx, "panic.recovered", err)
				}
				// A started response cannot be replaced.
				if rec.status != 0 {
					return
				}
				responses.WriteError(ctx, nil, w, err)
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

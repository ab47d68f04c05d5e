package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

const (
	requestIDHeader    = "X-Request-Id"
	maxRequestIDLength = 64
)

const ctxTrace contextKey = "request_trace"

// requestTrace is shared by every layer of one request. Session fills in the
// storefront identity so the outer logging and recovery layers can report it.
type requestTrace struct {
	requestID string
	sessionID string
	userID    string
}

func traceFromContext(ctx context.Context) *requestTrace {
	if ctx == nil {
		return nil
	}
	trace, _ := ctx.Value(ctxTrace).(*requestTrace)
	return trace
}

// RequestIDFromContext returns the id RequestID assigned, empty outside it.
func RequestIDFromContext(ctx context.Context) string {
	if trace := traceFromContext(ctx); trace != nil {
		return trace.requestID
	}
	return ""
}

// RequestID tags every request with an id echoed in X-Request-Id. An inbound
// id is kept only when it is a short token, anything else is replaced.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if !validRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := context.WithValue(r.Context(), ctxTrace, &requestTrace{requestID: reqID})
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// traceSession records the resolved session on the shared trace.
func traceSession(ctx context.Context, sessionID, userID string) {
	if trace := traceFromContext(ctx); trace != nil {
		trace.sessionID = sessionID
		trace.userID = userID
	}
}

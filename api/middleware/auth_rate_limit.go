package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-storefront/api/responses"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

const rateLimitedMessage = "Too many attempts. Please try again later."

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type limitScope string

const (
	scopeSession limitScope = "session"
	scopeIP      limitScope = "ip"
	scopeEmail   limitScope = "email"
)

// AuthRateLimits are the attempt ceilings per window for each subject. Zero
// turns a subject off.
type AuthRateLimits struct {
	Session int
	IP      int
	Email   int
}

// AuthRateLimitPolicy throttles one credential surface (login, OTP) per
// storefront session, client IP and account email.
type AuthRateLimitPolicy struct {
	name   string
	window time.Duration
	limits AuthRateLimits
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, limits AuthRateLimits) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, limits: limits}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.limits.Session > 0 || p.limits.IP > 0 || p.limits.Email > 0)
}

func (p AuthRateLimitPolicy) key(scope limitScope, subject string) string {
	return fmt.Sprintf("%s:%s:%s", p.name, scope, subject)
}

func (p AuthRateLimitPolicy) retryAfter() string {
	return strconv.Itoa(int((p.window + time.Second - 1) / time.Second))
}

type attempt struct {
	scope   limitScope
	subject string
	limit   int
}

// AuthRateLimit counts login and OTP attempts and answers 429 once any subject
// exceeds its ceiling. OTP requests without an email are charged to the
// session's pending signup email.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			attempts, err := policy.attempts(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			for _, a := range attempts {
				allowed, count, err := store.FixedWindowAllow(ctx, policy.key(a.scope, a.subject), int64(a.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limiting"))
					return
				}
				if !allowed {
					policy.reject(ctx, logg, w, a, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// attempts lists the subjects charged for r, session first. The request body
// is restored for the handler.
func (p AuthRateLimitPolicy) attempts(r *http.Request) ([]attempt, error) {
	var out []attempt
	add := func(scope limitScope, subject string, limit int) {
		if limit > 0 && subject != "" {
			out = append(out, attempt{scope: scope, subject: subject, limit: limit})
		}
	}

	add(scopeSession, SessionIDFromContext(r.Context()), p.limits.Session)
	add(scopeIP, clientIP(r), p.limits.IP)

	if p.limits.Email > 0 {
		email, err := requestEmail(r)
		if err != nil {
			return nil, err
		}
		if email != "" {
			add(scopeEmail, hashValue(email), p.limits.Email)
		}
	}
	return out, nil
}

func requestEmail(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read request")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if email := normalizeEmail(extractEmail(body)); email != "" {
		return email, nil
	}
	state := StateFromContext(r.Context())
	if state == nil {
		return "", nil
	}
	pending, err := state.SignupEmail(r.Context())
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load signup email")
	}
	return normalizeEmail(pending), nil
}

func (p AuthRateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, a attempt, count int64) {
	if logg != nil {
		fields := map[string]any{
			"scope":          string(a.scope),
			"policy":         p.name,
			"attempts":       count,
			"limit":          a.limit,
			"window_seconds": int(p.window.Seconds()),
		}
		switch a.scope {
		case scopeIP:
			fields["ip"] = a.subject
		case scopeEmail:
			fields["email_hash"] = a.subject
		}
		logg.Warn(logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", p.retryAfter())
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, rateLimitedMessage))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-storefront/api/responses"
	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

// StateOpener opens the client state of one storefront session.
type StateOpener interface {
	Open(ctx context.Context, sessionID string) (*clientstate.Store, error)
}

// Session resolves the storefront session cookie, minting one on first
// contact, and opens that session's state for the handlers below.
func Session(opener StateOpener, cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "sf_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(cookieName); err == nil {
				sessionID = strings.TrimSpace(cookie.Value)
			}
			if _, err := uuid.Parse(sessionID); err != nil {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(cfg.PersistTTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			state, err := opener.Open(ctx, sessionID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open session state"))
				return
			}
			userID := ""
			if user := state.User(); user != nil {
				userID = user.ID
			}
			if logg != nil && userID != "" {
				ctx = logg.WithUserID(ctx, userID)
			}
			traceSession(ctx, sessionID, userID)

			next.ServeHTTP(w, r.WithContext(WithState(ctx, state)))
		})
	}
}

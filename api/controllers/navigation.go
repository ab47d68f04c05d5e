package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-storefront/api/responses"
	"github.com/angelmondragon/marketplace-storefront/api/validators"
	"github.com/angelmondragon/marketplace-storefront/internal/navguard"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

// NavigationDispatcher routes a navigation attempt to the session's shell.
type NavigationDispatcher interface {
	Dispatch(sessionID string, attempt navguard.Attempt) navguard.Verdict
}

// Navigation asks the session's guard whether the shell may leave the page.
func Navigation(registry NavigationDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil {
			unavailable(w, r, logg, "navigation")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		var attempt navguard.Attempt
		if err := validators.DecodeJSONBody(r, &attempt); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		verdict := registry.Dispatch(state.SessionID(), attempt)
		if !verdict.Allow && logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"navigation_kind": attempt.Kind, "to": attempt.To})
			logg.Info(ctx, "navigation.blocked_during_payment")
		}
		responses.WriteSuccess(w, verdict)
	}
}

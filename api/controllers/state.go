package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-storefront/api/middleware"
	"github.com/angelmondragon/marketplace-storefront/api/responses"
	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/internal/optimistic"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

func sessionState(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*clientstate.Store, bool) {
	state := middleware.StateFromContext(r.Context())
	if state == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session state missing"))
		return nil, false
	}
	return state, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

// awaitConfirmation reports whether the caller asked to block until an
// optimistic write is confirmed or rolled back.
func awaitConfirmation(r *http.Request) bool {
	return r.URL.Query().Get("wait") == "true"
}

func settle[T any](r *http.Request, done <-chan optimistic.Result[T]) (optimistic.Result[T], error) {
	select {
	case result := <-done:
		return result, nil
	case <-r.Context().Done():
		return optimistic.Result[T]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, r.Context().Err(), "request cancelled")
	}
}

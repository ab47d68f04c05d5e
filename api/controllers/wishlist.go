package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-storefront/api/responses"
	"github.com/angelmondragon/marketplace-storefront/internal/wishlist"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

func WishlistFetch(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "wishlist")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		ids, err := svc.List(r.Context(), state)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"productIds": ids})
	}
}

// WishlistToggle answers with the optimistic state. With ?wait=true it
// blocks until the marketplace confirms or the change is rolled back.
func WishlistToggle(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "wishlist")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		productID, err := pathParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, done, err := svc.Toggle(r.Context(), state, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !awaitConfirmation(r) {
			responses.WriteSuccessStatus(w, http.StatusAccepted, result)
			return
		}
		confirmed, err := settle(r, done)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inWishlist, err := confirmed.Value()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result.InWishlist = inWishlist
		responses.WriteSuccess(w, result)
	}
}

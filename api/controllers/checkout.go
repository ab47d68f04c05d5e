package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-storefront/api/responses"
	"github.com/angelmondragon/marketplace-storefront/api/validators"
	checkoutsvc "github.com/angelmondragon/marketplace-storefront/internal/checkout"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

const maxOrderNotes = 1000

// CheckoutQuote partitions and prices the items for the selected method.
func CheckoutQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "checkout")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		var body checkoutsvc.QuoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Quote(r.Context(), state, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CheckoutPlaceOrder runs the payment intent flow. The route sits behind the
// idempotency middleware, so a replayed key returns the stored outcome.
func CheckoutPlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "checkout")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		var body checkoutsvc.PlaceOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Notes = validators.SanitizeString(body.Notes, maxOrderNotes)

		result, err := svc.PlaceOrder(r.Context(), state, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

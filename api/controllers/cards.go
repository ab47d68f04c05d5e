package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-storefront/api/responses"
	"github.com/angelmondragon/marketplace-storefront/api/validators"
	"github.com/angelmondragon/marketplace-storefront/internal/cards"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

func CardsList(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cards")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.List(r.Context(), state)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CardsAdd(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cards")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		var body cards.AddCardInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		card, err := svc.Add(r.Context(), state, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, card)
	}
}

func CardsDelete(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cards")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		cardID, err := pathParam(r, "cardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), state, cardID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CardsSetDefault flips the default card optimistically; see WishlistToggle for ?wait.
func CardsSetDefault(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cards")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		cardID, err := pathParam(r, "cardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, done, err := svc.SetDefault(r.Context(), state, cardID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !awaitConfirmation(r) {
			responses.WriteSuccessStatus(w, http.StatusAccepted, list)
			return
		}
		confirmed, err := settle(r, done)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !confirmed.IsOk() {
			responses.WriteError(r.Context(), logg, w, confirmed.Error())
			return
		}
		responses.WriteSuccess(w, list)
	}
}

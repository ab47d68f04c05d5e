package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-storefront/api/responses"
	"github.com/angelmondragon/marketplace-storefront/api/validators"
	"github.com/angelmondragon/marketplace-storefront/internal/bankaccounts"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
)

func BankAccountsList(svc bankaccounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "bank accounts")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		accounts, err := svc.List(r.Context(), state)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, accounts)
	}
}

func BankAccountsCreate(svc bankaccounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "bank accounts")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		var body bankaccounts.Input
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		account, err := svc.Create(r.Context(), state, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, account)
	}
}

func BankAccountsUpdate(svc bankaccounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "bank accounts")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		accountID, err := pathParam(r, "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body bankaccounts.Input
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		account, err := svc.Update(r.Context(), state, accountID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

func BankAccountsDelete(svc bankaccounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "bank accounts")
			return
		}
		state, ok := sessionState(w, r, logg)
		if !ok {
			return
		}
		accountID, err := pathParam(r, "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), state, accountID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

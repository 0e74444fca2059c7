package controllers

import (
	"net/http"

	"github.com/indiramart/storefront-backend/api/responses"
	"github.com/indiramart/storefront-backend/api/validators"
	usersvc "github.com/indiramart/storefront-backend/internal/users"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
)

// AdminListUsers pages through accounts, optionally matching a search term
// against name and email.
func AdminListUsers(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := usersvc.ListFilter{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 200),
		}

		page, err := svc.List(r.Context(), filter, r.URL.Query().Get("cursor"), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminSetUserActive enables or disables an account.
func AdminSetUserActive(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := validators.ParseUUIDParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input usersvc.SetActiveInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.SetActive(r.Context(), userID, *input.IsActive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

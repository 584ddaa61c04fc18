package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/csemotors/internal/server/flash"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
)

const (
	gateAuthenticated = "authenticated"
	gatePrivileged    = "privileged"
	gateOwner         = "owner"

	loginPath   = "/account/login"
	accountPath = "/account/"
)

const msgNotYourAccount = "You may only manage your own account."

// RequireAuthenticated lets only logged in visitors through.
func (h *Handler) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			h.deny(w, r, gateAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePrivileged lets only Employee and Admin accounts through.
// Anonymous visitors and Clients are both sent to the login page.
func (h *Handler) RequirePrivileged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.Role.Privileged() {
			h.deny(w, r, gatePrivileged)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAccountOwner restricts account pages to the account's owner. The
// target id is taken from the account_id route parameter or form field.
// Admins may manage any account. The id is trimmed the same way
// revalidation trims it; a request naming no id passes through so that
// revalidation can report it, while one naming an unparsable id is denied.
func (h *Handler) RequireAccountOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			h.deny(w, r, gateOwner)
			return
		}

		raw := chi.URLParam(r, "account_id")
		if raw == "" {
			raw = r.PostFormValue("account_id")
		}
		raw = strings.TrimSpace(raw)
		if raw == "" || claims.Role == models.RoleAdmin {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && id == claims.AccountID {
			next.ServeHTTP(w, r)
			return
		}

		h.metrics.GateDenied(gateOwner)
		h.logger.Warn(r.Context(), "account access denied",
			"account_id", claims.AccountID,
			"target_id", raw,
			"request_id", requestIDFromContext(r.Context()),
		)
		pushOnce(r, flash.KindNotice, msgNotYourAccount)
		http.Redirect(w, r, accountPath, http.StatusFound)
	})
}

func (h *Handler) deny(w http.ResponseWriter, r *http.Request, gate string) {
	h.metrics.GateDenied(gate)
	pushOnce(r, flash.KindNotice, msgPleaseLogIn)
	http.Redirect(w, r, loginPath, http.StatusFound)
}

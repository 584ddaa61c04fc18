package web

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/server/flash"
	"github.com/dmitrijs2005/csemotors/internal/server/metrics"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/dmitrijs2005/csemotors/internal/server/services"
	"github.com/dmitrijs2005/csemotors/internal/server/validation"
)

const (
	msgRegistered        = "Congratulations, you're registered %s. Please log in."
	msgRegistrationFail  = "Sorry, the registration failed."
	msgRegistrationError = "Sorry, there was an error processing the registration."
	msgLoginFailed       = "Sorry, the login failed. Please try again."
	msgAccountUpdated    = "Account information updated."
	msgUpdateFailed      = "Sorry, the update failed."
	msgPasswordUpdated   = "Password updated successfully."
	msgPasswordFailed    = "Password update failed."
	msgLoggedOut         = "You have been logged out."
	msgAccountNotFound   = "Account not found."
)

const (
	registrationSuccess  = "success"
	registrationRejected = "rejected"
	registrationError    = "error"
)

var accountFields = []string{"account_firstname", "account_lastname", "account_email"}

// sticky drops the password so it is never echoed back.
func sticky(v validation.Values) validation.Values {
	out := validation.Values{}
	for k, s := range v {
		if k == "account_password" {
			continue
		}
		out[k] = s
	}
	return out
}

func (h *Handler) loginView(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, View{Name: "account/login", Title: "Login"})
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, status int, res *validation.Result) {
	h.render(w, r, status, View{
		Name:   "account/login",
		Title:  "Login",
		Errors: res.Messages(),
		Form:   sticky(res.Values),
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	form := FormFromContext(r.Context())

	_, token, err := h.accounts.Login(r.Context(), form.Get("account_email"), form.Get("account_password"))
	if err != nil {
		outcome := metrics.LoginError
		if errors.Is(err, common.ErrInvalidCredentials) {
			outcome = metrics.LoginInvalidCredentials
		}
		h.metrics.Login(outcome)

		f := describeFailure(err, msgLoginFailed)
		h.report(r, "login", err, f)
		flash.FromContext(r.Context()).Push(f.kind, f.message)
		h.loginFailed(w, r, f.status, &validation.Result{Values: form})
		return
	}

	h.metrics.Login(metrics.LoginSuccess)
	h.setSessionCookie(w, token)
	http.Redirect(w, r, accountPath, http.StatusFound)
}

func (h *Handler) registerView(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, View{Name: "account/register", Title: "Register"})
}

func (h *Handler) registerFailed(w http.ResponseWriter, r *http.Request, status int, res *validation.Result) {
	if status == http.StatusBadRequest {
		h.metrics.Registration(registrationRejected)
	}
	h.render(w, r, status, View{
		Name:   "account/register",
		Title:  "Register",
		Errors: res.Messages(),
		Form:   sticky(res.Values),
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	form := FormFromContext(r.Context())

	acct, err := h.accounts.Register(r.Context(),
		form.Get("account_firstname"),
		form.Get("account_lastname"),
		form.Get("account_email"),
		form.Get("account_password"),
	)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			h.registerFailed(w, r, http.StatusBadRequest, &validation.Result{
				Values: form,
				Errors: []validation.FieldError{{Field: "account_email", Message: msgEmailRegistered}},
			})
			return
		}

		f := describeFailure(err, msgRegistrationFail)
		if errors.Is(err, services.ErrPasswordHashing) {
			f = failure{status: http.StatusInternalServerError, kind: flash.KindNotice, message: msgRegistrationError, internal: true}
		}
		h.metrics.Registration(registrationError)
		h.report(r, "register", err, f)
		flash.FromContext(r.Context()).Push(f.kind, f.message)
		h.registerFailed(w, r, f.status, &validation.Result{Values: form})
		return
	}

	h.metrics.Registration(registrationSuccess)
	flash.FromContext(r.Context()).Push(flash.KindSuccess, fmt.Sprintf(msgRegistered, html.UnescapeString(acct.FirstName)))
	http.Redirect(w, r, loginPath, http.StatusFound)
}

func (h *Handler) management(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, View{Name: "account/management", Title: "Account Management"})
}

func accountForm(a *models.Account) validation.Values {
	return validation.Values{
		"account_id":        strconv.FormatInt(a.ID, 10),
		"account_firstname": a.FirstName,
		"account_lastname":  a.LastName,
		"account_email":     a.Email,
	}
}

func (h *Handler) accountNotFound(w http.ResponseWriter, r *http.Request) {
	flash.FromContext(r.Context()).Push(flash.KindError, msgAccountNotFound)
	http.Redirect(w, r, accountPath, http.StatusFound)
}

func (h *Handler) updateView(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "account_id"))
	if !ok {
		h.accountNotFound(w, r)
		return
	}

	acct, err := h.accounts.Account(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			h.accountNotFound(w, r)
			return
		}
		f := describeFailure(err, msgGenericFailed)
		h.report(r, "account", err, f)
		flash.FromContext(r.Context()).Push(f.kind, f.message)
		h.render(w, r, f.status, View{Name: "account/management", Title: "Account Management"})
		return
	}

	h.render(w, r, http.StatusOK, View{Name: "account/update", Title: "Edit Account", Form: accountForm(acct)})
}

// updateFailed re-renders the update view. Account fields that were not
// part of the submission are filled in from the stored account.
func (h *Handler) updateFailed(w http.ResponseWriter, r *http.Request, status int, res *validation.Result) {
	form := sticky(res.Values)
	h.backfillAccount(r, form)
	h.render(w, r, status, View{
		Name:   "account/update",
		Title:  "Edit Account",
		Errors: res.Messages(),
		Form:   form,
	})
}

func (h *Handler) backfillAccount(r *http.Request, form validation.Values) {
	id, ok := parseID(form.Get("account_id"))
	if !ok {
		claims, authenticated := ClaimsFromContext(r.Context())
		if !authenticated {
			return
		}
		id = claims.AccountID
		form["account_id"] = strconv.FormatInt(id, 10)
	}

	var missing []string
	for _, k := range accountFields {
		if _, submitted := r.PostForm[k]; !submitted {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return
	}

	acct, err := h.accounts.Account(r.Context(), id)
	if err != nil {
		h.logger.Warn(r.Context(), "account backfill failed", "account_id", id, "error", err)
		return
	}
	stored := accountForm(acct)
	for _, k := range missing {
		form[k] = stored[k]
	}
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	form := FormFromContext(r.Context())
	id, ok := parseID(form.Get("account_id"))
	if !ok {
		h.accountNotFound(w, r)
		return
	}

	acct, token, err := h.accounts.UpdateProfile(r.Context(), id,
		form.Get("account_firstname"),
		form.Get("account_lastname"),
		form.Get("account_email"),
	)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			h.updateFailed(w, r, http.StatusBadRequest, &validation.Result{
				Values: form,
				Errors: []validation.FieldError{{Field: "account_email", Message: msgEmailInUse}},
			})
		case errors.Is(err, common.ErrorNotFound):
			h.accountNotFound(w, r)
		default:
			f := describeFailure(err, msgUpdateFailed)
			h.report(r, "update account", err, f)
			flash.FromContext(r.Context()).Push(f.kind, f.message)
			h.updateFailed(w, r, f.status, &validation.Result{Values: form})
		}
		return
	}

	// an admin editing someone else keeps their own session
	if claims, ok := ClaimsFromContext(r.Context()); ok && claims.AccountID == acct.ID {
		h.setSessionCookie(w, token)
	}
	flash.FromContext(r.Context()).Push(flash.KindSuccess, msgAccountUpdated)
	http.Redirect(w, r, accountPath, http.StatusFound)
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	form := FormFromContext(r.Context())
	id, ok := parseID(form.Get("account_id"))
	if !ok {
		h.accountNotFound(w, r)
		return
	}

	if err := h.accounts.UpdatePassword(r.Context(), id, form.Get("account_password")); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			h.accountNotFound(w, r)
			return
		}
		f := describeFailure(err, msgPasswordFailed)
		h.report(r, "update password", err, f)
		flash.FromContext(r.Context()).Push(f.kind, f.message)
		h.updateFailed(w, r, f.status, &validation.Result{Values: form})
		return
	}

	flash.FromContext(r.Context()).Push(flash.KindSuccess, msgPasswordUpdated)
	http.Redirect(w, r, accountPath, http.StatusFound)
}

// logout always succeeds, with or without a session.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	flash.FromContext(r.Context()).Push(flash.KindSuccess, msgLoggedOut)
	http.Redirect(w, r, "/", http.StatusFound)
}

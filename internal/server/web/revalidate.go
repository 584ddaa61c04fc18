package web

import (
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/csemotors/internal/server/flash"
	"github.com/dmitrijs2005/csemotors/internal/server/validation"
)

// failFunc re-renders the view a rejected submission came from.
type failFunc func(w http.ResponseWriter, r *http.Request, status int, res *validation.Result)

// revalidate runs schema against the posted form. A passing form is placed
// in the request context and next is called; a failing one is handed to
// onFail with status 400 and next is never called. When a check could not
// be evaluated the submission is neither accepted nor rejected: onFail
// renders it with status 500 and a generic error.
func (h *Handler) revalidate(schema validation.Schema, onFail failFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				h.logger.Debug(r.Context(), "malformed form body", "error", err)
			}

			res, err := schema.Validate(r.Context(), r.PostForm)
			if err != nil {
				f := describeFailure(err, msgGenericFailed)
				h.report(r, "revalidate", err, f)
				flash.FromContext(r.Context()).Push(f.kind, f.message)
				onFail(w, r, f.status, &validation.Result{Values: rawValues(r.PostForm)})
				return
			}
			if !res.OK() {
				onFail(w, r, http.StatusBadRequest, res)
				return
			}

			next.ServeHTTP(w, r.WithContext(withForm(r.Context(), res.Values)))
		})
	}
}

func rawValues(form url.Values) validation.Values {
	v := validation.Values{}
	for k := range form {
		v[k] = form.Get(k)
	}
	return v
}

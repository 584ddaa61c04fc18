package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/server/flash"
	"github.com/dmitrijs2005/csemotors/internal/server/metrics"
)

// Session resolves the visitor's identity from the jwt cookie. It never
// rejects a request: a missing or unverifiable token leaves the request
// anonymous. An unverifiable token is also cleared from the browser.
func (h *Handler) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(common.AccessTokenCookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := h.codec.Verify(c.Value)
		if err != nil {
			result := metrics.SessionInvalid
			if errors.Is(err, common.ErrTokenExpired) {
				result = metrics.SessionExpired
			}
			h.metrics.Session(result)
			h.logger.Debug(r.Context(), "session token rejected",
				"result", result,
				"request_id", requestIDFromContext(r.Context()),
				"error", err,
			)
			h.clearSessionCookie(w)
			pushOnce(r, flash.KindNotice, msgPleaseLogIn)
			next.ServeHTTP(w, r)
			return
		}

		h.metrics.Session(metrics.SessionValid)
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.codec.TTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// pushOnce queues msg unless an identical message of the same kind is
// already pending.
func pushOnce(r *http.Request, kind flash.Kind, msg string) {
	q := flash.FromContext(r.Context())
	for _, m := range q.Peek(kind) {
		if m == msg {
			return
		}
	}
	q.Push(kind, msg)
}

package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/server/auth"
	"github.com/dmitrijs2005/csemotors/internal/server/flash"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_NoCookieIsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/")

	assert.Equal(t, http.StatusOK, rec.Code)
	v := env.renderer.last(t)
	assert.Nil(t, v.Account)
	assert.Empty(t, v.Messages)
	assert.Nil(t, responseCookie(rec, common.AccessTokenCookieName))
}

func TestSession_ValidCookie(t *testing.T) {
	env := newTestEnv(t)
	a := env.accounts.add("Happy", "happy@camper.com", models.RoleEmployee)

	env.get("/", env.sessionFor(t, a))

	v := env.renderer.last(t)
	require.NotNil(t, v.Account)
	assert.Equal(t, auth.ClaimsFromAccount(a), *v.Account)
}

func TestSession_UnverifiableCookieIsClearedWithNotice(t *testing.T) {
	env := newTestEnv(t)
	a := env.accounts.add("Happy", "happy@camper.com", models.RoleClient)

	expired, err := auth.IssueToken(auth.ClaimsFromAccount(a), []byte("test-secret"), -time.Second)
	require.NoError(t, err)
	forged, err := auth.IssueToken(auth.ClaimsFromAccount(a), []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{"garbage": "not.a.jwt", "expired": expired, "forged": forged} {
		t.Run(name, func(t *testing.T) {
			rec := env.get("/", &http.Cookie{Name: common.AccessTokenCookieName, Value: token})

			assert.Equal(t, http.StatusOK, rec.Code)
			v := env.renderer.last(t)
			assert.Nil(t, v.Account)
			assert.Equal(t, []string{msgPleaseLogIn}, v.Messages[flash.KindNotice])

			c := responseCookie(rec, common.AccessTokenCookieName)
			require.NotNil(t, c)
			assert.Negative(t, c.MaxAge)
		})
	}
}

func TestRequireAuthenticated_MissingAndForgedAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)

	missing := env.get("/account/")
	forged := env.get("/account/", &http.Cookie{Name: common.AccessTokenCookieName, Value: "forged"})

	for _, rec := range []*httptest.ResponseRecorder{missing, forged} {
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/account/login", rec.Header().Get("Location"))
	}
	assert.Empty(t, env.renderer.views, "protected view must not render")
}

func TestRequireAuthenticated_NoticeShownOnLoginPage(t *testing.T) {
	env := newTestEnv(t)

	// an unverifiable token on a gated route queues the notice only once
	rec := env.get("/account/", &http.Cookie{Name: common.AccessTokenCookieName, Value: "forged"})
	fc := responseCookie(rec, common.FlashCookieName)
	require.NotNil(t, fc)

	env.get("/account/login", fc)
	assert.Equal(t, []string{msgPleaseLogIn}, env.renderer.last(t).Messages[flash.KindNotice])
}

func TestRequirePrivileged(t *testing.T) {
	tests := []struct {
		name    string
		role    models.Role
		anon    bool
		allowed bool
	}{
		{name: "anonymous", anon: true},
		{name: "client", role: models.RoleClient},
		{name: "employee", role: models.RoleEmployee, allowed: true},
		{name: "admin", role: models.RoleAdmin, allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			var cookie *http.Cookie
			if !tt.anon {
				cookie = env.sessionFor(t, env.accounts.add("Happy", "happy@camper.com", tt.role))
			}

			rec := env.get("/inv/", cookie)

			if tt.allowed {
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, "inventory/management", env.renderer.last(t).Name)
				return
			}
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/account/login", rec.Header().Get("Location"))
			assert.Empty(t, env.renderer.views)
		})
	}
}

func TestRequirePrivileged_ClientCannotMutate(t *testing.T) {
	env := newTestEnv(t)
	client := env.accounts.add("Happy", "happy@camper.com", models.RoleClient)

	rec := env.post("/inv/add-classification", url.Values{"classification_name": {"Trucks"}}, env.sessionFor(t, client))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/account/login", rec.Header().Get("Location"))
	assert.Empty(t, env.inventory.addedCls, "no mutation")

	fc := responseCookie(rec, common.FlashCookieName)
	require.NotNil(t, fc)
	env.get("/account/login", fc, env.sessionFor(t, client))
	assert.Equal(t, []string{msgPleaseLogIn}, env.renderer.last(t).Messages[flash.KindNotice])
}

func TestRequireAccountOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.accounts.add("Happy", "happy@camper.com", models.RoleClient)
	other := env.accounts.add("Other", "other@camper.com", models.RoleEmployee)
	admin := env.accounts.add("Boss", "boss@camper.com", models.RoleAdmin)

	t.Run("other account is refused", func(t *testing.T) {
		rec := env.get("/account/update/1", env.sessionFor(t, other))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/account/", rec.Header().Get("Location"))
	})

	t.Run("other account cannot post", func(t *testing.T) {
		rec := env.post("/account/update", url.Values{
			"account_id":        {"1"},
			"account_firstname": {"Hacked"},
			"account_lastname":  {"Camper"},
			"account_email":     {"happy@camper.com"},
		}, env.sessionFor(t, other))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, 0, env.accounts.updates)
	})

	for _, id := range []string{" 1", "1 ", "\t1", "1abc"} {
		t.Run("padded or malformed id "+strconv.Quote(id), func(t *testing.T) {
			before := env.accounts.passwords[owner.ID]

			rec := env.post("/account/update-password", url.Values{
				"account_id":       {id},
				"account_password": {"Att@cker-Passw0rd"},
			}, env.sessionFor(t, other))
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/account/", rec.Header().Get("Location"))

			rec = env.post("/account/update", url.Values{
				"account_id":        {id},
				"account_firstname": {"Hacked"},
				"account_lastname":  {"Camper"},
				"account_email":     {"happy@camper.com"},
			}, env.sessionFor(t, other))
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/account/", rec.Header().Get("Location"))

			assert.Equal(t, 0, env.accounts.pwUpdates)
			assert.Equal(t, 0, env.accounts.updates)
			assert.Equal(t, before, env.accounts.passwords[owner.ID])
			assert.Equal(t, "Happy", env.accounts.byID[owner.ID].FirstName)
		})
	}

	t.Run("owner with padded id", func(t *testing.T) {
		rec := env.post("/account/update-password", url.Values{
			"account_id":       {" 1 "},
			"account_password": {"N3w-Passw0rd-Here"},
		}, env.sessionFor(t, owner))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, 1, env.accounts.pwUpdates)
	})

	t.Run("owner", func(t *testing.T) {
		rec := env.get("/account/update/1", env.sessionFor(t, owner))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin", func(t *testing.T) {
		rec := env.get("/account/update/1", env.sessionFor(t, admin))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGates_DoNotCallHandler(t *testing.T) {
	env := newTestEnv(t)
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	client := auth.Claims{AccountID: 1, Role: models.RoleClient}
	cases := map[string]struct {
		gate func(http.Handler) http.Handler
		req  *http.Request
	}{
		"authenticated": {env.handler.RequireAuthenticated, httptest.NewRequest(http.MethodGet, "/", nil)},
		"privileged": {env.handler.RequirePrivileged,
			httptest.NewRequest(http.MethodGet, "/", nil).WithContext(withClaims(context.Background(), client))},
		"owner": {env.handler.RequireAccountOwner, httptest.NewRequest(http.MethodGet, "/", nil)},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			called = false
			rec := httptest.NewRecorder()
			tc.gate(next).ServeHTTP(rec, tc.req)
			assert.False(t, called)
			assert.Equal(t, http.StatusFound, rec.Code)
		})
	}
}

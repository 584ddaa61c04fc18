package web

import (
	"context"

	"github.com/dmitrijs2005/csemotors/internal/server/auth"
	"github.com/dmitrijs2005/csemotors/internal/server/validation"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyClaims    ctxKey = "session_claims"
	ctxKeyForm      ctxKey = "validated_form"
)

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func withClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

// ClaimsFromContext returns the identity of an authenticated request.
// ok is false for anonymous requests.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(auth.Claims)
	return c, ok
}

func withForm(ctx context.Context, v validation.Values) context.Context {
	return context.WithValue(ctx, ctxKeyForm, v)
}

// FormFromContext returns the sanitized values that passed revalidation.
func FormFromContext(ctx context.Context) validation.Values {
	if v, ok := ctx.Value(ctxKeyForm).(validation.Values); ok {
		return v
	}
	return validation.Values{}
}

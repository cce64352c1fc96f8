package server

import (
	"context"
	"net/http"
)

type identityKey struct{}
type userAgentKey struct{}
type cookieCarrierKey struct{}

// Identity is the authenticated principal extracted from the bearer token.
type Identity struct {
	UserID string
	Email  string
	// AAL is the assurance level the token carries ("aal1" or "aal2").
	AAL string
	// Token is the raw bearer token, forwarded to the provider on calls
	// made on the principal's behalf.
	Token string
}

// WithIdentity returns ctx with the authenticated principal attached.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the authenticated principal, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithUserAgent returns ctx carrying the request's User-Agent string.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

// UserAgent returns the request's User-Agent from ctx, or "". Its signature
// matches what the activity logger expects for its extractor.
func UserAgent(ctx context.Context) string {
	ua, _ := ctx.Value(userAgentKey{}).(string)
	return ua
}

// cookieCarrier gives the request-scoped cookie store access to the request
// and response of the call it runs under.
type cookieCarrier struct {
	w http.ResponseWriter
	r *http.Request
}

func withCookieCarrier(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	return context.WithValue(ctx, cookieCarrierKey{}, &cookieCarrier{w: w, r: r})
}

func carrierFromContext(ctx context.Context) (*cookieCarrier, bool) {
	c, ok := ctx.Value(cookieCarrierKey{}).(*cookieCarrier)
	return c, ok
}

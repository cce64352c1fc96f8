package server

import (
	"context"
	"net/http"
	"time"
)

// cookieMaxAge is the lifetime of the client-side mirror cookies. Server-side
// records carry their own, shorter expiries; the cookie only has to outlive
// them.
const cookieMaxAge = 365 * 24 * time.Hour

// CookieStore adapts the per-request cookies to the clientstore.Store
// contract. It is stateless; the request and response it operates on travel
// in the context, placed there by the client-state middleware. Outside a
// request (no carrier in ctx) reads miss and writes are dropped.
type CookieStore struct{}

// Get reads the named cookie from the request.
func (CookieStore) Get(ctx context.Context, key string) (string, bool) {
	c, ok := carrierFromContext(ctx)
	if !ok {
		return "", false
	}
	cookie, err := c.r.Cookie(key)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Set writes the named cookie on the response.
func (CookieStore) Set(ctx context.Context, key, value string) {
	c, ok := carrierFromContext(ctx)
	if !ok {
		return
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Delete expires the named cookie on the response.
func (CookieStore) Delete(ctx context.Context, key string) {
	c, ok := carrierFromContext(ctx)
	if !ok {
		return
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

package kv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"consentkit/internal/sentinel"
)

// Cookie stores values as HTTP cookies on the current request.
//
// The request/response pair is taken from the context, where CookieMiddleware
// (or WithCookieJar) put it. Writes made during a request are visible to later
// reads in the same request, so a full reread after each write sees the latest
// value even though the browser has not echoed the cookie back yet.
type Cookie struct {
	now func() time.Time
}

// NewCookie constructs a cookie-backed store.
func NewCookie() *Cookie {
	return &Cookie{now: time.Now}
}

type cookieJarKey struct{}

type cookieJar struct {
	mu      sync.Mutex
	req     *http.Request
	w       http.ResponseWriter
	written map[string]*string
}

// WithCookieJar binds a request/response pair to ctx for the cookie backend.
func WithCookieJar(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	return context.WithValue(ctx, cookieJarKey{}, &cookieJar{
		req:     r,
		w:       w,
		written: make(map[string]*string),
	})
}

// CookieMiddleware attaches a cookie jar to every request context.
func CookieMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithCookieJar(r.Context(), w, r)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jarFrom(ctx context.Context) (*cookieJar, bool) {
	jar, ok := ctx.Value(cookieJarKey{}).(*cookieJar)
	return jar, ok && jar != nil
}

// Get returns the value from this request's writes, falling back to the
// incoming Cookie header. Without a jar in ctx the value is simply absent.
func (c *Cookie) Get(ctx context.Context, name string) (string, bool, error) {
	jar, ok := jarFrom(ctx)
	if !ok {
		return "", false, nil
	}
	jar.mu.Lock()
	defer jar.mu.Unlock()

	if v, written := jar.written[name]; written {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}

	cookie, err := jar.req.Cookie(name)
	if err != nil {
		return "", false, nil
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", false, fmt.Errorf("decode cookie %s: %w", name, err)
	}
	return value, value != "", nil
}

func (c *Cookie) Set(ctx context.Context, name, value string, attrs Attributes) error {
	jar, ok := jarFrom(ctx)
	if !ok {
		return fmt.Errorf("set cookie %s: %w", name, sentinel.ErrNoCookieJar)
	}
	if attrs.MaxAge < 0 {
		return c.Delete(ctx, name, attrs)
	}

	cookie := &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     attrs.path(),
		Domain:   attrs.Domain,
		Secure:   attrs.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if expires := attrs.expiresAt(c.now()); !expires.IsZero() {
		cookie.Expires = expires.UTC()
		cookie.MaxAge = int(attrs.MaxAge / time.Second)
	}

	jar.mu.Lock()
	defer jar.mu.Unlock()
	http.SetCookie(jar.w, cookie)
	stored := value
	jar.written[name] = &stored
	return nil
}

// Delete writes an empty value with an expiry in the past.
func (c *Cookie) Delete(ctx context.Context, name string, attrs Attributes) error {
	jar, ok := jarFrom(ctx)
	if !ok {
		return fmt.Errorf("delete cookie %s: %w", name, sentinel.ErrNoCookieJar)
	}
	jar.mu.Lock()
	defer jar.mu.Unlock()
	http.SetCookie(jar.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     attrs.path(),
		Domain:   attrs.Domain,
		Secure:   attrs.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
	})
	jar.written[name] = nil
	return nil
}

var _ Store = (*Cookie)(nil)

package kv

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"consentkit/internal/sentinel"
)

// SubjectCookieName carries the opaque id that partitions a shared backend
// between browsers.
const SubjectCookieName = "consent_subject"

type subjectKey struct{}

// WithSubject binds a subject id to ctx for Scoped stores.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFrom returns the subject id bound to ctx.
func SubjectFrom(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey{}).(string)
	return subject, ok && subject != ""
}

// SubjectMiddleware binds the caller's subject id to every request context.
// A missing or malformed subject cookie is replaced by a fresh random id,
// issued with attrs so it lives as long as the consent record it keys.
func SubjectMiddleware(attrs Attributes) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := subjectCookie(r)
			if !ok {
				subject = uuid.NewString()
				http.SetCookie(w, subjectSetCookie(subject, attrs))
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

func subjectCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(SubjectCookieName)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func subjectSetCookie(subject string, attrs Attributes) *http.Cookie {
	c := &http.Cookie{
		Name:     SubjectCookieName,
		Value:    subject,
		Path:     attrs.path(),
		Domain:   attrs.Domain,
		Secure:   attrs.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if attrs.MaxAge > 0 {
		c.MaxAge = int(attrs.MaxAge / time.Second)
	}
	return c
}

// Scoped partitions a shared backend by the subject bound to the context, so
// each browser gets its own record under the same logical name.
//
// Without a subject, Get reports the value absent and writes fail with
// sentinel.ErrNoSubject, matching the cookie backend outside a request.
type Scoped struct {
	backend Store
}

// NewScoped wraps backend with per-subject keys.
func NewScoped(backend Store) *Scoped {
	return &Scoped{backend: backend}
}

func scopedName(name, subject string) string {
	return name + ":" + subject
}

func (s *Scoped) Get(ctx context.Context, name string) (string, bool, error) {
	subject, ok := SubjectFrom(ctx)
	if !ok {
		return "", false, nil
	}
	return s.backend.Get(ctx, scopedName(name, subject))
}

func (s *Scoped) Set(ctx context.Context, name, value string, attrs Attributes) error {
	subject, ok := SubjectFrom(ctx)
	if !ok {
		return fmt.Errorf("set %s: %w", name, sentinel.ErrNoSubject)
	}
	return s.backend.Set(ctx, scopedName(name, subject), value, attrs)
}

func (s *Scoped) Delete(ctx context.Context, name string, attrs Attributes) error {
	subject, ok := SubjectFrom(ctx)
	if !ok {
		return fmt.Errorf("delete %s: %w", name, sentinel.ErrNoSubject)
	}
	return s.backend.Delete(ctx, scopedName(name, subject), attrs)
}

var _ Store = (*Scoped)(nil)

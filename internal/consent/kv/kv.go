// Package kv holds the PersistedKV contract and its backends.
//
// A Store keeps one string value per name. The consent store only ever uses a
// single name (the consent cookie name), but backends do not assume that.
package kv

import (
	"context"
	"time"
)

// Store gets, sets and deletes a single named string value.
//
// Error Contract:
//   - Get returns ok=false with a nil error when the value is absent or expired
//   - Set and Delete return nil on success or a wrapped backend error
type Store interface {
	Get(ctx context.Context, name string) (value string, ok bool, err error)
	Set(ctx context.Context, name, value string, attrs Attributes) error
	Delete(ctx context.Context, name string, attrs Attributes) error
}

// DefaultPath is used when Attributes.Path is empty.
const DefaultPath = "/"

// Attributes are the storage attributes attached to a write. Path, Domain and
// Secure only affect the cookie backend.
type Attributes struct {
	MaxAge time.Duration
	Path   string
	Domain string
	Secure bool
}

// Days converts a day count into a MaxAge duration.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func (a Attributes) path() string {
	if a.Path == "" {
		return DefaultPath
	}
	return a.Path
}

// expiresAt returns the absolute expiry for a write at now; zero means no expiry.
func (a Attributes) expiresAt(now time.Time) time.Time {
	if a.MaxAge <= 0 {
		return time.Time{}
	}
	return now.Add(a.MaxAge)
}

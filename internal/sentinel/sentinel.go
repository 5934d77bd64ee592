package sentinel

import "errors"

// Sentinel dependency errors. Backends return these (optionally wrapped) so the
// consent store can translate them into domain errors exactly once.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrNoCookieJar = errors.New("no cookie jar in context")
	ErrNoSubject   = errors.New("no subject in context")
)

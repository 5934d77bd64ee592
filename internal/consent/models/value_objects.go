package models

import (
	"strings"

	dErrors "consentkit/pkg/domain-errors"
)

// Topic names a consent category a handler cares about ("analytics", "marketing").
// Any non-empty string is legal; equality is exact.
type Topic string

// DefaultTopic is used for handlers registered without a name.
const DefaultTopic Topic = "default"

func (t Topic) String() string {
	return string(t)
}

// Validate rejects topics that cannot round-trip through the persisted record.
func (t Topic) Validate() error {
	if t == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "topic is required")
	}
	if strings.ContainsAny(string(t), entrySeparator+pairSeparator) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "topic %q must not contain %q or %q", t, entrySeparator, pairSeparator)
	}
	return nil
}

// Status is the consent decision recorded for a topic.
type Status string

const (
	StatusAllow   Status = "allow"
	StatusBlock   Status = "block"
	StatusUnknown Status = "unknown"
)

// ParseStatus maps external input to a Status. Empty or unrecognized values are
// treated as unknown, which deletes the topic when written.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusAllow:
		return StatusAllow
	case StatusBlock:
		return StatusBlock
	default:
		return StatusUnknown
	}
}

// IsStored reports whether the status is one that is ever persisted.
func (s Status) IsStored() bool {
	return s == StatusAllow || s == StatusBlock
}

func (s Status) String() string {
	return string(s)
}

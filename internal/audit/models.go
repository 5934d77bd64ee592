package audit

import "time"

// Event records one consent decision change. It stays transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Topic     string    `json:"topic"`
	Status    string    `json:"status"`
	RequestID string    `json:"request_id,omitempty"`
}

type Action string

const (
	ActionStatusChanged Action = "consent_status_changed"
	ActionStatusCleared Action = "consent_status_cleared"
)

package models

import "strings"

const (
	entrySeparator = ","
	pairSeparator  = "="
)

// Record is the full Topic -> Status mapping held in the persisted value.
//
// Only allow and block are ever present; unknown is represented by absence.
// Topics keep their first-insertion order so re-encoding the same mapping
// always produces the same value.
type Record struct {
	order    []Topic
	statuses map[Topic]Status
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{statuses: make(map[Topic]Status)}
}

// ParseRecord decodes "topic1=allow,topic2=block". Malformed parts (not exactly
// one "="), empty topics and statuses other than allow/block are skipped.
func ParseRecord(value string) Record {
	r := NewRecord()
	if value == "" {
		return r
	}
	for _, part := range strings.Split(value, entrySeparator) {
		pair := strings.Split(part, pairSeparator)
		if len(pair) != 2 || pair[0] == "" {
			continue
		}
		status := Status(pair[1])
		if !status.IsStored() {
			continue
		}
		r.Set(Topic(pair[0]), status)
	}
	return r
}

// Get returns the status for topic, or StatusUnknown when absent.
func (r Record) Get(topic Topic) Status {
	if s, ok := r.statuses[topic]; ok {
		return s
	}
	return StatusUnknown
}

// Set stores allow/block for topic; StatusUnknown removes it.
func (r *Record) Set(topic Topic, status Status) {
	if r.statuses == nil {
		r.statuses = make(map[Topic]Status)
	}
	if !status.IsStored() {
		r.Delete(topic)
		return
	}
	if _, ok := r.statuses[topic]; !ok {
		r.order = append(r.order, topic)
	}
	r.statuses[topic] = status
}

// Delete removes topic from the record.
func (r *Record) Delete(topic Topic) {
	if _, ok := r.statuses[topic]; !ok {
		return
	}
	delete(r.statuses, topic)
	for i, t := range r.order {
		if t == topic {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
}

// Topics returns a copy of the present topics in record order.
func (r Record) Topics() []Topic {
	return append([]Topic(nil), r.order...)
}

// Len is the number of topics with a stored decision.
func (r Record) Len() int {
	return len(r.order)
}

// Map returns a copy of the mapping.
func (r Record) Map() map[Topic]Status {
	out := make(map[Topic]Status, len(r.statuses))
	for t, s := range r.statuses {
		out[t] = s
	}
	return out
}

// Encode rebuilds the persisted value from the mapping.
func (r Record) Encode() string {
	parts := make([]string, 0, len(r.order))
	for _, t := range r.order {
		parts = append(parts, string(t)+pairSeparator+string(r.statuses[t]))
	}
	return strings.Join(parts, entrySeparator)
}

package domain

import (
	"encoding/json"
	"time"
)

// Severity is the ordered severity scale of an audit event:
// debug < info < warning < error < critical.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityDebug:    0,
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityError:    3,
	SeverityCritical: 4,
}

// Rank returns the position of s on the severity scale, or -1 for an
// unknown severity. Unknown severities therefore never satisfy AtLeast.
func (s Severity) Rank() int {
	if rank, ok := severityRanks[s]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether s is at or above min on the severity scale.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank() && s.Rank() >= 0
}

// Event is a decoded audit event read from the event stream. Events are
// produced by the ingestion API and are never mutated by the rule engine.
type Event struct {
	ID        *int64          `json:"id"`
	EventType string          `json:"event_type"`
	Severity  Severity        `json:"severity"`
	Source    string          `json:"source"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// StreamEntry is a raw entry read from the event stream. Payload holds the
// entry's data field verbatim; HasData is false when the field was absent.
type StreamEntry struct {
	ID      string
	Payload []byte
	HasData bool
}

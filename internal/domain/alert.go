package domain

import "time"

// AlertLevel is the priority of an alert. It is independent of event
// severity; rules decide the level of the alerts they raise.
type AlertLevel string

const (
	AlertLevelLow      AlertLevel = "low"
	AlertLevelMedium   AlertLevel = "medium"
	AlertLevelHigh     AlertLevel = "high"
	AlertLevelCritical AlertLevel = "critical"
)

// AlertStatus is the lifecycle state of a persisted alert.
// Alerts start as new; resolved is terminal.
type AlertStatus string

const (
	AlertStatusNew          AlertStatus = "new"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// Valid reports whether s is one of the known alert statuses.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusNew, AlertStatusAcknowledged, AlertStatusResolved:
		return true
	}
	return false
}

// AlertCandidate is the outcome of a rule firing on an event. It is
// transient; candidates become Alerts only after passing deduplication.
// EventID is nil when the triggering event carried no usable id, in which
// case the candidate is unattributable and cannot be deduplicated.
type AlertCandidate struct {
	RuleName string
	Level    AlertLevel
	Message  string
	EventID  *int64
}

// Alert is a persisted record of a rule firing.
type Alert struct {
	ID        int64
	RuleName  string
	Level     AlertLevel
	Message   string
	Status    AlertStatus
	EventID   *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

package domain

import "context"

// EventStreamRepository abstracts the durable event stream the engine
// consumes from. Entries remain pending for the consumer group until
// explicitly acknowledged, which is the engine's redelivery mechanism.
type EventStreamRepository interface {
	// EnsureGroup creates the consumer group if it does not already exist.
	// An already existing group is success; other failures are logged as
	// warnings since the group may be created by a concurrent instance.
	EnsureGroup(ctx context.Context)

	// ReadBatch performs one blocking read of up to the configured batch
	// size of unacknowledged entries. An idle stream returns (nil, nil)
	// after the block timeout.
	ReadBatch(ctx context.Context) ([]StreamEntry, error)

	// Ack acknowledges fully processed entries in the consumer group.
	Ack(ctx context.Context, entryIDs ...string) error
}

// AlertRepository is the durable alert store and the authority for the
// one-alert-per-(event, rule) uniqueness guarantee.
type AlertRepository interface {
	// EnsureSchema idempotently creates the alerts table and its indexes.
	EnsureSchema(ctx context.Context) error

	// Exists reports whether an alert already exists for the given event
	// and rule. A nil eventID always reports false: unattributable
	// candidates cannot be deduplicated.
	Exists(ctx context.Context, eventID *int64, ruleName string) (bool, error)

	// Insert persists a candidate as a new alert with status "new" and
	// returns the generated alert id.
	Insert(ctx context.Context, candidate AlertCandidate) (int64, error)

	// UpdateStatus sets the status of an alert and bumps its updated_at
	// timestamp, reporting whether a row was affected. It exists for the
	// dashboard collaborator; the consumer path never mutates alerts.
	UpdateStatus(ctx context.Context, alertID int64, status AlertStatus) (bool, error)
}

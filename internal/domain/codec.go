package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedPayload marks a stream entry payload that cannot be decoded
// into an Event. Malformed entries are not retryable; consumers should
// acknowledge them after logging.
var ErrMalformedPayload = errors.New("malformed event payload")

// Codec decodes stream entry payloads into Events. A single instance is
// constructed at startup and passed to components that need it; it holds
// no mutable state and is safe for concurrent use.
type Codec struct{}

// NewCodec creates an event codec.
func NewCodec() *Codec {
	return &Codec{}
}

// wireEvent mirrors the JSON object published by the ingestion API. The id
// is decoded as a raw message so that a non-numeric id degrades to an
// unattributable event rather than a decode failure.
type wireEvent struct {
	ID        json.RawMessage `json:"id"`
	EventType string          `json:"event_type"`
	Severity  string          `json:"severity"`
	Source    string          `json:"source"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
}

// Decode parses a JSON-encoded event. Unknown fields are ignored and
// missing optional fields are left zero-valued. Empty or non-JSON input
// returns an error wrapping ErrMalformedPayload.
func (c *Codec) Decode(data []byte) (Event, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Event{}, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	event := Event{
		ID:        parseEventID(w.ID),
		EventType: w.EventType,
		Severity:  Severity(strings.ToLower(w.Severity)),
		Source:    w.Source,
		Message:   w.Message,
		Payload:   w.Payload,
		Timestamp: parseTimestamp(w.Timestamp),
	}
	return event, nil
}

// parseEventID extracts a numeric event id. Anything that is not a JSON
// integer (strings, floats, null, objects) yields nil.
func parseEventID(raw json.RawMessage) *int64 {
	if len(raw) == 0 {
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return nil
	}
	id, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// parseTimestamp accepts RFC 3339 timestamps with or without a zone offset
// (the ingestion API emits naive ISO timestamps). Unparsable values yield
// the zero time; no rule depends on the timestamp.
func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

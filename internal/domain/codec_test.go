package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCodecDecode(t *testing.T) {
	codec := NewCodec()

	t.Run("full event", func(t *testing.T) {
		payload := `{
			"id": 42,
			"event_type": "payment",
			"severity": "ERROR",
			"source": "billing",
			"message": "charge declined",
			"payload": {"amount": 100, "currency": "EUR"},
			"timestamp": "2024-03-01T12:30:45Z"
		}`

		event, err := codec.Decode([]byte(payload))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if event.ID == nil || *event.ID != 42 {
			t.Errorf("expected id 42, got %v", event.ID)
		}
		if event.EventType != "payment" {
			t.Errorf("expected event_type payment, got %q", event.EventType)
		}
		if event.Severity != SeverityError {
			t.Errorf("expected severity normalized to error, got %q", event.Severity)
		}
		if event.Source != "billing" || event.Message != "charge declined" {
			t.Errorf("unexpected source/message: %q %q", event.Source, event.Message)
		}
		if event.Timestamp.IsZero() {
			t.Error("expected timestamp parsed")
		}
	})

	t.Run("unknown fields are ignored", func(t *testing.T) {
		payload := `{"id": 1, "event_type": "login", "severity": "info", "api_key_id": "abc", "extra": {"nested": true}}`

		event, err := codec.Decode([]byte(payload))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if event.EventType != "login" {
			t.Errorf("expected event_type login, got %q", event.EventType)
		}
	})

	t.Run("missing optional fields", func(t *testing.T) {
		event, err := codec.Decode([]byte(`{"event_type": "login", "severity": "info"}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if event.ID != nil {
			t.Errorf("expected nil id, got %v", *event.ID)
		}
		if event.Message != "" || event.Source != "" {
			t.Error("expected zero-valued optional fields")
		}
	})

	t.Run("non-numeric id degrades to nil", func(t *testing.T) {
		for _, payload := range []string{
			`{"id": "abc", "event_type": "login", "severity": "info"}`,
			`{"id": 3.5, "event_type": "login", "severity": "info"}`,
			`{"id": null, "event_type": "login", "severity": "info"}`,
			`{"id": {"v": 1}, "event_type": "login", "severity": "info"}`,
		} {
			event, err := codec.Decode([]byte(payload))
			if err != nil {
				t.Fatalf("payload %s: expected no error, got %v", payload, err)
			}
			if event.ID != nil {
				t.Errorf("payload %s: expected nil id, got %d", payload, *event.ID)
			}
		}
	})

	t.Run("naive timestamp from the ingestion API", func(t *testing.T) {
		event, err := codec.Decode([]byte(`{"event_type": "login", "severity": "info", "timestamp": "2024-03-01T12:30:45.123456"}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.UTC)
		if !event.Timestamp.Equal(want) {
			t.Errorf("expected %v, got %v", want, event.Timestamp)
		}
	})

	t.Run("malformed payloads", func(t *testing.T) {
		for _, payload := range []string{
			"",
			"   ",
			"{not json",
			`"just a string"`,
			"[1, 2, 3]",
		} {
			_, err := codec.Decode([]byte(payload))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("payload %q: expected ErrMalformedPayload, got %v", payload, err)
			}
		}
	})
}

func TestSeverityOrdering(t *testing.T) {
	ordered := []Severity{SeverityDebug, SeverityInfo, SeverityWarning, SeverityError, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("expected %s to rank above %s", ordered[i], ordered[i-1])
		}
	}

	if !SeverityWarning.AtLeast(SeverityWarning) {
		t.Error("a severity is at least itself")
	}
	if SeverityInfo.AtLeast(SeverityWarning) {
		t.Error("info is below warning")
	}
	if Severity("bogus").AtLeast(SeverityDebug) {
		t.Error("unknown severities never satisfy AtLeast")
	}
	if Severity("bogus").Rank() != -1 {
		t.Error("unknown severities rank at -1")
	}
}

package usecase

import (
	"testing"

	"github.com/auditflow/rule-engine/internal/domain"
)

func eventID(id int64) *int64 {
	return &id
}

func ruleNames(candidates []domain.AlertCandidate) []string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.RuleName
	}
	return names
}

func TestEvaluateEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     domain.Event
		wantRules []string
	}{
		{
			name: "critical payment fires two independent rules",
			event: domain.Event{
				ID:        eventID(1),
				EventType: "payment",
				Severity:  domain.SeverityCritical,
				Source:    "billing",
				Message:   "charge failed",
			},
			wantRules: []string{RuleCriticalEvent, RulePaymentFailure},
		},
		{
			name: "payment error is excluded from the error rule",
			event: domain.Event{
				ID:        eventID(2),
				EventType: "payment",
				Severity:  domain.SeverityError,
				Source:    "billing",
				Message:   "charge declined",
			},
			wantRules: []string{RulePaymentFailure},
		},
		{
			name: "failed login at info severity",
			event: domain.Event{
				ID:        eventID(3),
				EventType: "login",
				Severity:  domain.SeverityInfo,
				Source:    "web",
				Message:   "failed password attempt",
			},
			wantRules: []string{RuleFailedLogin},
		},
		{
			name: "login failure detection is case-insensitive",
			event: domain.Event{
				ID:        eventID(4),
				EventType: "LOGIN",
				Severity:  domain.SeverityInfo,
				Message:   "Login FAILED for user",
			},
			wantRules: []string{RuleFailedLogin},
		},
		{
			name: "non-payment error",
			event: domain.Event{
				ID:        eventID(5),
				EventType: "api_request",
				Severity:  domain.SeverityError,
				Source:    "gateway",
				Message:   "upstream timeout",
			},
			wantRules: []string{RuleErrorEvent},
		},
		{
			name: "security type at info severity is low",
			event: domain.Event{
				ID:        eventID(6),
				EventType: "security_scan",
				Severity:  domain.SeverityInfo,
			},
			wantRules: []string{RuleSecurityEvent},
		},
		{
			name: "auth type at warning severity is high",
			event: domain.Event{
				ID:        eventID(7),
				EventType: "auth_check",
				Severity:  domain.SeverityWarning,
			},
			wantRules: []string{RuleSecurityEvent},
		},
		{
			name: "data access at warning severity",
			event: domain.Event{
				ID:        eventID(8),
				EventType: "data_access",
				Severity:  domain.SeverityWarning,
				Source:    "reporting",
			},
			wantRules: []string{RuleDataAccess},
		},
		{
			name: "data access below warning does not fire",
			event: domain.Event{
				ID:        eventID(9),
				EventType: "data_access",
				Severity:  domain.SeverityInfo,
			},
			wantRules: nil,
		},
		{
			name: "critical auth event matches critical and security rules",
			event: domain.Event{
				ID:        eventID(10),
				EventType: "auth_login",
				Severity:  domain.SeverityCritical,
				Message:   "brute force detected",
			},
			wantRules: []string{RuleCriticalEvent, RuleSecurityEvent},
		},
		{
			name:      "empty event matches nothing",
			event:     domain.Event{},
			wantRules: nil,
		},
		{
			name: "unknown severity on security type stays low",
			event: domain.Event{
				ID:        eventID(11),
				EventType: "security_audit",
				Severity:  "catastrophic",
			},
			wantRules: []string{RuleSecurityEvent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateEvent(tt.event)

			if len(got) != len(tt.wantRules) {
				t.Fatalf("expected rules %v, got %v", tt.wantRules, ruleNames(got))
			}
			for i, want := range tt.wantRules {
				if got[i].RuleName != want {
					t.Errorf("candidate %d: expected rule %q, got %q", i, want, got[i].RuleName)
				}
			}
		})
	}
}

func TestEvaluateEventLevels(t *testing.T) {
	t.Run("failed login is medium", func(t *testing.T) {
		got := EvaluateEvent(domain.Event{
			ID: eventID(1), EventType: "login", Severity: domain.SeverityInfo, Message: "failed password attempt",
		})
		if len(got) != 1 {
			t.Fatalf("expected exactly one candidate, got %d", len(got))
		}
		if got[0].Level != domain.AlertLevelMedium {
			t.Errorf("expected level medium, got %s", got[0].Level)
		}
	})

	t.Run("security level follows the warning threshold", func(t *testing.T) {
		levels := map[domain.Severity]domain.AlertLevel{
			domain.SeverityDebug:    domain.AlertLevelLow,
			domain.SeverityInfo:     domain.AlertLevelLow,
			domain.SeverityWarning:  domain.AlertLevelHigh,
			domain.SeverityError:    domain.AlertLevelHigh,
			domain.SeverityCritical: domain.AlertLevelHigh,
		}
		for severity, want := range levels {
			got := EvaluateEvent(domain.Event{ID: eventID(2), EventType: "security_scan", Severity: severity})
			var security *domain.AlertCandidate
			for i := range got {
				if got[i].RuleName == RuleSecurityEvent {
					security = &got[i]
				}
			}
			if security == nil {
				t.Fatalf("severity %s: security rule did not fire", severity)
			}
			if security.Level != want {
				t.Errorf("severity %s: expected level %s, got %s", severity, want, security.Level)
			}
		}
	})

	t.Run("candidates carry the event id", func(t *testing.T) {
		got := EvaluateEvent(domain.Event{
			ID: eventID(42), EventType: "payment", Severity: domain.SeverityCritical,
		})
		if len(got) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(got))
		}
		for _, c := range got {
			if c.EventID == nil || *c.EventID != 42 {
				t.Errorf("rule %q: expected event id 42, got %v", c.RuleName, c.EventID)
			}
		}
	})

	t.Run("nil event id propagates as nil", func(t *testing.T) {
		got := EvaluateEvent(domain.Event{EventType: "payment", Severity: domain.SeverityError})
		if len(got) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(got))
		}
		if got[0].EventID != nil {
			t.Errorf("expected nil event id, got %v", *got[0].EventID)
		}
	})
}

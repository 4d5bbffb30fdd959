package usecase

import (
	"fmt"
	"strings"

	"github.com/auditflow/rule-engine/internal/domain"
)

// Rule names are part of the persisted dedup key; renaming one re-fires
// previously raised alerts.
const (
	RuleCriticalEvent  = "Critical Event Detected"
	RulePaymentFailure = "Payment Failure"
	RuleFailedLogin    = "Failed Login Attempt"
	RuleErrorEvent     = "Error Event"
	RuleSecurityEvent  = "Security Event"
	RuleDataAccess     = "Suspicious Data Access"
)

// EvaluateEvent applies the fixed detection rule set to one event and
// returns the candidates of every matching rule, in rule order. Rules are
// independent and the function is pure: absent fields simply fail to match,
// it never errors.
func EvaluateEvent(event domain.Event) []domain.AlertCandidate {
	eventType := strings.ToLower(event.EventType)
	severity := domain.Severity(strings.ToLower(string(event.Severity)))

	var candidates []domain.AlertCandidate
	add := func(ruleName string, level domain.AlertLevel, message string) {
		candidates = append(candidates, domain.AlertCandidate{
			RuleName: ruleName,
			Level:    level,
			Message:  message,
			EventID:  event.ID,
		})
	}

	// Rule 1: critical events always alert.
	if severity == domain.SeverityCritical {
		add(RuleCriticalEvent, domain.AlertLevelCritical,
			fmt.Sprintf("Critical %s event from %s: %s", event.EventType, event.Source, event.Message))
	}

	// Rule 2: failed payments.
	if eventType == "payment" && (severity == domain.SeverityError || severity == domain.SeverityCritical) {
		add(RulePaymentFailure, domain.AlertLevelHigh,
			fmt.Sprintf("Payment failure from %s: %s", event.Source, event.Message))
	}

	// Rule 3: failed logins, detected by message content.
	if eventType == "login" && strings.Contains(strings.ToLower(event.Message), "failed") {
		add(RuleFailedLogin, domain.AlertLevelMedium,
			fmt.Sprintf("Failed login from %s: %s", event.Source, event.Message))
	}

	// Rule 4: error events outside payments (those are rule 2's).
	if severity == domain.SeverityError && eventType != "payment" {
		add(RuleErrorEvent, domain.AlertLevelMedium,
			fmt.Sprintf("Error in %s from %s: %s", event.EventType, event.Source, event.Message))
	}

	// Rule 5: security-related event types. Warning or above is high,
	// anything else (including unknown severities) is low.
	if strings.Contains(eventType, "security") || strings.Contains(eventType, "auth") {
		level := domain.AlertLevelLow
		if severity.AtLeast(domain.SeverityWarning) {
			level = domain.AlertLevelHigh
		}
		add(RuleSecurityEvent, level,
			fmt.Sprintf("Security event %s from %s: %s", event.EventType, event.Source, event.Message))
	}

	// Rule 6: data access at warning severity or above.
	if eventType == "data_access" && severity.AtLeast(domain.SeverityWarning) {
		add(RuleDataAccess, domain.AlertLevelHigh,
			fmt.Sprintf("Data access alert from %s: %s", event.Source, event.Message))
	}

	return candidates
}

// Package lifecycle implements the fixed status-transition machines for the
// persisted entities. Every status field has a finite set of legal next
// states; terminal states reject all further writes.
package lifecycle

import (
	"github.com/carelink/carelink/internal/platform/apperr"
)

// Machine maps a current status to its legal next statuses. A status that is
// missing from the map, or mapped to an empty list, is terminal.
type Machine struct {
	entity string
	next   map[string][]string
}

// New builds a Machine for the named entity.
func New(entity string, next map[string][]string) *Machine {
	return &Machine{entity: entity, next: next}
}

// Check returns nil when the transition from -> to is legal, or an
// InvalidTransition error carrying both values. A no-op write (from == to)
// is rejected for terminal states like any other write.
func (m *Machine) Check(from, to string) error {
	for _, s := range m.next[from] {
		if s == to {
			return nil
		}
	}
	return apperr.InvalidTransition(m.entity, from, to)
}

// Terminal reports whether the given status permits no further transitions.
func (m *Machine) Terminal(status string) bool {
	return len(m.next[status]) == 0
}

// Known reports whether the status is part of the machine at all, either as a
// source or as a target.
func (m *Machine) Known(status string) bool {
	if _, ok := m.next[status]; ok {
		return true
	}
	for _, targets := range m.next {
		for _, s := range targets {
			if s == status {
				return true
			}
		}
	}
	return false
}

// Entity returns the entity name the machine guards.
func (m *Machine) Entity() string { return m.entity }

// The platform's status machines, one per entity with a status field.
var (
	// Consultation: scheduled → confirmed → in_progress → completed, with
	// cancelled/no_show diversions.
	Consultation = New("consultation", map[string][]string{
		"scheduled":   {"confirmed", "cancelled", "no_show"},
		"confirmed":   {"in_progress", "cancelled", "no_show"},
		"in_progress": {"completed", "cancelled"},
		"completed":   {},
		"cancelled":   {},
		"no_show":     {},
	})

	// SupportRequest: pending → accepted → in_progress → completed, with
	// rejected/cancelled diversions.
	SupportRequest = New("support_request", map[string][]string{
		"pending":     {"accepted", "rejected", "cancelled"},
		"accepted":    {"in_progress", "cancelled"},
		"in_progress": {"completed", "cancelled"},
		"completed":   {},
		"rejected":    {},
		"cancelled":   {},
	})

	// Payment: refund states are reachable only after completion. A payment
	// carries a single refund sub-record, so both refunded states are
	// terminal.
	Payment = New("payment", map[string][]string{
		"pending":            {"processing", "failed", "cancelled"},
		"processing":         {"completed", "failed", "cancelled"},
		"completed":          {"refunded", "partially_refunded"},
		"partially_refunded": {},
		"refunded":           {},
		"failed":             {},
		"cancelled":          {},
	})

	// Refund: the nested refund sub-record tracks its own lifecycle.
	Refund = New("refund", map[string][]string{
		"requested":  {"approved", "rejected"},
		"approved":   {"processing", "rejected"},
		"processing": {"completed"},
		"completed":  {},
		"rejected":   {},
	})

	// EmergencyAlert: false_alarm is reachable from any non-terminal state.
	EmergencyAlert = New("emergency_alert", map[string][]string{
		"active":       {"acknowledged", "resolved", "false_alarm"},
		"acknowledged": {"resolved", "false_alarm"},
		"resolved":     {},
		"false_alarm":  {},
	})

	// RatingReport: embedded report log entries on a rating.
	RatingReport = New("rating_report", map[string][]string{
		"pending":   {"reviewed", "dismissed"},
		"reviewed":  {},
		"dismissed": {},
	})
)

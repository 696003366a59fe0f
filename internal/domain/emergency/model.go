package emergency

import (
	"time"

	"github.com/google/uuid"
)

var ValidAlertTypes = map[string]bool{
	"fall": true, "medical": true, "panic_button": true, "no_response": true, "other": true,
}

// CallAttempt is one embedded outbound call record. The log is append-only.
type CallAttempt struct {
	ContactName string    `json:"contact_name,omitempty"`
	Phone       string    `json:"phone"`
	Outcome     string    `json:"outcome,omitempty"`
	CalledAt    time.Time `json:"called_at"`
}

// ResponderNote is one embedded note from a responder. Append-only.
type ResponderNote struct {
	ResponderID uuid.UUID `json:"responder_id"`
	Note        string    `json:"note"`
	NotedAt     time.Time `json:"noted_at"`
}

// EmergencyAlert maps to the emergency_alert table.
type EmergencyAlert struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	ElderlyID      uuid.UUID       `db:"elderly_id" json:"elderly_id"`
	Type           string          `db:"type" json:"type"`
	Description    *string         `db:"description" json:"description,omitempty"`
	Location       *string         `db:"location" json:"location,omitempty"`
	Status         string          `db:"status" json:"status"`
	AcknowledgedBy *uuid.UUID      `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	CallAttempts   []CallAttempt   `db:"call_attempts" json:"call_attempts,omitempty"`
	ResponderNotes []ResponderNote `db:"responder_notes" json:"responder_notes,omitempty"`
	VersionID      int             `db:"version_id" json:"version_id"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification types and the payload fields each one carries. The data
// payload is a tagged union: only the fields relevant to the declared type
// may be populated.
const (
	TypeMedicationReminder  = "medication_reminder"
	TypeAppointmentReminder = "appointment_reminder"
	TypeEmergencyAlert      = "emergency_alert"
	TypeGeneral             = "general"
)

var ValidTypes = map[string]bool{
	TypeMedicationReminder:  true,
	TypeAppointmentReminder: true,
	TypeEmergencyAlert:      true,
	TypeGeneral:             true,
}

var ValidChannels = map[string]bool{
	"push":  true,
	"sms":   true,
	"email": true,
}

var ValidAttemptStatuses = map[string]bool{
	"pending":   true,
	"sent":      true,
	"delivered": true,
	"failed":    true,
}

// Data is the typed payload of a notification. Which fields must be set,
// and which must be absent, depends on the notification type.
type Data struct {
	MedicationID  *uuid.UUID `json:"medication_id,omitempty"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	ServiceKind   *string    `json:"service_kind,omitempty"`
	AlertID       *uuid.UUID `json:"alert_id,omitempty"`
}

// DeliveryAttempt records one try at delivering the notification on one
// channel. Its status evolves independently of the notification status.
type DeliveryAttempt struct {
	Channel     string    `json:"channel"`
	Status      string    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// Notification is addressed to one recipient, optionally from one sender.
// Delivery attempts are stored as an embedded jsonb list on the row.
type Notification struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	RecipientID uuid.UUID         `db:"recipient_id" json:"recipient_id"`
	SenderID    *uuid.UUID        `db:"sender_id" json:"sender_id,omitempty"`
	Type        string            `db:"type" json:"type"`
	Title       string            `db:"title" json:"title"`
	Message     string            `db:"message" json:"message"`
	Data        Data              `db:"data" json:"data"`
	Status      string            `db:"status" json:"status"`
	ReadAt      *time.Time        `db:"read_at" json:"read_at,omitempty"`
	Attempts    []DeliveryAttempt `db:"attempts" json:"attempts"`
	VersionID   int               `db:"version_id" json:"version_id"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Delivery modes are mutually exclusive.
var ValidModes = map[string]bool{"online": true, "offline": true}

// PrescriptionLine is one embedded prescription entry on an outcome.
type PrescriptionLine struct {
	Medication string `json:"medication"`
	Dosage     string `json:"dosage,omitempty"`
	Frequency  string `json:"frequency,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// Outcome is the embedded result record. It may only be written while the
// consultation is in_progress or completed.
type Outcome struct {
	Diagnosis     string             `json:"diagnosis,omitempty"`
	Prescriptions []PrescriptionLine `json:"prescriptions,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

// PaymentInfo is the embedded payment sub-record. Its status is tracked
// independently of the consultation status.
type PaymentInfo struct {
	Status string     `json:"status"`
	Amount int64      `json:"amount"`
	Method string     `json:"method,omitempty"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// Legal transitions for the embedded payment sub-record.
var paymentInfoNext = map[string][]string{
	"pending":  {"paid"},
	"paid":     {"refunded"},
	"refunded": {},
}

// Consultation maps to the consultation table. booked_by may differ from the
// elderly party (a family member booking on their behalf).
type Consultation struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	ElderlyID     uuid.UUID   `db:"elderly_id" json:"elderly_id"`
	DoctorID      uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	BookedByID    uuid.UUID   `db:"booked_by_id" json:"booked_by_id"`
	Mode          string      `db:"mode" json:"mode"`
	ScheduledDate time.Time   `db:"scheduled_date" json:"scheduled_date"`
	StartTime     string      `db:"start_time" json:"start_time"`
	EndTime       string      `db:"end_time" json:"end_time"`
	Status        string      `db:"status" json:"status"`
	Outcome       *Outcome    `db:"outcome" json:"outcome,omitempty"`
	Payment       PaymentInfo `db:"payment" json:"payment"`
	CancelReason  *string     `db:"cancel_reason" json:"cancel_reason,omitempty"`
	VersionID     int         `db:"version_id" json:"version_id"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

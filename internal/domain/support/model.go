package support

import (
	"time"

	"github.com/google/uuid"
)

// Service categories a supporter can be booked for.
var ValidCategories = map[string]bool{
	"companionship": true, "housekeeping": true, "meal_preparation": true,
	"transportation": true, "personal_care": true, "errands": true,
}

// PaymentInfo is the embedded payment sub-record, independent of the
// Payment ledger.
type PaymentInfo struct {
	Status string     `json:"status"`
	Amount int64      `json:"amount"`
	Method string     `json:"method,omitempty"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

var paymentInfoNext = map[string][]string{
	"pending":  {"paid"},
	"paid":     {"refunded"},
	"refunded": {},
}

// SupportRequest maps to the support_request table: a non-medical in-home
// support engagement between an elderly party and a supporter.
type SupportRequest struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	ElderlyID     uuid.UUID   `db:"elderly_id" json:"elderly_id"`
	SupporterID   *uuid.UUID  `db:"supporter_id" json:"supporter_id,omitempty"`
	BookedByID    uuid.UUID   `db:"booked_by_id" json:"booked_by_id"`
	Category      string      `db:"category" json:"category"`
	Description   *string     `db:"description" json:"description,omitempty"`
	ScheduledDate time.Time   `db:"scheduled_date" json:"scheduled_date"`
	StartTime     string      `db:"start_time" json:"start_time"`
	EndTime       string      `db:"end_time" json:"end_time"`
	Status        string      `db:"status" json:"status"`
	Payment       PaymentInfo `db:"payment" json:"payment"`
	CancelReason  *string     `db:"cancel_reason" json:"cancel_reason,omitempty"`
	VersionID     int         `db:"version_id" json:"version_id"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

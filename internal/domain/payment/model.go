package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/serviceref"
)

// Refund is the nested refund sub-record. It tracks its own lifecycle
// independently of the payment status.
type Refund struct {
	Amount      int64      `json:"amount"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Payment maps to the payment table: the ledger entity, distinct from the
// embedded payment sub-records on consultations and support requests.
// total_amount = amount + service_fee + platform_fee - discount.
type Payment struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	PayerID       uuid.UUID      `db:"payer_id" json:"payer_id"`
	PayeeID       *uuid.UUID     `db:"payee_id" json:"payee_id,omitempty"`
	Service       serviceref.Ref `json:"service"`
	TransactionID string         `db:"transaction_id" json:"transaction_id"`
	Amount        int64          `db:"amount" json:"amount"`
	ServiceFee    int64          `db:"service_fee" json:"service_fee"`
	PlatformFee   int64          `db:"platform_fee" json:"platform_fee"`
	Discount      int64          `db:"discount" json:"discount"`
	TotalAmount   int64          `db:"total_amount" json:"total_amount"`
	Method        *string        `db:"method" json:"method,omitempty"`
	Status        string         `db:"status" json:"status"`
	Refund        *Refund        `db:"refund" json:"refund,omitempty"`
	VersionID     int            `db:"version_id" json:"version_id"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ComputedTotal returns the amount the pricing invariant requires.
func (p *Payment) ComputedTotal() int64 {
	return p.Amount + p.ServiceFee + p.PlatformFee - p.Discount
}

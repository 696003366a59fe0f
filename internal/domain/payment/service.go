package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/lifecycle"
	"github.com/carelink/carelink/internal/platform/serviceref"
)

type Service struct {
	repo     Repository
	resolver *serviceref.Resolver
}

func NewService(repo Repository, resolver *serviceref.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

func (s *Service) Create(ctx context.Context, p *Payment) error {
	if p.PayerID == uuid.Nil {
		return apperr.Validation("payer_id", "payer_id is required")
	}
	if p.TransactionID == "" {
		return apperr.Validation("transaction_id", "transaction_id is required")
	}
	if p.Service.IsZero() {
		return apperr.Validation("service_kind", "a payment must reference the service it pays for")
	}
	if err := p.Service.Validate(); err != nil {
		return err
	}
	if s.resolver != nil {
		if err := s.resolver.Resolve(ctx, p.Service); err != nil {
			return err
		}
	}
	if p.Amount < 0 || p.ServiceFee < 0 || p.PlatformFee < 0 || p.Discount < 0 {
		return apperr.Validation("amount", "monetary fields must not be negative")
	}
	if p.TotalAmount == 0 {
		p.TotalAmount = p.ComputedTotal()
	} else if p.TotalAmount != p.ComputedTotal() {
		return apperr.Validation("total_amount",
			"total_amount %d does not match amount + service_fee + platform_fee - discount = %d",
			p.TotalAmount, p.ComputedTotal())
	}
	if p.Status == "" {
		p.Status = "pending"
	}
	if p.Status != "pending" {
		return apperr.Validation("status", "a new payment starts as pending")
	}
	if p.Refund != nil {
		return apperr.Validation("refund", "a new payment cannot carry a refund")
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByTransaction(ctx context.Context, txID string) (*Payment, error) {
	return s.repo.GetByTransactionID(ctx, txID)
}

func (s *Service) ListByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	return s.repo.ListByPayer(ctx, payerID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Payment, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Payment.Check(p.Status, status); err != nil {
		return nil, err
	}
	// The refunded statuses are driven by the refund sub-record, not set
	// directly.
	if status == "refunded" || status == "partially_refunded" {
		return nil, apperr.Validation("status", "%s is reached by completing a refund", status)
	}
	p.Status = status
	p.VersionID = version
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RequestRefund opens a refund sub-record on a completed payment.
func (s *Service) RequestRefund(ctx context.Context, id uuid.UUID, amount int64, reason string, version int) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != "completed" {
		return nil, apperr.InvalidTransition("payment", p.Status, "refund_requested")
	}
	if p.Refund != nil {
		return nil, apperr.Validation("refund", "a refund is already open for this payment")
	}
	if amount <= 0 || amount > p.TotalAmount {
		return nil, apperr.OutOfRange("refund.amount", float64(amount), 1, float64(p.TotalAmount))
	}
	p.Refund = &Refund{
		Amount:      amount,
		Reason:      reason,
		Status:      "requested",
		RequestedAt: time.Now().UTC(),
	}
	p.VersionID = version
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateRefund moves the refund sub-record along its own lifecycle. When the
// refund completes, the payment moves to refunded or partially_refunded
// depending on the refunded share.
func (s *Service) UpdateRefund(ctx context.Context, id uuid.UUID, status string, version int) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Refund == nil {
		return nil, apperr.Validation("refund", "no refund open for this payment")
	}
	if err := lifecycle.Refund.Check(p.Refund.Status, status); err != nil {
		return nil, err
	}
	p.Refund.Status = status
	switch status {
	case "completed":
		now := time.Now().UTC()
		p.Refund.ProcessedAt = &now
		if p.Refund.Amount >= p.TotalAmount {
			p.Status = "refunded"
		} else {
			p.Status = "partially_refunded"
		}
	case "rejected":
		now := time.Now().UTC()
		p.Refund.ProcessedAt = &now
	}
	p.VersionID = version
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

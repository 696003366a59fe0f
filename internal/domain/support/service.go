package support

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/lifecycle"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, sr *SupportRequest) error {
	if sr.ElderlyID == uuid.Nil {
		return apperr.Validation("elderly_id", "elderly_id is required")
	}
	if sr.BookedByID == uuid.Nil {
		sr.BookedByID = sr.ElderlyID
	}
	if !ValidCategories[sr.Category] {
		return apperr.Validation("category", "invalid category: %s", sr.Category)
	}
	if sr.ScheduledDate.IsZero() {
		return apperr.Validation("scheduled_date", "scheduled_date is required")
	}
	if sr.StartTime == "" || sr.EndTime == "" {
		return apperr.Validation("start_time", "start_time and end_time are required")
	}
	if sr.Status == "" {
		sr.Status = "pending"
	}
	if sr.Status != "pending" {
		return apperr.Validation("status", "a new support request starts as pending")
	}
	if sr.Payment.Status == "" {
		sr.Payment.Status = "pending"
	}
	if _, ok := paymentInfoNext[sr.Payment.Status]; !ok {
		return apperr.Validation("payment.status", "invalid payment status: %s", sr.Payment.Status)
	}
	if sr.Payment.Amount < 0 {
		return apperr.Validation("payment.amount", "payment amount must not be negative")
	}
	return s.repo.Create(ctx, sr)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SupportRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*SupportRequest, int, error) {
	return s.repo.ListByElderly(ctx, elderlyID, limit, offset)
}

func (s *Service) ListBySupporter(ctx context.Context, supporterID uuid.UUID, limit, offset int) ([]*SupportRequest, int, error) {
	return s.repo.ListBySupporter(ctx, supporterID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*SupportRequest, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

// Accept assigns a supporter and moves the request to accepted in one write.
func (s *Service) Accept(ctx context.Context, id, supporterID uuid.UUID, version int) (*SupportRequest, error) {
	if supporterID == uuid.Nil {
		return nil, apperr.Validation("supporter_id", "supporter_id is required")
	}
	sr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.SupportRequest.Check(sr.Status, "accepted"); err != nil {
		return nil, err
	}
	sr.Status = "accepted"
	sr.SupporterID = &supporterID
	sr.VersionID = version
	if err := s.repo.Update(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int, reason *string) (*SupportRequest, error) {
	sr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.SupportRequest.Check(sr.Status, status); err != nil {
		return nil, err
	}
	if status == "accepted" && sr.SupporterID == nil {
		return nil, apperr.Validation("supporter_id", "an accepted request needs an assigned supporter")
	}
	sr.Status = status
	sr.VersionID = version
	if reason != nil {
		sr.CancelReason = reason
	}
	if err := s.repo.Update(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

// UpdatePayment moves the embedded payment sub-record independently of the
// request status.
func (s *Service) UpdatePayment(ctx context.Context, id uuid.UUID, status string, version int) (*SupportRequest, error) {
	sr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, next := range paymentInfoNext[sr.Payment.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperr.InvalidTransition("support_request_payment", sr.Payment.Status, status)
	}
	sr.Payment.Status = status
	if status == "paid" {
		now := time.Now().UTC()
		sr.Payment.PaidAt = &now
	}
	sr.VersionID = version
	if err := s.repo.Update(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Exists backs the service reference resolver.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

package consultation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/lifecycle"
)

// RecomputeTrigger enqueues a doctor aggregate rebuild. Implemented by the
// redis trigger queue; nil disables triggering.
type RecomputeTrigger interface {
	Enqueue(ctx context.Context, ownerID uuid.UUID)
}

type Service struct {
	repo     Repository
	triggers RecomputeTrigger
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetRecomputeTrigger attaches the aggregate trigger queue.
func (s *Service) SetRecomputeTrigger(t RecomputeTrigger) { s.triggers = t }

func (s *Service) trigger(ctx context.Context, doctorID uuid.UUID) {
	if s.triggers != nil {
		s.triggers.Enqueue(ctx, doctorID)
	}
}

func (s *Service) Create(ctx context.Context, c *Consultation) error {
	if c.ElderlyID == uuid.Nil {
		return apperr.Validation("elderly_id", "elderly_id is required")
	}
	if c.DoctorID == uuid.Nil {
		return apperr.Validation("doctor_id", "doctor_id is required")
	}
	if c.BookedByID == uuid.Nil {
		c.BookedByID = c.ElderlyID
	}
	if !ValidModes[c.Mode] {
		return apperr.Validation("mode", "mode must be online or offline")
	}
	if c.ScheduledDate.IsZero() {
		return apperr.Validation("scheduled_date", "scheduled_date is required")
	}
	if c.StartTime == "" || c.EndTime == "" {
		return apperr.Validation("start_time", "start_time and end_time are required")
	}
	if c.Status == "" {
		c.Status = "scheduled"
	}
	if c.Status != "scheduled" {
		return apperr.Validation("status", "a new consultation starts as scheduled")
	}
	if c.Outcome != nil {
		return apperr.Validation("outcome", "outcome cannot be set on a scheduled consultation")
	}
	if c.Payment.Status == "" {
		c.Payment.Status = "pending"
	}
	if _, ok := paymentInfoNext[c.Payment.Status]; !ok {
		return apperr.Validation("payment.status", "invalid payment status: %s", c.Payment.Status)
	}
	if c.Payment.Amount < 0 {
		return apperr.Validation("payment.amount", "payment amount must not be negative")
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	s.trigger(ctx, c.DoctorID)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListByElderly(ctx, elderlyID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

// UpdateStatus moves a consultation along its lifecycle. The caller passes
// the version it read; a stale version surfaces as ConcurrentModification.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int, reason *string) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Consultation.Check(c.Status, status); err != nil {
		return nil, err
	}
	c.Status = status
	c.VersionID = version
	if reason != nil {
		c.CancelReason = reason
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.trigger(ctx, c.DoctorID)
	return c, nil
}

// SetOutcome records diagnosis/prescriptions/notes. Only allowed while the
// consultation is in_progress or completed.
func (s *Service) SetOutcome(ctx context.Context, id uuid.UUID, outcome *Outcome, version int) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != "in_progress" && c.Status != "completed" {
		return nil, apperr.Validation("outcome", "outcome can only be recorded while in_progress or completed, current status is %s", c.Status)
	}
	for i, line := range outcome.Prescriptions {
		if line.Medication == "" {
			return nil, apperr.Validation("outcome.prescriptions", "prescription %d has no medication", i)
		}
	}
	c.Outcome = outcome
	c.VersionID = version
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdatePayment moves the embedded payment sub-record. Its lifecycle is
// independent of the consultation status.
func (s *Service) UpdatePayment(ctx context.Context, id uuid.UUID, status string, version int) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, next := range paymentInfoNext[c.Payment.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperr.InvalidTransition("consultation_payment", c.Payment.Status, status)
	}
	c.Payment.Status = status
	if status == "paid" {
		now := time.Now().UTC()
		c.Payment.PaidAt = &now
	}
	c.VersionID = version
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.trigger(ctx, c.DoctorID)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Exists backs the service reference resolver.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/relay"
	"github.com/carelink/carelink/internal/platform/serviceref"
)

// SMSSender dispatches one outbound SMS. The relay never returns an error;
// failures come back as an unsuccessful result.
type SMSSender interface {
	Send(ctx context.Context, to, message string) *relay.SMSResult
}

type Service struct {
	repo     Repository
	resolver *serviceref.Resolver
	sms      SMSSender
	logger   zerolog.Logger
}

func NewService(repo Repository, resolver *serviceref.Resolver, logger zerolog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, logger: logger}
}

// SetDispatch wires outbound SMS delivery.
func (s *Service) SetDispatch(sms SMSSender) { s.sms = sms }

// validateData enforces the tagged-union contract on the payload: the fields
// the declared type requires must be set and every other field must be absent.
func (s *Service) validateData(ctx context.Context, n *Notification) error {
	required := func(field string, set bool) error {
		if !set {
			return apperr.Validation("data."+field, "%s notifications require data.%s", n.Type, field)
		}
		return nil
	}
	forbidden := func(field string, set bool) error {
		if set {
			return apperr.Validation("data."+field, "data.%s is not valid for %s notifications", field, n.Type)
		}
		return nil
	}

	switch n.Type {
	case TypeMedicationReminder:
		if err := required("medication_id", n.Data.MedicationID != nil); err != nil {
			return err
		}
		for field, set := range map[string]bool{
			"appointment_id": n.Data.AppointmentID != nil,
			"service_kind":   n.Data.ServiceKind != nil,
			"alert_id":       n.Data.AlertID != nil,
		} {
			if err := forbidden(field, set); err != nil {
				return err
			}
		}
	case TypeAppointmentReminder:
		if err := required("appointment_id", n.Data.AppointmentID != nil); err != nil {
			return err
		}
		if err := required("service_kind", n.Data.ServiceKind != nil); err != nil {
			return err
		}
		for field, set := range map[string]bool{
			"medication_id": n.Data.MedicationID != nil,
			"alert_id":      n.Data.AlertID != nil,
		} {
			if err := forbidden(field, set); err != nil {
				return err
			}
		}
		if s.resolver != nil {
			ref := serviceref.Ref{Kind: *n.Data.ServiceKind, ID: *n.Data.AppointmentID}
			if err := s.resolver.Resolve(ctx, ref); err != nil {
				return err
			}
		}
	case TypeEmergencyAlert:
		if err := required("alert_id", n.Data.AlertID != nil); err != nil {
			return err
		}
		for field, set := range map[string]bool{
			"medication_id":  n.Data.MedicationID != nil,
			"appointment_id": n.Data.AppointmentID != nil,
			"service_kind":   n.Data.ServiceKind != nil,
		} {
			if err := forbidden(field, set); err != nil {
				return err
			}
		}
	case TypeGeneral:
		for field, set := range map[string]bool{
			"medication_id":  n.Data.MedicationID != nil,
			"appointment_id": n.Data.AppointmentID != nil,
			"service_kind":   n.Data.ServiceKind != nil,
			"alert_id":       n.Data.AlertID != nil,
		} {
			if err := forbidden(field, set); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, n *Notification) error {
	if n.RecipientID == uuid.Nil {
		return apperr.Validation("recipient_id", "recipient_id is required")
	}
	if n.Message == "" {
		return apperr.Validation("message", "message is required")
	}
	if n.Type == "" {
		n.Type = TypeGeneral
	}
	if !ValidTypes[n.Type] {
		return apperr.Validation("type", "invalid notification type: %s", n.Type)
	}
	if err := s.validateData(ctx, n); err != nil {
		return err
	}
	if n.Status == "" {
		n.Status = "sent"
	}
	if n.Status != "sent" {
		return apperr.Validation("status", "a new notification starts as sent")
	}
	if len(n.Attempts) != 0 {
		return apperr.Validation("attempts", "delivery attempts are recorded by dispatch")
	}
	n.ReadAt = nil
	return s.repo.Create(ctx, n)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	return s.repo.ListByRecipient(ctx, recipientID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Notification, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

// MarkRead flips the notification to read. Reading is idempotent at the
// contract level but still versioned like every other write.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, version int) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	n.Status = "read"
	if n.ReadAt == nil {
		n.ReadAt = &now
	}
	n.VersionID = version
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Dispatch attempts delivery on one channel and records the outcome as a
// delivery attempt on the notification. Provider failures never surface as
// errors; they become failed attempts for an out-of-band retry to pick up.
func (s *Service) Dispatch(ctx context.Context, id uuid.UUID, channel, address string, version int) (*Notification, error) {
	if !ValidChannels[channel] {
		return nil, apperr.Validation("channel", "invalid delivery channel: %s", channel)
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	attempt := DeliveryAttempt{Channel: channel, Status: "pending", AttemptedAt: time.Now().UTC()}
	switch {
	case channel == "sms" && s.sms != nil:
		if address == "" {
			return nil, apperr.Validation("address", "sms dispatch requires a phone number")
		}
		res := s.sms.Send(ctx, address, n.Message)
		if res.Success {
			attempt.Status = "sent"
		} else {
			attempt.Status = "failed"
			attempt.Detail = res.Message
			s.logger.Warn().
				Str("notification_id", n.ID.String()).
				Str("message", res.Message).
				Msg("sms dispatch failed")
		}
	default:
		// No provider wired for this channel; the attempt stays pending.
	}

	n.Attempts = append(n.Attempts, attempt)
	n.VersionID = version
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// RecordAttempt updates the status of the attempt at the given position,
// for delivery receipts arriving after the fact.
func (s *Service) RecordAttempt(ctx context.Context, id uuid.UUID, index int, status, detail string, version int) (*Notification, error) {
	if !ValidAttemptStatuses[status] {
		return nil, apperr.Validation("status", "invalid attempt status: %s", status)
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(n.Attempts) {
		return nil, apperr.Validation("attempt", "no delivery attempt at position %d", index)
	}
	n.Attempts[index].Status = status
	n.Attempts[index].Detail = detail
	n.VersionID = version
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

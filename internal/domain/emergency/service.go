package emergency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/lifecycle"
	"github.com/carelink/carelink/internal/platform/relay"
)

// Contact is an emergency contact to notify when an alert fires.
type Contact struct {
	Name  string
	Phone string
}

// ContactLookup fetches the emergency contacts of an elderly identity.
type ContactLookup func(ctx context.Context, elderlyID uuid.UUID) ([]Contact, error)

// SMSSender dispatches one outbound SMS. The relay never returns an error;
// failures come back as an unsuccessful result.
type SMSSender interface {
	Send(ctx context.Context, to, message string) *relay.SMSResult
}

type Service struct {
	repo     Repository
	sms      SMSSender
	contacts ContactLookup
	logger   zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SetDispatch wires SMS notification of emergency contacts on alert creation.
func (s *Service) SetDispatch(sms SMSSender, contacts ContactLookup) {
	s.sms = sms
	s.contacts = contacts
}

// Create persists the alert, then notifies emergency contacts in the
// background. Dispatch failures are logged, never surfaced.
func (s *Service) Create(ctx context.Context, a *EmergencyAlert) error {
	if a.ElderlyID == uuid.Nil {
		return apperr.Validation("elderly_id", "elderly_id is required")
	}
	if a.Type == "" {
		a.Type = "other"
	}
	if !ValidAlertTypes[a.Type] {
		return apperr.Validation("type", "invalid alert type: %s", a.Type)
	}
	if a.Status == "" {
		a.Status = "active"
	}
	if a.Status != "active" {
		return apperr.Validation("status", "a new alert starts as active")
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	// Dispatch runs detached: the alert row is committed and a slow SMS
	// provider must not hold up the response.
	alert := *a
	go s.notifyContacts(context.WithoutCancel(ctx), &alert)
	return nil
}

func (s *Service) notifyContacts(ctx context.Context, a *EmergencyAlert) {
	if s.sms == nil || s.contacts == nil {
		return
	}
	contacts, err := s.contacts(ctx, a.ElderlyID)
	if err != nil {
		s.logger.Warn().Err(err).Str("alert_id", a.ID.String()).Msg("emergency contact lookup failed")
		return
	}
	msg := fmt.Sprintf("CareLink emergency: %s alert for your family member. Alert ref %s.", a.Type, a.ID)
	for _, c := range contacts {
		res := s.sms.Send(ctx, c.Phone, msg)
		if !res.Success {
			s.logger.Warn().
				Str("alert_id", a.ID.String()).
				Str("phone", c.Phone).
				Str("detail", res.Message).
				Msg("emergency sms dispatch failed")
		}
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*EmergencyAlert, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*EmergencyAlert, int, error) {
	return s.repo.ListByElderly(ctx, elderlyID, limit, offset)
}

func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]*EmergencyAlert, int, error) {
	return s.repo.ListActive(ctx, limit, offset)
}

// Acknowledge moves an active alert to acknowledged and records the responder.
func (s *Service) Acknowledge(ctx context.Context, id, responderID uuid.UUID, version int) (*EmergencyAlert, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.EmergencyAlert.Check(a.Status, "acknowledged"); err != nil {
		return nil, err
	}
	a.Status = "acknowledged"
	a.AcknowledgedBy = &responderID
	a.VersionID = version
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) (*EmergencyAlert, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.EmergencyAlert.Check(a.Status, status); err != nil {
		return nil, err
	}
	a.Status = status
	a.VersionID = version
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AddCallAttempt appends to the call log. Allowed on any non-terminal alert.
func (s *Service) AddCallAttempt(ctx context.Context, id uuid.UUID, attempt CallAttempt, version int) (*EmergencyAlert, error) {
	if attempt.Phone == "" {
		return nil, apperr.Validation("phone", "phone is required")
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lifecycle.EmergencyAlert.Terminal(a.Status) {
		return nil, apperr.Validation("status", "alert is %s, call log is closed", a.Status)
	}
	if attempt.CalledAt.IsZero() {
		attempt.CalledAt = time.Now().UTC()
	}
	a.CallAttempts = append(a.CallAttempts, attempt)
	a.VersionID = version
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AddNote appends a responder note. Allowed on any non-terminal alert.
func (s *Service) AddNote(ctx context.Context, id uuid.UUID, note ResponderNote, version int) (*EmergencyAlert, error) {
	if note.ResponderID == uuid.Nil {
		return nil, apperr.Validation("responder_id", "responder_id is required")
	}
	if note.Note == "" {
		return nil, apperr.Validation("note", "note is required")
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lifecycle.EmergencyAlert.Terminal(a.Status) {
		return nil, apperr.Validation("status", "alert is %s, note log is closed", a.Status)
	}
	if note.NotedAt.IsZero() {
		note.NotedAt = time.Now().UTC()
	}
	a.ResponderNotes = append(a.ResponderNotes, note)
	a.VersionID = version
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

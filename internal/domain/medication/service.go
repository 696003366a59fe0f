package medication

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
)

var timeOfDay = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type Service struct {
	reminders ReminderRepository
	logs      LogRepository
}

func NewService(reminders ReminderRepository, logs LogRepository) *Service {
	return &Service{reminders: reminders, logs: logs}
}

func validateReminder(m *MedicationReminder) error {
	if m.ElderlyID == uuid.Nil {
		return apperr.Validation("elderly_id", "elderly_id is required")
	}
	if m.Medication == "" {
		return apperr.Validation("medication", "medication is required")
	}
	if len(m.TimeSlots) == 0 {
		return apperr.Validation("time_slots", "at least one time slot is required")
	}
	for i, slot := range m.TimeSlots {
		if !timeOfDay.MatchString(slot.Time) {
			return apperr.Validation("time_slots", "slot %d has invalid time %q, want HH:MM", i, slot.Time)
		}
		if slot.FoodTiming == "" {
			m.TimeSlots[i].FoodTiming = "any"
		} else if !ValidFoodTimings[slot.FoodTiming] {
			return apperr.Validation("time_slots", "slot %d has invalid food_timing %q", i, slot.FoodTiming)
		}
	}
	for _, d := range m.DaysOfWeek {
		if d < 0 || d > 6 {
			return apperr.OutOfRange("days_of_week", float64(d), 0, 6)
		}
	}
	if m.StartDate.IsZero() {
		return apperr.Validation("start_date", "start_date is required")
	}
	if m.EndDate != nil && m.EndDate.Before(m.StartDate) {
		return apperr.Validation("end_date", "end_date precedes start_date")
	}
	return nil
}

func (s *Service) CreateReminder(ctx context.Context, m *MedicationReminder) error {
	if err := validateReminder(m); err != nil {
		return err
	}
	if m.CreatedBy == uuid.Nil {
		m.CreatedBy = m.ElderlyID
	}
	m.Active = true
	return s.reminders.Create(ctx, m)
}

func (s *Service) GetReminder(ctx context.Context, id uuid.UUID) (*MedicationReminder, error) {
	return s.reminders.GetByID(ctx, id)
}

func (s *Service) UpdateReminder(ctx context.Context, m *MedicationReminder) error {
	if err := validateReminder(m); err != nil {
		return err
	}
	return s.reminders.Update(ctx, m)
}

// Deactivate stops future firings without erasing the schedule or its logs.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, version int) (*MedicationReminder, error) {
	m, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Active = false
	m.VersionID = version
	if err := s.reminders.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	return s.reminders.Delete(ctx, id)
}

func (s *Service) ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*MedicationReminder, int, error) {
	return s.reminders.ListByElderly(ctx, elderlyID, limit, offset)
}

// RecordLog writes one firing outcome against a live reminder.
func (s *Service) RecordLog(ctx context.Context, l *MedicationLog) error {
	if l.ReminderID == uuid.Nil {
		return apperr.Validation("reminder_id", "reminder_id is required")
	}
	if !ValidOutcomes[l.Outcome] {
		return apperr.Validation("outcome", "invalid outcome: %s", l.Outcome)
	}
	if l.ScheduledFor.IsZero() {
		return apperr.Validation("scheduled_for", "scheduled_for is required")
	}
	exists, err := s.reminders.Exists(ctx, l.ReminderID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.DanglingReference("medication_reminder", l.ReminderID.String())
	}
	if l.Outcome == "taken" && l.TakenAt == nil {
		now := time.Now().UTC()
		l.TakenAt = &now
	}
	return s.logs.Create(ctx, l)
}

func (s *Service) GetLog(ctx context.Context, id uuid.UUID) (*MedicationLog, error) {
	return s.logs.GetByID(ctx, id)
}

func (s *Service) ListLogs(ctx context.Context, reminderID uuid.UUID, limit, offset int) ([]*MedicationLog, int, error) {
	return s.logs.ListByReminder(ctx, reminderID, limit, offset)
}

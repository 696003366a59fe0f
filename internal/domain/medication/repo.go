package medication

import (
	"context"

	"github.com/google/uuid"
)

type ReminderRepository interface {
	Create(ctx context.Context, r *MedicationReminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicationReminder, error)
	Update(ctx context.Context, r *MedicationReminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*MedicationReminder, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type LogRepository interface {
	Create(ctx context.Context, l *MedicationLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicationLog, error)
	ListByReminder(ctx context.Context, reminderID uuid.UUID, limit, offset int) ([]*MedicationLog, int, error)
}

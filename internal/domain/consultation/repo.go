package consultation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*Consultation, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consultation, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Consultation, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// SummaryByDoctor returns the row counts and completed earnings the
	// doctor profile aggregates are rebuilt from.
	SummaryByDoctor(ctx context.Context, doctorID uuid.UUID) (total, completed int, earnings int64, err error)
}

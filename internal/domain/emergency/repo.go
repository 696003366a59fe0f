package emergency

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *EmergencyAlert) error
	GetByID(ctx context.Context, id uuid.UUID) (*EmergencyAlert, error)
	Update(ctx context.Context, a *EmergencyAlert) error
	ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*EmergencyAlert, int, error)
	ListActive(ctx context.Context, limit, offset int) ([]*EmergencyAlert, int, error)
}

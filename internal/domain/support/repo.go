package support

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, sr *SupportRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*SupportRequest, error)
	Update(ctx context.Context, sr *SupportRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*SupportRequest, int, error)
	ListBySupporter(ctx context.Context, supporterID uuid.UUID, limit, offset int) ([]*SupportRequest, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*SupportRequest, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

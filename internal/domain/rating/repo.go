package rating

import (
	"context"

	"github.com/google/uuid"
)

// Summary is the aggregate shape recomputed onto a doctor profile.
type Summary struct {
	AverageRating float64
	TotalRatings  int
}

type Repository interface {
	Create(ctx context.Context, r *Rating) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rating, error)
	Update(ctx context.Context, r *Rating) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]*Rating, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Rating, int, error)
	SummaryByReviewee(ctx context.Context, revieweeID uuid.UUID) (Summary, error)
}

package payment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByTransactionID(ctx context.Context, txID string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	ListByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]*Payment, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Payment, int, error)
}

package notification

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	Update(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Notification, int, error)
}

package profile

import (
	"context"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	Create(ctx context.Context, p *DoctorProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)
	Update(ctx context.Context, p *DoctorProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*DoctorProfile, int, error)
	// UpsertAggregates overwrites the denormalized stats for a doctor
	// identity. Replaying the same values is a no-op.
	UpsertAggregates(ctx context.Context, userID uuid.UUID, rs RatingStats, ds DoctorStats) error
}

type ElderlyRepository interface {
	Create(ctx context.Context, p *ElderlyProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*ElderlyProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*ElderlyProfile, error)
	Update(ctx context.Context, p *ElderlyProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*ElderlyProfile, int, error)
}

type FamilyRepository interface {
	Create(ctx context.Context, p *FamilyProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*FamilyProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*FamilyProfile, error)
	Update(ctx context.Context, p *FamilyProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*FamilyProfile, int, error)
}

package profile

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
)

// StatsSource reads the rating and consultation rows a doctor's denormalized
// aggregates are derived from.
type StatsSource interface {
	RatingSummary(ctx context.Context, doctorID uuid.UUID) (RatingStats, error)
	ConsultationSummary(ctx context.Context, doctorID uuid.UUID) (DoctorStats, error)
}

type Service struct {
	doctors  DoctorRepository
	elderly  ElderlyRepository
	families FamilyRepository
	stats    StatsSource
}

func NewService(d DoctorRepository, e ElderlyRepository, f FamilyRepository) *Service {
	return &Service{doctors: d, elderly: e, families: f}
}

// SetStatsSource attaches the aggregate source. Recompute is a no-op without one.
func (s *Service) SetStatsSource(src StatsSource) { s.stats = src }

// -- DoctorProfile --

func validateDoctor(p *DoctorProfile) error {
	if p.UserID == uuid.Nil {
		return apperr.Validation("user_id", "user_id is required")
	}
	if p.LicenseNumber == "" {
		return apperr.Validation("license_number", "license_number is required")
	}
	if p.ConsultationFee < 0 {
		return apperr.Validation("consultation_fee", "consultation_fee must not be negative")
	}
	for _, d := range p.WorkingDays {
		if d < 0 || d > 6 {
			return apperr.OutOfRange("working_days", float64(d), 0, 6)
		}
	}
	if p.YearsExperience != nil && *p.YearsExperience < 0 {
		return apperr.Validation("years_experience", "years_experience must not be negative")
	}
	return nil
}

func (s *Service) CreateDoctor(ctx context.Context, p *DoctorProfile) error {
	if err := validateDoctor(p); err != nil {
		return err
	}
	return s.doctors.Create(ctx, p)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) GetDoctorByUser(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	return s.doctors.GetByUserID(ctx, userID)
}

func (s *Service) UpdateDoctor(ctx context.Context, p *DoctorProfile) error {
	if err := validateDoctor(p); err != nil {
		return err
	}
	return s.doctors.Update(ctx, p)
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*DoctorProfile, int, error) {
	return s.doctors.List(ctx, limit, offset)
}

// Recompute rebuilds both doctor aggregates from their source rows and
// overwrites the stored values. Safe to replay for the same doctor any
// number of times.
func (s *Service) Recompute(ctx context.Context, doctorID uuid.UUID) error {
	if s.stats == nil {
		return nil
	}
	rs, err := s.stats.RatingSummary(ctx, doctorID)
	if err != nil {
		return err
	}
	ds, err := s.stats.ConsultationSummary(ctx, doctorID)
	if err != nil {
		return err
	}
	return s.doctors.UpsertAggregates(ctx, doctorID, rs, ds)
}

// -- ElderlyProfile --

func validateElderly(p *ElderlyProfile) error {
	if p.UserID == uuid.Nil {
		return apperr.Validation("user_id", "user_id is required")
	}
	if p.MobilityLevel == "" {
		p.MobilityLevel = "independent"
	}
	if !ValidMobilityLevels[p.MobilityLevel] {
		return apperr.Validation("mobility_level", "invalid mobility_level: %s", p.MobilityLevel)
	}
	if p.CareLevel == "" {
		p.CareLevel = "low"
	}
	if !ValidCareLevels[p.CareLevel] {
		return apperr.Validation("care_level", "invalid care_level: %s", p.CareLevel)
	}
	for i, ec := range p.EmergencyContacts {
		if ec.Phone == "" {
			return apperr.Validation("emergency_contacts", "contact %d has no phone", i)
		}
	}
	return nil
}

func (s *Service) CreateElderly(ctx context.Context, p *ElderlyProfile) error {
	if err := validateElderly(p); err != nil {
		return err
	}
	return s.elderly.Create(ctx, p)
}

func (s *Service) GetElderly(ctx context.Context, id uuid.UUID) (*ElderlyProfile, error) {
	return s.elderly.GetByID(ctx, id)
}

func (s *Service) GetElderlyByUser(ctx context.Context, userID uuid.UUID) (*ElderlyProfile, error) {
	return s.elderly.GetByUserID(ctx, userID)
}

func (s *Service) UpdateElderly(ctx context.Context, p *ElderlyProfile) error {
	if err := validateElderly(p); err != nil {
		return err
	}
	return s.elderly.Update(ctx, p)
}

func (s *Service) DeleteElderly(ctx context.Context, id uuid.UUID) error {
	return s.elderly.Delete(ctx, id)
}

func (s *Service) ListElderly(ctx context.Context, limit, offset int) ([]*ElderlyProfile, int, error) {
	return s.elderly.List(ctx, limit, offset)
}

// EmergencyContacts returns the contact list for an elderly identity.
func (s *Service) EmergencyContacts(ctx context.Context, userID uuid.UUID) ([]EmergencyContact, error) {
	p, err := s.elderly.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.EmergencyContacts, nil
}

// -- FamilyProfile --

func validateFamily(p *FamilyProfile) error {
	if p.UserID == uuid.Nil {
		return apperr.Validation("user_id", "user_id is required")
	}
	if p.Relationship == "" {
		return apperr.Validation("relationship", "relationship is required")
	}
	return nil
}

func (s *Service) CreateFamily(ctx context.Context, p *FamilyProfile) error {
	if err := validateFamily(p); err != nil {
		return err
	}
	return s.families.Create(ctx, p)
}

func (s *Service) GetFamily(ctx context.Context, id uuid.UUID) (*FamilyProfile, error) {
	return s.families.GetByID(ctx, id)
}

func (s *Service) GetFamilyByUser(ctx context.Context, userID uuid.UUID) (*FamilyProfile, error) {
	return s.families.GetByUserID(ctx, userID)
}

func (s *Service) UpdateFamily(ctx context.Context, p *FamilyProfile) error {
	if err := validateFamily(p); err != nil {
		return err
	}
	return s.families.Update(ctx, p)
}

func (s *Service) DeleteFamily(ctx context.Context, id uuid.UUID) error {
	return s.families.Delete(ctx, id)
}

func (s *Service) ListFamilies(ctx context.Context, limit, offset int) ([]*FamilyProfile, int, error) {
	return s.families.List(ctx, limit, offset)
}

package profile

import (
	"time"

	"github.com/google/uuid"
)

// Valid enum values for elderly profiles.
var (
	ValidMobilityLevels = map[string]bool{
		"independent": true, "assisted": true, "wheelchair": true, "bedridden": true,
	}
	ValidCareLevels = map[string]bool{
		"low": true, "medium": true, "high": true,
	}
)

// RatingStats is the denormalized rating aggregate on a doctor profile.
// It is recomputed in full from rating rows, never incremented in place.
type RatingStats struct {
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

// DoctorStats is the denormalized consultation aggregate on a doctor profile.
type DoctorStats struct {
	TotalConsultations int     `json:"total_consultations"`
	TotalEarnings      int64   `json:"total_earnings"`
	CompletionRate     float64 `json:"completion_rate"`
}

// DoctorProfile maps to the doctor_profile table. At most one per user
// identity; license_number is globally unique.
type DoctorProfile struct {
	ID               uuid.UUID   `db:"id" json:"id"`
	UserID           uuid.UUID   `db:"user_id" json:"user_id"`
	LicenseNumber    string      `db:"license_number" json:"license_number"`
	Specialization   *string     `db:"specialization" json:"specialization,omitempty"`
	YearsExperience  *int        `db:"years_experience" json:"years_experience,omitempty"`
	ConsultationFee  int64       `db:"consultation_fee" json:"consultation_fee"`
	WorkingDays      []int       `db:"working_days" json:"working_days"`
	WorkingHourStart *string     `db:"working_hour_start" json:"working_hour_start,omitempty"`
	WorkingHourEnd   *string     `db:"working_hour_end" json:"working_hour_end,omitempty"`
	Bio              *string     `db:"bio" json:"bio,omitempty"`
	RatingStats      RatingStats `db:"rating_stats" json:"rating_stats"`
	Stats            DoctorStats `db:"stats" json:"stats"`
	VersionID        int         `db:"version_id" json:"version_id"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

// EmergencyContact is an embedded contact on an elderly profile.
type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation,omitempty"`
}

// ElderlyProfile maps to the elderly_profile table. At most one per user
// identity.
type ElderlyProfile struct {
	ID                uuid.UUID          `db:"id" json:"id"`
	UserID            uuid.UUID          `db:"user_id" json:"user_id"`
	DateOfBirth       *time.Time         `db:"date_of_birth" json:"date_of_birth,omitempty"`
	MobilityLevel     string             `db:"mobility_level" json:"mobility_level"`
	CareLevel         string             `db:"care_level" json:"care_level"`
	MedicalConditions []string           `db:"medical_conditions" json:"medical_conditions,omitempty"`
	Allergies         []string           `db:"allergies" json:"allergies,omitempty"`
	EmergencyContacts []EmergencyContact `db:"emergency_contacts" json:"emergency_contacts,omitempty"`
	Address           *string            `db:"address" json:"address,omitempty"`
	VersionID         int                `db:"version_id" json:"version_id"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
}

// FamilyProfile maps to the family_profile table. At most one per user
// identity; linked_elderly names the elderly identities this member cares for.
type FamilyProfile struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	UserID        uuid.UUID   `db:"user_id" json:"user_id"`
	Relationship  string      `db:"relationship" json:"relationship"`
	Phone         *string     `db:"phone" json:"phone,omitempty"`
	LinkedElderly []uuid.UUID `db:"linked_elderly" json:"linked_elderly,omitempty"`
	VersionID     int         `db:"version_id" json:"version_id"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

const uniqueViolation = "23505"

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const doctorCols = `id, user_id, license_number, specialization, years_experience,
	consultation_fee, working_days, working_hour_start, working_hour_end, bio,
	rating_stats, stats, version_id, created_at, updated_at`

func (r *doctorRepoPG) scan(row pgx.Row) (*DoctorProfile, error) {
	var p DoctorProfile
	err := row.Scan(&p.ID, &p.UserID, &p.LicenseNumber, &p.Specialization,
		&p.YearsExperience, &p.ConsultationFee, &p.WorkingDays,
		&p.WorkingHourStart, &p.WorkingHourEnd, &p.Bio,
		&p.RatingStats, &p.Stats, &p.VersionID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("doctor profile: %w", apperr.ErrNotFound)
	}
	return &p, err
}

func (r *doctorRepoPG) Create(ctx context.Context, p *DoctorProfile) error {
	p.ID = uuid.New()
	p.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_profile (id, user_id, license_number, specialization,
			years_experience, consultation_fee, working_days, working_hour_start,
			working_hour_end, bio, rating_stats, stats, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.UserID, p.LicenseNumber, p.Specialization, p.YearsExperience,
		p.ConsultationFee, p.WorkingDays, p.WorkingHourStart, p.WorkingHourEnd,
		p.Bio, p.RatingStats, p.Stats, p.VersionID)
	return translateDoctorErr(err, p)
}

func translateDoctorErr(err error, p *DoctorProfile) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "doctor_profile_license_number_key" {
			return apperr.Duplicate(apperr.DupLicense, p.LicenseNumber)
		}
		return apperr.Duplicate(apperr.DupProfile, p.UserID.String())
	}
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor_profile WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor_profile WHERE user_id = $1`, userID))
}

func (r *doctorRepoPG) Update(ctx context.Context, p *DoctorProfile) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor_profile SET license_number=$2, specialization=$3,
			years_experience=$4, consultation_fee=$5, working_days=$6,
			working_hour_start=$7, working_hour_end=$8, bio=$9,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1 AND version_id = $10`,
		p.ID, p.LicenseNumber, p.Specialization, p.YearsExperience,
		p.ConsultationFee, p.WorkingDays, p.WorkingHourStart, p.WorkingHourEnd,
		p.Bio, p.VersionID)
	if err != nil {
		return translateDoctorErr(err, p)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ConcurrentModification("doctor_profile", p.ID.String())
	}
	p.VersionID++
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor_profile WHERE id = $1`, id)
	return err
}

func (r *doctorRepoPG) List(ctx context.Context, limit, offset int) ([]*DoctorProfile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor_profile`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+doctorCols+` FROM doctor_profile ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*DoctorProfile
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// UpsertAggregates deliberately bypasses the version check: a full overwrite
// of the stats columns is idempotent, so the last recompute always wins.
func (r *doctorRepoPG) UpsertAggregates(ctx context.Context, userID uuid.UUID, rs RatingStats, ds DoctorStats) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor_profile SET rating_stats=$2, stats=$3, updated_at=NOW()
		WHERE user_id = $1`,
		userID, rs, ds)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("doctor profile for user %s: %w", userID, apperr.ErrNotFound)
	}
	return nil
}

// =========== Elderly Repository ===========

type elderlyRepoPG struct{ pool *pgxpool.Pool }

func NewElderlyRepoPG(pool *pgxpool.Pool) ElderlyRepository {
	return &elderlyRepoPG{pool: pool}
}

func (r *elderlyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const elderlyCols = `id, user_id, date_of_birth, mobility_level, care_level,
	medical_conditions, allergies, emergency_contacts, address, version_id,
	created_at, updated_at`

func (r *elderlyRepoPG) scan(row pgx.Row) (*ElderlyProfile, error) {
	var p ElderlyProfile
	err := row.Scan(&p.ID, &p.UserID, &p.DateOfBirth, &p.MobilityLevel,
		&p.CareLevel, &p.MedicalConditions, &p.Allergies, &p.EmergencyContacts,
		&p.Address, &p.VersionID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("elderly profile: %w", apperr.ErrNotFound)
	}
	return &p, err
}

func (r *elderlyRepoPG) Create(ctx context.Context, p *ElderlyProfile) error {
	p.ID = uuid.New()
	p.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO elderly_profile (id, user_id, date_of_birth, mobility_level,
			care_level, medical_conditions, allergies, emergency_contacts,
			address, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.UserID, p.DateOfBirth, p.MobilityLevel, p.CareLevel,
		p.MedicalConditions, p.Allergies, p.EmergencyContacts, p.Address, p.VersionID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Duplicate(apperr.DupProfile, p.UserID.String())
	}
	return err
}

func (r *elderlyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ElderlyProfile, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+elderlyCols+` FROM elderly_profile WHERE id = $1`, id))
}

func (r *elderlyRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*ElderlyProfile, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+elderlyCols+` FROM elderly_profile WHERE user_id = $1`, userID))
}

func (r *elderlyRepoPG) Update(ctx context.Context, p *ElderlyProfile) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE elderly_profile SET date_of_birth=$2, mobility_level=$3,
			care_level=$4, medical_conditions=$5, allergies=$6,
			emergency_contacts=$7, address=$8,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1 AND version_id = $9`,
		p.ID, p.DateOfBirth, p.MobilityLevel, p.CareLevel, p.MedicalConditions,
		p.Allergies, p.EmergencyContacts, p.Address, p.VersionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ConcurrentModification("elderly_profile", p.ID.String())
	}
	p.VersionID++
	return nil
}

func (r *elderlyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM elderly_profile WHERE id = $1`, id)
	return err
}

func (r *elderlyRepoPG) List(ctx context.Context, limit, offset int) ([]*ElderlyProfile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM elderly_profile`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+elderlyCols+` FROM elderly_profile ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ElderlyProfile
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// =========== Family Repository ===========

type familyRepoPG struct{ pool *pgxpool.Pool }

func NewFamilyRepoPG(pool *pgxpool.Pool) FamilyRepository {
	return &familyRepoPG{pool: pool}
}

func (r *familyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const familyCols = `id, user_id, relationship, phone, linked_elderly,
	version_id, created_at, updated_at`

func (r *familyRepoPG) scan(row pgx.Row) (*FamilyProfile, error) {
	var p FamilyProfile
	err := row.Scan(&p.ID, &p.UserID, &p.Relationship, &p.Phone,
		&p.LinkedElderly, &p.VersionID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("family profile: %w", apperr.ErrNotFound)
	}
	return &p, err
}

func (r *familyRepoPG) Create(ctx context.Context, p *FamilyProfile) error {
	p.ID = uuid.New()
	p.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO family_profile (id, user_id, relationship, phone,
			linked_elderly, version_id)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.UserID, p.Relationship, p.Phone, p.LinkedElderly, p.VersionID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Duplicate(apperr.DupProfile, p.UserID.String())
	}
	return err
}

func (r *familyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*FamilyProfile, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+familyCols+` FROM family_profile WHERE id = $1`, id))
}

func (r *familyRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*FamilyProfile, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+familyCols+` FROM family_profile WHERE user_id = $1`, userID))
}

func (r *familyRepoPG) Update(ctx context.Context, p *FamilyProfile) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE family_profile SET relationship=$2, phone=$3, linked_elderly=$4,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1 AND version_id = $5`,
		p.ID, p.Relationship, p.Phone, p.LinkedElderly, p.VersionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ConcurrentModification("family_profile", p.ID.String())
	}
	p.VersionID++
	return nil
}

func (r *familyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM family_profile WHERE id = $1`, id)
	return err
}

func (r *familyRepoPG) List(ctx context.Context, limit, offset int) ([]*FamilyProfile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM family_profile`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+familyCols+` FROM family_profile ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*FamilyProfile
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

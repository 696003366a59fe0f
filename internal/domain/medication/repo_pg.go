package medication

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

// =========== Reminder Repository ===========

type reminderRepoPG struct{ pool *pgxpool.Pool }

func NewReminderRepoPG(pool *pgxpool.Pool) ReminderRepository {
	return &reminderRepoPG{pool: pool}
}

func (r *reminderRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const reminderCols = `id, elderly_id, created_by, medication, dosage, time_slots,
	days_of_week, start_date, end_date, active, notes, version_id,
	created_at, updated_at`

func (r *reminderRepoPG) scan(row pgx.Row) (*MedicationReminder, error) {
	var m MedicationReminder
	err := row.Scan(&m.ID, &m.ElderlyID, &m.CreatedBy, &m.Medication, &m.Dosage,
		&m.TimeSlots, &m.DaysOfWeek, &m.StartDate, &m.EndDate, &m.Active,
		&m.Notes, &m.VersionID, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("medication reminder: %w", apperr.ErrNotFound)
	}
	return &m, err
}

func (r *reminderRepoPG) Create(ctx context.Context, m *MedicationReminder) error {
	m.ID = uuid.New()
	m.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication_reminder (id, elderly_id, created_by, medication,
			dosage, time_slots, days_of_week, start_date, end_date, active,
			notes, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		m.ID, m.ElderlyID, m.CreatedBy, m.Medication, m.Dosage, m.TimeSlots,
		m.DaysOfWeek, m.StartDate, m.EndDate, m.Active, m.Notes, m.VersionID)
	return err
}

func (r *reminderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicationReminder, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+reminderCols+` FROM medication_reminder WHERE id = $1`, id))
}

func (r *reminderRepoPG) Update(ctx context.Context, m *MedicationReminder) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication_reminder SET medication=$2, dosage=$3, time_slots=$4,
			days_of_week=$5, start_date=$6, end_date=$7, active=$8, notes=$9,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1 AND version_id = $10`,
		m.ID, m.Medication, m.Dosage, m.TimeSlots, m.DaysOfWeek, m.StartDate,
		m.EndDate, m.Active, m.Notes, m.VersionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ConcurrentModification("medication_reminder", m.ID.String())
	}
	m.VersionID++
	return nil
}

func (r *reminderRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medication_reminder WHERE id = $1`, id)
	return err
}

func (r *reminderRepoPG) ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*MedicationReminder, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medication_reminder WHERE elderly_id = $1`, elderlyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reminderCols+` FROM medication_reminder WHERE elderly_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, elderlyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MedicationReminder
	for rows.Next() {
		m, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

func (r *reminderRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM medication_reminder WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// =========== Log Repository ===========

type logRepoPG struct{ pool *pgxpool.Pool }

func NewLogRepoPG(pool *pgxpool.Pool) LogRepository {
	return &logRepoPG{pool: pool}
}

func (r *logRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const logCols = `id, reminder_id, scheduled_for, outcome, taken_at, notes, created_at`

func (r *logRepoPG) scan(row pgx.Row) (*MedicationLog, error) {
	var l MedicationLog
	err := row.Scan(&l.ID, &l.ReminderID, &l.ScheduledFor, &l.Outcome,
		&l.TakenAt, &l.Notes, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("medication log: %w", apperr.ErrNotFound)
	}
	return &l, err
}

func (r *logRepoPG) Create(ctx context.Context, l *MedicationLog) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication_log (id, reminder_id, scheduled_for, outcome,
			taken_at, notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		l.ID, l.ReminderID, l.ScheduledFor, l.Outcome, l.TakenAt, l.Notes)
	return err
}

func (r *logRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicationLog, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+logCols+` FROM medication_log WHERE id = $1`, id))
}

func (r *logRepoPG) ListByReminder(ctx context.Context, reminderID uuid.UUID, limit, offset int) ([]*MedicationLog, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medication_log WHERE reminder_id = $1`, reminderID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+logCols+` FROM medication_log WHERE reminder_id = $1 ORDER BY scheduled_for DESC LIMIT $2 OFFSET $3`, reminderID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MedicationLog
	for rows.Next() {
		l, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, nil
}

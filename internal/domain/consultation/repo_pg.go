package consultation

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const cols = `id, elderly_id, doctor_id, booked_by_id, mode, scheduled_date,
	start_time, end_time, status, outcome, payment, cancel_reason,
	version_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.ElderlyID, &c.DoctorID, &c.BookedByID, &c.Mode,
		&c.ScheduledDate, &c.StartTime, &c.EndTime, &c.Status, &c.Outcome,
		&c.Payment, &c.CancelReason, &c.VersionID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("consultation: %w", apperr.ErrNotFound)
	}
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	c.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultation (id, elderly_id, doctor_id, booked_by_id, mode,
			scheduled_date, start_time, end_time, status, outcome, payment,
			cancel_reason, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		c.ID, c.ElderlyID, c.DoctorID, c.BookedByID, c.Mode,
		c.ScheduledDate, c.StartTime, c.EndTime, c.Status, c.Outcome,
		c.Payment, c.CancelReason, c.VersionID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM consultation WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, c *Consultation) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultation SET mode=$2, scheduled_date=$3, start_time=$4,
			end_time=$5, status=$6, outcome=$7, payment=$8, cancel_reason=$9,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1 AND version_id = $10`,
		c.ID, c.Mode, c.ScheduledDate, c.StartTime, c.EndTime, c.Status,
		c.Outcome, c.Payment, c.CancelReason, c.VersionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ConcurrentModification("consultation", c.ID.String())
	}
	c.VersionID++
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM consultation WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return r.listBy(ctx, "elderly_id", elderlyID, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return r.listBy(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *repoPG) listBy(ctx context.Context, col string, id uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultation WHERE `+col+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM consultation WHERE `+col+` = $1 ORDER BY scheduled_date DESC LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Consultation
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Consultation, int, error) {
	query := `SELECT ` + cols + ` FROM consultation WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM consultation WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["doctor"]; ok {
		query += fmt.Sprintf(` AND doctor_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND doctor_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["elderly"]; ok {
		query += fmt.Sprintf(` AND elderly_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND elderly_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["mode"]; ok {
		query += fmt.Sprintf(` AND mode = $%d`, idx)
		countQuery += fmt.Sprintf(` AND mode = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY scheduled_date DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Consultation
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM consultation WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repoPG) SummaryByDoctor(ctx context.Context, doctorID uuid.UUID) (int, int, int64, error) {
	var total, completed int
	var earnings int64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM((payment->>'amount')::bigint) FILTER (WHERE status = 'completed'), 0)
		FROM consultation WHERE doctor_id = $1`, doctorID).
		Scan(&total, &completed, &earnings)
	return total, completed, earnings, err
}

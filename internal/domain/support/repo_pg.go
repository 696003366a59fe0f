package support

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

const cols = `id, elderly_id, supporter_id, booked_by_id, category, description,
	scheduled_date, start_time, end_time, status, payment, cancel_reason,
	version_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*SupportRequest, error) {
	var sr SupportRequest
	err := row.Scan(&sr.ID, &sr.ElderlyID, &sr.SupporterID, &sr.BookedByID,
		&sr.Category, &sr.Description, &sr.ScheduledDate, &sr.StartTime,
		&sr.EndTime, &sr.Status, &sr.Payment, &sr.CancelReason,
		&sr.VersionID, &sr.CreatedAt, &sr.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("support request: %w", apperr.ErrNotFound)
	}
	return &sr, err
}

func (r *repoPG) Create(ctx context.Context, sr *SupportRequest) error {
	sr.ID = uuid.New()
	sr.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO support_request (id, elderly_id, supporter_id, booked_by_id,
			category, description, scheduled_date, start_time, end_time, status,
			payment, cancel_reason, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		sr.ID, sr.ElderlyID, sr.SupporterID, sr.BookedByID, sr.Category,
		sr.Description, sr.ScheduledDate, sr.StartTime, sr.EndTime, sr.Status,
		sr.Payment, sr.CancelReason, sr.VersionID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*SupportRequest, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM support_request WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, sr *SupportRequest) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE support_request SET supporter_id=$2, category=$3, description=$4,
			scheduled_date=$5, start_time=$6, end_time=$7, status=$8,
			payment=$9, cancel_reason=$10,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1 AND version_id = $11`,
		sr.ID, sr.SupporterID, sr.Category, sr.Description, sr.ScheduledDate,
		sr.StartTime, sr.EndTime, sr.Status, sr.Payment, sr.CancelReason,
		sr.VersionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ConcurrentModification("support_request", sr.ID.String())
	}
	sr.VersionID++
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM support_request WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*SupportRequest, int, error) {
	return r.listBy(ctx, "elderly_id", elderlyID, limit, offset)
}

func (r *repoPG) ListBySupporter(ctx context.Context, supporterID uuid.UUID, limit, offset int) ([]*SupportRequest, int, error) {
	return r.listBy(ctx, "supporter_id", supporterID, limit, offset)
}

func (r *repoPG) listBy(ctx context.Context, col string, id uuid.UUID, limit, offset int) ([]*SupportRequest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM support_request WHERE `+col+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM support_request WHERE `+col+` = $1 ORDER BY scheduled_date DESC LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*SupportRequest
	for rows.Next() {
		sr, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sr)
	}
	return items, total, nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*SupportRequest, int, error) {
	query := `SELECT ` + cols + ` FROM support_request WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM support_request WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["elderly"]; ok {
		query += fmt.Sprintf(` AND elderly_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND elderly_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["supporter"]; ok {
		query += fmt.Sprintf(` AND supporter_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND supporter_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["category"]; ok {
		query += fmt.Sprintf(` AND category = $%d`, idx)
		countQuery += fmt.Sprintf(` AND category = $%d`, idx)
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
	var items []*SupportRequest
	for rows.Next() {
		sr, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sr)
	}
	return items, total, nil
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM support_request WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

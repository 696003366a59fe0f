package emergency

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

const cols = `id, elderly_id, type, description, location, status,
	acknowledged_by, call_attempts, responder_notes, version_id,
	created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*EmergencyAlert, error) {
	var a EmergencyAlert
	err := row.Scan(&a.ID, &a.ElderlyID, &a.Type, &a.Description, &a.Location,
		&a.Status, &a.AcknowledgedBy, &a.CallAttempts, &a.ResponderNotes,
		&a.VersionID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("emergency alert: %w", apperr.ErrNotFound)
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *EmergencyAlert) error {
	a.ID = uuid.New()
	a.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO emergency_alert (id, elderly_id, type, description,
			location, status, acknowledged_by, call_attempts, responder_notes,
			version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.ElderlyID, a.Type, a.Description, a.Location, a.Status,
		a.AcknowledgedBy, a.CallAttempts, a.ResponderNotes, a.VersionID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*EmergencyAlert, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM emergency_alert WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *EmergencyAlert) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE emergency_alert SET status=$2, acknowledged_by=$3,
			call_attempts=$4, responder_notes=$5,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1 AND version_id = $6`,
		a.ID, a.Status, a.AcknowledgedBy, a.CallAttempts, a.ResponderNotes,
		a.VersionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ConcurrentModification("emergency_alert", a.ID.String())
	}
	a.VersionID++
	return nil
}

func (r *repoPG) ListByElderly(ctx context.Context, elderlyID uuid.UUID, limit, offset int) ([]*EmergencyAlert, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM emergency_alert WHERE elderly_id = $1`, elderlyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM emergency_alert WHERE elderly_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, elderlyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*EmergencyAlert
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

func (r *repoPG) ListActive(ctx context.Context, limit, offset int) ([]*EmergencyAlert, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM emergency_alert WHERE status IN ('active','acknowledged')`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM emergency_alert WHERE status IN ('active','acknowledged') ORDER BY created_at ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*EmergencyAlert
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

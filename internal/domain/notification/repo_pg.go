package notification

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

const cols = `id, recipient_id, sender_id, type, title, message, data,
	status, read_at, attempts, version_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.Type, &n.Title,
		&n.Message, &n.Data, &n.Status, &n.ReadAt, &n.Attempts,
		&n.VersionID, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("notification: %w", apperr.ErrNotFound)
	}
	return &n, err
}

func (r *repoPG) Create(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	n.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO notification (id, recipient_id, sender_id, type, title,
			message, data, status, read_at, attempts, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		n.ID, n.RecipientID, n.SenderID, n.Type, n.Title, n.Message,
		n.Data, n.Status, n.ReadAt, n.Attempts, n.VersionID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM notification WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, n *Notification) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE notification SET status=$2, read_at=$3, attempts=$4,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1 AND version_id = $5`,
		n.ID, n.Status, n.ReadAt, n.Attempts, n.VersionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ConcurrentModification("notification", n.ID.String())
	}
	n.VersionID++
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM notification WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM notification WHERE recipient_id = $1`, recipientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM notification WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, recipientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		n, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Notification, int, error) {
	query := `SELECT ` + cols + ` FROM notification WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM notification WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["recipient"]; ok {
		query += fmt.Sprintf(` AND recipient_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND recipient_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["type"]; ok {
		query += fmt.Sprintf(` AND type = $%d`, idx)
		countQuery += fmt.Sprintf(` AND type = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		n, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, nil
}

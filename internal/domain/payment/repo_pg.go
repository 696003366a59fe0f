package payment

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

const cols = `id, payer_id, payee_id, service_kind, service_id, transaction_id,
	amount, service_fee, platform_fee, discount, total_amount, method, status,
	refund, version_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.PayerID, &p.PayeeID, &p.Service.Kind,
		&p.Service.ID, &p.TransactionID, &p.Amount, &p.ServiceFee,
		&p.PlatformFee, &p.Discount, &p.TotalAmount, &p.Method, &p.Status,
		&p.Refund, &p.VersionID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("payment: %w", apperr.ErrNotFound)
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	p.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment (id, payer_id, payee_id, service_kind, service_id,
			transaction_id, amount, service_fee, platform_fee, discount,
			total_amount, method, status, refund, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.PayerID, p.PayeeID, p.Service.Kind, p.Service.ID,
		p.TransactionID, p.Amount, p.ServiceFee, p.PlatformFee, p.Discount,
		p.TotalAmount, p.Method, p.Status, p.Refund, p.VersionID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Duplicate(apperr.DupTransaction, p.TransactionID)
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM payment WHERE id = $1`, id))
}

func (r *repoPG) GetByTransactionID(ctx context.Context, txID string) (*Payment, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM payment WHERE transaction_id = $1`, txID))
}

func (r *repoPG) Update(ctx context.Context, p *Payment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE payment SET status=$2, method=$3, refund=$4,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1 AND version_id = $5`,
		p.ID, p.Status, p.Method, p.Refund, p.VersionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ConcurrentModification("payment", p.ID.String())
	}
	p.VersionID++
	return nil
}

func (r *repoPG) ListByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM payment WHERE payer_id = $1`, payerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM payment WHERE payer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, payerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Payment
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Payment, int, error) {
	query := `SELECT ` + cols + ` FROM payment WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM payment WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["payer"]; ok {
		query += fmt.Sprintf(` AND payer_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND payer_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["service_kind"]; ok {
		query += fmt.Sprintf(` AND service_kind = $%d`, idx)
		countQuery += fmt.Sprintf(` AND service_kind = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["service_id"]; ok {
		query += fmt.Sprintf(` AND service_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND service_id = $%d`, idx)
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
	var items []*Payment
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

package rating

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

const cols = `id, reviewer_id, reviewee_id, service_kind, service_id,
	overall_score, criteria, comment, votes, reports,
	version_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Rating, error) {
	var rt Rating
	err := row.Scan(&rt.ID, &rt.ReviewerID, &rt.RevieweeID,
		&rt.Service.Kind, &rt.Service.ID, &rt.OverallScore, &rt.Criteria,
		&rt.Comment, &rt.Votes, &rt.Reports,
		&rt.VersionID, &rt.CreatedAt, &rt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rating: %w", apperr.ErrNotFound)
	}
	return &rt, err
}

func (r *repoPG) Create(ctx context.Context, rt *Rating) error {
	rt.ID = uuid.New()
	rt.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO rating (id, reviewer_id, reviewee_id, service_kind, service_id,
			overall_score, criteria, comment, votes, reports, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rt.ID, rt.ReviewerID, rt.RevieweeID, rt.Service.Kind, rt.Service.ID,
		rt.OverallScore, rt.Criteria, rt.Comment, rt.Votes, rt.Reports,
		rt.VersionID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Rating, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM rating WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rt *Rating) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE rating SET overall_score=$2, criteria=$3, comment=$4,
			votes=$5, reports=$6,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1 AND version_id = $7`,
		rt.ID, rt.OverallScore, rt.Criteria, rt.Comment, rt.Votes, rt.Reports,
		rt.VersionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ConcurrentModification("rating", rt.ID.String())
	}
	rt.VersionID++
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM rating WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]*Rating, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM rating WHERE reviewee_id = $1`, revieweeID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM rating WHERE reviewee_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, revieweeID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Rating
	for rows.Next() {
		rt, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rt)
	}
	return items, total, nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Rating, int, error) {
	query := `SELECT ` + cols + ` FROM rating WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM rating WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["reviewer"]; ok {
		query += fmt.Sprintf(` AND reviewer_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND reviewer_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["reviewee"]; ok {
		query += fmt.Sprintf(` AND reviewee_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND reviewee_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["service_kind"]; ok {
		query += fmt.Sprintf(` AND service_kind = $%d`, idx)
		countQuery += fmt.Sprintf(` AND service_kind = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["service"]; ok {
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
	var items []*Rating
	for rows.Next() {
		rt, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rt)
	}
	return items, total, nil
}

func (r *repoPG) SummaryByReviewee(ctx context.Context, revieweeID uuid.UUID) (Summary, error) {
	var s Summary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(AVG(overall_score), 0), COUNT(*)
		FROM rating WHERE reviewee_id = $1`, revieweeID).
		Scan(&s.AverageRating, &s.TotalRatings)
	return s, err
}

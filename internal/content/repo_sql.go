package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"resume-match/internal/shared/storage/db"
)

// SQLRepo implements Repo on Postgres or SQLite.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func (r *SQLRepo) q(query string) string {
	return r.Dialect.Rebind(query)
}

func (r *SQLRepo) CreateResume(ctx context.Context, res Resume) error {
	const query = `
INSERT INTO resumes (id, user_id, file_name, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, r.q(query), res.ID, res.UserID, res.FileName, res.Content, res.CreatedAt, res.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *SQLRepo) GetResume(ctx context.Context, id string) (Resume, error) {
	const query = `
SELECT id, user_id, file_name, content, created_at, updated_at
FROM resumes
WHERE id = $1`
	return scanResume(r.DB.QueryRowContext(ctx, r.q(query), id))
}

func (r *SQLRepo) GetResumeByUser(ctx context.Context, userID string) (Resume, error) {
	const query = `
SELECT id, user_id, file_name, content, created_at, updated_at
FROM resumes
WHERE user_id = $1`
	return scanResume(r.DB.QueryRowContext(ctx, r.q(query), userID))
}

func scanResume(row *sql.Row) (Resume, error) {
	var res Resume
	err := row.Scan(&res.ID, &res.UserID, &res.FileName, &res.Content, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return res, nil
}

func (r *SQLRepo) UpdateResume(ctx context.Context, res Resume) error {
	const query = `
UPDATE resumes
SET file_name = $1, content = $2, updated_at = $3
WHERE id = $4`
	result, err := r.DB.ExecContext(ctx, r.q(query), res.FileName, res.Content, res.UpdatedAt, res.ID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *SQLRepo) DeleteResume(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, r.q(`DELETE FROM resumes WHERE id = $1`), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *SQLRepo) CreateJobOffer(ctx context.Context, o JobOffer) error {
	const query = `
INSERT INTO job_offers (id, file_name, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, r.q(query), o.ID, o.FileName, o.Content, o.CreatedAt, o.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *SQLRepo) GetJobOffer(ctx context.Context, id string) (JobOffer, error) {
	const query = `
SELECT id, file_name, content, created_at, updated_at
FROM job_offers
WHERE id = $1`
	var o JobOffer
	err := r.DB.QueryRowContext(ctx, r.q(query), id).Scan(&o.ID, &o.FileName, &o.Content, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return JobOffer{}, ErrNotFound
		}
		return JobOffer{}, err
	}
	return o, nil
}

// ListJobOffers returns job offers newest first, honoring limit/offset.
func (r *SQLRepo) ListJobOffers(ctx context.Context, limit, offset int) ([]JobOffer, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, file_name, content, created_at, updated_at
FROM job_offers
ORDER BY created_at DESC, id ASC
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, r.q(query), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]JobOffer, 0)
	for rows.Next() {
		var o JobOffer
		if err := rows.Scan(&o.ID, &o.FileName, &o.Content, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *SQLRepo) UpdateJobOffer(ctx context.Context, o JobOffer) error {
	const query = `
UPDATE job_offers
SET file_name = $1, content = $2, updated_at = $3
WHERE id = $4`
	result, err := r.DB.ExecContext(ctx, r.q(query), o.FileName, o.Content, o.UpdatedAt, o.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return expectAffected(result)
}

func (r *SQLRepo) DeleteJobOffer(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, r.q(`DELETE FROM job_offers WHERE id = $1`), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*SQLRepo)(nil)

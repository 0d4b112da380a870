package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-match/internal/shared/storage/db"
	"resume-match/internal/shared/telemetry"
)

// SQLRepo implements Store on Postgres or SQLite. Pair uniqueness is enforced by
// the scores_resume_job_offer_key constraint, not by application locking.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
	Now     func() time.Time
}

const scoreColumns = `id, resume_id, job_offer_id, score, reason, model, created_at, updated_at`

func (r *SQLRepo) q(query string) string {
	return r.Dialect.Rebind(query)
}

func (r *SQLRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Upsert updates the pair in place if present, else inserts it. An insert that
// loses a create-create race hits the unique constraint and is retried once as an update.
func (r *SQLRepo) Upsert(ctx context.Context, in UpsertInput) (Score, error) {
	now := r.now()

	updated, err := r.update(ctx, in, now)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Score{}, err
	}

	created, err := r.insert(ctx, in, now)
	if err == nil {
		return created, nil
	}
	if db.IsForeignKeyViolation(err) {
		return Score{}, ErrMissingReference
	}
	if !db.IsUniqueViolation(err) {
		return Score{}, err
	}

	telemetry.Info("score.upsert_race", map[string]any{
		"resume_id":    in.ResumeID,
		"job_offer_id": in.JobOfferID,
	})
	updated, err = r.update(ctx, in, now)
	if err == nil {
		return updated, nil
	}
	return Score{}, fmt.Errorf("%w: %v", ErrDuplicateScore, err)
}

func (r *SQLRepo) update(ctx context.Context, in UpsertInput, now time.Time) (Score, error) {
	const query = `
UPDATE scores
SET score = $1, reason = $2, model = $3, updated_at = $4
WHERE resume_id = $5 AND job_offer_id = $6`
	result, err := r.DB.ExecContext(ctx, r.q(query), in.Score, in.Reason, in.Model, now, in.ResumeID, in.JobOfferID)
	if err != nil {
		return Score{}, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return Score{}, err
	}
	if n == 0 {
		return Score{}, ErrNotFound
	}
	return r.Get(ctx, in.ResumeID, in.JobOfferID)
}

func (r *SQLRepo) insert(ctx context.Context, in UpsertInput, now time.Time) (Score, error) {
	const query = `
INSERT INTO scores (id, resume_id, job_offer_id, score, reason, model, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	s := Score{
		ID:         uuid.NewString(),
		ResumeID:   in.ResumeID,
		JobOfferID: in.JobOfferID,
		Score:      in.Score,
		Reason:     in.Reason,
		Model:      in.Model,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := r.DB.ExecContext(ctx, r.q(query), s.ID, s.ResumeID, s.JobOfferID, s.Score, s.Reason, s.Model, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return Score{}, err
	}
	return s, nil
}

func (r *SQLRepo) Get(ctx context.Context, resumeID, jobOfferID string) (Score, error) {
	query := `SELECT ` + scoreColumns + ` FROM scores WHERE resume_id = $1 AND job_offer_id = $2`
	return scanScore(r.DB.QueryRowContext(ctx, r.q(query), resumeID, jobOfferID))
}

func (r *SQLRepo) GetByID(ctx context.Context, id string) (Score, error) {
	query := `SELECT ` + scoreColumns + ` FROM scores WHERE id = $1`
	return scanScore(r.DB.QueryRowContext(ctx, r.q(query), id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScore(row rowScanner) (Score, error) {
	var s Score
	err := row.Scan(&s.ID, &s.ResumeID, &s.JobOfferID, &s.Score, &s.Reason, &s.Model, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Score{}, ErrNotFound
		}
		return Score{}, err
	}
	return s, nil
}

// List returns matching scores, highest score first.
func (r *SQLRepo) List(ctx context.Context, f Filter) ([]Score, error) {
	var (
		where []string
		args  []any
	)
	if f.ResumeID != "" {
		args = append(args, f.ResumeID)
		where = append(where, fmt.Sprintf("resume_id = $%d", len(args)))
	}
	if f.JobOfferID != "" {
		args = append(args, f.JobOfferID)
		where = append(where, fmt.Sprintf("job_offer_id = $%d", len(args)))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + scoreColumns + ` FROM scores`)
	if len(where) > 0 {
		b.WriteString(` WHERE ` + strings.Join(where, " AND "))
	}
	args = append(args, limit, offset)
	fmt.Fprintf(&b, ` ORDER BY score DESC, id ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, r.q(b.String()), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Score, 0)
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, r.q(`DELETE FROM scores WHERE id = $1`), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepo) DeleteByResume(ctx context.Context, resumeID string) error {
	_, err := r.DB.ExecContext(ctx, r.q(`DELETE FROM scores WHERE resume_id = $1`), resumeID)
	return err
}

func (r *SQLRepo) DeleteByJobOffer(ctx context.Context, jobOfferID string) error {
	_, err := r.DB.ExecContext(ctx, r.q(`DELETE FROM scores WHERE job_offer_id = $1`), jobOfferID)
	return err
}

var _ Store = (*SQLRepo)(nil)

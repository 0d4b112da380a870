package scores

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type pairKey struct {
	resumeID   string
	jobOfferID string
}

// ReferenceCheck reports whether both documents of a pair still exist.
type ReferenceCheck func(ctx context.Context, resumeID, jobOfferID string) (bool, error)

// MemoryRepo is an in-memory Store. The pair index is guarded by the same lock as the rows.
//
// When References is set, Upsert rejects pairs it reports missing with
// ErrMissingReference, matching the foreign keys of the SQL store. The check
// runs under the write lock so a concurrent cascade delete cannot leave an
// orphan behind.
type MemoryRepo struct {
	References ReferenceCheck

	mu     sync.RWMutex
	byID   map[string]Score
	byPair map[pairKey]string // pair -> score id
	now    func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Score),
		byPair: make(map[pairKey]string),
		now:    time.Now,
	}
}

func (r *MemoryRepo) Upsert(ctx context.Context, in UpsertInput) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	now := r.now().UTC()
	key := pairKey{in.ResumeID, in.JobOfferID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.References != nil {
		ok, err := r.References(ctx, in.ResumeID, in.JobOfferID)
		if err != nil {
			return Score{}, fmt.Errorf("check references: %w", err)
		}
		if !ok {
			return Score{}, ErrMissingReference
		}
	}
	if id, ok := r.byPair[key]; ok {
		s := r.byID[id]
		s.Score = in.Score
		s.Reason = in.Reason
		s.Model = in.Model
		s.UpdatedAt = now
		r.byID[id] = s
		return s, nil
	}
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
	r.byID[s.ID] = s
	r.byPair[key] = s.ID
	return s, nil
}

func (r *MemoryRepo) Get(ctx context.Context, resumeID, jobOfferID string) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[pairKey{resumeID, jobOfferID}]
	if !ok {
		return Score{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return Score{}, ErrNotFound
	}
	return s, nil
}

// List returns matching scores, highest score first.
func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Score, 0, len(r.byID))
	for _, s := range r.byID {
		if f.ResumeID != "" && s.ResumeID != f.ResumeID {
			continue
		}
		if f.JobOfferID != "" && s.JobOfferID != f.JobOfferID {
			continue
		}
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Score{}, nil
	}
	end := len(out)
	if f.Limit > 0 && offset+f.Limit < end {
		end = offset + f.Limit
	}
	return out[offset:end], nil
}

func (r *MemoryRepo) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byPair, pairKey{s.ResumeID, s.JobOfferID})
	return nil
}

func (r *MemoryRepo) DeleteByResume(ctx context.Context, resumeID string) error {
	return r.deleteWhere(ctx, func(s Score) bool { return s.ResumeID == resumeID })
}

func (r *MemoryRepo) DeleteByJobOffer(ctx context.Context, jobOfferID string) error {
	return r.deleteWhere(ctx, func(s Score) bool { return s.JobOfferID == jobOfferID })
}

func (r *MemoryRepo) deleteWhere(ctx context.Context, match func(Score) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.byID {
		if match(s) {
			delete(r.byID, id)
			delete(r.byPair, pairKey{s.ResumeID, s.JobOfferID})
		}
	}
	return nil
}

var _ Store = (*MemoryRepo)(nil)

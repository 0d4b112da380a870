package content

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu        sync.RWMutex
	resumes   map[string]Resume   // id -> resume
	jobOffers map[string]JobOffer // id -> job offer
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		resumes:   make(map[string]Resume),
		jobOffers: make(map[string]JobOffer),
	}
}

func (r *MemoryRepo) CreateResume(ctx context.Context, res Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resumes[res.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.resumes {
		if existing.UserID == res.UserID {
			return ErrConflict
		}
	}
	r.resumes[res.ID] = res
	return nil
}

func (r *MemoryRepo) GetResume(ctx context.Context, id string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resumes[id]
	if !ok {
		return Resume{}, ErrNotFound
	}
	return res, nil
}

func (r *MemoryRepo) GetResumeByUser(ctx context.Context, userID string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.resumes {
		if res.UserID == userID {
			return res, nil
		}
	}
	return Resume{}, ErrNotFound
}

func (r *MemoryRepo) UpdateResume(ctx context.Context, res Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.resumes[res.ID]
	if !ok {
		return ErrNotFound
	}
	existing.FileName = res.FileName
	existing.Content = res.Content
	existing.UpdatedAt = res.UpdatedAt
	r.resumes[res.ID] = existing
	return nil
}

func (r *MemoryRepo) DeleteResume(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resumes[id]; !ok {
		return ErrNotFound
	}
	delete(r.resumes, id)
	return nil
}

func (r *MemoryRepo) CreateJobOffer(ctx context.Context, o JobOffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobOffers[o.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.jobOffers {
		if existing.FileName == o.FileName {
			return ErrConflict
		}
	}
	r.jobOffers[o.ID] = o
	return nil
}

func (r *MemoryRepo) GetJobOffer(ctx context.Context, id string) (JobOffer, error) {
	if err := ctx.Err(); err != nil {
		return JobOffer{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.jobOffers[id]
	if !ok {
		return JobOffer{}, ErrNotFound
	}
	return o, nil
}

// ListJobOffers returns job offers newest first, honoring limit/offset.
func (r *MemoryRepo) ListJobOffers(ctx context.Context, limit, offset int) ([]JobOffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	offers := make([]JobOffer, 0, len(r.jobOffers))
	for _, o := range r.jobOffers {
		offers = append(offers, o)
	}
	r.mu.RUnlock()

	sort.Slice(offers, func(i, j int) bool {
		if offers[i].CreatedAt.Equal(offers[j].CreatedAt) {
			return offers[i].ID < offers[j].ID
		}
		return offers[i].CreatedAt.After(offers[j].CreatedAt)
	})
	if offset >= len(offers) {
		return []JobOffer{}, nil
	}
	end := len(offers)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return offers[offset:end], nil
}

func (r *MemoryRepo) UpdateJobOffer(ctx context.Context, o JobOffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.jobOffers[o.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range r.jobOffers {
		if id != o.ID && other.FileName == o.FileName {
			return ErrConflict
		}
	}
	existing.FileName = o.FileName
	existing.Content = o.Content
	existing.UpdatedAt = o.UpdatedAt
	r.jobOffers[o.ID] = existing
	return nil
}

func (r *MemoryRepo) DeleteJobOffer(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobOffers[id]; !ok {
		return ErrNotFound
	}
	delete(r.jobOffers, id)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)

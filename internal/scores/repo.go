package scores

import "context"

// Store persists at most one score per (resume, job offer) pair.
type Store interface {
	// Upsert overwrites the pair's score in place, or creates it when absent.
	Upsert(ctx context.Context, in UpsertInput) (Score, error)
	Get(ctx context.Context, resumeID, jobOfferID string) (Score, error)
	GetByID(ctx context.Context, id string) (Score, error)
	List(ctx context.Context, f Filter) ([]Score, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByResume(ctx context.Context, resumeID string) error
	DeleteByJobOffer(ctx context.Context, jobOfferID string) error
}

package content

import (
	"context"
	"errors"
)

// Repo defines persistence operations for resumes and job offers.
type Repo interface {
	CreateResume(ctx context.Context, r Resume) error
	GetResume(ctx context.Context, id string) (Resume, error)
	GetResumeByUser(ctx context.Context, userID string) (Resume, error)
	UpdateResume(ctx context.Context, r Resume) error
	DeleteResume(ctx context.Context, id string) error

	CreateJobOffer(ctx context.Context, o JobOffer) error
	GetJobOffer(ctx context.Context, id string) (JobOffer, error)
	ListJobOffers(ctx context.Context, limit, offset int) ([]JobOffer, error)
	UpdateJobOffer(ctx context.Context, o JobOffer) error
	DeleteJobOffer(ctx context.Context, id string) error
}

// PairExists returns a check reporting whether both the resume and the job
// offer are present in repo.
func PairExists(repo Repo) func(ctx context.Context, resumeID, jobOfferID string) (bool, error) {
	return func(ctx context.Context, resumeID, jobOfferID string) (bool, error) {
		if _, err := repo.GetResume(ctx, resumeID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		if _, err := repo.GetJobOffer(ctx, jobOfferID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}
}

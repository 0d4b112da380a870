package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-match/internal/shared/telemetry"
	"resume-match/internal/shared/util"
)

// ScoreCleaner removes scores that reference a deleted resume or job offer.
type ScoreCleaner interface {
	DeleteByResume(ctx context.Context, resumeID string) error
	DeleteByJobOffer(ctx context.Context, jobOfferID string) error
}

// Service contains business logic for resumes and job offers.
type Service struct {
	Repo   Repo
	Scores ScoreCleaner
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validate(fileName, text string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("%w: fileName: %v", ErrInvalidInput, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return name, nil
}

// CreateResume stores the user's resume. A user may hold only one.
func (s *Service) CreateResume(ctx context.Context, userID, fileName, text string) (Resume, error) {
	if strings.TrimSpace(userID) == "" {
		return Resume{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	name, err := validate(fileName, text)
	if err != nil {
		return Resume{}, err
	}
	now := s.now()
	res := Resume{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileName:  name,
		Content:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.CreateResume(ctx, res); err != nil {
		return Resume{}, err
	}
	telemetry.Info("resume.created", map[string]any{"resume_id": res.ID, "user_id": userID, "chars": len(text)})
	return res, nil
}

// CurrentResume returns the resume owned by userID.
func (s *Service) CurrentResume(ctx context.Context, userID string) (Resume, error) {
	if strings.TrimSpace(userID) == "" {
		return Resume{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	return s.Repo.GetResumeByUser(ctx, userID)
}

// GetResume returns a resume owned by userID. Resumes of other users are reported as not found.
func (s *Service) GetResume(ctx context.Context, userID, id string) (Resume, error) {
	res, err := s.Repo.GetResume(ctx, id)
	if err != nil {
		return Resume{}, err
	}
	if res.UserID != userID {
		return Resume{}, ErrNotFound
	}
	return res, nil
}

func (s *Service) UpdateResume(ctx context.Context, userID, id, fileName, text string) (Resume, error) {
	name, err := validate(fileName, text)
	if err != nil {
		return Resume{}, err
	}
	res, err := s.GetResume(ctx, userID, id)
	if err != nil {
		return Resume{}, err
	}
	res.FileName = name
	res.Content = text
	res.UpdatedAt = s.now()
	if err := s.Repo.UpdateResume(ctx, res); err != nil {
		return Resume{}, err
	}
	return res, nil
}

// DeleteResume removes the resume together with every score computed for it.
func (s *Service) DeleteResume(ctx context.Context, userID, id string) error {
	if _, err := s.GetResume(ctx, userID, id); err != nil {
		return err
	}
	if s.Scores != nil {
		if err := s.Scores.DeleteByResume(ctx, id); err != nil {
			return fmt.Errorf("delete scores for resume: %w", err)
		}
	}
	if err := s.Repo.DeleteResume(ctx, id); err != nil {
		return err
	}
	s.sweepScores(ctx, "resume_id", id, s.deleteResumeScores)
	telemetry.Info("resume.deleted", map[string]any{"resume_id": id, "user_id": userID})
	return nil
}

// ResumeText returns the text of a resume regardless of owner.
func (s *Service) ResumeText(ctx context.Context, id string) (string, error) {
	res, err := s.Repo.GetResume(ctx, id)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

func (s *Service) CreateJobOffer(ctx context.Context, fileName, text string) (JobOffer, error) {
	name, err := validate(fileName, text)
	if err != nil {
		return JobOffer{}, err
	}
	now := s.now()
	offer := JobOffer{
		ID:        uuid.NewString(),
		FileName:  name,
		Content:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.CreateJobOffer(ctx, offer); err != nil {
		return JobOffer{}, err
	}
	telemetry.Info("job_offer.created", map[string]any{"job_offer_id": offer.ID, "chars": len(text)})
	return offer, nil
}

func (s *Service) GetJobOffer(ctx context.Context, id string) (JobOffer, error) {
	return s.Repo.GetJobOffer(ctx, id)
}

func (s *Service) ListJobOffers(ctx context.Context, limit, offset int) ([]JobOffer, error) {
	return s.Repo.ListJobOffers(ctx, limit, offset)
}

func (s *Service) UpdateJobOffer(ctx context.Context, id, fileName, text string) (JobOffer, error) {
	name, err := validate(fileName, text)
	if err != nil {
		return JobOffer{}, err
	}
	offer, err := s.Repo.GetJobOffer(ctx, id)
	if err != nil {
		return JobOffer{}, err
	}
	offer.FileName = name
	offer.Content = text
	offer.UpdatedAt = s.now()
	if err := s.Repo.UpdateJobOffer(ctx, offer); err != nil {
		return JobOffer{}, err
	}
	return offer, nil
}

// DeleteJobOffer removes the job offer together with every score computed for it.
func (s *Service) DeleteJobOffer(ctx context.Context, id string) error {
	if _, err := s.Repo.GetJobOffer(ctx, id); err != nil {
		return err
	}
	if s.Scores != nil {
		if err := s.Scores.DeleteByJobOffer(ctx, id); err != nil {
			return fmt.Errorf("delete scores for job offer: %w", err)
		}
	}
	if err := s.Repo.DeleteJobOffer(ctx, id); err != nil {
		return err
	}
	s.sweepScores(ctx, "job_offer_id", id, s.deleteJobOfferScores)
	telemetry.Info("job_offer.deleted", map[string]any{"job_offer_id": id})
	return nil
}

// JobOfferText returns the text of a job offer.
func (s *Service) JobOfferText(ctx context.Context, id string) (string, error) {
	offer, err := s.Repo.GetJobOffer(ctx, id)
	if err != nil {
		return "", err
	}
	return offer.Content, nil
}

func (s *Service) deleteResumeScores(ctx context.Context, id string) error {
	return s.Scores.DeleteByResume(ctx, id)
}

func (s *Service) deleteJobOfferScores(ctx context.Context, id string) error {
	return s.Scores.DeleteByJobOffer(ctx, id)
}

// sweepScores removes scores written by evaluations that finished between the
// first cleanup and the document delete. The document is already gone, so a
// failure here is only logged.
func (s *Service) sweepScores(ctx context.Context, field, id string, del func(context.Context, string) error) {
	if s.Scores == nil {
		return
	}
	if err := del(ctx, id); err != nil {
		telemetry.Warn("content.score_sweep_failed", map[string]any{field: id, "error": err.Error()})
	}
}

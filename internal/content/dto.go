package content

import "time"

// ResumeResponse is the outward-facing representation of a resume.
type ResumeResponse struct {
	ResumeID  string    `json:"resumeId"`
	UserID    string    `json:"userId"`
	FileName  string    `json:"fileName"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// JobOfferResponse is the outward-facing representation of a job offer.
type JobOfferResponse struct {
	JobOfferID string    `json:"jobOfferId"`
	FileName   string    `json:"fileName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type contentRequest struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

func toResumeResponse(r Resume) ResumeResponse {
	return ResumeResponse{
		ResumeID:  r.ID,
		UserID:    r.UserID,
		FileName:  r.FileName,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toJobOfferResponse(o JobOffer) JobOfferResponse {
	return JobOfferResponse{
		JobOfferID: o.ID,
		FileName:   o.FileName,
		Content:    o.Content,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

package scores

import "time"

// Score is the current evaluation of one (resume, job offer) pair.
type Score struct {
	ID         string
	ResumeID   string
	JobOfferID string
	Score      int
	Reason     string
	Model      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UpsertInput carries a freshly computed evaluation for a pair.
type UpsertInput struct {
	ResumeID   string
	JobOfferID string
	Score      int
	Reason     string
	Model      string
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	ResumeID   string
	JobOfferID string
	Limit      int
	Offset     int
}

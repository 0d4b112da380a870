package content

import "time"

// Resume is a candidate's resume stored as plain text. A user owns at most one.
type Resume struct {
	ID        string
	UserID    string
	FileName  string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobOffer is a job posting stored as plain text, unique by file name.
type JobOffer struct {
	ID        string
	FileName  string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

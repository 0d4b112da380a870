package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Status is the health payload.
type Status struct {
	OK    bool   `json:"ok"`
	Store string `json:"store"`
	Error string `json:"error,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB    Pinger // nil for the in-memory store
	Store string
}

// NewService constructs a new health service.
func NewService(db Pinger, store string) *Service {
	return &Service{DB: db, Store: store}
}

// Status reports whether the backing store is reachable.
func (s *Service) Status(ctx context.Context) Status {
	if s.DB == nil {
		return Status{OK: true, Store: s.Store}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		return Status{OK: false, Store: s.Store, Error: "database unreachable"}
	}
	return Status{OK: true, Store: s.Store}
}

// Package archive defines core types shared across the archiving pipeline.
package archive

import (
	"context"
	"time"
)

// ServiceResult records the outcome of submitting one URL to one service.
type ServiceResult struct {
	Success     bool      `json:"success"`
	ArchivedURL string    `json:"archived_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastAttempt time.Time `json:"last_attempt"`
}

// Record is persisted for every URL that has ever been submitted.
// FirstSeen is set once at creation and never updated; Files only grows.
type Record struct {
	OriginalURL string                   `json:"original_url"`
	FirstSeen   time.Time                `json:"first_seen"`
	Files       []string                 `json:"files"`
	Services    map[string]ServiceResult `json:"services"`
}

// Service submits a single URL to one archiving backend.
type Service interface {
	Name() string
	Submit(ctx context.Context, url string) (archivedURL string, err error)
}

// Clock abstracts time.Now so tests can inject fixed timestamps.
type Clock interface {
	Now() time.Time
}

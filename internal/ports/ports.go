package ports

import (
	"context"
	"time"

	"ContentGenesis/internal/domain"
)

// Provider is a single cloud generation tier (Gemini, OpenAI-compatible, etc.).
type Provider interface {
	Name() string
	Attempt(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResponse, error)
}

// ResultStore persists finished results for deduplication across runs.
type ResultStore interface {
	Has(ctx context.Context, itemID string) (bool, error)
	Get(ctx context.Context, itemID string) (domain.GenerationResult, bool, error)
	Set(ctx context.Context, result domain.GenerationResult) error
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Scheduler controls when sweeps are triggered.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

package domain

import "time"

// ContentItem is one leaf of the curriculum that Genesis generates material for.
type ContentItem struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	KeyPoints   []string `json:"keyPoints" yaml:"keyPoints"`
}

// ProviderTag names the tier that produced a result.
type ProviderTag string

const (
	ProviderA     ProviderTag = "A"
	ProviderB     ProviderTag = "B"
	ProviderLocal ProviderTag = "LOCAL"
)

// GenerationResult is the finished material for a single item. Append-only.
type GenerationResult struct {
	ItemID       string      `json:"itemId"`
	Content      string      `json:"content"`
	Sources      []string    `json:"sources"`
	ProviderUsed ProviderTag `json:"providerUsed"`
	GeneratedAt  time.Time   `json:"generatedAt"`
}

// GenerationRequest is what a cloud tier receives.
type GenerationRequest struct {
	Prompt           string
	GroundingEnabled bool
}

// GenerationResponse is what a cloud tier returns on success.
type GenerationResponse struct {
	Text    string
	Sources []string
}

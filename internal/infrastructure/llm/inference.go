package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"ContentGenesis/internal/config"
	"ContentGenesis/internal/domain"
	"ContentGenesis/internal/ports"
)

// InferenceProvider talks to a self-hosted inference service exposing
// POST {endpoint}/generate.
type InferenceProvider struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
}

var _ ports.Provider = (*InferenceProvider)(nil)

// NewInferenceProvider creates a reusable HTTP client.
func NewInferenceProvider(cfg config.ProviderConfig) *InferenceProvider {
	return &InferenceProvider{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{},
		limiter:  newLimiter(cfg.RequestsPerMinute),
	}
}

func (p *InferenceProvider) Name() string {
	return "inference"
}

// Attempt posts the prompt and expects {"text": ..., "sources": [...]}.
// The API key is optional for local deployments.
func (p *InferenceProvider) Attempt(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResponse, error) {
	if p.endpoint == "" {
		return domain.GenerationResponse{}, notConfigured(p.Name())
	}

	body, err := json.Marshal(map[string]any{
		"prompt":    req.Prompt,
		"grounding": req.GroundingEnabled,
	})
	if err != nil {
		return domain.GenerationResponse{}, fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/generate", bytes.NewReader(body))
	if err != nil {
		return domain.GenerationResponse{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	raw, err := send(ctx, p.Name(), p.http, p.limiter, httpReq)
	if err != nil {
		return domain.GenerationResponse{}, err
	}

	var resp struct {
		Text    string   `json:"text"`
		Sources []string `json:"sources"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.GenerationResponse{}, malformed(p.Name(), fmt.Errorf("decode response: %w", err))
	}

	return domain.GenerationResponse{Text: resp.Text, Sources: resp.Sources}, nil
}

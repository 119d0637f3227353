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

// ChatGPTProvider implements ports.Provider backed by OpenAI-compatible chat completions.
type ChatGPTProvider struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

var _ ports.Provider = (*ChatGPTProvider)(nil)

// NewChatGPTProvider builds a provider from configuration.
func NewChatGPTProvider(cfg config.ProviderConfig) *ChatGPTProvider {
	return &ChatGPTProvider{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{},
		limiter:      newLimiter(cfg.RequestsPerMinute),
	}
}

func (c *ChatGPTProvider) Name() string {
	return "openai/" + c.model
}

// Attempt sends the prompt as a user message. Grounding is not supported by
// this backend and is ignored.
func (c *ChatGPTProvider) Attempt(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResponse, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.GenerationResponse{}, notConfigured(c.Name())
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": req.Prompt},
		},
	})
	if err != nil {
		return domain.GenerationResponse{}, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.GenerationResponse{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	raw, err := send(ctx, c.Name(), c.httpClient, c.limiter, httpReq)
	if err != nil {
		return domain.GenerationResponse{}, err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.GenerationResponse{}, malformed(c.Name(), fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return domain.GenerationResponse{}, malformed(c.Name(), fmt.Errorf("no choices"))
	}

	return domain.GenerationResponse{Text: parsed.Choices[0].Message.Content}, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You write clear, accurate lesson material for an education portal."
	}
	return prompt
}

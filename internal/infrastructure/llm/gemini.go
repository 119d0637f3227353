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

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider calls the Gemini generateContent API, optionally with
// Google Search grounding.
type GeminiProvider struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ports.Provider = (*GeminiProvider)(nil)

// NewGeminiProvider builds a provider from configuration.
func NewGeminiProvider(cfg config.ProviderConfig) *GeminiProvider {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiProvider{
		endpoint:   endpoint,
		model:      model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
		limiter:    newLimiter(cfg.RequestsPerMinute),
	}
}

func (g *GeminiProvider) Name() string {
	return "gemini/" + g.model
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason      string `json:"finishReason"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Web struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// Attempt performs one generateContent call. The per-attempt deadline comes from ctx.
func (g *GeminiProvider) Attempt(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResponse, error) {
	if g.apiKey == "" {
		return domain.GenerationResponse{}, notConfigured(g.Name())
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]string{{"text": req.Prompt}}},
		},
	}
	if req.GroundingEnabled {
		body["tools"] = []map[string]any{{"google_search": map[string]any{}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.GenerationResponse{}, fmt.Errorf("marshal gemini payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return domain.GenerationResponse{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	raw, err := send(ctx, g.Name(), g.httpClient, g.limiter, httpReq)
	if err != nil {
		return domain.GenerationResponse{}, err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.GenerationResponse{}, malformed(g.Name(), fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Candidates) == 0 {
		return domain.GenerationResponse{}, malformed(g.Name(), fmt.Errorf("no candidates"))
	}

	candidate := parsed.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	var sources []string
	for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
		if chunk.Web.URI != "" {
			sources = append(sources, chunk.Web.URI)
		}
	}

	return domain.GenerationResponse{Text: text.String(), Sources: sources}, nil
}

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentGenesis/internal/config"
	"ContentGenesis/internal/domain"
	"ContentGenesis/internal/generation"
)

func providerKind(t *testing.T, err error) domain.ProviderErrorKind {
	t.Helper()
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	return perr.Kind
}

func TestGeminiAttemptWithGrounding(t *testing.T) {
	t.Parallel()

	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Part one. "},{"text":"Part two."}]},
			"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://src/1","title":"one"}},{"web":{"uri":""}}]}}]}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(config.ProviderConfig{Endpoint: server.URL, Model: "flash", APIKey: "g-key"})
	resp, err := p.Attempt(context.Background(), domain.GenerationRequest{Prompt: "teach", GroundingEnabled: true})
	require.NoError(t, err)

	assert.Equal(t, "Part one. Part two.", resp.Text)
	assert.Equal(t, []string{"https://src/1"}, resp.Sources)
	assert.Contains(t, body, "tools")
	assert.Equal(t, "gemini/flash", p.Name())
}

func TestGeminiStatusClassification(t *testing.T) {
	t.Parallel()

	cases := map[int]domain.ProviderErrorKind{
		http.StatusUnauthorized:        domain.KindAuth,
		http.StatusForbidden:           domain.KindAuth,
		http.StatusTooManyRequests:     domain.KindRateLimit,
		http.StatusBadGateway:          domain.KindNetwork,
		http.StatusUnprocessableEntity: domain.KindMalformed,
	}
	for status, want := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		}))
		p := NewGeminiProvider(config.ProviderConfig{Endpoint: server.URL, APIKey: "k"})
		_, err := p.Attempt(context.Background(), domain.GenerationRequest{Prompt: "x"})
		assert.Equal(t, want, providerKind(t, err), "status %d", status)
		server.Close()
	}
}

func TestGeminiMalformedAndMissingKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(config.ProviderConfig{Endpoint: server.URL, APIKey: "k"})
	_, err := p.Attempt(context.Background(), domain.GenerationRequest{Prompt: "x"})
	assert.Equal(t, domain.KindMalformed, providerKind(t, err))

	unset := NewGeminiProvider(config.ProviderConfig{Endpoint: server.URL})
	_, err = unset.Attempt(context.Background(), domain.GenerationRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestChatGPTAttempt(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer o-key", r.Header.Get("Authorization"))
		var req struct {
			Model    string              `json:"model"`
			Messages []map[string]string `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mini", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "teach tcp", req.Messages[1]["content"])
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"TCP lesson"}}]}`))
	}))
	defer server.Close()

	p := NewChatGPTProvider(config.ProviderConfig{Endpoint: server.URL, Model: "mini", APIKey: "o-key"})
	resp, err := p.Attempt(context.Background(), domain.GenerationRequest{Prompt: "teach tcp"})
	require.NoError(t, err)
	assert.Equal(t, "TCP lesson", resp.Text)
	assert.Empty(t, resp.Sources)
}

func TestChatGPTTimeoutAndNetwork(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	p := NewChatGPTProvider(config.ProviderConfig{Endpoint: server.URL, Model: "m", APIKey: "k"})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := p.Attempt(ctx, domain.GenerationRequest{Prompt: "x"})
	assert.Equal(t, domain.KindTimeout, providerKind(t, err))

	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := closed.URL
	closed.Close()
	p = NewChatGPTProvider(config.ProviderConfig{Endpoint: url, Model: "m", APIKey: "k"})
	_, err = p.Attempt(context.Background(), domain.GenerationRequest{Prompt: "x"})
	assert.Equal(t, domain.KindNetwork, providerKind(t, err))
}

func TestInferenceAttempt(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"text":"local model text","sources":["https://doc"]}`))
	}))
	defer server.Close()

	p := NewInferenceProvider(config.ProviderConfig{Endpoint: server.URL + "/"})
	resp, err := p.Attempt(context.Background(), domain.GenerationRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "local model text", resp.Text)
	assert.Equal(t, []string{"https://doc"}, resp.Sources)

	_, err = NewInferenceProvider(config.ProviderConfig{}).Attempt(context.Background(), domain.GenerationRequest{})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestLimiterSpacesRequests(t *testing.T) {
	t.Parallel()

	lim := newLimiter(600) // one token every 100ms
	ctx := context.Background()
	start := time.Now()
	require.NoError(t, lim.Wait(ctx))
	require.NoError(t, lim.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	assert.True(t, newLimiter(0).Allow())
}

func TestRegisterInstallsKinds(t *testing.T) {
	t.Parallel()

	reg := generation.NewRegistry()
	Register(reg)

	for _, kind := range []string{"gemini", "openai", "inference"} {
		factory, err := reg.Resolve(kind)
		require.NoError(t, err, kind)
		provider, err := factory(config.ProviderConfig{Model: "m"})
		require.NoError(t, err)
		assert.NotEmpty(t, provider.Name())
	}
}

package generation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentGenesis/internal/config"
	"ContentGenesis/internal/domain"
	"ContentGenesis/internal/ports"
)

func TestBuildTiersResolvesKindsInOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("gemini", func(cfg config.ProviderConfig) (ports.Provider, error) {
		return &stubProvider{name: "gemini/" + cfg.Model}, nil
	})
	reg.Register("openai", func(cfg config.ProviderConfig) (ports.Provider, error) {
		return &stubProvider{name: "openai/" + cfg.Model}, nil
	})

	tiers, err := BuildTiers(reg, config.ProvidersConfig{
		Primary:   config.ProviderConfig{Kind: "gemini", Model: "flash", Timeout: time.Second},
		Secondary: config.ProviderConfig{Kind: "openai", Model: "mini"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, tiers, 2)

	assert.Equal(t, domain.ProviderA, tiers[0].Tag)
	assert.Equal(t, "gemini/flash", tiers[0].Provider.Name())
	assert.Equal(t, time.Second, tiers[0].Timeout)
	assert.Equal(t, domain.ProviderB, tiers[1].Tag)
	assert.Equal(t, "openai/mini", tiers[1].Provider.Name())
}

func TestBuildTiersErrors(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	_, err := BuildTiers(reg, config.ProvidersConfig{Primary: config.ProviderConfig{Kind: "nope"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")

	reg.Register("bad", func(config.ProviderConfig) (ports.Provider, error) { return nil, errors.New("boom") })
	_, err = BuildTiers(reg, config.ProvidersConfig{Primary: config.ProviderConfig{Kind: "bad"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBuildPromptMentionsKeyPoints(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(item)
	assert.Contains(t, prompt, `"TCP"`)
	assert.Contains(t, prompt, "Reliable transport")
	assert.Contains(t, prompt, "- Handshake")
	assert.Contains(t, prompt, "- Windows")
}

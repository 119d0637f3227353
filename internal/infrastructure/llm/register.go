package llm

import (
	"ContentGenesis/internal/config"
	"ContentGenesis/internal/generation"
	"ContentGenesis/internal/ports"
)

// Register installs every cloud provider kind this package implements.
func Register(reg *generation.Registry) {
	reg.Register("gemini", func(cfg config.ProviderConfig) (ports.Provider, error) {
		return NewGeminiProvider(cfg), nil
	})
	reg.Register("openai", func(cfg config.ProviderConfig) (ports.Provider, error) {
		return NewChatGPTProvider(cfg), nil
	})
	reg.Register("inference", func(cfg config.ProviderConfig) (ports.Provider, error) {
		return NewInferenceProvider(cfg), nil
	})
}

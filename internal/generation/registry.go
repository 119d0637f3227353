package generation

import (
	"fmt"
	"log/slog"

	"ContentGenesis/internal/config"
	"ContentGenesis/internal/domain"
	"ContentGenesis/internal/ports"
)

// Factory builds a provider from its configuration block.
type Factory func(cfg config.ProviderConfig) (ports.Provider, error)

// Registry keeps a mapping from provider kinds to their constructors.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[kind] = factory
}

// Resolve returns the factory for kind or an error if it is absent.
func (r *Registry) Resolve(kind string) (Factory, error) {
	if factory, ok := r.factories[kind]; ok {
		return factory, nil
	}
	return nil, fmt.Errorf("provider kind %q is not registered", kind)
}

// BuildTiers resolves the primary and secondary providers into tiers A and B.
// A tier without credentials is still built; it fails fast at attempt time so
// the fallback chain and its logs stay the same shape.
func BuildTiers(reg *Registry, cfg config.ProvidersConfig, log *slog.Logger) ([]Tier, error) {
	specs := []struct {
		tag domain.ProviderTag
		cfg config.ProviderConfig
	}{
		{domain.ProviderA, cfg.Primary},
		{domain.ProviderB, cfg.Secondary},
	}

	tiers := make([]Tier, 0, len(specs))
	for _, spec := range specs {
		factory, err := reg.Resolve(spec.cfg.Kind)
		if err != nil {
			return nil, fmt.Errorf("tier %s: %w", spec.tag, err)
		}
		provider, err := factory(spec.cfg)
		if err != nil {
			return nil, fmt.Errorf("tier %s: build %s: %w", spec.tag, spec.cfg.Kind, err)
		}
		if log != nil {
			log.Debug("tier ready", "tier", spec.tag, "provider", provider.Name(),
				"timeout", spec.cfg.Timeout, "credentials", spec.cfg.APIKey != "")
		}
		tiers = append(tiers, Tier{Tag: spec.tag, Provider: provider, Timeout: spec.cfg.Timeout})
	}
	return tiers, nil
}

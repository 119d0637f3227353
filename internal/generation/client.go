// Package generation implements the tiered generation client: two cloud
// tiers tried in order, then a local template that always succeeds.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ContentGenesis/internal/domain"
	"ContentGenesis/internal/ports"
)

// DefaultTimeout bounds a single tier attempt when the tier sets none.
const DefaultTimeout = 45 * time.Second

// Tier binds a cloud provider to its position in the fallback chain.
type Tier struct {
	Tag      domain.ProviderTag
	Provider ports.Provider
	Timeout  time.Duration
}

// Attempt describes one tier invocation. Err is nil for the winning tier.
type Attempt struct {
	ItemID   string
	Tag      domain.ProviderTag
	Provider string
	Err      error
	Duration time.Duration
}

// Succeeded reports whether this attempt produced the result.
func (a Attempt) Succeeded() bool {
	return a.Err == nil
}

// Observer receives every attempt as it finishes.
type Observer func(Attempt)

// Normalizer cleans provider text and returns any extra source links found in it.
type Normalizer func(text string) (string, []string)

// ClientDeps wires the tiers and helpers into the client.
type ClientDeps struct {
	Tiers            []Tier
	GroundingEnabled bool
	Normalize        Normalizer
	Now              func() time.Time
}

// Client walks the tiers in fixed order and falls back to Local. It keeps no
// log state of its own; callers observe attempts through the Observer.
type Client struct {
	tiers     []Tier
	grounding bool
	normalize Normalizer
	now       func() time.Time
}

// NewClient constructs the client.
func NewClient(deps ClientDeps) *Client {
	tiers := make([]Tier, len(deps.Tiers))
	copy(tiers, deps.Tiers)

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		tiers:     tiers,
		grounding: deps.GroundingEnabled,
		normalize: deps.Normalize,
		now:       now,
	}
}

// Generate never fails: if every cloud tier errors, the result comes from the
// local template and carries ProviderLocal.
func (c *Client) Generate(ctx context.Context, item domain.ContentItem, observe Observer) domain.GenerationResult {
	req := domain.GenerationRequest{
		Prompt:           BuildPrompt(item),
		GroundingEnabled: c.grounding,
	}

	for _, tier := range c.tiers {
		started := c.now()
		resp, err := c.attempt(ctx, tier, req)
		notify(observe, Attempt{
			ItemID:   item.ID,
			Tag:      tier.Tag,
			Provider: tierName(tier),
			Err:      err,
			Duration: c.now().Sub(started),
		})
		if err != nil {
			continue
		}

		content, sources := resp.Text, resp.Sources
		if c.normalize != nil {
			var extra []string
			content, extra = c.normalize(content)
			sources = append(append([]string(nil), sources...), extra...)
		}
		return domain.GenerationResult{
			ItemID:       item.ID,
			Content:      content,
			Sources:      dedupe(sources),
			ProviderUsed: tier.Tag,
			GeneratedAt:  c.now(),
		}
	}

	result := LocalResult(item, c.now())
	notify(observe, Attempt{ItemID: item.ID, Tag: domain.ProviderLocal, Provider: LocalName})
	return result
}

func (c *Client) attempt(ctx context.Context, tier Tier, req domain.GenerationRequest) (domain.GenerationResponse, error) {
	if tier.Provider == nil {
		return domain.GenerationResponse{}, &domain.ProviderError{
			Provider: tierName(tier),
			Kind:     domain.KindAuth,
			Err:      domain.ErrNotConfigured,
		}
	}

	timeout := tier.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := tier.Provider.Attempt(attemptCtx, req)
	if err != nil {
		var perr *domain.ProviderError
		if !errors.As(err, &perr) && errors.Is(err, context.DeadlineExceeded) {
			return domain.GenerationResponse{}, &domain.ProviderError{
				Provider: tier.Provider.Name(),
				Kind:     domain.KindTimeout,
				Err:      err,
			}
		}
		return domain.GenerationResponse{}, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return domain.GenerationResponse{}, &domain.ProviderError{
			Provider: tier.Provider.Name(),
			Kind:     domain.KindMalformed,
			Err:      fmt.Errorf("empty response text"),
		}
	}
	return resp, nil
}

// UnconfiguredName labels a tier that has no provider behind it.
const UnconfiguredName = "unconfigured"

func tierName(tier Tier) string {
	if tier.Provider == nil {
		return UnconfiguredName
	}
	return tier.Provider.Name()
}

func notify(observe Observer, a Attempt) {
	if observe != nil {
		observe(a)
	}
}

func dedupe(sources []string) []string {
	out := make([]string, 0, len(sources))
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

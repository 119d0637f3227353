package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by tiers that lack credentials or an endpoint.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrPersistence wraps every failure of the result store.
	ErrPersistence = errors.New("persistence failure")
)

// ProviderErrorKind classifies why a tier failed.
type ProviderErrorKind string

const (
	KindNetwork   ProviderErrorKind = "network"
	KindAuth      ProviderErrorKind = "auth"
	KindRateLimit ProviderErrorKind = "rate_limit"
	KindMalformed ProviderErrorKind = "malformed"
	KindTimeout   ProviderErrorKind = "timeout"
)

// ProviderError is returned by cloud tiers. It never leaves the generation client.
type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ContentGenesis/internal/domain"
)

const maxErrorBody = 1024

// newLimiter converts a per-minute budget into a token bucket; zero means unlimited.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// send waits for the limiter, performs req and returns the body of a 200 response.
// Every failure is reported as *domain.ProviderError.
func send(ctx context.Context, name string, client *http.Client, limiter *rate.Limiter, req *http.Request) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, &domain.ProviderError{Provider: name, Kind: transportKind(ctx, err), Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: name, Kind: transportKind(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.ProviderError{
			Provider: name,
			Kind:     statusKind(resp.StatusCode),
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(string(payload))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Provider: name, Kind: transportKind(ctx, err), Err: fmt.Errorf("read response: %w", err)}
	}
	return body, nil
}

func transportKind(ctx context.Context, err error) domain.ProviderErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.KindTimeout
	}
	return domain.KindNetwork
}

func statusKind(status int) domain.ProviderErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.KindAuth
	case status == http.StatusTooManyRequests:
		return domain.KindRateLimit
	case status >= http.StatusInternalServerError:
		return domain.KindNetwork
	default:
		return domain.KindMalformed
	}
}

func malformed(name string, err error) error {
	return &domain.ProviderError{Provider: name, Kind: domain.KindMalformed, Err: err}
}

func notConfigured(name string) error {
	return &domain.ProviderError{Provider: name, Kind: domain.KindAuth, Err: domain.ErrNotConfigured}
}

// Package geocode resolves free-text locations to coordinates using an
// ordered chain of public geocoding providers. Individual provider
// failures are masked: the chain only reports not-found once every
// provider has been tried.
package geocode

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/propstack/proximity/internal/model"
	"github.com/propstack/proximity/internal/observability"
)

// ErrNotFound means no provider produced a usable coordinate. Callers
// must render this as a valid "address not found" response, not a 5xx.
var ErrNotFound = errors.New("geocode: no provider returned a result")

// Provider is one geocoding backend.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, query string) (model.GeocodeResult, error)
}

// Chain tries providers in order and returns the first usable result.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

func NewChain(logger *slog.Logger, timeout time.Duration, providers ...Provider) *Chain {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Chain{providers: providers, timeout: timeout, logger: logger}
}

// Resolve iterates the provider list. Network errors, timeouts, non-2xx
// statuses and empty payloads all count as a provider failure: log a
// warning and fall through to the next provider. First success wins.
func (c *Chain) Resolve(ctx context.Context, query string) (model.GeocodeResult, error) {
	for _, p := range c.providers {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		res, err := p.Resolve(pctx, query)
		cancel()
		if err != nil {
			observability.IncGeocodeAttempt(p.Name(), "failure")
			c.logger.Warn("geocode provider failed, trying next",
				"provider", p.Name(), "err", err)
			continue
		}
		observability.IncGeocodeAttempt(p.Name(), "success")
		return res, nil
	}
	return model.GeocodeResult{}, ErrNotFound
}

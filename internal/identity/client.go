// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package identity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/orderdesk/internal/cache"
	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/metrics"
	"github.com/tomtom215/orderdesk/internal/models"
)

const breakerName = "identity-directory"

// maxBatch bounds the IDs sent in one request. Config caps the API page
// size at the same value.
const maxBatch = config.MaxPageSizeLimit

// ErrUnavailable wraps every failure to reach the directory.
var ErrUnavailable = errors.New("identity directory unavailable")

// Client is the HTTP Directory. It serves repeated IDs from an LRU cache,
// paces outbound calls with a token bucket, and stops calling a failing
// directory through a circuit breaker.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[map[string]Profile]
	cache   *cache.LRU[string, Profile]
}

var _ Directory = (*Client)(nil)

// NewClient creates a directory client. cfg.BaseURL must be set.
func NewClient(cfg config.IdentityConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	metrics.SetCircuitBreakerState(breakerName, 0)

	cb := gobreaker.NewCircuitBreaker[map[string]Profile](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.SetCircuitBreakerState(name, stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		cb:      cb,
		cache:   cache.NewLRU[string, Profile](cfg.CacheSize, cfg.CacheTTL),
	}
}

// ResolveActors implements Directory. Cached profiles are returned even
// when fetching the rest fails.
func (c *Client) ResolveActors(ctx context.Context, ids []string) (map[string]Profile, error) {
	ids = uniqueIDs(ids)
	out := make(map[string]Profile, len(ids))

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.cache.Get(id); ok {
			out[id] = p
			continue
		}
		missing = append(missing, id)
	}
	metrics.RecordIdentityLookup("cache_hit", len(out))

	for start := 0; start < len(missing); start += maxBatch {
		end := min(start+maxBatch, len(missing))
		batch := missing[start:end]

		fetched, err := c.fetch(ctx, batch)
		if err != nil {
			metrics.RecordIdentityLookup("error", len(missing)-start)
			return out, err
		}
		metrics.RecordIdentityLookup("fetched", len(fetched))
		for id, p := range fetched {
			c.cache.Add(id, p)
			out[id] = p
		}
	}

	return out, nil
}

type resolveRequest struct {
	IDs []string `json:"ids"`
}

type resolveResponse struct {
	Profiles []Profile `json:"profiles"`
}

func (c *Client) fetch(ctx context.Context, ids []string) (map[string]Profile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrUnavailable, err)
	}

	profiles, err := c.cb.Execute(func() (map[string]Profile, error) {
		return c.post(ctx, ids)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordIdentityLookup("rejected", len(ids))
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return profiles, nil
}

func (c *Client) post(ctx context.Context, ids []string) (map[string]Profile, error) {
	body, err := json.Marshal(resolveRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/actors/resolve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // diagnostic only
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded resolveResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make(map[string]Profile, len(decoded.Profiles))
	for _, p := range decoded.Profiles {
		if p.ID == "" {
			continue
		}
		if r, err := models.ParseRole(string(p.Role)); err == nil {
			p.Role = r
		}
		out[p.ID] = p
	}
	return out, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

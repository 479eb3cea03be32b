// Package injury supplies the current injury state with a freshness window
// and a stale-data fallback when the live source is unreachable.
package injury

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/matchup/internal/domain/model"
)

// Source fetches the live injury state.
type Source interface {
	Fetch(ctx context.Context) (model.InjuryState, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (model.InjuryState, error)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context) (model.InjuryState, error) { return f(ctx) }

// HTTPOption applies a configuration option to the HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithHeader adds a request header, e.g. an API key or user agent.
func WithHeader(key, value string) HTTPOption {
	return func(s *HTTPSource) {
		s.headers.Set(key, value)
	}
}

// HTTPSource GETs a JSON document shaped
//
//	{"Los Angeles Lakers": [{"player": "...", "status": "Out", "description": "..."}]}
//
// Team keys may be full names, nicknames or codes. Unknown teams are dropped.
type HTTPSource struct {
	url     string
	client  *http.Client
	headers http.Header
}

// NewHTTPSource creates a source for url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:     url,
		client:  http.DefaultClient,
		headers: http.Header{"Accept": []string{"application/json"}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch implements Source. Cancellation and deadlines come from ctx.
func (s *HTTPSource) Fetch(ctx context.Context) (model.InjuryState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
	}
	req.Header = s.headers.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %w: %d", model.ErrUpstreamUnavailable, ErrBadStatus, resp.StatusCode)
	}

	var raw map[string][]model.InjuryReport
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", model.ErrUpstreamUnavailable, ErrDecode, err)
	}
	return normalize(raw), nil
}

func normalize(raw map[string][]model.InjuryReport) model.InjuryState {
	out := make(model.InjuryState, len(raw))
	for name, reports := range raw {
		code, ok := TeamCode(name)
		if !ok {
			continue
		}
		for _, r := range reports {
			r.Player = strings.Join(strings.Fields(r.Player), " ")
			if r.Player == "" {
				continue
			}
			out[code] = append(out[code], r)
		}
	}
	return out
}

// Chain tries each source in order and returns the first success.
type Chain []Source

// Fetch implements Source.
func (c Chain) Fetch(ctx context.Context) (model.InjuryState, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, ErrNoSources)
	}
	var errs []error
	for _, s := range c {
		state, err := s.Fetch(ctx)
		if err == nil {
			return state, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

package embedder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/hupe1980/vecrow/model"
	"golang.org/x/time/rate"
)

// Compile-time check to ensure HTTP satisfies the Embedder interface.
var _ Embedder = (*HTTP)(nil)

// HTTPOptions configures the HTTP embedder.
type HTTPOptions struct {
	// Client overrides the HTTP client built from the endpoint.
	Client *http.Client

	// Limiter bounds the request rate. Nil means unlimited.
	Limiter *rate.Limiter

	// Logger receives embedding failures. Defaults to a discard logger.
	Logger *slog.Logger
}

// HTTP embeds text by posting {"model", "input"} to an endpoint and reading
// either {"embedding": [...]} or {"data": {"embedding": [...]}}.
//
// Any transport, status or shape failure yields a zero vector. Missing
// components are filled with 0 and extra components are dropped.
type HTTP struct {
	endpoint Endpoint
	dims     int
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewHTTP creates an HTTP embedder producing vectors of length dims.
func NewHTTP(endpoint Endpoint, dims int, optFns ...func(o *HTTPOptions)) *HTTP {
	opts := HTTPOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.Client
	if client == nil {
		client = endpoint.Client()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &HTTP{
		endpoint: endpoint,
		dims:     dims,
		client:   client,
		limiter:  opts.Limiter,
		logger:   logger,
	}
}

// ModelID returns the endpoint model.
func (h *HTTP) ModelID() string { return h.endpoint.Model }

// Dims returns the vector dimensionality.
func (h *HTTP) Dims() int { return h.dims }

// Embed calls the endpoint and returns the embedding, or a zero vector on
// failure.
func (h *HTTP) Embed(ctx context.Context, text string) model.Vector {
	components, err := h.fetch(ctx, text)
	if err != nil {
		h.logger.Warn("embedding failed, using zero vector",
			"model", h.endpoint.Model,
			"url", h.endpoint.URL(),
			"error", err,
		)
		return Zero(h.dims)
	}

	v := make(model.Vector, h.dims)
	for i := range v {
		if i < len(components) {
			if f, ok := components[i].(float64); ok {
				v[i] = float32(f)
			}
		}
	}
	return v
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []any `json:"embedding"`
	Data      *struct {
		Embedding []any `json:"embedding"`
	} `json:"data"`
}

func (h *HTTP) fetch(ctx context.Context, text string) ([]any, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embed: rate limit: %w", err)
		}
	}

	body, err := json.Marshal(embedRequest{Model: h.endpoint.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: create request: %w", err)
	}
	h.endpoint.Apply(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embed: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("embed: API error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("embed: unmarshal response: %w", err)
	}

	switch {
	case parsed.Embedding != nil:
		return parsed.Embedding, nil
	case parsed.Data != nil && parsed.Data.Embedding != nil:
		return parsed.Data.Embedding, nil
	default:
		return nil, fmt.Errorf("embed: response has no embedding")
	}
}

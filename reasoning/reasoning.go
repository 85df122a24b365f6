// Package reasoning provides a blocking client for an LLM-style completion
// endpoint.
//
// Requests are {"model", "prompt", "context"} and responses {"output"}.
// Unlike embedding, completion failures are returned to the caller.
package reasoning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/hupe1980/vecrow/embedder"
	"golang.org/x/time/rate"
)

// ErrStatus is returned when the endpoint responds with a non-2xx status.
var ErrStatus = errors.New("reasoning: unexpected status")

// Options configures the client.
type Options struct {
	// Client overrides the HTTP client built from the endpoint.
	Client *http.Client

	// Limiter bounds the request rate. Nil means unlimited.
	Limiter *rate.Limiter

	// Logger receives request diagnostics. Defaults to a discard logger.
	Logger *slog.Logger
}

// Client calls a completion endpoint.
type Client struct {
	endpoint embedder.Endpoint
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New creates a completion client for endpoint.
func New(endpoint embedder.Endpoint, optFns ...func(o *Options)) *Client {
	opts := Options{}
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

	return &Client{
		endpoint: endpoint,
		client:   client,
		limiter:  opts.Limiter,
		logger:   logger,
	}
}

type completeRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Context any    `json:"context"`
}

type completeResponse struct {
	Output any `json:"output"`
}

// Complete sends prompt with an arbitrary JSON-serializable context and
// returns the model output. A response without a string "output" yields "".
func (c *Client) Complete(ctx context.Context, prompt string, data any) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("reasoning: rate limit: %w", err)
		}
	}

	body, err := json.Marshal(completeRequest{Model: c.endpoint.Model, Prompt: prompt, Context: data})
	if err != nil {
		return "", fmt.Errorf("reasoning: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.URL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("reasoning: create request: %w", err)
	}
	c.endpoint.Apply(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reasoning: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reasoning: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d: %s", ErrStatus, resp.StatusCode, string(respBody))
	}

	var parsed completeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("reasoning: unmarshal response: %w", err)
	}

	out, _ := parsed.Output.(string)
	c.logger.Debug("completion", "model", c.endpoint.Model, "prompt_len", len(prompt), "output_len", len(out))

	return out, nil
}

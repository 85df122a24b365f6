package embedder

import (
	"net/http"
	"strings"
	"time"
)

// Endpoint describes a JSON-over-HTTP model service.
type Endpoint struct {
	// BaseURL is the scheme and host, e.g. "http://localhost:8080".
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// Path is appended to BaseURL, e.g. "/embed".
	Path string `mapstructure:"path" json:"path"`

	// Model is sent with every request.
	Model string `mapstructure:"model" json:"model"`

	// AuthHeader names the header carrying APIKey. Both must be set for the
	// key to be sent.
	AuthHeader string `mapstructure:"auth_header" json:"auth_header,omitempty"`
	APIKey     string `mapstructure:"api_key" json:"-"`

	// Headers are added to every request.
	Headers map[string]string `mapstructure:"headers" json:"headers,omitempty"`

	// Timeout bounds a single request.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// URL returns BaseURL joined with Path.
func (e Endpoint) URL() string {
	return strings.TrimRight(e.BaseURL, "/") + e.Path
}

// Apply sets the authentication and extra headers on req.
func (e Endpoint) Apply(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if e.AuthHeader != "" && e.APIKey != "" {
		req.Header.Set(e.AuthHeader, e.APIKey)
	}
	for k, v := range e.Headers {
		req.Header.Set(k, v)
	}
}

// Client returns an HTTP client honoring Timeout.
func (e Endpoint) Client() *http.Client {
	return &http.Client{Timeout: e.Timeout}
}

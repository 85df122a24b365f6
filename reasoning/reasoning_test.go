package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/vecrow/embedder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(embedder.Endpoint{
		BaseURL:    server.URL + "/",
		Path:       "/complete",
		Model:      "reasoner",
		AuthHeader: "X-Api-Key",
		APIKey:     "k",
		Timeout:    5 * time.Second,
	})
}

func TestClient_Complete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/complete", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "reasoner", req["model"])
		assert.Equal(t, "summarize", req["prompt"])
		assert.Equal(t, map[string]any{"rows": float64(3)}, req["context"])

		_, _ = w.Write([]byte(`{"output": "three rows"}`))
	})

	out, err := c.Complete(context.Background(), "summarize", map[string]any{"rows": 3})
	require.NoError(t, err)
	assert.Equal(t, "three rows", out)
}

func TestClient_MissingOutput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result": "x"}`))
	})

	out, err := c.Complete(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClient_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.Complete(context.Background(), "p", nil)
	require.ErrorIs(t, err, ErrStatus)

	c = newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{`))
	})
	_, err = c.Complete(context.Background(), "p", nil)
	require.Error(t, err)

	unreachable := New(embedder.Endpoint{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, err = unreachable.Complete(context.Background(), "p", nil)
	require.Error(t, err)
}

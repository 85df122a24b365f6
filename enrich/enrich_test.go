package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/vecrow/embedder"
	"github.com/hupe1980/vecrow/reasoning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	out, err := Noop{}.Enrich(context.Background(), "Anything at all")
	require.NoError(t, err)
	assert.Equal(t, Output{}, out)
}

func TestHeuristic(t *testing.T) {
	out, err := Heuristic{}.Enrich(context.Background(), "Acme grew revenue 42% in Berlin. Acme hired 7 people!")
	require.NoError(t, err)

	require.Len(t, out.Entities, 2)
	assert.Equal(t, EntityLink{Surface: "Acme", EntityID: "acme", Score: 1}, out.Entities[0])
	assert.Equal(t, "berlin", out.Entities[1].EntityID)

	assert.Equal(t, []KPI{
		{Name: "revenue", Value: 42},
		{Name: "hired", Value: 7},
		{Name: "word_count", Value: 10},
	}, out.KPIs)

	require.NotNil(t, out.Summary)
	assert.Equal(t, "Acme grew revenue 42% in Berlin.", out.Summary.Text)
	assert.False(t, out.DriftFlag)
}

func TestHeuristic_Empty(t *testing.T) {
	out, err := Heuristic{}.Enrich(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, out.Entities)
	assert.Nil(t, out.Summary)
	assert.Equal(t, []KPI{{Name: "word_count", Value: 0}}, out.KPIs)
}

func TestReasoning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"output": "A short summary."}`))
	}))
	defer server.Close()

	client := reasoning.New(embedder.Endpoint{BaseURL: server.URL, Path: "/c", Timeout: 5 * time.Second})

	out, err := NewReasoning(client, "").Enrich(context.Background(), "Acme ships 3 products.")
	require.NoError(t, err)
	require.NotNil(t, out.Summary)
	assert.Equal(t, "A short summary.", out.Summary.Text)
	assert.Len(t, out.Entities, 1)

	failing := reasoning.New(embedder.Endpoint{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	out, err = NewReasoning(failing, "custom").Enrich(context.Background(), "Acme ships.")
	require.Error(t, err)
	assert.Len(t, out.Entities, 1)
}

// Package enrich provides optional post-insert text enrichment: entity
// links, key figures and a short summary.
//
// Enrichment is a side effect of ingestion. Its output is never required for
// storage or retrieval, and its failures never fail a write.
package enrich

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/hupe1980/vecrow/reasoning"
)

// EntityLink ties a surface form in the text to an entity identifier.
type EntityLink struct {
	Surface  string  `json:"surface"`
	EntityID string  `json:"entity_id"`
	Score    float32 `json:"score"`
}

// KPI is a named figure extracted from the text.
type KPI struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Summary is a short description of the text.
type Summary struct {
	Text string `json:"text"`
}

// Output is the result of enriching one text.
type Output struct {
	Entities  []EntityLink `json:"entities"`
	KPIs      []KPI        `json:"kpis"`
	Summary   *Summary     `json:"summary,omitempty"`
	DriftFlag bool         `json:"drift_flag"`
}

// Enricher extracts structure from text.
type Enricher interface {
	Enrich(ctx context.Context, text string) (Output, error)
}

// Compile-time checks to ensure the enrichers satisfy the interface.
var (
	_ Enricher = Noop{}
	_ Enricher = Heuristic{}
	_ Enricher = (*Reasoning)(nil)
)

// Noop returns an empty output.
type Noop struct{}

func (Noop) Enrich(context.Context, string) (Output, error) { return Output{}, nil }

// maxSummaryLen bounds heuristic summaries, in runes.
const maxSummaryLen = 160

// Heuristic extracts capitalized words as entities, numbers as KPIs named
// after the preceding word, and the first sentence as summary.
type Heuristic struct{}

func (Heuristic) Enrich(_ context.Context, text string) (Output, error) {
	var out Output

	words := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",;:!?()\"", r)
	})

	seen := make(map[string]bool)
	prev := ""
	for _, w := range words {
		w = strings.TrimRight(w, ".")
		if w == "" {
			continue
		}

		if v, ok := parseNumber(w); ok {
			name := strings.ToLower(prev)
			if name == "" {
				name = "value"
			}
			out.KPIs = append(out.KPIs, KPI{Name: name, Value: v})
		} else if r := []rune(w); unicode.IsUpper(r[0]) && len(r) > 1 {
			id := strings.ToLower(w)
			if !seen[id] {
				seen[id] = true
				out.Entities = append(out.Entities, EntityLink{Surface: w, EntityID: id, Score: 1})
			}
		}
		prev = w
	}

	out.KPIs = append(out.KPIs, KPI{Name: "word_count", Value: float64(len(words))})

	if s := firstSentence(text); s != "" {
		out.Summary = &Summary{Text: s}
	}

	return out, nil
}

func parseNumber(w string) (float64, bool) {
	w = strings.TrimSuffix(w, "%")
	digits := strings.TrimLeft(w, "+-")
	if digits == "" || !unicode.IsDigit(rune(digits[0])) {
		return 0, false
	}
	v, err := strconv.ParseFloat(w, 64)
	return v, err == nil
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		text = text[:i+1]
	}
	if r := []rune(text); len(r) > maxSummaryLen {
		text = string(r[:maxSummaryLen])
	}
	return text
}

// Reasoning asks a completion endpoint for a summary and adds the heuristic
// entities and KPIs.
type Reasoning struct {
	client *reasoning.Client
	prompt string
}

// DefaultPrompt is the prompt sent by Reasoning.
const DefaultPrompt = "Summarize the following text in one sentence."

// NewReasoning creates a reasoning-backed enricher. An empty prompt uses
// DefaultPrompt.
func NewReasoning(client *reasoning.Client, prompt string) *Reasoning {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Reasoning{client: client, prompt: prompt}
}

func (r *Reasoning) Enrich(ctx context.Context, text string) (Output, error) {
	out, _ := Heuristic{}.Enrich(ctx, text)

	summary, err := r.client.Complete(ctx, r.prompt, map[string]string{"text": text})
	if err != nil {
		return out, err
	}
	if summary != "" {
		out.Summary = &Summary{Text: summary}
	}
	return out, nil
}

package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecrow/access"
	"github.com/hupe1980/vecrow/embedder"
	"github.com/hupe1980/vecrow/index"
	"github.com/hupe1980/vecrow/index/flat"
	"github.com/hupe1980/vecrow/testutil"
)

func newPhraseIndex(t *testing.T, emb embedder.Embedder) *flat.Flat {
	t.Helper()

	idx := flat.New(emb.Dims())
	for i, p := range testutil.Phrases {
		require.NoError(t, idx.Add(uint64(i+1), emb.Embed(context.Background(), p)))
	}
	return idx
}

func newEmbedder() embedder.Embedder {
	return testutil.NewTextEmbedder(16)
}

func TestSimilar(t *testing.T) {
	emb := newEmbedder()
	idx := newPhraseIndex(t, emb)
	p := New(emb)

	hits, err := p.Similar(context.Background(), idx, testutil.Phrases[2], 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, uint64(3), hits[0].ID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestSimilarInvalidK(t *testing.T) {
	emb := newEmbedder()
	p := New(emb)

	_, err := p.Similar(context.Background(), flat.New(emb.Dims()), "x", 0)
	require.ErrorIs(t, err, index.ErrInvalidK)
}

// recordingIndex remembers the k of every TopK call.
type recordingIndex struct {
	*flat.Flat
	ks []int
}

func (r *recordingIndex) TopK(q []float32, k int) ([]index.Hit, error) {
	r.ks = append(r.ks, k)
	return r.Flat.TopK(q, k)
}

func TestSimilarOverfetch(t *testing.T) {
	emb := newEmbedder()
	idx := &recordingIndex{Flat: newPhraseIndex(t, emb)}
	ctx := context.Background()

	hits, err := New(emb).Similar(ctx, idx, testutil.QueryPhrase, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = New(emb, func(o *Options) { o.Overfetch = 3 }).Similar(ctx, idx, testutil.QueryPhrase, 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	assert.Equal(t, []int{4, 3}, idx.ks)
}

func TestSimilarAccess(t *testing.T) {
	emb := newEmbedder()
	idx := newPhraseIndex(t, emb)
	ctx := context.Background()

	denied := New(emb).WithAccess(access.Static{})
	hits, err := denied.Similar(ctx, idx, testutil.QueryPhrase, 3)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)

	responsible := denied.WithAccess(access.Static{R: true})
	hits, err = responsible.Similar(ctx, idx, testutil.QueryPhrase, 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	persona := access.NewPersona("p1", []access.Role{access.RoleAccountable})
	hits, err = New(emb, func(o *Options) { o.Access = persona }).Similar(ctx, idx, testutil.QueryPhrase, 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	// WithAccess leaves the receiver untouched.
	assert.Equal(t, access.Static{}, denied.Access())
}

func TestParseSemanticQL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Query
	}{
		{"with top", `FIND SIMILAR "rust embeddings" IN docs TOP 3`, Query{Text: "rust embeddings", Space: "docs", K: 3}},
		{"default k", `FIND SIMILAR "hello" IN notes`, Query{Text: "hello", Space: "notes", K: DefaultK}},
		{"whitespace", "  FIND   SIMILAR \"a b\"\tIN  x_1  TOP  7  ", Query{Text: "a b", Space: "x_1", K: 7}},
		{"all spaces", `FIND SIMILAR "q" IN * TOP 2`, Query{Text: "q", Space: AllSpaces, K: 2}},
		{"overflow falls back", `FIND SIMILAR "q" IN s TOP 99999999999999999999999`, Query{Text: "q", Space: "s", K: DefaultK}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseSemanticQL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestParseSemanticQLErrors(t *testing.T) {
	for _, input := range []string{
		"",
		`SELECT * FROM docs`,
		`FIND SIMILAR hello IN docs`,
		`FIND SIMILAR "" IN docs`,
		`FIND SIMILAR "x" IN`,
	} {
		_, err := ParseSemanticQL(input)
		assert.ErrorIs(t, err, ErrSyntax, input)
	}
}

func TestQueryString(t *testing.T) {
	q := Query{Text: "x", Space: "docs", K: 4}
	parsed, err := ParseSemanticQL(q.String())
	require.NoError(t, err)
	assert.Equal(t, q, parsed)
}

func TestExecute(t *testing.T) {
	emb := newEmbedder()
	ctx := context.Background()

	other := flat.New(emb.Dims())
	require.NoError(t, other.Add(100, emb.Embed(ctx, "only in other")))

	spaces := Spaces{
		"docs":  newPhraseIndex(t, emb),
		"other": other,
	}
	assert.Equal(t, []string{"docs", "other"}, spaces.Names())

	p := New(emb)

	hits, err := p.Execute(ctx, spaces, `FIND SIMILAR "`+testutil.Phrases[0]+`" IN docs TOP 2`)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, uint64(1), hits[0].ID)

	hits, err = p.Execute(ctx, spaces, `FIND SIMILAR "only in other" IN * TOP 1`)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(100), hits[0].ID)

	hits, err = p.Execute(ctx, spaces, `FIND SIMILAR "x" IN *`)
	require.NoError(t, err)
	assert.Len(t, hits, 5)

	_, err = p.Execute(ctx, spaces, `FIND SIMILAR "x" IN missing`)
	require.ErrorIs(t, err, ErrUnknownSpace)

	_, err = p.Execute(ctx, spaces, `FIND SIMILAR "x" IN docs TOP 0`)
	require.ErrorIs(t, err, index.ErrInvalidK)

	_, err = p.Execute(ctx, spaces, `nonsense`)
	require.ErrorIs(t, err, ErrSyntax)
}

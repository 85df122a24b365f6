package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDims(t *testing.T) {
	require.NoError(t, ValidateDims(3, []float32{1, 2, 3}))

	err := ValidateDims(3, []float32{1, 2})
	require.Error(t, err)

	var dimErr *ErrDimensionMismatch
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Actual)
	assert.Equal(t, "dimension mismatch: expected 3, got 2", err.Error())
}

func TestValidateQuery(t *testing.T) {
	require.NoError(t, ValidateQuery(2, []float32{1, 2}, 1))
	require.ErrorIs(t, ValidateQuery(2, []float32{1, 2}, 0), ErrInvalidK)
	require.ErrorIs(t, ValidateQuery(2, []float32{1, 2}, -3), ErrInvalidK)

	var dimErr *ErrDimensionMismatch
	require.ErrorAs(t, ValidateQuery(2, []float32{1}, 1), &dimErr)
}

func TestMergeHits(t *testing.T) {
	a := []Hit{{ID: 1, Score: 0.9}, {ID: 2, Score: 0.5}}
	b := []Hit{{ID: 3, Score: 0.7}, {ID: 4, Score: 0.5}, {ID: 5, Score: 0.1}}

	got := MergeHits(4, a, b)
	assert.Equal(t, []Hit{{ID: 1, Score: 0.9}, {ID: 3, Score: 0.7}, {ID: 2, Score: 0.5}, {ID: 4, Score: 0.5}}, got)

	assert.Len(t, MergeHits(10, a, b), 5)
	assert.Empty(t, MergeHits(3))
	assert.Nil(t, MergeHits(0, a))
}

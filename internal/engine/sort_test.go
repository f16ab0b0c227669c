package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Sort(t *testing.T) {
	e, _ := newTestEngine()
	e.RPush("n", "10", "2", "-1.5", "2", "1e2", "3")

	tests := []struct {
		name string
		opts SortOptions
		want []string
	}{
		{"numeric", SortOptions{}, []string{"-1.5", "2", "2", "3", "10", "1e2"}},
		{"desc", SortOptions{Desc: true}, []string{"1e2", "10", "3", "2", "2", "-1.5"}},
		{"alpha", SortOptions{Alpha: true}, []string{"-1.5", "10", "1e2", "2", "2", "3"}},
		{"limit", SortOptions{Limit: &SortLimit{Offset: 1, Count: 2}}, []string{"2", "2"}},
		{"limit rest", SortOptions{Limit: &SortLimit{Offset: 4, Count: -1}}, []string{"10", "1e2"}},
		{"limit past end", SortOptions{Limit: &SortLimit{Offset: 9, Count: 2}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Sort("n", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// The list itself is untouched.
	got, _ := e.LRange("n", 0, -1)
	assert.Equal(t, []string{"10", "2", "-1.5", "2", "1e2", "3"}, got)
}

func TestEngine_SortEqualScoresUseByteOrder(t *testing.T) {
	e, _ := newTestEngine()
	e.RPush("n", "1.0", "1", "01")

	got, err := e.Sort("n", SortOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"01", "1", "1.0"}, got)
}

func TestEngine_SortNotNumeric(t *testing.T) {
	e, _ := newTestEngine()
	e.RPush("names", "唐僧", "悟空")

	_, err := e.Sort("names", SortOptions{})
	assert.ErrorIs(t, err, ErrNotSortable)

	e.RPush("nan", "1", "nan")
	_, err = e.Sort("nan", SortOptions{})
	assert.ErrorIs(t, err, ErrNotSortable)

	got, err := e.Sort("names", SortOptions{Alpha: true})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestEngine_SortMissingKey(t *testing.T) {
	e, _ := newTestEngine()
	got, err := e.Sort("missing", SortOptions{})
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngine_SortLimitBounds(t *testing.T) {
	e, _ := newTestEngine()
	e.RPush("n", "3", "1", "2")

	tests := []struct {
		name  string
		limit SortLimit
		want  []string
	}{
		{"huge count", SortLimit{Offset: 1, Count: math.MaxInt}, []string{"2", "3"}},
		{"huge offset", SortLimit{Offset: math.MaxInt, Count: 1}, []string{}},
		{"negative offset", SortLimit{Offset: -5, Count: 2}, []string{"1", "2"}},
		{"negative count", SortLimit{Offset: 1, Count: -1}, []string{"2", "3"}},
		{"zero count", SortLimit{Offset: 0, Count: 0}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit := tt.limit
			got, err := e.Sort("n", SortOptions{Limit: &limit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

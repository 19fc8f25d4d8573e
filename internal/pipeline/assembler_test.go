package pipeline

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageN(n int, text string) PageResult {
	return PageResult{Page: n, NativeText: text, ChosenText: text, Source: SourceNative}
}

func TestAssembleOrdersByPageIndex(t *testing.T) {
	results := []PageResult{
		pageN(3, "third page body text goes here"),
		pageN(1, "first page body text goes here"),
		pageN(2, "second page body text goes here"),
	}

	doc, err := Assemble(results, 10)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 3)
	for i, p := range doc.Pages {
		assert.Equal(t, i+1, p.Page)
	}

	first := strings.Index(doc.Text, "first page")
	second := strings.Index(doc.Text, "second page")
	third := strings.Index(doc.Text, "third page")
	assert.True(t, first < second && second < third, "pages out of order in %q", doc.Text)
}

// Any completion order must yield the same ascending assembly.
func TestAssembleOrderInvariantUnderPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := make([]PageResult, 20)
	for i := range base {
		base[i] = pageN(i+1, fmt.Sprintf("content of page number %d", i+1))
	}

	want, err := Assemble(base, 10)
	require.NoError(t, err)

	for trial := 0; trial < 50; trial++ {
		shuffled := make([]PageResult, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := Assemble(shuffled, 10)
		require.NoError(t, err)
		assert.Equal(t, want.Text, got.Text)
	}
}

func TestAssembleInsertsPageMarkers(t *testing.T) {
	doc, err := Assemble([]PageResult{
		pageN(1, "alpha section of the filing"),
		pageN(2, "beta section of the filing"),
	}, 10)
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "\n\n--- Page 1 ---\n\n")
	assert.Contains(t, doc.Text, "\n\n--- Page 2 ---\n\n")
}

func TestAssembleSkipsEmptyPages(t *testing.T) {
	doc, err := Assemble([]PageResult{
		pageN(1, "only page with any extracted content"),
		pageN(2, ""),
		{Page: 3, OCRText: "   ", ChosenText: "   ", Source: SourceOCR},
	}, 10)
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "--- Page 1 ---")
	assert.NotContains(t, doc.Text, "--- Page 2 ---")
	assert.NotContains(t, doc.Text, "--- Page 3 ---")
}

func TestAssembleViabilityBoundary(t *testing.T) {
	const threshold = 50

	under := strings.Repeat("x", threshold-1)
	_, err := Assemble([]PageResult{pageN(1, under)}, threshold)
	assert.ErrorIs(t, err, ErrInsufficientText)

	exact := strings.Repeat("x", threshold)
	doc, err := Assemble([]PageResult{pageN(1, exact)}, threshold)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, exact)
}

// Markers must not count toward viability; an all-empty document fails even
// though markers alone would clear the threshold.
func TestAssembleViabilityIgnoresMarkers(t *testing.T) {
	results := make([]PageResult, 10)
	for i := range results {
		results[i] = pageN(i+1, "abc")
	}
	_, err := Assemble(results, 50)
	assert.ErrorIs(t, err, ErrInsufficientText)
}

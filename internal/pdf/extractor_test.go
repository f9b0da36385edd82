package pdf

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExtractor_Runs(t *testing.T) {
	page := &fakePage{number: 2, runs: []TextRun{
		run("  Title  ", 0, 0, 100, 14, 12),
		run("   ", 0, 20, 100, 32, 10),
		run("zero size", 0, 40, 100, 52, 0),
		run("bad box", 100, 60, 50, 72, 10),
		{Text: "nan", Box: Rect{X0: math.NaN(), X1: 10, Y1: 10}, FontSize: 10},
		run("Body", 0, 80, 100, 92, 10),
	}}

	seq, err := NewRunExtractor().Runs(page)
	require.NoError(t, err)

	got := slices.Collect(seq)
	require.Len(t, got, 2)
	assert.Equal(t, "Title", got[0].Text)
	assert.Equal(t, "Body", got[1].Text)
	// the page's own runs are untouched
	assert.Equal(t, "  Title  ", page.runs[0].Text)
}

func TestRunExtractor_Restartable(t *testing.T) {
	page := &fakePage{number: 1, runs: []TextRun{run("a", 0, 0, 10, 12, 10), run("b", 0, 20, 10, 32, 10)}}
	seq, err := NewRunExtractor().Runs(page)
	require.NoError(t, err)

	assert.Len(t, slices.Collect(seq), 2)
	assert.Len(t, slices.Collect(seq), 2)

	// early stop
	n := 0
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestRunExtractor_ReadError(t *testing.T) {
	page := &fakePage{number: 7, readErr: errors.New("corrupt content stream")}
	seq, err := NewRunExtractor().Runs(page)

	assert.Nil(t, seq)
	require.Error(t, err)
	assert.Equal(t, ErrExtractFailed, ErrorCode(err))
	var pe *PDFError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 7, pe.Page)
	assert.ErrorContains(t, err, "corrupt content stream")
}

func TestRunExtractor_EmptyPage(t *testing.T) {
	seq, err := NewRunExtractor().Runs(&fakePage{number: 1})
	require.NoError(t, err)
	assert.Empty(t, slices.Collect(seq))
}

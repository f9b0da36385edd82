package pdf

import (
	"iter"
	"strings"
)

// RunExtractor turns a page's text model into the runs worth translating.
type RunExtractor struct{}

// NewRunExtractor creates a RunExtractor
func NewRunExtractor() *RunExtractor {
	return &RunExtractor{}
}

// Runs reads the page text model and returns its runs as a sequence. Runs whose text
// is empty after trimming are dropped, as are runs without a usable size or box.
// The page model is read once; the sequence can be ranged over any number of times.
// A read failure is returned as an EXTRACT_FAILED error for the page.
func (e *RunExtractor) Runs(page Page) (iter.Seq[TextRun], error) {
	raw, err := page.TextRuns()
	if err != nil {
		return nil, NewPDFErrorWithPage(ErrExtractFailed, "failed to read page text", page.Number(), err)
	}

	runs := make([]TextRun, 0, len(raw))
	for _, r := range raw {
		r.Text = strings.TrimSpace(r.Text)
		if !r.IsValidTextRun() {
			continue
		}
		runs = append(runs, r)
	}

	return func(yield func(TextRun) bool) {
		for _, r := range runs {
			if !yield(r) {
				return
			}
		}
	}, nil
}

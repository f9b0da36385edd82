package pdf

import (
	"context"
	"iter"
)

// PlanStats counts what happened while planning one page
type PlanStats struct {
	Runs       int
	Translated int
	Cached     int
	Overflow   int
}

// ReplacementPlanner builds the replacements for one page without touching the page.
type ReplacementPlanner struct {
	batch *BatchTranslator
	fonts *FontRegistry
	fit   *FitCalculator
}

// NewReplacementPlanner creates a planner
func NewReplacementPlanner(batch *BatchTranslator, fonts *FontRegistry, fit *FitCalculator) *ReplacementPlanner {
	if fonts == nil {
		fonts = DefaultFontRegistry()
	}
	return &ReplacementPlanner{batch: batch, fonts: fonts, fit: fit}
}

// PlanPage translates, styles and fits every run, returning one Replacement per run in
// the order the runs were produced.
func (p *ReplacementPlanner) PlanPage(ctx context.Context, runs iter.Seq[TextRun], source, target string) ([]Replacement, PlanStats) {
	var collected []TextRun
	for r := range runs {
		collected = append(collected, r)
	}
	stats := PlanStats{Runs: len(collected)}
	if len(collected) == 0 {
		return nil, stats
	}

	// the language pair is fixed for the job, so is the font
	fontID := p.fonts.SelectFont(target)

	texts := make([]string, len(collected))
	for i, r := range collected {
		texts[i] = r.Text
	}
	translations := p.batch.TranslateBatch(ctx, texts, source, target)

	reps := make([]Replacement, 0, len(collected))
	for i, run := range collected {
		tr := translations[i]
		if tr.Translated {
			stats.Translated++
		}
		if tr.FromCache {
			stats.Cached++
		}

		fr := p.fit.Fit(run.Box, tr.Text, run.FontSize, fontID)
		if fr.Overflow {
			stats.Overflow++
		}

		reps = append(reps, Replacement{
			Box:            run.Box,
			InsertionPoint: run.Origin,
			FontID:         fontID,
			FittedSize:     fr.Size,
			Color:          run.Color.Decompose(),
			TranslatedText: tr.Text,
			OriginalText:   run.Text,
			Lines:          fr.Lines,
			Overflow:       fr.Overflow,
			Translated:     tr.Translated,
		})
	}
	return reps, stats
}

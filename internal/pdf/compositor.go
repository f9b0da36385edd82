package pdf

import (
	"pdf-inplace-translator/internal/logger"
)

// LineSpacing is the baseline advance between wrapped lines, relative to the font size
const LineSpacing = 1.15

// OpKind names a compositor operation
type OpKind string

const (
	OpCover    OpKind = "cover"
	OpInsert   OpKind = "insert"
	OpFallback OpKind = "fallback_insert"
)

// Operation is one entry of the compositor's operation log
type Operation struct {
	Kind   OpKind
	Index  int // replacement index
	FontID string
	Err    error
}

// CompositeStats summarizes the application of one page's replacements
type CompositeStats struct {
	Covered   int
	Inserted  int
	Fallbacks int
	Failed    int
	Ops       []Operation
}

// PageCompositor applies replacements to a page: every cover first, then every insert.
type PageCompositor struct {
	defaultFont string
	log         logger.Logger
}

// NewPageCompositor creates a compositor that falls back to defaultFont
func NewPageCompositor(defaultFont string, log logger.Logger) *PageCompositor {
	if defaultFont == "" {
		defaultFont = DefaultLatinFont
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &PageCompositor{defaultFont: defaultFont, log: log}
}

// Apply covers every replacement box with white, then inserts the translated text.
// Insert failures degrade to the default font and then to a blank box; they are
// counted but never returned.
func (c *PageCompositor) Apply(page Page, reps []Replacement) CompositeStats {
	var stats CompositeStats

	// Cover pass: all covers must land before any insert, otherwise a later cover
	// could hide text inserted for an earlier run.
	for i, rep := range reps {
		err := page.PaintRect(rep.Box, White)
		stats.Ops = append(stats.Ops, Operation{Kind: OpCover, Index: i, Err: err})
		if err != nil {
			c.log.Warn("failed to paint cover rectangle",
				logger.Int("page", page.Number()),
				logger.String("box", rep.Box.String()),
				logger.Err(err))
			continue
		}
		stats.Covered++
	}

	// Insert pass
	for i, rep := range reps {
		lines := rep.Lines
		if len(lines) == 0 {
			lines = []string{rep.TranslatedText}
		}
		ok, fellBack := true, false
		for j, line := range lines {
			at := Point{X: rep.InsertionPoint.X, Y: rep.InsertionPoint.Y + float64(j)*rep.FittedSize*LineSpacing}
			inserted, viaDefault := c.insertLine(page, &stats, i, at, line, rep)
			if !inserted {
				ok = false
			}
			fellBack = fellBack || viaDefault
		}
		// fallbacks count replacements, not lines
		if fellBack {
			stats.Fallbacks++
		}
		if ok {
			stats.Inserted++
		} else {
			stats.Failed++
		}
	}

	return stats
}

// insertLine reports whether the line was drawn and whether the default font drew it
func (c *PageCompositor) insertLine(page Page, stats *CompositeStats, idx int, at Point, line string, rep Replacement) (bool, bool) {
	err := page.InsertText(at, line, rep.FittedSize, rep.Color, rep.FontID)
	stats.Ops = append(stats.Ops, Operation{Kind: OpInsert, Index: idx, FontID: rep.FontID, Err: err})
	if err == nil {
		return true, false
	}

	if rep.FontID == c.defaultFont {
		c.log.Warn("text insert failed with default font, leaving box blank",
			logger.Int("page", page.Number()),
			logger.String("font", rep.FontID),
			logger.Err(err))
		return false, false
	}

	c.log.Warn("text insert failed, retrying with default font",
		logger.Int("page", page.Number()),
		logger.String("font", rep.FontID),
		logger.String("fallback", c.defaultFont),
		logger.Err(err))

	err = page.InsertText(at, line, rep.FittedSize, rep.Color, c.defaultFont)
	stats.Ops = append(stats.Ops, Operation{Kind: OpFallback, Index: idx, FontID: c.defaultFont, Err: err})
	if err != nil {
		c.log.Error("fallback text insert failed, leaving box blank", err,
			logger.Int("page", page.Number()),
			logger.String("text", abbreviate(line, 40)))
		return false, false
	}
	return true, true
}

package pdf

import (
	"strings"
	"unicode"
)

// FitTolerance is how far measured text may exceed the box before it is shrunk.
const FitTolerance = 1.05

// truncationMarker is ASCII so that core fonts can render it
const truncationMarker = "..."

// OverflowPolicy decides what happens when shrinking would go below the minimum size
type OverflowPolicy string

const (
	// OverflowShrink keeps shrinking; with a minimum size set it clamps and lets the text overflow
	OverflowShrink OverflowPolicy = "shrink"
	// OverflowTruncate clamps to the minimum size and cuts the text with an ellipsis
	OverflowTruncate OverflowPolicy = "truncate"
	// OverflowWrap splits the text over two lines
	OverflowWrap OverflowPolicy = "wrap"
)

// ParseOverflowPolicy maps a config string to a policy; unknown values select shrink.
func ParseOverflowPolicy(s string) OverflowPolicy {
	switch OverflowPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case OverflowTruncate:
		return OverflowTruncate
	case OverflowWrap:
		return OverflowWrap
	default:
		return OverflowShrink
	}
}

// FitOptions configures the readability floor. The zero value is the plain
// shrink-to-fit behaviour with no floor.
type FitOptions struct {
	MinSize float64
	Policy  OverflowPolicy
}

// FitResult is the outcome of fitting one translated string into a box
type FitResult struct {
	Size     float64
	Lines    []string
	Measured float64
	// Overflow is set when the lines still exceed the box at Size
	Overflow bool
	// MeasureErr is the measurement failure that made the calculator assume a fit
	MeasureErr error
}

// FitCalculator computes render sizes that keep translated text inside the original box.
type FitCalculator struct {
	measurer Measurer
	opts     FitOptions
}

// NewFitCalculator creates a calculator; a nil measurer makes every text "fit".
func NewFitCalculator(m Measurer, opts FitOptions) *FitCalculator {
	if opts.Policy == "" {
		opts.Policy = OverflowShrink
	}
	if opts.MinSize < 0 {
		opts.MinSize = 0
	}
	return &FitCalculator{measurer: m, opts: opts}
}

func (f *FitCalculator) measure(text, fontID string, size float64) (float64, error) {
	if f.measurer == nil {
		return 0, NewPDFError(ErrMeasureFailed, "no measurer configured", nil)
	}
	return f.measurer.Measure(text, fontID, size)
}

// ComputeFit returns the size for text in box. A failed measurement assumes the
// text fits; the result never exceeds originalSize.
func (f *FitCalculator) ComputeFit(box Rect, text string, originalSize float64, fontID string) float64 {
	available := box.Width()
	measured, err := f.measure(text, fontID, originalSize)
	if err != nil {
		measured = available
	}
	return shrinkToFit(available, measured, originalSize)
}

func shrinkToFit(available, measured, size float64) float64 {
	if measured <= available*FitTolerance {
		return size
	}
	scale := available / measured
	if scale <= 0 {
		// degenerate box, nothing sensible to scale against
		return size
	}
	return size * scale
}

// Fit is ComputeFit plus the configured minimum size and overflow policy.
func (f *FitCalculator) Fit(box Rect, text string, originalSize float64, fontID string) FitResult {
	available := box.Width()
	measured, err := f.measure(text, fontID, originalSize)
	if err != nil {
		return FitResult{Size: originalSize, Lines: []string{text}, Measured: available, MeasureErr: err}
	}

	fitted := shrinkToFit(available, measured, originalSize)
	res := FitResult{Size: fitted, Lines: []string{text}, Measured: measured}

	floor := f.opts.MinSize
	if floor > originalSize {
		floor = originalSize
	}
	if floor <= 0 || fitted >= floor {
		return res
	}

	switch f.opts.Policy {
	case OverflowTruncate:
		return f.truncate(available, text, floor, fontID)
	case OverflowWrap:
		return f.wrap(available, text, originalSize, floor, fontID)
	default:
		res.Size = floor
		res.Overflow = true
		return res
	}
}

// truncate drops trailing runes until the text plus marker fits at size
func (f *FitCalculator) truncate(available float64, text string, size float64, fontID string) FitResult {
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		candidate := strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace) + truncationMarker
		w, err := f.measure(candidate, fontID, size)
		if err != nil {
			break
		}
		if w <= available*FitTolerance {
			return FitResult{Size: size, Lines: []string{candidate}, Measured: w}
		}
	}
	w, _ := f.measure(truncationMarker, fontID, size)
	return FitResult{Size: size, Lines: []string{truncationMarker}, Measured: w, Overflow: w > available*FitTolerance}
}

// wrap splits text into two lines with the narrowest widest line, then shrinks that
// line to fit but not below floor.
func (f *FitCalculator) wrap(available float64, text string, size, floor float64, fontID string) FitResult {
	first, second, widest, ok := f.bestSplit(text, size, fontID)
	if !ok {
		return FitResult{Size: floor, Lines: []string{text}, Overflow: true}
	}
	fitted := shrinkToFit(available, widest, size)
	res := FitResult{Size: fitted, Lines: []string{first, second}, Measured: widest}
	if fitted < floor {
		res.Size = floor
		res.Overflow = true
	}
	return res
}

func (f *FitCalculator) bestSplit(text string, size float64, fontID string) (string, string, float64, bool) {
	runes := []rune(text)
	var cuts []int
	for i, r := range runes {
		if unicode.IsSpace(r) && i > 0 && i < len(runes)-1 {
			cuts = append(cuts, i)
		}
	}
	if len(cuts) == 0 {
		// no word boundaries, e.g. CJK; any rune boundary will do
		for i := 1; i < len(runes); i++ {
			cuts = append(cuts, i)
		}
	}

	var bestFirst, bestSecond string
	best := -1.0
	for _, c := range cuts {
		a := strings.TrimSpace(string(runes[:c]))
		b := strings.TrimSpace(string(runes[c:]))
		if a == "" || b == "" {
			continue
		}
		wa, err := f.measure(a, fontID, size)
		if err != nil {
			return "", "", 0, false
		}
		wb, err := f.measure(b, fontID, size)
		if err != nil {
			return "", "", 0, false
		}
		widest := wa
		if wb > widest {
			widest = wb
		}
		if best < 0 || widest < best {
			best, bestFirst, bestSecond = widest, a, b
		}
	}
	if best < 0 {
		return "", "", 0, false
	}
	return bestFirst, bestSecond, best, true
}

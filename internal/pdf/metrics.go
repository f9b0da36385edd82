package pdf

import (
	"fmt"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Measurer returns the advance width of text set in fontID at size points.
type Measurer interface {
	Measure(text, fontID string, size float64) (float64, error)
	// Knows reports whether the measurer has metrics for fontID
	Knows(fontID string) bool
}

// CoreFontMeasurer measures with the AFM metrics of the 14 standard PDF fonts.
// Core fonts are single byte; text outside Latin-1 cannot be measured.
type CoreFontMeasurer struct{}

// Knows implements Measurer
func (CoreFontMeasurer) Knows(fontID string) bool {
	return font.IsCoreFont(fontID)
}

// Measure implements Measurer
func (m CoreFontMeasurer) Measure(text, fontID string, size float64) (float64, error) {
	if !m.Knows(fontID) {
		return 0, NewPDFErrorWithDetails(ErrMeasureFailed, "not a core font", fontID, nil)
	}
	latin1, err := toLatin1(text)
	if err != nil {
		return 0, NewPDFErrorWithDetails(ErrMeasureFailed, "glyph not covered by core font", fontID, err)
	}
	// pdfcpu takes an integer size; measure at 1000 and scale.
	return font.TextWidth(latin1, fontID, 1000) * size / 1000, nil
}

func toLatin1(text string) (string, error) {
	b := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xFF {
			return "", fmt.Errorf("rune %q outside Latin-1", r)
		}
		b = append(b, byte(r))
	}
	return string(b), nil
}

// TrueTypeMeasurer measures with glyph advances read from TrueType/OpenType files.
type TrueTypeMeasurer struct {
	mu    sync.RWMutex
	fonts map[string]*sfnt.Font
}

// NewTrueTypeMeasurer creates an empty measurer
func NewTrueTypeMeasurer() *TrueTypeMeasurer {
	return &TrueTypeMeasurer{fonts: map[string]*sfnt.Font{}}
}

// LoadFile parses a font file and registers it under its PostScript name
func (m *TrueTypeMeasurer) LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return m.Load(data)
}

// Load parses font data and registers it under its PostScript name
func (m *TrueTypeMeasurer) Load(data []byte) (string, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse font: %w", err)
	}
	id, err := f.Name(nil, sfnt.NameIDPostScript)
	if err != nil || id == "" {
		return "", fmt.Errorf("font has no PostScript name: %v", err)
	}
	m.Register(id, f)
	return id, nil
}

// Register makes f available under id
func (m *TrueTypeMeasurer) Register(id string, f *sfnt.Font) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fonts[id] = f
}

// Knows implements Measurer
func (m *TrueTypeMeasurer) Knows(fontID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.fonts[fontID]
	return ok
}

// Measure implements Measurer. A rune without a glyph is an error.
func (m *TrueTypeMeasurer) Measure(text, fontID string, size float64) (float64, error) {
	m.mu.RLock()
	f, ok := m.fonts[fontID]
	m.mu.RUnlock()
	if !ok {
		return 0, NewPDFErrorWithDetails(ErrMeasureFailed, "font not loaded", fontID, nil)
	}

	var buf sfnt.Buffer
	upem := int(f.UnitsPerEm())
	if upem <= 0 {
		return 0, NewPDFErrorWithDetails(ErrMeasureFailed, "invalid units per em", fontID, nil)
	}
	// With ppem == unitsPerEm advances come back in font units.
	ppem := fixed.I(upem)

	var total fixed.Int26_6
	for _, r := range text {
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil {
			return 0, NewPDFErrorWithDetails(ErrMeasureFailed, "glyph lookup failed", fontID, err)
		}
		if idx == 0 {
			return 0, NewPDFErrorWithDetails(ErrMeasureFailed, "missing glyph", fmt.Sprintf("%s %q", fontID, r), nil)
		}
		adv, err := f.GlyphAdvance(&buf, idx, ppem, xfont.HintingNone)
		if err != nil {
			return 0, NewPDFErrorWithDetails(ErrMeasureFailed, "glyph advance failed", fontID, err)
		}
		total += adv
	}
	return float64(total) / 64 / float64(upem) * size, nil
}

// MeasurerChain asks each measurer in turn. A font id no measurer knows is measured
// with Fallback when set, mirroring how rendering degrades to the default font.
type MeasurerChain struct {
	Measurers []Measurer
	Fallback  string
}

// Knows implements Measurer
func (c *MeasurerChain) Knows(fontID string) bool {
	for _, m := range c.Measurers {
		if m.Knows(fontID) {
			return true
		}
	}
	return false
}

// Measure implements Measurer
func (c *MeasurerChain) Measure(text, fontID string, size float64) (float64, error) {
	for _, m := range c.Measurers {
		if m.Knows(fontID) {
			return m.Measure(text, fontID, size)
		}
	}
	if c.Fallback != "" && c.Fallback != fontID {
		return c.Measure(text, c.Fallback, size)
	}
	return 0, NewPDFErrorWithDetails(ErrMeasureFailed, "no metrics for font", fontID, nil)
}

// NewDefaultMeasurer combines core font metrics with tt, falling back to defaultFont.
func NewDefaultMeasurer(tt *TrueTypeMeasurer, defaultFont string) *MeasurerChain {
	ms := []Measurer{CoreFontMeasurer{}}
	if tt != nil {
		ms = append(ms, tt)
	}
	return &MeasurerChain{Measurers: ms, Fallback: defaultFont}
}

package pdf

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var letter = pageGeometry{width: 612, height: 792}

func glyph(s string, x, y, w, size float64) pdf.Text {
	return pdf.Text{Font: "F1", FontSize: size, X: x, Y: y, W: w, S: s}
}

func TestGroupGlyphs(t *testing.T) {
	glyphs := []pdf.Text{
		glyph("H", 10, 700, 7, 10),
		glyph("i", 17, 700, 3, 10),
		// a word gap of 4pt at 10pt
		glyph("t", 24, 700, 3, 10),
		glyph("o", 27, 700, 5, 10),
		// next line
		glyph("N", 10, 686, 7, 10),
		glyph("o", 17, 686, 5, 10),
	}
	runs := groupGlyphs(glyphs, letter)

	require.Len(t, runs, 2)
	assert.Equal(t, "Hi to", runs[0].Text)
	assert.Equal(t, "No", runs[1].Text)

	r := runs[0]
	assert.Equal(t, 10.0, r.FontSize)
	assert.Equal(t, "F1", r.FontName)
	assert.Equal(t, Point{X: 10, Y: 92}, r.Origin)
	assert.InDelta(t, 10, r.Box.X0, 1e-9)
	assert.InDelta(t, 32, r.Box.X1, 1e-9)
	assert.InDelta(t, 84, r.Box.Y0, 1e-9)
	assert.InDelta(t, 94, r.Box.Y1, 1e-9)
	assert.True(t, r.IsValidTextRun())
}

func TestGroupGlyphs_SplitsRuns(t *testing.T) {
	tests := []struct {
		name   string
		second pdf.Text
	}{
		{"font change", pdf.Text{Font: "F2", FontSize: 10, X: 17, Y: 700, W: 5, S: "b"}},
		{"size change", glyph("b", 17, 700, 5, 12)},
		{"baseline change", glyph("b", 17, 698, 5, 10)},
		{"wide gap", glyph("b", 30, 700, 5, 10)},
		{"moves backwards", glyph("b", 2, 700, 5, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := groupGlyphs([]pdf.Text{glyph("a", 10, 700, 7, 10), tt.second}, letter)
			require.Len(t, runs, 2)
			assert.Equal(t, "a", runs[0].Text)
			assert.Equal(t, "b", runs[1].Text)
		})
	}
}

func TestGroupGlyphs_KeepsTolerances(t *testing.T) {
	runs := groupGlyphs([]pdf.Text{
		glyph("a", 10, 700, 5, 10),
		glyph("b", 15, 700.3, 5, 10.05),
		glyph("c", 20.5, 700, 5, 10),
	}, letter)
	require.Len(t, runs, 1)
	assert.Equal(t, "abc", runs[0].Text)
}

func TestGroupGlyphs_DropsNoise(t *testing.T) {
	runs := groupGlyphs([]pdf.Text{
		glyph("", 10, 700, 0, 10),
		glyph(" ", 10, 600, 3, 10),
		glyph("x", 10, 500, 5, 0),
		glyph("\x01\x02\x03", 10, 400, 5, 10),
		glyph("/N 3 def", 10, 300, 30, 10),
		glyph("kept", 10, 200, 20, 10),
	}, letter)
	require.Len(t, runs, 1)
	assert.Equal(t, "kept", runs[0].Text)
}

func TestGroupGlyphs_Empty(t *testing.T) {
	assert.Empty(t, groupGlyphs(nil, letter))
}

func TestPageGeometry_ToPage(t *testing.T) {
	g := pageGeometry{llx: 20, lly: 30, width: 500, height: 700}
	assert.Equal(t, Point{X: 0, Y: 700}, g.toPage(20, 30))
	assert.Equal(t, Point{X: 500, Y: 0}, g.toPage(520, 730))
	assert.Equal(t, Point{X: 80, Y: 600}, g.toPage(100, 130))
}

func TestIsPostScriptCode(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"/N 3 0 R def", true},
		{"/Helvetica findfont def", true},
		{"null def", true},
		{"@stx 12", true},
		{"gsave 1 0 0 setrgbcolor grestore", true},
		{"Fill in the form and stroke the cat", false},
		{"Results / discussion", false},
		{"gsave", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, isPostScriptCode(tt.text))
		})
	}
}

func TestHasExcessiveNonPrintable(t *testing.T) {
	assert.False(t, hasExcessiveNonPrintable("Hello, world"))
	assert.False(t, hasExcessiveNonPrintable("tab\tand\nnewline"))
	assert.False(t, hasExcessiveNonPrintable("中文文本"))
	assert.True(t, hasExcessiveNonPrintable("\x01\x02abc"))
	assert.True(t, hasExcessiveNonPrintable("a\u0085"))
	assert.False(t, hasExcessiveNonPrintable(""))
}

func TestOpenPDFParser_Errors(t *testing.T) {
	_, err := OpenPDFParser("/definitely/not/here.pdf")
	assert.Equal(t, ErrPDFNotFound, ErrorCode(err))

	_, err = OpenPDFParser(t.TempDir())
	assert.Equal(t, ErrPDFInvalid, ErrorCode(err))
}

func TestWithAdvances(t *testing.T) {
	glyphs := withAdvances([]pdf.Text{
		glyph("a", 10, 700, 0, 10),
		glyph("b", 10, 700, 0, 10),
		// a 2pt displacement from a TJ adjustment
		glyph("c", 12, 700, 0, 10),
		glyph("中", 12, 700, 0, 10),
		// metrics from the font are kept
		glyph("d", 40, 700, 6, 10),
		// a new line starts where the reader put it
		glyph("e", 10, 686, 0, 10),
	})

	xs := make([]float64, len(glyphs))
	ws := make([]float64, len(glyphs))
	for i, g := range glyphs {
		xs[i], ws[i] = g.X, g.W
	}
	assert.Equal(t, []float64{10, 15, 22, 27, 40, 10}, xs)
	assert.Equal(t, []float64{5, 5, 5, 10, 6, 5}, ws)
}

func TestEstimateAdvance(t *testing.T) {
	helv := pdf.Text{Font: "Helvetica", FontSize: 12, S: "Hello"}
	assert.InDelta(t, font.TextWidth("Hello", "Helvetica", 1000)*12/1000, estimateAdvance(helv), 1e-9)

	assert.Zero(t, estimateAdvance(pdf.Text{Font: "Helvetica", FontSize: 12, S: "\n"}))
	assert.Equal(t, 6.0, estimateAdvance(glyph("x", 0, 0, 0, 12)))
	assert.Equal(t, 24.0, estimateAdvance(glyph("한국", 0, 0, 0, 12)))
}

func TestDeviceColor(t *testing.T) {
	tests := []struct {
		name string
		op   string
		args []float64
		want Color
		ok   bool
	}{
		{"gray", "g", []float64{0.5}, 0x808080, true},
		{"rgb", "rg", []float64{1, 0, 0}, 0xFF0000, true},
		{"cmyk", "k", []float64{0, 1, 1, 0}, 0xFF0000, true},
		{"cmyk black", "k", []float64{0, 0, 0, 1}, 0x000000, true},
		{"rgb via sc", "sc", []float64{0, 0, 1}, 0x0000FF, true},
		{"tint via scn", "scn", []float64{1}, 0, false},
		{"wrong arity", "rg", []float64{1, 0}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := deviceColor(tt.op, tt.args)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	// a pattern name is not a color
	_, ok := operands([]pdf.Value{{}})
	assert.False(t, ok)
}

func TestExtractRuns_InheritedMediaBox(t *testing.T) {
	path := writeTestPDF(t, testPDF{
		content: "BT /F1 12 Tf 72 700 Td (Hello World) Tj ET",
		treeBox: "[0 0 595 842]",
	})
	parser, err := OpenPDFParser(path)
	require.NoError(t, err)
	defer parser.Close()

	_, geom, err := parser.page(1)
	require.NoError(t, err)
	assert.Equal(t, pageGeometry{width: 595, height: 842}, geom)

	runs, err := parser.ExtractRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.InDelta(t, 142, runs[0].Origin.Y, 1e-9)
}

// Standard 14 fonts may omit /Widths; runs still get their real extent.
func TestExtractRuns_CoreFontWithoutWidths(t *testing.T) {
	runs := extractTestPDF(t, testPDF{
		content: "BT /F1 12 Tf 72 700 Td (Hello World) Tj ET",
		pageBox: "[0 0 612 792]",
	})

	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, "Hello World", r.Text)
	assert.Equal(t, "Helvetica", r.FontName)
	assert.InDelta(t, 72, r.Box.X0, 1e-9)
	assert.InDelta(t, font.TextWidth("Hello World", "Helvetica", 1000)*12/1000, r.Box.Width(), 1e-6)
	assert.InDelta(t, 12, r.Box.Height(), 1e-9)
	assert.Greater(t, r.Box.Width(), 50.0)
	assert.True(t, r.IsValidTextRun())
}

func TestExtractRuns_FillColor(t *testing.T) {
	runs := extractTestPDF(t, testPDF{
		content: "BT /F1 12 Tf 72 700 Td (Plain) Tj ET " +
			"q 1 0 0 rg BT /F1 12 Tf 72 680 Td (Red) Tj ET Q " +
			"BT /F1 12 Tf 72 660 Td (Back) Tj ET " +
			"0.5 g BT /F1 12 Tf 72 640 Td [(ab)] TJ 0 0 1 rg (cd) Tj ET",
		pageBox: "[0 0 612 792]",
	})

	got := map[string]Color{}
	var texts []string
	for _, r := range runs {
		texts = append(texts, r.Text)
		got[r.Text] = r.Color
	}
	assert.Equal(t, []string{"Plain", "Red", "Back", "ab", "cd"}, texts)
	assert.Equal(t, map[string]Color{
		"Plain": 0x000000,
		"Red":   0xFF0000,
		"Back":  0x000000,
		"ab":    0x808080,
		"cd":    0x0000FF,
	}, got)
}

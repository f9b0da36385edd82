package pdf

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/font"
)

// Glyph grouping thresholds, relative to the font size unless noted.
const (
	sizeTolerance     = 0.1 // points
	baselineTolerance = 0.5 // points
	maxGlyphGap       = 0.6
	wordGap           = 0.15
	maxGlyphOverlap   = 0.5
	// ascent and descent used to build a run box from its baseline
	runAscent  = 0.8
	runDescent = 0.2
)

// pageGeometry converts PDF user space (origin bottom-left) into page space
// (origin top-left of the media box).
type pageGeometry struct {
	llx, lly float64
	width    float64
	height   float64
}

func geometryFromMediaBox(mb pdf.Value) pageGeometry {
	if mb.Len() != 4 {
		// US Letter, the PDF default when no box is given
		return pageGeometry{width: 612, height: 792}
	}
	x0, y0 := mb.Index(0).Float64(), mb.Index(1).Float64()
	x1, y1 := mb.Index(2).Float64(), mb.Index(3).Float64()
	return pageGeometry{
		llx:    math.Min(x0, x1),
		lly:    math.Min(y0, y1),
		width:  math.Abs(x1 - x0),
		height: math.Abs(y1 - y0),
	}
}

// toPage converts a user space point
func (g pageGeometry) toPage(x, y float64) Point {
	return Point{X: x - g.llx, Y: g.height - (y - g.lly)}
}

// PDFParser 负责用 ledongthuc/pdf 读取页面文本模型
type PDFParser struct {
	file   *os.File
	reader *pdf.Reader
}

// OpenPDFParser opens path for reading
func OpenPDFParser(path string) (*PDFParser, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewPDFError(ErrPDFNotFound, "文件不存在，请检查路径", err)
		}
		return nil, NewPDFError(ErrPDFInvalid, "无法访问文件", err)
	}
	if fileInfo.IsDir() {
		return nil, NewPDFError(ErrPDFInvalid, "路径指向目录而非文件", nil)
	}

	f, r, err := openReader(path)
	if err != nil {
		return nil, NewPDFError(ErrPDFInvalid, "无法打开 PDF 文件", err)
	}
	return &PDFParser{file: f, reader: r}, nil
}

// openReader guards against panics inside the reader on malformed files
func openReader(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()
	return pdf.Open(path)
}

// NumPage returns the page count
func (p *PDFParser) NumPage() int {
	return p.reader.NumPage()
}

// Close releases the underlying file
func (p *PDFParser) Close() error {
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	return err
}

// page returns the ledongthuc page and its geometry for a 1-based page number
func (p *PDFParser) page(number int) (pdf.Page, pageGeometry, error) {
	pg := p.reader.Page(number)
	if pg.V.IsNull() {
		return pdf.Page{}, pageGeometry{}, NewPDFErrorWithPage(ErrPDFInvalid, "page not found", number, nil)
	}
	return pg, geometryFromMediaBox(inheritedKey(pg.V, "MediaBox")), nil
}

// inheritedKey looks key up on the page and then on its ancestors in the page tree
func inheritedKey(v pdf.Value, key string) pdf.Value {
	for ; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
	}
	return pdf.Value{}
}

// ExtractRuns reads the glyphs of a page and groups them into runs
func (p *PDFParser) ExtractRuns(number int) (runs []TextRun, err error) {
	pg, geom, err := p.page(number)
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			runs = nil
			err = NewPDFErrorWithDetails(ErrExtractFailed, "failed to decode page content", fmt.Sprint(rec), nil)
		}
	}()

	if pg.V.Key("Contents").Kind() == pdf.Null {
		return nil, nil
	}
	content := pg.Content()
	colors := fillColors(pg)
	if len(colors) != len(content.Text) {
		colors = nil
	}
	return groupColoredGlyphs(withAdvances(content.Text), colors, geom), nil
}

// groupGlyphs groups glyphs drawn in the default black fill
func groupGlyphs(glyphs []pdf.Text, geom pageGeometry) []TextRun {
	return groupColoredGlyphs(glyphs, nil, geom)
}

// groupColoredGlyphs merges glyphs into runs. Consecutive glyphs join a run when they
// share font, size and fill color, sit on the same baseline and follow each other
// horizontally. Glyphs keep their content stream order. colors is parallel to glyphs;
// missing entries are black.
func groupColoredGlyphs(glyphs []pdf.Text, colors []Color, geom pageGeometry) []TextRun {
	var runs []TextRun

	var cur *glyphRun
	flush := func() {
		if cur == nil {
			return
		}
		if r, ok := cur.toTextRun(geom); ok {
			runs = append(runs, r)
		}
		cur = nil
	}

	for i, g := range glyphs {
		// the reader appends a line break marker after every TJ
		if g.S == "" || g.S == "\n" || g.FontSize <= 0 {
			continue
		}
		var color Color
		if i < len(colors) {
			color = colors[i]
		}
		if cur != nil && cur.color == color && cur.accepts(g) {
			cur.add(g)
			continue
		}
		flush()
		cur = newGlyphRun(g, color)
	}
	flush()

	return runs
}

type glyphRun struct {
	text     strings.Builder
	font     string
	size     float64
	baseline float64
	x0, x1   float64
	color    Color
}

func newGlyphRun(g pdf.Text, color Color) *glyphRun {
	r := &glyphRun{font: g.Font, size: g.FontSize, baseline: g.Y, x0: g.X, x1: g.X + g.W, color: color}
	r.text.WriteString(g.S)
	return r
}

func (r *glyphRun) accepts(g pdf.Text) bool {
	if g.Font != r.font || math.Abs(g.FontSize-r.size) > sizeTolerance {
		return false
	}
	if math.Abs(g.Y-r.baseline) > baselineTolerance {
		return false
	}
	gap := g.X - r.x1
	return gap <= maxGlyphGap*r.size && gap >= -maxGlyphOverlap*r.size
}

func (r *glyphRun) add(g pdf.Text) {
	gap := g.X - r.x1
	s := r.text.String()
	if gap >= wordGap*r.size && !strings.HasSuffix(s, " ") && !strings.HasPrefix(g.S, " ") {
		r.text.WriteByte(' ')
	}
	r.text.WriteString(g.S)
	if end := g.X + g.W; end > r.x1 {
		r.x1 = end
	}
}

func (r *glyphRun) toTextRun(geom pageGeometry) (TextRun, bool) {
	text := strings.TrimSpace(r.text.String())
	if text == "" || isPostScriptCode(text) || hasExcessiveNonPrintable(text) {
		return TextRun{}, false
	}
	origin := geom.toPage(r.x0, r.baseline)
	end := geom.toPage(r.x1, r.baseline)
	return TextRun{
		Text: text,
		Box: Rect{
			X0: origin.X,
			Y0: origin.Y - runAscent*r.size,
			X1: end.X,
			Y1: origin.Y + runDescent*r.size,
		},
		Origin:   origin,
		FontSize: r.size,
		Color:    r.color,
		FontName: r.font,
	}, true
}

// withAdvances estimates an advance for glyphs whose font carries no width table.
// The reader leaves the pen in place for such glyphs, so they are laid out again
// left to right, keeping any explicit displacement between them.
func withAdvances(glyphs []pdf.Text) []pdf.Text {
	out := make([]pdf.Text, len(glyphs))
	var pen float64
	for i, g := range glyphs {
		out[i] = g
		if g.W != 0 || g.FontSize <= 0 {
			continue
		}
		if i > 0 && glyphs[i-1].W == 0 && sameLine(glyphs[i-1], g) {
			delta := g.X - glyphs[i-1].X
			if delta <= maxGlyphGap*g.FontSize && delta >= -maxGlyphOverlap*g.FontSize {
				out[i].X = pen + delta
			}
		}
		out[i].W = estimateAdvance(g)
		pen = out[i].X + out[i].W
	}
	return out
}

func sameLine(a, b pdf.Text) bool {
	return a.Font == b.Font &&
		math.Abs(a.FontSize-b.FontSize) <= sizeTolerance &&
		math.Abs(a.Y-b.Y) <= baselineTolerance
}

// estimateAdvance measures standard 14 fonts with their AFM metrics and
// falls back to half an em per glyph, a full em for CJK.
func estimateAdvance(g pdf.Text) float64 {
	s := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, g.S)
	if s == "" {
		return 0
	}
	if font.IsCoreFont(g.Font) {
		if w, err := (CoreFontMeasurer{}).Measure(s, g.Font, g.FontSize); err == nil {
			return w
		}
	}
	var em float64
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			em++
		} else {
			em += 0.5
		}
	}
	return em * g.FontSize
}

// fillColors replays the content stream and returns the non-stroking color of
// every glyph the reader emits, in the same order. Only device color operators
// are tracked. It returns nil when the stream cannot be replayed.
func fillColors(pg pdf.Page) (colors []Color) {
	defer func() {
		if rec := recover(); rec != nil {
			colors = nil
		}
	}()

	var (
		enc   pdf.TextEncoding
		fill  Color
		saved []Color
	)
	show := func(raw string) {
		s := raw
		if enc != nil {
			s = enc.Decode(raw)
		}
		for n := utf8.RuneCountInString(s); n > 0; n-- {
			colors = append(colors, fill)
		}
	}

	pdf.Interpret(pg.V.Key("Contents"), func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		switch op {
		case "q":
			saved = append(saved, fill)
		case "Q":
			if len(saved) > 0 {
				fill = saved[len(saved)-1]
				saved = saved[:len(saved)-1]
			}
		case "cs":
			fill = 0x000000
		case "g", "rg", "k", "sc", "scn":
			if v, ok := operands(args); ok {
				if c, ok := deviceColor(op, v); ok {
					fill = c
				}
			}
		case "Tf":
			if len(args) == 2 {
				enc = pg.Font(args[0].Name()).Encoder()
			}
		case "Tj", "'":
			if len(args) == 1 {
				show(args[0].RawString())
			}
		case "\"":
			if len(args) == 3 {
				show(args[2].RawString())
			}
		case "TJ":
			if len(args) == 1 {
				v := args[0]
				for i := 0; i < v.Len(); i++ {
					if x := v.Index(i); x.Kind() == pdf.String {
						show(x.RawString())
					}
				}
			}
			show("\n")
		}
	})
	return colors
}

// operands returns numeric operator arguments
func operands(args []pdf.Value) ([]float64, bool) {
	v := make([]float64, len(args))
	for i, a := range args {
		if k := a.Kind(); k != pdf.Integer && k != pdf.Real {
			return nil, false
		}
		v[i] = a.Float64()
	}
	return v, true
}

// deviceColor converts gray, RGB and CMYK operands into a packed color.
// Single component sc/scn operands are left alone since they are usually a tint.
func deviceColor(op string, v []float64) (Color, bool) {
	switch {
	case op == "g" && len(v) == 1:
		return packRGB(RGB{R: v[0], G: v[0], B: v[0]}), true
	case op != "g" && op != "k" && len(v) == 3:
		return packRGB(RGB{R: v[0], G: v[1], B: v[2]}), true
	case op != "g" && op != "rg" && len(v) == 4:
		k := 1 - v[3]
		return packRGB(RGB{R: (1 - v[0]) * k, G: (1 - v[1]) * k, B: (1 - v[2]) * k}), true
	}
	return 0, false
}

func packRGB(c RGB) Color {
	return Color(channel(c.R))<<16 | Color(channel(c.G))<<8 | Color(channel(c.B))
}

// isPostScriptCode detects operator soup that some producers leave in text objects
func isPostScriptCode(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)

	if strings.Contains(text, "/") && (strings.Contains(text, " def ") || strings.HasSuffix(text, " def")) {
		return true
	}
	if strings.Contains(lower, "null def") || strings.Contains(text, "@stx") || strings.Contains(text, "@etx") {
		return true
	}

	operators := 0
	for _, op := range []string{"currentpoint", "gsave", "grestore", "newpath", "closepath", "setrgbcolor", "setlinewidth", "showpage"} {
		if strings.Contains(lower, op) {
			operators++
		}
	}
	return operators >= 2
}

// hasExcessiveNonPrintable checks if more than 10% of the runes are control characters
func hasExcessiveNonPrintable(text string) bool {
	total, bad := 0, 0
	for _, r := range text {
		total++
		if (r < 32 && r != '\n' && r != '\r' && r != '\t') || (r >= 0x7F && r <= 0x9F) {
			bad++
		}
	}
	return total > 0 && float64(bad)/float64(total) > 0.1
}

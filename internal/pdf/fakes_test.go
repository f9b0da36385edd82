package pdf

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing/quick"
	"unicode/utf8"
)

func quickConfig() *quick.Config {
	return &quick.Config{
		MaxCount: 100,
		Rand:     rand.New(rand.NewSource(42)),
	}
}

// fakeTranslator answers with fn, or "<target>:<text>" by default
type fakeTranslator struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, text, source, target string) (string, error)
	calls []string
}

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, text, source, target)
	}
	return target + ":" + text, nil
}

func (f *fakeTranslator) Name() string { return "fake" }

func (f *fakeTranslator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func dictTranslator(dict map[string]string) *fakeTranslator {
	return &fakeTranslator{fn: func(_ context.Context, text, _, _ string) (string, error) {
		if out, ok := dict[text]; ok {
			return out, nil
		}
		return "", errors.New("unknown text")
	}}
}

// runeMeasurer gives every rune the same advance: perEm * size
type runeMeasurer struct {
	perEm float64
	fail  map[string]bool
}

func (m runeMeasurer) Knows(fontID string) bool { return !m.fail[fontID] }

func (m runeMeasurer) Measure(text, fontID string, size float64) (float64, error) {
	if m.fail[fontID] {
		return 0, NewPDFErrorWithDetails(ErrMeasureFailed, "no metrics", fontID, nil)
	}
	return float64(utf8.RuneCountInString(text)) * m.perEm * size, nil
}

// measureFunc adapts a function to Measurer
type measureFunc func(text, fontID string, size float64) (float64, error)

func (f measureFunc) Knows(string) bool { return true }

func (f measureFunc) Measure(text, fontID string, size float64) (float64, error) {
	return f(text, fontID, size)
}

type pageOp struct {
	kind  string // "paint" or "insert"
	box   Rect
	fill  RGB
	at    Point
	text  string
	size  float64
	color RGB
	font  string
}

// fakePage records every mutation in call order
type fakePage struct {
	number    int
	runs      []TextRun
	readErr   error
	failFonts map[string]bool
	paintErr  error
	ops       []pageOp
}

func (p *fakePage) Number() int { return p.number }

func (p *fakePage) TextRuns() ([]TextRun, error) {
	if p.readErr != nil {
		return nil, p.readErr
	}
	out := make([]TextRun, len(p.runs))
	copy(out, p.runs)
	return out, nil
}

func (p *fakePage) PaintRect(box Rect, fill RGB) error {
	if p.paintErr != nil {
		return p.paintErr
	}
	p.ops = append(p.ops, pageOp{kind: "paint", box: box, fill: fill})
	return nil
}

func (p *fakePage) InsertText(at Point, text string, size float64, color RGB, fontID string) error {
	if p.failFonts[fontID] {
		return errors.New("font not available: " + fontID)
	}
	p.ops = append(p.ops, pageOp{kind: "insert", at: at, text: text, size: size, color: color, font: fontID})
	return nil
}

func (p *fakePage) inserts() []pageOp {
	var out []pageOp
	for _, op := range p.ops {
		if op.kind == "insert" {
			out = append(out, op)
		}
	}
	return out
}

type fakeDocument struct {
	pages   []*fakePage
	pageErr map[int]error
	saveErr error
	// onPage runs before a page is handed out
	onPage func(index int)

	savedTo string
	saves   int
	closed  bool
}

func (d *fakeDocument) PageCount() int { return len(d.pages) }

func (d *fakeDocument) Page(index int) (Page, error) {
	if d.onPage != nil {
		d.onPage(index)
	}
	if err := d.pageErr[index]; err != nil {
		return nil, err
	}
	return d.pages[index], nil
}

func (d *fakeDocument) Save(path string) error {
	d.saves++
	if d.saveErr != nil {
		return d.saveErr
	}
	d.savedTo = path
	return nil
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

func openerFor(doc *fakeDocument) Opener {
	return OpenerFunc(func(string) (Document, error) { return doc, nil })
}

func run(text string, x0, y0, x1, y1, size float64) TextRun {
	return TextRun{
		Text:     text,
		Box:      Rect{X0: x0, Y0: y0, X1: x1, Y1: y1},
		Origin:   Point{X: x0, Y: y1 - 0.2*size},
		FontSize: size,
	}
}

package pdf

import (
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// FileOpener opens PDF files from disk: text is read with ledongthuc/pdf, page
// mutations are written with pdfcpu when the document is saved.
type FileOpener struct {
	generator *PDFGenerator
}

// NewFileOpener creates an opener backed by gen, or by a default generator if nil
func NewFileOpener(gen *PDFGenerator) *FileOpener {
	if gen == nil {
		gen = NewPDFGenerator()
	}
	return &FileOpener{generator: gen}
}

// Open implements Opener
func (o *FileOpener) Open(path string) (Document, error) {
	parser, err := OpenPDFParser(path)
	if err != nil {
		return nil, err
	}
	return &fileDocument{
		path:      path,
		parser:    parser,
		generator: o.generator,
		pages:     parser.NumPage(),
		stamps:    map[int][]*model.Watermark{},
	}, nil
}

type fileDocument struct {
	path      string
	parser    *PDFParser
	generator *PDFGenerator
	pages     int

	mu     sync.Mutex
	stamps map[int][]*model.Watermark
}

func (d *fileDocument) PageCount() int {
	return d.pages
}

func (d *fileDocument) Page(index int) (Page, error) {
	if index < 0 || index >= d.pages {
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "page index out of range",
			fmt.Sprintf("index %d, %d pages", index, d.pages), nil)
	}
	number := index + 1
	_, geom, err := d.parser.page(number)
	if err != nil {
		return nil, err
	}
	return &filePage{doc: d, number: number, geom: geom}, nil
}

func (d *fileDocument) addStamp(page int, wm *model.Watermark) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stamps[page] = append(d.stamps[page], wm)
}

// Save writes the input file plus every recorded stamp to path. The reader is
// released first so the input file may be overwritten.
func (d *fileDocument) Save(path string) error {
	if err := d.parser.Close(); err != nil {
		return NewPDFError(ErrSaveFailed, "failed to release input file", err)
	}
	d.mu.Lock()
	stamps := d.stamps
	d.mu.Unlock()
	return d.generator.Write(d.path, path, stamps)
}

func (d *fileDocument) Close() error {
	return d.parser.Close()
}

type filePage struct {
	doc    *fileDocument
	number int
	geom   pageGeometry
}

func (p *filePage) Number() int { return p.number }

func (p *filePage) TextRuns() ([]TextRun, error) {
	return p.doc.parser.ExtractRuns(p.number)
}

func (p *filePage) PaintRect(box Rect, fill RGB) error {
	wm, err := p.doc.generator.coverWatermark(box, fill, p.geom.height)
	if err != nil {
		return NewPDFErrorWithPage(ErrInsertFailed, "failed to build cover", p.number, err)
	}
	p.doc.addStamp(p.number, wm)
	return nil
}

func (p *filePage) InsertText(at Point, text string, size float64, color RGB, fontID string) error {
	wm, err := p.doc.generator.textWatermark(at, text, size, color, fontID, p.geom.height)
	if err != nil {
		return NewPDFErrorWithPage(ErrInsertFailed, "failed to build text stamp", p.number, err)
	}
	p.doc.addStamp(p.number, wm)
	return nil
}

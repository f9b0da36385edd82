package pdf

// Page is one page of an open Document. PaintRect and InsertText mutate the page;
// the changes reach disk when the Document is saved.
type Page interface {
	// Number is the 1-based page number
	Number() int
	// TextRuns enumerates the positioned text runs of the page in content order
	TextRuns() ([]TextRun, error)
	// PaintRect paints an opaque rectangle over box
	PaintRect(box Rect, fill RGB) error
	// InsertText writes text with its baseline starting at at
	InsertText(at Point, text string, size float64, color RGB, fontID string) error
}

// Document is an open PDF owned by a single translation job.
type Document interface {
	PageCount() int
	// Page returns the page at zero based index
	Page(index int) (Page, error)
	// Save writes the document, including all page mutations, to path
	Save(path string) error
	Close() error
}

// Opener opens documents for a translation job
type Opener interface {
	Open(path string) (Document, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(path string) (Document, error)

// Open implements Opener
func (f OpenerFunc) Open(path string) (Document, error) {
	return f(path)
}

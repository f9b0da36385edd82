package pdf

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointSize(t *testing.T) {
	tests := []struct {
		size float64
		want int
	}{
		{12, 12},
		{11.9, 11},
		{1.2, 1},
		{0.4, 1},
		{0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pointSize(tt.size), "size %v", tt.size)
	}
}

func TestSolidPNG(t *testing.T) {
	data, err := solidPNG(10, 2.1, RGB{R: 1, G: 1, B: 1})
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 10*coverResolution, cfg.Width)
	assert.Equal(t, 9, cfg.Height)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff, 0xffff}, []uint32{r, g, b, a})

	// degenerate boxes still produce a pixel
	data, err = solidPNG(0, 0, White)
	require.NoError(t, err)
	cfg, err = png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Width)
	assert.Equal(t, 1, cfg.Height)
}

func TestCheckStampFont(t *testing.T) {
	assert.NoError(t, checkStampFont("Hola", DefaultLatinFont))
	assert.NoError(t, checkStampFont("Grüße", "Times-Roman"))
	assert.Error(t, checkStampFont("你好", DefaultLatinFont))
	assert.Error(t, checkStampFont("x", ""))
	assert.Error(t, checkStampFont("x", "NoSuchFont-Regular"))
}

func TestEscapeStampText(t *testing.T) {
	assert.Equal(t, "a b", escapeStampText("a\r\nb"))
	assert.Equal(t, "plain", escapeStampText("plain"))
}

func TestGetOutputPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/docs/paper.pdf", "/docs/paper_translated.pdf"},
		{"/docs/paper.PDF", "/docs/paper_translated.PDF"},
		{"/docs/paper", "/docs/paper_translated.pdf"},
		{"report.v2.pdf", "report.v2_translated.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), GetOutputPath(tt.in))
		})
	}
}

func TestFilePage_RecordsStamps(t *testing.T) {
	doc := &fileDocument{generator: NewPDFGenerator(), pages: 1, stamps: map[int][]*model.Watermark{}}
	page := &filePage{doc: doc, number: 1, geom: letter}

	require.NoError(t, page.PaintRect(Rect{X0: 10, Y0: 10, X1: 60, Y1: 22}, White))
	require.NoError(t, page.InsertText(Point{X: 10, Y: 20}, "Hola", 12, Black, DefaultLatinFont))
	assert.Len(t, doc.stamps[1], 2)

	// a core font cannot carry CJK text, which lets the compositor fall back
	err := page.InsertText(Point{X: 10, Y: 20}, "你好", 12, Black, DefaultLatinFont)
	assert.Equal(t, ErrInsertFailed, ErrorCode(err))

	err = page.PaintRect(Rect{X0: 10, Y0: 10, X1: 5, Y1: 5}, White)
	assert.Equal(t, ErrInsertFailed, ErrorCode(err))
	assert.Len(t, doc.stamps[1], 2)
}

func TestFileOpener_Errors(t *testing.T) {
	_, err := NewFileOpener(nil).Open(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Equal(t, ErrPDFNotFound, ErrorCode(err))
}

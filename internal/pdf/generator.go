package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// coverResolution is the pixel density of cover images, in pixels per point
const coverResolution = 4

var pdfcpuConfigOnce sync.Once

// ensurePDFCPUConfig makes sure pdfcpu has created its config and user font
// directories before fonts are installed or stamps are rendered.
func ensurePDFCPUConfig() {
	pdfcpuConfigOnce.Do(func() {
		_ = model.NewDefaultConfiguration()
	})
}

// PDFGenerator 负责把页面修改写成 pdfcpu 水印并输出文件
type PDFGenerator struct {
	conf *model.Configuration
}

// NewPDFGenerator creates a generator with pdfcpu's default configuration
func NewPDFGenerator() *PDFGenerator {
	ensurePDFCPUConfig()
	return &PDFGenerator{conf: model.NewDefaultConfiguration()}
}

// coverWatermark builds an opaque image stamp whose bounding box is box.
// pageHeight converts the top-left page space into pdfcpu's bottom-left offsets.
func (g *PDFGenerator) coverWatermark(box Rect, fill RGB, pageHeight float64) (*model.Watermark, error) {
	if !box.IsValid() {
		return nil, fmt.Errorf("invalid cover box %s", box)
	}
	img, err := solidPNG(box.Width(), box.Height(), fill)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("position:bl, offset:%.2f %.2f, scalefactor:%g abs, rotation:0, opacity:1",
		box.X0, pageHeight-box.Y1, 1.0/coverResolution)
	return api.ImageWatermarkForReader(bytes.NewReader(img), desc, true, false, types.POINTS)
}

// textWatermark builds a text stamp whose baseline starts at at
func (g *PDFGenerator) textWatermark(at Point, text string, size float64, c RGB, fontID string, pageHeight float64) (*model.Watermark, error) {
	if err := checkStampFont(text, fontID); err != nil {
		return nil, err
	}
	points := pointSize(size)
	// pdfcpu anchors the text box, not the baseline
	bottom := pageHeight - at.Y - runDescent*float64(points)
	desc := fmt.Sprintf("fontname:%s, points:%d, position:bl, offset:%.2f %.2f, scalefactor:1 abs, rotation:0, opacity:1, fillcolor:%.3f %.3f %.3f",
		fontID, points, at.X, bottom, c.R, c.G, c.B)
	return api.TextWatermark(escapeStampText(text), desc, true, false, types.POINTS)
}

// checkStampFont rejects fonts pdfcpu cannot render and text a core font cannot encode
func checkStampFont(text, fontID string) error {
	if fontID == "" {
		return fmt.Errorf("empty font id")
	}
	if !font.SupportedFont(fontID) {
		return fmt.Errorf("font %s is not installed", fontID)
	}
	if font.IsCoreFont(fontID) {
		if _, err := toLatin1(text); err != nil {
			return fmt.Errorf("font %s: %w", fontID, err)
		}
	}
	return nil
}

// pointSize converts a fitted size to pdfcpu's integral font size
func pointSize(size float64) int {
	p := int(math.Floor(size))
	if p < 1 {
		return 1
	}
	return p
}

// escapeStampText keeps pdfcpu's description parser away from separators in the text.
// Line breaks are flattened since every line is stamped separately.
func escapeStampText(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\n", " ")
	return text
}

// solidPNG renders a w x h point rectangle filled with c
func solidPNG(w, h float64, c RGB) ([]byte, error) {
	pw := int(math.Ceil(w * coverResolution))
	ph := int(math.Ceil(h * coverResolution))
	if pw < 1 {
		pw = 1
	}
	if ph < 1 {
		ph = 1
	}
	fill := color.NRGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: 255}
	img := image.NewNRGBA(image.Rect(0, 0, pw, ph))
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write stamps the watermarks onto inputPath and writes outputPath. Without any
// watermarks the document is rewritten unchanged.
func (g *PDFGenerator) Write(inputPath, outputPath string, stamps map[int][]*model.Watermark) error {
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return NewPDFError(ErrSaveFailed, "无法创建输出目录", err)
		}
	}

	if len(stamps) == 0 {
		ctx, err := api.ReadContextFile(inputPath)
		if err != nil {
			return NewPDFError(ErrSaveFailed, "无法读取 PDF 文件", err)
		}
		if err := api.WriteContextFile(ctx, outputPath); err != nil {
			return NewPDFError(ErrSaveFailed, "无法写入 PDF 文件", err)
		}
		return nil
	}

	if err := api.AddWatermarksSliceMapFile(inputPath, outputPath, stamps, g.conf); err != nil {
		return NewPDFError(ErrSaveFailed, "应用页面修改失败", err)
	}
	return nil
}

// PageCount returns the number of pages of a PDF file
func (g *PDFGenerator) PageCount(pdfPath string) (int, error) {
	n, err := api.PageCountFile(pdfPath)
	if err != nil {
		return 0, NewPDFError(ErrPDFInvalid, "无法读取页数", err)
	}
	return n, nil
}

// ValidateOutput 验证生成的 PDF 文件
func (g *PDFGenerator) ValidateOutput(pdfPath string) error {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return NewPDFError(ErrPDFNotFound, "生成的 PDF 文件不存在", err)
		}
		return NewPDFError(ErrPDFInvalid, "无法访问生成的 PDF 文件", err)
	}

	if fileInfo.Size() == 0 {
		return NewPDFError(ErrGenerateFailed, "生成的 PDF 文件为空", nil)
	}

	if err := api.ValidateFile(pdfPath, g.conf); err != nil {
		return NewPDFError(ErrPDFInvalid, "生成的 PDF 文件格式无效", err)
	}

	return nil
}

// ValidatePageCount checks that outputPath kept every page of inputPath
func (g *PDFGenerator) ValidatePageCount(inputPath, outputPath string) error {
	want, err := g.PageCount(inputPath)
	if err != nil {
		return err
	}
	got, err := g.PageCount(outputPath)
	if err != nil {
		return err
	}
	if want != got {
		return NewPDFErrorWithDetails(ErrGenerateFailed, "页数不一致",
			fmt.Sprintf("input has %d pages, output has %d", want, got), nil)
	}
	return nil
}

// ValidateTranslation checks output structurally and against the page count of input.
// Its signature matches PDFTranslatorConfig.Validate.
func (g *PDFGenerator) ValidateTranslation(input, output string) error {
	if err := g.ValidateOutput(output); err != nil {
		return err
	}
	return g.ValidatePageCount(input, output)
}

// GetOutputPath generates an output path for the translated PDF
func GetOutputPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".pdf"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_translated%s", name, ext))
}

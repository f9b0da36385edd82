package pdf

import (
	"errors"
	"fmt"
	"math"
)

// Rect is an axis aligned box in page space (origin top-left, y grows downwards).
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns x1-x0
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns y1-y0
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// IsValid reports whether the corners are ordered and finite
func (r Rect) IsValid() bool {
	for _, v := range []float64{r.X0, r.Y0, r.X1, r.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.X1 >= r.X0 && r.Y1 >= r.Y0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.2f,%.2f,%.2f,%.2f)", r.X0, r.Y0, r.X1, r.Y1)
}

// Point is a position in page space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Color is a packed 0xRRGGBB value as reported by the PDF text model
type Color uint32

// RGB holds color components in [0,1]
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// White and Black are the fills used by the compositor and the extractor default
var (
	White = RGB{R: 1, G: 1, B: 1}
	Black = RGB{}
)

// Decompose splits the packed value into three components in [0,1]
func (c Color) Decompose() RGB {
	return RGB{
		R: float64((c>>16)&255) / 255,
		G: float64((c>>8)&255) / 255,
		B: float64(c&255) / 255,
	}
}

// Hex renders the color as #RRGGBB
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// TextRun 页面上一段连续的同样式文本
type TextRun struct {
	Text     string  `json:"text"`
	Box      Rect    `json:"box"`
	Origin   Point   `json:"origin"` // baseline start, supplied by the extractor
	FontSize float64 `json:"font_size"`
	Color    Color   `json:"color"`
	FontName string  `json:"font_name,omitempty"`
}

// IsValidTextRun checks the run is usable by the planner
func (r *TextRun) IsValidTextRun() bool {
	return r.Text != "" && r.FontSize > 0 && r.Box.IsValid()
}

// Replacement 一条待应用到页面的替换记录
type Replacement struct {
	Box            Rect    `json:"box"`
	InsertionPoint Point   `json:"insertion_point"`
	FontID         string  `json:"font_id"`
	FittedSize     float64 `json:"fitted_size"`
	Color          RGB     `json:"color"`
	TranslatedText string  `json:"translated_text"`
	OriginalText   string  `json:"original_text"`
	// Lines holds the rendered lines; it has more than one entry only under the wrap policy
	Lines []string `json:"lines,omitempty"`
	// Overflow is set when the text still exceeds the box at FittedSize
	Overflow bool `json:"overflow,omitempty"`
	// Translated is false when the gateway fell back to the original text
	Translated bool `json:"translated"`
}

// JobPhase 文档翻译任务状态
type JobPhase string

const (
	JobPhaseNotStarted JobPhase = "not_started"
	JobPhaseProcessing JobPhase = "processing"
	JobPhaseCompleted  JobPhase = "completed"
	JobPhaseFailed     JobPhase = "failed"
)

// IsValidPhase checks if the given phase is a valid JobPhase
func IsValidPhase(phase JobPhase) bool {
	switch phase {
	case JobPhaseNotStarted, JobPhaseProcessing, JobPhaseCompleted, JobPhaseFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible for this job
func (p JobPhase) IsTerminal() bool {
	return p == JobPhaseCompleted || p == JobPhaseFailed
}

// JobStatus is a snapshot of the Document Driver state machine
type JobStatus struct {
	Phase      JobPhase `json:"phase"`
	JobID      string   `json:"job_id,omitempty"`
	PageIndex  int      `json:"page_index"` // zero based, meaningful while processing
	TotalPages int      `json:"total_pages"`
	Error      string   `json:"error,omitempty"`
}

// IsValidStatus checks if the JobStatus has valid values
func (s *JobStatus) IsValidStatus() bool {
	return IsValidPhase(s.Phase) &&
		s.PageIndex >= 0 &&
		(s.TotalPages == 0 || s.PageIndex < s.TotalPages)
}

// PageError records a page that was left untranslated under the skip policy
type PageError struct {
	Page int   `json:"page"` // 1-based
	Err  error `json:"-"`
}

func (e PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e PageError) Unwrap() error { return e.Err }

// TranslationResult 翻译结果
type TranslationResult struct {
	JobID           string      `json:"job_id"`
	InputPath       string      `json:"input_path"`
	OutputPath      string      `json:"output_path"`
	TotalPages      int         `json:"total_pages"`
	TranslatedPages int         `json:"translated_pages"`
	TotalRuns       int         `json:"total_runs"`
	TranslatedRuns  int         `json:"translated_runs"`
	CachedRuns      int         `json:"cached_runs"`
	FallbackInserts int         `json:"fallback_inserts"`
	FailedInserts   int         `json:"failed_inserts"`
	PageErrors      []PageError `json:"page_errors,omitempty"`
}

// PDFErrorCode 错误代码枚举
type PDFErrorCode string

const (
	ErrPDFNotFound     PDFErrorCode = "PDF_NOT_FOUND"
	ErrPDFInvalid      PDFErrorCode = "PDF_INVALID"
	ErrPDFEncrypted    PDFErrorCode = "PDF_ENCRYPTED"
	ErrExtractFailed   PDFErrorCode = "EXTRACT_FAILED"
	ErrTranslateFailed PDFErrorCode = "TRANSLATE_FAILED"
	ErrMeasureFailed   PDFErrorCode = "MEASURE_FAILED"
	ErrInsertFailed    PDFErrorCode = "INSERT_FAILED"
	ErrGenerateFailed  PDFErrorCode = "GENERATE_FAILED"
	ErrSaveFailed      PDFErrorCode = "SAVE_FAILED"
	ErrFontFailed      PDFErrorCode = "FONT_FAILED"
	ErrCancelled       PDFErrorCode = "CANCELLED"
)

// PDFError PDF 处理错误
type PDFError struct {
	Code    PDFErrorCode `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Page    int          `json:"page,omitempty"`
	Cause   error        `json:"-"`
}

// Error implements the error interface for PDFError
func (e *PDFError) Error() string {
	msg := e.Message
	if e.Page > 0 {
		msg = fmt.Sprintf("page %d: %s", e.Page, msg)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error
func (e *PDFError) Unwrap() error {
	return e.Cause
}

// NewPDFError creates a new PDFError with the given code, message, and optional cause
func NewPDFError(code PDFErrorCode, message string, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewPDFErrorWithDetails creates a new PDFError with details
func NewPDFErrorWithDetails(code PDFErrorCode, message, details string, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// NewPDFErrorWithPage creates a new PDFError with page information
func NewPDFErrorWithPage(code PDFErrorCode, message string, page int, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Page:    page,
		Cause:   cause,
	}
}

// ErrorCode extracts the PDFErrorCode from err's chain, or "" when there is none
func ErrorCode(err error) PDFErrorCode {
	var pe *PDFError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

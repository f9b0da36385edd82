package pdf

import (
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"

	"pdf-inplace-translator/internal/logger"
)

// Font ids understood by the PDF writer. The CJK ids are the PostScript names of the
// Noto Sans CJK fonts; they render once the matching TTF/OTF files are installed.
const (
	DefaultLatinFont         = "Helvetica"
	DefaultCJKSimplifiedFont = "NotoSansSC-Regular"
	DefaultJapaneseFont      = "NotoSansJP-Regular"
	DefaultKoreanFont        = "NotoSansKR-Regular"
)

// FontEntry is one language prefix mapping
type FontEntry struct {
	Prefix string `json:"prefix"`
	FontID string `json:"font_id"`
}

// FontRegistry maps target language codes to font ids by prefix.
// A registry is immutable; WithFont returns an extended copy.
type FontRegistry struct {
	defaultFont string
	entries     map[string]string
}

// NewFontRegistry creates an empty registry that always answers defaultFont.
func NewFontRegistry(defaultFont string) *FontRegistry {
	if defaultFont == "" {
		defaultFont = DefaultLatinFont
	}
	return &FontRegistry{
		defaultFont: defaultFont,
		entries:     map[string]string{},
	}
}

// DefaultFontRegistry 默认字体表：中文、日文、韩文使用 CJK 字体，其余使用默认拉丁字体
func DefaultFontRegistry() *FontRegistry {
	return NewFontRegistry(DefaultLatinFont).
		WithFont("zh", DefaultCJKSimplifiedFont).
		WithFont("ja", DefaultJapaneseFont).
		WithFont("ko", DefaultKoreanFont)
}

// WithFont returns a copy of r where language codes starting with prefix select fontID.
// An empty prefix or font id leaves the registry unchanged.
func (r *FontRegistry) WithFont(prefix, fontID string) *FontRegistry {
	prefix = normalizeLang(prefix)
	if prefix == "" || fontID == "" {
		return r
	}
	next := &FontRegistry{
		defaultFont: r.defaultFont,
		entries:     make(map[string]string, len(r.entries)+1),
	}
	for k, v := range r.entries {
		next.entries[k] = v
	}
	next.entries[prefix] = fontID
	return next
}

// WithFonts applies WithFont for every entry of m
func (r *FontRegistry) WithFonts(m map[string]string) *FontRegistry {
	next := r
	for prefix, id := range m {
		next = next.WithFont(prefix, id)
	}
	return next
}

// SelectFont returns the font for targetLang. The longest matching prefix wins;
// codes matching nothing get the default font.
func (r *FontRegistry) SelectFont(targetLang string) string {
	lang := normalizeLang(targetLang)
	best, bestLen := r.defaultFont, 0
	for prefix, id := range r.entries {
		if len(prefix) > bestLen && strings.HasPrefix(lang, prefix) {
			best, bestLen = id, len(prefix)
		}
	}
	return best
}

// DefaultFont returns the Latin fallback font id
func (r *FontRegistry) DefaultFont() string {
	return r.defaultFont
}

// Fonts lists the registered prefixes in lexical order
func (r *FontRegistry) Fonts() []FontEntry {
	out := make([]FontEntry, 0, len(r.entries))
	for p, id := range r.entries {
		out = append(out, FontEntry{Prefix: p, FontID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}

func normalizeLang(code string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(code)), "_", "-")
}

// FontInstalled reports whether the PDF writer can render fontID: a core font or a
// font installed with InstallFonts.
func FontInstalled(fontID string) bool {
	// user fonts are loaded with the configuration
	ensurePDFCPUConfig()
	return fontID != "" && font.SupportedFont(fontID)
}

// InstallFonts loads TrueType/OpenType files for measurement and installs them into
// pdfcpu's user font directory so text watermarks can use them. It returns the font ids
// (PostScript names) that were loaded. Files that fail to load are logged and skipped.
func InstallFonts(paths []string, measurer *TrueTypeMeasurer) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	var ids []string
	var ok []string
	for _, p := range paths {
		id, err := measurer.LoadFile(p)
		if err != nil {
			logger.Warn("failed to load font file", logger.String("path", p), logger.Err(err))
			continue
		}
		ids = append(ids, id)
		ok = append(ok, p)
	}
	if len(ok) == 0 {
		return nil, NewPDFError(ErrFontFailed, "no usable font files", nil)
	}

	ensurePDFCPUConfig()
	if err := api.InstallFonts(ok); err != nil {
		return ids, NewPDFError(ErrFontFailed, "failed to install fonts", err)
	}

	logger.Info("fonts installed", logger.Any("fonts", ids))
	return ids, nil
}

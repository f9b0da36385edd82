package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"pdf-inplace-translator/internal/logger"
)

// DefaultTranslateTimeout bounds a single translation call
const DefaultTranslateTimeout = 30 * time.Second

// Translator is the remote translation service.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Name() string
}

// GatewayResult describes how one run's text was obtained
type GatewayResult struct {
	Text       string
	Translated bool
	FromCache  bool
	Err        error
}

// TranslationGateway wraps a Translator so that a failed call never propagates:
// the caller gets the original text back instead.
type TranslationGateway struct {
	translator Translator
	cache      *TranslationCache
	timeout    time.Duration
}

// NewTranslationGateway creates a gateway. cache may be nil; timeout <= 0 selects the default.
func NewTranslationGateway(t Translator, cache *TranslationCache, timeout time.Duration) *TranslationGateway {
	if timeout <= 0 {
		timeout = DefaultTranslateTimeout
	}
	return &TranslationGateway{translator: t, cache: cache, timeout: timeout}
}

// Translate returns the translation of text, or text itself when translation fails.
func (g *TranslationGateway) Translate(ctx context.Context, text, source, target string) string {
	return g.TranslateRun(ctx, text, source, target).Text
}

// TranslateRun is Translate with the outcome details
func (g *TranslationGateway) TranslateRun(ctx context.Context, text, source, target string) GatewayResult {
	if strings.TrimSpace(text) == "" || SameLanguage(source, target) {
		return GatewayResult{Text: text}
	}

	if g.cache != nil {
		if cached, ok := g.cache.Get(text, source, target); ok {
			return GatewayResult{Text: cached, Translated: true, FromCache: true}
		}
	}

	translated, err := g.call(ctx, text, source, target)
	if err == nil && strings.TrimSpace(translated) == "" {
		err = NewPDFError(ErrTranslateFailed, "empty translation", nil)
	}
	if err != nil {
		logger.Warn("translation failed, keeping original text",
			logger.String("text", abbreviate(text, 40)),
			logger.String("source", source),
			logger.String("target", target),
			logger.Err(err))
		return GatewayResult{Text: text, Err: err}
	}

	translated = norm.NFC.String(strings.TrimSpace(translated))
	if g.cache != nil {
		g.cache.Set(text, source, target, translated)
	}
	return GatewayResult{Text: translated, Translated: true}
}

func (g *TranslationGateway) call(ctx context.Context, text, source, target string) (string, error) {
	if g.translator == nil {
		return "", NewPDFError(ErrTranslateFailed, "no translator configured", nil)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: NewPDFErrorWithDetails(ErrTranslateFailed, "translator panicked", fmt.Sprint(r), nil)}
			}
		}()
		t, err := g.translator.Translate(callCtx, text, source, target)
		done <- reply{text: t, err: err}
	}()

	// A translator that ignores its context must not stall the job.
	select {
	case r := <-done:
		return r.text, r.err
	case <-callCtx.Done():
		return "", NewPDFError(ErrTranslateFailed, "translation timed out", callCtx.Err())
	}
}

// SameLanguage reports whether source and target name the same base language,
// in which case translation is skipped.
func SameLanguage(source, target string) bool {
	s, t := normalizeLang(source), normalizeLang(target)
	if s == "" || t == "" {
		return false
	}
	if s == t {
		return true
	}
	st, err1 := language.Parse(s)
	tt, err2 := language.Parse(t)
	if err1 != nil || err2 != nil {
		return false
	}
	sb, _ := st.Base()
	tb, _ := tt.Base()
	if sb != tb {
		return false
	}
	// zh-Hans and zh-Hant are different targets
	ss, _ := st.Script()
	ts, _ := tt.Script()
	return ss == ts
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Package translator provides the remote translation services used by the PDF
// engine: a LibreTranslate (Argos) HTTP client and an OpenAI compatible chat model.
package translator

import (
	"context"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"pdf-inplace-translator/internal/config"
	"pdf-inplace-translator/internal/logger"
	"pdf-inplace-translator/internal/types"
)

// Provider translates one piece of text. Implementations must be safe for
// concurrent use.
type Provider interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Name() string
}

// New creates the provider selected by cfg.Provider
func New(ctx context.Context, cfg *types.Config) (Provider, error) {
	if cfg == nil {
		return nil, types.NewAppError(types.ErrConfig, "config is nil", nil)
	}
	retry := RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryDelay}

	logger.Debug("creating translation provider", logger.String("provider", cfg.Provider))

	switch strings.ToLower(cfg.Provider) {
	case config.ProviderLibreTranslate, "":
		return NewLibreTranslate(cfg.LibreTranslate.Endpoint, cfg.LibreTranslate.APIKey, retry), nil
	case config.ProviderOpenAI:
		return NewLLMTranslator(ctx, cfg.OpenAI, retry)
	default:
		return nil, types.NewAppErrorWithDetails(types.ErrConfig, "unknown provider", cfg.Provider, nil)
	}
}

// normalizeLanguageCode reduces a BCP 47 tag to the code LibreTranslate expects:
// the base language, with Traditional Chinese mapped to "zt". Unparseable codes
// are passed through lowercased.
func normalizeLanguageCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "auto") {
		return "auto"
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return strings.ToLower(code)
	}
	base, _ := tag.Base()
	if base.String() == "zh" {
		if script, _ := tag.Script(); script.String() == "Hant" {
			return "zt"
		}
	}
	return base.String()
}

// languageName returns the English name of a language code for prompts
func languageName(code string) string {
	if code == "" || strings.EqualFold(code, "auto") {
		return "the source language"
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pdf-inplace-translator/internal/logger"
	"pdf-inplace-translator/internal/types"
)

// DefaultHTTPTimeout bounds a single HTTP exchange with the LibreTranslate server
const DefaultHTTPTimeout = 60 * time.Second

// LibreTranslate talks to a LibreTranslate server, the HTTP front end of Argos Translate.
type LibreTranslate struct {
	endpoint string
	apiKey   string
	client   *http.Client
	retry    RetryPolicy
}

// libreRequest is the body of POST /translate
type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// libreResponse is the body returned by /translate, on success or failure
type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// NewLibreTranslate creates a client for the server at endpoint
func NewLibreTranslate(endpoint, apiKey string, retry RetryPolicy) *LibreTranslate {
	return &LibreTranslate{
		endpoint: strings.TrimSuffix(strings.TrimSpace(endpoint), "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: DefaultHTTPTimeout},
		retry:    retry,
	}
}

// Name implements Provider
func (l *LibreTranslate) Name() string { return "libretranslate" }

// Translate implements Provider
func (l *LibreTranslate) Translate(ctx context.Context, text, source, target string) (string, error) {
	if l.endpoint == "" {
		return "", types.NewAppError(types.ErrConfig, "LibreTranslate endpoint is not configured", nil)
	}
	req := libreRequest{
		Q:      text,
		Source: normalizeLanguageCode(source),
		Target: normalizeLanguageCode(target),
		Format: "text",
		APIKey: l.apiKey,
	}
	return l.retry.do(ctx, l.Name(), func(ctx context.Context) (string, error) {
		return l.doTranslate(ctx, req)
	})
}

func (l *LibreTranslate) doTranslate(ctx context.Context, body libreRequest) (string, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint+"/translate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create HTTP request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", types.NewAppError(types.ErrNetwork, "LibreTranslate request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewAppError(types.ErrNetwork, "failed to read response", err)
	}

	var out libreResponse
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode != http.StatusOK {
		logger.Debug("LibreTranslate returned error status",
			logger.Int("statusCode", resp.StatusCode),
			logger.String("error", out.Error))
		return "", handleHTTPError(resp.StatusCode, out.Error)
	}
	if decodeErr != nil {
		return "", types.NewAppError(types.ErrAPICall, "invalid response format", decodeErr)
	}
	if out.Error != "" {
		return "", types.NewAppErrorWithDetails(types.ErrTranslation, "translation rejected", out.Error, nil)
	}
	if strings.TrimSpace(out.TranslatedText) == "" {
		return "", types.NewAppError(types.ErrTranslation, "empty translation", nil)
	}
	return out.TranslatedText, nil
}

// handleHTTPError maps a non-200 status to an AppError
func handleHTTPError(statusCode int, details string) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return types.NewAppErrorWithDetails(types.ErrAPICall, "API authentication failed", details, nil)
	case statusCode == http.StatusTooManyRequests:
		return types.NewAppErrorWithDetails(types.ErrAPIRateLimit, "API rate limit exceeded", details, nil)
	case statusCode == http.StatusBadRequest:
		return types.NewAppErrorWithDetails(types.ErrAPICall, "invalid API request", details, nil)
	case statusCode >= 500:
		return types.NewAppErrorWithDetails(types.ErrAPICall, "API server error",
			fmt.Sprintf("status %d: %s", statusCode, details), nil)
	default:
		return types.NewAppErrorWithDetails(types.ErrAPICall, "unexpected API response",
			fmt.Sprintf("status %d: %s", statusCode, details), nil)
	}
}

// Package types defines the shared configuration and error types for the PDF translator.
package types

import "time"

// Config 应用配置
type Config struct {
	SourceLang string `json:"source_lang" mapstructure:"source_lang"`
	TargetLang string `json:"target_lang" mapstructure:"target_lang"`

	// Provider selects the translation backend: "libretranslate" or "openai"
	Provider       string               `json:"provider" mapstructure:"provider"`
	LibreTranslate LibreTranslateConfig `json:"libretranslate" mapstructure:"libretranslate"`
	OpenAI         OpenAIConfig         `json:"openai" mapstructure:"openai"`

	TranslateTimeout time.Duration `json:"translate_timeout" mapstructure:"translate_timeout"`
	MaxRetries       int           `json:"max_retries" mapstructure:"max_retries"`
	RetryDelay       time.Duration `json:"retry_delay" mapstructure:"retry_delay"`
	Concurrency      int           `json:"concurrency" mapstructure:"concurrency"`
	// CacheSize caps the per-job translation cache; 0 means unbounded
	CacheSize int `json:"cache_size" mapstructure:"cache_size"`

	MinFittedSizePt float64 `json:"min_fitted_size_pt" mapstructure:"min_fitted_size_pt"`
	OverflowPolicy  string  `json:"overflow_policy" mapstructure:"overflow_policy"`
	PageErrorPolicy string  `json:"page_error_policy" mapstructure:"page_error_policy"`

	DefaultFont string `json:"default_font" mapstructure:"default_font"`
	// Fonts maps a language code prefix to a font id, e.g. "th" -> "NotoSansThai-Regular"
	Fonts map[string]string `json:"fonts" mapstructure:"fonts"`
	// FontFiles are TrueType/OpenType files installed for rendering and measurement
	FontFiles []string `json:"font_files" mapstructure:"font_files"`

	ValidateOutput bool      `json:"validate_output" mapstructure:"validate_output"`
	Log            LogConfig `json:"log" mapstructure:"log"`
}

// LibreTranslateConfig LibreTranslate / Argos 服务配置
type LibreTranslateConfig struct {
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	APIKey   string `json:"api_key" mapstructure:"api_key"`
}

// OpenAIConfig OpenAI 兼容接口配置
type OpenAIConfig struct {
	APIKey  string `json:"api_key" mapstructure:"api_key"`
	BaseURL string `json:"base_url" mapstructure:"base_url"`
	Model   string `json:"model" mapstructure:"model"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
	File  string `json:"file" mapstructure:"file"`
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrNetwork      ErrorCode = "NETWORK_ERROR"
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrAPICall      ErrorCode = "API_CALL_ERROR"
	ErrAPIRateLimit ErrorCode = "API_RATE_LIMIT"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrTranslation  ErrorCode = "TRANSLATION_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Package config provides configuration management for the PDF translator.
// Values are layered by viper: defaults, then the config file, then environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pdf-inplace-translator/internal/logger"
	"pdf-inplace-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "config.yaml"
	// EnvPrefix prefixes every environment override, e.g. PDFTRANSLATE_TARGET_LANG
	EnvPrefix = "PDFTRANSLATE"
	// EnvOpenAIAPIKey is the conventional environment variable for the OpenAI API key
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	// EnvOpenAIBaseURL is the conventional environment variable for the OpenAI base URL
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"

	DefaultSourceLang             = "en"
	DefaultProvider               = "libretranslate"
	DefaultLibreTranslateEndpoint = "http://localhost:5000"
	DefaultBaseURL                = "https://api.openai.com/v1"
	DefaultModel                  = "gpt-4o-mini"
	DefaultTranslateTimeout       = 30 * time.Second
	DefaultMaxRetries             = 2
	DefaultRetryDelay             = 500 * time.Millisecond
	// DefaultConcurrency keeps gateway calls sequential
	DefaultConcurrency     = 1
	DefaultFont            = "Helvetica"
	DefaultOverflowPolicy  = "shrink"
	DefaultPageErrorPolicy = "abort"
	DefaultLogLevel        = "info"
)

// Provider names accepted by the "provider" key
const (
	ProviderLibreTranslate = "libretranslate"
	ProviderOpenAI         = "openai"
)

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	config     *types.Config
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, it uses the default path in user's home directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "pdf-inplace-translator", DefaultConfigFileName)
	}

	logger.Debug("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

// defaultConfig returns a Config with default values
func defaultConfig() *types.Config {
	return &types.Config{
		SourceLang: DefaultSourceLang,
		Provider:   DefaultProvider,
		LibreTranslate: types.LibreTranslateConfig{
			Endpoint: DefaultLibreTranslateEndpoint,
		},
		OpenAI: types.OpenAIConfig{
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
		},
		TranslateTimeout: DefaultTranslateTimeout,
		MaxRetries:       DefaultMaxRetries,
		RetryDelay:       DefaultRetryDelay,
		Concurrency:      DefaultConcurrency,
		OverflowPolicy:   DefaultOverflowPolicy,
		PageErrorPolicy:  DefaultPageErrorPolicy,
		DefaultFont:      DefaultFont,
		Fonts:            map[string]string{},
		Log:              types.LogConfig{Level: DefaultLogLevel},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaultConfig()
	for key, value := range toSettings(d) {
		v.SetDefault(key, value)
	}
}

// toSettings flattens a Config into viper keys
func toSettings(c *types.Config) map[string]interface{} {
	fonts := make(map[string]interface{}, len(c.Fonts))
	for k, v := range c.Fonts {
		fonts[k] = v
	}
	return map[string]interface{}{
		"source_lang":             c.SourceLang,
		"target_lang":             c.TargetLang,
		"provider":                c.Provider,
		"libretranslate.endpoint": c.LibreTranslate.Endpoint,
		"libretranslate.api_key":  c.LibreTranslate.APIKey,
		"openai.api_key":          c.OpenAI.APIKey,
		"openai.base_url":         c.OpenAI.BaseURL,
		"openai.model":            c.OpenAI.Model,
		"translate_timeout":       c.TranslateTimeout.String(),
		"max_retries":             c.MaxRetries,
		"retry_delay":             c.RetryDelay.String(),
		"concurrency":             c.Concurrency,
		"cache_size":              c.CacheSize,
		"min_fitted_size_pt":      c.MinFittedSizePt,
		"overflow_policy":         c.OverflowPolicy,
		"page_error_policy":       c.PageErrorPolicy,
		"default_font":            c.DefaultFont,
		"fonts":                   fonts,
		"font_files":              append([]string{}, c.FontFiles...),
		"validate_output":         c.ValidateOutput,
		"log.level":               c.Log.Level,
		"log.file":                c.Log.File,
	}
}

func (m *ConfigManager) newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(m.configPath)
	if filepath.Ext(m.configPath) == "" {
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", EnvOpenAIAPIKey)
	_ = v.BindEnv("openai.base_url", EnvPrefix+"_OPENAI_BASE_URL", EnvOpenAIBaseURL)
	return v
}

// Load loads configuration from the config file.
// If the file doesn't exist or cannot be parsed, it uses default values.
// Environment variables take precedence over file values.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	v := m.newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var parseErr viper.ConfigParseError
		switch {
		case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
		case errors.As(err, &parseErr):
			logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
			v = m.newViper()
		default:
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	}

	config := &types.Config{}
	if err := v.Unmarshal(config); err != nil {
		logger.Error("failed to decode config", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to decode config", err)
	}
	applyDefaults(config)
	m.config = config

	logger.Info("configuration loaded",
		logger.String("path", m.configPath),
		logger.String("provider", config.Provider),
		logger.String("targetLang", config.TargetLang),
		logger.Int("concurrency", config.Concurrency))
	return nil
}

// applyDefaults fills empty fields left by a sparse file
func applyDefaults(c *types.Config) {
	d := defaultConfig()
	if c.SourceLang == "" {
		c.SourceLang = d.SourceLang
	}
	if c.Provider == "" {
		c.Provider = d.Provider
	}
	if c.LibreTranslate.Endpoint == "" {
		c.LibreTranslate.Endpoint = d.LibreTranslate.Endpoint
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = d.OpenAI.BaseURL
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = d.OpenAI.Model
	}
	if c.TranslateTimeout <= 0 {
		c.TranslateTimeout = d.TranslateTimeout
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.Concurrency == 0 {
		c.Concurrency = d.Concurrency
	}
	if c.OverflowPolicy == "" {
		c.OverflowPolicy = d.OverflowPolicy
	}
	if c.PageErrorPolicy == "" {
		c.PageErrorPolicy = d.PageErrorPolicy
	}
	if c.DefaultFont == "" {
		c.DefaultFont = d.DefaultFont
	}
	if c.Fonts == nil {
		c.Fonts = map[string]string{}
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Validate checks the loaded configuration for values the engine cannot run with.
func (m *ConfigManager) Validate() error {
	return Validate(m.config)
}

// Validate checks c for values the engine cannot run with.
func Validate(c *types.Config) error {
	if c == nil {
		return types.NewAppError(types.ErrConfig, "config is nil", nil)
	}
	switch c.Provider {
	case ProviderLibreTranslate:
		if c.LibreTranslate.Endpoint == "" {
			return types.NewAppError(types.ErrConfig, "libretranslate.endpoint is required", nil)
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return types.NewAppErrorWithDetails(types.ErrConfig, "openai.api_key is required",
				"set "+EnvOpenAIAPIKey+" or openai.api_key in the config file", nil)
		}
	default:
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown provider", c.Provider, nil)
	}
	switch c.OverflowPolicy {
	case "shrink", "truncate", "wrap":
	default:
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown overflow_policy", c.OverflowPolicy, nil)
	}
	switch c.PageErrorPolicy {
	case "abort", "skip":
	default:
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown page_error_policy", c.PageErrorPolicy, nil)
	}
	if c.Concurrency < 1 {
		return types.NewAppError(types.ErrConfig, "concurrency must be at least 1", nil)
	}
	if c.MinFittedSizePt < 0 {
		return types.NewAppError(types.ErrConfig, "min_fitted_size_pt must not be negative", nil)
	}
	if c.CacheSize < 0 {
		return types.NewAppError(types.ErrConfig, "cache_size must not be negative", nil)
	}
	if c.TargetLang == "" {
		return types.NewAppError(types.ErrConfig, "target_lang is required", nil)
	}
	return nil
}

// Save saves the current configuration to the config file.
func (m *ConfigManager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	v := viper.New()
	configType := strings.TrimPrefix(filepath.Ext(m.configPath), ".")
	if configType == "" {
		configType = "yaml"
	}
	v.SetConfigType(configType)
	for key, value := range toSettings(m.config) {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(m.configPath); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}
	if err := os.Chmod(m.configPath, 0600); err != nil {
		logger.Warn("failed to restrict config file permissions", logger.Err(err))
	}

	logger.Info("configuration saved successfully", logger.String("path", m.configPath))
	return nil
}

// GetConfig returns the current configuration
func (m *ConfigManager) GetConfig() *types.Config {
	return m.config
}

// SetConfig replaces the current configuration
func (m *ConfigManager) SetConfig(config *types.Config) {
	m.config = config
}

// GetConfigPath returns the path of the config file
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// GetAPIKey returns the API key of the selected provider
func (m *ConfigManager) GetAPIKey() string {
	if m.config.Provider == ProviderOpenAI {
		return m.config.OpenAI.APIKey
	}
	return m.config.LibreTranslate.APIKey
}

// Package cli wires configuration, logging, translation providers and the PDF engine
// into the pdftranslate command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pdf-inplace-translator/internal/config"
	"pdf-inplace-translator/internal/logger"
	"pdf-inplace-translator/internal/pdf"
	"pdf-inplace-translator/internal/types"
)

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	cfgFile string
	debug   bool
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "pdftranslate",
		Short: "Translate the text of a PDF in place, keeping its layout",
		Long: `pdftranslate replaces every text run of a PDF with its translation, drawn in the
same position, size and color. Supported translation providers:
  - libretranslate: LibreTranslate / Argos server
  - openai: OpenAI compatible chat completion API`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default ~/.config/pdf-inplace-translator/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newTranslateCommand(opts))
	rootCmd.AddCommand(newFontsCommand(opts))
	rootCmd.AddCommand(newValidateCommand(opts))

	return rootCmd
}

// loadConfig reads the layered configuration and initializes the global logger from it
func loadConfig(opts *globalOptions) (*types.Config, error) {
	manager, err := config.NewConfigManager(opts.cfgFile)
	if err != nil {
		return nil, err
	}
	if err := manager.Load(); err != nil {
		return nil, err
	}
	cfg := manager.GetConfig()

	level := logger.ParseLevel(cfg.Log.Level)
	if opts.debug {
		level = logger.LevelDebug
	}
	if err := logger.Init(&logger.Config{
		LogFilePath:   cfg.Log.File,
		Level:         level,
		EnableConsole: true,
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// buildFontRegistry layers the configured default font and language mappings over the built-in table
func buildFontRegistry(cfg *types.Config) *pdf.FontRegistry {
	registry := pdf.NewFontRegistry(cfg.DefaultFont)
	for _, e := range pdf.DefaultFontRegistry().Fonts() {
		registry = registry.WithFont(e.Prefix, e.FontID)
	}
	return registry.WithFonts(cfg.Fonts)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pdf-inplace-translator/internal/config"
	"pdf-inplace-translator/internal/logger"
	"pdf-inplace-translator/internal/pdf"
	"pdf-inplace-translator/internal/translator"
	"pdf-inplace-translator/internal/types"
)

type translateOptions struct {
	source       string
	target       string
	provider     string
	concurrency  int
	skipBadPages bool
	minSize      float64
	overflow     string
	dryRun       bool
}

func newTranslateCommand(global *globalOptions) *cobra.Command {
	opts := &translateOptions{}

	cmd := &cobra.Command{
		Use:   "translate <input.pdf> [output.pdf]",
		Short: "Translate a PDF in place",
		Long: `Translate every page of input.pdf and write the result to output.pdf
(input_translated.pdf next to the input when omitted).

Examples:
  # English to Spanish through a local LibreTranslate server
  pdftranslate translate paper.pdf -t es

  # Chinese output with an OpenAI compatible model, four requests in flight
  pdftranslate translate paper.pdf out.pdf -t zh --provider openai --concurrency 4`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			applyTranslateFlags(cmd, opts, cfg)
			if err := config.Validate(cfg); err != nil {
				return err
			}

			output := ""
			if len(args) > 1 {
				output = args[1]
			}
			return runTranslate(cmd.Context(), cmd.OutOrStdout(), cfg, opts.dryRun, args[0], output)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.source, "source", "s", "", "source language code (default from config)")
	f.StringVarP(&opts.target, "target", "t", "", "target language code")
	f.StringVar(&opts.provider, "provider", "", "translation provider (libretranslate, openai)")
	f.IntVar(&opts.concurrency, "concurrency", 0, "translation requests in flight per page")
	f.BoolVar(&opts.skipBadPages, "skip-bad-pages", false, "leave unreadable pages untranslated instead of failing")
	f.Float64Var(&opts.minSize, "min-size", 0, "smallest font size in points a translation is shrunk to")
	f.StringVar(&opts.overflow, "overflow", "", "what to do below --min-size (shrink, truncate, wrap)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "translate and lay out every page without writing the output")

	return cmd
}

// applyTranslateFlags overrides config values with the flags set on the command line
func applyTranslateFlags(cmd *cobra.Command, opts *translateOptions, cfg *types.Config) {
	f := cmd.Flags()
	if f.Changed("source") {
		cfg.SourceLang = opts.source
	}
	if f.Changed("target") {
		cfg.TargetLang = opts.target
	}
	if f.Changed("provider") {
		cfg.Provider = opts.provider
	}
	if f.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if f.Changed("skip-bad-pages") && opts.skipBadPages {
		cfg.PageErrorPolicy = string(pdf.PageErrorSkip)
	}
	if f.Changed("min-size") {
		cfg.MinFittedSizePt = opts.minSize
	}
	if f.Changed("overflow") {
		cfg.OverflowPolicy = opts.overflow
	}
}

func runTranslate(ctx context.Context, out io.Writer, cfg *types.Config, dryRun bool, input, output string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := translator.New(ctx, cfg)
	if err != nil {
		return err
	}

	fonts := buildFontRegistry(cfg)
	tt := pdf.NewTrueTypeMeasurer()
	if len(cfg.FontFiles) > 0 {
		// rendering falls back to the default font for fonts that failed to install
		if _, err := pdf.InstallFonts(cfg.FontFiles, tt); err != nil {
			logger.Warn("font installation incomplete", logger.Err(err))
		}
	}
	warnMissingFont(fonts, cfg.TargetLang)

	gen := pdf.NewPDFGenerator()
	engineCfg := pdf.PDFTranslatorConfig{
		Translator:       provider,
		Opener:           pdf.NewFileOpener(gen),
		Fonts:            fonts,
		Measurer:         pdf.NewDefaultMeasurer(tt, fonts.DefaultFont()),
		TranslateTimeout: cfg.TranslateTimeout,
		Concurrency:      cfg.Concurrency,
		CacheSize:        cfg.CacheSize,
		Fit: pdf.FitOptions{
			MinSize: cfg.MinFittedSizePt,
			Policy:  pdf.ParseOverflowPolicy(cfg.OverflowPolicy),
		},
		PageErrorPolicy: pdf.ParsePageErrorPolicy(cfg.PageErrorPolicy),
		DryRun:          dryRun,
		Logger:          logger.GetLogger(),
	}
	if cfg.ValidateOutput {
		engineCfg.Validate = gen.ValidateTranslation
	}

	engine, err := pdf.NewPDFTranslator(engineCfg)
	if err != nil {
		return err
	}
	engine.SetPageCompleteCallback(func(pageIndex, totalPages int) {
		fmt.Fprintf(out, "page %d/%d done\n", pageIndex+1, totalPages)
	})

	result, err := engine.TranslateDocument(ctx, input, output, cfg.SourceLang, cfg.TargetLang)
	if err != nil {
		return err
	}

	printResult(out, result, dryRun)
	return nil
}

// warnMissingFont logs when the target language maps to a font the writer cannot
// render. Such text falls back to the default font, which leaves non-Latin text blank.
func warnMissingFont(fonts *pdf.FontRegistry, targetLang string) bool {
	id := fonts.SelectFont(targetLang)
	if pdf.FontInstalled(id) {
		return false
	}
	logger.Warn("target font is not installed, add its font file to font_files",
		logger.String("target", targetLang),
		logger.String("font", id),
		logger.String("fallback", fonts.DefaultFont()))
	return true
}

func printResult(out io.Writer, r *pdf.TranslationResult, dryRun bool) {
	if dryRun {
		fmt.Fprintf(out, "dry run: %s not written\n", r.OutputPath)
	} else {
		fmt.Fprintf(out, "written: %s\n", r.OutputPath)
	}
	fmt.Fprintf(out, "pages: %d/%d translated\n", r.TranslatedPages, r.TotalPages)
	fmt.Fprintf(out, "runs: %d translated, %d total, %d from cache\n", r.TranslatedRuns, r.TotalRuns, r.CachedRuns)
	if r.FallbackInserts > 0 || r.FailedInserts > 0 {
		fmt.Fprintf(out, "inserts: %d used the default font, %d left blank\n", r.FallbackInserts, r.FailedInserts)
	}
	for _, pe := range r.PageErrors {
		fmt.Fprintf(out, "skipped page %d: %v\n", pe.Page, pe.Err)
	}
}

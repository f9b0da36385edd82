// Package pdf translates the text of a PDF in place: every text run is covered
// with white and overwritten by its translation, set in the same box at a size
// that keeps it inside the original width.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pdf-inplace-translator/internal/logger"
)

// PageErrorPolicy decides what a page extraction error does to the job
type PageErrorPolicy string

const (
	// PageErrorAbort fails the whole job on the first page error
	PageErrorAbort PageErrorPolicy = "abort"
	// PageErrorSkip leaves the page untranslated and records the error
	PageErrorSkip PageErrorPolicy = "skip"
)

// ParsePageErrorPolicy maps a config string to a policy; unknown values select abort.
func ParsePageErrorPolicy(s string) PageErrorPolicy {
	if PageErrorPolicy(strings.ToLower(strings.TrimSpace(s))) == PageErrorSkip {
		return PageErrorSkip
	}
	return PageErrorAbort
}

// PDFTranslatorConfig holds configuration options for creating a PDFTranslator
type PDFTranslatorConfig struct {
	// Translator is required
	Translator Translator
	Opener     Opener
	Fonts      *FontRegistry
	Measurer   Measurer

	TranslateTimeout time.Duration
	Concurrency      int
	// CacheSize caps the per-job cache; 0 means unbounded
	CacheSize       int
	Fit             FitOptions
	PageErrorPolicy PageErrorPolicy

	// Validate checks the written output against the input when set
	Validate func(input, output string) error
	// DryRun runs every page through the pipeline without writing the output
	DryRun bool

	Logger logger.Logger
}

// PDFTranslator 是 PDF 翻译功能的主控制器
// It runs one job at a time; the Document it opens is never shared.
type PDFTranslator struct {
	translator Translator
	opener     Opener
	fonts      *FontRegistry
	fitter     *FitCalculator
	extractor  *RunExtractor
	compositor *PageCompositor

	timeout     time.Duration
	concurrency int
	cacheSize   int
	pagePolicy  PageErrorPolicy
	validate    func(input, output string) error
	dryRun      bool
	log         logger.Logger

	mu      sync.RWMutex
	status  JobStatus
	running bool
	cancel  context.CancelFunc

	// Callback for page completion events
	pageCompleteCallback func(pageIndex, totalPages int)
}

// NewPDFTranslator creates a new PDFTranslator with the given configuration
func NewPDFTranslator(cfg PDFTranslatorConfig) (*PDFTranslator, error) {
	if cfg.Translator == nil {
		return nil, NewPDFError(ErrTranslateFailed, "翻译器未配置", nil)
	}

	opener := cfg.Opener
	if opener == nil {
		opener = NewFileOpener(nil)
	}
	fonts := cfg.Fonts
	if fonts == nil {
		fonts = DefaultFontRegistry()
	}
	measurer := cfg.Measurer
	if measurer == nil {
		measurer = NewDefaultMeasurer(nil, fonts.DefaultFont())
	}
	log := cfg.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	policy := cfg.PageErrorPolicy
	if policy == "" {
		policy = PageErrorAbort
	}

	return &PDFTranslator{
		translator:  cfg.Translator,
		opener:      opener,
		fonts:       fonts,
		fitter:      NewFitCalculator(measurer, cfg.Fit),
		extractor:   NewRunExtractor(),
		compositor:  NewPageCompositor(fonts.DefaultFont(), log),
		timeout:     cfg.TranslateTimeout,
		concurrency: cfg.Concurrency,
		cacheSize:   cfg.CacheSize,
		pagePolicy:  policy,
		validate:    cfg.Validate,
		dryRun:      cfg.DryRun,
		log:         log,
		status:      JobStatus{Phase: JobPhaseNotStarted},
	}, nil
}

// SetPageCompleteCallback registers fn to be called after each page is composited
func (p *PDFTranslator) SetPageCompleteCallback(fn func(pageIndex, totalPages int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageCompleteCallback = fn
}

// TranslateDocument translates every page of input from source to target and writes
// the result to output (GetOutputPath(input) when empty). Pages are processed in order.
// Per-run translation and insertion failures degrade silently; a page that cannot be
// read aborts the job unless the skip policy is configured. A save error is fatal.
func (p *PDFTranslator) TranslateDocument(ctx context.Context, input, output, source, target string) (*TranslationResult, error) {
	jobCtx, jobID, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer p.end()

	if output == "" {
		output = GetOutputPath(input)
	}
	log := p.log.With(logger.String("job_id", jobID))
	log.Info("starting PDF translation",
		logger.String("input", input),
		logger.String("output", output),
		logger.String("source", source),
		logger.String("target", target),
		logger.String("provider", p.translator.Name()))

	result := &TranslationResult{JobID: jobID, InputPath: input, OutputPath: output}

	doc, err := p.opener.Open(input)
	if err != nil {
		return nil, p.fail(log, err)
	}
	defer doc.Close()

	total := doc.PageCount()
	result.TotalPages = total

	// the cache lives for this job only
	cache := NewTranslationCache(p.cacheSize)
	defer cache.Clear()
	gateway := NewTranslationGateway(p.translator, cache, p.timeout)
	planner := NewReplacementPlanner(NewBatchTranslator(gateway, p.concurrency), p.fonts, p.fitter)

	for i := 0; i < total; i++ {
		if err := jobCtx.Err(); err != nil {
			return nil, p.fail(log, NewPDFErrorWithPage(ErrCancelled, "翻译已取消", i+1, err))
		}
		p.setProcessing(i, total)

		ps, cs, err := p.translatePage(jobCtx, doc, i, planner, source, target)
		if err != nil {
			if p.pagePolicy != PageErrorSkip {
				return nil, p.fail(log, err)
			}
			log.Warn("page left untranslated", logger.Int("page", i+1), logger.Err(err))
			result.PageErrors = append(result.PageErrors, PageError{Page: i + 1, Err: err})
			continue
		}

		result.TranslatedPages++
		result.TotalRuns += ps.Runs
		result.TranslatedRuns += ps.Translated
		result.CachedRuns += ps.Cached
		result.FallbackInserts += cs.Fallbacks
		result.FailedInserts += cs.Failed

		log.Debug("page translated",
			logger.Int("page", i+1),
			logger.Int("runs", ps.Runs),
			logger.Int("translated", ps.Translated),
			logger.Int("cached", ps.Cached),
			logger.Int("overflow", ps.Overflow),
			logger.Int("fallbacks", cs.Fallbacks))

		p.mu.RLock()
		cb := p.pageCompleteCallback
		p.mu.RUnlock()
		if cb != nil {
			cb(i, total)
		}
	}

	if p.dryRun {
		log.Info("dry run, output not written", logger.Int("pages", total))
		p.setPhase(JobPhaseCompleted, "")
		return result, nil
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, p.fail(log, NewPDFError(ErrSaveFailed, "无法创建输出目录", err))
		}
	}
	if err := doc.Save(output); err != nil {
		if ErrorCode(err) != ErrSaveFailed {
			err = NewPDFError(ErrSaveFailed, "保存 PDF 失败", err)
		}
		return nil, p.fail(log, err)
	}

	if p.validate != nil {
		if err := p.validate(input, output); err != nil {
			return nil, p.fail(log, err)
		}
	}

	p.setPhase(JobPhaseCompleted, "")
	hits, misses := cache.Stats()
	log.Info("PDF translation completed",
		logger.String("output", output),
		logger.Int("pages", result.TranslatedPages),
		logger.Int("runs", result.TotalRuns),
		logger.Int("translated_runs", result.TranslatedRuns),
		logger.Int64("cache_hits", hits),
		logger.Int64("cache_misses", misses),
		logger.Int("skipped_pages", len(result.PageErrors)))

	return result, nil
}

// translatePage runs extraction, planning and composition for the page at index
func (p *PDFTranslator) translatePage(ctx context.Context, doc Document, index int, planner *ReplacementPlanner, source, target string) (PlanStats, CompositeStats, error) {
	page, err := doc.Page(index)
	if err != nil {
		return PlanStats{}, CompositeStats{}, NewPDFErrorWithPage(ErrExtractFailed, "无法读取页面", index+1, err)
	}
	runs, err := p.extractor.Runs(page)
	if err != nil {
		return PlanStats{}, CompositeStats{}, err
	}
	reps, ps := planner.PlanPage(ctx, runs, source, target)
	cs := p.compositor.Apply(page, reps)
	return ps, cs, nil
}

func (p *PDFTranslator) begin(ctx context.Context) (context.Context, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil, "", NewPDFError(ErrTranslateFailed, "已有翻译任务正在进行", nil)
	}
	jobCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	jobID := uuid.NewString()
	p.status = JobStatus{Phase: JobPhaseNotStarted, JobID: jobID}
	return jobCtx, jobID, nil
}

func (p *PDFTranslator) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.running = false
}

func (p *PDFTranslator) setProcessing(index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Phase = JobPhaseProcessing
	p.status.PageIndex = index
	p.status.TotalPages = total
}

func (p *PDFTranslator) setPhase(phase JobPhase, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !IsValidPhase(phase) {
		logger.Warn("invalid phase, defaulting to failed", logger.String("phase", string(phase)))
		phase = JobPhaseFailed
	}
	p.status.Phase = phase
	p.status.Error = msg
}

// fail moves the job to failed and returns err for the caller
func (p *PDFTranslator) fail(log logger.Logger, err error) error {
	p.setPhase(JobPhaseFailed, err.Error())
	var pdfErr *PDFError
	if errors.As(err, &pdfErr) && pdfErr.Code == ErrCancelled {
		log.Warn("PDF translation cancelled", logger.Int("page", pdfErr.Page))
	} else {
		log.Error("PDF translation failed", err)
	}
	return err
}

// GetStatus 获取当前处理状态
func (p *PDFTranslator) GetStatus() JobStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Cancel 取消翻译. The running job stops before its next page.
func (p *PDFTranslator) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.cancel == nil {
		return fmt.Errorf("no translation in progress")
	}
	logger.Info("cancelling translation", logger.String("job_id", p.status.JobID))
	p.cancel()
	return nil
}

package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/card-extractor/constants"
	"github.com/joseph-ayodele/card-extractor/internal/cards"
	"github.com/joseph-ayodele/card-extractor/internal/common"
	"github.com/joseph-ayodele/card-extractor/internal/extract"
)

// Options are the per-invocation knobs of a batch run.
type Options struct {
	OutputDir string
	UseOCR    bool
}

// DocumentResult is the per-document outcome.
type DocumentResult struct {
	Path       string
	OutputPath string
	Status     constants.DocStatus
	Strategy   constants.Strategy
	Pages      int
	Tokens     []string
	Warnings   []string
	Err        string
	Duration   time.Duration
}

// Stats summarizes a batch run.
type Stats struct {
	Scanned   uint32
	Succeeded uint32
	Empty     uint32
	Failed    uint32
}

// Report is everything a batch run produced.
type Report struct {
	RunID     string
	Input     string
	OutputDir string
	Documents []DocumentResult
	Stats     Stats
}

// Processor drives extraction and card parsing for each input document and
// writes one output file per document.
type Processor struct {
	extractor extract.TextExtractor
	console   *Console
	logger    *slog.Logger
}

func NewProcessor(extractor extract.TextExtractor, console *Console, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if console == nil {
		console = NewConsole(nil)
	}
	return &Processor{extractor: extractor, console: console, logger: logger}
}

// Process resolves input, makes sure the output directory exists and handles
// every document in order. A failing document is reported and skipped; the
// returned error is reserved for invalid input, an unusable output directory
// or cancellation between documents.
func (p *Processor) Process(ctx context.Context, input string, opts Options) (Report, error) {
	if common.RunIDFromContext(ctx) == "" {
		ctx, _ = common.NewRun(ctx)
	}
	log := common.Logger(ctx, p.logger)
	rep := Report{RunID: common.RunIDFromContext(ctx), Input: input, OutputDir: opts.OutputDir}

	docs, err := ResolveInputs(input)
	if err != nil {
		log.Error("invalid input", "input", input, "error", err)
		return rep, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		log.Error("create output dir", "dir", opts.OutputDir, "error", err)
		return rep, fmt.Errorf("create output dir: %w", err)
	}

	start := time.Now()
	log.Info("batch started", "input", input, "documents", len(docs), "use_ocr", opts.UseOCR)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			log.Warn("batch cancelled", "remaining", len(docs)-len(rep.Documents))
			return rep, err
		}
		res := p.processDocument(common.WithDocument(ctx, doc), doc, opts)
		rep.Documents = append(rep.Documents, res)
		rep.Stats.Scanned++
		switch res.Status {
		case constants.DocStatusOK:
			rep.Stats.Succeeded++
		case constants.DocStatusEmpty:
			rep.Stats.Succeeded++
			rep.Stats.Empty++
		default:
			rep.Stats.Failed++
		}
	}

	log.Info("batch complete",
		"scanned", rep.Stats.Scanned,
		"succeeded", rep.Stats.Succeeded,
		"empty", rep.Stats.Empty,
		"failed", rep.Stats.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rep, nil
}

func (p *Processor) processDocument(ctx context.Context, path string, opts Options) (res DocumentResult) {
	start := time.Now()
	log := common.Logger(ctx, p.logger)
	name := filepath.Base(path)
	res = DocumentResult{Path: path, OutputPath: OutputPath(opts.OutputDir, path), Strategy: constants.StrategyNone}
	defer func() {
		if r := recover(); r != nil {
			res.Status = constants.DocStatusFailed
			res.Err = fmt.Sprintf("panic: %v", r)
			log.Error("document panicked", "panic", r)
			p.console.Error("%s: %s", name, res.Err)
		}
		res.Duration = time.Since(start)
	}()

	ext, err := p.extractor.Extract(ctx, extract.Document{Path: path}, opts.UseOCR)
	res.Strategy = ext.Strategy
	res.Pages = ext.Pages
	res.Warnings = append(res.Warnings, ext.Warnings...)
	for _, a := range ext.Attempts {
		if a.Err != nil {
			p.console.Warn("%s: %s extraction failed: %v", name, a.Strategy, a.Err)
			res.Warnings = append(res.Warnings, a.Err.Error())
		}
	}
	if err != nil {
		res.Status = constants.DocStatusFailed
		res.Err = err.Error()
		log.Error("extraction aborted", "error", err)
		p.console.Error("%s: %v", name, err)
		return res
	}
	if ext.Strategy == constants.StrategyNone {
		p.console.Info("%s: no text extracted", name)
	}

	res.Tokens = cards.Parse(ext.Text)
	if err := WriteTokens(res.OutputPath, res.Tokens); err != nil {
		res.Status = constants.DocStatusFailed
		res.Err = err.Error()
		log.Error("write output", "output", res.OutputPath, "error", err)
		p.console.Error("%s: %v", name, err)
		return res
	}

	res.Status = constants.DocStatusOK
	if len(res.Tokens) == 0 {
		res.Status = constants.DocStatusEmpty
	}
	log.Info("document processed",
		"strategy", res.Strategy,
		"pages", res.Pages,
		"cards", len(res.Tokens),
		"output", res.OutputPath,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	p.console.OK("%s -> %s", name, res.OutputPath)
	return res
}

// WriteTokens writes one token per line, newline-terminated, replacing any
// existing file.
func WriteTokens(path string, tokens []string) error {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

package ocr

import (
	"context"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/card-extractor/internal/common"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang        string // default "eng"
	DPI         int    // rasterization DPI; 0 keeps pdftoppm's default
	MaxPages    int    // 0 = no limit
	TessdataDir string
}

// PageCounter reports how many pages a PDF has.
type PageCounter func(path string) (int, error)

// Result is the outcome of running OCR over one document.
type Result struct {
	Text       string
	Pages      int // pages attempted
	Recognized int // pages that produced text without error
	Warnings   []string
}

// Engine rasterizes PDF pages with pdftoppm and recognizes them with tesseract.
type Engine struct {
	cfg       Config
	runner    Runner
	pageCount PageCounter
	logger    *slog.Logger
}

type Option func(*Engine)

// WithRunner replaces the command runner, mainly for tests.
func WithRunner(r Runner) Option {
	return func(e *Engine) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithPageCounter replaces the pdfcpu page counter.
func WithPageCounter(pc PageCounter) Option {
	return func(e *Engine) {
		if pc != nil {
			e.pageCount = pc
		}
	}
}

func NewEngine(cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	e := &Engine{
		cfg:       cfg,
		runner:    execRunner{},
		pageCount: api.PageCountFile,
		logger:    logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Available reports whether both external binaries can be found.
func (e *Engine) Available() error {
	for _, bin := range []string{e.cfg.Pdftoppm, e.cfg.Tesseract} {
		if _, err := e.runner.LookPath(bin); err != nil {
			return common.ToolchainError(bin, err)
		}
	}
	return nil
}

func (e *Engine) log(ctx context.Context) *slog.Logger {
	return common.Logger(ctx, e.logger)
}

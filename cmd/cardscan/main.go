package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/card-extractor/internal/batch"
	"github.com/joseph-ayodele/card-extractor/internal/common"
	"github.com/joseph-ayodele/card-extractor/internal/extract"
	"github.com/joseph-ayodele/card-extractor/internal/ingest"
	"github.com/joseph-ayodele/card-extractor/internal/ocr"
)

type flags struct {
	output  string
	watch   bool
	noOCR   bool
	summary string
	config  string
	verbose bool
}

// exitError carries a non-zero exit status out of RunE without cobra
// printing it a second time.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "cardscan [input_path]",
		Short: "Extract card numbers from PDF statements",
		Long: `Extract card numbers listed after a "***Card Detail" marker in PDF
documents and write them, one per line, to <output>/<name>.txt.

input_path may be a single PDF or a directory of PDFs (default: pdfs).
With --watch the directory is monitored and every new PDF is processed once.

Examples:
  cardscan
  cardscan statements/ -o cards/
  cardscan march.pdf --no-ocr
  cardscan inbox/ --watch --summary run.xlsx`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "pdfs"
			if len(args) == 1 {
				input = args[0]
			}
			return run(cmd, input, f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory (default: output_txt)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "watch the input directory for new PDFs")
	cmd.Flags().BoolVar(&f.noOCR, "no-ocr", false, "never fall back to OCR")
	cmd.Flags().StringVar(&f.summary, "summary", "", "write an XLSX summary of the run to this path")
	cmd.Flags().StringVar(&f.config, "config", "", "YAML config file (default: $CARDSCAN_CONFIG)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(cmd *cobra.Command, input string, f flags) error {
	console := batch.NewConsole(cmd.OutOrStdout())

	configPath := f.config
	if configPath == "" {
		configPath = os.Getenv("CARDSCAN_CONFIG")
	}
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		console.Error("Invalid configuration: %v", err)
		return exitError{code: 1}
	}
	if f.output != "" {
		cfg.Output.Dir = f.output
	}
	if f.noOCR {
		cfg.UseOCR = false
	}
	if f.summary != "" {
		cfg.Output.SummaryXLSX = f.summary
	}

	level := parseLevel(cfg.LogLevel)
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	engine := ocr.NewEngine(ocr.Config{
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Tesseract:   cfg.OCR.Tesseract,
		Lang:        cfg.OCR.Lang,
		DPI:         cfg.OCR.DPI,
		MaxPages:    cfg.OCR.MaxPages,
		TessdataDir: cfg.OCR.TessdataDir,
	}, logger)
	caps := extract.Capabilities{OCR: true}
	if err := engine.Available(); err != nil {
		caps.OCR = false
		if cfg.UseOCR {
			logger.Warn("ocr toolchain unavailable, scanned documents will yield no text", "error", err)
		}
	}

	chain := extract.NewChain(caps, logger,
		extract.NewEmbeddedStrategy(),
		extract.NewFallbackStrategy(),
		extract.NewOCRStrategy(engine),
	)
	proc := batch.NewProcessor(chain, console, logger)
	opts := batch.Options{OutputDir: cfg.Output.Dir, UseOCR: cfg.UseOCR}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, runID := common.NewRun(ctx)
	logger.Debug("configuration loaded", "run_id", runID, "input", input, "output", cfg.Output.Dir,
		"use_ocr", cfg.UseOCR, "ocr_available", caps.OCR, "watch", f.watch)

	if f.watch {
		return watch(ctx, input, cfg, proc, opts, console, logger)
	}

	rep, err := proc.Process(ctx, input, opts)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidInput):
			console.Error("%s", err.Error())
		case errors.Is(err, context.Canceled):
			console.Info("Interrupted")
		default:
			console.Error("%v", err)
		}
		writeSummary(cfg.Output.SummaryXLSX, console, logger, rep)
		return exitError{code: 1}
	}
	writeSummary(cfg.Output.SummaryXLSX, console, logger, rep)
	return nil
}

func watch(ctx context.Context, dir string, cfg *common.Config, proc *batch.Processor, opts batch.Options, console *batch.Console, logger *slog.Logger) error {
	st, err := os.Stat(dir)
	switch {
	case err != nil:
		console.Error("Directory not found: %s", dir)
		return nil
	case !st.IsDir():
		console.Error("Watch mode requires a directory")
		return nil
	}

	var reports []batch.Report
	handle := ingest.FileProcessorFunc(func(ctx context.Context, path string) error {
		rep, err := proc.Process(ctx, path, opts)
		reports = append(reports, rep)
		return err
	})

	w := ingest.NewWatcher(ingest.WatchConfig{Dir: dir, SettleDelay: cfg.Watch.SettleDelay}, handle, logger)
	console.Info("Watching %s (Ctrl+C to stop)", dir)
	err = w.Run(ctx)
	switch {
	case err == nil:
		console.Info("Stopped watching %s", dir)
	case errors.Is(err, common.ErrNotFound):
		console.Error("Directory not found: %s", dir)
	case errors.Is(err, common.ErrInvalidInput):
		console.Error("Watch mode requires a directory")
	case errors.Is(err, common.ErrToolchainUnavailable):
		console.Error("Cannot watch %s: watch toolchain unavailable (%v)", dir, err)
	default:
		console.Error("Watching %s failed: %v", dir, err)
	}
	writeSummary(cfg.Output.SummaryXLSX, console, logger, reports...)
	return nil
}

func writeSummary(path string, console *batch.Console, logger *slog.Logger, reports ...batch.Report) {
	if path == "" {
		return
	}
	if err := batch.WriteSummaryXLSX(path, reports...); err != nil {
		logger.Error("failed to write summary", "path", path, "error", err)
		console.Warn("Could not write summary %s: %v", path, err)
		return
	}
	console.Info("Summary written to %s", path)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

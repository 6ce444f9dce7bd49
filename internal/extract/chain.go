package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/card-extractor/constants"
	"github.com/joseph-ayodele/card-extractor/internal/common"
)

// Chain runs strategies in priority order until one yields non-blank text.
// A failing strategy never fails the document; it only hands over to the next.
type Chain struct {
	strategies []Strategy
	caps       Capabilities
	logger     *slog.Logger
}

func NewChain(caps Capabilities, logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, caps: caps, logger: logger}
}

// Extract returns the first non-blank text. The only error it reports is
// cancellation of ctx, checked between strategies.
func (c *Chain) Extract(ctx context.Context, doc Document, useOCR bool) (Result, error) {
	start := time.Now()
	log := common.Logger(ctx, c.logger)
	res := Result{Strategy: constants.StrategyNone}

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
		name := s.Name()
		if name == constants.StrategyOCR {
			if !useOCR {
				res.Attempts = append(res.Attempts, Attempt{Strategy: name, Skipped: "ocr disabled"})
				continue
			}
			if !c.caps.OCR {
				res.Attempts = append(res.Attempts, Attempt{Strategy: name, Skipped: "ocr toolchain unavailable"})
				log.Debug("ocr skipped, toolchain unavailable")
				continue
			}
		}

		out, err := runStrategy(ctx, s, doc)
		res.Warnings = append(res.Warnings, out.Warnings...)
		if res.Pages == 0 && out.Pages > 0 {
			res.Pages = out.Pages
		}
		if err != nil {
			err = common.ExtractionError(string(name), err)
			res.Attempts = append(res.Attempts, Attempt{Strategy: name, Err: err})
			log.Warn("extraction strategy failed", "strategy", name, "error", err)
			continue
		}
		if IsBlank(out.Text) {
			res.Attempts = append(res.Attempts, Attempt{Strategy: name, Empty: true})
			log.Debug("extraction strategy produced no text", "strategy", name)
			continue
		}

		res.Attempts = append(res.Attempts, Attempt{Strategy: name})
		res.Text = out.Text
		res.Strategy = name
		res.Duration = time.Since(start)
		log.Debug("text extracted", "strategy", name, "pages", res.Pages, "bytes", len(out.Text))
		return res, nil
	}

	res.Duration = time.Since(start)
	log.Info("no text extracted by any strategy", "path", doc.Path)
	return res, nil
}

// runStrategy turns a panic inside a PDF library into an ordinary error.
func runStrategy(ctx context.Context, s Strategy, doc Document) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Output{}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Extract(ctx, doc)
}

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

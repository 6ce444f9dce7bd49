package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/card-extractor/constants"
)

// Document is one PDF on disk. Each strategy opens it independently and
// releases it before returning; it is never mutated.
type Document struct {
	Path string
}

// Output is what a single strategy produced.
type Output struct {
	Text     string
	Pages    int // 0 when the strategy cannot tell
	Warnings []string
}

// Strategy is one way of turning a PDF into text.
type Strategy interface {
	Name() constants.Strategy
	Extract(ctx context.Context, doc Document) (Output, error)
}

// TextExtractor is stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, doc Document, useOCR bool) (Result, error)
}

// Capabilities records which optional toolchains were found at startup.
type Capabilities struct {
	OCR bool
}

// Attempt records how one strategy fared for a document.
type Attempt struct {
	Strategy constants.Strategy
	Skipped  string // reason the strategy did not run
	Err      error
	Empty    bool // ran without error but produced only whitespace
}

// Result is the text chosen for a document and the trail that led to it.
type Result struct {
	Text     string
	Strategy constants.Strategy // StrategyNone when every strategy came up empty
	Pages    int
	Warnings []string
	Attempts []Attempt
	Duration time.Duration
}

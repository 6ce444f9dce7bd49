package extract

import (
	"context"
	"fmt"
	"os"

	"code.sajari.com/docconv"

	"github.com/joseph-ayodele/card-extractor/constants"
)

// FallbackStrategy hands the whole document to docconv, which shells out to
// pdftotext.
type FallbackStrategy struct{}

func NewFallbackStrategy() *FallbackStrategy { return &FallbackStrategy{} }

func (*FallbackStrategy) Name() constants.Strategy { return constants.StrategyFallback }

func (*FallbackStrategy) Extract(_ context.Context, doc Document) (Output, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return Output{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	text, _, err := docconv.ConvertPDF(f)
	if err != nil {
		return Output{}, fmt.Errorf("docconv: %w", err)
	}
	return Output{Text: text}, nil
}

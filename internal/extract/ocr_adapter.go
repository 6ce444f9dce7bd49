package extract

import (
	"context"

	"github.com/joseph-ayodele/card-extractor/constants"
	"github.com/joseph-ayodele/card-extractor/internal/ocr"
)

// OCRStrategy adapts the pdftoppm+tesseract engine to the Strategy contract.
type OCRStrategy struct {
	engine *ocr.Engine
}

func NewOCRStrategy(e *ocr.Engine) *OCRStrategy {
	return &OCRStrategy{engine: e}
}

func (*OCRStrategy) Name() constants.Strategy { return constants.StrategyOCR }

func (s *OCRStrategy) Extract(ctx context.Context, doc Document) (Output, error) {
	r, err := s.engine.RecognizePDF(ctx, doc.Path)
	return Output{Text: r.Text, Pages: r.Pages, Warnings: r.Warnings}, err
}

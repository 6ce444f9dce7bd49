package extract

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/card-extractor/constants"
)

// sameLineTolerance is how far apart two glyph baselines may be, in user
// space units, and still count as one line.
const sameLineTolerance = 0.5

// EmbeddedStrategy reads the text layer of each page with ledongthuc/pdf and
// joins the pages with a newline.
type EmbeddedStrategy struct{}

func NewEmbeddedStrategy() *EmbeddedStrategy { return &EmbeddedStrategy{} }

func (*EmbeddedStrategy) Name() constants.Strategy { return constants.StrategyEmbedded }

func (*EmbeddedStrategy) Extract(ctx context.Context, doc Document) (Output, error) {
	f, r, err := pdf.Open(doc.Path)
	if err != nil {
		return Output{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, pageLines(p.Content().Text))
	}
	return Output{Text: strings.Join(pages, "\n"), Pages: n}, nil
}

// pageLines rebuilds the lines of a page from its positioned glyphs, in
// content stream order, starting a new line whenever the baseline moves.
// GetPlainText drops the breaks between Td-positioned lines.
func pageLines(texts []pdf.Text) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 && math.Abs(t.Y-texts[i-1].Y) > sameLineTolerance {
			b.WriteByte('\n')
		}
		b.WriteString(t.S)
	}
	return b.String()
}

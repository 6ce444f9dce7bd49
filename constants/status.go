package constants

// Strategy names the text extraction strategy that produced a document's text.
type Strategy string

const (
	StrategyEmbedded Strategy = "embedded" // per-page text layer
	StrategyFallback Strategy = "fallback" // whole-document extraction
	StrategyOCR      Strategy = "ocr"      // rasterized pages through tesseract
	StrategyNone     Strategy = "none"     // every strategy failed or was skipped
)

// DocStatus is the outcome recorded for each document in a batch report.
type DocStatus string

const (
	DocStatusOK     DocStatus = "OK"     // tokens written
	DocStatusEmpty  DocStatus = "EMPTY"  // output written but no tokens found
	DocStatusFailed DocStatus = "FAILED" // output could not be produced
)

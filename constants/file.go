package constants

import (
	"path/filepath"
	"strings"
)

// PDFExt is the only extension the extractor accepts, lowercased and without the dot.
const PDFExt = "pdf"

// PDFGlob matches PDF entries when listing an input directory.
const PDFGlob = "*.pdf"

// OutputExt is appended to the input stem to name the per-document output file.
const OutputExt = ".txt"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether path carries a .pdf suffix, ignoring case.
func IsPDF(path string) bool {
	return NormalizeExt(filepath.Ext(path)) == PDFExt
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

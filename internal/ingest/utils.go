package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/card-extractor/constants"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// matches reports whether path is a visible .pdf entry.
func matches(path string) bool {
	return constants.IsPDF(path) && !IsHidden(path)
}

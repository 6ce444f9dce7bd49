package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joseph-ayodele/card-extractor/constants"
	"github.com/joseph-ayodele/card-extractor/internal/common"
)

// ResolveInputs expands input into the PDFs to process. A directory yields
// its *.pdf entries (non-recursive, sorted by name); a file must carry a .pdf
// suffix. Anything else is an InvalidInputError.
func ResolveInputs(input string) ([]string, error) {
	st, err := os.Stat(input)
	if err != nil {
		return nil, common.InvalidInputError(input)
	}
	if !st.IsDir() {
		if st.Mode().IsRegular() && constants.IsPDF(input) {
			return []string{input}, nil
		}
		return nil, common.InvalidInputError(input)
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", input, err)
	}
	var docs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(constants.PDFGlob, e.Name()); !ok {
			continue
		}
		docs = append(docs, filepath.Join(input, e.Name()))
	}
	sort.Strings(docs)
	return docs, nil
}

// OutputPath is <outputDir>/<input stem>.txt.
func OutputPath(outputDir, input string) string {
	return filepath.Join(outputDir, constants.Stem(input)+constants.OutputExt)
}

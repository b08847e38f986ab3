// Package pdfinfo reads document metadata from local PDF files before
// they are uploaded.
package pdfinfo

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// fc never needs pdfcpu's on-disk configuration.
	api.DisableConfigDir()
}

// PageCount returns the number of pages of the PDF at path.
func PageCount(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	return PageCountReader(file)
}

// PageCountReader returns the number of pages of the PDF read from rs.
// Validation is relaxed; the service performs the strict checks.
func PageCountReader(rs io.ReadSeeker) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	count, err := api.PageCount(rs, conf)
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return count, nil
}

package pdfsource

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validate runs a relaxed structural check over the PDF at path. Scanned
// books often carry minor structural defects, so only files pdfcpu cannot
// read at all fail.
func Validate(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("invalid PDF %s: %w", path, err)
	}
	return nil
}

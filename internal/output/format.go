package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Format is the encoding used for command output.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DefaultFormat is the default command output format.
const DefaultFormat = FormatYAML

// ParseFormat maps a flag value to a Format. Unknown values fall back to
// DefaultFormat.
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatJSON:
		return FormatJSON
	case FormatYAML:
		return FormatYAML
	default:
		return DefaultFormat
	}
}

// Printer writes structured command output.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a printer writing to w. A nil w means stdout.
func NewPrinter(w io.Writer, format Format) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w, format: format}
}

// Print encodes data in the printer's format.
func (p *Printer) Print(data any) error {
	return Encode(p.w, p.format, data)
}

// Encode writes data to w in the given format.
func Encode(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

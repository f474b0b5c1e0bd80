package config

import (
	"github.com/Malay-RB/Document-parsing/internal/layout"
	"github.com/Malay-RB/Document-parsing/internal/pagination"
	"github.com/Malay-RB/Document-parsing/internal/pdfsource"
	"github.com/Malay-RB/Document-parsing/internal/providers"
	"github.com/Malay-RB/Document-parsing/internal/scout"
	"github.com/Malay-RB/Document-parsing/internal/toc"
)

// Entry is one configuration key with its default value.
type Entry struct {
	Key         string
	Value       any
	Description string
}

// DefaultEntries returns every configuration key with its default. The
// manager registers them as viper defaults, which also makes each key
// reachable through SCHOLAR_ environment variables.
func DefaultEntries() []Entry {
	return []Entry{
		// ===================
		// Paths
		// ===================
		{Key: "paths.input", Value: "input", Description: "Directory holding input PDFs"},
		{Key: "paths.output", Value: "output", Description: "Root directory for run artifacts"},
		{Key: "sandbox.enabled", Value: false, Description: "Use the sandbox input and output roots"},
		{Key: "sandbox.input", Value: "sandbox/input", Description: "Sandbox input directory"},
		{Key: "sandbox.output", Value: "sandbox/output", Description: "Sandbox output root"},

		// ===================
		// PDF
		// ===================
		{Key: "pdf.renderer", Value: pdfsource.KindFitz, Description: "Page renderer: fitz (MuPDF) or poppler (pdftoppm)"},
		{Key: "pdf.dpi", Value: pdfsource.DefaultDPI, Description: "Render resolution in dots per inch"},
		{Key: "pdf.validate", Value: false, Description: "Validate PDF structure with pdfcpu before a run"},

		// ===================
		// Pipeline
		// ===================
		{Key: "pipeline.ocr", Value: providers.TesseractName, Description: "OCR backend: tesseract or mistral"},
		{Key: "pipeline.math", Value: providers.LaTeXHTTPName, Description: "LaTeX backend: latex-http or openai"},
		{Key: "pipeline.page_strategy", Value: string(pagination.StrategyAuto), Description: "Printed page number search: HEADER, FOOTER, CORNERS or AUTO"},
		{Key: "pipeline.scout_limit", Value: 15, Description: "Pages searched for the table of contents before giving up"},
		{Key: "pipeline.sync_limit", Value: 40, Description: "Pages searched for the first chapter after the TOC"},
		{Key: "pipeline.gc_interval", Value: 3, Description: "Pages between forced garbage collections (0 = never)"},
		{Key: "pipeline.overlap_threshold", Value: layout.DefaultOverlapThreshold, Description: "Intersection-over-self ratio above which the smaller box is dropped"},
		{Key: "pipeline.row_tolerance", Value: layout.DefaultRowTolerance, Description: "Vertical pixels within which boxes share a reading row"},
		{Key: "pipeline.debug", Value: false, Description: "Write debug layout PDFs"},
		{Key: "pipeline.keywords", Value: scout.DefaultKeywords, Description: "Words that mark a table-of-contents page"},

		// ===================
		// TOC
		// ===================
		{Key: "toc.min_line_length", Value: toc.DefaultMinLineLength, Description: "Shortest TOC line considered"},
		{Key: "toc.max_chapter_jump", Value: toc.DefaultMaxChapterJump, Description: "Largest allowed step between chapter numbers"},
		{Key: "toc.row_tolerance", Value: toc.DefaultRowTolerance, Description: "Vertical pixels within which TOC text shares a line"},
		{Key: "toc.noise", Value: toc.DefaultNoise, Description: "Regular expressions for print-production lines to ignore"},

		// ===================
		// Classification
		// ===================
		{Key: "patterns", Value: map[string]string{}, Description: "Role pattern overrides keyed by role (chapter, section, activity, example, figure_caption)"},

		// ===================
		// Logging
		// ===================
		{Key: "log.level", Value: "info", Description: "Console log level: debug, info, warn or error"},
		{Key: "log.files", Value: true, Description: "Write per-run info and debug log files"},
		{Key: "log.dir", Value: "", Description: "Log file directory (empty = <home>/logs)"},

		// ===================
		// Providers
		// ===================
		{Key: "providers.layout.base_url", Value: "http://localhost:8001", Description: "Layout detection service URL"},
		{Key: "providers.layout.timeout_seconds", Value: 120, Description: "HTTP timeout in seconds for layout requests"},
		{Key: "providers.layout.max_retries", Value: 3, Description: "Retry attempts for failed layout requests"},
		{Key: "providers.layout.rate_limit", Value: 0.0, Description: "Layout requests per second (0 = unlimited)"},

		{Key: "providers.tesseract.binary", Value: "tesseract", Description: "tesseract executable"},
		{Key: "providers.tesseract.language", Value: "eng", Description: "tesseract language pack(s), e.g. eng+hin"},

		{Key: "providers.mistral.api_key", Value: "${MISTRAL_API_KEY}", Description: "Mistral API key (uses environment variable)"},
		{Key: "providers.mistral.model", Value: providers.MistralOCRModel, Description: "Mistral OCR model"},
		{Key: "providers.mistral.rate_limit", Value: 6.0, Description: "Rate limit in requests per second for Mistral"},
		{Key: "providers.mistral.timeout_seconds", Value: 500, Description: "HTTP timeout in seconds for Mistral OCR requests"},
		{Key: "providers.mistral.max_retries", Value: 7, Description: "Maximum retry attempts for failed Mistral requests"},
		{Key: "providers.mistral.enabled", Value: true, Description: "Register Mistral OCR when an API key is set"},

		{Key: "providers.latex.base_url", Value: "http://localhost:8002", Description: "LaTeX OCR service URL"},
		{Key: "providers.latex.timeout_seconds", Value: 60, Description: "HTTP timeout in seconds for LaTeX requests"},
		{Key: "providers.latex.max_retries", Value: 3, Description: "Retry attempts for failed LaTeX requests"},
		{Key: "providers.latex.enabled", Value: true, Description: "Register the LaTeX OCR service"},

		{Key: "providers.openai.api_key", Value: "${OPENAI_API_KEY}", Description: "OpenAI API key (uses environment variable)"},
		{Key: "providers.openai.model", Value: "gpt-4o-mini", Description: "Vision model used for LaTeX transcription"},
		{Key: "providers.openai.rate_limit", Value: 5.0, Description: "Rate limit in requests per second for OpenAI"},
		{Key: "providers.openai.timeout_seconds", Value: 120, Description: "HTTP timeout in seconds for OpenAI requests"},
		{Key: "providers.openai.max_retries", Value: 3, Description: "SDK retry attempts for OpenAI requests"},
		{Key: "providers.openai.enabled", Value: false, Description: "Register the OpenAI LaTeX recognizer"},

		{Key: "providers.enhancer.base_url", Value: "", Description: "Super-resolution service URL"},
		{Key: "providers.enhancer.timeout_seconds", Value: 60, Description: "HTTP timeout in seconds for enhancer requests"},
		{Key: "providers.enhancer.max_side", Value: providers.DefaultEnhanceMaxSide, Description: "Crops larger than this on either side skip enhancement"},
		{Key: "providers.enhancer.enabled", Value: false, Description: "Enhance crops before text OCR"},
	}
}

// GetDefault returns the default entry for a key, or nil.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

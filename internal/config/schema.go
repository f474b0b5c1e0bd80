package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Malay-RB/Document-parsing/internal/pagination"
	"github.com/Malay-RB/Document-parsing/internal/pdfsource"
	"github.com/Malay-RB/Document-parsing/internal/providers"
	"github.com/Malay-RB/Document-parsing/internal/semantics"
	"github.com/Malay-RB/Document-parsing/internal/toc"
)

// Config holds scholar configuration.
// Stored at: ./config.yaml or ~/.scholar/config.yaml
type Config struct {
	Paths     PathsCfg          `mapstructure:"paths" yaml:"paths"`
	Sandbox   SandboxCfg        `mapstructure:"sandbox" yaml:"sandbox"`
	PDF       PDFCfg            `mapstructure:"pdf" yaml:"pdf"`
	Pipeline  PipelineCfg       `mapstructure:"pipeline" yaml:"pipeline"`
	TOC       TOCCfg            `mapstructure:"toc" yaml:"toc"`
	Patterns  map[string]string `mapstructure:"patterns" yaml:"patterns"`
	Log       LogCfg            `mapstructure:"log" yaml:"log"`
	Providers ProvidersCfg      `mapstructure:"providers" yaml:"providers"`
}

// PathsCfg holds the production input and output roots.
type PathsCfg struct {
	Input  string `mapstructure:"input" yaml:"input"`
	Output string `mapstructure:"output" yaml:"output"`
}

// SandboxCfg holds the roots used when sandbox mode is on.
type SandboxCfg struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Input   string `mapstructure:"input" yaml:"input"`
	Output  string `mapstructure:"output" yaml:"output"`
}

// PDFCfg selects the page renderer.
type PDFCfg struct {
	Renderer string `mapstructure:"renderer" yaml:"renderer"` // "fitz", "poppler"
	DPI      int    `mapstructure:"dpi" yaml:"dpi"`
	Validate bool   `mapstructure:"validate" yaml:"validate"` // pdfcpu structural check before a run
}

// PipelineCfg tunes the extraction run.
type PipelineCfg struct {
	OCR              string   `mapstructure:"ocr" yaml:"ocr"`   // OCR backend name
	Math             string   `mapstructure:"math" yaml:"math"` // LaTeX backend name
	PageStrategy     string   `mapstructure:"page_strategy" yaml:"page_strategy"`
	ScoutLimit       int      `mapstructure:"scout_limit" yaml:"scout_limit"`
	SyncLimit        int      `mapstructure:"sync_limit" yaml:"sync_limit"`
	GCInterval       int      `mapstructure:"gc_interval" yaml:"gc_interval"`
	OverlapThreshold float64  `mapstructure:"overlap_threshold" yaml:"overlap_threshold"`
	RowTolerance     int      `mapstructure:"row_tolerance" yaml:"row_tolerance"`
	Debug            bool     `mapstructure:"debug" yaml:"debug"` // debug layout PDFs
	Keywords         []string `mapstructure:"keywords" yaml:"keywords"`
}

// TOCCfg tunes table-of-contents parsing.
type TOCCfg struct {
	MinLineLength  int      `mapstructure:"min_line_length" yaml:"min_line_length"`
	MaxChapterJump int      `mapstructure:"max_chapter_jump" yaml:"max_chapter_jump"`
	RowTolerance   int      `mapstructure:"row_tolerance" yaml:"row_tolerance"`
	Noise          []string `mapstructure:"noise" yaml:"noise"`
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
	Files bool   `mapstructure:"files" yaml:"files"` // write info/debug log files
	Dir   string `mapstructure:"dir" yaml:"dir"`     // empty = <home>/logs
}

// ProvidersCfg configures the model backends.
type ProvidersCfg struct {
	Layout    ServiceCfg   `mapstructure:"layout" yaml:"layout"`
	Tesseract TesseractCfg `mapstructure:"tesseract" yaml:"tesseract"`
	Mistral   ServiceCfg   `mapstructure:"mistral" yaml:"mistral"`
	LaTeX     ServiceCfg   `mapstructure:"latex" yaml:"latex"`
	OpenAI    ServiceCfg   `mapstructure:"openai" yaml:"openai"`
	Enhancer  EnhancerCfg  `mapstructure:"enhancer" yaml:"enhancer"`
}

// ServiceCfg configures a remote model service.
type ServiceCfg struct {
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key,omitempty"` // supports ${ENV_VAR} syntax
	Model          string  `mapstructure:"model" yaml:"model,omitempty"`
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second, 0 = unlimited
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries" yaml:"max_retries"`
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
}

// TesseractCfg configures the local tesseract backend.
type TesseractCfg struct {
	Binary   string `mapstructure:"binary" yaml:"binary"`
	Language string `mapstructure:"language" yaml:"language"`
}

// EnhancerCfg configures the optional super-resolution service.
type EnhancerCfg struct {
	ServiceCfg `mapstructure:",squash" yaml:",inline"`
	MaxSide    int `mapstructure:"max_side" yaml:"max_side"`
}

// ActivePaths returns the input and output roots, honouring sandbox mode.
func (c *Config) ActivePaths() (input, output string) {
	if c.Sandbox.Enabled {
		return c.Sandbox.Input, c.Sandbox.Output
	}
	return c.Paths.Input, c.Paths.Output
}

// ResolveInput returns the PDF path for name. Absolute paths and paths with
// a directory component are used as given; bare names are looked up in the
// active input root.
func (c *Config) ResolveInput(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	in, _ := c.ActivePaths()
	return filepath.Join(in, name)
}

// Strategy parses the configured page-number strategy.
func (c *Config) Strategy() (pagination.Strategy, error) {
	return pagination.ParseStrategy(c.Pipeline.PageStrategy)
}

// PatternOverrides returns classifier overrides keyed by role name. Viper
// lower-cases map keys, so they are upper-cased here.
func (c *Config) PatternOverrides() map[string]string {
	out := make(map[string]string, len(c.Patterns))
	for k, v := range c.Patterns {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// Classifier compiles the configured pattern table.
func (c *Config) Classifier() (*semantics.Classifier, error) {
	p, err := semantics.CompilePatterns(c.PatternOverrides())
	if err != nil {
		return nil, err
	}
	return semantics.NewClassifier(p), nil
}

// TOCRules compiles the configured TOC parsing rules.
func (c *Config) TOCRules() (toc.Rules, error) {
	return toc.NewRules(c.TOC.MinLineLength, c.TOC.MaxChapterJump, c.TOC.Noise)
}

// Validate checks values that would otherwise fail mid-run.
func (c *Config) Validate() error {
	if _, err := c.Strategy(); err != nil {
		return err
	}
	switch c.PDF.Renderer {
	case pdfsource.KindFitz, pdfsource.KindPoppler, "":
	default:
		return fmt.Errorf("unknown pdf renderer: %s", c.PDF.Renderer)
	}
	if c.Pipeline.ScoutLimit < 1 {
		return fmt.Errorf("pipeline.scout_limit must be positive, got %d", c.Pipeline.ScoutLimit)
	}
	if c.Pipeline.SyncLimit < 1 {
		return fmt.Errorf("pipeline.sync_limit must be positive, got %d", c.Pipeline.SyncLimit)
	}
	if _, err := c.Classifier(); err != nil {
		return err
	}
	if _, err := c.TOCRules(); err != nil {
		return err
	}
	if c.TOC.RowTolerance >= providers.MinLineSpacing {
		return fmt.Errorf("toc.row_tolerance must be below %d, got %d", providers.MinLineSpacing, c.TOC.RowTolerance)
	}
	return nil
}

func (s ServiceCfg) toService() providers.ServiceConfig {
	return providers.ServiceConfig{
		BaseURL:    s.BaseURL,
		APIKey:     ResolveEnvVars(s.APIKey),
		Timeout:    time.Duration(s.TimeoutSeconds) * time.Second,
		RateLimit:  s.RateLimit,
		MaxRetries: s.MaxRetries,
	}
}

// ToRegistryConfig converts the config to a format suitable for
// providers.Registry. It resolves all ${ENV_VAR} references in API keys.
func (c *Config) ToRegistryConfig() providers.RegistryConfig {
	p := c.Providers
	cfg := providers.RegistryConfig{
		Layout: p.Layout.toService(),
		Tesseract: providers.TesseractConfig{
			Binary:   p.Tesseract.Binary,
			Language: p.Tesseract.Language,
		},
		EnhanceMaxSide: p.Enhancer.MaxSide,
	}
	if p.Mistral.Enabled {
		cfg.Mistral = &providers.MistralOCRConfig{ServiceConfig: p.Mistral.toService(), Model: p.Mistral.Model}
	}
	if p.LaTeX.Enabled {
		svc := p.LaTeX.toService()
		cfg.MathHTTP = &svc
	}
	if p.OpenAI.Enabled {
		cfg.OpenAI = &providers.OpenAIMathConfig{
			APIKey:     ResolveEnvVars(p.OpenAI.APIKey),
			Model:      p.OpenAI.Model,
			RateLimit:  p.OpenAI.RateLimit,
			MaxRetries: p.OpenAI.MaxRetries,
			Timeout:    time.Duration(p.OpenAI.TimeoutSeconds) * time.Second,
			BaseURL:    p.OpenAI.BaseURL,
		}
	}
	if p.Enhancer.Enabled {
		svc := p.Enhancer.toService()
		cfg.Enhancer = &svc
	}
	return cfg
}

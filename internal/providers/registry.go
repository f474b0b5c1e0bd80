package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the configured OCR engines and math recognizers by name
// and assembles the Models bundle for a run.
type Registry struct {
	mu       sync.RWMutex
	layout   LayoutDetector
	ocr      map[string]OCREngine
	math     map[string]MathRecognizer
	enhancer Enhancer
	logger   *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		ocr:    make(map[string]OCREngine),
		math:   make(map[string]MathRecognizer),
		logger: slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// SetLayout sets the layout detector.
func (r *Registry) SetLayout(d LayoutDetector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layout = d
}

// SetEnhancer sets the optional crop enhancer.
func (r *Registry) SetEnhancer(e Enhancer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enhancer = e
}

// RegisterOCR registers an OCR engine by name.
func (r *Registry) RegisterOCR(name string, engine OCREngine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ocr[name] = engine
	r.logger.Debug("registered OCR engine", "name", name)
}

// RegisterMath registers a LaTeX recognizer by name.
func (r *Registry) RegisterMath(name string, m MathRecognizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.math[name] = m
	r.logger.Debug("registered math recognizer", "name", name)
}

// GetOCR returns an OCR engine by name.
func (r *Registry) GetOCR(name string) (OCREngine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.ocr[name]
	if !ok {
		return nil, fmt.Errorf("OCR engine not found: %s (available: %v)", name, r.listOCR())
	}
	return e, nil
}

// GetMath returns a math recognizer by name.
func (r *Registry) GetMath(name string) (MathRecognizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.math[name]
	if !ok {
		return nil, fmt.Errorf("math recognizer not found: %s", name)
	}
	return m, nil
}

// ListOCR returns the registered OCR engine names, sorted.
func (r *Registry) ListOCR() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listOCR()
}

func (r *Registry) listOCR() []string {
	names := make([]string, 0, len(r.ocr))
	for name := range r.ocr {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Models assembles the bundle for a run using the named OCR backend and
// math recognizer.
func (r *Registry) Models(ocrName, mathName string) (Models, error) {
	ocr, err := r.GetOCR(ocrName)
	if err != nil {
		return Models{}, err
	}
	math, err := r.GetMath(mathName)
	if err != nil {
		return Models{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.layout == nil {
		return Models{}, fmt.Errorf("no layout detector configured")
	}
	return Models{Layout: r.layout, OCR: ocr, Math: math, Enhancer: r.enhancer}, nil
}

// RegistryConfig defines the providers to instantiate from config.
// API keys are already resolved.
type RegistryConfig struct {
	Layout    ServiceConfig
	Tesseract TesseractConfig
	Mistral   *MistralOCRConfig // nil = disabled
	MathHTTP  *ServiceConfig    // nil = disabled
	OpenAI    *OpenAIMathConfig // nil = disabled
	Enhancer  *ServiceConfig    // nil = disabled
	// EnhanceMaxSide is the passthrough threshold for the enhancer.
	EnhanceMaxSide int
}

// NewRegistryFromConfig creates a registry with every enabled backend.
// Tesseract is always registered; remote backends need a base URL or key.
func NewRegistryFromConfig(cfg RegistryConfig, logger *slog.Logger) *Registry {
	r := NewRegistry()
	if logger != nil {
		r.SetLogger(logger)
	}
	if cfg.Layout.BaseURL != "" {
		r.SetLayout(NewLayoutClient(cfg.Layout))
	}
	r.RegisterOCR(TesseractName, NewTesseractClient(cfg.Tesseract))
	if cfg.Mistral != nil && cfg.Mistral.APIKey != "" {
		r.RegisterOCR(MistralOCRName, NewMistralOCRClient(*cfg.Mistral))
	}
	if cfg.MathHTTP != nil && cfg.MathHTTP.BaseURL != "" {
		r.RegisterMath(LaTeXHTTPName, NewLaTeXClient(*cfg.MathHTTP))
	}
	if cfg.OpenAI != nil && cfg.OpenAI.APIKey != "" {
		r.RegisterMath(OpenAIMathName, NewOpenAIMathClient(*cfg.OpenAI))
	}
	if cfg.Enhancer != nil && cfg.Enhancer.BaseURL != "" {
		r.SetEnhancer(NewEnhancerClient(*cfg.Enhancer, cfg.EnhanceMaxSide))
	}
	return r
}

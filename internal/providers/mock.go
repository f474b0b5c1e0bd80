package providers

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/Malay-RB/Document-parsing/internal/layout"
)

const MockClientName = "mock"

// MockLayout returns scripted boxes per call, in call order. Calls beyond
// the script return no boxes.
type MockLayout struct {
	mu     sync.Mutex
	Pages  [][]layout.Box
	Err    error
	called int
}

func (m *MockLayout) Name() string { return MockClientName }

func (m *MockLayout) Detect(ctx context.Context, page image.Image) ([]layout.Box, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	i := m.called
	m.called++
	if i >= len(m.Pages) {
		return nil, nil
	}
	return m.Pages[i], nil
}

// MockOCR is an OCREngine for testing. Recognize returns Texts in call
// order (then Default); ReadElements returns Elements in call order.
type MockOCR struct {
	mu sync.Mutex

	Texts    []string
	Default  string
	Elements [][]Element
	Err      error

	RecognizeCalls int
	ElementCalls   int
}

func (m *MockOCR) Name() string { return MockClientName }

func (m *MockOCR) Recognize(ctx context.Context, crop image.Image) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	i := m.RecognizeCalls
	m.RecognizeCalls++
	if i < len(m.Texts) {
		return m.Texts[i], nil
	}
	return m.Default, nil
}

func (m *MockOCR) ReadElements(ctx context.Context, img image.Image) ([]Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	i := m.ElementCalls
	m.ElementCalls++
	if i < len(m.Elements) {
		return m.Elements[i], nil
	}
	return nil, nil
}

// MockMath returns a fixed LaTeX string.
type MockMath struct {
	LaTeX string
	Err   error
	Calls int
}

func (m *MockMath) Name() string { return MockClientName }

func (m *MockMath) RecognizeLaTeX(ctx context.Context, crop image.Image) (string, error) {
	m.Calls++
	return m.LaTeX, m.Err
}

// MockBoxReader answers reads by region. Tests key text on the exact
// rectangle of the box being read; unknown regions return an empty string.
type MockBoxReader struct {
	mu sync.Mutex

	Text  map[layout.Rect]string
	LaTeX map[layout.Rect]string
	// Errs fails reads of the given regions.
	Errs map[layout.Rect]error

	Calls []layout.Rect
}

// NewMockBoxReader creates a reader with empty maps.
func NewMockBoxReader() *MockBoxReader {
	return &MockBoxReader{
		Text:  make(map[layout.Rect]string),
		LaTeX: make(map[layout.Rect]string),
		Errs:  make(map[layout.Rect]error),
	}
}

func (m *MockBoxReader) ReadText(ctx context.Context, page image.Image, r layout.Rect, pad Padding) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, r)
	if err := m.Errs[r]; err != nil {
		return "", err
	}
	return m.Text[r], nil
}

func (m *MockBoxReader) ReadLaTeX(ctx context.Context, page image.Image, r layout.Rect) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, r)
	if err := m.Errs[r]; err != nil {
		return "", err
	}
	if s, ok := m.LaTeX[r]; ok {
		return s, nil
	}
	return "", fmt.Errorf("mock: no latex for %v", r)
}

// CallCount returns how many reads hit r.
func (m *MockBoxReader) CallCount(r layout.Rect) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == r {
			n++
		}
	}
	return n
}

var (
	_ LayoutDetector = (*MockLayout)(nil)
	_ OCREngine      = (*MockOCR)(nil)
	_ MathRecognizer = (*MockMath)(nil)
	_ BoxReader      = (*MockBoxReader)(nil)
)

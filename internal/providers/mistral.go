package providers

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/Malay-RB/Document-parsing/internal/layout"
)

const (
	MistralOCRName    = "mistral"
	MistralOCRBaseURL = "https://api.mistral.ai/v1"
	MistralOCRModel   = "mistral-ocr-latest"
)

// MistralOCRConfig holds configuration for the Mistral OCR client.
type MistralOCRConfig struct {
	ServiceConfig
	Model string
}

// MistralOCRClient implements OCREngine using the Mistral OCR API. It is the
// accurate, layout-aware backend; each call costs one API page.
type MistralOCRClient struct {
	svc   *jsonService
	model string
}

// NewMistralOCRClient creates a new Mistral OCR client.
func NewMistralOCRClient(cfg MistralOCRConfig) *MistralOCRClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = MistralOCRBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = MistralOCRModel
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 6.0 // Mistral OCR default rate limit
	}
	return &MistralOCRClient{
		svc:   newJSONService("Mistral OCR", cfg.ServiceConfig),
		model: cfg.Model,
	}
}

// Name returns the provider identifier.
func (c *MistralOCRClient) Name() string {
	return MistralOCRName
}

// Recognize returns the plain text of a crop.
func (c *MistralOCRClient) Recognize(ctx context.Context, crop image.Image) (string, error) {
	page, err := c.process(ctx, crop)
	if err != nil {
		return "", err
	}
	return strings.Join(markdownLines(page.Markdown), " "), nil
}

// MinLineSpacing is the smallest vertical step (px) between the rows
// MistralOCRClient.ReadElements lays out. Row grouping tolerances must
// stay below it or neighbouring lines merge.
const MinLineSpacing = 64

// ReadElements returns one element per markdown line. Mistral does not
// report line geometry, so lines are laid out as evenly spaced full-width
// rows in reading order, at least MinLineSpacing apart. Dense pages may
// extend past the image bottom.
func (c *MistralOCRClient) ReadElements(ctx context.Context, img image.Image) ([]Element, error) {
	page, err := c.process(ctx, img)
	if err != nil {
		return nil, err
	}
	lines := markdownLines(page.Markdown)
	if len(lines) == 0 {
		return nil, nil
	}
	b := img.Bounds()
	step := max(MinLineSpacing, b.Dy()/len(lines))
	els := make([]Element, len(lines))
	for i, line := range lines {
		y := b.Min.Y + i*step
		els[i] = Element{Text: line, BBox: layout.R(b.Min.X, y, b.Max.X, y+step)}
	}
	return els, nil
}

func (c *MistralOCRClient) process(ctx context.Context, img image.Image) (*mistralOCRPage, error) {
	dataURL, err := pngDataURL(img)
	if err != nil {
		return nil, err
	}
	req := mistralOCRRequest{
		Model: c.model,
		Document: mistralDocument{
			Type:     "image_url",
			ImageURL: &mistralImageURL{URL: dataURL},
		},
	}
	var resp mistralOCRResponse
	if err := c.svc.post(ctx, "/ocr", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Pages) == 0 {
		return nil, fmt.Errorf("no pages in OCR response")
	}
	return &resp.Pages[0], nil
}

var mdParser = goldmark.New(goldmark.WithExtensions(extension.Table)).Parser()

// markdownLines flattens OCR markdown into non-empty plain text lines.
// Ordered list numbers survive because TOC rows depend on them; images,
// emphasis markers and table rules do not.
func markdownLines(md string) []string {
	src := []byte(md)
	doc := mdParser.Parse(text.NewReader(src))

	var out []string
	emit := func(lines ...string) {
		for _, line := range lines {
			if line = strings.Join(strings.Fields(line), " "); line != "" {
				out = append(out, line)
			}
		}
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			lines := inlineLines(n, src)
			lines[0] = listMarker(n) + lines[0]
			emit(lines...)
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			for i := 0; i < n.Lines().Len(); i++ {
				seg := n.Lines().At(i)
				emit(string(seg.Value(src)))
			}
			return ast.WalkSkipChildren, nil
		case *extast.TableHeader, *extast.TableRow:
			var cells []string
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				cells = append(cells, strings.Join(inlineLines(c, src), " "))
			}
			emit(strings.Join(cells, " | "))
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

// inlineLines collects the plain text under n, split at line breaks.
// Always returns at least one (possibly empty) line.
func inlineLines(n ast.Node, src []byte) []string {
	var lines []string
	var cur strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c == n {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Image, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			cur.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				lines = append(lines, cur.String())
				cur.Reset()
			}
		case *ast.String:
			cur.Write(c.Value)
		case *ast.AutoLink:
			cur.Write(c.Label(src))
		}
		return ast.WalkContinue, nil
	})
	return append(lines, cur.String())
}

// listMarker restores the "3. " prefix of an ordered list item's first block.
func listMarker(n ast.Node) string {
	item, ok := n.Parent().(*ast.ListItem)
	if !ok || item.FirstChild() != n {
		return ""
	}
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return ""
	}
	num := list.Start
	for c := list.FirstChild(); c != nil && c != ast.Node(item); c = c.NextSibling() {
		num++
	}
	return fmt.Sprintf("%d%c ", num, list.Marker)
}

// Mistral OCR API types

type mistralOCRRequest struct {
	Model              string          `json:"model"`
	Document           mistralDocument `json:"document"`
	IncludeImageBase64 bool            `json:"include_image_base64,omitempty"`
}

type mistralDocument struct {
	Type     string           `json:"type"` // "image_url" or "document_url"
	ImageURL *mistralImageURL `json:"image_url,omitempty"`
}

type mistralImageURL struct {
	URL string `json:"url"`
}

type mistralOCRResponse struct {
	Model string           `json:"model"`
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index      int                   `json:"index"`
	Markdown   string                `json:"markdown"`
	Dimensions mistralPageDimensions `json:"dimensions"`
}

type mistralPageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	DPI    int `json:"dpi"`
}

// Verify interface
var _ OCREngine = (*MistralOCRClient)(nil)

package providers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/Malay-RB/Document-parsing/internal/imgproc"
	"github.com/Malay-RB/Document-parsing/internal/layout"
)

const TesseractName = "tesseract"

// TesseractConfig configures the local tesseract backend.
type TesseractConfig struct {
	Binary   string // Default "tesseract"
	Language string // Default "eng"
	// BlockPSM is the page segmentation mode for single-block crops (default 6).
	BlockPSM int
	// PagePSM is the segmentation mode for whole-page element reads (default 3).
	PagePSM int
}

// TesseractClient shells out to the tesseract CLI. It is the fast local
// backend: no network, no per-page cost.
type TesseractClient struct {
	binary   string
	language string
	blockPSM int
	pagePSM  int
	runner   commandRunner
}

// commandRunner runs a binary with stdin and returns stdout.
type commandRunner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w (output: %s)", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// NewTesseractClient creates a tesseract backend.
func NewTesseractClient(cfg TesseractConfig) *TesseractClient {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.BlockPSM == 0 {
		cfg.BlockPSM = 6
	}
	if cfg.PagePSM == 0 {
		cfg.PagePSM = 3
	}
	return &TesseractClient{
		binary:   cfg.Binary,
		language: cfg.Language,
		blockPSM: cfg.BlockPSM,
		pagePSM:  cfg.PagePSM,
		runner:   execRunner,
	}
}

func (c *TesseractClient) Name() string {
	return TesseractName
}

// Recognize returns the text of a crop as a single line.
func (c *TesseractClient) Recognize(ctx context.Context, crop image.Image) (string, error) {
	data, err := imgproc.EncodePNG(crop)
	if err != nil {
		return "", err
	}
	out, err := c.runner(ctx, data, c.binary, "stdin", "stdout",
		"-l", c.language, "--psm", strconv.Itoa(c.blockPSM))
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(string(out)), " "), nil
}

// ReadElements runs tesseract in hOCR mode and returns one element per
// recognized line, in image coordinates.
func (c *TesseractClient) ReadElements(ctx context.Context, img image.Image) ([]Element, error) {
	data, err := imgproc.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	out, err := c.runner(ctx, data, c.binary, "stdin", "stdout",
		"-l", c.language, "--psm", strconv.Itoa(c.pagePSM), "hocr")
	if err != nil {
		return nil, err
	}
	els, err := ParseHOCRLines(out)
	if err != nil {
		return nil, err
	}
	origin := img.Bounds().Min
	for i := range els {
		r := els[i].BBox
		els[i].BBox = layout.R(r.X1+origin.X, r.Y1+origin.Y, r.X2+origin.X, r.Y2+origin.Y)
	}
	return els, nil
}

// ParseHOCRLines extracts ocr_line (and ocr_caption/ocr_header) spans from
// hOCR markup. Line text is the space-joined text of its words.
func ParseHOCRLines(data []byte) ([]Element, error) {
	decoded, err := decodeHOCR(data)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}

	var els []Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isLineClass(attr(n, "class")) {
			if el, ok := lineElement(n); ok {
				els = append(els, el)
			}
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return els, nil
}

// decodeHOCR converts Latin-1 hOCR to UTF-8; anything else is assumed UTF-8.
func decodeHOCR(data []byte) ([]byte, error) {
	head := strings.ToLower(string(data[:min(len(data), 1024)]))
	if !strings.Contains(head, "charset=iso-8859-1") && !strings.Contains(head, "charset=latin1") {
		return data, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hocr: %w", err)
	}
	return out, nil
}

func isLineClass(class string) bool {
	for _, c := range strings.Fields(class) {
		switch c {
		case "ocr_line", "ocr_caption", "ocr_header", "ocr_textfloat":
			return true
		}
	}
	return false
}

func lineElement(n *html.Node) (Element, bool) {
	bbox, ok := parseBBox(attr(n, "title"))
	if !ok {
		return Element{}, false
	}
	var words []string
	var conf float64
	var confN int
	var walk func(*html.Node)
	walk = func(m *html.Node) {
		if m.Type == html.ElementNode && strings.Contains(attr(m, "class"), "ocrx_word") {
			if w := strings.TrimSpace(nodeText(m)); w != "" {
				words = append(words, w)
			}
			if c, ok := parseWConf(attr(m, "title")); ok {
				conf += c
				confN++
			}
			return
		}
		for ch := m.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	if len(words) == 0 {
		return Element{}, false
	}
	el := Element{Text: strings.Join(words, " "), BBox: bbox}
	if confN > 0 {
		el.Confidence = conf / float64(confN) / 100
	}
	return el, true
}

// parseBBox reads "bbox x1 y1 x2 y2" from an hOCR title attribute.
func parseBBox(title string) (layout.Rect, bool) {
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) < 5 || fields[0] != "bbox" {
			continue
		}
		var v [4]int
		for i := range v {
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return layout.Rect{}, false
			}
			v[i] = n
		}
		return layout.R(v[0], v[1], v[2], v[3]), true
	}
	return layout.Rect{}, false
}

func parseWConf(title string) (float64, bool) {
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 2 && fields[0] == "x_wconf" {
			f, err := strconv.ParseFloat(fields[1], 64)
			return f, err == nil
		}
	}
	return 0, false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		b.WriteString(nodeText(ch))
	}
	return b.String()
}

var _ OCREngine = (*TesseractClient)(nil)

package providers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIMathName         = "openai"
	openAIMathDefaultModel = "gpt-4o-mini"

	openAIMathPrompt = "Transcribe the mathematical content of this image as LaTeX. " +
		"Reply with the LaTeX source only: no prose, no code fences, no surrounding $ delimiters."
)

// OpenAIMathConfig holds configuration for the vision-model LaTeX recognizer.
type OpenAIMathConfig struct {
	APIKey     string
	Model      string
	RateLimit  float64 // Requests per second
	MaxRetries int     // Retry attempts for SDK transport
	Timeout    time.Duration
	BaseURL    string       // Optional (tests, compatible gateways)
	HTTPClient *http.Client // Optional (tests)
}

// OpenAIMathClient implements MathRecognizer with an OpenAI vision chat model.
type OpenAIMathClient struct {
	model   string
	limiter *RateLimiter
	client  openai.Client
}

// NewOpenAIMathClient creates a new OpenAI LaTeX recognizer.
func NewOpenAIMathClient(cfg OpenAIMathConfig) *OpenAIMathClient {
	if cfg.Model == "" {
		cfg.Model = openAIMathDefaultModel
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 8.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIMathClient{
		model:   cfg.Model,
		limiter: NewRateLimiter(cfg.RateLimit),
		client:  openai.NewClient(opts...),
	}
}

func (c *OpenAIMathClient) Name() string {
	return OpenAIMathName
}

// RecognizeLaTeX sends the crop to the chat model and returns its LaTeX.
func (c *OpenAIMathClient) RecognizeLaTeX(ctx context.Context, crop image.Image) (string, error) {
	dataURL, err := pngDataURL(crop)
	if err != nil {
		return "", err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openAIMathPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return stripLaTeXFences(resp.Choices[0].Message.Content), nil
}

// stripLaTeXFences removes code fences and math delimiters models add
// despite instructions.
func stripLaTeXFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```latex")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	for _, d := range []string{"$$", "$"} {
		if len(s) > 2*len(d) && strings.HasPrefix(s, d) && strings.HasSuffix(s, d) {
			s = strings.TrimSpace(s[len(d) : len(s)-len(d)])
			break
		}
	}
	return s
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &StatusError{Service: "OpenAI", StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return err
}

var _ MathRecognizer = (*OpenAIMathClient)(nil)

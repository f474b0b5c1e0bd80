package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/Malay-RB/Document-parsing/internal/imgproc"
)

// StatusError is a non-2xx response from a model service.
type StatusError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ServiceConfig configures a JSON-over-HTTP model service.
type ServiceConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RateLimit  float64 // Requests per second (0 = unlimited)
	MaxRetries int
	RetryDelay time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// jsonService posts JSON bodies to a model service with rate limiting and
// retries on transport errors, 429 and 5xx responses.
type jsonService struct {
	name       string
	baseURL    string
	apiKey     string
	client     *http.Client
	limiter    *RateLimiter
	maxRetries int
	retryDelay time.Duration
}

func newJSONService(name string, cfg ServiceConfig) *jsonService {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &jsonService{
		name:       name,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		client:     client,
		limiter:    NewRateLimiter(cfg.RateLimit),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// post sends body to path and decodes the JSON response into out.
func (s *jsonService) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return retry.Do(
		func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			err := s.do(ctx, path, payload, out)
			if se, ok := err.(*StatusError); ok {
				if se.StatusCode == http.StatusTooManyRequests {
					s.limiter.Drain()
				}
				if !se.Retryable() {
					return retry.Unrecoverable(err)
				}
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.maxRetries)),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
	)
}

func (s *jsonService) do(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp serviceErrorResponse
		msg := string(respBody)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.message() != "" {
			msg = errResp.message()
		}
		return &StatusError{Service: s.name, StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// serviceErrorResponse accepts both {"error":{"message":..}} and
// {"error":"..."} / {"detail":"..."} error bodies.
type serviceErrorResponse struct {
	Error  json.RawMessage `json:"error"`
	Detail string          `json:"detail"`
}

func (r serviceErrorResponse) message() string {
	if len(r.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(r.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if json.Unmarshal(r.Error, &flat) == nil && flat != "" {
			return flat
		}
	}
	return r.Detail
}

// pngDataURL encodes img as a base64 PNG data URL.
func pngDataURL(img image.Image) (string, error) {
	b64, err := pngBase64(img)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + b64, nil
}

func pngBase64(img image.Image) (string, error) {
	data, err := imgproc.EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

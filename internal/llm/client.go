package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	completionPath        = "/completion"
	defaultRequestTimeout = 60 * time.Second
	maxResponseBytes      = 1 << 20
	endOfSequenceMarker   = "</s>"
)

var (
	// ErrUnavailable indicates that the text generation backend could not produce a completion.
	ErrUnavailable = errors.New("llm: backend unavailable")
	// ErrInvalidClientConfig indicates that the client configuration is incomplete.
	ErrInvalidClientConfig = errors.New("llm: invalid client config")
)

// CompletionRequest describes one prompt submitted to the backend.
type CompletionRequest struct {
	Prompt    string
	MaxTokens int
}

// CompletionResponse carries the generated text, trimmed of surrounding whitespace.
type CompletionResponse struct {
	Text string
}

// Generator produces text completions.
type Generator interface {
	Complete(ctx context.Context, request CompletionRequest) (CompletionResponse, error)
}

// ClientConfig configures the HTTP completion client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to a llama.cpp-compatible completion server.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient validates configuration and constructs a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base url required", ErrInvalidClientConfig)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   baseURL + completionPath,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type completionPayload struct {
	Prompt   string   `json:"prompt"`
	NPredict int      `json:"n_predict"`
	Stop     []string `json:"stop"`
}

type completionResult struct {
	Content string `json:"content"`
}

// Complete submits the prompt and returns the generated text. Any transport, status, or decoding
// failure is reported as ErrUnavailable.
func (c *Client) Complete(ctx context.Context, request CompletionRequest) (CompletionResponse, error) {
	payload, err := json.Marshal(completionPayload{
		Prompt:   request.Prompt,
		NPredict: request.MaxTokens,
		Stop:     []string{endOfSequenceMarker},
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(requestCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	started := time.Now()
	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		c.logger.Warn("completion request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return CompletionResponse{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		c.logger.Warn("completion response read failed", zap.Error(err))
		return CompletionResponse{}, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn("completion backend returned error status",
			zap.Int("status", response.StatusCode),
			zap.ByteString("body", truncate(body, 256)))
		return CompletionResponse{}, fmt.Errorf("%w: status %d", ErrUnavailable, response.StatusCode)
	}

	var result completionResult
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Warn("completion response decode failed", zap.Error(err))
		return CompletionResponse{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	c.logger.Debug("completion generated",
		zap.Int("max_tokens", request.MaxTokens),
		zap.Duration("elapsed", time.Since(started)))
	return CompletionResponse{Text: strings.TrimSpace(result.Content)}, nil
}

func truncate(body []byte, limit int) []byte {
	if len(body) <= limit {
		return body
	}
	return body[:limit]
}

package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	detectPath            = "/detect_beats"
	defaultRequestTimeout = 120 * time.Second
	maxResponseBytes      = 4 << 20
)

var (
	// ErrUnavailable indicates that beat detection could not be performed.
	ErrUnavailable = errors.New("analyzer: backend unavailable")
	// ErrInvalidClientConfig indicates that the client configuration is incomplete.
	ErrInvalidClientConfig = errors.New("analyzer: invalid client config")
)

// Request carries the uploaded audio and detection window.
type Request struct {
	Filename    string
	Audio       io.Reader
	StartTime   float64
	EndTime     float64
	NumBeats    int
	EvenSpacing bool
}

// SyncPoint pairs a slide label with a detected beat time in seconds.
type SyncPoint struct {
	Slide string  `json:"slide"`
	Time  float64 `json:"time"`
}

// Result is the analyzer output.
type Result struct {
	SyncPoints             []SyncPoint `json:"sync_points"`
	EstimatedTotalDuration float64     `json:"estimated_total_duration"`
}

// BeatTimes returns the detected beat times in order.
func (r Result) BeatTimes() []float64 {
	times := make([]float64, 0, len(r.SyncPoints))
	for _, point := range r.SyncPoints {
		times = append(times, point.Time)
	}
	return times
}

// Detector detects beats in an audio stream.
type Detector interface {
	Detect(ctx context.Context, request Request) (Result, error)
}

// ClientConfig configures the HTTP analyzer client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client uploads audio to the beat analysis service.
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
		endpoint:   baseURL + detectPath,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Detect streams the audio as a multipart upload and decodes the detected sync points.
func (c *Client) Detect(ctx context.Context, request Request) (Result, error) {
	if request.Audio == nil {
		return Result{}, fmt.Errorf("%w: missing audio", ErrUnavailable)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	bodyReader, bodyWriter := io.Pipe()
	form := multipart.NewWriter(bodyWriter)
	go func() {
		bodyWriter.CloseWithError(writeForm(form, request))
	}()

	httpRequest, err := http.NewRequestWithContext(requestCtx, http.MethodPost, c.endpoint, bodyReader)
	if err != nil {
		bodyReader.CloseWithError(err)
		return Result{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	httpRequest.Header.Set("Content-Type", form.FormDataContentType())

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		bodyReader.CloseWithError(err)
		c.logger.Warn("beat detection request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn("beat detection returned error status", zap.Int("status", response.StatusCode))
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, response.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(io.LimitReader(response.Body, maxResponseBytes)).Decode(&result); err != nil {
		c.logger.Warn("beat detection response decode failed", zap.Error(err))
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if result.SyncPoints == nil {
		result.SyncPoints = []SyncPoint{}
	}
	return result, nil
}

func writeForm(form *multipart.Writer, request Request) error {
	filename := request.Filename
	if strings.TrimSpace(filename) == "" {
		filename = "audio"
	}
	part, err := form.CreateFormFile("audio", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, request.Audio); err != nil {
		return err
	}
	fields := map[string]string{
		"start_time":   strconv.FormatFloat(request.StartTime, 'f', -1, 64),
		"end_time":     strconv.FormatFloat(request.EndTime, 'f', -1, 64),
		"num_beats":    strconv.Itoa(request.NumBeats),
		"even_spacing": strconv.FormatBool(request.EvenSpacing),
	}
	for _, name := range []string{"start_time", "end_time", "num_beats", "even_spacing"} {
		if err := form.WriteField(name, fields[name]); err != nil {
			return err
		}
	}
	return form.Close()
}

// Package extractor calls the LLM-backed feature-extraction service that
// turns a raw email body into a complete style feature vector, and validates
// the result at the boundary so downstream code can assume completeness.
package extractor

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

	"stylemail/internal/model"
	"stylemail/pkg/metrics"
)

// ErrEmptyBody is returned before any network call when the input is empty
// or whitespace only.
var ErrEmptyBody = errors.New("extractor: empty email body")

// ExtractionError is the terminal failure of the extraction path: the
// service answered with an unrecoverable status, or its output stayed
// malformed after the repair pipeline and the re-request budget.
type ExtractionError struct {
	Stage string // "request" or "decode"
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("feature extraction failed (%s): %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// defaultMaxAttempts bounds re-requests on malformed output or 5xx answers.
// The budget is attempt-based, not time-based.
const defaultMaxAttempts = 3

type extractRequest struct {
	Body string `json:"body"`
}

// Client talks to the feature-extraction service over HTTP.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	logger      *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: defaultMaxAttempts,
		logger:      logger,
	}
}

// Extract sends the trimmed email body to the extraction service and returns
// a schema-complete, range-clamped feature vector. A malformed response is
// repaired where possible and re-requested up to the attempt budget;
// exceeding the budget is a terminal ExtractionError.
func (c *Client) Extract(ctx context.Context, body string) (*model.FeatureVector, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		raw, retryable, err := c.call(ctx, body)
		if err != nil {
			if !retryable {
				return nil, &ExtractionError{Stage: "request", Err: err}
			}
			lastErr = err
			continue
		}

		vec, err := decodeFeatureVector(raw)
		if err != nil {
			c.logger.Warn("Malformed extractor output, re-requesting",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		if clamped := vec.Clamp(); len(clamped) > 0 {
			c.logger.Debug("Clamped out-of-range feature values",
				zap.Strings("metrics", clamped),
			)
		}
		return vec, nil
	}
	return nil, &ExtractionError{Stage: "decode", Err: lastErr}
}

// call performs one HTTP round trip. The bool reports whether a failure is
// worth another attempt (network error or 5xx) as opposed to terminal (4xx).
func (c *Client) call(ctx context.Context, body string) ([]byte, bool, error) {
	b, err := json.Marshal(extractRequest{Body: body})
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(b))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveExtractorCall("error", time.Since(start))
		return nil, true, fmt.Errorf("extractor service unreachable: %w", err)
	}
	defer resp.Body.Close()

	metrics.ObserveExtractorCall(fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("extractor service 5xx: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("extractor service error: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read extractor response: %w", err)
	}
	return raw, false, nil
}

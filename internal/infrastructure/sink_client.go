package infrastructure

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"attrgo/internal/domain"
	"attrgo/pkg/logger"
	"attrgo/pkg/metrics"
)

// implements domain.SinkClient: POSTs computed attribution results to an
// external sink, HMAC-signed when a secret is configured.
type HTTPSinkClient struct {
	client      *http.Client
	sinkURL     string
	sinkSecret  string
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

func NewHTTPSinkClient(sinkURL, sinkSecret string, timeout time.Duration, ratePerSecond int, logger *logger.Logger, metrics *metrics.Metrics) *HTTPSinkClient {
	if ratePerSecond < 1 {
		ratePerSecond = 1
	}
	return &HTTPSinkClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		sinkURL:     sinkURL,
		sinkSecret:  sinkSecret,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond), 10),
	}
}

func (c *HTTPSinkClient) Export(ctx context.Context, results []domain.AttributionResult, date time.Time) error {
	if c.sinkURL == "" {
		return fmt.Errorf("sink URL not configured")
	}

	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordSinkFailure("rate_limit")
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	payload, err := json.Marshal(results)
	if err != nil {
		c.metrics.RecordSinkFailure("json_marshal")
		return fmt.Errorf("failed to marshal attribution results: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.sinkURL, bytes.NewReader(payload))
	if err != nil {
		c.metrics.RecordSinkFailure("request_creation")
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.sinkSecret != "" {
		req.Header.Set("X-Signature", c.signPayload(payload))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordSinkFailure("network_error")
		return fmt.Errorf("failed to export attribution results: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordSinkCall(fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return fmt.Errorf("sink returned status %d", resp.StatusCode)
	}

	c.metrics.RecordSinkCall("success", duration)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"url":      c.sinkURL,
		"duration": duration,
		"records":  len(results),
		"date":     date.Format("2006-01-02"),
	}).Info("Exported attribution results")

	return nil
}

// HMAC-SHA256 over the request body
func (c *HTTPSinkClient) signPayload(payload []byte) string {
	h := hmac.New(sha256.New, []byte(c.sinkSecret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

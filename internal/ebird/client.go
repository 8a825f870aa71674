package ebird

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

const (
	maxRetries       = 3
	defaultRetryBase = 500 * time.Millisecond
	previewLimit     = 500
)

// Client provides methods for interacting with the eBird API
type Client struct {
	config      Config
	httpClient  *http.Client
	cache       *cache.Cache
	limiter     *rate.Limiter
	log         logger.Logger
	retryBase   time.Duration
	firstCallMu sync.Once

	metrics struct {
		apiCalls    atomic.Int64
		cacheHits   atomic.Int64
		cacheMisses atomic.Int64
		apiErrors   atomic.Int64
	}
}

// NewClient creates a new eBird API client
func NewClient(config Config, log logger.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("eBird API key is required").
			Category(errors.CategoryConfiguration).
			Component("ebird").
			Build()
	}

	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.RateLimitMS == 0 {
		config.RateLimitMS = defaults.RateLimitMS
	}
	if log == nil {
		log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	}

	client := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		cache:      cache.New(config.CacheTTL, config.CacheTTL*2),
		limiter:    rate.NewLimiter(rate.Every(time.Duration(config.RateLimitMS)*time.Millisecond), 1),
		log:        log.Module("ebird"),
		retryBase:  defaultRetryBase,
	}

	client.log.Info("eBird client initialized",
		logger.String("base_url", config.BaseURL),
		logger.Duration("cache_ttl", config.CacheTTL),
		logger.Int("rate_limit_ms", config.RateLimitMS))

	return client, nil
}

// RecentObservations returns the most recent observation of each species at
// a location during the last backDays days (1..30).
func (c *Client) RecentObservations(ctx context.Context, locationID string, backDays int) ([]Observation, error) {
	return c.observations(ctx, "recent", locationID, backDays,
		fmt.Sprintf("%s/data/obs/%s/recent", c.config.BaseURL, url.PathEscape(locationID)))
}

// RecentNotable returns notable (rare or unusual) observations in a region
// such as "IN-TN" during the last backDays days.
func (c *Client) RecentNotable(ctx context.Context, regionCode string, backDays int) ([]Observation, error) {
	return c.observations(ctx, "notable", regionCode, backDays,
		fmt.Sprintf("%s/data/obs/%s/recent/notable", c.config.BaseURL, url.PathEscape(regionCode)))
}

func (c *Client) observations(ctx context.Context, kind, code string, backDays int, endpoint string) ([]Observation, error) {
	if code == "" {
		return nil, errors.Newf("eBird %s observations need a location or region code", kind).
			Category(errors.CategoryValidation).
			Component("ebird").
			Build()
	}
	if backDays < 1 || backDays > MaxBackDays {
		return nil, errors.Newf("back days must be between 1 and %d, got %d", MaxBackDays, backDays).
			Category(errors.CategoryValidation).
			Context("back_days", backDays).
			Component("ebird").
			Build()
	}

	cacheKey := fmt.Sprintf("%s:%s:%d", kind, code, backDays)
	if cached, found := c.cache.Get(cacheKey); found {
		if obs, ok := cached.([]Observation); ok {
			c.metrics.cacheHits.Add(1)
			c.log.Debug("eBird cache hit",
				logger.String("cache_key", cacheKey),
				logger.Int("observations", len(obs)))
			return obs, nil
		}
	}
	c.metrics.cacheMisses.Add(1)

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	requestURL := fmt.Sprintf("%s?back=%d", endpoint, backDays)

	var obs []Observation
	if err := c.doRequestWithRetry(reqCtx, requestURL, &obs); err != nil {
		return nil, err
	}
	if obs == nil {
		obs = []Observation{}
	}

	c.cache.Set(cacheKey, obs, cache.DefaultExpiration)

	c.log.Debug("eBird observations cached",
		logger.String("cache_key", cacheKey),
		logger.Int("observations", len(obs)))

	return obs, nil
}

// doRequest performs one GET request with rate limiting and auth
func (c *Client) doRequest(ctx context.Context, requestURL string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Newf("rate limiter wait aborted: %w", err).
			Category(errors.CategoryTimeout).
			Context("url", requestURL).
			Component("ebird").
			Build()
	}

	start := time.Now()
	c.metrics.apiCalls.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		c.metrics.apiErrors.Add(1)
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Component("ebird").
			Build()
	}

	req.Header.Set("X-eBirdApiToken", c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.apiErrors.Add(1)
		c.log.Warn("eBird API request failed",
			logger.Error(err),
			logger.String("url", requestURL))

		category := errors.CategoryNetwork
		if ctx.Err() != nil {
			category = errors.CategoryTimeout
		}
		return errors.Newf("HTTP request failed: %w", err).
			Category(category).
			Context("url", requestURL).
			Component("ebird").
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.apiErrors.Add(1)
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Context("status_code", resp.StatusCode).
			Component("ebird").
			Build()
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.metrics.apiErrors.Add(1)
		return c.apiError(resp.StatusCode, bodyBytes, requestURL)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		c.metrics.apiErrors.Add(1)
		c.log.Error("eBird API returned non-JSON response",
			logger.Int("status_code", resp.StatusCode),
			logger.String("content_type", contentType),
			logger.String("url", requestURL),
			logger.String("response_preview", preview(bodyBytes)))
		return errors.Newf("eBird API returned non-JSON response (Content-Type: %s)", contentType).
			Category(errors.CategoryFileParsing).
			Context("status_code", resp.StatusCode).
			Context("content_type", contentType).
			Context("url", requestURL).
			Component("ebird").
			Build()
	}

	if err := json.Unmarshal(bodyBytes, result); err != nil {
		c.metrics.apiErrors.Add(1)
		c.log.Error("Failed to parse eBird API response",
			logger.Error(err),
			logger.String("url", requestURL),
			logger.Int("response_size", len(bodyBytes)),
			logger.String("response_preview", preview(bodyBytes)))
		return errors.Newf("failed to parse response: %w", err).
			Category(errors.CategoryFileParsing).
			Context("url", requestURL).
			Context("response_size", len(bodyBytes)).
			Component("ebird").
			Build()
	}

	c.firstCallMu.Do(func() {
		c.log.Info("eBird API authentication successful",
			logger.String("first_successful_request", requestURL))
	})
	c.log.Debug("eBird API request successful",
		logger.String("url", requestURL),
		logger.Int64("duration_ms", time.Since(start).Milliseconds()),
		logger.Int("response_size", len(bodyBytes)))

	return nil
}

// apiError converts a non-success response into an enhanced error
func (c *Client) apiError(statusCode int, body []byte, requestURL string) error {
	detail := preview(body)
	title := ""
	var apiErr Error
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		detail = apiErr.Detail
		title = apiErr.Title
	}

	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		c.log.Error("eBird API authentication failed",
			logger.Int("status_code", statusCode),
			logger.String("error_detail", detail),
			logger.String("message", "Check the eBird API key in the configuration"))
	} else {
		c.log.Warn("eBird API error response",
			logger.Int("status_code", statusCode),
			logger.String("error_title", title),
			logger.String("error_detail", detail),
			logger.String("url", requestURL))
	}

	return errors.Newf("eBird API error (status %d): %s", statusCode, detail).
		Category(getErrorCategory(statusCode)).
		Context("status_code", statusCode).
		Context("error_title", title).
		Context("url", requestURL).
		Component("ebird").
		Build()
}

// doRequestWithRetry wraps doRequest with retry logic for transient failures
func (c *Client) doRequestWithRetry(ctx context.Context, requestURL string, result any) error {
	var lastErr error

	for attempt := range maxRetries {
		err := c.doRequest(ctx, requestURL, result)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}

		if attempt < maxRetries-1 {
			delay := time.Duration(attempt+1) * c.retryBase
			c.log.Warn("eBird API request failed, retrying",
				logger.Int("attempt", attempt+1),
				logger.Int("max_retries", maxRetries),
				logger.Int64("delay_ms", delay.Milliseconds()),
				logger.String("url", requestURL),
				logger.Error(err))

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			}
		}
	}

	return lastErr
}

// isRetryable reports whether a failed request may succeed when repeated
func isRetryable(err error) bool {
	var enhancedErr *errors.EnhancedError
	if !errors.As(err, &enhancedErr) {
		return true
	}

	switch enhancedErr.Category {
	case errors.CategoryConfiguration, errors.CategoryNotFound, errors.CategoryValidation, errors.CategoryFileParsing:
		return false
	}

	if statusCode, ok := enhancedErr.GetContext()["status_code"].(int); ok {
		if statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests {
			return false
		}
	}
	return true
}

// ClearCache clears all cached data
func (c *Client) ClearCache() {
	c.cache.Flush()
	c.log.Info("eBird cache cleared")
}

// Metrics represents eBird client counters
type Metrics struct {
	APICalls    int64 `json:"api_calls"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APIErrors   int64 `json:"api_errors"`
}

// GetMetrics returns current client metrics
func (c *Client) GetMetrics() Metrics {
	return Metrics{
		APICalls:    c.metrics.apiCalls.Load(),
		CacheHits:   c.metrics.cacheHits.Load(),
		CacheMisses: c.metrics.cacheMisses.Load(),
		APIErrors:   c.metrics.apiErrors.Load(),
	}
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CategoryConfiguration
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	case http.StatusBadRequest:
		return errors.CategoryValidation
	default:
		return errors.CategoryNetwork
	}
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > previewLimit {
		return s[:previewLimit] + "..."
	}
	return s
}

// Package rest implements query.API on the BigQuery v2 REST endpoints
// (jobs.query and jobs.getQueryResults) with error classification and retry.
//
// Authentication is the caller's business: pass an *http.Client whose
// transport attaches credentials.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/bigquery-rows/pkg/query"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public BigQuery v2 REST root.
const DefaultBaseURL = "https://bigquery.googleapis.com/bigquery/v2"

// Operation names used in logs and metric labels.
const (
	opQuery           = "query"
	opGetQueryResults = "getQueryResults"
)

// Body fields set by the client.
const (
	keyRequestID = "requestId"
	keyLocation  = "location"
)

// Client talks to the BigQuery REST API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

var _ query.API = (*Client)(nil)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, without trailing slash.
	BaseURL string

	// ProjectID owns the query jobs (REQUIRED).
	ProjectID string

	// Location is the job location (e.g. "EU"). Optional.
	Location string

	// UserAgent header (REQUIRED).
	UserAgent string

	// HTTPClient carries authentication. A plain client is used when nil.
	HTTPClient *http.Client

	// Retry
	MaxRetries     int           // Retries after the first attempt; negative keeps the per-class default
	InitialBackoff time.Duration // Overrides the per-class initial backoff when > 0
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(projectID, userAgent string) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		ProjectID:      projectID,
		UserAgent:      userAgent,
		MaxRetries:     2,
		InitialBackoff: 0,
	}
}

// New creates a new BigQuery REST client.
func New(cfg Config) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project id is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// jobs.query may hold the connection for the full timeoutMs.
		httpClient = &http.Client{
			Timeout: 2 * time.Minute,
		}
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     log.With().Str("component", "bq-rest").Logger(),
	}, nil
}

// RunQuery submits body to jobs.query. A requestId is added when the body
// has none; every retry of the call sends the same id, so BigQuery runs the
// job at most once.
func (c *Client) RunQuery(ctx context.Context, body query.Body) (*query.Response, error) {
	add := query.Body{}
	if _, ok := body[keyRequestID]; !ok {
		add[keyRequestID] = uuid.NewString()
	}
	if c.config.Location != "" {
		if _, ok := body[keyLocation]; !ok {
			add[keyLocation] = c.config.Location
		}
	}
	if len(add) > 0 {
		body = withFields(body, add)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode query body: %w", err)
	}

	c.logger.Debug().
		Interface("request_id", body[keyRequestID]).
		Msg("Submitting jobs.query")

	path := fmt.Sprintf("/projects/%s/queries", url.PathEscape(c.config.ProjectID))
	return c.do(ctx, opQuery, http.MethodPost, path, nil, payload)
}

// GetQueryResults fetches one page of jobID's results.
func (c *Client) GetQueryResults(ctx context.Context, jobID string, params query.PageParams) (*query.Response, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	values := params.Values()
	if c.config.Location != "" {
		values.Set(keyLocation, c.config.Location)
	}

	path := fmt.Sprintf("/projects/%s/queries/%s",
		url.PathEscape(c.config.ProjectID), url.PathEscape(jobID))
	return c.do(ctx, opGetQueryResults, http.MethodGet, path, values, nil)
}

// do performs one API call with retry and decodes the response.
func (c *Client) do(ctx context.Context, op, method, path string, values url.Values, payload []byte) (*query.Response, error) {
	target := c.config.BaseURL + path
	if len(values) > 0 {
		target += "?" + values.Encode()
	}

	startTime := time.Now()
	defer func() {
		bqRequestDuration.WithLabelValues(op).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("method", op).
		Str("url", target).
		Msg("Executing BigQuery request")

	var result *query.Response
	err := retryWithBackoff(ctx, c.logger, c.retryConfig, func() error {
		res, err := c.attempt(ctx, op, method, target, payload)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// attempt sends a single HTTP request.
func (c *Client) attempt(ctx context.Context, op, method, target string, payload []byte) (*query.Response, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Cancellation is not a network fault; do not retry it.
			bqRequestsTotal.WithLabelValues(op, "cancelled").Inc()
			return nil, ctx.Err()
		}
		c.logger.Error().Err(err).Str("method", op).Msg("HTTP request failed")
		bqErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		bqRequestsTotal.WithLabelValues(op, "network_error").Inc()
		return nil, &APIError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		bqErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		bqRequestsTotal.WithLabelValues(op, "network_error").Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	status := strconv.Itoa(resp.StatusCode)
	bqRequestsTotal.WithLabelValues(op, status).Inc()

	if resp.StatusCode >= 400 {
		apiErr := newAPIError(resp.StatusCode, resp.Status, data)
		bqErrorsTotal.WithLabelValues(string(apiErr.ErrorClass)).Inc()
		c.logger.Warn().
			Str("method", op).
			Int("status", resp.StatusCode).
			Str("error_class", string(apiErr.ErrorClass)).
			Str("reason", apiErr.Reason).
			Msg("BigQuery request error")
		return nil, apiErr
	}

	var res query.Response
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", op, err)
	}
	return &res, nil
}

// retryConfig applies the client overrides to the per-class schedule.
func (c *Client) retryConfig(class ErrorClass) RetryConfig {
	cfg := RetryConfigForErrorClass(class)
	if c.config.MaxRetries >= 0 {
		cfg.MaxAttempts = c.config.MaxRetries + 1
	}
	if c.config.InitialBackoff > 0 {
		cfg.InitialBackoff = c.config.InitialBackoff
		if cfg.MaxBackoff < cfg.InitialBackoff {
			cfg.MaxBackoff = cfg.InitialBackoff
		}
	}
	return cfg
}

// withFields copies body and sets the fields of add on the copy.
func withFields(body, add query.Body) query.Body {
	out := make(query.Body, len(body)+len(add))
	for k, v := range body {
		out[k] = v
	}
	for k, v := range add {
		out[k] = v
	}
	return out
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetLogger replaces the client logger.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

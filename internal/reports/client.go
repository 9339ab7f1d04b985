package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobFetcher defines the read side of the queue API.
// This interface is implemented by *Client and can be used for testing.
type JobFetcher interface {
	FetchJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, query ListQuery) ([]Job, error)
	Health(ctx context.Context) (*Health, error)
}

// Ensure Client implements JobFetcher at compile time.
var _ JobFetcher = (*Client)(nil)

// Client talks to the report generation queue HTTP API.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	userAgent  string
	token      string
	timeout    time.Duration
	maxRetries int
	retryBase  time.Duration
	logger     *zap.Logger
}

// Version is reported in the User-Agent header.
const Version = "0.3.0"

const (
	defaultAPIURL     = "http://127.0.0.1:8080"
	defaultUserAgent  = "reportwatch/" + Version
	defaultTimeout    = 15 * time.Second
	defaultRetryBase  = 250 * time.Millisecond
	maxRetryInterval  = 5 * time.Second
	maxErrorBodyBytes = 4 << 10
)

// Options configure a Client.
type Options struct {
	BaseURL        string
	Token          string
	RequestTimeout time.Duration // per attempt; zero uses 15s
	MaxRetries     int           // retries after the first attempt
	HTTPClient     *http.Client  // nil builds an HTTP/2-capable client
	Logger         *zap.Logger
}

// NewClient builds a Client for the given options.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient, err = newHTTPClient()
		if err != nil {
			return nil, err
		}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    base,
		http:       httpClient,
		userAgent:  defaultUserAgent,
		token:      strings.TrimSpace(opts.Token),
		timeout:    timeout,
		maxRetries: retries,
		retryBase:  defaultRetryBase,
		logger:     logger,
	}, nil
}

// SubmitJob queues a new report generation job. The same idempotency key is
// sent on every retry so the backend can drop duplicates.
func (c *Client) SubmitJob(ctx context.Context, req SubmitRequest) (*Job, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		return nil, fmt.Errorf("template id required")
	}
	headers := http.Header{}
	headers.Set("Idempotency-Key", uuid.NewString())

	var job Job
	rel := &url.URL{Path: "/api/reports/jobs"}
	if err := c.doURL(ctx, http.MethodPost, rel, req, headers, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// FetchJob retrieves the current state of one job.
func (c *Client) FetchJob(ctx context.Context, id string) (*Job, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel, err := jobPath(id, "")
	if err != nil {
		return nil, err
	}
	var job Job
	if err := c.doURL(ctx, http.MethodGet, rel, nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListQuery configures GET /api/reports/jobs requests.
type ListQuery struct {
	Status Status
	Limit  int
}

// ListJobs retrieves the queue, newest first as ordered by the backend.
func (c *Client) ListJobs(ctx context.Context, query ListQuery) ([]Job, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if status := query.Status.Normalize(); status != "" {
		values.Set("status", string(status))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	rel := &url.URL{Path: "/api/reports/jobs", RawQuery: values.Encode()}
	var payload JobList
	if err := c.doURL(ctx, http.MethodGet, rel, nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// CancelJob asks the backend to stop a queued or running job.
func (c *Client) CancelJob(ctx context.Context, id string) (*Job, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel, err := jobPath(id, "cancel")
	if err != nil {
		return nil, err
	}
	var job Job
	if err := c.doURL(ctx, http.MethodPost, rel, nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Health retrieves backend health and queue depth.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload Health
	if err := c.doURL(ctx, http.MethodGet, &url.URL{Path: "/api/health"}, nil, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// doURL runs one logical request, retrying transport failures, 429 and 5xx
// with jittered exponential backoff. Each attempt gets its own timeout.
func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body any, headers http.Header, dest any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	requestID := uuid.NewString()

	attempt := 0
	op := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		err := c.once(attemptCtx, method, rel, payload, headers, requestID, dest)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("retrying api request",
			zap.String("method", method),
			zap.String("path", rel.Path),
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	err := backoff.RetryNotify(op, c.newBackOff(ctx), notify)
	if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryBase
	exp.MaxInterval = maxRetryInterval
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.maxRetries)), ctx)
}

func (c *Client) once(ctx context.Context, method string, rel *url.URL, payload []byte, headers http.Header, requestID string, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &transportError{err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &APIError{Path: rel.Path, StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// transportError marks failures that happened before a response arrived.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var tErr *transportError
	return errors.As(err, &tErr)
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

func jobPath(id, action string) (*url.URL, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, fmt.Errorf("job id required")
	}
	path := "/api/reports/jobs/" + trimmed
	rawPath := "/api/reports/jobs/" + url.PathEscape(trimmed)
	if action != "" {
		path += "/" + action
		rawPath += "/" + action
	}
	return &url.URL{Path: path, RawPath: rawPath}, nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

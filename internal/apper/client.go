package apper

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// DefaultRate is the request rate used unless WithRateLimit is given.
	DefaultRate = 10

	// DefaultBurst is how many requests may go out back to back.
	DefaultBurst = 5

	apiVersion = "v1"

	requestIDHeader = "X-Request-ID"
)

var (
	// ErrTimeout is returned when a call exceeds APITimeout.
	ErrTimeout = errors.New("request timed out")

	// ErrUnauthorized is returned for rejected credentials.
	ErrUnauthorized = errors.New("credentials rejected")

	// ErrNotFound is returned when the backend has no such resource.
	ErrNotFound = errors.New("not found")
)

// HTTPClient implements Client over the Apper REST API.
type HTTPClient struct {
	http      *http.Client
	baseURL   string
	projectID string
	limiter   *rate.Limiter
	log       zerolog.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithLogger sets the logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// WithRateLimit caps outgoing requests at perSecond with the given burst.
// A non-positive perSecond disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *HTTPClient) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a client authenticating with the project's public key.
func New(ctx context.Context, baseURL, projectID, publicKey string, opts ...Option) (*HTTPClient, error) {
	if projectID == "" {
		return nil, fmt.Errorf("apper project id required")
	}
	if publicKey == "" {
		return nil, fmt.Errorf("apper public key required")
	}

	// The public key is sent as a bearer token on every request.
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: publicKey,
		TokenType:   "Bearer",
	})
	httpClient := oauth2.NewClient(ctx, tokenSource)

	return NewWithHTTPClient(httpClient, baseURL, projectID, opts...), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(httpClient *http.Client, baseURL, projectID string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		http:      httpClient,
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		limiter:   rate.NewLimiter(DefaultRate, DefaultBurst),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRecords queries a table.
func (c *HTTPClient) FetchRecords(ctx context.Context, table string, params FetchParams) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.tablePath(table, "records", "query"), params)
}

// GetRecordByID fetches one record.
func (c *HTTPClient) GetRecordByID(ctx context.Context, table string, id int, params FetchParams) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.tablePath(table, "records", strconv.Itoa(id), "query"), params)
}

// CreateRecord inserts records.
func (c *HTTPClient) CreateRecord(ctx context.Context, table string, params RecordsParams) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.tablePath(table, "records"), params)
}

// UpdateRecord patches records; each record must carry its Id.
func (c *HTTPClient) UpdateRecord(ctx context.Context, table string, params RecordsParams) (*Response, error) {
	return c.do(ctx, http.MethodPatch, c.tablePath(table, "records"), params)
}

// DeleteRecord deletes records by id.
func (c *HTTPClient) DeleteRecord(ctx context.Context, table string, params DeleteParams) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.tablePath(table, "records"), params)
}

func (c *HTTPClient) tablePath(table string, parts ...string) string {
	segs := append([]string{apiVersion, "projects", c.projectID, "tables", table}, parts...)
	return joinPath(segs...)
}

func joinPath(segs ...string) string {
	escaped := make([]string, len(segs))
	for i, s := range segs {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}

// errNoContent marks a 2xx response without a body.
var errNoContent = errors.New("no content")

// do sends body as JSON and decodes the response envelope. A 2xx response
// without a body counts as success.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*Response, error) {
	var out Response
	err := c.send(ctx, method, path, body, &out)
	if errors.Is(err, errNoContent) {
		return &Response{Success: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", wrapError(err))
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("request_id", requestID).Str("method", method).Str("path", path).Msg("request failed")
		return wrapError(err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("apper request")

	if err := googleapi.CheckResponse(resp); err != nil {
		return wrapError(err)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", wrapError(err))
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return errNoContent
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w (check APPER_PUBLIC_KEY)", ErrUnauthorized)
		case http.StatusNotFound:
			return ErrNotFound
		}
		msg := apiErr.Message
		if msg == "" {
			msg = strings.TrimSpace(apiErr.Body)
		}
		if msg == "" {
			msg = http.StatusText(apiErr.Code)
		}
		return fmt.Errorf("backend returned HTTP %d: %s", apiErr.Code, msg)
	}

	return err
}

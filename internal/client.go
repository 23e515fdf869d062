package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service endpoints
const (
	AnalyzePath  = "/api/analyze"
	HistoryPath  = "/api/history"
	AnalysisPath = "/api/analysis/"
	HealthPath   = "/api/health"
)

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 8 << 20

// AnalysisService is the remote collaborator the pipeline depends on
type AnalysisService interface {
	Analyze(ctx context.Context, payload EncodedImage, lang Language) (*Analysis, error)
	FetchHistory(ctx context.Context) ([]Analysis, error)
}

// HealthStatus is the body of the health endpoint
type HealthStatus struct {
	Status string `json:"status"`
}

// Healthy reports whether the service declared itself healthy
func (h *HealthStatus) Healthy() bool {
	return h != nil && h.Status == "healthy"
}

type analyzeRequest struct {
	Screenshot string   `json:"screenshot"`
	Language   Language `json:"language"`
}

// Client talks to the remote analysis service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets a whole-request timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client for the service rooted at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised service root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Analyze sends one analysis request. It never retries.
func (c *Client) Analyze(ctx context.Context, payload EncodedImage, lang Language) (*Analysis, error) {
	if payload.Payload == "" {
		return nil, &EncodingError{Ref: "payload", Err: errors.New("payload is empty")}
	}

	body, err := json.Marshal(analyzeRequest{Screenshot: payload.Payload, Language: lang})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, contentType, err := c.do(ctx, http.MethodPost, AnalyzePath, body)
	if err != nil {
		return nil, err
	}

	a, err := ValidateAnalysisResponse(respBody, contentType)
	if err != nil {
		return nil, &RequestError{Kind: KindMalformedResponse, Endpoint: AnalyzePath, Err: err}
	}
	LogDebug("Analysis %s received (dpi=%d)", a.ID, a.DPIScore)
	return a, nil
}

// FetchHistory retrieves the service's persisted analyses in service order
func (c *Client) FetchHistory(ctx context.Context) ([]Analysis, error) {
	respBody, contentType, err := c.do(ctx, http.MethodGet, HistoryPath, nil)
	if err != nil {
		return nil, err
	}

	list, err := ValidateHistoryResponse(respBody, contentType)
	if err != nil {
		return nil, &RequestError{Kind: KindMalformedResponse, Endpoint: HistoryPath, Err: err}
	}
	return list, nil
}

// FetchAnalysis retrieves a single analysis by id
func (c *Client) FetchAnalysis(ctx context.Context, id string) (*Analysis, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("analysis id is required")
	}
	path := AnalysisPath + url.PathEscape(id)
	respBody, contentType, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	a, err := ValidateAnalysisResponse(respBody, contentType)
	if err != nil {
		return nil, &RequestError{Kind: KindMalformedResponse, Endpoint: path, Err: err}
	}
	return a, nil
}

// Health queries the service health endpoint
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	respBody, contentType, err := c.do(ctx, http.MethodGet, HealthPath, nil)
	if err != nil {
		return nil, err
	}
	if err := checkPayload(respBody, contentType); err != nil {
		return nil, &RequestError{Kind: KindMalformedResponse, Endpoint: HealthPath, Err: err}
	}

	var status HealthStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, &RequestError{Kind: KindMalformedResponse, Endpoint: HealthPath, Err: malformed("invalid health body", err)}
	}
	return &status, nil
}

// do performs one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, string, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	LogDebug("%s %s (request %s)", method, path, requestID)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &RequestError{Kind: KindNetwork, Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", &RequestError{Kind: KindNetwork, Endpoint: path, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	LogDebug("%s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &RequestError{
			Kind:     KindServiceRejected,
			Endpoint: path,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("service returned %s: %s", resp.Status, snippet(respBody)),
		}
	}
	return respBody, resp.Header.Get("Content-Type"), nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}

// Package remote is the client for the external log API. Every operation
// returns a Result; failures are normalized into a Failure value and never
// escape as raw errors or panics.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
)

// maxResponseBytes caps JSON bodies read from the API
const maxResponseBytes = 16 << 20

// Config holds client settings
type Config struct {
	BaseURL     string
	Timeout     time.Duration // bounds exports, index pushes and diagnostics
	ListTimeout time.Duration // bounds namespace and load-balancer lookups
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client is an HTTP client for the log API
type Client struct {
	baseURL     string
	timeout     time.Duration
	listTimeout time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
	parser      fastjson.ParserPool
}

// NewClient creates a new API client
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		timeout:     cfg.Timeout,
		listTimeout: cfg.ListTimeout,
		httpClient:  cfg.HTTPClient,
		logger:      cfg.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = constants.DefaultRequestTimeout
	}
	if c.listTimeout <= 0 {
		c.listTimeout = constants.DefaultListTimeout
	}
	if c.httpClient == nil {
		// Deadlines come from per-call contexts so downloads can stream
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListNamespaces handles GET /api/namespaces/{tenant}
func (c *Client) ListNamespaces(ctx context.Context, tenant string) Result[[]string] {
	path := "/api/namespaces/" + url.PathEscape(tenant)

	var out []string
	f := c.call(ctx, c.listTimeout, http.MethodGet, path, nil, nil, func(v *fastjson.Value) {
		out = stringList(v, "namespaces")
	})
	if f != nil {
		return Failed[[]string](f)
	}
	return Succeeded(out)
}

// ListLoadBalancers handles GET /api/loadbalancers/{tenant}/{namespace}
func (c *Client) ListLoadBalancers(ctx context.Context, tenant, namespace string) Result[[]string] {
	path := "/api/loadbalancers/" + url.PathEscape(tenant) + "/" + url.PathEscape(namespace)

	var out []string
	f := c.call(ctx, c.listTimeout, http.MethodGet, path, nil, nil, func(v *fastjson.Value) {
		out = stringList(v, "loadbalancers")
	})
	if f != nil {
		return Failed[[]string](f)
	}
	return Succeeded(out)
}

// Diagnose handles GET /api/diagnose/{tenant}/{namespace}/{loadbalancer}
func (c *Client) Diagnose(ctx context.Context, tenant, namespace, loadBalancer string) Result[domain.Diagnosis] {
	path := "/api/diagnose/" + url.PathEscape(tenant) + "/" + url.PathEscape(namespace) + "/" + url.PathEscape(loadBalancer)

	var out domain.Diagnosis
	f := c.call(ctx, c.timeout, http.MethodGet, path, nil, nil, func(v *fastjson.Value) {
		out = parseDiagnosis(v)
	})
	if f != nil {
		return Failed[domain.Diagnosis](f)
	}
	return Succeeded(out)
}

// FetchLogs handles GET /api/logs. The remote side writes a CSV file that
// can then be fetched with Download.
func (c *Client) FetchLogs(ctx context.Context, q domain.Query) Result[domain.LogExport] {
	var out domain.LogExport
	f := c.call(ctx, c.timeout, http.MethodGet, "/api/logs", queryValues(q), nil, func(v *fastjson.Value) {
		out = parseLogExport(v)
	})
	if f != nil {
		return Failed[domain.LogExport](f)
	}
	if out.LogType == "" {
		out.LogType = q.LogType
	}
	return Succeeded(out)
}

// SendToIndex handles POST /api/logs/elk
func (c *Client) SendToIndex(ctx context.Context, q domain.Query) Result[domain.IndexReport] {
	var out domain.IndexReport
	f := c.call(ctx, c.timeout, http.MethodPost, "/api/logs/elk", queryValues(q), nil, func(v *fastjson.Value) {
		out = parseIndexReport(v)
	})
	if f != nil {
		return Failed[domain.IndexReport](f)
	}
	return Succeeded(out)
}

// TestIndex handles GET /api/elk/test and returns the raw JSON answer
func (c *Client) TestIndex(ctx context.Context) Result[json.RawMessage] {
	return c.passThrough(ctx, http.MethodGet, "/api/elk/test", nil)
}

// IndexConfig handles GET /api/elk/config
func (c *Client) IndexConfig(ctx context.Context) Result[json.RawMessage] {
	return c.passThrough(ctx, http.MethodGet, "/api/elk/config", nil)
}

// UpdateIndexConfig handles POST /api/elk/config with a JSON body
func (c *Client) UpdateIndexConfig(ctx context.Context, body []byte) Result[json.RawMessage] {
	return c.passThrough(ctx, http.MethodPost, "/api/elk/config", body)
}

// DownloadURL returns the API URL of a generated file
func (c *Client) DownloadURL(file string) string {
	return c.baseURL + "/api/download?" + url.Values{"file": {file}}.Encode()
}

// Download is a streamed file from GET /api/download
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Filename      string
}

// Download handles GET /api/download?file=. The caller must close Body.
func (c *Client) Download(ctx context.Context, file string) Result[*Download] {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(file), nil)
	if err != nil {
		cancel()
		return Failed[*Download](&Failure{Kind: FailureTransport, Message: err.Error()})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		c.logger.Warn("remote download failed", "file", file, "error", err)
		return Failed[*Download](transportFailure(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
		cancel()
		return Failed[*Download](c.normalizeError(resp.StatusCode, body))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv"
	}
	return Succeeded(&Download{
		Body:          &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		Filename:      file,
	})
}

// cancelOnClose releases the request context once the body is consumed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// queryValues encodes a Query. The load balancer is omitted for audit logs.
func queryValues(q domain.Query) url.Values {
	v := url.Values{}
	v.Set("log_type", q.LogType.String())
	v.Set("tenant", q.Tenant)
	v.Set("namespace", q.Namespace)
	v.Set("hours", strconv.Itoa(q.Hours))
	if q.LogType.RequiresLoadBalancer() && q.LoadBalancer != "" {
		v.Set("loadbalancer", q.LoadBalancer)
	}
	return v
}

func (c *Client) passThrough(ctx context.Context, method, path string, body []byte) Result[json.RawMessage] {
	var out json.RawMessage
	f := c.call(ctx, c.listTimeout, method, path, nil, body, func(v *fastjson.Value) {
		out = json.RawMessage(v.MarshalTo(nil))
	})
	if f != nil {
		return Failed[json.RawMessage](f)
	}
	return Succeeded(out)
}

// call performs one JSON request and hands the parsed body to decode. The
// parsed value is only valid inside decode.
func (c *Client) call(ctx context.Context, timeout time.Duration, method, path string, query url.Values, body []byte, decode func(*fastjson.Value)) *Failure {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Failure{Kind: FailureTransport, Message: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("remote request failed", "method", method, "path", path, "error", err)
		return transportFailure(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportFailure(err)
	}
	c.logger.Debug("remote request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f := c.normalizeError(resp.StatusCode, data)
		c.logger.Info("remote request rejected", "method", method, "path", path, "status", resp.StatusCode, "message", f.Message)
		return f
	}

	p := c.parser.Get()
	defer c.parser.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return &Failure{Kind: FailureRemote, Status: resp.StatusCode, Message: "invalid response from log API", Detail: err.Error()}
	}
	decode(v)
	return nil
}

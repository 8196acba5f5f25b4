package hostfuncs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/status"
)

// HTTPRequest is an outbound request assembled from a guest envelope.
type HTTPRequest struct {
	Method      string
	URL         string
	ContentType string
	Headers     []envelope.FormField
	Queries     []envelope.FormField
	Body        []byte
	HasBody     bool
}

// NewHTTPRequest converts a request descriptor.
func NewHTTPRequest(req envelope.RequestData) HTTPRequest {
	return HTTPRequest{
		Method:  string(req.Method),
		URL:     req.URL,
		Headers: req.HeaderPairs(),
		Queries: req.QueryPairs(),
	}
}

// WithBody returns a copy of r carrying body. contentType applies unless the
// guest set a Content-Type header itself.
func (r HTTPRequest) WithBody(body []byte, contentType string) HTTPRequest {
	r.Body = body
	r.ContentType = contentType
	r.HasBody = true
	return r
}

// EncodeForm url-encodes fields in order. Duplicate names are kept.
func EncodeForm(fields []envelope.FormField) []byte {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(f.Name()))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(f.Value()))
	}
	return []byte(sb.String())
}

// HTTPOption is a functional option for configuring HTTP request behavior.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	client          *http.Client
	timeout         time.Duration
	maxRedirects    int
	maxBodySize     int
	followRedirects bool
	policy          *NetworkPolicy
}

func defaultHTTPConfig() httpConfig {
	return httpConfig{
		timeout:         30 * time.Second,
		maxRedirects:    10,
		followRedirects: true,
		maxBodySize:     DefaultMaxBodySize,
	}
}

func newHTTPConfig(opts ...HTTPOption) httpConfig {
	cfg := defaultHTTPConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// sharedClientOptions returns opts extended with one client built from them,
// so that every request made with the result shares a transport and its
// idle connections.
func sharedClientOptions(opts ...HTTPOption) []HTTPOption {
	cfg := newHTTPConfig(opts...)
	if cfg.client != nil {
		return opts
	}
	return append(opts[:len(opts):len(opts)], WithHTTPClient(createHTTPClient(cfg)))
}

// WithHTTPRequestTimeout sets the HTTP request timeout.
func WithHTTPRequestTimeout(d time.Duration) HTTPOption {
	return func(c *httpConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPMaxRedirects sets the maximum number of redirects to follow.
// Zero disables redirects: the redirect response itself is returned.
func WithHTTPMaxRedirects(n int) HTTPOption {
	return func(c *httpConfig) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

// WithHTTPFollowRedirects controls whether to follow redirects.
func WithHTTPFollowRedirects(follow bool) HTTPOption {
	return func(c *httpConfig) {
		c.followRedirects = follow
	}
}

// WithHTTPMaxBodySize sets the maximum response body size. Larger bodies
// fail with status.ReadResponse.
func WithHTTPMaxBodySize(size int) HTTPOption {
	return func(c *httpConfig) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithHTTPClient replaces the client requests are sent with.
// Timeout and redirect options are then left to that client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *httpConfig) {
		c.client = client
	}
}

// WithHTTPNetworkPolicy restricts the hosts and ports requests may reach.
// Redirect targets are checked as well when the default client is used.
func WithHTTPNetworkPolicy(p *NetworkPolicy) HTTPOption {
	return func(c *httpConfig) {
		c.policy = p
	}
}

// PerformHTTPRequest sends req and returns the response body. The status
// code is not inspected; the guest receives the body of any response.
//
// Failures carry the status Kind reported to the guest: a malformed request
// is status.Deserialize, a failed exchange is status.CallHTTPRequest or
// status.SendWithBody depending on whether a body was sent, and a body that
// cannot be read in full is status.ReadResponse. A request denied by the
// network policy fails like an exchange that never reached the server.
//
// Without WithHTTPClient every call builds its own client; HTTPBundle builds
// one and shares it.
func PerformHTTPRequest(ctx context.Context, req HTTPRequest, opts ...HTTPOption) ([]byte, error) {
	cfg := newHTTPConfig(opts...)

	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, status.Wrap(status.Deserialize, err)
	}

	if cfg.policy != nil {
		if err := cfg.policy.Check(httpReq.URL); err != nil {
			return nil, status.Wrap(failedExchangeKind(req), err)
		}
	}

	client := cfg.client
	if client == nil {
		client = createHTTPClient(cfg)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	resp, err := client.Do(httpReq.WithContext(ctx))
	if err != nil {
		return nil, status.Wrap(failedExchangeKind(req), err)
	}
	defer func() { _ = resp.Body.Close() }()

	return readHTTPResponse(resp, cfg.maxBodySize)
}

func failedExchangeKind(req HTTPRequest) status.Kind {
	if req.HasBody {
		return status.SendWithBody
	}
	return status.CallHTTPRequest
}

func buildHTTPRequest(ctx context.Context, req HTTPRequest) (*http.Request, error) {
	method, err := envelope.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q: scheme and host are required", req.URL)
	}
	if len(req.Queries) > 0 {
		query := string(EncodeForm(req.Queries))
		if u.RawQuery != "" {
			u.RawQuery += "&" + query
		} else {
			u.RawQuery = query
		}
	}

	var body io.Reader
	if req.HasBody {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(method), u.String(), body)
	if err != nil {
		return nil, err
	}

	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name(), h.Value())
	}
	if req.HasBody && req.ContentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	return httpReq, nil
}

// createHTTPClient creates an HTTP client with the appropriate redirect policy.
func createHTTPClient(cfg httpConfig) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := &http.Client{
		Timeout:   cfg.timeout,
		Transport: transport,
	}

	if !cfg.followRedirects || cfg.maxRedirects == 0 {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.maxRedirects)
			}
			if cfg.policy != nil {
				return cfg.policy.Check(req.URL)
			}
			return nil
		}
	}

	return client
}

func readHTTPResponse(resp *http.Response, maxBodySize int) ([]byte, error) {
	body, err := ReadLimited(resp.Body, maxBodySize)
	if err != nil {
		return nil, status.Wrap(status.ReadResponse, err)
	}
	return body, nil
}

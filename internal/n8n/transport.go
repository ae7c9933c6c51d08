// Package n8n talks to the public REST API of an n8n server: it lists
// resource collections and resolves workflow summaries into full detail
// records.
package n8n

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

const (
	// DialTimeout bounds connection setup regardless of the request timeout.
	DialTimeout         = 30 * time.Second
	KeepAlive           = 30 * time.Second
	IdleConnTimeout     = 90 * time.Second
	TLSHandshakeTimeout = 10 * time.Second
	MaxIdleConns        = 16
)

// Transport performs one JSON request. A nil result with a nil error
// means the server answered 2xx with an empty body.
type Transport interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (json.RawMessage, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, method, url string, headers map[string]string, body []byte) (json.RawMessage, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (json.RawMessage, error) {
	return f(ctx, method, url, headers, body)
}

// TransportOptions configures NewTransport.
type TransportOptions struct {
	// Insecure disables TLS certificate validation.
	Insecure bool
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration
	// UserAgent is sent with every request.
	UserAgent string
	// Logger receives debug lines for completed requests. Optional.
	Logger *zap.SugaredLogger
}

// RestyTransport is the HTTP Transport.
type RestyTransport struct {
	http *resty.Client
}

// NewTransport creates a RestyTransport. It never retries: a failed call
// is reported to the caller at once.
func NewTransport(opts TransportOptions) *RestyTransport {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	c := resty.New()
	c.SetLogger(logger)
	c.SetTransport(createTransport(opts.Insecure))
	c.SetTimeout(opts.Timeout)
	c.SetRetryCount(0)
	c.SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debugf("HTTP %s %s | %d | %s", resp.Request.Method, resp.Request.URL, resp.StatusCode(), resp.Time())
		return nil
	})

	return &RestyTransport{http: c}
}

func createTransport(insecure bool) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   DialTimeout,
		KeepAlive: KeepAlive,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        MaxIdleConns,
		MaxIdleConnsPerHost: MaxIdleConns,
		IdleConnTimeout:     IdleConnTimeout,
		TLSHandshakeTimeout: TLSHandshakeTimeout,
	}
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return transport
}

// Do sends the request and returns the parsed body.
func (t *RestyTransport) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (json.RawMessage, error) {
	op := method + " " + url

	req := t.http.R().SetContext(ctx).SetHeaders(headers)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backuperrors.Wrapf(backuperrors.ErrCanceled, err, op)
		}
		return nil, backuperrors.Wrapf(backuperrors.ErrTransport, err, op)
	}

	if !resp.IsSuccess() {
		return nil, backuperrors.NewHTTPError(method, url, resp.StatusCode(), http.StatusText(resp.StatusCode()), resp.String())
	}

	raw := bytes.TrimSpace(resp.Body())
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, backuperrors.Wrap(fmt.Errorf("%w: %s", backuperrors.ErrDecode, snippet(raw)), op)
	}
	return json.RawMessage(raw), nil
}

func snippet(b []byte) string {
	const n = 200
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

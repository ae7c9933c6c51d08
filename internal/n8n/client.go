package n8n

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
	"github.com/chazuruo/n8n-backup/internal/resource"
)

// API key header names. Older servers read the lower-case form, current
// ones the upper-case form; both carry the same value.
const (
	HeaderAPIKey       = "X-N8N-API-KEY"
	HeaderLegacyAPIKey = "n8n-api-key"
)

// Client lists resources of one n8n server.
type Client struct {
	transport Transport
	baseURL   string
	apiKey    string
}

// NewClient creates a Client. A trailing slash on baseURL is dropped.
func NewClient(transport Transport, baseURL, apiKey string) *Client {
	return &Client{
		transport: transport,
		baseURL:   NormalizeBaseURL(baseURL),
		apiKey:    apiKey,
	}
}

// NormalizeBaseURL strips one trailing slash.
func NormalizeBaseURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/")
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Accept":           "application/json",
		HeaderAPIKey:       c.apiKey,
		HeaderLegacyAPIKey: c.apiKey,
	}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.transport.Do(ctx, http.MethodGet, c.baseURL+path, c.headers(), nil)
}

// List fetches and normalizes the collection of kind. Errors are
// *errors.ResourceError; whether they are fatal is up to the caller.
func (c *Client) List(ctx context.Context, kind resource.Kind) (Listing, error) {
	body, err := c.get(ctx, kind.Endpoint())
	if err != nil {
		return Listing{}, &backuperrors.ResourceError{Kind: kind.String(), Op: "list", Err: err}
	}
	return Normalize(kind, body), nil
}

// Workflow fetches the detail record of one workflow.
func (c *Client) Workflow(ctx context.Context, id string) (Record, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/%s", resource.Workflows.Endpoint(), url.PathEscape(id)))
	if err != nil {
		return nil, err
	}
	rec := Record(body)
	if len(rec) == 0 || gjson.ParseBytes(rec).Type == gjson.Null {
		return nil, fmt.Errorf("empty workflow detail: %w", backuperrors.ErrNotFound)
	}
	return rec, nil
}

// Resolve returns the full detail of a workflow summary. A summary that
// already carries nodes and connections is returned unchanged without a
// request. Errors are *errors.WorkflowError.
func (c *Client) Resolve(ctx context.Context, summary Record) (Record, error) {
	if summary.HasDetail() {
		return summary, nil
	}
	id := summary.ID()
	detail, err := c.Workflow(ctx, id)
	if err != nil {
		return nil, &backuperrors.WorkflowError{Op: "resolve", ID: id, Name: summary.Name(), Err: err}
	}
	return detail, nil
}

package n8n

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
	"github.com/chazuruo/n8n-backup/internal/resource"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(NewTransport(TransportOptions{}), server.URL+"/", "secret")
}

func TestClient_ListSendsHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/tags", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get(HeaderAPIKey))
		assert.Equal(t, "secret", r.Header.Get(HeaderLegacyAPIKey))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"data":[{"id":"t1","name":"prod"}]}`))
	})

	got, err := c.List(context.Background(), resource.Tags)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count())
	assert.JSONEq(t, `[{"id":"t1","name":"prod"}]`, string(got.Body))
}

func TestClient_NormalizesBaseURL(t *testing.T) {
	c := NewClient(TransportFunc(func(_ context.Context, _, url string, _ map[string]string, _ []byte) (json.RawMessage, error) {
		assert.Equal(t, "https://n8n.example.com/api/v1/users", url)
		return json.RawMessage(`[]`), nil
	}), "https://n8n.example.com/", "k")

	assert.Equal(t, "https://n8n.example.com", c.BaseURL())
	_, err := c.List(context.Background(), resource.Users)
	require.NoError(t, err)
}

func TestClient_ListFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	_, err := c.List(context.Background(), resource.Variables)
	require.Error(t, err)

	resErr, ok := backuperrors.AsResourceError(err)
	require.True(t, ok)
	assert.Equal(t, "variables", resErr.Kind)

	httpErr, ok := backuperrors.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Status)
	assert.True(t, backuperrors.IsStatus(err))
}

func TestClient_ListEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	got, err := c.List(context.Background(), resource.Projects)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count())
	assert.JSONEq(t, `[]`, string(got.Body))
}

func TestClient_WorkflowEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows/a%2Fb%20c", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"id":"a/b c","nodes":[],"connections":{}}`))
	})

	rec, err := c.Workflow(context.Background(), "a/b c")
	require.NoError(t, err)
	assert.Equal(t, "a/b c", rec.ID())
}

func TestClient_WorkflowEmptyDetail(t *testing.T) {
	for _, body := range []string{"", "null"} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		_, err := c.Workflow(context.Background(), "1")
		require.Error(t, err, "body %q", body)
		assert.True(t, backuperrors.IsNotFound(err))
	}
}

func TestClient_ResolveSkipsFetchWhenDetailPresent(t *testing.T) {
	var calls int32
	c := NewClient(TransportFunc(func(context.Context, string, string, map[string]string, []byte) (json.RawMessage, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}), "http://n8n", "k")

	summary := Record(`{"id":"1","name":"A","nodes":[],"connections":{}}`)
	got, err := c.Resolve(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, string(summary), string(got))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestClient_ResolveFetchesDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows/7", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"7","name":"Seven","nodes":[{"name":"n"}],"connections":{}}`))
	})

	got, err := c.Resolve(context.Background(), Record(`{"id":"7","name":"Seven"}`))
	require.NoError(t, err)
	assert.True(t, got.HasDetail())
}

func TestClient_ResolveFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	_, err := c.Resolve(context.Background(), Record(`{"id":"9","name":"Nine"}`))
	require.Error(t, err)

	wfErr, ok := backuperrors.AsWorkflowError(err)
	require.True(t, ok)
	assert.Equal(t, "9", wfErr.ID)
	assert.Equal(t, "Nine", wfErr.Name)
	assert.True(t, backuperrors.IsStatus(err))
}

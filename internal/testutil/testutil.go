// Package testutil provides helper functions for testing.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
)

// TempDir creates a temporary directory and registers a cleanup function.
// The directory is automatically deleted when the test completes.
func TempDir(t *testing.T) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "n8n-backup-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	t.Cleanup(func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Errorf("failed to cleanup temp dir %s: %v", dir, err)
		}
	})

	return dir
}

// Response is a canned reply of FakeServer.
type Response struct {
	Status int
	Body   string
}

// OK returns a 200 response with body.
func OK(body string) Response { return Response{Status: http.StatusOK, Body: body} }

// Status returns an error response with a short JSON message.
func Status(code int) Response {
	return Response{Status: code, Body: `{"message":"` + http.StatusText(code) + `"}`}
}

// FakeServer is an httptest server that answers request paths from a
// fixed table and records every hit. Unknown paths answer 404.
type FakeServer struct {
	*httptest.Server

	// APIKey, when set, is required in both key headers; requests without
	// it answer 401.
	APIKey string

	mu     sync.Mutex
	routes map[string]Response
	hits   map[string]int
}

// NewFakeServer starts a FakeServer that is closed when the test ends.
func NewFakeServer(t *testing.T, routes map[string]Response) *FakeServer {
	t.Helper()

	f := &FakeServer{routes: make(map[string]Response), hits: make(map[string]int)}
	for p, r := range routes {
		f.routes[p] = r
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeServer) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.EscapedPath()]++
	resp, ok := f.routes[r.URL.EscapedPath()]
	apiKey := f.APIKey
	f.mu.Unlock()

	if apiKey != "" && (r.Header.Get("X-N8N-API-KEY") != apiKey || r.Header.Get("n8n-api-key") != apiKey) {
		resp, ok = Status(http.StatusUnauthorized), true
	}
	if !ok {
		resp = Status(http.StatusNotFound)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}

// Set replaces the response of path.
func (f *FakeServer) Set(path string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = resp
}

// Hits returns how often path was requested.
func (f *FakeServer) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// Paths returns every requested path, sorted.
func (f *FakeServer) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := make([]string, 0, len(f.hits))
	for p := range f.hits {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ReadZip returns the entries of the archive at path as name -> content.
func ReadZip(t *testing.T, path string) map[string]string {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open archive %s: %v", path, err)
	}
	defer r.Close()

	entries := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = string(data)
	}
	return entries
}

// ReadTree returns every regular file below dir as slash separated
// relative path -> content.
func ReadTree(t *testing.T, dir string) map[string]string {
	t.Helper()

	entries := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entries[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk %s: %v", dir, err)
	}
	return entries
}

package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chazuruo/n8n-backup/internal/resource"
)

// TimeFormat is the layout of Manifest.GeneratedAt: ISO-8601 in UTC with
// millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// Counts holds the number of records exported per kind. Field order is
// the order of the keys in index.json.
type Counts struct {
	Workflows  int `json:"workflows"`
	Users      int `json:"users"`
	Executions int `json:"executions"`
	Tags       int `json:"tags"`
	Variables  int `json:"variables"`
	Projects   int `json:"projects"`
}

// Set records n for kind.
func (c *Counts) Set(kind resource.Kind, n int) {
	switch kind {
	case resource.Workflows:
		c.Workflows = n
	case resource.Users:
		c.Users = n
	case resource.Executions:
		c.Executions = n
	case resource.Tags:
		c.Tags = n
	case resource.Variables:
		c.Variables = n
	case resource.Projects:
		c.Projects = n
	}
}

// Get returns the count of kind.
func (c Counts) Get(kind resource.Kind) int {
	switch kind {
	case resource.Workflows:
		return c.Workflows
	case resource.Users:
		return c.Users
	case resource.Executions:
		return c.Executions
	case resource.Tags:
		return c.Tags
	case resource.Variables:
		return c.Variables
	case resource.Projects:
		return c.Projects
	}
	return 0
}

// WorkflowResult describes one exported workflow in the manifest.
type WorkflowResult struct {
	// ID is the summary's id value as the server sent it; a numeric id
	// stays a JSON number.
	ID     json.RawMessage `json:"id"`
	Name   string          `json:"name"`
	File   string          `json:"file"`
	Active bool            `json:"active"`
	// UpdatedAt is copied verbatim from the detail record and omitted when
	// the record has none.
	UpdatedAt json.RawMessage `json:"updatedAt,omitempty"`
}

// Manifest is the content of index.json.
type Manifest struct {
	BaseURL     string           `json:"baseUrl"`
	Counts      Counts           `json:"counts"`
	GeneratedAt string           `json:"generatedAt"`
	Workflows   []WorkflowResult `json:"workflows"`
}

// NewManifest returns an empty manifest stamped with now.
func NewManifest(baseURL string, now time.Time) Manifest {
	return Manifest{
		BaseURL:     baseURL,
		GeneratedAt: now.UTC().Format(TimeFormat),
		Workflows:   []WorkflowResult{},
	}
}

// Encode returns the pretty-printed manifest with a trailing newline.
func (m Manifest) Encode() ([]byte, error) {
	if m.Workflows == nil {
		m.Workflows = []WorkflowResult{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseManifest decodes index.json content.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}

// Package resource defines the resource kinds an n8n backup can contain
// and the policy that decides which of them a run exports.
package resource

import (
	"fmt"
	"strings"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

// Kind is one of the fixed categories of exportable data.
type Kind string

const (
	// Workflows are exported one file per workflow.
	Workflows Kind = "workflows"
	// Users are exported as an aggregate file.
	Users Kind = "users"
	// Executions are exported as an aggregate file.
	Executions Kind = "executions"
	// Tags are exported as an aggregate file.
	Tags Kind = "tags"
	// Variables are exported as an aggregate file.
	Variables Kind = "variables"
	// Projects are exported as an aggregate file.
	Projects Kind = "projects"
)

// APIPrefix is the versioned prefix of the public n8n REST API.
const APIPrefix = "/api/v1"

// All lists every kind in canonical order. Aggregate files and manifest
// counts follow this order.
var All = []Kind{Workflows, Users, Executions, Tags, Variables, Projects}

// Aggregates lists the kinds exported as a single aggregate file.
var Aggregates = []Kind{Users, Executions, Tags, Variables, Projects}

// Endpoint returns the list endpoint path for the kind.
func (k Kind) Endpoint() string {
	return APIPrefix + "/" + string(k)
}

// FileName returns the aggregate file name for the kind.
func (k Kind) FileName() string {
	return string(k) + ".json"
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range All {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Parse converts a name such as "Tags" into a Kind.
func Parse(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown resource kind %q: %w", name, backuperrors.ErrInvalid)
	}
	return k, nil
}

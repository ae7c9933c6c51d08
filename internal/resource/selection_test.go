package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

func allTrue() map[Kind]bool {
	return map[Kind]bool{
		Workflows: true, Users: true, Executions: true,
		Tags: true, Variables: true, Projects: true,
	}
}

// TestNewSelection_NoFlags tests the export-everything default.
func TestNewSelection_NoFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags map[Kind]bool
	}{
		{"nil", nil},
		{"empty", map[Kind]bool{}},
		{"all false", map[Kind]bool{Workflows: false, Users: false, Tags: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelection(tt.flags)
			assert.Equal(t, allTrue(), sel.Map())
			assert.Equal(t, All, sel.Kinds())
		})
	}
}

// TestNewSelection_OptIn tests that any true flag switches to opt-in mode.
func TestNewSelection_OptIn(t *testing.T) {
	sel := NewSelection(map[Kind]bool{Tags: true})

	assert.True(t, sel.Includes(Tags))
	for _, k := range All {
		if k != Tags {
			assert.False(t, sel.Includes(k), "kind %s should not be selected", k)
		}
	}
	assert.Equal(t, []Kind{Tags}, sel.Kinds())
}

// TestNewSelection_Exact checks that every combination of flags with at
// least one true value is returned exactly.
func TestNewSelection_Exact(t *testing.T) {
	for mask := 1; mask < 1<<len(All); mask++ {
		flags := make(map[Kind]bool)
		for i, k := range All {
			flags[k] = mask&(1<<i) != 0
		}
		sel := NewSelection(flags)
		require.Equal(t, flags, sel.Map(), "mask %b", mask)
	}
}

// TestNewSelection_DoesNotAlias ensures the caller's map cannot change a
// computed selection.
func TestNewSelection_DoesNotAlias(t *testing.T) {
	flags := map[Kind]bool{Users: true}
	sel := NewSelection(flags)
	flags[Projects] = true

	assert.False(t, sel.Includes(Projects))
}

// TestZeroSelection tests that the zero value selects nothing.
func TestZeroSelection(t *testing.T) {
	var sel Selection
	assert.Empty(t, sel.Kinds())
	assert.False(t, sel.Includes(Workflows))
}

// TestKind tests endpoints, file names and parsing.
func TestKind(t *testing.T) {
	assert.Equal(t, "/api/v1/workflows", Workflows.Endpoint())
	assert.Equal(t, "/api/v1/variables", Variables.Endpoint())
	assert.Equal(t, "projects.json", Projects.FileName())
	assert.Equal(t, All[1:], Aggregates)

	k, err := Parse(" Executions ")
	require.NoError(t, err)
	assert.Equal(t, Executions, k)

	_, err = Parse("credentials")
	require.Error(t, err)
	assert.True(t, backuperrors.IsInvalid(err))
}

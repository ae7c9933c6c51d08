package output

import (
	"fmt"
	"strings"

	"github.com/chazuruo/n8n-backup/internal/backup"
	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

// Verify checks a file set read back from disk: the manifest must be
// present and parse, its workflow count must match its workflow list and
// every workflow file it names must exist. It returns the manifest.
func Verify(files backup.FileSet) (backup.Manifest, error) {
	index, ok := files.Lookup(backup.IndexFile)
	if !ok {
		return backup.Manifest{}, fmt.Errorf("%w: %s is missing", backuperrors.ErrInvalid, backup.IndexFile)
	}

	manifest, err := backup.ParseManifest(index.Content)
	if err != nil {
		return backup.Manifest{}, backuperrors.Wrapf(backuperrors.ErrInvalid, err, "verify")
	}

	if manifest.Counts.Workflows != len(manifest.Workflows) {
		return manifest, fmt.Errorf("%w: manifest counts %d workflows but lists %d",
			backuperrors.ErrInvalid, manifest.Counts.Workflows, len(manifest.Workflows))
	}

	var missing []string
	for _, wf := range manifest.Workflows {
		if _, ok := files.Lookup(backup.WorkflowPath(wf.File)); !ok {
			missing = append(missing, wf.File)
		}
	}
	if len(missing) > 0 {
		return manifest, fmt.Errorf("%w: missing workflow files: %s", backuperrors.ErrInvalid, strings.Join(missing, ", "))
	}
	return manifest, nil
}

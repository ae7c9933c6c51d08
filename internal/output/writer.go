// Package output persists a backup file set either as one zip archive or
// as a plain directory tree.
package output

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/chazuruo/n8n-backup/internal/backup"
	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

// Mode selects the output container.
type Mode string

const (
	// ModeArchive writes a single .zip file.
	ModeArchive Mode = "zip"
	// ModeDir writes one JSON file per entry below a directory.
	ModeDir Mode = "dir"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer persists a file set. A failure is fatal for the run.
type Writer interface {
	Write(ctx context.Context, files backup.FileSet) error
	// Location is the path written to.
	Location() string
}

// Options are shared by both writers; each reads what it needs.
type Options struct {
	// Pretty indents workflow files in directory mode.
	Pretty bool
	// Clock stamps archive entries.
	Clock clockwork.Clock
}

// New returns the Writer for mode. fs defaults to the OS filesystem.
func New(mode Mode, fs afero.Fs, path string, opts Options) Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if mode == ModeDir {
		return NewDirWriter(fs, path, opts.Pretty)
	}
	return NewArchiveWriter(fs, path, opts.Clock)
}

// checkNames rejects entry names that are not clean relative slash paths
// staying below the output root.
func checkNames(files backup.FileSet) error {
	for _, file := range files {
		if !validName(file.Name) {
			return fmt.Errorf("%w: unsafe entry name %q", backuperrors.ErrInvalid, file.Name)
		}
	}
	return nil
}

func validName(name string) bool {
	switch {
	case name == "", strings.ContainsAny(name, "\\\x00"), path.IsAbs(name):
		return false
	case path.Clean(name) != name:
		return false
	case name == "..", strings.HasPrefix(name, "../"):
		return false
	}
	return true
}

package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/chazuruo/n8n-backup/internal/backup"
	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

// DirWriter writes every entry as a file below a root directory. Content
// is re-serialized: workflow files follow the pretty flag, aggregates and
// the manifest are always indented.
type DirWriter struct {
	fs     afero.Fs
	root   string
	pretty bool
}

// NewDirWriter creates a DirWriter for root.
func NewDirWriter(fs afero.Fs, root string, pretty bool) *DirWriter {
	return &DirWriter{fs: fs, root: root, pretty: pretty}
}

// Location returns the root directory.
func (w *DirWriter) Location() string { return w.root }

// Write writes files in order. Existing files are overwritten.
func (w *DirWriter) Write(ctx context.Context, files backup.FileSet) error {
	if err := checkNames(files); err != nil {
		return backuperrors.Wrap(err, "write "+w.root)
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return backuperrors.Wrapf(backuperrors.ErrCanceled, err, "write "+w.root)
		}
		if err := w.writeFile(file); err != nil {
			return err
		}
	}
	return nil
}

func (w *DirWriter) writeFile(file backup.File) error {
	path := filepath.Join(w.root, filepath.FromSlash(file.Name))
	op := "write " + path
	if rel, err := filepath.Rel(w.root, path); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s: %w: outside %s", op, backuperrors.ErrInvalid, w.root)
	}

	content, err := backup.Render(file.Content, !file.IsWorkflow() || w.pretty)
	if err != nil {
		return backuperrors.Wrap(err, op)
	}

	if err := w.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return backuperrors.Wrapf(backuperrors.ErrIO, err, op)
	}
	if err := afero.WriteFile(w.fs, path, content, filePerm); err != nil {
		return backuperrors.Wrapf(backuperrors.ErrIO, err, op)
	}
	return nil
}

// ReadDir returns every file below root as a file set with slash
// separated names, in lexical order.
func ReadDir(fs afero.Fs, root string) (backup.FileSet, error) {
	var files backup.FileSet
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, backup.File{Name: filepath.ToSlash(rel), Content: data})
		return nil
	})
	if err != nil {
		return nil, backuperrors.Wrapf(backuperrors.ErrIO, err, "read "+root)
	}
	return files, nil
}

package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/chazuruo/n8n-backup/internal/backup"
	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

// ArchiveWriter writes the file set into one zip archive. Entries keep the
// file set order and share a single modification time.
type ArchiveWriter struct {
	fs    afero.Fs
	path  string
	clock clockwork.Clock
}

// NewArchiveWriter creates an ArchiveWriter for path.
func NewArchiveWriter(fs afero.Fs, path string, clock clockwork.Clock) *ArchiveWriter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ArchiveWriter{fs: fs, path: path, clock: clock}
}

// Location returns the archive path.
func (w *ArchiveWriter) Location() string { return w.path }

// Write builds the archive in a hidden temp file next to the target and
// renames it into place, so the target name never holds a partial archive.
func (w *ArchiveWriter) Write(ctx context.Context, files backup.FileSet) (err error) {
	op := "write archive " + w.path
	if err := checkNames(files); err != nil {
		return backuperrors.Wrap(err, op)
	}

	dir := filepath.Dir(w.path)
	if err := w.fs.MkdirAll(dir, dirPerm); err != nil {
		return backuperrors.Wrapf(backuperrors.ErrIO, err, op)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(w.path), uuid.NewString()))
	f, err := w.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return backuperrors.Wrapf(backuperrors.ErrIO, err, op)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = w.fs.Remove(tmp)
		}
	}()

	if err := writeZip(ctx, f, files, w.clock); err != nil {
		if ctx.Err() != nil {
			return backuperrors.Wrapf(backuperrors.ErrCanceled, err, op)
		}
		return backuperrors.Wrapf(backuperrors.ErrIO, err, op)
	}
	if err := f.Sync(); err != nil {
		return backuperrors.Wrapf(backuperrors.ErrIO, err, op)
	}
	if err := f.Close(); err != nil {
		return backuperrors.Wrapf(backuperrors.ErrIO, err, op)
	}
	if err := w.fs.Rename(tmp, w.path); err != nil {
		_ = w.fs.Remove(tmp)
		return backuperrors.Wrapf(backuperrors.ErrIO, err, op)
	}
	return nil
}

func writeZip(ctx context.Context, out io.Writer, files backup.FileSet, clock clockwork.Clock) error {
	modified := clock.Now()

	zw := zip.NewWriter(out)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return err
		}
		if err := writeZipFile(zw, file.Name, file.Content, modified); err != nil {
			_ = zw.Close()
			return fmt.Errorf("write %s: %w", file.Name, err)
		}
	}
	return zw.Close()
}

// writeZipFile writes a single file to a zip archive.
func writeZipFile(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadArchive returns the entries of a zip archive in archive order.
func ReadArchive(r io.ReaderAt, size int64) (backup.FileSet, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, backuperrors.Wrapf(backuperrors.ErrDecode, err, "read archive")
	}

	files := make(backup.FileSet, 0, len(zr.File))
	for _, entry := range zr.File {
		data, err := readZipEntry(entry)
		if err != nil {
			return nil, backuperrors.Wrapf(backuperrors.ErrIO, err, "read archive entry "+entry.Name)
		}
		files = append(files, backup.File{Name: entry.Name, Content: data})
	}
	return files, nil
}

// ReadArchiveFile opens path on fs and reads it with ReadArchive.
func ReadArchiveFile(fs afero.Fs, path string) (backup.FileSet, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, backuperrors.Wrapf(backuperrors.ErrIO, err, "open archive "+path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, backuperrors.Wrapf(backuperrors.ErrIO, err, "stat archive "+path)
	}
	return ReadArchive(f, info.Size())
}

func readZipEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

const (
	// WorkflowsDir is the folder holding one file per workflow.
	WorkflowsDir = "workflows"
	// IndexFile is the manifest file name. It is always the last entry.
	IndexFile = "index.json"
)

// File is one output entry. Name is a slash separated relative path.
type File struct {
	Name    string
	Content []byte
}

// IsWorkflow reports whether the file lives under WorkflowsDir.
func (f File) IsWorkflow() bool {
	return strings.HasPrefix(f.Name, WorkflowsDir+"/")
}

// FileSet is the ordered list of files a backup produces.
type FileSet []File

// Names returns the entry names in order.
func (s FileSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, f := range s {
		names = append(names, f.Name)
	}
	return names
}

// Lookup returns the file called name.
func (s FileSet) Lookup(name string) (File, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return File{}, false
}

// WorkflowPath returns the entry name of a workflow file.
func WorkflowPath(fileName string) string {
	return path.Join(WorkflowsDir, fileName)
}

// WorkflowFileName returns "<id>-<slug(name)>.json". The id is escaped
// into a single path segment that cannot start with a dot, so the name
// never leaves the workflows folder.
func WorkflowFileName(id, name string) string {
	return fmt.Sprintf("%s-%s.json", fileID(id), Slugify(name))
}

func fileID(id string) string {
	escaped := url.PathEscape(id)
	trimmed := strings.TrimLeft(escaped, ".")
	return strings.Repeat("%2E", len(escaped)-len(trimmed)) + trimmed
}

// Render re-serializes raw JSON, indented by two spaces when pretty is
// set, compact otherwise, always followed by a newline. Key order is
// preserved.
func Render(raw []byte, pretty bool) ([]byte, error) {
	// json.Indent copies trailing whitespace through.
	raw = bytes.TrimSpace(raw)

	var buf bytes.Buffer
	var err error
	if pretty {
		err = json.Indent(&buf, raw, "", "  ")
	} else {
		err = json.Compact(&buf, raw)
	}
	if err != nil {
		return nil, backuperrors.Wrapf(backuperrors.ErrDecode, err, "render")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

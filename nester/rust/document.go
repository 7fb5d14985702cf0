package nester

import (
	"fmt"
	"os"
	"path/filepath"
)

// Document is an editable text, such as a file on disk or an editor buffer.
type Document interface {
	// Name identifies the document in logs.
	Name() string

	// Text returns the current contents.
	Text() ([]byte, error)

	// Apply replaces ranges of the current contents. Edits do not overlap.
	Apply(edits []Edit) error
}

// FileDocument is a Document backed by a file. Apply rewrites the file
// through a temporary file in the same directory and keeps its mode.
type FileDocument struct {
	Path string
}

var _ Document = (*FileDocument)(nil)

func (d *FileDocument) Name() string {
	return d.Path
}

func (d *FileDocument) Text() ([]byte, error) {
	return os.ReadFile(d.Path)
}

func (d *FileDocument) Apply(edits []Edit) error {
	info, err := os.Stat(d.Path)
	if err != nil {
		return err
	}
	text, err := os.ReadFile(d.Path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.Path), "."+filepath.Base(d.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(ApplyEdits(text, edits)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), d.Path)
}

// BufferDocument is an in-memory Document.
type BufferDocument struct {
	name string
	text []byte
}

var _ Document = (*BufferDocument)(nil)

func NewBufferDocument(name string, text []byte) *BufferDocument {
	return &BufferDocument{name: name, text: text}
}

func (d *BufferDocument) Name() string {
	return d.name
}

func (d *BufferDocument) Text() ([]byte, error) {
	return d.text, nil
}

func (d *BufferDocument) Apply(edits []Edit) error {
	d.text = ApplyEdits(d.text, edits)
	return nil
}

// Bytes returns the current contents.
func (d *BufferDocument) Bytes() []byte {
	return d.text
}

package upload

import (
	"bytes"
	"fmt"
)

// File is binary content ready to ride as one part of a multipart request.
type File struct {
	Name        string
	Data        []byte
	ContentType string
}

// NewFile wraps data under the given file name.
func NewFile(name string, data []byte) *File {
	return &File{Name: name, Data: data}
}

// Size returns the content length in bytes.
func (f *File) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// Reader returns a fresh reader over the content that also reports the file
// name, which is the shape multipart writers expect.
func (f *File) Reader() *FileReader {
	return &FileReader{Reader: bytes.NewReader(f.Data), name: f.Name}
}

func (f *File) String() string {
	return fmt.Sprintf("File(%s, %d bytes)", f.Name, len(f.Data))
}

// FileReader reads the content of a File.
type FileReader struct {
	*bytes.Reader
	name string
}

func (r *FileReader) Name() string { return r.name }

// IsFile reports whether v is file-like: a non-nil *File.
// Strings, plain structured values and unresolved Pending values are not
// file-like; pending values must be resolved before they are classified.
func IsFile(v any) bool {
	f, ok := v.(*File)
	return ok && f != nil
}

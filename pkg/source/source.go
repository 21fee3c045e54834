// Package source produces upload files from local paths, readers, buffers,
// text and remote URLs.
package source

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sipeed/picoclaw-files/pkg/media"
	"github.com/sipeed/picoclaw-files/pkg/upload"
)

// Default file names used when the caller does not pass one.
const (
	DefaultStreamName = "file.stream"
	DefaultBufferName = "file.buffer"
	DefaultTextName   = "text.txt"
	DefaultURLName    = "file.download"
)

func newFile(name string, data []byte) *upload.File {
	return &upload.File{
		Name:        name,
		Data:        data,
		ContentType: media.DetectContentType(name, data),
	}
}

// Path reads the file at path from fs. A nil fs reads the OS filesystem.
// The file name defaults to the base name of path.
func Path(fs afero.Fs, path string, filename string) (*upload.File, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if filename == "" {
		filename = filepath.Base(path)
	}
	return newFile(filename, data), nil
}

// Stream drains r into a file.
func Stream(r io.Reader, filename string) (*upload.File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	if filename == "" {
		filename = DefaultStreamName
	}
	return newFile(filename, data), nil
}

// Buffer wraps b without copying it.
func Buffer(b []byte, filename string) *upload.File {
	if filename == "" {
		filename = DefaultBufferName
	}
	return newFile(filename, b)
}

// Text wraps s as a UTF-8 file.
func Text(s string, filename string) *upload.File {
	if filename == "" {
		filename = DefaultTextName
	}
	return newFile(filename, []byte(s))
}

// AsyncPath reads the file in the background. The result can be placed in
// call parameters directly; the extraction engine waits for it.
func AsyncPath(ctx context.Context, fs afero.Fs, path string, filename string) *upload.Future {
	return upload.GoFile(ctx, func(context.Context) (*upload.File, error) {
		return Path(fs, path, filename)
	})
}

// AsyncStream drains r in the background.
func AsyncStream(ctx context.Context, r io.Reader, filename string) *upload.Future {
	return upload.GoFile(ctx, func(context.Context) (*upload.File, error) {
		return Stream(r, filename)
	})
}

package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/picoclaw-files/pkg/upload"
)

func TestPath_ReadsFileAndUsesBaseName(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/path/to/image.jpg", []byte("mock file content"), 0o644))

	f, err := Path(fs, "/path/to/image.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, "image.jpg", f.Name)
	assert.Equal(t, []byte("mock file content"), f.Data)
	assert.Equal(t, "image/jpeg", f.ContentType)
}

func TestPath_CustomFilename(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/path/to/image.jpg", []byte("x"), 0o644))

	f, err := Path(fs, "/path/to/image.jpg", "custom.jpg")
	require.NoError(t, err)
	assert.Equal(t, "custom.jpg", f.Name)
}

func TestPath_Missing(t *testing.T) {
	_, err := Path(afero.NewMemMapFs(), "/nope.jpg", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read /nope.jpg")
}

func TestStream(t *testing.T) {
	t.Run("default name", func(t *testing.T) {
		f, err := Stream(strings.NewReader("mock stream content"), "")
		require.NoError(t, err)
		assert.Equal(t, DefaultStreamName, f.Name)
		assert.Equal(t, "mock stream content", string(f.Data))
	})

	t.Run("chunked reader", func(t *testing.T) {
		r := io.MultiReader(strings.NewReader("chunk1 "), strings.NewReader("chunk2 "), strings.NewReader("chunk3"))
		f, err := Stream(r, "custom.stream")
		require.NoError(t, err)
		assert.Equal(t, "custom.stream", f.Name)
		assert.Equal(t, "chunk1 chunk2 chunk3", string(f.Data))
	})

	t.Run("empty", func(t *testing.T) {
		f, err := Stream(strings.NewReader(""), "")
		require.NoError(t, err)
		assert.Equal(t, 0, f.Size())
	})

	t.Run("read error", func(t *testing.T) {
		_, err := Stream(iotest.ErrReader(errors.New("boom")), "")
		require.ErrorContains(t, err, "boom")
	})
}

func TestBufferAndText_Defaults(t *testing.T) {
	b := Buffer([]byte{1, 2, 3}, "")
	assert.Equal(t, DefaultBufferName, b.Name)
	assert.Equal(t, []byte{1, 2, 3}, b.Data)

	txt := Text("Hello, world!", "")
	assert.Equal(t, DefaultTextName, txt.Name)
	assert.Equal(t, "Hello, world!", string(txt.Data))
	assert.Equal(t, "text/plain; charset=utf-8", txt.ContentType)

	assert.Equal(t, "custom.txt", Text("x", "custom.txt").Name)
}

func TestAsyncPath_ResolvesToFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/stickers/s.webp", []byte("RIFF"), 0o644))

	v, err := AsyncPath(context.Background(), fs, "/stickers/s.webp", "").Resolve(context.Background())
	require.NoError(t, err)
	require.True(t, upload.IsFile(v))
	assert.Equal(t, "s.webp", v.(*upload.File).Name)
}

func TestAsyncPath_Rejects(t *testing.T) {
	_, err := AsyncPath(context.Background(), afero.NewMemMapFs(), "/missing", "").Resolve(context.Background())
	require.Error(t, err)
}

func TestAsyncStream(t *testing.T) {
	v, err := AsyncStream(context.Background(), strings.NewReader("voice"), "v.ogg").Resolve(context.Background())
	require.NoError(t, err)
	require.True(t, upload.IsFile(v))
	f := v.(*upload.File)
	assert.Equal(t, "v.ogg", f.Name)
	assert.Equal(t, "audio/ogg", f.ContentType)
}

func TestFetcher_URL(t *testing.T) {
	var gotUA, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/images/image.jpg":
			w.Write([]byte("mock image content"))
		case "/big":
			w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := NewFetcher(FetcherOptions{
		MaxBytes: 32,
		Headers:  map[string]string{"Authorization": "Bearer token"},
	})
	ctx := context.Background()

	t.Run("name from url", func(t *testing.T) {
		f, err := fetcher.URL(ctx, srv.URL+"/images/image.jpg", "")
		require.NoError(t, err)
		assert.Equal(t, "image.jpg", f.Name)
		assert.Equal(t, "mock image content", string(f.Data))
		assert.Equal(t, DefaultUserAgent, gotUA)
		assert.Equal(t, "Bearer token", gotAuth)
	})

	t.Run("custom name", func(t *testing.T) {
		f, err := fetcher.URL(ctx, srv.URL+"/images/image.jpg", "custom.jpg")
		require.NoError(t, err)
		assert.Equal(t, "custom.jpg", f.Name)
	})

	t.Run("bad status", func(t *testing.T) {
		_, err := fetcher.URL(ctx, srv.URL+"/missing", "")
		require.ErrorIs(t, err, ErrStatus)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := fetcher.URL(ctx, srv.URL+"/big", "")
		require.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := fetcher.URL(ctx, "file:///etc/hosts", "")
		require.ErrorIs(t, err, ErrScheme)
	})

	t.Run("async", func(t *testing.T) {
		v, err := fetcher.AsyncURL(ctx, srv.URL+"/images/image.jpg", "").Resolve(ctx)
		require.NoError(t, err)
		assert.True(t, upload.IsFile(v))
	})
}

func TestURLFileName(t *testing.T) {
	fetcher := NewFetcher(FetcherOptions{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f, err := fetcher.URL(context.Background(), srv.URL+"/", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultURLName, f.Name)
}

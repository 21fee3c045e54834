package transport

import (
	"context"
	"fmt"

	ta "github.com/mymmrac/telego/telegoapi"

	"github.com/sipeed/picoclaw-files/pkg/logger"
	"github.com/sipeed/picoclaw-files/pkg/upload"
)

// Builder turns extraction output into request bodies for the Bot API.
type Builder struct {
	constructor ta.RequestConstructor
}

// NewBuilder wraps c. A nil constructor falls back to telego's default one.
func NewBuilder(c ta.RequestConstructor) *Builder {
	if c == nil {
		c = &ta.DefaultConstructor{}
	}
	return &Builder{constructor: c}
}

// Build encodes params as JSON when parts is nil, otherwise as a multipart
// body whose text parameters come from parts' fields and whose file
// parameters come from parts' files.
func (b *Builder) Build(parts *upload.Parts, params upload.Params) (*ta.RequestData, error) {
	if parts == nil {
		data, err := b.constructor.JSONRequest(map[string]any(params))
		if err != nil {
			return nil, fmt.Errorf("build json request: %w", err)
		}
		return data, nil
	}

	fields := make(map[string]string, len(parts.Fields()))
	for _, f := range parts.Fields() {
		fields[f.Name] = f.Value
	}
	files := make(map[string]ta.NamedReader, parts.Len())
	for _, fp := range parts.Files() {
		files[fp.Key] = fp.File.Reader()
	}

	data, err := b.constructor.MultipartRequest(fields, files)
	if err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	return data, nil
}

// Prepare extracts files from params for method and builds the request body.
func (b *Builder) Prepare(ctx context.Context, engine *upload.Engine, method string, params upload.Params) (*ta.RequestData, error) {
	if engine == nil {
		return nil, fmt.Errorf("prepare %s: engine is nil", method)
	}
	parts, out, err := engine.ExtractFiles(ctx, method, params)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", method, err)
	}

	data, err := b.Build(parts, out)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", method, err)
	}

	logger.DebugCF("transport", "Request prepared", map[string]interface{}{
		"method":       method,
		"multipart":    parts != nil,
		"content_type": data.ContentType,
	})
	return data, nil
}

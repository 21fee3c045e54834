package upload

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"

	"github.com/sipeed/picoclaw-files/pkg/logger"
)

// Params is the parameter object of one API call.
type Params map[string]any

// ErrResolve marks a failure to resolve a Pending value.
var ErrResolve = errors.New("resolve pending value")

// Diagnostic keys used with Diagnostics.WarnOnce.
const warnTopLevelPending = "top-level-pending"

// ExtractionStats summarizes one ExtractFiles call.
type ExtractionStats struct {
	Method    string
	Files     int
	Fields    int
	Multipart bool
	Duration  time.Duration
	Err       error
}

// Recorder receives a summary of every extraction.
type Recorder interface {
	RecordExtraction(stats ExtractionStats)
}

// Engine rewrites call parameters into multipart payloads.
// An Engine holds no per-call state and may be shared between goroutines.
type Engine struct {
	registry    *Registry
	keys        KeySource
	diagnostics *Diagnostics
	recorder    Recorder
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the default methods table.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithKeySource replaces the per-call counter keys.
func WithKeySource(k KeySource) Option {
	return func(e *Engine) { e.keys = k }
}

// WithDiagnostics shares warn-once state with other engines.
func WithDiagnostics(d *Diagnostics) Option {
	return func(e *Engine) { e.diagnostics = d }
}

// WithRecorder reports every extraction to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithConcurrency bounds how many pending values resolve at once.
// Zero or less means no bound.
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.concurrency = n }
}

// NewEngine builds an Engine. Options left unset fall back to the default
// registry, counter keys and a private Diagnostics.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if e.keys == nil {
		e.keys = CounterKeys{}
	}
	if e.diagnostics == nil {
		e.diagnostics = NewDiagnostics()
	}
	return e
}

var defaultEngine = sync.OnceValue(func() *Engine { return NewEngine() })

// ExtractFiles runs a process-wide engine built with default options.
// See Engine.ExtractFiles.
func ExtractFiles(ctx context.Context, method string, params Params) (*Parts, Params, error) {
	return defaultEngine().ExtractFiles(ctx, method, params)
}

// NeedsUpload resolves pending values in params and reports whether method
// must be sent as multipart because a declared location holds a file.
func (e *Engine) NeedsUpload(ctx context.Context, method string, params Params) (bool, error) {
	d, _ := e.registry.Lookup(method)
	work := cloneParams(params)
	if err := e.resolvePending(ctx, method, d, work); err != nil {
		return false, err
	}
	return d.Predicate(work), nil
}

// ExtractFiles moves every file out of params.
//
// Files nested at extractor locations are replaced with "attach://<key>" and
// stored under <key>. Top-level files are stored under their field name and
// removed. Nil top-level values are dropped. When at least one file was
// found the remaining top-level values are also added to the container as
// text fields; otherwise the returned *Parts is nil and the params can be
// sent as JSON. The caller's params are left untouched.
//
// Pending values are resolved first. If any of them fails the call fails
// and no container is returned.
func (e *Engine) ExtractFiles(ctx context.Context, method string, params Params) (parts *Parts, out Params, err error) {
	start := time.Now()
	defer func() {
		if e.recorder == nil {
			return
		}
		e.recorder.RecordExtraction(ExtractionStats{
			Method:    method,
			Files:     parts.Len(),
			Fields:    len(parts.Fields()),
			Multipart: parts != nil,
			Duration:  time.Since(start),
			Err:       err,
		})
	}()

	d, known := e.registry.Lookup(method)
	work := cloneParams(params)

	if err := e.resolvePending(ctx, method, d, work); err != nil {
		logger.DebugCF("upload", "Pending value failed", map[string]interface{}{
			"method": method,
			"error":  err.Error(),
		})
		return nil, nil, err
	}

	p := newParts()
	seq := e.keys.Sequence()
	nextKey := func() string {
		for {
			key := seq.Next()
			if _, taken := work[key]; taken || p.hasKey(key) {
				continue
			}
			return key
		}
	}

	for _, ex := range d.Extractors {
		for _, h := range ex.holders(work) {
			f, ok := h.obj[ex.Name].(*File)
			if !ok || f == nil {
				continue
			}
			key := nextKey()
			p.addFile(key, f)
			h.obj[ex.Name] = Attach(key)
		}
	}

	for _, name := range sortedKeys(work) {
		v := work[name]
		if isAbsent(v) {
			delete(work, name)
			continue
		}
		if f, ok := v.(*File); ok {
			p.addFile(name, f)
			delete(work, name)
		}
	}

	if p.Len() == 0 {
		logger.DebugCF("upload", "No files in params", map[string]interface{}{
			"method": method,
			"known":  known,
		})
		return nil, work, nil
	}

	for _, name := range sortedKeys(work) {
		p.addField(name, encodeField(work[name]))
	}

	logger.DebugCF("upload", "Extracted files", map[string]interface{}{
		"method": method,
		"files":  p.Len(),
		"fields": len(p.fields),
	})
	return p, work, nil
}

type pendingSlot struct {
	holder  map[string]any
	name    string
	where   string
	pending Pending
}

// resolvePending resolves Pending values at the top level, then at the
// descriptor's nested locations, and writes the results back. Values within
// one round resolve concurrently.
func (e *Engine) resolvePending(ctx context.Context, method string, d Descriptor, params map[string]any) error {
	var top []pendingSlot
	for _, name := range sortedKeys(params) {
		if p, ok := params[name].(Pending); ok && !isAbsent(p) {
			top = append(top, pendingSlot{holder: params, name: name, where: name, pending: p})
		}
	}
	if len(top) > 0 {
		e.diagnostics.WarnOnce(warnTopLevelPending,
			"Top-level pending file values are deprecated, resolve them before the call",
			map[string]interface{}{"method": method, "field": top[0].name})
		if err := e.resolveSlots(ctx, top); err != nil {
			return err
		}
	}

	var nested []pendingSlot
	for _, ex := range d.Extractors {
		for _, h := range ex.holders(params) {
			p, ok := h.obj[ex.Name].(Pending)
			if !ok || isAbsent(p) {
				continue
			}
			where := ex.Property + "." + ex.Name
			if ex.Kind == KindArray {
				where = ex.Property + "[" + strconv.Itoa(h.index) + "]." + ex.Name
			}
			nested = append(nested, pendingSlot{holder: h.obj, name: ex.Name, where: where, pending: p})
		}
	}
	return e.resolveSlots(ctx, nested)
}

func (e *Engine) resolveSlots(ctx context.Context, slots []pendingSlot) error {
	if len(slots) == 0 {
		return nil
	}
	results := make([]any, len(slots))
	g, gctx := errgroup.WithContext(ctx)
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}
	for i, slot := range slots {
		g.Go(func() error {
			v, err := resolveValue(gctx, slot.pending)
			if err != nil {
				return fmt.Errorf("%w %s: %w", ErrResolve, slot.where, err)
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Resolved values may be shared with other callers of the same Pending.
	for i, slot := range slots {
		slot.holder[slot.name] = cloneValue(results[i])
	}
	return nil
}

// encodeField renders a remaining top-level value as a text part: strings
// and other scalars in plain form, anything else as JSON.
func encodeField(v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	}
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// isAbsent reports whether v is nil, including a typed nil pointer, map,
// slice or interface stored in an interface.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case Params:
		return m, m != nil
	}
	return nil, false
}

// cloneParams copies the maps and slices of params so nested rewrites do
// not leak into the caller's object. Leaf values, files included, are shared.
func cloneParams(params Params) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = cloneValue(x)
		}
		return m
	case Params:
		if t == nil {
			return t
		}
		return Params(cloneParams(t))
	case []any:
		if t == nil {
			return t
		}
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = cloneValue(x)
		}
		return s
	case []map[string]any:
		if t == nil {
			return t
		}
		s := make([]map[string]any, len(t))
		for i, x := range t {
			if x != nil {
				s[i] = cloneValue(x).(map[string]any)
			}
		}
		return s
	case []Params:
		if t == nil {
			return t
		}
		s := make([]Params, len(t))
		for i, x := range t {
			if x != nil {
				s[i] = Params(cloneParams(x))
			}
		}
		return s
	}
	return v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

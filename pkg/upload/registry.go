package upload

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/tidwall/gjson"
)

// ExtractorKind says how a nested file location is reached from the top level.
type ExtractorKind string

const (
	// KindUnion: params[Property] is one structured object that may carry Name.
	KindUnion ExtractorKind = "union"
	// KindArray: params[Property] is a list of such objects.
	KindArray ExtractorKind = "array"
)

// Extractor describes where a file may be nested below the top level.
// Whether it applies is decided by the presence of Name on the nested object,
// not by the object's variant tag.
type Extractor struct {
	Name     string        `json:"name"`
	Property string        `json:"property"`
	Kind     ExtractorKind `json:"type"`
}

// holder is one nested object an extractor looks into. For array
// extractors index is the element's position in the list.
type holder struct {
	index int
	obj   map[string]any
}

// holders returns the nested objects this extractor looks into, in order.
// Shapes that do not match are skipped rather than reported.
func (e Extractor) holders(params map[string]any) []holder {
	v, ok := params[e.Property]
	if !ok {
		return nil
	}
	switch e.Kind {
	case KindUnion:
		if m, ok := asMap(v); ok {
			return []holder{{obj: m}}
		}
	case KindArray:
		switch items := v.(type) {
		case []map[string]any:
			out := make([]holder, 0, len(items))
			for i, m := range items {
				if m != nil {
					out = append(out, holder{index: i, obj: m})
				}
			}
			return out
		case []Params:
			out := make([]holder, 0, len(items))
			for i, m := range items {
				if m != nil {
					out = append(out, holder{index: i, obj: m})
				}
			}
			return out
		case []any:
			out := make([]holder, 0, len(items))
			for i, item := range items {
				if m, ok := asMap(item); ok {
					out = append(out, holder{index: i, obj: m})
				}
			}
			return out
		}
	}
	return nil
}

// Descriptor is the upload description of one method: the top-level fields
// that may hold a file and the nested locations, if any.
// A nil Extractors list means files can only appear at the top level.
type Descriptor struct {
	Fields     []string
	Extractors []Extractor
}

// Predicate reports whether params holds at least one file at a location
// this descriptor declares. It walks exactly the locations the engine
// extracts from, so the two cannot disagree.
func (d Descriptor) Predicate(params Params) bool {
	for _, field := range d.Fields {
		if IsFile(params[field]) {
			return true
		}
	}
	for _, e := range d.Extractors {
		for _, h := range e.holders(params) {
			if IsFile(h.obj[e.Name]) {
				return true
			}
		}
	}
	return false
}

func (d Descriptor) clone() Descriptor {
	return Descriptor{
		Fields:     slices.Clone(d.Fields),
		Extractors: slices.Clone(d.Extractors),
	}
}

// Registry maps method names to their upload descriptors. It is immutable
// once built and safe for concurrent lookups.
type Registry struct {
	methods map[string]Descriptor
}

// NewRegistry copies methods into a new Registry. Extractors sharing a name
// within one method are collapsed: the last one wins, at the first position.
func NewRegistry(methods map[string]Descriptor) *Registry {
	r := &Registry{methods: make(map[string]Descriptor, len(methods))}
	for name, d := range methods {
		d = d.clone()
		d.Extractors = dedupeExtractors(d.Extractors)
		r.methods[name] = d
	}
	return r
}

// Lookup returns the descriptor for method. A missing method never carries files.
func (r *Registry) Lookup(method string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	d, ok := r.methods[method]
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

// Methods lists the registered method names in sorted order.
func (r *Registry) Methods() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func dedupeExtractors(in []Extractor) []Extractor {
	if in == nil {
		return nil
	}
	pos := make(map[string]int, len(in))
	out := make([]Extractor, 0, len(in))
	for _, e := range in {
		if i, ok := pos[e.Name]; ok {
			out[i] = e
			continue
		}
		pos[e.Name] = len(out)
		out = append(out, e)
	}
	return out
}

//go:embed methods.json
var methodsJSON []byte

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := ParseRegistry(methodsJSON)
	if err != nil {
		panic(fmt.Sprintf("upload: embedded methods table: %v", err))
	}
	return r
})

// DefaultRegistry returns the process-wide table of Bot API methods that
// accept file uploads. It is parsed once from the embedded methods.json.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// ParseRegistry reads a methods table of the form
//
//	{"sendPhoto": {"fields": ["photo"]},
//	 "sendMediaGroup": {"extractors": [{"name": "media", "property": "media", "type": "array"}]}}
func ParseRegistry(data []byte) (*Registry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("methods table is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("methods table must be an object")
	}

	methods := make(map[string]Descriptor)
	var parseErr error
	root.ForEach(func(key, value gjson.Result) bool {
		d, err := parseDescriptor(value)
		if err != nil {
			parseErr = fmt.Errorf("method %s: %w", key.String(), err)
			return false
		}
		methods[key.String()] = d
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return NewRegistry(methods), nil
}

func parseDescriptor(value gjson.Result) (Descriptor, error) {
	var d Descriptor
	if !value.IsObject() {
		return d, fmt.Errorf("descriptor must be an object")
	}
	for _, f := range value.Get("fields").Array() {
		if f.Type != gjson.String || f.String() == "" {
			return d, fmt.Errorf("field names must be non-empty strings")
		}
		d.Fields = append(d.Fields, f.String())
	}

	extractors := value.Get("extractors")
	if !extractors.Exists() || extractors.Type == gjson.Null {
		return d, nil
	}
	if !extractors.IsArray() {
		return d, fmt.Errorf("extractors must be an array")
	}
	d.Extractors = []Extractor{}
	for i, raw := range extractors.Array() {
		e := Extractor{
			Name:     raw.Get("name").String(),
			Property: raw.Get("property").String(),
			Kind:     ExtractorKind(raw.Get("type").String()),
		}
		if e.Name == "" || e.Property == "" {
			return d, fmt.Errorf("extractor %d: name and property are required", i)
		}
		if e.Kind != KindUnion && e.Kind != KindArray {
			return d, fmt.Errorf("extractor %d: unknown type %q", i, e.Kind)
		}
		d.Extractors = append(d.Extractors, e)
	}
	return d, nil
}

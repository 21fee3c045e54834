package upload

// FilePart is one file in a Parts container, addressed by Key.
type FilePart struct {
	Key  string
	File *File
}

// Field is one text part of a multipart body.
type Field struct {
	Name  string
	Value string
}

// Parts is the per-call container handed to the multipart transport. Files
// keep the order they were extracted in; fields hold the remaining top-level
// parameters in text form. A nil *Parts means no file was found and the call
// can go out as plain JSON.
type Parts struct {
	files  []FilePart
	fields []Field
	index  map[string]int
}

func newParts() *Parts {
	return &Parts{index: make(map[string]int)}
}

func (p *Parts) addFile(key string, f *File) {
	if i, ok := p.index[key]; ok {
		p.files[i].File = f
		return
	}
	p.index[key] = len(p.files)
	p.files = append(p.files, FilePart{Key: key, File: f})
}

func (p *Parts) addField(name, value string) {
	p.fields = append(p.fields, Field{Name: name, Value: value})
}

func (p *Parts) hasKey(key string) bool {
	_, ok := p.index[key]
	return ok
}

// Len returns the number of files.
func (p *Parts) Len() int {
	if p == nil {
		return 0
	}
	return len(p.files)
}

// File returns the file stored under key.
func (p *Parts) File(key string) (*File, bool) {
	if p == nil {
		return nil, false
	}
	i, ok := p.index[key]
	if !ok {
		return nil, false
	}
	return p.files[i].File, true
}

// Files returns the files in extraction order.
func (p *Parts) Files() []FilePart {
	if p == nil {
		return nil
	}
	out := make([]FilePart, len(p.files))
	copy(out, p.files)
	return out
}

// Keys returns the file keys in extraction order.
func (p *Parts) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, len(p.files))
	for i, f := range p.files {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns the text parts in order.
func (p *Parts) Fields() []Field {
	if p == nil {
		return nil
	}
	out := make([]Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// Field returns the text value stored under name.
func (p *Parts) Field(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, f := range p.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

package upload

import (
	"strconv"

	"github.com/google/uuid"
)

// AttachPrefix is the scheme of a reference string. The remote side resolves
// "attach://<key>" to the multipart part named <key>.
const AttachPrefix = "attach://"

// DefaultKeyPrefix prefixes keys generated for nested files.
const DefaultKeyPrefix = "file-"

// Attach returns the reference string for key.
func Attach(key string) string {
	return AttachPrefix + key
}

// KeySource starts a fresh key sequence for one extraction call.
type KeySource interface {
	Sequence() KeySequence
}

// KeySequence yields reference keys for a single call.
type KeySequence interface {
	Next() string
}

// CounterKeys numbers keys per call: file-0, file-1, ...
// Output is deterministic, which keeps requests reproducible.
type CounterKeys struct {
	Prefix string
}

func (c CounterKeys) Sequence() KeySequence {
	prefix := c.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &counterSequence{prefix: prefix}
}

type counterSequence struct {
	prefix string
	n      int
}

func (s *counterSequence) Next() string {
	key := s.prefix + strconv.Itoa(s.n)
	s.n++
	return key
}

// RandomKeys issues random UUID based keys, unique across calls as well.
type RandomKeys struct {
	Prefix string
}

func (r RandomKeys) Sequence() KeySequence {
	prefix := r.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return randomSequence{prefix: prefix}
}

type randomSequence struct {
	prefix string
}

func (s randomSequence) Next() string {
	return s.prefix + uuid.NewString()
}

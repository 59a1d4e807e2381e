// Package codec defines the XML codec contract and the registry the object reader and writer
// dispatch through.
package codec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// Result is the outcome of decoding an XML document.
type Result struct {
	Object kolab.Object
	// AttachmentNames lists the attachments a V2 document references by part name.
	AttachmentNames []string
}

// WriteOptions carry the format metadata of a write.
type WriteOptions struct {
	ProductID string // Full product id, as returned by kolab.ProductID.
	Timezone  string // Zone for floating times in legacy documents.
}

// Codec converts one object kind from and to one XML format generation. A codec reports
// problems through the sink and returns a nil object (Read) or nil document (Write) when it
// cannot produce anything useful.
type Codec interface {
	Read(data []byte, strict bool, sink *errsink.Sink) Result
	Write(obj kolab.Object, opts WriteOptions, sink *errsink.Sink) []byte
}

// Key identifies a codec in a Registry.
type Key struct {
	Type    kolab.ObjectType
	Version kolab.Version
}

func (k Key) String() string {
	return fmt.Sprintf("%v/%v", k.Type, k.Version)
}

// Registry maps (kind, version) pairs onto codecs.
type Registry struct {
	mu     sync.RWMutex
	codecs map[Key]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[Key]Codec)}
}

// Register installs c for kind t in version v, replacing any previous codec.
func (r *Registry) Register(t kolab.ObjectType, v kolab.Version, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[Key{Type: t, Version: v}] = c
}

// Lookup returns the codec for kind t in version v.
func (r *Registry) Lookup(t kolab.ObjectType, v kolab.Version) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[Key{Type: t, Version: v}]
	return c, ok
}

// Keys lists the registered keys, ordered by kind then version.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]Key, 0, len(r.codecs))
	for k := range r.codecs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].Version < keys[j].Version
	})
	return keys
}

// Funcs adapts a pair of functions to the Codec interface.
type Funcs struct {
	ReadFunc  func(data []byte, strict bool, sink *errsink.Sink) Result
	WriteFunc func(obj kolab.Object, opts WriteOptions, sink *errsink.Sink) []byte
}

var _ Codec = Funcs{}

// Read implements Codec.
func (f Funcs) Read(data []byte, strict bool, sink *errsink.Sink) Result {
	if f.ReadFunc == nil {
		sink.Criticalf("codec cannot read")
		return Result{}
	}
	return f.ReadFunc(data, strict, sink)
}

// Write implements Codec.
func (f Funcs) Write(obj kolab.Object, opts WriteOptions, sink *errsink.Sink) []byte {
	if f.WriteFunc == nil {
		sink.Criticalf("codec cannot write")
		return nil
	}
	return f.WriteFunc(obj, opts, sink)
}

// Package object reads and writes complete Kolab objects: a MIME envelope carrying a V2 or V3
// XML document and its attachments.
package object

import (
	"sync"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/codec/xml2"
	"github.com/kolabformat/kolabformat/pkg/codec/xml3"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// Capabilities selects the optional object kinds a registry supports.
type Capabilities struct {
	Relations bool // Relation configuration objects (tags).
}

// NewCodecs returns a registry holding the V2 and V3 codecs enabled by caps.
func NewCodecs(caps Capabilities) *codec.Registry {
	r := codec.NewRegistry()
	xml2.Register(r)
	xml3.Register(r)
	if caps.Relations {
		xml3.RegisterRelations(r)
	}
	return r
}

var (
	defaultOnce   sync.Once
	defaultCodecs *codec.Registry
)

// DefaultCodecs returns the shared registry with every capability enabled.
func DefaultCodecs() *codec.Registry {
	defaultOnce.Do(func() {
		defaultCodecs = NewCodecs(Capabilities{Relations: true})
	})
	return defaultCodecs
}

// Read parses raw with the default codecs. The object is nil when the returned type is
// InvalidObject.
func Read(raw []byte, sink *errsink.Sink) (kolab.Object, kolab.Version, kolab.ObjectType) {
	r := NewReader(DefaultCodecs(), sink)
	t := r.Parse(raw)
	return r.Object(), r.Version(), t
}

// Write serializes obj in version v with the default codecs. tz is the zone floating times are
// written in by the legacy format.
func Write(obj kolab.Object, v kolab.Version, productID, tz string, sink *errsink.Sink) []byte {
	w := NewWriter(DefaultCodecs(), sink)
	return w.Write(obj, v, codec.WriteOptions{ProductID: productID, Timezone: tz})
}

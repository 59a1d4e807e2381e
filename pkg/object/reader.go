package object

import (
	"github.com/rs/zerolog/log"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/envelope"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// Reader parses Kolab MIME messages. A Reader is not safe for concurrent use; the overrides
// persist across calls to Parse.
type Reader struct {
	// Strict makes codecs report objects without a uid.
	Strict bool

	codecs *codec.Registry
	sink   *errsink.Sink

	overrideType    kolab.ObjectType
	overrideVersion bool
	version         kolab.Version

	objType kolab.ObjectType
	obj     kolab.Object
}

// NewReader returns a Reader dispatching through codecs and reporting to sink.
func NewReader(codecs *codec.Registry, sink *errsink.Sink) *Reader {
	return &Reader{codecs: codecs, sink: sink, version: kolab.KolabV3}
}

// SetObjectType forces the object kind instead of detecting it from the message. InvalidObject
// restores detection.
func (r *Reader) SetObjectType(t kolab.ObjectType) {
	r.overrideType = t
}

// SetVersion forces the format version instead of detecting it from the message.
func (r *Reader) SetVersion(v kolab.Version) {
	r.overrideVersion = true
	r.version = v
}

// Parse reads raw and returns the kind of the object found. InvalidObject means no usable object
// could be read and the sink holds a Critical entry; Errors and Warnings leave the object in
// place.
func (r *Reader) Parse(raw []byte) kolab.ObjectType {
	r.sink.Clear()
	r.objType = kolab.InvalidObject
	r.obj = nil
	if !r.overrideVersion {
		r.version = kolab.KolabV3
	}

	env, err := envelope.Parse(raw)
	if err != nil {
		r.sink.Criticalf("%v", err)
		return kolab.InvalidObject
	}
	t := r.detectType(env)
	if t == kolab.InvalidObject {
		r.sink.Criticalf("could not detect object type")
		return kolab.InvalidObject
	}
	if !r.overrideVersion {
		r.version = r.detectVersion(env)
	}

	// Codec diagnostics are collected apart and pulled in afterwards.
	local := errsink.New()
	var obj kolab.Object
	if r.version == kolab.KolabV2 {
		obj = r.readV2(env, t, local)
	} else {
		obj = r.readV3(env, t, local)
	}
	r.sink.Merge(local)
	if obj == nil {
		if r.sink.Worst() < errsink.Critical {
			r.sink.Criticalf("failed to read %v object", t)
		}
		return kolab.InvalidObject
	}
	if r.sink.Worst() == errsink.Critical {
		return kolab.InvalidObject
	}
	r.objType = t
	r.obj = obj
	log.Debug().Str("module", "object").Stringer("type", t).Stringer("version", r.version).
		Str("subject", env.Subject()).Msg("Read object")
	return t
}

func (r *Reader) detectType(env *envelope.Envelope) kolab.ObjectType {
	if r.overrideType != kolab.InvalidObject {
		return r.overrideType
	}
	if token := env.Header(kolab.HeaderType); token != "" {
		return kolab.Classify(token, r.sink)
	}
	r.sink.Warnf("no %s header, trying to detect the type from the parts", kolab.HeaderType)
	for _, ct := range env.ContentTypes() {
		if t := kolab.LookupToken(ct); t != kolab.InvalidObject {
			r.sink.Debugf("detected %v from part %q", t, ct)
			return t
		}
	}
	return kolab.InvalidObject
}

func (r *Reader) detectVersion(env *envelope.Envelope) kolab.Version {
	token := env.Header(kolab.HeaderMimeVersion)
	if token == "" {
		token = env.Header(kolab.HeaderMimeVersionCompat)
	}
	switch token {
	case "", kolab.VersionV2:
		return kolab.KolabV2
	case kolab.VersionV3:
		return kolab.KolabV3
	}
	r.sink.Warnf("unknown version %q, reading as %s", token, kolab.VersionV3)
	return kolab.KolabV3
}

func (r *Reader) lookup(t kolab.ObjectType, v kolab.Version, sink *errsink.Sink) codec.Codec {
	c, ok := r.codecs.Lookup(t, v)
	if !ok {
		sink.Criticalf("no %s codec for %v objects", v, t)
		return nil
	}
	return c
}

func (r *Reader) readV2(env *envelope.Envelope, t kolab.ObjectType, sink *errsink.Sink) kolab.Object {
	var contentType string
	if t == kolab.DictionaryConfigurationObject {
		contentType = kolab.TypeLegacyDocument
	} else if contentType = kolab.LegacyContentType(t, sink); contentType == "" {
		return nil
	}
	part := env.FindByContentType(contentType, sink)
	if part == nil {
		sink.Criticalf("could not find part of type %q", contentType)
		return nil
	}
	c := r.lookup(t, kolab.KolabV2, sink)
	if c == nil {
		return nil
	}
	res := c.Read(part.Content, r.Strict, sink)
	if res.Object == nil {
		return nil
	}
	var atts []kolab.Attachment
	if len(res.AttachmentNames) > 0 {
		atts = env.AttachByName(res.AttachmentNames, sink)
		if len(atts) != len(res.AttachmentNames) {
			sink.Errorf("found %d of %d attachments", len(atts), len(res.AttachmentNames))
		}
	}
	// Incidence attachments are exactly the named parts of the envelope.
	switch o := res.Object.(type) {
	case *kolab.Incidence:
		o.Attachments = atts
	case *kolab.Note:
		o.Attachments = append(o.Attachments, atts...)
	}
	return res.Object
}

func (r *Reader) readV3(env *envelope.Envelope, t kolab.ObjectType, sink *errsink.Sink) kolab.Object {
	contentType := kolab.MimeContentType(t, sink)
	if contentType == "" {
		return nil
	}
	part := env.FindByContentType(contentType, sink)
	if part == nil {
		sink.Criticalf("could not find part of type %q", contentType)
		return nil
	}
	c := r.lookup(t, kolab.KolabV3, sink)
	if c == nil {
		return nil
	}
	res := c.Read(part.Content, r.Strict, sink)
	switch o := res.Object.(type) {
	case *kolab.Incidence:
		env.ResolveByID(o.Attachments, sink)
	case *kolab.Note:
		env.ResolveByID(o.Attachments, sink)
	}
	return res.Object
}

// Type returns the kind read by the last Parse.
func (r *Reader) Type() kolab.ObjectType { return r.objType }

// Version returns the format version of the last message parsed.
func (r *Reader) Version() kolab.Version { return r.version }

// Object returns the object read by the last Parse, or nil.
func (r *Reader) Object() kolab.Object { return r.obj }

// Incidence returns the event, todo or journal read, or nil.
func (r *Reader) Incidence() *kolab.Incidence {
	inc, _ := r.obj.(*kolab.Incidence)
	return inc
}

func (r *Reader) incidence(t kolab.ObjectType) *kolab.Incidence {
	if inc := r.Incidence(); inc != nil && inc.Kind == t {
		return inc
	}
	return nil
}

// Event returns the event read, or nil.
func (r *Reader) Event() *kolab.Incidence { return r.incidence(kolab.EventObject) }

// Todo returns the todo read, or nil.
func (r *Reader) Todo() *kolab.Incidence { return r.incidence(kolab.TodoObject) }

// Journal returns the journal read, or nil.
func (r *Reader) Journal() *kolab.Incidence { return r.incidence(kolab.JournalObject) }

// Contact returns the contact read, or nil.
func (r *Reader) Contact() *kolab.Contact {
	c, _ := r.obj.(*kolab.Contact)
	return c
}

// DistList returns the distribution list read, or nil.
func (r *Reader) DistList() *kolab.DistList {
	d, _ := r.obj.(*kolab.DistList)
	return d
}

// Note returns the note read, or nil.
func (r *Reader) Note() *kolab.Note {
	n, _ := r.obj.(*kolab.Note)
	return n
}

// Dictionary returns the dictionary read, or nil.
func (r *Reader) Dictionary() *kolab.Dictionary {
	d, _ := r.obj.(*kolab.Dictionary)
	return d
}

// Relation returns the relation read, or nil.
func (r *Reader) Relation() *kolab.Relation {
	rel, _ := r.obj.(*kolab.Relation)
	return rel
}

// Freebusy returns the free/busy report read, or nil.
func (r *Reader) Freebusy() *kolab.Freebusy {
	fb, _ := r.obj.(*kolab.Freebusy)
	return fb
}

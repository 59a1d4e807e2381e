package object

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/envelope"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// Writer serializes objects into Kolab MIME messages.
type Writer struct {
	// Now stamps the Date header; defaults to time.Now.
	Now func() time.Time
	// NewUID generates the uid of legacy objects written without one.
	NewUID func() string
	// NewCID generates attachment content-ids for V3 messages.
	NewCID func() string

	codecs *codec.Registry
	sink   *errsink.Sink
}

// NewWriter returns a Writer dispatching through codecs and reporting to sink.
func NewWriter(codecs *codec.Registry, sink *errsink.Sink) *Writer {
	return &Writer{
		Now:    time.Now,
		NewUID: uuid.NewString,
		NewCID: kolab.NewCID,
		codecs: codecs,
		sink:   sink,
	}
}

// Write serializes obj as a version v message. opts.ProductID is the caller's product id; the
// library version is appended to it. A nil result comes with a Critical entry in the sink. obj
// is never modified.
func (w *Writer) Write(obj kolab.Object, v kolab.Version, opts codec.WriteOptions) []byte {
	w.sink.Clear()
	if isNil(obj) {
		w.sink.Criticalf("cannot write nil object")
		return nil
	}
	t := obj.Type()
	if v == kolab.KolabV2 {
		switch t {
		case kolab.FreebusyObject, kolab.RelationConfigurationObject, kolab.DictionaryConfigurationObject:
			w.sink.Criticalf("%v objects cannot be written in the legacy format", t)
			return nil
		}
	}
	c, ok := w.codecs.Lookup(t, v)
	if !ok {
		w.sink.Criticalf("no %s codec for %v objects", v, t)
		return nil
	}

	obj = w.prepare(obj, v)
	opts.ProductID = kolab.ProductID(opts.ProductID)
	msg := envelope.Message{
		V3:        v == kolab.KolabV3,
		ProductID: opts.ProductID,
		Subject:   uidOf(obj),
		Date:      w.Now(),
	}
	if msg.V3 {
		msg.TypeToken = kolab.TypeToken(t, w.sink)
		msg.ContentType = kolab.MimeContentType(t, w.sink)
	} else {
		msg.TypeToken = kolab.LegacyTypeToken(t, w.sink)
		msg.ContentType = kolab.LegacyContentType(t, w.sink)
	}
	if msg.TypeToken == "" || msg.ContentType == "" {
		return nil
	}
	switch o := obj.(type) {
	case *kolab.Incidence:
		if o.Organizer.IsEmpty() {
			w.sink.Debugf("%v %q has no organizer", t, o.UID)
		} else {
			msg.From = &o.Organizer
		}
		msg.Attachments = o.Attachments
	case *kolab.Contact:
		if email := o.PreferredEmail(); email != "" {
			msg.From = &kolab.Person{Name: o.FormattedName, Email: email}
		}
	case *kolab.Note:
		msg.Attachments = o.Attachments
	}

	local := errsink.New()
	msg.XML = c.Write(obj, opts, local)
	w.sink.Merge(local)
	if msg.XML == nil {
		if w.sink.Worst() < errsink.Critical {
			w.sink.Criticalf("failed to write %v object", t)
		}
		return nil
	}
	raw, err := envelope.Build(msg)
	if err != nil {
		w.sink.Criticalf("%v", err)
		return nil
	}
	log.Debug().Str("module", "object").Stringer("type", t).Stringer("version", v).
		Str("uid", msg.Subject).Int("size", len(raw)).Msg("Wrote object")
	return raw
}

// prepare returns the working copy that is serialized. V3 attachments carrying data are
// addressed by fresh content-ids; legacy objects get a uid and attachment names when missing.
func (w *Writer) prepare(obj kolab.Object, v kolab.Version) kolab.Object {
	var atts *[]kolab.Attachment
	switch o := obj.(type) {
	case *kolab.Incidence:
		c := o.Clone()
		obj, atts = c, &c.Attachments
	case *kolab.Note:
		c := *o
		c.Categories = append([]string(nil), o.Categories...)
		c.Attachments = append([]kolab.Attachment(nil), o.Attachments...)
		obj, atts = &c, &c.Attachments
	case *kolab.Contact:
		c := *o
		obj = &c
	case *kolab.DistList:
		c := *o
		obj = &c
	case *kolab.Dictionary:
		c := *o
		obj = &c
	case *kolab.Relation:
		c := *o
		obj = &c
	case *kolab.Freebusy:
		c := *o
		obj = &c
	}
	if v == kolab.KolabV3 {
		if atts != nil {
			for i := range *atts {
				if a := &(*atts)[i]; a.HasData() {
					a.URI = w.NewCID()
				}
			}
		}
		return obj
	}
	if uidOf(obj) == "" {
		uid := w.NewUID()
		setUID(obj, uid)
		w.sink.Debugf("generated uid %q for %v", uid, obj.Type())
	}
	if atts != nil {
		for i := range *atts {
			if a := &(*atts)[i]; a.HasData() && a.Label == "" {
				a.Label = fmt.Sprintf("attachment%d", i+1)
				w.sink.Warnf("attachment without name, storing it as %q", a.Label)
			}
		}
	}
	return obj
}

func isNil(obj kolab.Object) bool {
	switch o := obj.(type) {
	case nil:
		return true
	case *kolab.Incidence:
		return o == nil
	case *kolab.Contact:
		return o == nil
	case *kolab.DistList:
		return o == nil
	case *kolab.Note:
		return o == nil
	case *kolab.Dictionary:
		return o == nil
	case *kolab.Relation:
		return o == nil
	case *kolab.Freebusy:
		return o == nil
	}
	return false
}

func uidOf(obj kolab.Object) string {
	switch o := obj.(type) {
	case *kolab.Incidence:
		return o.UID
	case *kolab.Contact:
		return o.UID
	case *kolab.DistList:
		return o.UID
	case *kolab.Note:
		return o.UID
	case *kolab.Dictionary:
		return o.UID
	case *kolab.Relation:
		return o.UID
	case *kolab.Freebusy:
		return o.UID
	}
	return ""
}

func setUID(obj kolab.Object, uid string) {
	switch o := obj.(type) {
	case *kolab.Incidence:
		o.UID = uid
	case *kolab.Contact:
		o.UID = uid
	case *kolab.DistList:
		o.UID = uid
	case *kolab.Note:
		o.UID = uid
	case *kolab.Dictionary:
		o.UID = uid
	case *kolab.Relation:
		o.UID = uid
	case *kolab.Freebusy:
		o.UID = uid
	}
}

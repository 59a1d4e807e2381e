package envelope

import (
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// AttachByName builds the attachment list of a V2 object from the parts named in its XML. Names
// without a matching part are an Error and are skipped.
func (e *Envelope) AttachByName(names []string, sink *errsink.Sink) []kolab.Attachment {
	var atts []kolab.Attachment
	for _, name := range names {
		p := e.FindByName(name)
		if p == nil {
			sink.Errorf("could not find attachment: %q", name)
			continue
		}
		atts = append(atts, kolab.Attachment{
			Data:     p.Content,
			MimeType: p.ContentType,
			Label:    name,
		})
		sink.Debugf("attachment %q of type %q", name, p.ContentType)
	}
	return atts
}

// ResolveByID replaces every cid: reference in atts with the payload, type and name of the
// matching part. Unresolved references are an Error and keep their URI.
func (e *Envelope) ResolveByID(atts []kolab.Attachment, sink *errsink.Sink) {
	for i := range atts {
		a := &atts[i]
		if !a.IsCID() {
			continue
		}
		p := e.FindByID(a.ContentID(), sink)
		if p == nil {
			sink.Errorf("could not find attachment: %q", a.URI)
			continue
		}
		a.URI = ""
		a.Data = p.Content
		a.MimeType = p.ContentType
		a.Label = p.Name
	}
}

// Package envelope reads and writes the multipart MIME messages that carry Kolab objects.
package envelope

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/textproto"
	"strings"

	"github.com/jhillyerd/enmime/v2"
	"github.com/rs/zerolog/log"

	"github.com/kolabformat/kolabformat/pkg/errsink"
)

// ErrNoParts indicates the message has no body parts that could carry an object.
var ErrNoParts = errors.New("message has no contents")

// Part is a leaf body part of an envelope.
type Part struct {
	Header      textproto.MIMEHeader
	ContentType string // Media type, lower case, without parameters.
	ContentID   string // Without angle brackets.
	Name        string // Content-Type name parameter, or the disposition filename.
	Filename    string
	Attachment  bool
	Content     []byte // Decoded payload.
}

// Envelope is a parsed Kolab message.
type Envelope struct {
	env   *enmime.Envelope
	Parts []*Part
}

// Parse reads a MIME message. ErrNoParts is returned for messages that are not multipart or have
// no leaf parts; such a message cannot be classified.
func Parse(raw []byte) (*Envelope, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	for _, perr := range env.Errors {
		log.Debug().Str("module", "envelope").Str("error", perr.Error()).Msg("MIME parse problem")
	}
	e := &Envelope{env: env}
	root := env.Root
	if root == nil || !strings.HasPrefix(strings.ToLower(root.ContentType), "multipart/") {
		return e, ErrNoParts
	}
	e.collect(root)
	if len(e.Parts) == 0 {
		return e, ErrNoParts
	}
	return e, nil
}

// collect appends the leaf parts below p in document order.
func (e *Envelope) collect(p *enmime.Part) {
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c.FirstChild != nil {
			e.collect(c)
			continue
		}
		e.Parts = append(e.Parts, newPart(c))
	}
}

func newPart(p *enmime.Part) *Part {
	part := &Part{
		Header:      p.Header,
		ContentType: strings.ToLower(p.ContentType),
		ContentID:   strings.Trim(p.ContentID, "<>"),
		Filename:    p.FileName,
		Attachment:  strings.EqualFold(p.Disposition, "attachment"),
		Content:     p.Content,
	}
	if part.ContentID == "" && p.Header != nil {
		part.ContentID = strings.Trim(strings.TrimSpace(p.Header.Get("Content-Id")), "<>")
	}
	if p.Header != nil {
		if _, params, err := mime.ParseMediaType(p.Header.Get("Content-Type")); err == nil {
			part.Name = params["name"]
		}
	}
	if part.Name == "" {
		part.Name = part.Filename
	}
	return part
}

// Header returns the decoded value of a top-level header, "" when absent.
func (e *Envelope) Header(name string) string {
	if e.env == nil {
		return ""
	}
	return strings.TrimSpace(e.env.GetHeader(name))
}

// FindByContentType returns the first part with the given media type, or nil.
func (e *Envelope) FindByContentType(contentType string, sink *errsink.Sink) *Part {
	if contentType == "" {
		sink.Errorf("empty content-type")
		return nil
	}
	contentType = strings.ToLower(contentType)
	for _, p := range e.Parts {
		if p.ContentType == contentType {
			return p
		}
	}
	return nil
}

// FindByName returns the first part whose name matches, or nil.
func (e *Envelope) FindByName(name string) *Part {
	for _, p := range e.Parts {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// FindByID returns the part with the given content-id, or nil.
func (e *Envelope) FindByID(id string, sink *errsink.Sink) *Part {
	if id == "" {
		sink.Errorf("looking for empty cid")
		return nil
	}
	for _, p := range e.Parts {
		if p.ContentID == id {
			return p
		}
	}
	return nil
}

// ContentTypes lists the media types of all parts in order.
func (e *Envelope) ContentTypes() []string {
	types := make([]string, len(e.Parts))
	for i, p := range e.Parts {
		types[i] = p.ContentType
	}
	return types
}

// Subject returns the decoded Subject header.
func (e *Envelope) Subject() string {
	return e.Header("Subject")
}

// MessageID returns the Message-Id header.
func (e *Envelope) MessageID() string {
	return e.Header("Message-Id")
}

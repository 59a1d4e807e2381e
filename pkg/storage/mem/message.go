package mem

import (
	"bytes"
	"container/list"
	"io"
	"time"

	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/storage"
)

// Object is a memory store object.
type Object struct {
	index     int
	folder    string
	id        string
	messageID string
	subject   string
	date      time.Time
	objType   kolab.ObjectType
	source    []byte
	el        *list.Element // This object in the size enforcer list.
}

var _ storage.Object = &Object{}

// Folder returns the folder name.
func (o *Object) Folder() string { return o.folder }

// ID the object ID.
func (o *Object) ID() string { return o.id }

// MessageID returns the Message-Id header.
func (o *Object) MessageID() string { return o.messageID }

// Subject returns the subject line, the Kolab uid.
func (o *Object) Subject() string { return o.subject }

// Date returns the message date.
func (o *Object) Date() time.Time { return o.date }

// Type returns the object kind.
func (o *Object) Type() kolab.ObjectType { return o.objType }

// Source returns a reader for the message source.
func (o *Object) Source() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(o.source)), nil
}

// Size returns the message size in bytes.
func (o *Object) Size() int64 { return int64(len(o.source)) }

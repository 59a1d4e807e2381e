// Package storage holds Kolab objects, as their raw MIME messages, in named folders.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/jhillyerd/enmime/v2"

	"github.com/kolabformat/kolabformat/pkg/config"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

var (
	// ErrNotExist indicates the requested object does not exist.
	ErrNotExist = errors.New("object does not exist")

	// Constructors tracks registered storage constructors
	Constructors = make(map[string]func(config.Storage) (Store, error))
)

// Metadata describes a stored object without parsing its XML.
type Metadata struct {
	Folder    string // Folder path, e.g. "user/jane@example.org/Calendar".
	ID        string // Folder-local numeric id, assigned by the Store.
	MessageID string
	Subject   string // Kolab uid.
	Date      time.Time
	Type      kolab.ObjectType
	Size      int64
}

// Object is a stored Kolab message.
type Object interface {
	Folder() string
	ID() string
	MessageID() string
	Subject() string
	Date() time.Time
	Type() kolab.ObjectType
	Source() (io.ReadCloser, error)
	Size() int64
}

// Store is the interface object stores implement.
type Store interface {
	AddObject(Object) (id string, err error)
	GetObject(folder, id string) (Object, error)
	GetObjects(folder string) ([]Object, error)
	FindByMessageID(folder, messageID string) (Object, error)
	RemoveObject(folder, id string) error
	PurgeObjects(folder string) error
	VisitFolders(f func([]Object) (cont bool)) error
}

// FromConfig creates an instance of the Store based on the provided configuration.
func FromConfig(c config.Storage) (store Store, err error) {
	if cf := Constructors[c.Type]; cf != nil {
		return cf(c)
	}
	return nil, fmt.Errorf("unknown storage type configured: %q", c.Type)
}

// Delivery is an object on its way into a Store.
type Delivery struct {
	Meta   Metadata
	Reader io.Reader
}

var _ Object = &Delivery{}

// NewDelivery reads the metadata of raw and returns a Delivery for folder.
func NewDelivery(folder string, raw []byte) (*Delivery, error) {
	meta, err := MetadataFor(raw)
	if err != nil {
		return nil, err
	}
	meta.Folder = folder
	return &Delivery{Meta: meta, Reader: bytes.NewReader(raw)}, nil
}

// Folder returns the destination folder.
func (d *Delivery) Folder() string { return d.Meta.Folder }

// ID is empty until the Store assigns one.
func (d *Delivery) ID() string { return d.Meta.ID }

// MessageID returns the Message-Id header.
func (d *Delivery) MessageID() string { return d.Meta.MessageID }

// Subject returns the subject, the object uid.
func (d *Delivery) Subject() string { return d.Meta.Subject }

// Date returns the message date.
func (d *Delivery) Date() time.Time { return d.Meta.Date }

// Type returns the object kind of the X-Kolab-Type header.
func (d *Delivery) Type() kolab.ObjectType { return d.Meta.Type }

// Source returns the raw message.
func (d *Delivery) Source() (io.ReadCloser, error) { return io.NopCloser(d.Reader), nil }

// Size returns the size of the message, if known.
func (d *Delivery) Size() int64 { return d.Meta.Size }

// MetadataFor reads the headers of a Kolab message.
func MetadataFor(raw []byte) (Metadata, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse message: %w", err)
	}
	meta := Metadata{
		MessageID: strings.Trim(strings.TrimSpace(env.GetHeader("Message-Id")), "<>"),
		Subject:   env.GetHeader("Subject"),
		Type:      kolab.LookupToken(strings.TrimSpace(env.GetHeader(kolab.HeaderType))),
		Size:      int64(len(raw)),
	}
	if date, err := mail.ParseDate(env.GetHeader("Date")); err == nil {
		meta.Date = date
	}
	return meta, nil
}

// ReadAll returns the raw message of o.
func ReadAll(o Object) ([]byte, error) {
	r, err := o.Source()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

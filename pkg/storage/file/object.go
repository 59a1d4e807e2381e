package file

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/storage"
)

// Object implements storage.Object and contains the metadata of a stored message, and methods
// to retrieve the rest of it from disk.
type Object struct {
	folder *folder
	// Stored in GOB
	Fid        string
	FmessageID string
	Fsubject   string
	Fdate      time.Time
	Ftype      kolab.ObjectType
	Fsize      int64
}

var _ storage.Object = &Object{}

// Folder returns the name of the folder this object resides in.
func (o *Object) Folder() string {
	return o.folder.name
}

// ID gets the ID of the Object
func (o *Object) ID() string {
	return o.Fid
}

// MessageID returns the value of the Message-Id header
func (o *Object) MessageID() string {
	return o.FmessageID
}

// Subject returns the value of the Subject header, the object uid
func (o *Object) Subject() string {
	return o.Fsubject
}

// Date returns the value of the Date header
func (o *Object) Date() time.Time {
	return o.Fdate
}

// Type returns the kind of the X-Kolab-Type header
func (o *Object) Type() kolab.ObjectType {
	return o.Ftype
}

// Size returns the size of the Object on disk in bytes
func (o *Object) Size() int64 {
	return o.Fsize
}

func (o *Object) rawPath() string {
	return filepath.Join(o.folder.path, o.Fid+".raw")
}

// Source opens the .raw portion of an Object as an io.ReadCloser
func (o *Object) Source() (reader io.ReadCloser, err error) {
	file, err := os.Open(o.rawPath())
	if err != nil {
		return nil, err
	}
	return file, nil
}

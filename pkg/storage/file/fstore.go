// Package file implements an object store keeping each folder in a directory of raw messages
// plus a gob encoded index.
package file

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kolabformat/kolabformat/pkg/config"
	"github.com/kolabformat/kolabformat/pkg/storage"
	"github.com/kolabformat/kolabformat/pkg/stringutil"
)

// Name of index file in each folder
const indexFileName = "index.gob"

// Store implements storage.Store and is the root of the object storage hierarchy. It provides
// access to folder objects.
type Store struct {
	hashLock      storage.HashLock
	path          string
	objPath       string
	objectCap     int
	bufReaderPool sync.Pool
}

var _ storage.Store = &Store{}

// New creates a new Store using the path parameter of cfg.
func New(cfg config.Storage) (storage.Store, error) {
	path := cfg.Params["path"]
	if path == "" {
		return nil, errors.New("'path' parameter not specified")
	}

	objPath := getObjectPath(path)
	if _, err := os.Stat(objPath); err != nil {
		// Object store does not yet exist, create it.
		if err = os.MkdirAll(objPath, 0770); err != nil {
			log.Error().Str("module", "storage").Str("path", objPath).Err(err).
				Msg("Error creating dir")
			return nil, err
		}
	}

	return &Store{
		path:      path,
		objPath:   objPath,
		objectCap: cfg.MailboxMsgCap,
		bufReaderPool: sync.Pool{
			New: func() interface{} {
				return bufio.NewReader(nil)
			},
		},
	}, nil
}

// AddObject adds an object to its folder; its ID and Size will be ignored.
func (fs *Store) AddObject(obj storage.Object) (id string, err error) {
	f := fs.folder(obj.Folder())
	f.Lock()
	defer f.Unlock()
	r, err := obj.Source()
	if err != nil {
		return "", err
	}
	defer func() {
		_ = r.Close()
	}()

	// Create a new object.
	fo, err := f.newObject()
	if err != nil {
		return "", err
	}

	// Ensure folder directory exists.
	if err := f.createDir(); err != nil {
		return "", err
	}

	// Write the message content.
	file, err := os.Create(fo.rawPath())
	if err != nil {
		return "", err
	}
	w := bufio.NewWriter(file)
	size, err := io.Copy(w, r)
	if err != nil {
		// Try to remove the file.
		_ = file.Close()
		_ = os.Remove(fo.rawPath())
		return "", err
	}
	if err := w.Flush(); err != nil {
		// Try to remove the file.
		_ = file.Close()
		_ = os.Remove(fo.rawPath())
		return "", err
	}
	if err := file.Close(); err != nil {
		// Try to remove the file.
		_ = os.Remove(fo.rawPath())
		return "", err
	}

	// Update the index.
	fo.FmessageID = obj.MessageID()
	fo.Fsubject = obj.Subject()
	fo.Fdate = obj.Date()
	fo.Ftype = obj.Type()
	fo.Fsize = size
	f.objects = append(f.objects, fo)
	if err := f.writeIndex(); err != nil {
		// Try to remove the file.
		_ = os.Remove(fo.rawPath())
		return "", err
	}

	log.Debug().Str("module", "storage").Str("folder", f.name).Str("id", fo.Fid).
		Stringer("type", fo.Ftype).Msg("Stored object")
	return fo.Fid, nil
}

// GetObject returns an object of the named folder, "latest" being the most recently added.
func (fs *Store) GetObject(folder, id string) (storage.Object, error) {
	f := fs.folder(folder)
	f.RLock()
	defer f.RUnlock()
	return f.getObject(id)
}

// GetObjects returns the objects of the named folder in the order they were added.
func (fs *Store) GetObjects(folder string) ([]storage.Object, error) {
	f := fs.folder(folder)
	f.RLock()
	defer f.RUnlock()
	return f.getObjects()
}

// FindByMessageID returns the newest object of the named folder carrying messageID.
func (fs *Store) FindByMessageID(folder, messageID string) (storage.Object, error) {
	f := fs.folder(folder)
	f.RLock()
	defer f.RUnlock()
	if !f.indexLoaded {
		if err := f.readIndex(); err != nil {
			return nil, err
		}
	}
	for i := len(f.objects) - 1; i >= 0; i-- {
		if f.objects[i].FmessageID == messageID {
			return f.objects[i], nil
		}
	}
	return nil, storage.ErrNotExist
}

// RemoveObject deletes an object by ID from the specified folder.
func (fs *Store) RemoveObject(folder, id string) error {
	f := fs.folder(folder)
	f.Lock()
	defer f.Unlock()
	return f.removeObject(id)
}

// PurgeObjects deletes all objects in the named folder, or returns an error.
func (fs *Store) PurgeObjects(folder string) error {
	f := fs.folder(folder)
	f.Lock()
	defer f.Unlock()
	return f.purge()
}

// VisitFolders accepts a function that will be called with the objects in each folder while it
// continues to return true.
func (fs *Store) VisitFolders(v func([]storage.Object) (cont bool)) error {
	names1, err := readDirNames(fs.objPath)
	if err != nil {
		return err
	}

	// Loop over level 1 directories.
	for _, name1 := range names1 {
		names2, err := readDirNames(fs.objPath, name1)
		if err != nil {
			return err
		}

		// Loop over level 2 directories.
		for _, name2 := range names2 {
			names3, err := readDirNames(fs.objPath, name1, name2)
			if err != nil {
				return err
			}

			// Loop over folders.
			for _, name3 := range names3 {
				f := fs.folderFromHash(name3)
				f.RLock()
				objs, err := f.getObjects()
				f.RUnlock()
				if err != nil {
					return err
				}
				if !v(objs) {
					return nil
				}
			}
		}
	}
	return nil
}

// folder returns the named folder.
func (fs *Store) folder(name string) *folder {
	f := fs.folderFromHash(stringutil.HashFolderName(name))
	f.name = name
	return f
}

// folderFromHash constructs a folder based on name hash.
func (fs *Store) folderFromHash(hash string) *folder {
	s1 := hash[0:3]
	s2 := hash[0:6]
	path := filepath.Join(fs.objPath, s1, s2, hash)
	indexPath := filepath.Join(path, indexFileName)

	return &folder{
		RWMutex:   fs.hashLock.Get(hash),
		store:     fs,
		dirName:   hash,
		path:      path,
		indexPath: indexPath,
	}
}

// getPooledReader pulls a buffered reader from the fs.bufReaderPool.
func (fs *Store) getPooledReader(r io.Reader) *bufio.Reader {
	br := fs.bufReaderPool.Get().(*bufio.Reader)
	br.Reset(r)
	return br
}

// putPooledReader returns a buffered reader to the fs.bufReaderPool.
func (fs *Store) putPooledReader(br *bufio.Reader) {
	fs.bufReaderPool.Put(br)
}

// getObjectPath converts a store `path` parameter into the effective object store path. Within
// the path, '$' is replaced with ':' to support Windows drive letters with our env->config map
// syntax.
func getObjectPath(base string) string {
	path := strings.ReplaceAll(base, "$", ":")
	return filepath.Join(path, "objects")
}

// readDirNames returns a sorted slice of filenames in the specified directory or an error.
func readDirNames(elem ...string) ([]string, error) {
	f, err := os.Open(filepath.Join(elem...))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	names, err := f.Readdirnames(0)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

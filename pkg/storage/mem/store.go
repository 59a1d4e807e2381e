package mem

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kolabformat/kolabformat/pkg/config"
	"github.com/kolabformat/kolabformat/pkg/storage"
)

// Store implements an in-memory object store.
type Store struct {
	sync.Mutex
	folders  map[string]*folder
	cap      int           // Per-folder object cap.
	incoming chan *msgDone // New objects for size enforcer.
	remove   chan *msgDone // Remove deleted objects from size enforcer.
}

type folder struct {
	sync.RWMutex
	name    string
	last    int
	first   int
	objects map[string]*Object
}

var _ storage.Store = &Store{}

// New returns an empty memory store.
func New(cfg config.Storage) (storage.Store, error) {
	s := &Store{
		folders: make(map[string]*folder),
		cap:     cfg.MailboxMsgCap,
	}
	if str, ok := cfg.Params["maxkb"]; ok {
		maxKB, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse maxkb: %v", err)
		}
		if maxKB > 0 {
			// Setup enforcer.
			s.incoming = make(chan *msgDone)
			s.remove = make(chan *msgDone)
			go s.maxSizeEnforcer(maxKB * 1024)
		}
	}
	return s, nil
}

// AddObject stores the object; its ID and Size will be ignored.
func (s *Store) AddObject(obj storage.Object) (id string, err error) {
	r, err := obj.Source()
	if err != nil {
		return "", err
	}
	source, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	o := &Object{
		folder:    obj.Folder(),
		messageID: obj.MessageID(),
		subject:   obj.Subject(),
		date:      obj.Date(),
		objType:   obj.Type(),
	}
	s.withFolder(obj.Folder(), true, func(f *folder) {
		// Generate object ID.
		f.last++
		o.index = f.last
		id = strconv.Itoa(f.last)
		o.id = id
		o.source = source
		f.objects[id] = o

		if s.cap > 0 {
			// Enforce cap.
			for len(f.objects) > s.cap {
				delete(f.objects, strconv.Itoa(f.first))
				f.first++
			}
		}
	})
	s.enforcerDeliver(o)
	log.Debug().Str("module", "storage").Str("folder", o.folder).Str("id", id).
		Stringer("type", o.objType).Msg("Stored object")
	return id, nil
}

// GetObject gets an object, "latest" being the most recently added.
func (s *Store) GetObject(folderName, id string) (storage.Object, error) {
	if id == "latest" {
		objs, err := s.GetObjects(folderName)
		if err != nil {
			return nil, err
		}
		if len(objs) == 0 {
			return nil, storage.ErrNotExist
		}
		return objs[len(objs)-1], nil
	}
	var o *Object
	s.withFolder(folderName, false, func(f *folder) {
		o = f.objects[id]
	})
	if o == nil {
		return nil, storage.ErrNotExist
	}
	return o, nil
}

// GetObjects gets the objects of a folder in the order they were added.
func (s *Store) GetObjects(folderName string) (objs []storage.Object, err error) {
	s.withFolder(folderName, false, func(f *folder) {
		objs = make([]storage.Object, 0, len(f.objects))
		for _, v := range f.objects {
			objs = append(objs, v)
		}
		sort.Slice(objs, func(i, j int) bool {
			return objs[i].(*Object).index < objs[j].(*Object).index
		})
	})
	return objs, nil
}

// FindByMessageID returns the newest object of a folder carrying messageID.
func (s *Store) FindByMessageID(folderName, messageID string) (storage.Object, error) {
	var found *Object
	s.withFolder(folderName, false, func(f *folder) {
		for _, o := range f.objects {
			if o.messageID == messageID && (found == nil || o.index > found.index) {
				found = o
			}
		}
	})
	if found == nil {
		return nil, storage.ErrNotExist
	}
	return found, nil
}

// PurgeObjects deletes the contents of a folder.
func (s *Store) PurgeObjects(folderName string) error {
	// Grab lock, copy objects, clear, and drop lock.
	var objects map[string]*Object
	s.withFolder(folderName, true, func(f *folder) {
		objects = f.objects
		f.objects = make(map[string]*Object)
	})

	// Process size/quota.
	if s.remove != nil {
		for _, o := range objects {
			s.enforcerRemove(o)
		}
	}
	return nil
}

// removeObject deletes a single object without notifying the size enforcer.  Returns the object
// that was removed.
func (s *Store) removeObject(folderName, id string) *Object {
	var o *Object
	s.withFolder(folderName, true, func(f *folder) {
		o = f.objects[id]
		if o != nil {
			delete(f.objects, id)
		}
	})
	return o
}

// RemoveObject deletes a single object.
func (s *Store) RemoveObject(folderName, id string) error {
	o := s.removeObject(folderName, id)
	if o == nil {
		return storage.ErrNotExist
	}
	s.enforcerRemove(o)
	return nil
}

// VisitFolders visits each folder in the store.
func (s *Store) VisitFolders(f func([]storage.Object) (cont bool)) error {
	// Lock store, get names of all folders.
	s.Lock()
	names := make([]string, 0, len(s.folders))
	for k := range s.folders {
		names = append(names, k)
	}
	s.Unlock()
	sort.Strings(names)
	// Process folders.
	for _, name := range names {
		objs, _ := s.GetObjects(name)
		if !f(objs) {
			break
		}
	}
	return nil
}

// withFolder gets or creates a folder, locks it, then calls f.
func (s *Store) withFolder(name string, writeLock bool, f func(fo *folder)) {
	s.Lock()
	fo, ok := s.folders[name]
	if !ok {
		// Create folder
		fo = &folder{
			name:    name,
			objects: make(map[string]*Object),
		}
		s.folders[name] = fo
	}
	s.Unlock()
	if writeLock {
		fo.Lock()
	} else {
		fo.RLock()
	}
	defer func() {
		if writeLock {
			fo.Unlock()
		} else {
			fo.RUnlock()
		}
	}()
	f(fo)
}

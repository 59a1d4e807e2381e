package file

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kolabformat/kolabformat/pkg/storage"
)

// folder manages the objects of a specific folder and correlates to a particular directory on
// disk. folder methods are not thread safe, folder.RWMutex must be held prior to calling.
type folder struct {
	*sync.RWMutex
	store       *Store
	name        string
	dirName     string
	path        string
	indexLoaded bool
	indexPath   string
	last        int // Highest id handed out.
	objects     []*Object
}

// getObjects returns the objects of the index.
func (f *folder) getObjects() ([]storage.Object, error) {
	if !f.indexLoaded {
		if err := f.readIndex(); err != nil {
			return nil, err
		}
	}
	objects := make([]storage.Object, len(f.objects))
	for i, o := range f.objects {
		objects[i] = o
	}
	return objects, nil
}

// getObject returns a single object by ID.
func (f *folder) getObject(id string) (storage.Object, error) {
	if !f.indexLoaded {
		if err := f.readIndex(); err != nil {
			return nil, err
		}
	}
	if id == "latest" && len(f.objects) != 0 {
		return f.objects[len(f.objects)-1], nil
	}
	for _, o := range f.objects {
		if o.Fid == id {
			return o, nil
		}
	}
	return nil, storage.ErrNotExist
}

// newObject creates a new Object with the next id. It will also delete objects over objectCap
// if configured.
func (f *folder) newObject() (*Object, error) {
	// Load index
	if !f.indexLoaded {
		if err := f.readIndex(); err != nil {
			return nil, err
		}
	}
	// Delete old objects over objectCap
	if f.store.objectCap > 0 {
		for len(f.objects) >= f.store.objectCap {
			log.Info().Str("module", "storage").Str("folder", f.name).
				Msg("Folder over configured object cap")
			if err := f.removeObject(f.objects[0].ID()); err != nil {
				log.Error().Str("module", "storage").Err(err).Msg("Error deleting object")
			}
		}
	}
	f.last++
	return &Object{folder: f, Fid: strconv.Itoa(f.last)}, nil
}

// removeObject deletes the object off disk and removes it from the index.
func (f *folder) removeObject(id string) error {
	if !f.indexLoaded {
		if err := f.readIndex(); err != nil {
			return err
		}
	}
	var obj *Object
	for i, o := range f.objects {
		if id == o.ID() {
			obj = o
			// Slice around object we are deleting
			f.objects = append(f.objects[:i], f.objects[i+1:]...)
			break
		}
	}
	if obj == nil {
		return storage.ErrNotExist
	}
	if err := f.writeIndex(); err != nil {
		return err
	}
	if len(f.objects) == 0 {
		// This was the last object, thus writeIndex() has removed the entire
		// directory; we don't need to delete the raw file.
		return nil
	}
	// There are still objects in the index
	log.Debug().Str("module", "storage").Str("path", obj.rawPath()).Msg("Deleting file")
	return os.Remove(obj.rawPath())
}

// purge deletes all objects in this folder.
func (f *folder) purge() error {
	if !f.indexLoaded {
		if err := f.readIndex(); err != nil {
			return err
		}
	}
	f.objects = f.objects[:0]
	return f.writeIndex()
}

// readIndex loads the folder index data from disk
func (f *folder) readIndex() error {
	// Clear object slice, open index
	f.objects = f.objects[:0]
	// Check if index exists
	if _, err := os.Stat(f.indexPath); err != nil {
		// Does not exist, but that's not an error in our world
		log.Debug().Str("module", "storage").Str("path", f.indexPath).
			Msg("Index does not yet exist")
		f.indexLoaded = true

		//lint:ignore nilerr missing folders are considered empty.
		return nil
	}
	file, err := os.Open(f.indexPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Error().Str("module", "storage").Str("path", f.indexPath).Err(err).
				Msg("Failed to close")
		}
	}()
	// Decode gob data
	br := f.store.getPooledReader(file)
	defer f.store.putPooledReader(br)
	dec := gob.NewDecoder(br)
	name := ""
	if err = dec.Decode(&name); err != nil {
		return fmt.Errorf("corrupt folder %q: %v", f.indexPath, err)
	}
	f.name = name
	if err = dec.Decode(&f.last); err != nil {
		return fmt.Errorf("corrupt folder %q: %v", f.indexPath, err)
	}
	for {
		// Load objects until EOF
		obj := &Object{}
		if err = dec.Decode(obj); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("corrupt folder %q: %v", f.indexPath, err)
		}
		obj.folder = f
		f.objects = append(f.objects, obj)
	}
	f.indexLoaded = true
	return nil
}

// writeIndex overwrites the index on disk with the current folder data
func (f *folder) writeIndex() error {
	if len(f.objects) > 0 {
		// Ensure folder directory exists
		if err := f.createDir(); err != nil {
			return err
		}
		// Open index for writing
		file, err := os.Create(f.indexPath)
		if err != nil {
			return err
		}
		writer := bufio.NewWriter(file)
		// Write each object and then flush
		enc := gob.NewEncoder(writer)
		if err = enc.Encode(f.name); err != nil {
			_ = file.Close()
			return err
		}
		if err = enc.Encode(f.last); err != nil {
			_ = file.Close()
			return err
		}
		for _, o := range f.objects {
			if err = enc.Encode(o); err != nil {
				_ = file.Close()
				return err
			}
		}
		if err := writer.Flush(); err != nil {
			_ = file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			log.Error().Str("module", "storage").Str("path", f.indexPath).Err(err).
				Msg("Failed to close")
			return err
		}
	} else {
		// No objects, delete index+dir
		log.Debug().Str("module", "storage").Str("path", f.path).Msg("Removing folder")
		return f.removeDir()
	}
	return nil
}

// createDir checks for the presence of the path for this folder, creates it if needed
func (f *folder) createDir() error {
	if _, err := os.Stat(f.path); err != nil {
		if err := os.MkdirAll(f.path, 0770); err != nil {
			log.Error().Str("module", "storage").Str("path", f.path).Err(err).
				Msg("Failed to create directory")
			return err
		}
	}
	return nil
}

// removeDir removes the folder, plus empty higher level directories
func (f *folder) removeDir() error {
	// remove folder dir, including index file
	if err := os.RemoveAll(f.path); err != nil {
		return err
	}
	// remove parents if empty
	dir := filepath.Dir(f.path)
	if removeDirIfEmpty(dir) {
		removeDirIfEmpty(filepath.Dir(dir))
	}
	return nil
}

// removeDirIfEmpty will remove the specified directory if it contains no files or directories.
// Returns true if dir was removed.
func removeDirIfEmpty(path string) (removed bool) {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	files, err := f.Readdirnames(0)
	_ = f.Close()
	if err != nil {
		return false
	}
	if len(files) > 0 {
		// Dir not empty
		return false
	}
	log.Debug().Str("module", "storage").Str("path", path).Msg("Removing dir")
	err = os.Remove(path)
	if err != nil {
		log.Error().Str("module", "storage").Str("path", path).Err(err).Msg("Failed to remove")
		return false
	}
	return true
}

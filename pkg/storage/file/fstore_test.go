package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolabformat/kolabformat/pkg/config"
	"github.com/kolabformat/kolabformat/pkg/storage"
	"github.com/kolabformat/kolabformat/pkg/test"
)

// TestSuite runs storage package test suite on file store.
func TestSuite(t *testing.T) {
	test.StoreSuite(t,
		func(conf config.Storage) (storage.Store, func(), error) {
			ds := setupDataStore(t, conf)
			destroy := func() {}
			return ds, destroy, nil
		})
}

// Test filestore initialization.
func TestFSNew(t *testing.T) {
	// Should fail if no path specified.
	ds, err := New(config.Storage{})
	require.ErrorContains(t, err, "parameter not specified")
	assert.Nil(t, ds)
}

func TestFSGetObjectPath(t *testing.T) {
	// Path should have `objects` dir appended.
	got := getObjectPath(`one`)
	assert.Regexp(t, "^one.objects$", got, "Expected one/objects or similar")

	// Path should convert `$` to `:`.
	got = getObjectPath(`C$\kolab`)
	assert.Regexp(t, "^C:.kolab.objects$", got, "Expected C:\\kolab\\objects or similar")
}

// Test directory structure created by filestore
func TestFSDirStructure(t *testing.T) {
	ds := setupDataStore(t, config.Storage{})
	root := ds.path

	// james hashes to 474ba67bdb289c6263b36dfd8a7bed6c85b04943
	folderName := "james"

	// Check filestore root exists
	assert.True(t, isDir(root), "Expected %q to be a directory", root)

	// Check object dir exists
	expect := filepath.Join(root, "objects")
	assert.True(t, isDir(expect), "Expected %q to be a directory", expect)

	// Check first hash section does not exist
	expect = filepath.Join(root, "objects", "474")
	assert.False(t, isDir(expect), "Expected %q to not exist", expect)

	// Deliver test object
	id1, _ := test.DeliverToStore(t, ds, folderName, "test", time.Now())

	// Check path to object exists
	assert.True(t, isDir(expect), "Expected %q to be a directory", expect)
	expect = filepath.Join(expect, "474ba6")
	assert.True(t, isDir(expect), "Expected %q to be a directory", expect)
	expect = filepath.Join(expect, "474ba67bdb289c6263b36dfd8a7bed6c85b04943")
	assert.True(t, isDir(expect), "Expected %q to be a directory", expect)

	// Check files
	folderPath := expect
	expect = filepath.Join(folderPath, "index.gob")
	assert.True(t, isFile(expect), "Expected %q to be a file", expect)
	expect = filepath.Join(folderPath, id1+".raw")
	assert.True(t, isFile(expect), "Expected %q to be a file", expect)

	// Deliver second test object
	id2, _ := test.DeliverToStore(t, ds, folderName, "test 2", time.Now())

	// Check files
	expect = filepath.Join(folderPath, id2+".raw")
	assert.True(t, isFile(expect), "Expected %q to be a file", expect)

	// Delete object
	err := ds.RemoveObject(folderName, id1)
	require.NoError(t, err)

	// Object should be removed
	expect = filepath.Join(folderPath, id1+".raw")
	assert.False(t, isPresent(expect), "Did not expect %q to exist", expect)
	expect = filepath.Join(folderPath, "index.gob")
	assert.True(t, isFile(expect), "Expected %q to be a file", expect)

	// Delete object
	err = ds.RemoveObject(folderName, id2)
	require.NoError(t, err)

	// No objects, index & folder dir should be removed
	expect = filepath.Join(folderPath, "index.gob")
	assert.False(t, isPresent(expect), "Did not expect %q to exist", expect)
	assert.False(t, isPresent(folderPath), "Did not expect %q to exist", folderPath)
}

// Test ids survive reopening the store.
func TestFSReopen(t *testing.T) {
	ds := setupDataStore(t, config.Storage{})
	folderName := "user/jane@example.org/Calendar"
	id1, _ := test.DeliverToStore(t, ds, folderName, "a", time.Now())
	id2, _ := test.DeliverToStore(t, ds, folderName, "b", time.Now())
	assert.Equal(t, "1", id1)
	assert.Equal(t, "2", id2)
	require.NoError(t, ds.RemoveObject(folderName, id2))

	reopened, err := New(config.Storage{Params: map[string]string{"path": ds.path}})
	require.NoError(t, err)
	id3, _ := test.DeliverToStore(t, reopened, folderName, "c", time.Now())
	assert.Equal(t, "3", id3, "ids must not be reused")

	objs := test.GetAndCountObjects(t, reopened, folderName, 2)
	assert.Equal(t, folderName, objs[0].Folder())
	assert.Equal(t, "a", objs[0].Subject())
	assert.Equal(t, "c", objs[1].Subject())
}

// Test missing files
func TestFSMissing(t *testing.T) {
	ds := setupDataStore(t, config.Storage{})

	folderName := "fred"
	subjects := []string{"a", "b", "c"}
	sentIds := make([]string, len(subjects))

	for i, subj := range subjects {
		// Add an object
		id, _ := test.DeliverToStore(t, ds, folderName, subj, time.Now())
		sentIds[i] = id
	}

	// Delete an object file without removing it from index
	obj, err := ds.GetObject(folderName, sentIds[1])
	require.NoError(t, err)
	fobj := obj.(*Object)
	_ = os.Remove(fobj.rawPath())
	obj, err = ds.GetObject(folderName, sentIds[1])
	require.NoError(t, err)

	// Try to read the object
	_, err = obj.Source()
	require.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	storage.Constructors["file"] = New
	s, err := storage.FromConfig(config.Storage{
		Type:   "file",
		Params: map[string]string{"path": t.TempDir()},
	})
	require.NoError(t, err)
	assert.IsType(t, &Store{}, s)

	_, err = storage.FromConfig(config.Storage{Type: "imap"})
	assert.Error(t, err)
}

// setupDataStore creates a new file Store in a temporary directory
func setupDataStore(t *testing.T, cfg config.Storage) *Store {
	t.Helper()
	params := map[string]string{"path": t.TempDir()}
	for k, v := range cfg.Params {
		params[k] = v
	}
	cfg.Params = params
	s, err := New(cfg)
	require.NoError(t, err)
	return s.(*Store)
}

func isPresent(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func isFile(path string) bool {
	if fi, err := os.Lstat(path); err == nil {
		return !fi.IsDir()
	}
	return false
}

func isDir(path string) bool {
	if fi, err := os.Lstat(path); err == nil {
		return fi.IsDir()
	}
	return false
}

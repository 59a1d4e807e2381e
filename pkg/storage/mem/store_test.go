package mem

import (
	"sync"
	"testing"
	"time"

	"github.com/kolabformat/kolabformat/pkg/config"
	"github.com/kolabformat/kolabformat/pkg/storage"
	"github.com/kolabformat/kolabformat/pkg/test"
)

// TestSuite runs storage package test suite on the memory store.
func TestSuite(t *testing.T) {
	test.StoreSuite(t, func(conf config.Storage) (storage.Store, func(), error) {
		s, _ := New(conf)
		destroy := func() {}
		return s, destroy, nil
	})
}

func TestInvalidMaxKB(t *testing.T) {
	_, err := New(config.Storage{Params: map[string]string{"maxkb": "lots"}})
	if err == nil {
		t.Error("Expected an error for an invalid maxkb")
	}
}

// TestMaxSize verifies the size enforcer keeps the whole store below maxkb.
func TestMaxSize(t *testing.T) {
	maxSize := int64(8 * 1024)
	s, _ := New(config.Storage{Params: map[string]string{"maxkb": "8"}})
	folders := []string{"alpha", "beta", "whiskey", "tango", "foxtrot"}
	n := 10
	sizeChan := make(chan int64, len(folders))
	// Populate folders concurrently.
	for _, folder := range folders {
		go func(folder string) {
			size := int64(0)
			for i := 0; i < n; i++ {
				_, nbytes := test.DeliverToStore(t, s, folder, "uid", time.Now())
				size += nbytes
			}
			sizeChan <- size
		}(folder)
	}
	// Wait for sizes.
	sentBytesTotal := int64(0)
	for range folders {
		sentBytesTotal += <-sizeChan
	}
	if sentBytesTotal <= maxSize {
		t.Fatalf("Sent %v bytes, test needs more than %v", sentBytesTotal, maxSize)
	}
	// Calculate actual size.
	gotSize := int64(0)
	msgSize := int64(0)
	s.VisitFolders(func(objs []storage.Object) bool {
		for _, o := range objs {
			gotSize += o.Size()
			msgSize = o.Size()
		}
		return true
	})
	// Verify state.
	if gotSize < maxSize-msgSize {
		t.Errorf("Got total size %v, want greater than: %v", gotSize, maxSize-msgSize)
	}
	if gotSize > maxSize {
		t.Errorf("Got total size %v, want less than: %v", gotSize, maxSize)
	}
	// Purge all folders concurrently, testing for deadlocks.
	wg := &sync.WaitGroup{}
	wg.Add(len(folders))
	for _, folder := range folders {
		go func(folder string) {
			defer wg.Done()
			if err := s.PurgeObjects(folder); err != nil {
				t.Error(err)
			}
		}(folder)
	}
	wg.Wait()
	count := 0
	s.VisitFolders(func(objs []storage.Object) bool {
		count += len(objs)
		return true
	})
	if count != 0 {
		t.Errorf("Got %v total objects, want: %v", count, 0)
	}
}

package test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kolabformat/kolabformat/pkg/config"
	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/storage"
)

// StoreFactory returns a new store for the test suite.
type StoreFactory func(config.Storage) (store storage.Store, destroy func(), err error)

// StoreSuite runs a set of general tests on the provided Store.
func StoreSuite(t *testing.T, factory StoreFactory) {
	testCases := []struct {
		name string
		test func(*testing.T, storage.Store)
		conf config.Storage
	}{
		{"metadata", testMetadata, config.Storage{}},
		{"content", testContent, config.Storage{}},
		{"delivery order", testDeliveryOrder, config.Storage{}},
		{"latest", testLatest, config.Storage{}},
		{"size", testSize, config.Storage{}},
		{"find by message-id", testFindByMessageID, config.Storage{}},
		{"missing", testMissing, config.Storage{}},
		{"delete", testDelete, config.Storage{}},
		{"purge", testPurge, config.Storage{}},
		{"cap=10", testCapN(10), config.Storage{MailboxMsgCap: 10}},
		{"cap=0", testCapN(0), config.Storage{MailboxMsgCap: 0}},
		{"visit folders", testVisitFolders, config.Storage{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, destroy, err := factory(tc.conf)
			if err != nil {
				t.Fatal(err)
			}
			tc.test(t, store)
			destroy()
		})
	}
}

// testMetadata verifies object metadata is stored and retrieved correctly.
func testMetadata(t *testing.T, store storage.Store) {
	folder := "user/jane@example.org/Calendar"
	date := time.Date(2013, time.October, 23, 12, 30, 0, 0, time.UTC)
	raw := NewMessage(t, "event-uid", "abc@example.org", date)
	delivery, err := storage.NewDelivery(folder, raw)
	if err != nil {
		t.Fatal(err)
	}
	id, err := store.AddObject(delivery)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("Expected AddObject() to return non-empty ID string")
	}
	// Retrieve and validate the object.
	so, err := store.GetObject(folder, id)
	if err != nil {
		t.Fatal(err)
	}
	if so.Folder() != folder {
		t.Errorf("got folder %q, want: %q", so.Folder(), folder)
	}
	if so.ID() != id {
		t.Errorf("got id %q, want: %q", so.ID(), id)
	}
	if so.MessageID() != "abc@example.org" {
		t.Errorf("got message-id %q, want: %q", so.MessageID(), "abc@example.org")
	}
	if so.Subject() != "event-uid" {
		t.Errorf("got subject %q, want: %q", so.Subject(), "event-uid")
	}
	if !so.Date().Equal(date) {
		t.Errorf("got date %v, want: %v", so.Date(), date)
	}
	if so.Type() != kolab.EventObject {
		t.Errorf("got type %v, want: %v", so.Type(), kolab.EventObject)
	}
	if so.Size() != int64(len(raw)) {
		t.Errorf("got size %v, want: %v", so.Size(), len(raw))
	}
}

// testContent makes sure the raw message is retrieved unchanged.
func testContent(t *testing.T, store storage.Store) {
	folder := "shared/Notes"
	raw := NewMessage(t, "event-uid", "", time.Now())
	delivery, err := storage.NewDelivery(folder, raw)
	if err != nil {
		t.Fatal(err)
	}
	id, err := store.AddObject(delivery)
	if err != nil {
		t.Fatal(err)
	}
	// Get and check.
	o, err := store.GetObject(folder, id)
	if err != nil {
		t.Fatal(err)
	}
	got, err := storage.ReadAll(o)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(raw) {
		t.Errorf("Got content %q, want: %q", got, raw)
	}
}

// testDeliveryOrder delivers several objects to the same folder, meanwhile querying its contents
// with a new GetObjects call each cycle.
func testDeliveryOrder(t *testing.T, store storage.Store) {
	folder := "fred"
	uids := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for i, uid := range uids {
		// Check folder count.
		GetAndCountObjects(t, store, folder, i)
		DeliverToStore(t, store, folder, uid, time.Now())
	}
	// Confirm delivery order.
	objs := GetAndCountObjects(t, store, folder, 5)
	for i, want := range uids {
		got := objs[i].Subject()
		if got != want {
			t.Errorf("Got subject %q, want %q", got, want)
		}
	}
}

// testLatest checks the "latest" id alias.
func testLatest(t *testing.T, store storage.Store) {
	folder := "fred"
	if _, err := store.GetObject(folder, "latest"); !errors.Is(err, storage.ErrNotExist) {
		t.Errorf("Got error %v for empty folder, want: %v", err, storage.ErrNotExist)
	}
	DeliverToStore(t, store, folder, "alpha", time.Now())
	DeliverToStore(t, store, folder, "bravo", time.Now())
	o, err := store.GetObject(folder, "latest")
	if err != nil {
		t.Fatal(err)
	}
	if o.Subject() != "bravo" {
		t.Errorf("Got subject %q, want %q", o.Subject(), "bravo")
	}
}

// testSize verifies object size metadata values.
func testSize(t *testing.T, store storage.Store) {
	folder := "fred"
	uids := []string{"a", "br", "much longer than the others"}
	sentIds := make([]string, len(uids))
	sentSizes := make([]int64, len(uids))
	for i, uid := range uids {
		id, size := DeliverToStore(t, store, folder, uid, time.Now())
		sentIds[i] = id
		sentSizes[i] = size
	}
	for i, id := range sentIds {
		o, err := store.GetObject(folder, id)
		if err != nil {
			t.Fatal(err)
		}
		want := sentSizes[i]
		got := o.Size()
		if got != want {
			t.Errorf("Got size %v, want: %v", got, want)
		}
	}
}

// testFindByMessageID looks objects up by their Message-Id header.
func testFindByMessageID(t *testing.T, store storage.Store) {
	folder := "fred"
	for _, mid := range []string{"one@example.org", "two@example.org"} {
		delivery, err := storage.NewDelivery(folder, NewMessage(t, "uid-"+mid, mid, time.Now()))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := store.AddObject(delivery); err != nil {
			t.Fatal(err)
		}
	}
	o, err := store.FindByMessageID(folder, "two@example.org")
	if err != nil {
		t.Fatal(err)
	}
	if o.Subject() != "uid-two@example.org" {
		t.Errorf("Got subject %q, want %q", o.Subject(), "uid-two@example.org")
	}
	if _, err := store.FindByMessageID(folder, "three@example.org"); !errors.Is(err, storage.ErrNotExist) {
		t.Errorf("Got error %v, want: %v", err, storage.ErrNotExist)
	}
}

// testMissing requests objects that were never stored.
func testMissing(t *testing.T, store storage.Store) {
	if _, err := store.GetObject("fred", "1"); !errors.Is(err, storage.ErrNotExist) {
		t.Errorf("Got error %v, want: %v", err, storage.ErrNotExist)
	}
	if err := store.RemoveObject("fred", "1"); !errors.Is(err, storage.ErrNotExist) {
		t.Errorf("Got error %v, want: %v", err, storage.ErrNotExist)
	}
}

// testDelete creates and deletes some objects.
func testDelete(t *testing.T, store storage.Store) {
	folder := "fred"
	uids := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, uid := range uids {
		DeliverToStore(t, store, folder, uid, time.Now())
	}
	objs := GetAndCountObjects(t, store, folder, len(uids))
	// Delete a couple objects.
	err := store.RemoveObject(folder, objs[1].ID())
	if err != nil {
		t.Fatal(err)
	}
	err = store.RemoveObject(folder, objs[3].ID())
	if err != nil {
		t.Fatal(err)
	}
	// Confirm deletion.
	uids = []string{"alpha", "charlie", "echo"}
	objs = GetAndCountObjects(t, store, folder, len(uids))
	for i, want := range uids {
		got := objs[i].Subject()
		if got != want {
			t.Errorf("Got subject %q, want %q", got, want)
		}
	}
	// Try appending one more.
	DeliverToStore(t, store, folder, "foxtrot", time.Now())
	uids = []string{"alpha", "charlie", "echo", "foxtrot"}
	objs = GetAndCountObjects(t, store, folder, len(uids))
	for i, want := range uids {
		got := objs[i].Subject()
		if got != want {
			t.Errorf("Got subject %q, want %q", got, want)
		}
	}
}

// testPurge makes sure folders can be purged.
func testPurge(t *testing.T, store storage.Store) {
	folder := "fred"
	uids := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, uid := range uids {
		DeliverToStore(t, store, folder, uid, time.Now())
	}
	GetAndCountObjects(t, store, folder, len(uids))
	// Purge and verify.
	err := store.PurgeObjects(folder)
	if err != nil {
		t.Fatal(err)
	}
	GetAndCountObjects(t, store, folder, 0)
}

// testCapN returns a test that delivers more objects than the folder cap allows.
func testCapN(limit int) func(*testing.T, storage.Store) {
	return func(t *testing.T, store storage.Store) {
		folder := "captain"
		total := 20
		for i := 0; i < total; i++ {
			DeliverToStore(t, store, folder, fmt.Sprintf("uid-%d", i), time.Now())
		}
		want := total
		if limit > 0 && limit < total {
			want = limit
		}
		objs := GetAndCountObjects(t, store, folder, want)
		// The oldest objects were dropped.
		first := fmt.Sprintf("uid-%d", total-want)
		if len(objs) > 0 && objs[0].Subject() != first {
			t.Errorf("Got first subject %q, want %q", objs[0].Subject(), first)
		}
	}
}

// testVisitFolders creates some folders and confirms the VisitFolders method visits all of them.
func testVisitFolders(t *testing.T, ds storage.Store) {
	folders := []string{"abby", "bill", "christa", "donald", "evelyn"}
	for _, name := range folders {
		DeliverToStore(t, ds, name, "old", time.Now().Add(-24*time.Hour))
		DeliverToStore(t, ds, name, "new", time.Now())
	}
	seen := 0
	err := ds.VisitFolders(func(objs []storage.Object) bool {
		seen++
		count := len(objs)
		if count != 2 {
			t.Errorf("got: %v objects, want: 2", count)
		}
		return true
	})
	if err != nil {
		t.Error(err)
	}
	if seen != 5 {
		t.Errorf("saw %v folders in total, want: 5", seen)
	}
}

// Package test provides helpers shared by the tests of several packages.
package test

import (
	"testing"
	"time"

	"github.com/kolabformat/kolabformat/pkg/envelope"
	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/storage"
)

const eventXML = `<icalendar xmlns="urn:ietf:params:xml:ns:icalendar-2.0"><vcalendar/></icalendar>`

// NewMessage builds a V3 event message with the given uid as subject.
func NewMessage(t *testing.T, uid, messageID string, date time.Time) []byte {
	t.Helper()
	raw, err := envelope.Build(envelope.Message{
		TypeToken:   kolab.TypeEvent,
		ContentType: kolab.MimeTypeXCal,
		XML:         []byte(eventXML),
		V3:          true,
		ProductID:   kolab.ProductID("test"),
		Subject:     uid,
		Date:        date,
		MessageID:   messageID,
	})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

// DeliverToStore creates and delivers an event object to the specific folder, returning its id
// and the size of the generated message.
func DeliverToStore(
	t *testing.T,
	store storage.Store,
	folder string,
	uid string,
	date time.Time,
) (string, int64) {
	t.Helper()
	raw := NewMessage(t, uid, "", date)
	delivery, err := storage.NewDelivery(folder, raw)
	if err != nil {
		t.Fatal(err)
	}
	id, err := store.AddObject(delivery)
	if err != nil {
		t.Fatal(err)
	}
	return id, int64(len(raw))
}

// GetAndCountObjects is a test helper that expects to receive count objects or fails the test, it
// also checks return error.
func GetAndCountObjects(t *testing.T, s storage.Store, folder string, count int) []storage.Object {
	t.Helper()
	objs, err := s.GetObjects(folder)
	if err != nil {
		t.Fatalf("Failed to GetObjects for %q: %v", folder, err)
	}
	if len(objs) != count {
		t.Errorf("Got %v objects for %q, want: %v", len(objs), folder, count)
	}
	return objs
}

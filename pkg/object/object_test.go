package object_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/envelope"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/object"
)

func newSink() *errsink.Sink {
	return errsink.NewWithLogger(zerolog.Nop())
}

func newWriter(sink *errsink.Sink) *object.Writer {
	w := object.NewWriter(object.DefaultCodecs(), sink)
	w.Now = func() time.Time { return time.Date(2013, time.October, 23, 12, 0, 0, 0, time.UTC) }
	w.NewUID = func() string { return "generated-uid" }
	return w
}

func testEvent() *kolab.Incidence {
	ev := kolab.NewEvent()
	ev.UID = "event-1"
	ev.Summary = "Planning"
	ev.Start = kolab.NewDateTime(time.Date(2013, time.October, 23, 2, 0, 0, 0, time.UTC))
	ev.End = kolab.NewDateTime(time.Date(2013, time.October, 23, 3, 0, 0, 0, time.UTC))
	ev.Organizer = kolab.Person{Name: "Jane Doe", Email: "jane@example.org"}
	ev.Attachments = []kolab.Attachment{
		{Data: []byte("hello"), MimeType: "text/plain", Label: "notes.txt"},
		{URI: "https://example.org/agenda.pdf"},
	}
	return ev
}

func TestReadNoParts(t *testing.T) {
	raw := []byte("From: jane@example.org\r\nSubject: hello\r\n\r\nplain text\r\n")
	sink := newSink()
	obj, _, typ := object.Read(raw, sink)
	assert.Equal(t, kolab.InvalidObject, typ)
	assert.Nil(t, obj)
	assert.Equal(t, errsink.Critical, sink.Worst())
}

func TestReadUnresolvedCID(t *testing.T) {
	ev := kolab.NewEvent()
	ev.UID = "event-1"
	ev.Start = kolab.NewDateTime(time.Date(2013, time.October, 23, 2, 0, 0, 0, time.UTC))
	ev.Attachments = []kolab.Attachment{{URI: "cid:attach1@kolab.resource.akonadi"}}

	sink := newSink()
	c, ok := object.DefaultCodecs().Lookup(kolab.EventObject, kolab.KolabV3)
	require.True(t, ok)
	xml := c.Write(ev, codec.WriteOptions{ProductID: kolab.ProductID("test")}, sink)
	require.NotNil(t, xml)
	raw, err := envelope.Build(envelope.Message{
		TypeToken:   kolab.TypeEvent,
		ContentType: kolab.MimeTypeXCal,
		XML:         xml,
		V3:          true,
		ProductID:   kolab.ProductID("test"),
		Subject:     ev.UID,
	})
	require.NoError(t, err)

	r := object.NewReader(object.DefaultCodecs(), sink)
	assert.Equal(t, kolab.EventObject, r.Parse(raw))
	assert.Equal(t, errsink.Error, sink.Worst())
	got := r.Event()
	require.NotNil(t, got)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "cid:attach1@kolab.resource.akonadi", got.Attachments[0].URI)
	assert.False(t, got.Attachments[0].HasData())

	// Writing the object back must not turn the dangling reference into an empty part.
	raw = newWriter(sink).Write(got, kolab.KolabV3, codec.WriteOptions{ProductID: "test"})
	require.NotNil(t, raw, "write: %v", sink.Entries())
	env, err := envelope.Parse(raw)
	require.NoError(t, err)
	assert.Len(t, env.Parts, 2)
	assert.Equal(t, kolab.EventObject, r.Parse(raw))
	assert.Equal(t, errsink.Error, sink.Worst())
}

func TestEventV3RoundTrip(t *testing.T) {
	ev := testEvent()
	sink := newSink()
	raw := newWriter(sink).Write(ev, kolab.KolabV3, codec.WriteOptions{ProductID: "test"})
	require.NotNil(t, raw, "write: %v", sink.Entries())
	assert.False(t, sink.ErrorOccurred(), "write: %v", sink.Entries())

	// The caller's object keeps its attachment addressing.
	assert.Empty(t, ev.Attachments[0].URI)

	env, err := envelope.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, kolab.TypeEvent, env.Header(kolab.HeaderType))
	assert.Equal(t, kolab.VersionV3, env.Header(kolab.HeaderMimeVersion))
	assert.Equal(t, "test "+kolab.LibVersion, env.Header("User-Agent"))
	assert.Equal(t, "event-1", env.Subject())
	assert.Equal(t, []string{"text/plain", kolab.MimeTypeXCal, "text/plain"}, env.ContentTypes())
	assert.Contains(t, env.Parts[2].ContentID, "@"+kolab.CIDDomain)

	r := object.NewReader(object.DefaultCodecs(), sink)
	r.Strict = true
	require.Equal(t, kolab.EventObject, r.Parse(raw), "read: %v", sink.Entries())
	assert.False(t, sink.ErrorOccurred(), "read: %v", sink.Entries())
	assert.Equal(t, kolab.KolabV3, r.Version())
	assert.Nil(t, r.Todo())
	got := r.Event()
	require.NotNil(t, got)
	assert.Equal(t, ev.Summary, got.Summary)
	assert.True(t, ev.Start.Equal(got.Start))
	require.Len(t, got.Attachments, 2)
	assert.Equal(t, kolab.Attachment{Data: []byte("hello"), MimeType: "text/plain", Label: "notes.txt"},
		got.Attachments[0])
	assert.Equal(t, "https://example.org/agenda.pdf", got.Attachments[1].URI)
}

func TestEventV2RoundTrip(t *testing.T) {
	ev := testEvent()
	ev.UID = ""
	ev.Attachments[0].Label = ""
	sink := newSink()
	raw := newWriter(sink).Write(ev, kolab.KolabV2, codec.WriteOptions{ProductID: "test"})
	require.NotNil(t, raw, "write: %v", sink.Entries())
	assert.Equal(t, errsink.Warning, sink.Worst())
	assert.Empty(t, ev.UID)
	assert.Empty(t, ev.Attachments[0].Label)

	env, err := envelope.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, kolab.TypeEvent, env.Header(kolab.HeaderType))
	assert.Empty(t, env.Header(kolab.HeaderMimeVersion))
	assert.Equal(t, []string{"text/plain", kolab.TypeEvent, "text/plain"}, env.ContentTypes())

	r := object.NewReader(object.DefaultCodecs(), sink)
	require.Equal(t, kolab.EventObject, r.Parse(raw), "read: %v", sink.Entries())
	assert.False(t, sink.ErrorOccurred(), "read: %v", sink.Entries())
	assert.Equal(t, kolab.KolabV2, r.Version())
	got := r.Event()
	require.NotNil(t, got)
	assert.Equal(t, "generated-uid", got.UID)
	assert.Equal(t, ev.Organizer, got.Organizer)
	// Link attachments of the XML are dropped, only envelope parts are attached.
	assert.Equal(t, []kolab.Attachment{
		{Data: []byte("hello"), MimeType: "text/plain", Label: "attachment1"},
	}, got.Attachments)
}

func TestMissingLegacyAttachment(t *testing.T) {
	sink := newSink()
	ev := testEvent()
	c, ok := object.DefaultCodecs().Lookup(kolab.EventObject, kolab.KolabV2)
	require.True(t, ok)
	xml := c.Write(ev, codec.WriteOptions{}, sink)
	require.NotNil(t, xml)
	raw, err := envelope.Build(envelope.Message{
		TypeToken:   kolab.TypeEvent,
		ContentType: kolab.TypeEvent,
		XML:         xml,
	})
	require.NoError(t, err)

	r := object.NewReader(object.DefaultCodecs(), sink)
	assert.Equal(t, kolab.EventObject, r.Parse(raw))
	assert.Equal(t, errsink.Error, sink.Worst())
	assert.Empty(t, r.Event().Attachments)
}

func TestObjectKinds(t *testing.T) {
	testCases := []struct {
		name    string
		obj     kolab.Object
		version kolab.Version
		token   string
	}{
		{"todo v3", &kolab.Incidence{Kind: kolab.TodoObject, UID: "todo-1", Summary: "Report"},
			kolab.KolabV3, kolab.TypeTask},
		{"journal v2", &kolab.Incidence{Kind: kolab.JournalObject, UID: "journal-1", Summary: "Diary"},
			kolab.KolabV2, kolab.TypeJournal},
		{"contact v3", &kolab.Contact{UID: "contact-1", FormattedName: "Jane Doe",
			Emails: []kolab.Email{{Address: "jane@example.org"}}}, kolab.KolabV3, kolab.TypeContact},
		{"contact v2", &kolab.Contact{UID: "contact-1", FormattedName: "Jane Doe"},
			kolab.KolabV2, kolab.TypeContact},
		{"distlist v3", &kolab.DistList{UID: "list-1", Name: "Team",
			Members: []kolab.Person{{Email: "jane@example.org"}}}, kolab.KolabV3, kolab.TypeDistlist},
		{"distlist v2", &kolab.DistList{UID: "list-1", Name: "Team",
			Members: []kolab.Person{{Email: "jane@example.org"}}}, kolab.KolabV2, kolab.TypeDistlistV2},
		{"note v3", &kolab.Note{UID: "note-1", Summary: "Shopping", Description: "milk"},
			kolab.KolabV3, kolab.TypeNote},
		{"note v2", &kolab.Note{UID: "note-1", Summary: "Shopping", Description: "milk"},
			kolab.KolabV2, kolab.TypeNote},
		{"dictionary v3", &kolab.Dictionary{UID: "dict-1", Language: "de", Entries: []string{"Kolab"}},
			kolab.KolabV3, kolab.TypeDictionary},
		{"relation v3", &kolab.Relation{UID: "rel-1", Name: "important", RelationType: "tag",
			Members: []string{"urn:uuid:event-1"}}, kolab.KolabV3, kolab.TypeRelation},
		{"freebusy v3", &kolab.Freebusy{UID: "fb-1",
			Start: kolab.NewDateTime(time.Date(2013, time.October, 23, 0, 0, 0, 0, time.UTC)),
			End:   kolab.NewDateTime(time.Date(2013, time.October, 24, 0, 0, 0, 0, time.UTC))},
			kolab.KolabV3, kolab.TypeFreebusy},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sink := newSink()
			raw := newWriter(sink).Write(tc.obj, tc.version, codec.WriteOptions{})
			require.NotNil(t, raw, "write: %v", sink.Entries())
			assert.False(t, sink.ErrorOccurred(), "write: %v", sink.Entries())

			env, err := envelope.Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, tc.token, env.Header(kolab.HeaderType))

			obj, v, typ := object.Read(raw, sink)
			assert.False(t, sink.ErrorOccurred(), "read: %v", sink.Entries())
			assert.Equal(t, tc.obj.Type(), typ)
			assert.Equal(t, tc.version, v)
			require.NotNil(t, obj)
			assert.Equal(t, tc.obj.Type(), obj.Type())
		})
	}
}

func TestReadLegacyDictionary(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<configuration version="1.0">
 <uid>dict-1</uid>
 <type>dictionary</type>
 <language>en</language>
 <e>Kolab</e>
</configuration>`)
	raw, err := envelope.Build(envelope.Message{
		TypeToken:   kolab.TypeDictionary + ".en",
		ContentType: kolab.TypeLegacyDocument,
		XML:         doc,
	})
	require.NoError(t, err)

	sink := newSink()
	r := object.NewReader(object.DefaultCodecs(), sink)
	require.Equal(t, kolab.DictionaryConfigurationObject, r.Parse(raw), "read: %v", sink.Entries())
	assert.Equal(t, kolab.KolabV2, r.Version())
	assert.Equal(t, []string{"Kolab"}, r.Dictionary().Entries)
	assert.Equal(t, "en", r.Dictionary().Language)
}

func TestDetectTypeFromParts(t *testing.T) {
	sink := newSink()
	raw := newWriter(sink).Write(testEvent(), kolab.KolabV2, codec.WriteOptions{})
	require.NotNil(t, raw)
	raw = bytes.Replace(raw, []byte("X-Kolab-Type: "+kolab.TypeEvent+"\r\n"), nil, 1)

	r := object.NewReader(object.DefaultCodecs(), sink)
	assert.Equal(t, kolab.EventObject, r.Parse(raw), "read: %v", sink.Entries())
	assert.Equal(t, errsink.Warning, sink.Worst())
}

func TestUnknownVersion(t *testing.T) {
	sink := newSink()
	raw := newWriter(sink).Write(testEvent(), kolab.KolabV3, codec.WriteOptions{})
	require.NotNil(t, raw)
	raw = bytes.Replace(raw, []byte("X-Kolab-Mime-Version: 3.0"), []byte("X-Kolab-Mime-Version: 3.5"), 1)

	r := object.NewReader(object.DefaultCodecs(), sink)
	assert.Equal(t, kolab.EventObject, r.Parse(raw))
	assert.Equal(t, kolab.KolabV3, r.Version())
	assert.Equal(t, errsink.Warning, sink.Worst())
}

func TestOverrides(t *testing.T) {
	sink := newSink()
	raw := newWriter(sink).Write(testEvent(), kolab.KolabV3, codec.WriteOptions{})
	require.NotNil(t, raw)

	r := object.NewReader(object.DefaultCodecs(), sink)
	r.SetVersion(kolab.KolabV2)
	assert.Equal(t, kolab.InvalidObject, r.Parse(raw))
	assert.Equal(t, errsink.Critical, sink.Worst())
	assert.Nil(t, r.Object())

	r = object.NewReader(object.DefaultCodecs(), sink)
	r.SetObjectType(kolab.NoteObject)
	assert.Equal(t, kolab.InvalidObject, r.Parse(raw))
	assert.Equal(t, errsink.Critical, sink.Worst())

	r.SetObjectType(kolab.InvalidObject)
	assert.Equal(t, kolab.EventObject, r.Parse(raw))
	assert.False(t, sink.ErrorOccurred())
}

func TestWriteFailures(t *testing.T) {
	testCases := []struct {
		name    string
		obj     kolab.Object
		version kolab.Version
	}{
		{"nil", nil, kolab.KolabV3},
		{"typed nil", (*kolab.Incidence)(nil), kolab.KolabV3},
		{"legacy freebusy", &kolab.Freebusy{UID: "fb-1"}, kolab.KolabV2},
		{"legacy relation", &kolab.Relation{UID: "rel-1"}, kolab.KolabV2},
		{"legacy dictionary", &kolab.Dictionary{UID: "dict-1"}, kolab.KolabV2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sink := newSink()
			assert.Nil(t, newWriter(sink).Write(tc.obj, tc.version, codec.WriteOptions{}))
			assert.Equal(t, errsink.Critical, sink.Worst())
		})
	}
}

func TestRelationsCapability(t *testing.T) {
	rel := &kolab.Relation{UID: "rel-1", Name: "important", RelationType: "tag"}
	sink := newSink()
	w := object.NewWriter(object.NewCodecs(object.Capabilities{}), sink)
	assert.Nil(t, w.Write(rel, kolab.KolabV3, codec.WriteOptions{}))
	assert.Equal(t, errsink.Critical, sink.Worst())

	w = object.NewWriter(object.NewCodecs(object.Capabilities{Relations: true}), sink)
	raw := w.Write(rel, kolab.KolabV3, codec.WriteOptions{})
	require.NotNil(t, raw)

	r := object.NewReader(object.NewCodecs(object.Capabilities{}), sink)
	assert.Equal(t, kolab.InvalidObject, r.Parse(raw))
	assert.Equal(t, errsink.Critical, sink.Worst())
}

func TestEmptyOrganizer(t *testing.T) {
	ev := testEvent()
	ev.Organizer = kolab.Person{}
	sink := newSink()
	raw := newWriter(sink).Write(ev, kolab.KolabV3, codec.WriteOptions{})
	require.NotNil(t, raw)
	assert.Equal(t, errsink.Debug, sink.Worst())
	assert.NotZero(t, sink.Len())
}

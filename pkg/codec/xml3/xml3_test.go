package xml3_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/codec/xml3"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

const productID = "test Kolabformat-1.0.0"

func newSink() *errsink.Sink {
	return errsink.NewWithLogger(zerolog.Nop())
}

func registry(t *testing.T) *codec.Registry {
	t.Helper()
	r := codec.NewRegistry()
	xml3.Register(r)
	xml3.RegisterRelations(r)
	return r
}

// roundTrip writes obj with the V3 codec for its kind and reads the document back.
func roundTrip(t *testing.T, obj kolab.Object) (string, kolab.Object) {
	t.Helper()
	c, ok := registry(t).Lookup(obj.Type(), kolab.KolabV3)
	require.True(t, ok, "no codec for %v", obj.Type())
	sink := newSink()
	data := c.Write(obj, codec.WriteOptions{ProductID: productID}, sink)
	require.NotNil(t, data, "write: %v", sink.Entries())
	assert.False(t, sink.ErrorOccurred(), "write: %v", sink.Entries())

	res := c.Read(data, true, sink)
	require.NotNil(t, res.Object, "read: %v", sink.Entries())
	assert.Equal(t, 0, sink.Len(), "read: %v", sink.Entries())
	return string(data), res.Object
}

func TestEventRoundTrip(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	ev := kolab.NewEvent()
	ev.UID = "event-1"
	ev.Created = kolab.NewDateTime(time.Date(2013, time.October, 1, 8, 0, 0, 0, time.UTC))
	ev.LastModified = kolab.NewDateTime(time.Date(2013, time.October, 2, 8, 0, 0, 0, time.UTC))
	ev.Categories = []string{"work", "planning"}
	ev.Summary = "Planning, round 2"
	ev.Description = "line1\nline2"
	ev.Start = kolab.NewDateTime(time.Date(2013, time.October, 23, 4, 0, 0, 0, berlin))
	ev.End = kolab.NewDateTime(time.Date(2013, time.October, 23, 5, 0, 0, 0, berlin))
	ev.Organizer = kolab.Person{Name: "Jane Doe", Email: "jane@example.org"}
	ev.Attendees = []kolab.Attendee{{
		Person:   kolab.Person{Name: "John", Email: "john@example.org"},
		Role:     "REQ-PARTICIPANT",
		PartStat: "ACCEPTED",
		RSVP:     true,
	}}
	ev.Recurrence = kolab.Recurrence{
		RRule:   "FREQ=WEEKLY;UNTIL=20131231T000000Z;BYDAY=MO,WE",
		ExDates: []kolab.DateTime{kolab.NewDateTime(time.Date(2013, time.October, 28, 4, 0, 0, 0, berlin))},
	}
	ev.Attachments = []kolab.Attachment{
		{URI: "cid:abc@kolab.resource.akonadi", MimeType: "text/plain", Label: "notes.txt"},
	}

	doc, got := roundTrip(t, ev)
	assert.Contains(t, doc, `<icalendar xmlns="urn:ietf:params:xml:ns:icalendar-2.0">`)
	assert.Contains(t, doc, "<x-kolab-version>")
	assert.Contains(t, doc, "<prodid>")
	assert.Contains(t, doc, "<date-time>2013-10-23T04:00:00</date-time>")
	assert.Contains(t, doc, "<tzid>")
	assert.Contains(t, doc, "<until>2013-12-31T00:00:00Z</until>")
	assert.Contains(t, doc, "<byday>MO</byday>")
	assert.Contains(t, doc, "<cal-address>mailto:jane@example.org</cal-address>")
	assert.Contains(t, doc, "<rsvp>")
	assert.Contains(t, doc, "<uri>cid:abc@kolab.resource.akonadi</uri>")

	inc := got.(*kolab.Incidence)
	assert.Equal(t, ev.UID, inc.UID)
	assert.Equal(t, ev.Summary, inc.Summary)
	assert.Equal(t, ev.Description, inc.Description)
	assert.Equal(t, ev.Categories, inc.Categories)
	assert.True(t, ev.Start.Equal(inc.Start))
	assert.Equal(t, "Europe/Berlin", inc.Start.Time.Location().String())
	assert.True(t, ev.End.Equal(inc.End))
	assert.Equal(t, ev.Organizer, inc.Organizer)
	assert.Equal(t, ev.Attendees, inc.Attendees)
	assert.Equal(t, ev.Recurrence.RRule, inc.Recurrence.RRule)
	require.Len(t, inc.Recurrence.ExDates, 1)
	assert.True(t, ev.Recurrence.ExDates[0].Equal(inc.Recurrence.ExDates[0]))
	assert.Equal(t, ev.Attachments, inc.Attachments)
}

func TestAllDayTodoRoundTrip(t *testing.T) {
	todo := kolab.NewTodo()
	todo.UID = "todo-1"
	todo.Start = kolab.NewDate(2013, time.October, 23)
	todo.Due = kolab.NewDate(2013, time.October, 25)
	todo.PercentComplete = 40
	todo.Status = "IN-PROCESS"
	todo.Attachments = []kolab.Attachment{{Data: []byte("inline"), MimeType: "text/plain", Label: "a.txt"}}

	doc, got := roundTrip(t, todo)
	assert.Contains(t, doc, "<vtodo>")
	assert.Contains(t, doc, "<date>2013-10-25</date>")
	assert.Contains(t, doc, "<binary>aW5saW5l</binary>")
	assert.Equal(t, todo, got)
}

func TestJournalRoundTrip(t *testing.T) {
	j := kolab.NewJournal()
	j.UID = "journal-1"
	j.Summary = "Diary"
	j.Start = kolab.NewDateTime(time.Date(2013, time.October, 23, 2, 0, 0, 0, time.UTC))
	_, got := roundTrip(t, j)
	assert.Equal(t, j, got)
}

func TestFreebusyRoundTrip(t *testing.T) {
	start := time.Date(2013, time.October, 23, 0, 0, 0, 0, time.UTC)
	fb := &kolab.Freebusy{
		UID:       "fb-1",
		Start:     kolab.NewDateTime(start),
		End:       kolab.NewDateTime(start.AddDate(0, 0, 1)),
		Timestamp: kolab.NewDateTime(start),
		Organizer: kolab.Person{Name: "Jane", Email: "jane@example.org"},
		Periods: []kolab.FreebusyPeriod{{
			Type:         kolab.FreebusyBusy,
			Periods:      []kolab.Period{{Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour)}},
			EventUID:     "event-1",
			EventSummary: "Planning",
		}},
	}
	doc, got := roundTrip(t, fb)
	assert.Contains(t, doc, "<start>2013-10-23T02:00:00Z</start>")
	assert.Contains(t, doc, "<end>2013-10-23T03:00:00Z</end>")
	assert.Contains(t, doc, "<fbtype>")
	assert.Equal(t, fb, got)
}

func TestContactRoundTrip(t *testing.T) {
	c := &kolab.Contact{
		UID:           "contact-1",
		LastModified:  kolab.NewDateTime(time.Date(2013, time.October, 2, 8, 0, 0, 0, time.UTC)),
		FormattedName: "Jane Doe",
		Name:          kolab.Name{Family: "Doe", Given: "Jane"},
		Emails:        []kolab.Email{{Address: "jane@example.org", Types: []string{"work"}}},
		Addresses:     []kolab.Address{{Street: "Main St 1", Locality: "Berlin", Country: "DE"}},
		Categories:    []string{"friends"},
		Birthday:      kolab.NewDate(1980, time.May, 17),
	}
	doc, got := roundTrip(t, c)
	assert.Contains(t, doc, `<vcards xmlns="urn:ietf:params:xml:ns:vcard-4.0">`)
	assert.Contains(t, doc, "<uri>urn:uuid:contact-1</uri>")
	assert.Contains(t, doc, "<surname>Doe</surname>")
	assert.Contains(t, doc, "<locality>Berlin</locality>")
	assert.Contains(t, doc, "<timestamp>20131002T080000Z</timestamp>")

	gc := got.(*kolab.Contact)
	assert.Equal(t, c.UID, gc.UID)
	assert.Equal(t, c.Name, gc.Name)
	assert.Equal(t, c.FormattedName, gc.FormattedName)
	assert.Equal(t, c.Emails[0].Address, gc.Emails[0].Address)
	assert.Equal(t, c.Addresses[0].Locality, gc.Addresses[0].Locality)
	assert.Equal(t, c.Categories, gc.Categories)
	assert.True(t, c.Birthday.Equal(gc.Birthday))
	assert.True(t, c.LastModified.Equal(gc.LastModified))
}

func TestDistListRoundTrip(t *testing.T) {
	d := &kolab.DistList{
		UID:  "list-1",
		Name: "Team",
		Members: []kolab.Person{
			{UID: "contact-1"},
			{Name: "Jane Doe", Email: "jane@example.org"},
		},
	}
	doc, got := roundTrip(t, d)
	assert.Contains(t, doc, "<text>group</text>")
	assert.Equal(t, d, got)
}

func TestNoteRoundTrip(t *testing.T) {
	n := &kolab.Note{
		UID:          "note-1",
		Created:      kolab.NewDateTime(time.Date(2013, time.October, 1, 8, 0, 0, 0, time.UTC)),
		LastModified: kolab.NewDateTime(time.Date(2013, time.October, 2, 8, 0, 0, 0, time.UTC)),
		Categories:   []string{"todo"},
		Summary:      "Shopping",
		Description:  `<p>Buy <b>milk</b></p><script>alert(1)</script>`,
		IsHTML:       true,
		Color:        "#ff0000",
	}
	c, ok := registry(t).Lookup(kolab.NoteObject, kolab.KolabV3)
	require.True(t, ok)
	sink := newSink()
	data := c.Write(n, codec.WriteOptions{ProductID: productID}, sink)
	require.NotNil(t, data, "write: %v", sink.Entries())
	doc := string(data)
	assert.Contains(t, doc, `<note xmlns="http://kolab.org" version="3.0">`)
	assert.Contains(t, doc, "<creation-date>2013-10-01T08:00:00Z</creation-date>")
	assert.NotContains(t, doc, "&lt;script")
	assert.NotContains(t, doc, "alert(1)")
	require.Equal(t, 1, sink.Len(), "write: %v", sink.Entries())
	assert.Equal(t, errsink.Debug, sink.Worst())
	assert.Contains(t, sink.Entries()[0].Message, "sanitized HTML body")

	sink.Clear()
	res := c.Read(data, true, sink)
	require.NotNil(t, res.Object, "read: %v", sink.Entries())
	assert.Equal(t, 0, sink.Len(), "read: %v", sink.Entries())
	gn := res.Object.(*kolab.Note)
	assert.True(t, gn.IsHTML)
	assert.Equal(t, "<p>Buy <b>milk</b></p>", gn.Description)
	assert.Equal(t, n.Summary, gn.Summary)
	assert.Equal(t, n.Color, gn.Color)
	assert.True(t, n.Created.Equal(gn.Created))
}

func TestDictionaryRoundTrip(t *testing.T) {
	d := &kolab.Dictionary{UID: "dict-1", Language: "de", Entries: []string{"Kolab", "Groupware"}}
	doc, got := roundTrip(t, d)
	assert.Contains(t, doc, "<type>dictionary</type>")
	assert.Contains(t, doc, "<e>Kolab</e>")
	assert.Equal(t, d, got)
}

func TestRelationRoundTrip(t *testing.T) {
	r := &kolab.Relation{
		UID:          "rel-1",
		Name:         "important",
		RelationType: "tag",
		Color:        "#00ff00",
		Priority:     1,
		Members:      []string{"urn:uuid:event-1", "imap:///user/jane%40example.org/INBOX/12"},
	}
	doc, got := roundTrip(t, r)
	assert.Contains(t, doc, "<relationType>tag</relationType>")
	assert.Equal(t, r, got)
}

func TestRelationsAreOptional(t *testing.T) {
	r := codec.NewRegistry()
	xml3.Register(r)
	_, ok := r.Lookup(kolab.RelationConfigurationObject, kolab.KolabV3)
	assert.False(t, ok)
	_, ok = r.Lookup(kolab.DictionaryConfigurationObject, kolab.KolabV3)
	assert.True(t, ok)
}

func TestReadErrors(t *testing.T) {
	r := registry(t)
	testCases := []struct {
		name string
		kind kolab.ObjectType
		data string
	}{
		{"not xml", kolab.EventObject, "<<<"},
		{"wrong root", kolab.EventObject, `<vcards><vcard/></vcards>`},
		{"missing component", kolab.TodoObject,
			`<icalendar><vcalendar><properties/><components><vevent/></components></vcalendar></icalendar>`},
		{"contact from group", kolab.ContactObject,
			`<vcards><vcard><kind><text>group</text></kind></vcard></vcards>`},
		{"dictionary from relation", kolab.DictionaryConfigurationObject,
			`<configuration><type>relation</type></configuration>`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, ok := r.Lookup(tc.kind, kolab.KolabV3)
			require.True(t, ok)
			sink := newSink()
			res := c.Read([]byte(tc.data), false, sink)
			assert.Nil(t, res.Object)
			assert.Equal(t, errsink.Error, sink.Worst())
		})
	}
}

func TestStrictRequiresUID(t *testing.T) {
	c, ok := registry(t).Lookup(kolab.NoteObject, kolab.KolabV3)
	require.True(t, ok)
	data := []byte(`<note xmlns="http://kolab.org" version="3.0"><summary>x</summary></note>`)

	sink := newSink()
	assert.NotNil(t, c.Read(data, false, sink).Object)
	assert.Equal(t, 0, sink.Len())

	assert.NotNil(t, c.Read(data, true, sink).Object)
	assert.Equal(t, errsink.Error, sink.Worst())
}

func TestWrongObjectKind(t *testing.T) {
	c, ok := registry(t).Lookup(kolab.EventObject, kolab.KolabV3)
	require.True(t, ok)
	sink := newSink()
	assert.Nil(t, c.Write(kolab.NewTodo(), codec.WriteOptions{}, sink))
	assert.Equal(t, errsink.Critical, sink.Worst())
}

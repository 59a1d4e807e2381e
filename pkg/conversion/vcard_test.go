package conversion_test

import (
	"testing"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolabformat/kolabformat/pkg/conversion"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

func TestContactRoundTrip(t *testing.T) {
	c := &kolab.Contact{
		UID:           "contact-1",
		LastModified:  kolab.NewDateTime(time.Date(2013, time.October, 2, 8, 0, 0, 0, time.UTC)),
		FormattedName: "Jane Doe",
		Name:          kolab.Name{Family: "Doe", Given: "Jane", Prefix: "Dr."},
		Nickname:      "JD",
		Emails: []kolab.Email{
			{Address: "jane@example.org", Types: []string{"work"}},
			{Address: "jane@home.example"},
		},
		Phones:       []kolab.Phone{{Number: "+49 30 1234", Types: []string{"cell"}}},
		Addresses:    []kolab.Address{{Types: []string{"home"}, Street: "Main St 1", Locality: "Berlin", Code: "10115", Country: "DE"}},
		Organization: "Example Corp",
		Title:        "Engineer",
		URLs:         []string{"https://example.org"},
		Note:         "met at the conference",
		Categories:   []string{"friends", "work"},
		Birthday:     kolab.NewDate(1980, time.May, 17),
		PhotoURI:     "https://example.org/jane.png",
	}

	card := conversion.ContactToCard(c)
	assert.Equal(t, "urn:uuid:contact-1", card.Get(vcard.FieldUID).Value)
	assert.Equal(t, "individual", card.Get(vcard.FieldKind).Value)
	assert.Equal(t, "Doe;Jane;;Dr.;", card.Get(vcard.FieldName).Value)

	sink := newSink()
	got := conversion.ContactFromCard(card, sink)
	require.NotNil(t, got)
	assert.Equal(t, 0, sink.Len())
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, c.Addresses[0].Street, got.Addresses[0].Street)
	assert.Equal(t, c.Addresses[0].Country, got.Addresses[0].Country)
	assert.Equal(t, "jane@example.org", got.PreferredEmail())
	assert.Equal(t, []string{"work"}, got.Emails[0].Types)
	assert.Equal(t, c.Categories, got.Categories)
	assert.True(t, c.Birthday.Equal(got.Birthday))
	assert.True(t, c.LastModified.Equal(got.LastModified))
	assert.Equal(t, c.URLs, got.URLs)
	assert.Equal(t, c.PhotoURI, got.PhotoURI)
}

func TestContactFromGroup(t *testing.T) {
	card := conversion.DistListToCard(&kolab.DistList{Name: "team"})
	sink := newSink()
	assert.Nil(t, conversion.ContactFromCard(card, sink))
	assert.Equal(t, errsink.Error, sink.Worst())
}

func TestDistListRoundTrip(t *testing.T) {
	d := &kolab.DistList{
		UID:  "list-1",
		Name: "Team",
		Members: []kolab.Person{
			{UID: "contact-1"},
			{Name: "Doe, Jane", Email: "jane@example.org"},
			{Email: "john@example.org"},
		},
	}
	card := conversion.DistListToCard(d)
	assert.Equal(t, "group", card.Get(vcard.FieldKind).Value)
	members := card[vcard.FieldMember]
	require.Len(t, members, 3)
	assert.Equal(t, "urn:uuid:contact-1", members[0].Value)
	assert.Equal(t, "mailto:john@example.org", members[2].Value)

	sink := newSink()
	got := conversion.DistListFromCard(card, sink)
	assert.Equal(t, 0, sink.Len())
	assert.Equal(t, d, got)
}

func TestDistListUnsupportedMember(t *testing.T) {
	card := conversion.DistListToCard(&kolab.DistList{UID: "list-1"})
	card[vcard.FieldMember] = []*vcard.Field{{Value: "https://example.org/someone"}}
	sink := newSink()
	got := conversion.DistListFromCard(card, sink)
	require.NotNil(t, got)
	assert.Empty(t, got.Members)
	assert.Equal(t, errsink.Warning, sink.Worst())
}

package conversion

import (
	"strings"
	"time"

	"github.com/emersion/go-vcard"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/stringutil"
)

const (
	paramType = "TYPE"
	uuidURN   = "urn:uuid:"

	kindIndividual = "individual"
	kindGroup      = "group"
)

func setField(card vcard.Card, name, value string) {
	if value == "" {
		return
	}
	card[name] = append(card[name], &vcard.Field{Value: value})
}

func addTyped(card vcard.Card, name, value string, types []string) {
	f := &vcard.Field{Value: value, Params: make(vcard.Params)}
	if len(types) > 0 {
		f.Params[paramType] = append([]string(nil), types...)
	}
	card[name] = append(card[name], f)
}

func fieldValue(card vcard.Card, name string) string {
	if f := card.Get(name); f != nil {
		return f.Value
	}
	return ""
}

func setRevision(card vcard.Card, dt kolab.DateTime) {
	if dt.IsZero() {
		return
	}
	setField(card, vcard.FieldRevision, FormatUTC(dt.UTC()))
}

func revision(card vcard.Card, sink *errsink.Sink) kolab.DateTime {
	v := fieldValue(card, vcard.FieldRevision)
	if v == "" {
		return kolab.DateTime{}
	}
	t, err := ParseUTC(v)
	if err != nil {
		sink.Warnf("invalid REV %q: %v", v, err)
		return kolab.DateTime{}
	}
	return kolab.NewDateTime(t)
}

// CardUID returns the UID of a card with any urn:uuid: prefix removed.
func CardUID(card vcard.Card) string {
	return strings.TrimPrefix(fieldValue(card, vcard.FieldUID), uuidURN)
}

// ContactToCard renders a contact as a vCard.
func ContactToCard(c *kolab.Contact) vcard.Card {
	card := make(vcard.Card)
	if c.UID != "" {
		setField(card, vcard.FieldUID, uuidURN+c.UID)
	}
	setRevision(card, c.LastModified)
	setField(card, vcard.FieldKind, kindIndividual)
	setField(card, vcard.FieldFormattedName, c.FormattedName)
	n := c.Name
	if n != (kolab.Name{}) {
		setField(card, vcard.FieldName, strings.Join([]string{
			n.Family, n.Given, n.Additional, n.Prefix, n.Suffix,
		}, ";"))
	}
	setField(card, vcard.FieldNickname, c.Nickname)
	if !c.Birthday.IsZero() {
		setField(card, vcard.FieldBirthday, c.Birthday.Time.Format(layoutDate))
	}
	setField(card, vcard.FieldOrganization, c.Organization)
	setField(card, vcard.FieldTitle, c.Title)
	setField(card, vcard.FieldNote, c.Note)
	if len(c.Categories) > 0 {
		setField(card, vcard.FieldCategories, strings.Join(c.Categories, ","))
	}
	for _, e := range c.Emails {
		addTyped(card, vcard.FieldEmail, e.Address, e.Types)
	}
	for _, p := range c.Phones {
		addTyped(card, vcard.FieldTelephone, p.Number, p.Types)
	}
	for _, a := range c.Addresses {
		addTyped(card, vcard.FieldAddress, strings.Join([]string{
			a.POBox, a.Extended, a.Street, a.Locality, a.Region, a.Code, a.Country,
		}, ";"), a.Types)
	}
	for _, u := range c.URLs {
		setField(card, vcard.FieldURL, u)
	}
	setField(card, vcard.FieldPhoto, c.PhotoURI)
	return card
}

// ContactFromCard is the inverse of ContactToCard.
func ContactFromCard(card vcard.Card, sink *errsink.Sink) *kolab.Contact {
	if kind := fieldValue(card, vcard.FieldKind); strings.EqualFold(kind, kindGroup) {
		sink.Errorf("vCard of kind %q is not a contact", kind)
		return nil
	}
	c := &kolab.Contact{
		UID:           CardUID(card),
		LastModified:  revision(card, sink),
		FormattedName: fieldValue(card, vcard.FieldFormattedName),
		Nickname:      fieldValue(card, vcard.FieldNickname),
		Organization:  strings.Split(fieldValue(card, vcard.FieldOrganization), ";")[0],
		Title:         fieldValue(card, vcard.FieldTitle),
		Note:          fieldValue(card, vcard.FieldNote),
		Categories:    card.Categories(),
		PhotoURI:      fieldValue(card, vcard.FieldPhoto),
	}
	if n := card.Name(); n != nil {
		c.Name = kolab.Name{
			Family:     n.FamilyName,
			Given:      n.GivenName,
			Additional: n.AdditionalName,
			Prefix:     n.HonorificPrefix,
			Suffix:     n.HonorificSuffix,
		}
	}
	if v := fieldValue(card, vcard.FieldBirthday); v != "" {
		t, err := time.Parse(layoutDate, strings.ReplaceAll(v, "-", ""))
		if err != nil {
			sink.Warnf("invalid BDAY %q: %v", v, err)
		} else {
			c.Birthday = kolab.DateTime{Time: t, DateOnly: true}
		}
	}
	for _, f := range card[vcard.FieldEmail] {
		c.Emails = append(c.Emails, kolab.Email{Address: f.Value, Types: f.Params.Types()})
	}
	for _, f := range card[vcard.FieldTelephone] {
		c.Phones = append(c.Phones, kolab.Phone{Number: f.Value, Types: f.Params.Types()})
	}
	for _, a := range card.Addresses() {
		c.Addresses = append(c.Addresses, kolab.Address{
			Types:    a.Params.Types(),
			POBox:    a.PostOfficeBox,
			Extended: a.ExtendedAddress,
			Street:   a.StreetAddress,
			Locality: a.Locality,
			Region:   a.Region,
			Code:     a.PostalCode,
			Country:  a.Country,
		})
	}
	for _, f := range card[vcard.FieldURL] {
		c.URLs = append(c.URLs, f.Value)
	}
	return c
}

// DistListToCard renders a distribution list as a vCard of kind group. Members with a UID are
// referenced by urn:uuid:, the others by a mailto: URI.
func DistListToCard(d *kolab.DistList) vcard.Card {
	card := make(vcard.Card)
	if d.UID != "" {
		setField(card, vcard.FieldUID, uuidURN+d.UID)
	}
	setRevision(card, d.LastModified)
	setField(card, vcard.FieldKind, kindGroup)
	setField(card, vcard.FieldFormattedName, d.Name)
	for _, m := range d.Members {
		if m.UID != "" {
			setField(card, vcard.FieldMember, uuidURN+m.UID)
			continue
		}
		setField(card, vcard.FieldMember, stringutil.MailtoAddress(m.Name, m.Email))
	}
	return card
}

// DistListFromCard is the inverse of DistListToCard.
func DistListFromCard(card vcard.Card, sink *errsink.Sink) *kolab.DistList {
	if kind := fieldValue(card, vcard.FieldKind); !strings.EqualFold(kind, kindGroup) {
		sink.Errorf("vCard of kind %q is not a distribution list", kind)
		return nil
	}
	d := &kolab.DistList{
		UID:          CardUID(card),
		LastModified: revision(card, sink),
		Name:         fieldValue(card, vcard.FieldFormattedName),
	}
	for _, f := range card[vcard.FieldMember] {
		switch {
		case strings.HasPrefix(f.Value, uuidURN):
			d.Members = append(d.Members, kolab.Person{UID: strings.TrimPrefix(f.Value, uuidURN)})
		case strings.HasPrefix(strings.ToLower(f.Value), "mailto:"):
			name, email := stringutil.ParseMailtoAddress(f.Value)
			d.Members = append(d.Members, kolab.Person{Name: name, Email: email})
		default:
			sink.Warnf("unsupported distribution list member %q", f.Value)
		}
	}
	return d
}

package kolab

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Attachment content-ids of V3 objects use this domain.
const CIDDomain = "kolab.resource.akonadi"

// Attachment is a file attached to an incidence or note. Data holds the decoded payload when the
// attachment is stored inline, URI the reference otherwise.
type Attachment struct {
	URI      string
	Data     []byte
	MimeType string
	Label    string
}

// HasData reports whether the payload is available locally.
func (a Attachment) HasData() bool {
	return len(a.Data) > 0
}

// IsCID reports whether the attachment references a MIME part by content-id.
func (a Attachment) IsCID() bool {
	return strings.HasPrefix(a.URI, "cid:")
}

// ContentID returns the content-id referenced by a cid: URI, or "".
func (a Attachment) ContentID() string {
	if !a.IsCID() {
		return ""
	}
	return strings.TrimPrefix(a.URI, "cid:")
}

// NewCID returns a fresh cid: URI.
func NewCID() string {
	return "cid:" + strings.ReplaceAll(uuid.NewString(), "-", "") + "@" + CIDDomain
}

// Attendee is an invited participant.
type Attendee struct {
	Person
	Role     string
	PartStat string
	RSVP     bool
}

// Recurrence describes the repetition of an incidence. RRule holds an RFC 5545 rule without the
// "RRULE:" prefix.
type Recurrence struct {
	RRule   string
	RDates  []DateTime
	ExDates []DateTime
}

// IsEmpty reports whether the incidence does not recur.
func (r Recurrence) IsEmpty() bool {
	return r.RRule == "" && len(r.RDates) == 0
}

// Incidence is an event, todo or journal. Kind selects which of the kind-specific fields apply.
type Incidence struct {
	Kind ObjectType

	UID            string
	Created        DateTime
	LastModified   DateTime
	Sequence       int
	Classification string
	Categories     []string
	Summary        string
	Description    string
	Location       string
	Status         string
	Priority       int
	Start          DateTime
	Organizer      Person
	Attendees      []Attendee
	Recurrence     Recurrence
	RecurrenceID   DateTime
	Attachments    []Attachment

	// Event
	End         DateTime
	Transparent bool

	// Todo
	Due             DateTime
	PercentComplete int
	Completed       DateTime
}

var _ Object = &Incidence{}

// NewEvent returns an empty event.
func NewEvent() *Incidence { return &Incidence{Kind: EventObject} }

// NewTodo returns an empty todo.
func NewTodo() *Incidence { return &Incidence{Kind: TodoObject} }

// NewJournal returns an empty journal.
func NewJournal() *Incidence { return &Incidence{Kind: JournalObject} }

// Type implements Object.
func (i *Incidence) Type() ObjectType { return i.Kind }

// Recurs reports whether the incidence repeats.
func (i *Incidence) Recurs() bool { return !i.Recurrence.IsEmpty() }

// HasRecurrenceID reports whether the incidence is an exception to a recurring series.
func (i *Incidence) HasRecurrenceID() bool { return !i.RecurrenceID.IsZero() }

// EffectiveEnd returns End, or Start when the event has no end.
func (i *Incidence) EffectiveEnd() DateTime {
	if i.End.IsZero() {
		return i.Start
	}
	return i.End
}

// Clone returns a deep copy.
func (i *Incidence) Clone() *Incidence {
	c := *i
	c.Categories = append([]string(nil), i.Categories...)
	c.Attendees = append([]Attendee(nil), i.Attendees...)
	c.Recurrence.RDates = append([]DateTime(nil), i.Recurrence.RDates...)
	c.Recurrence.ExDates = append([]DateTime(nil), i.Recurrence.ExDates...)
	c.Attachments = make([]Attachment, len(i.Attachments))
	for n, a := range i.Attachments {
		a.Data = append([]byte(nil), a.Data...)
		c.Attachments[n] = a
	}
	if i.Attachments == nil {
		c.Attachments = nil
	}
	return &c
}

// Touch sets LastModified to now, and Created too if unset.
func (i *Incidence) Touch(now time.Time) {
	i.LastModified = NewDateTime(now.UTC().Truncate(time.Second))
	if i.Created.IsZero() {
		i.Created = i.LastModified
	}
}

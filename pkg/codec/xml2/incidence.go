package xml2

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

type attendeeXML struct {
	personXML
	Status          string `xml:"status,omitempty"`
	RequestResponse string `xml:"request-response,omitempty"`
	Role            string `xml:"role,omitempty"`
}

type incidenceXML struct {
	Version      string         `xml:"version,attr"`
	ProductID    string         `xml:"product-id,omitempty"`
	UID          string         `xml:"uid"`
	Created      string         `xml:"creation-date,omitempty"`
	LastModified string         `xml:"last-modification-date,omitempty"`
	Sensitivity  string         `xml:"sensitivity,omitempty"`
	Categories   string         `xml:"categories,omitempty"`
	Start        string         `xml:"start-date,omitempty"`
	Summary      string         `xml:"summary,omitempty"`
	Body         string         `xml:"body,omitempty"`
	Location     string         `xml:"location,omitempty"`
	Revision     int            `xml:"revision,omitempty"`
	Organizer    *personXML     `xml:"organizer"`
	Attendees    []attendeeXML  `xml:"attendee"`
	Recurrence   *recurrenceXML `xml:"recurrence"`
	Inline       []string       `xml:"inline-attachment"`
	Links        []string       `xml:"link-attachment"`
}

type eventXML struct {
	XMLName xml.Name `xml:"event"`
	incidenceXML
	ShowTimeAs string `xml:"show-time-as,omitempty"`
	End        string `xml:"end-date,omitempty"`
}

type taskXML struct {
	XMLName xml.Name `xml:"task"`
	incidenceXML
	Priority  int    `xml:"priority,omitempty"`
	Completed int    `xml:"completed"`
	Status    string `xml:"status,omitempty"`
	Due       string `xml:"due-date,omitempty"`
}

type journalXML struct {
	XMLName xml.Name `xml:"journal"`
	incidenceXML
}

var (
	partStats = map[string]string{
		"NEEDS-ACTION": "none",
		"TENTATIVE":    "tentative",
		"ACCEPTED":     "accepted",
		"DECLINED":     "declined",
		"DELEGATED":    "delegated",
	}
	roles = map[string]string{
		"REQ-PARTICIPANT": "required",
		"OPT-PARTICIPANT": "optional",
		"NON-PARTICIPANT": "resource",
	}
	taskStatuses = map[string]string{
		"NEEDS-ACTION": "not-started",
		"IN-PROCESS":   "in-progress",
		"COMPLETED":    "completed",
		"CANCELLED":    "deferred",
	}
)

func lookup(m map[string]string, key string) string {
	return m[strings.ToUpper(key)]
}

func reverse(m map[string]string, value string) string {
	for k, v := range m {
		if strings.EqualFold(v, value) {
			return k
		}
	}
	return ""
}

func newIncidenceXML(inc *kolab.Incidence, productID string, loc *time.Location, sink *errsink.Sink) incidenceXML {
	x := incidenceXML{
		Version:      formatVersion,
		ProductID:    productID,
		UID:          inc.UID,
		Created:      formatDateTime(inc.Created, loc),
		LastModified: formatDateTime(inc.LastModified, loc),
		Sensitivity:  sensitivity(inc.Classification),
		Categories:   strings.Join(inc.Categories, ","),
		Start:        formatDateTime(inc.Start, loc),
		Summary:      inc.Summary,
		Body:         inc.Description,
		Location:     inc.Location,
		Revision:     inc.Sequence,
		Organizer:    newPersonXML(inc.Organizer),
		Recurrence:   recurrenceToXML(inc.Recurrence, inc.Start, sink),
	}
	for _, a := range inc.Attendees {
		ax := attendeeXML{
			personXML: personXML{DisplayName: a.Name, SMTPAddress: a.Email},
			Status:    lookup(partStats, a.PartStat),
			Role:      lookup(roles, a.Role),
		}
		if a.RSVP {
			ax.RequestResponse = "true"
		}
		x.Attendees = append(x.Attendees, ax)
	}
	for _, a := range inc.Attachments {
		switch {
		case a.HasData():
			x.Inline = append(x.Inline, a.Label)
		case a.URI != "":
			x.Links = append(x.Links, a.URI)
		}
	}
	if !inc.RecurrenceID.IsZero() {
		sink.Warnf("recurrence-id of %q cannot be stored in the legacy format", inc.UID)
	}
	return x
}

// readIncidenceXML fills the shared incidence fields. Inline attachments are returned by name;
// the caller resolves them against the MIME parts.
func readIncidenceXML(x *incidenceXML, inc *kolab.Incidence, sink *errsink.Sink) []string {
	inc.UID = x.UID
	inc.Created = parseDateTime("creation-date", x.Created, sink)
	inc.LastModified = parseDateTime("last-modification-date", x.LastModified, sink)
	inc.Classification = classification(x.Sensitivity)
	inc.Categories = splitList(x.Categories)
	inc.Start = parseDateTime("start-date", x.Start, sink)
	inc.Summary = x.Summary
	inc.Description = x.Body
	inc.Location = x.Location
	inc.Sequence = x.Revision
	inc.Organizer = x.Organizer.person()
	for _, a := range x.Attendees {
		inc.Attendees = append(inc.Attendees, kolab.Attendee{
			Person:   a.person(),
			PartStat: reverse(partStats, a.Status),
			Role:     reverse(roles, a.Role),
			RSVP:     strings.EqualFold(a.RequestResponse, "true"),
		})
	}
	inc.Recurrence = recurrenceFromXML(x.Recurrence, sink)
	for _, l := range x.Links {
		inc.Attachments = append(inc.Attachments, kolab.Attachment{URI: strings.TrimSpace(l)})
	}
	var names []string
	for _, n := range x.Inline {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func incidenceOf(obj kolab.Object, t kolab.ObjectType, sink *errsink.Sink) *kolab.Incidence {
	inc, ok := obj.(*kolab.Incidence)
	if !ok || inc.Kind != t {
		sink.Criticalf("cannot write %T as %v", obj, t)
		return nil
	}
	return inc
}

var eventCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		var x eventXML
		if !unmarshal(data, &x, "event", sink) {
			return codec.Result{}
		}
		inc := kolab.NewEvent()
		names := readIncidenceXML(&x.incidenceXML, inc, sink)
		inc.End = parseDateTime("end-date", x.End, sink)
		inc.Transparent = x.ShowTimeAs == "free"
		requireUID(inc.UID, strict, sink)
		return codec.Result{Object: inc, AttachmentNames: names}
	},
	WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
		inc := incidenceOf(obj, kolab.EventObject, sink)
		if inc == nil {
			return nil
		}
		loc := location(opts.Timezone, sink)
		x := eventXML{
			incidenceXML: newIncidenceXML(inc, opts.ProductID, loc, sink),
			End:          formatDateTime(inc.End, loc),
			ShowTimeAs:   "busy",
		}
		if inc.Transparent {
			x.ShowTimeAs = "free"
		}
		return marshal(x, "event", sink)
	},
}

var taskCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		var x taskXML
		if !unmarshal(data, &x, "task", sink) {
			return codec.Result{}
		}
		inc := kolab.NewTodo()
		names := readIncidenceXML(&x.incidenceXML, inc, sink)
		inc.Due = parseDateTime("due-date", x.Due, sink)
		inc.PercentComplete = x.Completed
		inc.Status = reverse(taskStatuses, x.Status)
		if x.Status == "waiting-on-someone-else" {
			inc.Status = "NEEDS-ACTION"
		}
		if x.Priority > 0 {
			// Legacy priorities run 1..5, iCalendar ones 1..9.
			inc.Priority = x.Priority*2 - 1
		}
		requireUID(inc.UID, strict, sink)
		return codec.Result{Object: inc, AttachmentNames: names}
	},
	WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
		inc := incidenceOf(obj, kolab.TodoObject, sink)
		if inc == nil {
			return nil
		}
		loc := location(opts.Timezone, sink)
		x := taskXML{
			incidenceXML: newIncidenceXML(inc, opts.ProductID, loc, sink),
			Completed:    inc.PercentComplete,
			Status:       lookup(taskStatuses, inc.Status),
			Due:          formatDateTime(inc.Due, loc),
		}
		if inc.Priority > 0 {
			x.Priority = (inc.Priority + 1) / 2
		}
		if !inc.Completed.IsZero() {
			sink.Debugf("completion date of %q is not stored in the legacy format", inc.UID)
		}
		return marshal(x, "task", sink)
	},
}

var journalCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		var x journalXML
		if !unmarshal(data, &x, "journal", sink) {
			return codec.Result{}
		}
		inc := kolab.NewJournal()
		names := readIncidenceXML(&x.incidenceXML, inc, sink)
		requireUID(inc.UID, strict, sink)
		return codec.Result{Object: inc, AttachmentNames: names}
	},
	WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
		inc := incidenceOf(obj, kolab.JournalObject, sink)
		if inc == nil {
			return nil
		}
		x := journalXML{
			incidenceXML: newIncidenceXML(inc, opts.ProductID, location(opts.Timezone, sink), sink),
		}
		return marshal(x, "journal", sink)
	},
}

func requireUID(uid string, strict bool, sink *errsink.Sink) {
	if uid == "" && strict {
		sink.Errorf("object without uid")
	}
}

package conversion

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/stringutil"
)

// Component names.
const (
	CompCalendar = "VCALENDAR"
	CompEvent    = "VEVENT"
	CompTodo     = "VTODO"
	CompJournal  = "VJOURNAL"
	CompFreebusy = "VFREEBUSY"
)

// Property names beyond those go-ical exports.
const (
	propSequence        = "SEQUENCE"
	propClass           = "CLASS"
	propCategories      = "CATEGORIES"
	propPriority        = "PRIORITY"
	propTransp          = "TRANSP"
	propDue             = "DUE"
	propPercentComplete = "PERCENT-COMPLETE"
	propCompleted       = "COMPLETED"
	propRRule           = "RRULE"
	propRDate           = "RDATE"
	propExDate          = "EXDATE"
	propRecurrenceID    = "RECURRENCE-ID"
	propAttach          = "ATTACH"
	propFreebusy        = "FREEBUSY"
	propDTStamp         = "DTSTAMP"

	paramRole     = "ROLE"
	paramPartStat = "PARTSTAT"
	paramRSVP     = "RSVP"
	paramFBType   = "FBTYPE"
	paramXUID     = "X-UID"
	paramXSummary = "X-SUMMARY"
	paramXLoc     = "X-LOCATION"
)

// ComponentName returns the iCalendar component of an incidence kind, or "".
func ComponentName(t kolab.ObjectType) string {
	switch t {
	case kolab.EventObject:
		return CompEvent
	case kolab.TodoObject:
		return CompTodo
	case kolab.JournalObject:
		return CompJournal
	case kolab.FreebusyObject:
		return CompFreebusy
	}
	return ""
}

// ComponentKind is the inverse of ComponentName.
func ComponentKind(name string) kolab.ObjectType {
	switch strings.ToUpper(name) {
	case CompEvent:
		return kolab.EventObject
	case CompTodo:
		return kolab.TodoObject
	case CompJournal:
		return kolab.JournalObject
	case CompFreebusy:
		return kolab.FreebusyObject
	}
	return kolab.InvalidObject
}

// NewComponent returns an empty component.
func NewComponent(name string) *ical.Component {
	return &ical.Component{Name: name, Props: make(ical.Props)}
}

func setText(c *ical.Component, name, value string) {
	if value == "" {
		return
	}
	p := newProp(name)
	p.Value = EscapeText(value)
	addProp(c, p)
}

func getText(c *ical.Component, name string) string {
	p := c.Props.Get(name)
	if p == nil {
		return ""
	}
	return UnescapeText(p.Value)
}

func setInt(c *ical.Component, name string, v int) {
	p := newProp(name)
	p.Value = strconv.Itoa(v)
	addProp(c, p)
}

func getInt(c *ical.Component, name string, sink *errsink.Sink) int {
	p := c.Props.Get(name)
	if p == nil {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(p.Value))
	if err != nil {
		sink.Warnf("invalid %s value %q", name, p.Value)
		return 0
	}
	return v
}

func personProp(name string, person kolab.Person) *ical.Prop {
	p := newProp(name)
	p.Value = stringutil.Mailto(person.Email)
	if person.Name != "" {
		p.Params[paramCN] = []string{person.Name}
	}
	return p
}

func getPerson(p *ical.Prop) kolab.Person {
	return kolab.Person{
		Name:  p.Params.Get(paramCN),
		Email: stringutil.StripMailto(p.Value),
	}
}

// IncidenceToComponent renders an event, todo or journal as its iCalendar component.
func IncidenceToComponent(inc *kolab.Incidence) *ical.Component {
	c := NewComponent(ComponentName(inc.Kind))
	setText(c, ical.PropUID, inc.UID)
	if !inc.Created.IsZero() {
		p := newProp(ical.PropCreated)
		p.Value = FormatUTC(inc.Created.UTC())
		addProp(c, p)
	}
	if !inc.LastModified.IsZero() {
		p := newProp(propDTStamp)
		p.Value = FormatUTC(inc.LastModified.UTC())
		addProp(c, p)
	}
	setInt(c, propSequence, inc.Sequence)
	setText(c, propClass, inc.Classification)
	for _, cat := range inc.Categories {
		setText(c, propCategories, cat)
	}
	setDateTime(c, ical.PropDateTimeStart, inc.Start)
	switch inc.Kind {
	case kolab.EventObject:
		end := inc.End
		if end.DateOnly && !end.IsZero() {
			// DTEND of an all-day event is exclusive.
			end.Time = end.Time.AddDate(0, 0, 1)
		}
		setDateTime(c, ical.PropDateTimeEnd, end)
	case kolab.TodoObject:
		setDateTime(c, propDue, inc.Due)
	}
	if inc.Recurrence.RRule != "" {
		p := newProp(propRRule)
		p.Value = inc.Recurrence.RRule
		addProp(c, p)
	}
	for _, dt := range inc.Recurrence.RDates {
		setDateTime(c, propRDate, dt)
	}
	for _, dt := range inc.Recurrence.ExDates {
		setDateTime(c, propExDate, dt)
	}
	setDateTime(c, propRecurrenceID, inc.RecurrenceID)
	setText(c, ical.PropSummary, inc.Summary)
	setText(c, ical.PropDescription, inc.Description)
	if inc.Priority != 0 {
		setInt(c, propPriority, inc.Priority)
	}
	setText(c, ical.PropStatus, inc.Status)
	if inc.Kind == kolab.TodoObject {
		if inc.PercentComplete != 0 {
			setInt(c, propPercentComplete, inc.PercentComplete)
		}
		if !inc.Completed.IsZero() {
			p := newProp(propCompleted)
			p.Value = FormatUTC(inc.Completed.UTC())
			addProp(c, p)
		}
	}
	setText(c, ical.PropLocation, inc.Location)
	if inc.Kind == kolab.EventObject {
		p := newProp(propTransp)
		p.Value = "OPAQUE"
		if inc.Transparent {
			p.Value = "TRANSPARENT"
		}
		addProp(c, p)
	}
	if !inc.Organizer.IsEmpty() {
		addProp(c, personProp(ical.PropOrganizer, inc.Organizer))
	}
	for _, a := range inc.Attendees {
		p := personProp(ical.PropAttendee, a.Person)
		if a.Role != "" {
			p.Params[paramRole] = []string{a.Role}
		}
		if a.PartStat != "" {
			p.Params[paramPartStat] = []string{a.PartStat}
		}
		if a.RSVP {
			p.Params[paramRSVP] = []string{"TRUE"}
		}
		addProp(c, p)
	}
	for _, a := range inc.Attachments {
		addProp(c, AttachmentProp(a))
	}
	return c
}

// AttachmentProp renders an attachment as an ATTACH property, inline when it carries data and
// no URI.
func AttachmentProp(a kolab.Attachment) *ical.Prop {
	p := newProp(propAttach)
	if a.MimeType != "" {
		p.Params[paramFmtType] = []string{a.MimeType}
	}
	if a.Label != "" {
		p.Params[paramLabel] = []string{a.Label}
	}
	if a.URI == "" && a.HasData() {
		p.Params[paramEncoding] = []string{"BASE64"}
		p.Params[paramValue] = []string{"BINARY"}
		p.Value = base64.StdEncoding.EncodeToString(a.Data)
		return p
	}
	p.Value = a.URI
	return p
}

// AttachmentFromProp is the inverse of AttachmentProp.
func AttachmentFromProp(p *ical.Prop, sink *errsink.Sink) kolab.Attachment {
	a := kolab.Attachment{
		MimeType: p.Params.Get(paramFmtType),
		Label:    p.Params.Get(paramLabel),
	}
	if strings.EqualFold(p.Params.Get(paramEncoding), "BASE64") ||
		strings.EqualFold(p.Params.Get(paramValue), "BINARY") {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(p.Value))
		if err != nil {
			sink.Errorf("invalid inline attachment %q: %v", a.Label, err)
			return a
		}
		a.Data = data
		return a
	}
	a.URI = strings.TrimSpace(p.Value)
	return a
}

// IncidenceFromComponent is the inverse of IncidenceToComponent.
func IncidenceFromComponent(c *ical.Component, sink *errsink.Sink) *kolab.Incidence {
	inc := &kolab.Incidence{Kind: ComponentKind(c.Name)}
	if inc.Kind == kolab.InvalidObject || inc.Kind == kolab.FreebusyObject {
		sink.Errorf("component %s is not an incidence", c.Name)
		return nil
	}
	inc.UID = getText(c, ical.PropUID)
	inc.Created = getDateTime(c, ical.PropCreated, sink)
	inc.LastModified = getDateTime(c, ical.PropLastModified, sink)
	if inc.LastModified.IsZero() {
		inc.LastModified = getDateTime(c, propDTStamp, sink)
	}
	inc.Sequence = getInt(c, propSequence, sink)
	inc.Classification = getText(c, propClass)
	for _, p := range c.Props[propCategories] {
		inc.Categories = append(inc.Categories, SplitText(p.Value)...)
	}
	inc.Start = getDateTime(c, ical.PropDateTimeStart, sink)
	switch inc.Kind {
	case kolab.EventObject:
		inc.End = getDateTime(c, ical.PropDateTimeEnd, sink)
		if inc.End.DateOnly {
			inc.End.Time = inc.End.Time.AddDate(0, 0, -1)
		}
		inc.Transparent = strings.EqualFold(getText(c, propTransp), "TRANSPARENT")
	case kolab.TodoObject:
		inc.Due = getDateTime(c, propDue, sink)
		inc.PercentComplete = getInt(c, propPercentComplete, sink)
		inc.Completed = getDateTime(c, propCompleted, sink)
	}
	if p := c.Props.Get(propRRule); p != nil {
		inc.Recurrence.RRule = strings.TrimSpace(p.Value)
	}
	inc.Recurrence.RDates = getDateTimes(c, propRDate, sink)
	inc.Recurrence.ExDates = getDateTimes(c, propExDate, sink)
	inc.RecurrenceID = getDateTime(c, propRecurrenceID, sink)
	inc.Summary = getText(c, ical.PropSummary)
	inc.Description = getText(c, ical.PropDescription)
	inc.Priority = getInt(c, propPriority, sink)
	inc.Status = getText(c, ical.PropStatus)
	inc.Location = getText(c, ical.PropLocation)
	if p := c.Props.Get(ical.PropOrganizer); p != nil {
		inc.Organizer = getPerson(p)
	}
	for i := range c.Props[ical.PropAttendee] {
		p := &c.Props[ical.PropAttendee][i]
		inc.Attendees = append(inc.Attendees, kolab.Attendee{
			Person:   getPerson(p),
			Role:     p.Params.Get(paramRole),
			PartStat: p.Params.Get(paramPartStat),
			RSVP:     strings.EqualFold(p.Params.Get(paramRSVP), "TRUE"),
		})
	}
	for i := range c.Props[propAttach] {
		inc.Attachments = append(inc.Attachments, AttachmentFromProp(&c.Props[propAttach][i], sink))
	}
	return inc
}

// FreebusyToComponent renders a free/busy report as a VFREEBUSY. With simple set, the event
// metadata of each period is omitted.
func FreebusyToComponent(fb *kolab.Freebusy, simple bool) *ical.Component {
	c := NewComponent(CompFreebusy)
	setText(c, ical.PropUID, fb.UID)
	if !fb.Start.IsZero() {
		p := newProp(ical.PropDateTimeStart)
		p.Value = FormatUTC(fb.Start.UTC())
		addProp(c, p)
	}
	if !fb.End.IsZero() {
		p := newProp(ical.PropDateTimeEnd)
		p.Value = FormatUTC(fb.End.UTC())
		addProp(c, p)
	}
	if !fb.Timestamp.IsZero() {
		p := newProp(propDTStamp)
		p.Value = FormatUTC(fb.Timestamp.UTC())
		addProp(c, p)
	}
	if !fb.Organizer.IsEmpty() {
		addProp(c, personProp(ical.PropOrganizer, fb.Organizer))
	}
	for _, fp := range fb.Periods {
		if len(fp.Periods) == 0 {
			continue
		}
		p := newProp(propFreebusy)
		p.Params[paramFBType] = []string{fp.Type.FBType()}
		if !simple {
			if fp.EventUID != "" {
				p.Params[paramXUID] = []string{fp.EventUID}
			}
			if fp.EventSummary != "" {
				p.Params[paramXSummary] = []string{fp.EventSummary}
			}
			if fp.EventLocation != "" {
				p.Params[paramXLoc] = []string{fp.EventLocation}
			}
		}
		values := make([]string, len(fp.Periods))
		for i, period := range fp.Periods {
			values[i] = FormatUTC(period.Start) + "/" + FormatUTC(period.End)
		}
		p.Value = strings.Join(values, ",")
		addProp(c, p)
	}
	return c
}

// FreebusyFromComponent is the inverse of FreebusyToComponent.
func FreebusyFromComponent(c *ical.Component, sink *errsink.Sink) *kolab.Freebusy {
	if !strings.EqualFold(c.Name, CompFreebusy) {
		sink.Errorf("component %s is not a free/busy report", c.Name)
		return nil
	}
	fb := &kolab.Freebusy{
		UID:       getText(c, ical.PropUID),
		Start:     getDateTime(c, ical.PropDateTimeStart, sink),
		End:       getDateTime(c, ical.PropDateTimeEnd, sink),
		Timestamp: getDateTime(c, propDTStamp, sink),
	}
	if p := c.Props.Get(ical.PropOrganizer); p != nil {
		fb.Organizer = getPerson(p)
	}
	for _, p := range c.Props[propFreebusy] {
		fp := kolab.FreebusyPeriod{
			Type:          kolab.ParseFBType(strings.ToUpper(p.Params.Get(paramFBType))),
			EventUID:      p.Params.Get(paramXUID),
			EventSummary:  p.Params.Get(paramXSummary),
			EventLocation: p.Params.Get(paramXLoc),
		}
		for _, v := range strings.Split(p.Value, ",") {
			period, ok := parsePeriod(v, sink)
			if ok {
				fp.Periods = append(fp.Periods, period)
			}
		}
		fb.Periods = append(fb.Periods, fp)
	}
	return fb
}

func parsePeriod(v string, sink *errsink.Sink) (kolab.Period, bool) {
	start, end, ok := strings.Cut(strings.TrimSpace(v), "/")
	if !ok {
		sink.Errorf("invalid period %q", v)
		return kolab.Period{}, false
	}
	s, err := ParseUTC(start)
	if err != nil {
		sink.Errorf("invalid period start %q: %v", start, err)
		return kolab.Period{}, false
	}
	if strings.HasPrefix(end, "P") || strings.HasPrefix(end, "+P") {
		d, err := parseDuration(strings.TrimPrefix(end, "+"))
		if err != nil {
			sink.Errorf("invalid period duration %q: %v", end, err)
			return kolab.Period{}, false
		}
		return kolab.Period{Start: s, End: s.Add(d)}, true
	}
	e, err := ParseUTC(end)
	if err != nil {
		sink.Errorf("invalid period end %q: %v", end, err)
		return kolab.Period{}, false
	}
	return kolab.Period{Start: s, End: e}, true
}

// parseDuration parses the RFC 5545 DURATION forms PnW and PnDTnHnMnS.
func parseDuration(s string) (time.Duration, error) {
	if !strings.HasPrefix(s, "P") {
		return 0, strconv.ErrSyntax
	}
	var (
		d      time.Duration
		n      int
		inTime bool
		digits bool
	)
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int(r-'0')
			digits = true
			continue
		case r == 'T':
			inTime = true
			continue
		}
		if !digits {
			return 0, strconv.ErrSyntax
		}
		switch {
		case r == 'W':
			d += time.Duration(n) * 7 * 24 * time.Hour
		case r == 'D':
			d += time.Duration(n) * 24 * time.Hour
		case r == 'H' && inTime:
			d += time.Duration(n) * time.Hour
		case r == 'M' && inTime:
			d += time.Duration(n) * time.Minute
		case r == 'S' && inTime:
			d += time.Duration(n) * time.Second
		default:
			return 0, strconv.ErrSyntax
		}
		n, digits = 0, false
	}
	if digits {
		return 0, strconv.ErrSyntax
	}
	return d, nil
}

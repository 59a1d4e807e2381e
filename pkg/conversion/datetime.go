// Package conversion maps the Kolab domain model onto iCalendar components and vCards.
package conversion

import (
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

const (
	paramValue    = "VALUE"
	paramTZID     = "TZID"
	paramCN       = "CN"
	paramEncoding = "ENCODING"
	paramFmtType  = "FMTTYPE"
	paramLabel    = "X-LABEL"

	layoutDate      = "20060102"
	layoutLocal     = "20060102T150405"
	layoutUTC       = "20060102T150405Z"
	kolabZonePrefix = "/kolab.org/"
)

// ParseDateTime parses an iCalendar DATE or DATE-TIME value. A TZID naming an unknown zone is a
// Warning; the value is then read as floating time.
func ParseDateTime(value string, params ical.Params, sink *errsink.Sink) (kolab.DateTime, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return kolab.DateTime{}, false
	}
	if len(value) == len(layoutDate) {
		t, err := time.ParseInLocation(layoutDate, value, time.UTC)
		if err != nil {
			sink.Errorf("invalid date %q: %v", value, err)
			return kolab.DateTime{}, false
		}
		return kolab.DateTime{Time: t, DateOnly: true}, true
	}
	if strings.HasSuffix(value, "Z") {
		t, err := time.ParseInLocation(layoutUTC, value, time.UTC)
		if err != nil {
			sink.Errorf("invalid date-time %q: %v", value, err)
			return kolab.DateTime{}, false
		}
		return kolab.DateTime{Time: t}, true
	}
	t, err := time.ParseInLocation(layoutLocal, value, time.UTC)
	if err != nil {
		sink.Errorf("invalid date-time %q: %v", value, err)
		return kolab.DateTime{}, false
	}
	tzid := params.Get(paramTZID)
	if tzid == "" {
		return kolab.DateTime{Time: t, Floating: true}, true
	}
	loc, ok := LoadZone(tzid)
	if !ok {
		sink.Warnf("unknown timezone %q, reading %s as floating time", tzid, value)
		return kolab.DateTime{Time: t, Floating: true}, true
	}
	return kolab.DateTime{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(),
		t.Second(), 0, loc)}, true
}

// LoadZone resolves an Olson zone name, accepting the Kolab "/kolab.org/" prefix.
func LoadZone(tzid string) (*time.Location, bool) {
	name := strings.TrimPrefix(tzid, kolabZonePrefix)
	if name == "" {
		return nil, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, false
	}
	return loc, true
}

// FormatDateTime renders dt as an iCalendar value and sets the matching VALUE or TZID parameter
// on params.
func FormatDateTime(dt kolab.DateTime, params ical.Params) string {
	switch {
	case dt.DateOnly:
		params[paramValue] = []string{"DATE"}
		return dt.Time.Format(layoutDate)
	case dt.Floating:
		return dt.Time.Format(layoutLocal)
	}
	loc := dt.Time.Location()
	if loc == time.UTC || loc == time.Local || loc.String() == "" {
		return dt.Time.UTC().Format(layoutUTC)
	}
	params[paramTZID] = []string{loc.String()}
	return dt.Time.Format(layoutLocal)
}

// FormatUTC renders t as a UTC DATE-TIME value.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(layoutUTC)
}

// ParseUTC parses a UTC DATE-TIME value.
func ParseUTC(value string) (time.Time, error) {
	return time.ParseInLocation(layoutUTC, strings.TrimSpace(value), time.UTC)
}

func newProp(name string) *ical.Prop {
	return &ical.Prop{Name: name, Params: make(ical.Params)}
}

func addProp(c *ical.Component, p *ical.Prop) {
	c.Props[p.Name] = append(c.Props[p.Name], *p)
}

func setDateTime(c *ical.Component, name string, dt kolab.DateTime) {
	if dt.IsZero() {
		return
	}
	p := newProp(name)
	p.Value = FormatDateTime(dt, p.Params)
	addProp(c, p)
}

func getDateTime(c *ical.Component, name string, sink *errsink.Sink) kolab.DateTime {
	p := c.Props.Get(name)
	if p == nil {
		return kolab.DateTime{}
	}
	dt, _ := ParseDateTime(p.Value, p.Params, sink)
	return dt
}

func getDateTimes(c *ical.Component, name string, sink *errsink.Sink) []kolab.DateTime {
	var dts []kolab.DateTime
	for _, p := range c.Props[name] {
		for _, v := range strings.Split(p.Value, ",") {
			if dt, ok := ParseDateTime(v, p.Params, sink); ok {
				dts = append(dts, dt)
			}
		}
	}
	return dts
}

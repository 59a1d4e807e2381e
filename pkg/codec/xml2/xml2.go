// Package xml2 implements the legacy Kolab 2 XML formats. Times are stored in UTC; floating
// times are interpreted in the configured timezone when written.
package xml2

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

const (
	formatVersion = "1.0"
	layoutDate    = "2006-01-02"
	layoutUTC     = "2006-01-02T15:04:05Z"
)

var sensitivities = map[string]string{
	"PUBLIC":       "public",
	"PRIVATE":      "private",
	"CONFIDENTIAL": "confidential",
}

type personXML struct {
	DisplayName string `xml:"display-name,omitempty"`
	SMTPAddress string `xml:"smtp-address,omitempty"`
	UID         string `xml:"uid,omitempty"`
}

func newPersonXML(p kolab.Person) *personXML {
	if p.IsEmpty() {
		return nil
	}
	return &personXML{DisplayName: p.Name, SMTPAddress: p.Email, UID: p.UID}
}

func (p *personXML) person() kolab.Person {
	if p == nil {
		return kolab.Person{}
	}
	return kolab.Person{Name: p.DisplayName, Email: p.SMTPAddress, UID: p.UID}
}

// location resolves the zone floating times are written in. Unknown zones are a Warning and
// fall back to UTC.
func location(tz string, sink *errsink.Sink) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		sink.Warnf("unknown timezone %q, writing floating times as UTC", tz)
		return time.UTC
	}
	return loc
}

func formatDateTime(dt kolab.DateTime, loc *time.Location) string {
	switch {
	case dt.IsZero():
		return ""
	case dt.DateOnly:
		return dt.Time.Format(layoutDate)
	case dt.Floating:
		return dt.In(loc).UTC().Format(layoutUTC)
	}
	return dt.Time.UTC().Format(layoutUTC)
}

func parseDateTime(field, v string, sink *errsink.Sink) kolab.DateTime {
	v = strings.TrimSpace(v)
	if v == "" {
		return kolab.DateTime{}
	}
	if len(v) == len(layoutDate) {
		t, err := time.ParseInLocation(layoutDate, v, time.UTC)
		if err != nil {
			sink.Errorf("invalid %s %q: %v", field, v, err)
			return kolab.DateTime{}
		}
		return kolab.DateTime{Time: t, DateOnly: true}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		sink.Errorf("invalid %s %q: %v", field, v, err)
		return kolab.DateTime{}
	}
	return kolab.NewDateTime(t.UTC())
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func marshal(v any, what string, sink *errsink.Sink) []byte {
	data, err := xml.MarshalIndent(v, "", " ")
	if err != nil {
		sink.Criticalf("encoding %s: %v", what, err)
		return nil
	}
	return append(append([]byte(xml.Header), data...), '\n')
}

func unmarshal(data []byte, v any, what string, sink *errsink.Sink) bool {
	if err := xml.Unmarshal(data, v); err != nil {
		sink.Errorf("parsing %s: %v", what, err)
		return false
	}
	return true
}

func sensitivity(class string) string {
	return sensitivities[strings.ToUpper(class)]
}

func classification(s string) string {
	for k, v := range sensitivities {
		if strings.EqualFold(v, s) {
			return k
		}
	}
	return ""
}

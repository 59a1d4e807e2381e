package xml3

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emersion/go-ical"

	"github.com/kolabformat/kolabformat/pkg/conversion"
)

const (
	nsXCal = "urn:ietf:params:xml:ns:icalendar-2.0"

	// KolabFormatVersion is announced in every document.
	KolabFormatVersion = "3.1.0"

	propProdID       = "PRODID"
	propVersion      = "VERSION"
	propKolabVersion = "X-KOLAB-VERSION"
)

// valueTypes maps properties onto their default xCal value type; unlisted ones are text.
var valueTypes = map[string]string{
	"DTSTART":          "date-time",
	"DTEND":            "date-time",
	"DUE":              "date-time",
	"CREATED":          "date-time",
	"DTSTAMP":          "date-time",
	"LAST-MODIFIED":    "date-time",
	"COMPLETED":        "date-time",
	"RECURRENCE-ID":    "date-time",
	"EXDATE":           "date-time",
	"RDATE":            "date-time",
	"SEQUENCE":         "integer",
	"PRIORITY":         "integer",
	"PERCENT-COMPLETE": "integer",
	"RRULE":            "recur",
	"EXRULE":           "recur",
	"ORGANIZER":        "cal-address",
	"ATTENDEE":         "cal-address",
	"ATTACH":           "uri",
	"URL":              "uri",
	"TZURL":            "uri",
	"FREEBUSY":         "period",
	"TZOFFSETFROM":     "utc-offset",
	"TZOFFSETTO":       "utc-offset",
	"DURATION":         "duration",
	"TRIGGER":          "duration",
}

// multiText lists text properties whose comma separated values become separate elements.
var multiText = map[string]bool{
	"CATEGORIES": true,
	"RESOURCES":  true,
}

// propOrder is the order properties are written in; the rest follow alphabetically.
var propOrder = []string{
	"UID", "CREATED", "DTSTAMP", "LAST-MODIFIED", "SEQUENCE", "CLASS", "CATEGORIES",
	"DTSTART", "DTEND", "DUE", "RRULE", "RDATE", "EXDATE", "RECURRENCE-ID", "SUMMARY",
	"DESCRIPTION", "PRIORITY", "STATUS", "PERCENT-COMPLETE", "COMPLETED", "LOCATION", "TRANSP",
	"ORGANIZER", "ATTENDEE", "ATTACH", "FREEBUSY",
}

// recurOrder is the RFC 6321 element order of recur values.
var recurOrder = []string{
	"FREQ", "UNTIL", "COUNT", "INTERVAL", "BYSECOND", "BYMINUTE", "BYHOUR", "BYDAY",
	"BYMONTHDAY", "BYYEARDAY", "BYWEEKNO", "BYMONTH", "BYSETPOS", "WKST",
}

// newCalendar wraps components into a VCALENDAR carrying the Kolab format metadata.
func newCalendar(productID string, comps ...*ical.Component) *ical.Component {
	cal := conversion.NewComponent(conversion.CompCalendar)
	for _, p := range []ical.Prop{
		{Name: propProdID, Value: conversion.EscapeText(productID)},
		{Name: propVersion, Value: "2.0"},
		{Name: propKolabVersion, Value: KolabFormatVersion},
	} {
		p.Params = make(ical.Params)
		cal.Props[p.Name] = append(cal.Props[p.Name], p)
	}
	cal.Children = comps
	return cal
}

// encodeXCal renders a VCALENDAR as an xCal document.
func encodeXCal(cal *ical.Component) ([]byte, error) {
	w := newWriter()
	w.start("icalendar", xmlns(nsXCal))
	writeComponent(w, cal)
	w.end("icalendar")
	return w.bytes()
}

func writeComponent(w *writer, c *ical.Component) {
	name := strings.ToLower(c.Name)
	w.start(name)
	w.start("properties")
	for _, pname := range orderedProps(c.Props) {
		for i := range c.Props[pname] {
			writeProp(w, &c.Props[pname][i])
		}
	}
	w.end("properties")
	if len(c.Children) > 0 {
		w.start("components")
		for _, child := range c.Children {
			writeComponent(w, child)
		}
		w.end("components")
	}
	w.end(name)
}

func orderedProps(props ical.Props) []string {
	seen := make(map[string]bool, len(props))
	names := make([]string, 0, len(props))
	for _, n := range propOrder {
		if len(props[n]) > 0 {
			names = append(names, n)
			seen[n] = true
		}
	}
	var rest []string
	for n := range props {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func propValueType(p *ical.Prop) string {
	if v := p.Params.Get("VALUE"); v != "" {
		return strings.ToLower(v)
	}
	if strings.EqualFold(p.Params.Get("ENCODING"), "BASE64") {
		return "binary"
	}
	t, ok := valueTypes[strings.ToUpper(p.Name)]
	if !ok {
		return "text"
	}
	if t == "date-time" && !strings.Contains(p.Value, "T") {
		return "date"
	}
	return t
}

func writeProp(w *writer, p *ical.Prop) {
	name := strings.ToLower(p.Name)
	w.start(name)
	writeParams(w, p.Params)
	vtype := propValueType(p)
	switch vtype {
	case "text":
		if multiText[strings.ToUpper(p.Name)] {
			for _, v := range conversion.SplitText(p.Value) {
				w.text("text", v)
			}
		} else {
			w.text("text", conversion.UnescapeText(p.Value))
		}
	case "date", "date-time":
		for _, v := range strings.Split(p.Value, ",") {
			w.text(vtype, toXMLDateTime(v))
		}
	case "recur":
		writeRecur(w, p.Value)
	case "period":
		for _, v := range strings.Split(p.Value, ",") {
			start, end, _ := strings.Cut(v, "/")
			w.start("period")
			w.text("start", toXMLDateTime(start))
			if strings.HasPrefix(end, "P") || strings.HasPrefix(end, "+P") {
				w.text("duration", end)
			} else {
				w.text("end", toXMLDateTime(end))
			}
			w.end("period")
		}
	case "boolean":
		w.text(vtype, strings.ToLower(p.Value))
	default:
		w.text(vtype, p.Value)
	}
	w.end(name)
}

// writeParams writes the parameters that are not implied by the value element.
func writeParams(w *writer, params ical.Params) {
	var names []string
	for n := range params {
		if n == "VALUE" || n == "ENCODING" {
			continue
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return
	}
	sort.Strings(names)
	w.start("parameters")
	for _, n := range names {
		pname := strings.ToLower(n)
		w.start(pname)
		ptype := "text"
		switch n {
		case "DELEGATED-FROM", "DELEGATED-TO", "MEMBER", "SENT-BY":
			ptype = "cal-address"
		case "RSVP":
			ptype = "boolean"
		}
		for _, v := range params[n] {
			if ptype == "boolean" {
				v = strings.ToLower(v)
			}
			w.text(ptype, v)
		}
		w.end(pname)
	}
	w.end("parameters")
}

func writeRecur(w *writer, rule string) {
	parts := make(map[string][]string)
	for _, kv := range strings.Split(rule, ";") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		parts[strings.ToUpper(k)] = strings.Split(v, ",")
	}
	w.start("recur")
	for _, k := range recurOrder {
		for _, v := range parts[k] {
			if k == "UNTIL" {
				v = toXMLDateTime(v)
			}
			w.text(strings.ToLower(k), v)
		}
	}
	w.end("recur")
}

// toXMLDateTime converts the iCalendar basic format into the xCal extended format.
func toXMLDateTime(v string) string {
	v = strings.TrimSpace(v)
	date, clock, hasTime := strings.Cut(v, "T")
	if len(date) != 8 {
		return v
	}
	out := date[:4] + "-" + date[4:6] + "-" + date[6:]
	if !hasTime {
		return out
	}
	zulu := strings.HasSuffix(clock, "Z")
	clock = strings.TrimSuffix(clock, "Z")
	if len(clock) != 6 {
		return v
	}
	out += "T" + clock[:2] + ":" + clock[2:4] + ":" + clock[4:]
	if zulu {
		out += "Z"
	}
	return out
}

// fromXMLDateTime converts the xCal extended format into the iCalendar basic format.
func fromXMLDateTime(v string) string {
	return strings.NewReplacer("-", "", ":", "").Replace(strings.TrimSpace(v))
}

// decodeXCal parses an xCal document into its VCALENDAR component.
func decodeXCal(data []byte) (*ical.Component, error) {
	root, err := parseNode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing xCal: %w", err)
	}
	if root.name() != "icalendar" {
		return nil, fmt.Errorf("root element %q is not icalendar", root.name())
	}
	vcal := root.child("vcalendar")
	if vcal == nil {
		return nil, fmt.Errorf("icalendar element without vcalendar")
	}
	return readComponent(vcal), nil
}

func readComponent(n *node) *ical.Component {
	c := conversion.NewComponent(strings.ToUpper(n.name()))
	if props := n.child("properties"); props != nil {
		for i := range props.Nodes {
			p := readProp(&props.Nodes[i])
			c.Props[p.Name] = append(c.Props[p.Name], p)
		}
	}
	if comps := n.child("components"); comps != nil {
		for i := range comps.Nodes {
			c.Children = append(c.Children, readComponent(&comps.Nodes[i]))
		}
	}
	return c
}

func readProp(n *node) ical.Prop {
	p := ical.Prop{Name: strings.ToUpper(n.name()), Params: make(ical.Params)}
	if params := n.child("parameters"); params != nil {
		for _, param := range params.Nodes {
			pname := strings.ToUpper(param.name())
			for _, v := range param.Nodes {
				value := strings.TrimSpace(v.Text)
				if v.name() == "boolean" {
					value = strings.ToUpper(value)
				}
				p.Params[pname] = append(p.Params[pname], value)
			}
			if len(param.Nodes) == 0 {
				p.Params[pname] = append(p.Params[pname], strings.TrimSpace(param.Text))
			}
		}
	}
	var (
		values []string
		vtype  string
	)
	for i := range n.Nodes {
		v := &n.Nodes[i]
		if v.name() == "parameters" {
			continue
		}
		vtype = v.name()
		switch vtype {
		case "text":
			values = append(values, conversion.EscapeText(v.Text))
		case "date", "date-time":
			values = append(values, fromXMLDateTime(v.Text))
		case "recur":
			values = append(values, readRecur(v))
		case "period":
			end := fromXMLDateTime(v.childText("end"))
			if end == "" {
				end = v.childText("duration")
			}
			values = append(values, fromXMLDateTime(v.childText("start"))+"/"+end)
		case "boolean":
			values = append(values, strings.ToUpper(strings.TrimSpace(v.Text)))
		default:
			values = append(values, strings.TrimSpace(v.Text))
		}
	}
	if len(values) == 0 {
		p.Value = strings.TrimSpace(n.Text)
		return p
	}
	p.Value = strings.Join(values, ",")
	switch vtype {
	case "date":
		p.Params["VALUE"] = []string{"DATE"}
	case "binary":
		p.Params["ENCODING"] = []string{"BASE64"}
		p.Params["VALUE"] = []string{"BINARY"}
	case "period":
		if p.Name != "FREEBUSY" {
			p.Params["VALUE"] = []string{"PERIOD"}
		}
	}
	return p
}

func readRecur(n *node) string {
	var (
		keys   []string
		values = make(map[string][]string)
	)
	for _, part := range n.Nodes {
		k := strings.ToUpper(part.name())
		v := strings.TrimSpace(part.Text)
		if k == "UNTIL" {
			v = fromXMLDateTime(v)
		}
		if _, ok := values[k]; !ok {
			keys = append(keys, k)
		}
		values[k] = append(values[k], v)
	}
	rule := make([]string, len(keys))
	for i, k := range keys {
		rule[i] = k + "=" + strings.Join(values[k], ",")
	}
	return strings.Join(rule, ";")
}

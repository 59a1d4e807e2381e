package xml2

import (
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

type rangeXML struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type recurrenceXML struct {
	Cycle      string    `xml:"cycle,attr"`
	Type       string    `xml:"type,attr,omitempty"`
	Interval   int       `xml:"interval,omitempty"`
	Days       []string  `xml:"day"`
	DayNumber  int       `xml:"daynumber,omitempty"`
	Month      string    `xml:"month,omitempty"`
	Range      *rangeXML `xml:"range"`
	Exclusions []string  `xml:"exclusion"`
}

var weekdays = []struct{ ical, legacy string }{
	{"MO", "monday"}, {"TU", "tuesday"}, {"WE", "wednesday"}, {"TH", "thursday"},
	{"FR", "friday"}, {"SA", "saturday"}, {"SU", "sunday"},
}

func legacyDay(ical string) string {
	for _, d := range weekdays {
		if d.ical == ical {
			return d.legacy
		}
	}
	return ""
}

func icalDay(legacy string) string {
	for _, d := range weekdays {
		if strings.EqualFold(d.legacy, legacy) {
			return d.ical
		}
	}
	return ""
}

func legacyMonth(m string) string {
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 || n > 12 {
		return ""
	}
	return strings.ToLower(time.Month(n).String())
}

func icalMonth(legacy string) string {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), legacy) {
			return strconv.Itoa(int(m))
		}
	}
	return ""
}

// splitDay splits a BYDAY token such as "-1FR" into its ordinal and weekday.
func splitDay(token string) (int, string) {
	i := strings.IndexFunc(token, func(r rune) bool { return r >= 'A' && r <= 'Z' })
	if i <= 0 {
		return 0, token
	}
	n, _ := strconv.Atoi(token[:i])
	return n, token[i:]
}

func parseRule(rule string) map[string]string {
	parts := make(map[string]string)
	for _, kv := range strings.Split(rule, ";") {
		if k, v, ok := strings.Cut(kv, "="); ok {
			parts[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
	}
	return parts
}

// recurrenceToXML maps an RRULE onto the legacy recurrence element. Rules the legacy format
// cannot express are dropped with a Warning.
func recurrenceToXML(rec kolab.Recurrence, start kolab.DateTime, sink *errsink.Sink) *recurrenceXML {
	if rec.RRule == "" {
		if len(rec.RDates) > 0 {
			sink.Warnf("recurrence dates cannot be stored in the legacy format")
		}
		return nil
	}
	if _, err := rrule.StrToROption(rec.RRule); err != nil {
		sink.Errorf("invalid recurrence rule %q: %v", rec.RRule, err)
		return nil
	}
	parts := parseRule(rec.RRule)
	x := &recurrenceXML{Cycle: strings.ToLower(parts["FREQ"]), Interval: 1}
	if v, err := strconv.Atoi(parts["INTERVAL"]); err == nil {
		x.Interval = v
	}
	var days []string
	if parts["BYDAY"] != "" {
		days = strings.Split(parts["BYDAY"], ",")
	}
	startDay := start.Time.Day()
	startMonth := strconv.Itoa(int(start.Time.Month()))
	switch x.Cycle {
	case "daily":
	case "weekly":
		for _, d := range days {
			_, wd := splitDay(d)
			x.Days = append(x.Days, legacyDay(wd))
		}
	case "monthly":
		if len(days) > 0 {
			n, wd := splitDay(days[0])
			x.Type, x.DayNumber, x.Days = "weekday", n, []string{legacyDay(wd)}
			break
		}
		x.Type, x.DayNumber = "daynumber", startDay
		if v, err := strconv.Atoi(parts["BYMONTHDAY"]); err == nil {
			x.DayNumber = v
		}
	case "yearly":
		month := startMonth
		if parts["BYMONTH"] != "" {
			month = parts["BYMONTH"]
		}
		switch {
		case parts["BYYEARDAY"] != "":
			x.Type = "yearday"
			x.DayNumber, _ = strconv.Atoi(parts["BYYEARDAY"])
		case len(days) > 0:
			n, wd := splitDay(days[0])
			x.Type, x.DayNumber, x.Days, x.Month = "weekday", n, []string{legacyDay(wd)}, legacyMonth(month)
		default:
			x.Type, x.DayNumber, x.Month = "monthday", startDay, legacyMonth(month)
			if v, err := strconv.Atoi(parts["BYMONTHDAY"]); err == nil {
				x.DayNumber = v
			}
		}
	default:
		sink.Warnf("recurrence frequency %q cannot be stored in the legacy format", parts["FREQ"])
		return nil
	}
	switch {
	case parts["COUNT"] != "":
		x.Range = &rangeXML{Type: "number", Value: parts["COUNT"]}
	case parts["UNTIL"] != "":
		until := parts["UNTIL"]
		if len(until) >= 8 {
			until = until[:4] + "-" + until[4:6] + "-" + until[6:8]
		}
		x.Range = &rangeXML{Type: "date", Value: until}
	default:
		x.Range = &rangeXML{Type: "none"}
	}
	for _, ex := range rec.ExDates {
		x.Exclusions = append(x.Exclusions, ex.Time.Format(layoutDate))
	}
	return x
}

// recurrenceFromXML maps the legacy recurrence element onto an RRULE, validated with rrule-go.
func recurrenceFromXML(x *recurrenceXML, sink *errsink.Sink) kolab.Recurrence {
	if x == nil {
		return kolab.Recurrence{}
	}
	var rule []string
	add := func(k, v string) {
		if v != "" {
			rule = append(rule, k+"="+v)
		}
	}
	add("FREQ", strings.ToUpper(x.Cycle))
	if x.Interval > 1 {
		add("INTERVAL", strconv.Itoa(x.Interval))
	}
	var days []string
	for _, d := range x.Days {
		if wd := icalDay(d); wd != "" {
			days = append(days, wd)
		} else {
			sink.Warnf("unknown recurrence day %q", d)
		}
	}
	dayNumber := ""
	if x.DayNumber != 0 {
		dayNumber = strconv.Itoa(x.DayNumber)
	}
	switch x.Cycle {
	case "daily":
	case "weekly":
		add("BYDAY", strings.Join(days, ","))
	case "monthly":
		if x.Type == "weekday" && len(days) > 0 {
			add("BYDAY", dayNumber+days[0])
		} else {
			add("BYMONTHDAY", dayNumber)
		}
	case "yearly":
		switch x.Type {
		case "yearday":
			add("BYYEARDAY", dayNumber)
		case "weekday":
			add("BYMONTH", icalMonth(x.Month))
			if len(days) > 0 {
				add("BYDAY", dayNumber+days[0])
			}
		default:
			add("BYMONTH", icalMonth(x.Month))
			add("BYMONTHDAY", dayNumber)
		}
	default:
		sink.Errorf("unknown recurrence cycle %q", x.Cycle)
		return kolab.Recurrence{}
	}
	if x.Range != nil {
		v := strings.TrimSpace(x.Range.Value)
		switch x.Range.Type {
		case "number":
			add("COUNT", v)
		case "date":
			add("UNTIL", strings.ReplaceAll(v, "-", ""))
		}
	}
	rec := kolab.Recurrence{RRule: strings.Join(rule, ";")}
	if _, err := rrule.StrToROption(rec.RRule); err != nil {
		sink.Errorf("invalid recurrence %q: %v", rec.RRule, err)
		return kolab.Recurrence{}
	}
	for _, ex := range x.Exclusions {
		if dt := parseDateTime("exclusion", ex, sink); !dt.IsZero() {
			rec.ExDates = append(rec.ExDates, dt)
		}
	}
	return rec
}

// Package freebusy computes free/busy reports from events and merges reports of several
// calendars.
package freebusy

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/teambition/rrule-go"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// endOfDay is the last instant of a date-only end bound; whole-day events block the full day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

// ClipToWindow returns the part of start..end inside the window. ok is false unless start or
// end lies within the window; a period enclosing the whole window does not count.
func ClipToWindow(start, end kolab.DateTime, windowStart, windowEnd time.Time) (p kolab.Period, ok bool) {
	e := end.UTC()
	if end.DateOnly {
		e = endOfDay(e)
	}
	return clip(start.UTC(), e, windowStart.UTC(), windowEnd.UTC())
}

func clip(start, end, windowStart, windowEnd time.Time) (kolab.Period, bool) {
	within := func(t time.Time) bool {
		return !t.Before(windowStart) && !t.After(windowEnd)
	}
	if !within(start) && !within(end) {
		return kolab.Period{}, false
	}
	if start.Before(windowStart) {
		start = windowStart
	}
	if end.After(windowEnd) {
		end = windowEnd
	}
	return kolab.Period{Start: start, End: end}, true
}

// Generator builds free/busy reports. The zero value uses the wall clock, random uids and
// reports through the global logger.
type Generator struct {
	Now    func() time.Time
	NewUID func() string
	Sink   *errsink.Sink
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC().Truncate(time.Second)
	}
	return time.Now().UTC().Truncate(time.Second)
}

func (g *Generator) newUID() string {
	if g.NewUID != nil {
		return g.NewUID()
	}
	return uuid.NewString()
}

// Generate returns the report of events between windowStart and windowEnd. A date-only window
// end includes that whole day. Transparent events and recurrence exceptions are skipped; the
// latter means modified occurrences are reported at their original times.
func (g *Generator) Generate(events []*kolab.Incidence, windowStart, windowEnd kolab.DateTime,
	organizer kolab.Person) *kolab.Freebusy {
	start := windowStart.UTC()
	end := windowEnd.UTC()
	if windowEnd.DateOnly {
		end = end.AddDate(0, 0, 1)
	}

	var periods []kolab.FreebusyPeriod
	for _, ev := range events {
		if ev == nil || ev.Kind != kolab.EventObject {
			continue
		}
		if ev.Transparent {
			g.Sink.Debugf("skipping transparent event %q", ev.UID)
			continue
		}
		if ev.HasRecurrenceID() {
			g.Sink.Debugf("skipping recurrence exception of %q", ev.UID)
			continue
		}
		if ev.Start.IsZero() {
			g.Sink.Warnf("event %q has no start", ev.UID)
			continue
		}
		evStart := ev.Start.UTC()
		evEnd := ev.EffectiveEnd().UTC()
		if ev.EffectiveEnd().DateOnly {
			evEnd = endOfDay(evEnd)
		}

		var busy []kolab.Period
		if ev.Recurs() {
			duration := evEnd.Sub(evStart)
			for _, occ := range g.occurrences(ev, start, end) {
				if p, ok := clip(occ, occ.Add(duration), start, end); ok {
					busy = append(busy, p)
				}
			}
		} else if p, ok := clip(evStart, evEnd, start, end); ok {
			busy = append(busy, p)
		}
		if len(busy) == 0 {
			continue
		}
		periods = append(periods, kolab.FreebusyPeriod{
			Type:          kolab.FreebusyBusy,
			Periods:       busy,
			EventUID:      ev.UID,
			EventSummary:  ev.Summary,
			EventLocation: ev.Location,
		})
	}

	fb := &kolab.Freebusy{
		UID:       g.newUID(),
		Start:     kolab.NewDateTime(start),
		End:       kolab.NewDateTime(end),
		Timestamp: kolab.NewDateTime(g.now()),
		Organizer: organizer,
		Periods:   periods,
	}
	log.Debug().Str("module", "freebusy").Int("events", len(events)).Int("periods", len(periods)).
		Time("start", start).Time("end", end).Msg("Generated free/busy")
	return fb
}

// occurrences lists the start times of ev within the window as UTC instants. The rule is
// expanded in the zone of the event start so occurrences keep their wall-clock time across
// daylight saving changes. Date-only exceptions remove every occurrence on that day.
func (g *Generator) occurrences(ev *kolab.Incidence, windowStart, windowEnd time.Time) []time.Time {
	evStart := ev.Start.In(time.UTC)
	loc := evStart.Location()
	set := &rrule.Set{}
	if ev.Recurrence.RRule != "" {
		opt, err := rrule.StrToROption(ev.Recurrence.RRule)
		if err != nil {
			g.Sink.Errorf("invalid recurrence rule of %q: %v", ev.UID, err)
			return nil
		}
		opt.Dtstart = evStart
		r, err := rrule.NewRRule(*opt)
		if err != nil {
			g.Sink.Errorf("invalid recurrence rule of %q: %v", ev.UID, err)
			return nil
		}
		set.RRule(r)
	} else {
		set.RDate(evStart)
	}
	for _, rd := range ev.Recurrence.RDates {
		set.RDate(rd.In(loc))
	}
	excluded := make(map[string]bool)
	for _, ex := range ev.Recurrence.ExDates {
		if ex.DateOnly {
			excluded[ex.Time.Format("20060102")] = true
			continue
		}
		set.ExDate(ex.In(loc))
	}

	var times []time.Time
	for _, t := range set.Between(windowStart, windowEnd, true) {
		if !excluded[t.In(loc).Format("20060102")] {
			times = append(times, t.UTC())
		}
	}
	return times
}

// Aggregate merges reports into one covering all of their windows. simple drops the event
// details of every period.
func (g *Generator) Aggregate(list []*kolab.Freebusy, organizerEmail, organizerName string,
	simple bool) *kolab.Freebusy {
	agg := &kolab.Freebusy{
		UID:       g.newUID(),
		Timestamp: kolab.NewDateTime(g.now()),
		Organizer: kolab.Person{Name: organizerName, Email: organizerEmail},
	}
	var start, end time.Time
	for _, fb := range list {
		if fb == nil {
			continue
		}
		if s := fb.Start.UTC(); !fb.Start.IsZero() && (start.IsZero() || s.Before(start)) {
			start = s
		}
		if e := fb.End.UTC(); !fb.End.IsZero() && (end.IsZero() || e.After(end)) {
			end = e
		}
		for _, fp := range fb.Periods {
			p := kolab.FreebusyPeriod{
				Type:    fp.Type,
				Periods: append([]kolab.Period(nil), fp.Periods...),
			}
			if !simple {
				p.EventUID = fp.EventUID
				p.EventSummary = fp.EventSummary
				p.EventLocation = fp.EventLocation
			}
			agg.Periods = append(agg.Periods, p)
		}
	}
	if !start.IsZero() {
		agg.Start = kolab.NewDateTime(start)
	}
	if !end.IsZero() {
		agg.End = kolab.NewDateTime(end)
	}
	return agg
}

// Busy flattens a report into its sorted busy intervals.
func Busy(fb *kolab.Freebusy) []kolab.Period {
	var out []kolab.Period
	for _, fp := range fb.Periods {
		out = append(out, fp.Periods...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Generate uses a zero Generator reporting to sink.
func Generate(events []*kolab.Incidence, windowStart, windowEnd kolab.DateTime, organizer kolab.Person,
	sink *errsink.Sink) *kolab.Freebusy {
	g := &Generator{Sink: sink}
	return g.Generate(events, windowStart, windowEnd, organizer)
}

// Aggregate uses a zero Generator.
func Aggregate(list []*kolab.Freebusy, organizerEmail, organizerName string, simple bool) *kolab.Freebusy {
	g := &Generator{}
	return g.Aggregate(list, organizerEmail, organizerName, simple)
}

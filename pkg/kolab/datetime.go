package kolab

import "time"

// DateTime is a calendar instant. DateOnly values carry a date at midnight, Floating values have
// no timezone and are interpreted in the reader's zone.
type DateTime struct {
	Time     time.Time
	DateOnly bool
	Floating bool
}

// NewDateTime returns a zoned DateTime.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t}
}

// NewDate returns a date-only DateTime.
func NewDate(year int, month time.Month, day int) DateTime {
	return DateTime{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), DateOnly: true}
}

// IsZero reports whether no time is set.
func (d DateTime) IsZero() bool {
	return d.Time.IsZero()
}

// IsUTC reports whether d is a zoned time in UTC.
func (d DateTime) IsUTC() bool {
	return !d.DateOnly && !d.Floating && d.Time.Location() == time.UTC
}

// UTC returns d as a UTC instant. Date-only and floating values are read as wall-clock times in
// UTC.
func (d DateTime) UTC() time.Time {
	if d.DateOnly || d.Floating {
		y, m, day := d.Time.Date()
		h, min, s := d.Time.Clock()
		return time.Date(y, m, day, h, min, s, d.Time.Nanosecond(), time.UTC)
	}
	return d.Time.UTC()
}

// In returns d as an instant, reading date-only and floating values as wall-clock times in loc.
func (d DateTime) In(loc *time.Location) time.Time {
	if d.DateOnly || d.Floating {
		y, m, day := d.Time.Date()
		h, min, s := d.Time.Clock()
		return time.Date(y, m, day, h, min, s, d.Time.Nanosecond(), loc)
	}
	return d.Time
}

// Equal compares instants and flags.
func (d DateTime) Equal(o DateTime) bool {
	return d.DateOnly == o.DateOnly && d.Floating == o.Floating && d.Time.Equal(o.Time)
}

// Period is a closed interval of UTC instants.
type Period struct {
	Start time.Time
	End   time.Time
}

// Duration of the period.
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

package kolab

// FreebusyType classifies a busy interval.
type FreebusyType int

const (
	FreebusyInvalid FreebusyType = iota
	FreebusyBusy
	FreebusyTentative
	FreebusyOutOfOffice
)

// FBType returns the RFC 5545 FBTYPE value.
func (t FreebusyType) FBType() string {
	switch t {
	case FreebusyTentative:
		return "BUSY-TENTATIVE"
	case FreebusyOutOfOffice:
		return "BUSY-UNAVAILABLE"
	}
	return "BUSY"
}

// ParseFBType maps an FBTYPE value onto a FreebusyType; unknown values mean busy.
func ParseFBType(s string) FreebusyType {
	switch s {
	case "BUSY-TENTATIVE":
		return FreebusyTentative
	case "BUSY-UNAVAILABLE":
		return FreebusyOutOfOffice
	}
	return FreebusyBusy
}

// FreebusyPeriod is a run of busy intervals contributed by one event. The event fields are empty
// in simplified reports.
type FreebusyPeriod struct {
	Type          FreebusyType
	Periods       []Period
	EventUID      string
	EventSummary  string
	EventLocation string
}

// Freebusy is a free/busy report for the window Start..End.
type Freebusy struct {
	UID       string
	Start     DateTime
	End       DateTime
	Timestamp DateTime
	Organizer Person
	Periods   []FreebusyPeriod
}

var _ Object = &Freebusy{}

// Type implements Object.
func (f *Freebusy) Type() ObjectType { return FreebusyObject }

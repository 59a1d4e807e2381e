// Package kolab holds the Kolab groupware domain model and the registry mapping object kinds onto
// their MIME and XML identifiers.
package kolab

import "strconv"

// LibVersion is appended to every product id written into an object.
const LibVersion = "Kolabformat-1.0.0"

// ObjectType identifies the kind of a Kolab object.
type ObjectType int

const (
	InvalidObject ObjectType = iota
	EventObject
	TodoObject
	JournalObject
	ContactObject
	DistlistObject
	NoteObject
	FreebusyObject
	DictionaryConfigurationObject
	RelationConfigurationObject
)

var typeNames = map[ObjectType]string{
	InvalidObject:                 "invalid",
	EventObject:                   "event",
	TodoObject:                    "todo",
	JournalObject:                 "journal",
	ContactObject:                 "contact",
	DistlistObject:                "distlist",
	NoteObject:                    "note",
	FreebusyObject:                "freebusy",
	DictionaryConfigurationObject: "dictionary",
	RelationConfigurationObject:   "relation",
}

func (t ObjectType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "objecttype(" + strconv.Itoa(int(t)) + ")"
}

// IsIncidence reports whether t is one of the calendar incidence kinds.
func (t ObjectType) IsIncidence() bool {
	return t == EventObject || t == TodoObject || t == JournalObject
}

// ParseObjectType maps a short name as returned by String back onto its ObjectType.
func ParseObjectType(name string) ObjectType {
	for t, s := range typeNames {
		if s == name {
			return t
		}
	}
	return InvalidObject
}

// Version is the Kolab format generation of an object.
type Version int

const (
	KolabV2 Version = iota
	KolabV3
)

func (v Version) String() string {
	if v == KolabV2 {
		return VersionV2
	}
	return VersionV3
}

// ParseVersion accepts "2", "v2", "2.0" and the V3 equivalents.
func ParseVersion(s string) (Version, bool) {
	switch s {
	case "2", "v2", "V2", VersionV2:
		return KolabV2, true
	case "3", "v3", "V3", VersionV3:
		return KolabV3, true
	}
	return KolabV3, false
}

// Object is implemented by every domain object.
type Object interface {
	Type() ObjectType
}

// Person references an organizer, attendee or list member by email address.
type Person struct {
	Name  string
	Email string
	UID   string
}

// IsEmpty reports whether no field of p is set.
func (p Person) IsEmpty() bool {
	return p.Name == "" && p.Email == "" && p.UID == ""
}

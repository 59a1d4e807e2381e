package kolab

import (
	"strings"

	"github.com/kolabformat/kolabformat/pkg/errsink"
)

// Type tokens carried by the X-Kolab-Type header. Legacy messages use the same strings as the
// content-type of their XML part.
const (
	TypeEvent          = "application/x-vnd.kolab.event"
	TypeTask           = "application/x-vnd.kolab.task"
	TypeJournal        = "application/x-vnd.kolab.journal"
	TypeContact        = "application/x-vnd.kolab.contact"
	TypeDistlist       = "application/x-vnd.kolab.contact.distlist"
	TypeDistlistV2     = "application/x-vnd.kolab.distribution-list"
	TypeNote           = "application/x-vnd.kolab.note"
	TypeFreebusy       = "application/x-vnd.kolab.freebusy"
	TypeConfiguration  = "application/x-vnd.kolab.configuration"
	TypeDictionary     = "application/x-vnd.kolab.configuration.dictionary"
	TypeRelation       = "application/x-vnd.kolab.configuration.relation"
	TypeLegacyDocument = "application/xml"
)

// V3 content-types of the XML part.
const (
	MimeTypeXCal  = "application/calendar+xml"
	MimeTypeXCard = "application/vcard+xml"
	MimeTypeKolab = "application/vnd.kolab+xml"
)

// Envelope headers and tokens.
const (
	HeaderType              = "X-Kolab-Type"
	HeaderMimeVersion       = "X-Kolab-Mime-Version"
	HeaderMimeVersionCompat = "X-Kolab-Version"
	VersionV2               = "2.0"
	VersionV3               = "3.0"
	ObjectFilename          = "kolab.xml"
)

// Classify maps a type token onto its ObjectType. Unknown tokens are a Warning and yield
// InvalidObject.
func Classify(token string, sink *errsink.Sink) ObjectType {
	if t := lookupToken(token); t != InvalidObject {
		return t
	}
	sink.Warnf("unknown object type: %q", token)
	return InvalidObject
}

// LookupToken classifies token without reporting unknown values.
func LookupToken(token string) ObjectType {
	return lookupToken(token)
}

func lookupToken(token string) ObjectType {
	switch token {
	case TypeEvent:
		return EventObject
	case TypeTask:
		return TodoObject
	case TypeJournal:
		return JournalObject
	case TypeContact:
		return ContactObject
	case TypeDistlist, TypeDistlistV2:
		return DistlistObject
	case TypeNote:
		return NoteObject
	case TypeFreebusy:
		return FreebusyObject
	case TypeRelation:
		return RelationConfigurationObject
	case TypeConfiguration:
		// Written by older clients for dictionaries.
		return DictionaryConfigurationObject
	}
	// Older writers appended the dictionary language to the token.
	if strings.Contains(token, TypeDictionary) {
		return DictionaryConfigurationObject
	}
	return InvalidObject
}

// TypeToken returns the X-Kolab-Type value for t. Invalid input is Critical and yields "".
func TypeToken(t ObjectType, sink *errsink.Sink) string {
	switch t {
	case EventObject:
		return TypeEvent
	case TodoObject:
		return TypeTask
	case JournalObject:
		return TypeJournal
	case ContactObject:
		return TypeContact
	case DistlistObject:
		return TypeDistlist
	case NoteObject:
		return TypeNote
	case FreebusyObject:
		return TypeFreebusy
	case DictionaryConfigurationObject:
		return TypeDictionary
	case RelationConfigurationObject:
		return TypeRelation
	}
	sink.Criticalf("unknown object type %v", t)
	return ""
}

// LegacyContentType returns the content-type of the XML part of a V2 message. Kinds without a
// V2 representation are Critical and yield "".
func LegacyContentType(t ObjectType, sink *errsink.Sink) string {
	switch t {
	case EventObject, TodoObject, JournalObject, ContactObject, NoteObject:
		return TypeToken(t, sink)
	case DistlistObject:
		return TypeDistlistV2
	case DictionaryConfigurationObject:
		return TypeLegacyDocument
	}
	sink.Criticalf("no legacy representation for object type %v", t)
	return ""
}

// LegacyTypeToken returns the X-Kolab-Type value written into V2 messages.
func LegacyTypeToken(t ObjectType, sink *errsink.Sink) string {
	if t == DistlistObject {
		return TypeDistlistV2
	}
	return TypeToken(t, sink)
}

// MimeContentType returns the content-type of the XML part of a V3 message. Invalid input is
// Critical and yields "".
func MimeContentType(t ObjectType, sink *errsink.Sink) string {
	switch t {
	case EventObject, TodoObject, JournalObject, FreebusyObject:
		return MimeTypeXCal
	case ContactObject, DistlistObject:
		return MimeTypeXCard
	case NoteObject, DictionaryConfigurationObject, RelationConfigurationObject:
		return MimeTypeKolab
	}
	sink.Criticalf("unknown object type %v", t)
	return ""
}

// ProductID returns the product id written into objects created by pid.
func ProductID(pid string) string {
	if pid == "" {
		return LibVersion
	}
	return pid + " " + LibVersion
}

// Package relation encodes and decodes the member URIs of Kolab relation configuration objects.
//
// A member is either a global id, written as urn:uuid:<gid>, or the address of a message in an
// IMAP folder:
//
//	imap:///user/<user>/<mailbox>/.../<uid>?message-id=<id>&subject=<subject>&date=<date>
//	imap:///shared/<mailbox>/.../<uid>?message-id=<id>&subject=<subject>&date=<date>
package relation

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kolabformat/kolabformat/pkg/errsink"
)

const (
	gidPrefix     = "urn:uuid:"
	schemePrefix  = "imap:///"
	userSegment   = "user"
	sharedSegment = "shared"
)

// Member addresses one member of a relation. Exactly one of GID or the folder fields is set.
type Member struct {
	GID string

	User      string   // Empty for shared folders.
	Mailbox   []string // Folder path below the user or shared root.
	UID       int64    // IMAP uid of the message.
	MessageID string
	Subject   string
	Date      string
}

// IsEmpty reports whether m addresses nothing.
func (m Member) IsEmpty() bool {
	return m.GID == "" && len(m.Mailbox) == 0
}

// IsShared reports whether m lives in a shared folder.
func (m Member) IsShared() bool {
	return m.GID == "" && m.User == ""
}

// Parse decodes a member URI. URIs that cannot be decoded produce a Warning and an empty Member.
func Parse(uri string, sink *errsink.Sink) Member {
	if strings.HasPrefix(uri, gidPrefix) {
		return Member{GID: strings.TrimPrefix(uri, gidPrefix)}
	}
	u, err := url.Parse(uri)
	if err != nil {
		sink.Warnf("invalid relation member %q: %v", uri, err)
		return Member{}
	}
	var segments []string
	for _, s := range strings.Split(u.EscapedPath(), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	var m Member
	var rest []string
	if i := index(segments, userSegment); i >= 0 {
		if i+1 >= len(segments) {
			sink.Warnf("relation member %q has no user", uri)
			return Member{}
		}
		user, err := url.PathUnescape(segments[i+1])
		if err != nil {
			sink.Warnf("invalid user in relation member %q: %v", uri, err)
			return Member{}
		}
		m.User = user
		rest = segments[i+2:]
	} else if i := index(segments, sharedSegment); i >= 0 {
		rest = segments[i+1:]
	} else {
		sink.Warnf("relation member %q is neither a user nor a shared folder", uri)
		return Member{}
	}
	if len(rest) < 2 {
		sink.Warnf("relation member %q lacks a mailbox or uid", uri)
		return Member{}
	}
	for _, s := range rest[:len(rest)-1] {
		seg, err := url.PathUnescape(s)
		if err != nil {
			sink.Warnf("invalid mailbox in relation member %q: %v", uri, err)
			return Member{}
		}
		m.Mailbox = append(m.Mailbox, seg)
	}
	m.UID, err = strconv.ParseInt(rest[len(rest)-1], 10, 64)
	if err != nil {
		sink.Warnf("invalid uid in relation member %q: %v", uri, err)
		return Member{}
	}
	q := u.Query()
	m.MessageID = q.Get("message-id")
	m.Subject = q.Get("subject")
	m.Date = q.Get("date")
	return m
}

// Format encodes m as a member URI, the inverse of Parse.
func Format(m Member) string {
	if m.GID != "" {
		return gidPrefix + m.GID
	}
	var b strings.Builder
	b.WriteString(schemePrefix)
	if m.User != "" {
		b.WriteString(userSegment + "/")
		b.WriteString(escape(m.User))
	} else {
		b.WriteString(sharedSegment)
	}
	for _, s := range m.Mailbox {
		b.WriteByte('/')
		b.WriteString(escape(s))
	}
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(m.UID, 10))
	b.WriteString("?message-id=")
	b.WriteString(escape(m.MessageID))
	b.WriteString("&subject=")
	b.WriteString(escape(m.Subject))
	b.WriteString("&date=")
	b.WriteString(escape(m.Date))
	return b.String()
}

// escape percent-encodes s for use as a path segment or query value.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func index(segments []string, name string) int {
	for i, s := range segments {
		if s == name {
			return i
		}
	}
	return -1
}

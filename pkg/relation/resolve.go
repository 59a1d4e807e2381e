package relation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/storage"
)

// DateLayout is the format of the date attribute written by MemberFor.
const DateLayout = time.RFC3339

// Folder returns the storage folder m lives in, empty for global id members.
func Folder(m Member) string {
	if m.GID != "" || len(m.Mailbox) == 0 {
		return ""
	}
	root := sharedSegment
	if m.User != "" {
		root = userSegment + "/" + m.User
	}
	return root + "/" + strings.Join(m.Mailbox, "/")
}

// Resolve finds the stored object m points at. The uid is tried first; when it is gone or now
// holds a different message, the message-id attribute is used to find the object again.
func Resolve(store storage.Store, m Member, sink *errsink.Sink) storage.Object {
	if m.GID != "" {
		sink.Warnf("member %q is a global id, not a stored object", m.GID)
		return nil
	}
	folder := Folder(m)
	if folder == "" {
		sink.Warnf("member has no folder")
		return nil
	}
	id := strconv.FormatInt(m.UID, 10)
	obj, err := store.GetObject(folder, id)
	switch {
	case err == nil:
		if m.MessageID == "" || obj.MessageID() == m.MessageID {
			return obj
		}
		sink.Debugf("uid %v in %q holds a different message", m.UID, folder)
	case errors.Is(err, storage.ErrNotExist):
		sink.Debugf("uid %v not found in %q", m.UID, folder)
	default:
		sink.Errorf("failed to get uid %v from %q: %v", m.UID, folder, err)
		return nil
	}
	if m.MessageID == "" {
		sink.Errorf("member %s not found", Format(m))
		return nil
	}
	obj, err = store.FindByMessageID(folder, m.MessageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			sink.Errorf("member %s not found", Format(m))
		} else {
			sink.Errorf("failed to find message-id %q in %q: %v", m.MessageID, folder, err)
		}
		return nil
	}
	log.Debug().Str("module", "relation").Str("folder", folder).Str("messageID", m.MessageID).
		Str("id", obj.ID()).Msg("Resolved member by message-id")
	return obj
}

// MemberFor returns the member addressing a stored object.
func MemberFor(obj storage.Object) (Member, error) {
	segments := strings.Split(strings.Trim(obj.Folder(), "/"), "/")
	var m Member
	switch {
	case len(segments) >= 3 && segments[0] == userSegment:
		m.User = segments[1]
		m.Mailbox = segments[2:]
	case len(segments) >= 2 && segments[0] == sharedSegment:
		m.Mailbox = segments[1:]
	default:
		return Member{}, fmt.Errorf("folder %q is neither a user nor a shared folder", obj.Folder())
	}
	uid, err := strconv.ParseInt(obj.ID(), 10, 64)
	if err != nil {
		return Member{}, fmt.Errorf("object id %q is not a uid: %w", obj.ID(), err)
	}
	m.UID = uid
	m.MessageID = obj.MessageID()
	m.Subject = obj.Subject()
	if d := obj.Date(); !d.IsZero() {
		m.Date = d.UTC().Format(DateLayout)
	}
	return m, nil
}

package envelope

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog/log"

	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// Explanation is the body of the placeholder part shown by clients that do not understand Kolab
// objects.
const Explanation = "This is a Kolab Groupware object.\n" +
	"To view this object you will need an email client that can understand the Kolab Groupware format.\n" +
	"For a list of such email clients please visit\n" +
	"http://www.kolab.org/get-kolab\n"

// Message describes an envelope to build.
type Message struct {
	TypeToken   string // X-Kolab-Type value.
	ContentType string // Content-type of the XML part.
	XML         []byte
	V3          bool
	ProductID   string
	Subject     string
	From        *kolab.Person
	Attachments []kolab.Attachment
	Date        time.Time // Zero means now.
	MessageID   string    // Empty means generated.
}

// Build assembles the MIME message for m: the explanation part, the XML part and one part per
// embeddable attachment. V3 messages embed only attachments addressed by cid: URI, V2 messages
// those carrying data.
func Build(m Message) ([]byte, error) {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	var h mail.Header
	h.SetDate(date.UTC())
	if m.Subject != "" {
		h.SetSubject(m.Subject)
	}
	if m.MessageID != "" {
		h.SetMessageID(m.MessageID)
	} else if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message-id: %w", err)
	}
	if m.From != nil && m.From.Email != "" {
		h.SetAddressList("From", []*mail.Address{{Name: m.From.Name, Address: m.From.Email}})
	}
	h.Set(kolab.HeaderType, m.TypeToken)
	if m.V3 {
		h.Set(kolab.HeaderMimeVersion, kolab.VersionV3)
	}
	h.Set("User-Agent", m.ProductID)
	h.Set("MIME-Version", "1.0")
	h.SetContentType("multipart/mixed", nil)

	buf := &bytes.Buffer{}
	w, err := message.CreateWriter(buf, h.Header)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := writeExplanation(w); err != nil {
		return nil, err
	}
	if err := writeMainPart(w, m.ContentType, m.XML); err != nil {
		return nil, err
	}
	for _, a := range m.Attachments {
		cid := ""
		if m.V3 {
			if !a.IsCID() {
				// Referenced by URL only, the content lives elsewhere.
				continue
			}
			cid = a.ContentID()
			if !a.HasData() {
				log.Warn().Str("module", "envelope").Str("cid", cid).
					Msg("Skipping attachment without data")
				continue
			}
		} else if !a.HasData() {
			continue
		}
		if err := writeAttachmentPart(w, cid, a); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	log.Debug().Str("module", "envelope").Str("type", m.TypeToken).Bool("v3", m.V3).
		Int("size", buf.Len()).Msg("Built message")
	return buf.Bytes(), nil
}

func writeExplanation(w *message.Writer) error {
	var ph message.Header
	ph.SetContentType("text/plain", map[string]string{"charset": "us-ascii"})
	ph.Set("Content-Transfer-Encoding", "7bit")
	return writePart(w, ph, []byte(Explanation))
}

func writeMainPart(w *message.Writer, contentType string, xml []byte) error {
	var ph message.Header
	ph.SetContentType(contentType, map[string]string{"name": kolab.ObjectFilename})
	ph.Set("Content-Transfer-Encoding", "quoted-printable")
	ph.SetContentDisposition("attachment", map[string]string{"filename": kolab.ObjectFilename})
	return writePart(w, ph, xml)
}

func writeAttachmentPart(w *message.Writer, cid string, a kolab.Attachment) error {
	mimeType := a.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	var ph message.Header
	if cid != "" {
		ph.Set("Content-ID", "<"+cid+">")
	}
	typeParams := map[string]string{}
	dispParams := map[string]string{}
	if a.Label != "" {
		typeParams["name"] = a.Label
		dispParams["filename"] = a.Label
	}
	ph.SetContentType(mimeType, typeParams)
	ph.Set("Content-Transfer-Encoding", "base64")
	ph.SetContentDisposition("attachment", dispParams)
	return writePart(w, ph, a.Data)
}

func writePart(w *message.Writer, h message.Header, body []byte) error {
	pw, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	if _, err := pw.Write(body); err != nil {
		return fmt.Errorf("write part: %w", err)
	}
	return pw.Close()
}

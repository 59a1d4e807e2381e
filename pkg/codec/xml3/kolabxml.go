package xml3

import (
	"encoding/base64"
	"encoding/xml"
	"strings"
	"time"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/note"
)

const (
	nsKolab      = "http://kolab.org"
	kolabVersion = "3.0"
	layoutKolab  = "2006-01-02T15:04:05Z"

	configDictionary = "dictionary"
	configRelation   = "relation"

	customContentType = "X-CONTENT-TYPE"
	contentTypeHTML   = "text/html"
)

type attachmentXML struct {
	Label    string `xml:"label,attr,omitempty"`
	MimeType string `xml:"fmttype,attr,omitempty"`
	URI      string `xml:"uri,omitempty"`
	Binary   string `xml:"binary,omitempty"`
}

type customXML struct {
	Identifier string `xml:"identifier"`
	Value      string `xml:"value"`
}

type noteXML struct {
	XMLName        xml.Name        `xml:"note"`
	Xmlns          string          `xml:"xmlns,attr"`
	Version        string          `xml:"version,attr"`
	UID            string          `xml:"uid"`
	ProdID         string          `xml:"prodid"`
	Created        string          `xml:"creation-date"`
	LastModified   string          `xml:"last-modification-date"`
	Categories     []string        `xml:"categories"`
	Classification string          `xml:"classification,omitempty"`
	Summary        string          `xml:"summary"`
	Description    string          `xml:"description"`
	Color          string          `xml:"color,omitempty"`
	Attachments    []attachmentXML `xml:"attachment"`
	Custom         []customXML     `xml:"x-custom"`
}

type configurationXML struct {
	XMLName      xml.Name `xml:"configuration"`
	Xmlns        string   `xml:"xmlns,attr"`
	Version      string   `xml:"version,attr"`
	UID          string   `xml:"uid"`
	ProdID       string   `xml:"prodid"`
	Created      string   `xml:"creation-date"`
	LastModified string   `xml:"last-modification-date"`
	Type         string   `xml:"type"`
	Language     string   `xml:"language,omitempty"`
	Entries      []string `xml:"e"`
	Name         string   `xml:"name,omitempty"`
	RelationType string   `xml:"relationType,omitempty"`
	Color        string   `xml:"color,omitempty"`
	Priority     int      `xml:"priority,omitempty"`
	Members      []string `xml:"member"`
}

func formatKolabTime(dt kolab.DateTime) string {
	if dt.IsZero() {
		return ""
	}
	return dt.UTC().Format(layoutKolab)
}

func parseKolabTime(field, v string, sink *errsink.Sink) kolab.DateTime {
	v = strings.TrimSpace(v)
	if v == "" {
		return kolab.DateTime{}
	}
	t, err := time.ParseInLocation(layoutKolab, v, time.UTC)
	if err != nil {
		sink.Warnf("invalid %s %q: %v", field, v, err)
		return kolab.DateTime{}
	}
	return kolab.NewDateTime(t)
}

func marshalKolab(v any, what string, sink *errsink.Sink) []byte {
	data, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		sink.Criticalf("encoding %s: %v", what, err)
		return nil
	}
	return append(append([]byte(xml.Header), data...), '\n')
}

var noteCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		var doc noteXML
		if err := xml.Unmarshal(data, &doc); err != nil {
			sink.Errorf("parsing note: %v", err)
			return codec.Result{}
		}
		n := &kolab.Note{
			UID:            doc.UID,
			Created:        parseKolabTime("creation-date", doc.Created, sink),
			LastModified:   parseKolabTime("last-modification-date", doc.LastModified, sink),
			Classification: doc.Classification,
			Categories:     doc.Categories,
			Summary:        doc.Summary,
			Description:    doc.Description,
			Color:          doc.Color,
		}
		for _, c := range doc.Custom {
			if c.Identifier == customContentType && c.Value == contentTypeHTML {
				n.IsHTML = true
			}
		}
		for _, a := range doc.Attachments {
			att := kolab.Attachment{URI: a.URI, MimeType: a.MimeType, Label: a.Label}
			if a.Binary != "" {
				payload, err := base64.StdEncoding.DecodeString(strings.TrimSpace(a.Binary))
				if err != nil {
					sink.Errorf("invalid inline attachment %q: %v", a.Label, err)
				}
				att.Data = payload
			}
			n.Attachments = append(n.Attachments, att)
		}
		requireUID(n.UID, strict, sink)
		return codec.Result{Object: n}
	},
	WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
		n, ok := obj.(*kolab.Note)
		if !ok {
			sink.Criticalf("cannot write %T as note", obj)
			return nil
		}
		doc := noteXML{
			Xmlns:          nsKolab,
			Version:        kolabVersion,
			UID:            n.UID,
			ProdID:         opts.ProductID,
			Created:        formatKolabTime(n.Created),
			LastModified:   formatKolabTime(n.LastModified),
			Categories:     n.Categories,
			Classification: n.Classification,
			Summary:        n.Summary,
			Description:    n.Description,
			Color:          n.Color,
		}
		if n.IsHTML {
			body, err := note.HTML(n.Description)
			if err != nil {
				sink.Warnf("sanitizing note %q: %v", n.UID, err)
			} else {
				if body != n.Description {
					sink.Debugf("sanitized HTML body of note %q", n.UID)
				}
				doc.Description = body
			}
			doc.Custom = append(doc.Custom, customXML{Identifier: customContentType, Value: contentTypeHTML})
		}
		for _, a := range n.Attachments {
			ax := attachmentXML{Label: a.Label, MimeType: a.MimeType, URI: a.URI}
			if a.URI == "" && a.HasData() {
				ax.Binary = base64.StdEncoding.EncodeToString(a.Data)
			}
			doc.Attachments = append(doc.Attachments, ax)
		}
		return marshalKolab(doc, "note", sink)
	},
}

func readConfiguration(data []byte, want string, sink *errsink.Sink) *configurationXML {
	var doc configurationXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		sink.Errorf("parsing configuration: %v", err)
		return nil
	}
	if doc.Type != want {
		sink.Errorf("configuration of type %q is not a %s", doc.Type, want)
		return nil
	}
	return &doc
}

var dictionaryCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		doc := readConfiguration(data, configDictionary, sink)
		if doc == nil {
			return codec.Result{}
		}
		d := &kolab.Dictionary{
			UID:          doc.UID,
			Created:      parseKolabTime("creation-date", doc.Created, sink),
			LastModified: parseKolabTime("last-modification-date", doc.LastModified, sink),
			Language:     doc.Language,
			Entries:      doc.Entries,
		}
		requireUID(d.UID, strict, sink)
		return codec.Result{Object: d}
	},
	WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
		d, ok := obj.(*kolab.Dictionary)
		if !ok {
			sink.Criticalf("cannot write %T as dictionary", obj)
			return nil
		}
		return marshalKolab(configurationXML{
			Xmlns:        nsKolab,
			Version:      kolabVersion,
			UID:          d.UID,
			ProdID:       opts.ProductID,
			Created:      formatKolabTime(d.Created),
			LastModified: formatKolabTime(d.LastModified),
			Type:         configDictionary,
			Language:     d.Language,
			Entries:      d.Entries,
		}, "dictionary", sink)
	},
}

var relationCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		doc := readConfiguration(data, configRelation, sink)
		if doc == nil {
			return codec.Result{}
		}
		r := &kolab.Relation{
			UID:          doc.UID,
			Created:      parseKolabTime("creation-date", doc.Created, sink),
			LastModified: parseKolabTime("last-modification-date", doc.LastModified, sink),
			Name:         doc.Name,
			RelationType: doc.RelationType,
			Color:        doc.Color,
			Priority:     doc.Priority,
			Members:      doc.Members,
		}
		requireUID(r.UID, strict, sink)
		return codec.Result{Object: r}
	},
	WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
		r, ok := obj.(*kolab.Relation)
		if !ok {
			sink.Criticalf("cannot write %T as relation", obj)
			return nil
		}
		return marshalKolab(configurationXML{
			Xmlns:        nsKolab,
			Version:      kolabVersion,
			UID:          r.UID,
			ProdID:       opts.ProductID,
			Created:      formatKolabTime(r.Created),
			LastModified: formatKolabTime(r.LastModified),
			Type:         configRelation,
			Name:         r.Name,
			RelationType: r.RelationType,
			Color:        r.Color,
			Priority:     r.Priority,
			Members:      r.Members,
		}, "relation", sink)
	},
}

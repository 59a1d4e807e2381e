package xml2

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/note"
)

type noteXML struct {
	XMLName         xml.Name `xml:"note"`
	Version         string   `xml:"version,attr"`
	ProductID       string   `xml:"product-id,omitempty"`
	UID             string   `xml:"uid"`
	Created         string   `xml:"creation-date,omitempty"`
	LastModified    string   `xml:"last-modification-date,omitempty"`
	Sensitivity     string   `xml:"sensitivity,omitempty"`
	Categories      string   `xml:"categories,omitempty"`
	Summary         string   `xml:"summary,omitempty"`
	Body            string   `xml:"body,omitempty"`
	BackgroundColor string   `xml:"background-color,omitempty"`
	Inline          []string `xml:"inline-attachment"`
	Links           []string `xml:"link-attachment"`
}

// dictionaryXML is the legacy configuration object; only dictionaries are readable.
type dictionaryXML struct {
	XMLName      xml.Name `xml:"configuration"`
	Version      string   `xml:"version,attr"`
	UID          string   `xml:"uid"`
	Created      string   `xml:"creation-date,omitempty"`
	LastModified string   `xml:"last-modification-date,omitempty"`
	Type         string   `xml:"type"`
	Language     string   `xml:"language"`
	Entries      []string `xml:"e"`
}

var noteCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		var x noteXML
		if !unmarshal(data, &x, "note", sink) {
			return codec.Result{}
		}
		n := &kolab.Note{
			UID:            x.UID,
			Created:        parseDateTime("creation-date", x.Created, sink),
			LastModified:   parseDateTime("last-modification-date", x.LastModified, sink),
			Classification: classification(x.Sensitivity),
			Categories:     splitList(x.Categories),
			Summary:        x.Summary,
			Description:    x.Body,
			IsHTML:         note.IsRichText(x.Body),
			Color:          x.BackgroundColor,
		}
		for _, l := range x.Links {
			n.Attachments = append(n.Attachments, kolab.Attachment{URI: strings.TrimSpace(l)})
		}
		requireUID(n.UID, strict, sink)
		return codec.Result{Object: n, AttachmentNames: x.Inline}
	},
	WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
		n, ok := obj.(*kolab.Note)
		if !ok {
			sink.Criticalf("cannot write %T as note", obj)
			return nil
		}
		x := noteXML{
			Version:         formatVersion,
			ProductID:       opts.ProductID,
			UID:             n.UID,
			Created:         formatDateTime(n.Created, time.UTC),
			LastModified:    formatDateTime(n.LastModified, time.UTC),
			Sensitivity:     sensitivity(n.Classification),
			Categories:      strings.Join(n.Categories, ","),
			Summary:         n.Summary,
			Body:            n.Description,
			BackgroundColor: n.Color,
		}
		if n.IsHTML {
			x.Body = note.PlainText(n.Description)
		}
		for _, a := range n.Attachments {
			switch {
			case a.HasData():
				x.Inline = append(x.Inline, a.Label)
			case a.URI != "":
				x.Links = append(x.Links, a.URI)
			}
		}
		return marshal(x, "note", sink)
	},
}

var dictionaryCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		var x dictionaryXML
		if !unmarshal(data, &x, "configuration", sink) {
			return codec.Result{}
		}
		if x.Type != "dictionary" {
			sink.Errorf("configuration of type %q is not a dictionary", x.Type)
			return codec.Result{}
		}
		d := &kolab.Dictionary{
			UID:          x.UID,
			Created:      parseDateTime("creation-date", x.Created, sink),
			LastModified: parseDateTime("last-modification-date", x.LastModified, sink),
			Language:     x.Language,
			Entries:      x.Entries,
		}
		requireUID(d.UID, strict, sink)
		return codec.Result{Object: d}
	},
}

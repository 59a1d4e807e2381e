package xml2

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

type nameXML struct {
	Given  string `xml:"given-name,omitempty"`
	Middle string `xml:"middle-names,omitempty"`
	Last   string `xml:"last-name,omitempty"`
	Full   string `xml:"full-name,omitempty"`
	Prefix string `xml:"prefix,omitempty"`
	Suffix string `xml:"suffix,omitempty"`
}

type phoneXML struct {
	Type   string `xml:"type"`
	Number string `xml:"number"`
}

type addressXML struct {
	Type       string `xml:"type"`
	Street     string `xml:"street,omitempty"`
	Locality   string `xml:"locality,omitempty"`
	Region     string `xml:"region,omitempty"`
	PostalCode string `xml:"postal-code,omitempty"`
	Country    string `xml:"country,omitempty"`
}

type contactXML struct {
	XMLName      xml.Name     `xml:"contact"`
	Version      string       `xml:"version,attr"`
	ProductID    string       `xml:"product-id,omitempty"`
	UID          string       `xml:"uid"`
	LastModified string       `xml:"last-modification-date,omitempty"`
	Body         string       `xml:"body,omitempty"`
	Categories   string       `xml:"categories,omitempty"`
	Name         nameXML      `xml:"name"`
	Organization string       `xml:"organization,omitempty"`
	JobTitle     string       `xml:"job-title,omitempty"`
	NickName     string       `xml:"nick-name,omitempty"`
	WebPages     []string     `xml:"web-page"`
	Birthday     string       `xml:"birthday,omitempty"`
	Picture      string       `xml:"picture,omitempty"`
	Emails       []personXML  `xml:"email"`
	Phones       []phoneXML   `xml:"phone"`
	Addresses    []addressXML `xml:"address"`
}

type distListXML struct {
	XMLName      xml.Name    `xml:"distribution-list"`
	Version      string      `xml:"version,attr"`
	ProductID    string      `xml:"product-id,omitempty"`
	UID          string      `xml:"uid"`
	LastModified string      `xml:"last-modification-date,omitempty"`
	DisplayName  string      `xml:"display-name"`
	Members      []personXML `xml:"member"`
}

func hasType(types []string, t string) bool {
	for _, v := range types {
		if strings.EqualFold(v, t) {
			return true
		}
	}
	return false
}

func phoneType(types []string) string {
	fax := hasType(types, "fax")
	switch {
	case hasType(types, "work") && fax:
		return "businessfax"
	case hasType(types, "home") && fax:
		return "homefax"
	case hasType(types, "cell"):
		return "mobile"
	case hasType(types, "pager"):
		return "pager"
	case hasType(types, "work"):
		return "business1"
	case hasType(types, "home"):
		return "home1"
	}
	return "other"
}

func phoneTypes(legacy string) []string {
	switch legacy {
	case "business1", "business2":
		return []string{"work"}
	case "businessfax":
		return []string{"work", "fax"}
	case "home1", "home2":
		return []string{"home"}
	case "homefax":
		return []string{"home", "fax"}
	case "mobile":
		return []string{"cell"}
	case "pager":
		return []string{"pager"}
	}
	return nil
}

func addressType(types []string) string {
	switch {
	case hasType(types, "home"):
		return "home"
	case hasType(types, "work"):
		return "business"
	}
	return "other"
}

func addressTypes(legacy string) []string {
	switch legacy {
	case "home":
		return []string{"home"}
	case "business":
		return []string{"work"}
	}
	return nil
}

var contactCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		var x contactXML
		if !unmarshal(data, &x, "contact", sink) {
			return codec.Result{}
		}
		c := &kolab.Contact{
			UID:           x.UID,
			LastModified:  parseDateTime("last-modification-date", x.LastModified, sink),
			FormattedName: x.Name.Full,
			Name: kolab.Name{
				Family:     x.Name.Last,
				Given:      x.Name.Given,
				Additional: x.Name.Middle,
				Prefix:     x.Name.Prefix,
				Suffix:     x.Name.Suffix,
			},
			Nickname:     x.NickName,
			Organization: x.Organization,
			Title:        x.JobTitle,
			URLs:         x.WebPages,
			Note:         x.Body,
			Categories:   splitList(x.Categories),
			Birthday:     parseDateTime("birthday", x.Birthday, sink),
			PhotoURI:     x.Picture,
		}
		for _, e := range x.Emails {
			c.Emails = append(c.Emails, kolab.Email{Address: e.SMTPAddress})
		}
		for _, p := range x.Phones {
			c.Phones = append(c.Phones, kolab.Phone{Number: p.Number, Types: phoneTypes(p.Type)})
		}
		for _, a := range x.Addresses {
			c.Addresses = append(c.Addresses, kolab.Address{
				Types:    addressTypes(a.Type),
				Street:   a.Street,
				Locality: a.Locality,
				Region:   a.Region,
				Code:     a.PostalCode,
				Country:  a.Country,
			})
		}
		requireUID(c.UID, strict, sink)
		return codec.Result{Object: c}
	},
	WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
		c, ok := obj.(*kolab.Contact)
		if !ok {
			sink.Criticalf("cannot write %T as contact", obj)
			return nil
		}
		x := contactXML{
			Version:      formatVersion,
			ProductID:    opts.ProductID,
			UID:          c.UID,
			LastModified: formatDateTime(c.LastModified, time.UTC),
			Body:         c.Note,
			Categories:   strings.Join(c.Categories, ","),
			Name: nameXML{
				Given:  c.Name.Given,
				Middle: c.Name.Additional,
				Last:   c.Name.Family,
				Full:   c.FormattedName,
				Prefix: c.Name.Prefix,
				Suffix: c.Name.Suffix,
			},
			Organization: c.Organization,
			JobTitle:     c.Title,
			NickName:     c.Nickname,
			WebPages:     c.URLs,
			Birthday:     formatDateTime(c.Birthday, time.UTC),
			Picture:      c.PhotoURI,
		}
		for _, e := range c.Emails {
			x.Emails = append(x.Emails, personXML{DisplayName: c.FormattedName, SMTPAddress: e.Address})
		}
		for _, p := range c.Phones {
			x.Phones = append(x.Phones, phoneXML{Type: phoneType(p.Types), Number: p.Number})
		}
		for _, a := range c.Addresses {
			if a.POBox != "" || a.Extended != "" {
				sink.Debugf("post office box and extended address of %q are not stored in the legacy format", c.UID)
			}
			x.Addresses = append(x.Addresses, addressXML{
				Type:       addressType(a.Types),
				Street:     a.Street,
				Locality:   a.Locality,
				Region:     a.Region,
				PostalCode: a.Code,
				Country:    a.Country,
			})
		}
		return marshal(x, "contact", sink)
	},
}

var distListCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		var x distListXML
		if !unmarshal(data, &x, "distribution list", sink) {
			return codec.Result{}
		}
		d := &kolab.DistList{
			UID:          x.UID,
			LastModified: parseDateTime("last-modification-date", x.LastModified, sink),
			Name:         x.DisplayName,
		}
		for i := range x.Members {
			d.Members = append(d.Members, x.Members[i].person())
		}
		requireUID(d.UID, strict, sink)
		return codec.Result{Object: d}
	},
	WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
		d, ok := obj.(*kolab.DistList)
		if !ok {
			sink.Criticalf("cannot write %T as distribution list", obj)
			return nil
		}
		x := distListXML{
			Version:      formatVersion,
			ProductID:    opts.ProductID,
			UID:          d.UID,
			LastModified: formatDateTime(d.LastModified, time.UTC),
			DisplayName:  d.Name,
		}
		for _, m := range d.Members {
			x.Members = append(x.Members, personXML{DisplayName: m.Name, SMTPAddress: m.Email, UID: m.UID})
		}
		return marshal(x, "distribution list", sink)
	},
}

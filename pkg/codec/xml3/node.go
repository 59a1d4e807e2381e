// Package xml3 implements the Kolab 3 XML formats: xCal (RFC 6321) for incidences and free/busy
// reports, xCard (RFC 6351) for contacts and distribution lists, and the Kolab schema for notes
// and configuration objects.
package xml3

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// node is a generic XML element, used to walk xCal and xCard documents whose element names
// carry the data.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

func (n *node) name() string {
	return n.XMLName.Local
}

func (n *node) child(name string) *node {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

func (n *node) childText(name string) string {
	if c := n.child(name); c != nil {
		return strings.TrimSpace(c.Text)
	}
	return ""
}

func parseNode(data []byte) (*node, error) {
	root := &node{}
	if err := xml.Unmarshal(data, root); err != nil {
		return nil, err
	}
	return root, nil
}

// writer wraps an xml.Encoder with the element helpers the codecs share.
type writer struct {
	buf bytes.Buffer
	enc *xml.Encoder
	err error
}

func newWriter() *writer {
	w := &writer{}
	w.buf.WriteString(xml.Header)
	w.enc = xml.NewEncoder(&w.buf)
	w.enc.Indent("", "  ")
	return w
}

func (w *writer) start(name string, attrs ...xml.Attr) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (w *writer) end(name string) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *writer) text(name, value string) {
	w.start(name)
	if w.err == nil && value != "" {
		w.err = w.enc.EncodeToken(xml.CharData(value))
	}
	w.end(name)
}

func (w *writer) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if err := w.enc.Flush(); err != nil {
		return nil, err
	}
	w.buf.WriteByte('\n')
	return w.buf.Bytes(), nil
}

func xmlns(ns string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: ns}
}

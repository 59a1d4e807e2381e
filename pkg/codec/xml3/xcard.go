package xml3

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emersion/go-vcard"
)

const nsXCard = "urn:ietf:params:xml:ns:vcard-4.0"

// Structured values and their component elements.
var (
	nameParts    = []string{"surname", "given", "additional", "prefix", "suffix"}
	addressParts = []string{"pobox", "ext", "street", "locality", "region", "code", "country"}
)

var cardValueTypes = map[string]string{
	vcard.FieldUID:      "uri",
	vcard.FieldURL:      "uri",
	vcard.FieldPhoto:    "uri",
	vcard.FieldMember:   "uri",
	vcard.FieldSource:   "uri",
	vcard.FieldRevision: "timestamp",
}

var cardOrder = []string{
	vcard.FieldUID, "X-KOLAB-VERSION", vcard.FieldProductID, vcard.FieldRevision,
	vcard.FieldKind, vcard.FieldFormattedName, vcard.FieldName, vcard.FieldNickname,
	vcard.FieldBirthday, vcard.FieldOrganization, vcard.FieldTitle, vcard.FieldNote,
	vcard.FieldCategories, vcard.FieldEmail, vcard.FieldTelephone, vcard.FieldAddress,
	vcard.FieldURL, vcard.FieldPhoto, vcard.FieldMember,
}

// encodeXCard renders a card as an xCard document.
func encodeXCard(card vcard.Card) ([]byte, error) {
	w := newWriter()
	w.start("vcards", xmlns(nsXCard))
	w.start("vcard")
	seen := make(map[string]bool)
	var rest []string
	for _, k := range cardOrder {
		seen[k] = true
	}
	for k := range card {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range append(append([]string(nil), cardOrder...), rest...) {
		for _, f := range card[k] {
			writeCardField(w, k, f)
		}
	}
	w.end("vcard")
	w.end("vcards")
	return w.bytes()
}

func writeCardField(w *writer, name string, f *vcard.Field) {
	el := strings.ToLower(name)
	w.start(el)
	if len(f.Params) > 0 {
		var pnames []string
		for p := range f.Params {
			pnames = append(pnames, p)
		}
		sort.Strings(pnames)
		w.start("parameters")
		for _, p := range pnames {
			pel := strings.ToLower(p)
			w.start(pel)
			ptype := "text"
			if p == "PREF" {
				ptype = "integer"
			}
			for _, v := range f.Params[p] {
				w.text(ptype, v)
			}
			w.end(pel)
		}
		w.end("parameters")
	}
	switch name {
	case vcard.FieldName:
		writeStructured(w, nameParts, f.Value)
	case vcard.FieldAddress:
		writeStructured(w, addressParts, f.Value)
	case vcard.FieldCategories:
		for _, v := range strings.Split(f.Value, ",") {
			w.text("text", v)
		}
	case vcard.FieldBirthday, vcard.FieldAnniversary:
		if strings.Contains(f.Value, "T") {
			w.text("date-time", f.Value)
		} else {
			w.text("date", f.Value)
		}
	default:
		vtype, ok := cardValueTypes[name]
		if !ok {
			vtype = "text"
		}
		w.text(vtype, f.Value)
	}
	w.end(el)
}

func writeStructured(w *writer, parts []string, value string) {
	values := strings.Split(value, ";")
	for i, p := range parts {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		w.text(p, v)
	}
}

// decodeXCard parses the first vcard of an xCard document.
func decodeXCard(data []byte) (vcard.Card, error) {
	root, err := parseNode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing xCard: %w", err)
	}
	vc := root
	if root.name() == "vcards" {
		vc = root.child("vcard")
	}
	if vc == nil || vc.name() != "vcard" {
		return nil, fmt.Errorf("root element %q holds no vcard", root.name())
	}
	card := make(vcard.Card)
	for i := range vc.Nodes {
		n := &vc.Nodes[i]
		name := strings.ToUpper(n.name())
		f := &vcard.Field{Params: make(vcard.Params)}
		var values []string
		for j := range n.Nodes {
			v := &n.Nodes[j]
			if v.name() != "parameters" {
				continue
			}
			for _, p := range v.Nodes {
				pname := strings.ToUpper(p.name())
				for _, pv := range p.Nodes {
					f.Params[pname] = append(f.Params[pname], strings.TrimSpace(pv.Text))
				}
			}
		}
		switch name {
		case vcard.FieldName:
			f.Value = readStructured(n, nameParts)
		case vcard.FieldAddress:
			f.Value = readStructured(n, addressParts)
		default:
			for j := range n.Nodes {
				if n.Nodes[j].name() == "parameters" {
					continue
				}
				values = append(values, strings.TrimSpace(n.Nodes[j].Text))
			}
			f.Value = strings.Join(values, ",")
		}
		card[name] = append(card[name], f)
	}
	return card, nil
}

func readStructured(n *node, parts []string) string {
	values := make([]string, len(parts))
	for i, p := range parts {
		values[i] = n.childText(p)
	}
	return strings.Join(values, ";")
}

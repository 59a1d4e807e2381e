package freebusy

import (
	"bytes"
	"fmt"

	"github.com/emersion/go-ical"

	"github.com/kolabformat/kolabformat/pkg/conversion"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// ToIFB renders fb as an iTIP PUBLISH message, the format free/busy servers serve to clients.
// Event details are never included.
func ToIFB(fb *kolab.Freebusy, productID string) ([]byte, error) {
	if fb == nil {
		return nil, fmt.Errorf("no free/busy report")
	}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, kolab.ProductID(productID))
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Children = append(cal.Children, conversion.FreebusyToComponent(fb, true))

	buf := &bytes.Buffer{}
	if err := ical.NewEncoder(buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode free/busy: %w", err)
	}
	return buf.Bytes(), nil
}

package xml3

import (
	"strings"

	"github.com/emersion/go-ical"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/conversion"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// calendarComponent decodes an xCal document and returns its first component named name.
func calendarComponent(data []byte, name string, sink *errsink.Sink) *ical.Component {
	cal, err := decodeXCal(data)
	if err != nil {
		sink.Errorf("%v", err)
		return nil
	}
	for _, c := range cal.Children {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	sink.Errorf("xCal document holds no %s component", name)
	return nil
}

func requireUID(uid string, strict bool, sink *errsink.Sink) {
	if uid == "" && strict {
		sink.Errorf("object without uid")
	}
}

func incidenceCodec(t kolab.ObjectType) codec.Codec {
	name := conversion.ComponentName(t)
	return codec.Funcs{
		ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
			c := calendarComponent(data, name, sink)
			if c == nil {
				return codec.Result{}
			}
			inc := conversion.IncidenceFromComponent(c, sink)
			if inc == nil {
				return codec.Result{}
			}
			requireUID(inc.UID, strict, sink)
			return codec.Result{Object: inc}
		},
		WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
			inc, ok := obj.(*kolab.Incidence)
			if !ok || inc.Kind != t {
				sink.Criticalf("cannot write %T as %v", obj, t)
				return nil
			}
			data, err := encodeXCal(newCalendar(opts.ProductID, conversion.IncidenceToComponent(inc)))
			if err != nil {
				sink.Criticalf("encoding %v: %v", t, err)
				return nil
			}
			return data
		},
	}
}

var freebusyCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		c := calendarComponent(data, conversion.CompFreebusy, sink)
		if c == nil {
			return codec.Result{}
		}
		fb := conversion.FreebusyFromComponent(c, sink)
		if fb == nil {
			return codec.Result{}
		}
		requireUID(fb.UID, strict, sink)
		return codec.Result{Object: fb}
	},
	WriteFunc: func(obj kolab.Object, opts codec.WriteOptions, sink *errsink.Sink) []byte {
		fb, ok := obj.(*kolab.Freebusy)
		if !ok {
			sink.Criticalf("cannot write %T as freebusy", obj)
			return nil
		}
		data, err := encodeXCal(newCalendar(opts.ProductID, conversion.FreebusyToComponent(fb, false)))
		if err != nil {
			sink.Criticalf("encoding freebusy: %v", err)
			return nil
		}
		return data
	},
}

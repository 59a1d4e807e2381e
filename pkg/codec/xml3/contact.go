package xml3

import (
	"github.com/emersion/go-vcard"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/conversion"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

func readCard(data []byte, sink *errsink.Sink) vcard.Card {
	card, err := decodeXCard(data)
	if err != nil {
		sink.Errorf("%v", err)
		return nil
	}
	return card
}

func writeCard(card vcard.Card, opts codec.WriteOptions, sink *errsink.Sink) []byte {
	card["X-KOLAB-VERSION"] = []*vcard.Field{{Value: KolabFormatVersion}}
	if opts.ProductID != "" {
		card[vcard.FieldProductID] = []*vcard.Field{{Value: opts.ProductID}}
	}
	data, err := encodeXCard(card)
	if err != nil {
		sink.Criticalf("encoding xCard: %v", err)
		return nil
	}
	return data
}

var contactCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		card := readCard(data, sink)
		if card == nil {
			return codec.Result{}
		}
		c := conversion.ContactFromCard(card, sink)
		if c == nil {
			return codec.Result{}
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
		return writeCard(conversion.ContactToCard(c), opts, sink)
	},
}

var distListCodec = codec.Funcs{
	ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
		card := readCard(data, sink)
		if card == nil {
			return codec.Result{}
		}
		d := conversion.DistListFromCard(card, sink)
		if d == nil {
			return codec.Result{}
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
		return writeCard(conversion.DistListToCard(d), opts, sink)
	},
}

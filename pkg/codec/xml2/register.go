package xml2

import (
	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// Register installs the legacy codecs. The dictionary codec only reads; free/busy reports and
// relations have no legacy format.
func Register(r *codec.Registry) {
	r.Register(kolab.EventObject, kolab.KolabV2, eventCodec)
	r.Register(kolab.TodoObject, kolab.KolabV2, taskCodec)
	r.Register(kolab.JournalObject, kolab.KolabV2, journalCodec)
	r.Register(kolab.ContactObject, kolab.KolabV2, contactCodec)
	r.Register(kolab.DistlistObject, kolab.KolabV2, distListCodec)
	r.Register(kolab.NoteObject, kolab.KolabV2, noteCodec)
	r.Register(kolab.DictionaryConfigurationObject, kolab.KolabV2, dictionaryCodec)
}

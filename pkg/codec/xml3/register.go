package xml3

import (
	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// Register installs the Kolab 3 codecs for every kind except relations.
func Register(r *codec.Registry) {
	for _, t := range []kolab.ObjectType{kolab.EventObject, kolab.TodoObject, kolab.JournalObject} {
		r.Register(t, kolab.KolabV3, incidenceCodec(t))
	}
	r.Register(kolab.FreebusyObject, kolab.KolabV3, freebusyCodec)
	r.Register(kolab.ContactObject, kolab.KolabV3, contactCodec)
	r.Register(kolab.DistlistObject, kolab.KolabV3, distListCodec)
	r.Register(kolab.NoteObject, kolab.KolabV3, noteCodec)
	r.Register(kolab.DictionaryConfigurationObject, kolab.KolabV3, dictionaryCodec)
}

// RegisterRelations installs the relation configuration codec.
func RegisterRelations(r *codec.Registry) {
	r.Register(kolab.RelationConfigurationObject, kolab.KolabV3, relationCodec)
}

package kolab_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		token string
		want  kolab.ObjectType
	}{
		{"application/x-vnd.kolab.event", kolab.EventObject},
		{"application/x-vnd.kolab.task", kolab.TodoObject},
		{"application/x-vnd.kolab.journal", kolab.JournalObject},
		{"application/x-vnd.kolab.contact", kolab.ContactObject},
		{"application/x-vnd.kolab.contact.distlist", kolab.DistlistObject},
		{"application/x-vnd.kolab.distribution-list", kolab.DistlistObject},
		{"application/x-vnd.kolab.note", kolab.NoteObject},
		{"application/x-vnd.kolab.freebusy", kolab.FreebusyObject},
		{"application/x-vnd.kolab.configuration", kolab.DictionaryConfigurationObject},
		{"application/x-vnd.kolab.configuration.dictionary", kolab.DictionaryConfigurationObject},
		{"application/x-vnd.kolab.configuration.dictionary.de", kolab.DictionaryConfigurationObject},
		{"application/x-vnd.kolab.configuration.relation", kolab.RelationConfigurationObject},
	}
	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			sink := errsink.NewWithLogger(zerolog.Nop())
			assert.Equal(t, tc.want, kolab.Classify(tc.token, sink))
			assert.Equal(t, 0, sink.Len())
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	sink := errsink.NewWithLogger(zerolog.Nop())
	assert.Equal(t, kolab.InvalidObject, kolab.Classify("text/plain", sink))
	assert.Equal(t, errsink.Warning, sink.Worst())
	assert.Equal(t, 1, sink.Len())
}

func TestTokensAreTotal(t *testing.T) {
	types := []kolab.ObjectType{
		kolab.EventObject,
		kolab.TodoObject,
		kolab.JournalObject,
		kolab.ContactObject,
		kolab.DistlistObject,
		kolab.NoteObject,
		kolab.FreebusyObject,
		kolab.DictionaryConfigurationObject,
		kolab.RelationConfigurationObject,
	}
	tokens := make(map[string]kolab.ObjectType)
	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			sink := errsink.NewWithLogger(zerolog.Nop())
			token := kolab.TypeToken(typ, sink)
			assert.NotEmpty(t, token)
			assert.NotEmpty(t, kolab.MimeContentType(typ, sink))
			assert.Equal(t, 0, sink.Len())
			assert.Equal(t, typ, kolab.Classify(token, sink), "token must classify back")
			_, dup := tokens[token]
			assert.False(t, dup, "duplicate token %q", token)
			tokens[token] = typ
		})
	}
}

func TestInvalidTypeIsCritical(t *testing.T) {
	sink := errsink.NewWithLogger(zerolog.Nop())
	assert.Equal(t, "", kolab.TypeToken(kolab.InvalidObject, sink))
	assert.Equal(t, errsink.Critical, sink.Worst())

	sink.Clear()
	assert.Equal(t, "", kolab.MimeContentType(kolab.InvalidObject, sink))
	assert.Equal(t, errsink.Critical, sink.Worst())

	sink.Clear()
	assert.Equal(t, "", kolab.LegacyContentType(kolab.FreebusyObject, sink))
	assert.Equal(t, errsink.Critical, sink.Worst())
}

func TestMimeContentTypes(t *testing.T) {
	assert.Equal(t, kolab.MimeTypeXCal, kolab.MimeContentType(kolab.FreebusyObject, nil))
	assert.Equal(t, kolab.MimeTypeXCard, kolab.MimeContentType(kolab.DistlistObject, nil))
	assert.Equal(t, kolab.MimeTypeKolab, kolab.MimeContentType(kolab.NoteObject, nil))
	assert.Equal(t, "application/xml",
		kolab.LegacyContentType(kolab.DictionaryConfigurationObject, nil))
	assert.Equal(t, kolab.TypeDistlistV2, kolab.LegacyContentType(kolab.DistlistObject, nil))
}

func TestProductID(t *testing.T) {
	assert.Equal(t, kolab.LibVersion, kolab.ProductID(""))
	assert.Equal(t, "Roundcube "+kolab.LibVersion, kolab.ProductID("Roundcube"))
}

func TestParseVersion(t *testing.T) {
	v, ok := kolab.ParseVersion("v2")
	assert.True(t, ok)
	assert.Equal(t, kolab.KolabV2, v)
	v, ok = kolab.ParseVersion("3.0")
	assert.True(t, ok)
	assert.Equal(t, kolab.KolabV3, v)
	_, ok = kolab.ParseVersion("4")
	assert.False(t, ok)
}

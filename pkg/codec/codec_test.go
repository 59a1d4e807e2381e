package codec_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
)

func TestRegistry(t *testing.T) {
	r := codec.NewRegistry()
	_, ok := r.Lookup(kolab.NoteObject, kolab.KolabV3)
	assert.False(t, ok)

	c := codec.Funcs{
		ReadFunc: func(data []byte, strict bool, sink *errsink.Sink) codec.Result {
			return codec.Result{Object: &kolab.Note{Summary: string(data)}}
		},
	}
	r.Register(kolab.NoteObject, kolab.KolabV3, c)
	r.Register(kolab.EventObject, kolab.KolabV2, c)

	got, ok := r.Lookup(kolab.NoteObject, kolab.KolabV3)
	require.True(t, ok)
	res := got.Read([]byte("hello"), false, nil)
	assert.Equal(t, "hello", res.Object.(*kolab.Note).Summary)

	_, ok = r.Lookup(kolab.NoteObject, kolab.KolabV2)
	assert.False(t, ok)

	assert.Equal(t, []codec.Key{
		{Type: kolab.EventObject, Version: kolab.KolabV2},
		{Type: kolab.NoteObject, Version: kolab.KolabV3},
	}, r.Keys())
}

func TestFuncsMissingHalf(t *testing.T) {
	sink := errsink.NewWithLogger(zerolog.Nop())
	c := codec.Funcs{}
	assert.Nil(t, c.Write(&kolab.Note{}, codec.WriteOptions{}, sink))
	assert.Equal(t, errsink.Critical, sink.Worst())
	assert.Nil(t, c.Read(nil, false, sink).Object)
}

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"
	"github.com/google/subcommands"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/conversion"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/freebusy"
	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/object"
)

type convertCmd struct {
	version string
	output  string
}

func (*convertCmd) Name() string {
	return "convert"
}

func (*convertCmd) Synopsis() string {
	return "rewrite a Kolab object in another format version"
}

func (*convertCmd) Usage() string {
	return `convert [options] <file>:
	read a Kolab object and write it in the configured (or given) format version
`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.version, "version", "", "Target format version, v2 or v3 (default KOLAB_VERSION)")
	f.StringVar(&c.output, "o", "-", "Output file")
}

func (c *convertCmd) Execute(
	_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path := f.Arg(0)
	if path == "" {
		return usage("file required")
	}
	target, ok := conf.WriteVersion()
	if c.version != "" {
		target, ok = kolab.ParseVersion(c.version)
	}
	if !ok {
		return usage("version must be v2 or v3")
	}
	raw, err := readInput(path)
	if err != nil {
		return fatal("Couldn't read object", err)
	}
	reg := codecs()
	sink := errsink.New()
	reader := object.NewReader(reg, sink)
	if reader.Parse(raw) == kolab.InvalidObject {
		return reportSink(path, sink)
	}
	if s := reportSink(path, sink); s != subcommands.ExitSuccess {
		return s
	}
	writer := object.NewWriter(reg, sink)
	out := writer.Write(reader.Object(), target, codec.WriteOptions{
		ProductID: conf.ProductID,
		Timezone:  conf.Timezone,
	})
	if s := reportSink(path, sink); s != subcommands.ExitSuccess || out == nil {
		return subcommands.ExitFailure
	}
	if err := writeOutput(c.output, out); err != nil {
		return fatal("Couldn't write object", err)
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string {
	return "export"
}

func (*exportCmd) Synopsis() string {
	return "export a Kolab object as iCalendar or vCard"
}

func (*exportCmd) Usage() string {
	return `export [options] <file>:
	write incidences and free/busy reports as iCalendar, contacts and lists as vCard 4.0
`
}

func (e *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.output, "o", "-", "Output file")
}

func (e *exportCmd) Execute(
	_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path := f.Arg(0)
	if path == "" {
		return usage("file required")
	}
	raw, err := readInput(path)
	if err != nil {
		return fatal("Couldn't read object", err)
	}
	sink := errsink.New()
	reader := object.NewReader(codecs(), sink)
	if reader.Parse(raw) == kolab.InvalidObject {
		return reportSink(path, sink)
	}
	if s := reportSink(path, sink); s != subcommands.ExitSuccess {
		return s
	}
	out, err := export(reader.Object())
	if err != nil {
		return fatal("Couldn't export object", err)
	}
	if err := writeOutput(e.output, out); err != nil {
		return fatal("Couldn't write export", err)
	}
	return subcommands.ExitSuccess
}

// export renders obj in its interchange format.
func export(obj kolab.Object) ([]byte, error) {
	buf := &bytes.Buffer{}
	switch o := obj.(type) {
	case *kolab.Incidence:
		cal := ical.NewCalendar()
		cal.Props.SetText(ical.PropProductID, kolab.ProductID(conf.ProductID))
		cal.Props.SetText(ical.PropVersion, "2.0")
		cal.Children = append(cal.Children, conversion.IncidenceToComponent(o))
		if err := ical.NewEncoder(buf).Encode(cal); err != nil {
			return nil, fmt.Errorf("encode calendar: %w", err)
		}
	case *kolab.Freebusy:
		return freebusy.ToIFB(o, conf.ProductID)
	case *kolab.Contact:
		if err := encodeCard(buf, conversion.ContactToCard(o)); err != nil {
			return nil, err
		}
	case *kolab.DistList:
		if err := encodeCard(buf, conversion.DistListToCard(o)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%v objects have no interchange format", obj.Type())
	}
	return buf.Bytes(), nil
}

func encodeCard(buf *bytes.Buffer, card vcard.Card) error {
	vcard.ToV4(card)
	if err := vcard.NewEncoder(buf).Encode(card); err != nil {
		return fmt.Errorf("encode card: %w", err)
	}
	return nil
}

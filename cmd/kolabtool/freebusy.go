package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/freebusy"
	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/object"
)

type freebusyCmd struct {
	start  string
	end    string
	email  string
	name   string
	ifb    bool
	output string
}

func (*freebusyCmd) Name() string {
	return "freebusy"
}

func (*freebusyCmd) Synopsis() string {
	return "generate a free/busy report from events"
}

func (*freebusyCmd) Usage() string {
	return `freebusy [options] <event file>...:
	generate the free/busy report of the events within a window, written as a Kolab
	object or, with -ifb, as iCalendar
`
}

func (fb *freebusyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&fb.start, "start", "", "Window start, a date (2006-01-02) or RFC 3339 time")
	f.StringVar(&fb.end, "end", "", "Window end, a date (2006-01-02) or RFC 3339 time")
	f.StringVar(&fb.email, "email", "", "Organizer email")
	f.StringVar(&fb.name, "name", "", "Organizer name")
	f.BoolVar(&fb.ifb, "ifb", false, "Write iCalendar instead of a Kolab object")
	f.StringVar(&fb.output, "o", "-", "Output file")
}

func (fb *freebusyCmd) Execute(
	_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usage("event file required")
	}
	start, err := parseWindow(fb.start)
	if err != nil {
		return usage(fmt.Sprintf("invalid -start: %v", err))
	}
	end, err := parseWindow(fb.end)
	if err != nil {
		return usage(fmt.Sprintf("invalid -end: %v", err))
	}
	reg := codecs()
	sink := errsink.New()
	reader := object.NewReader(reg, sink)
	var events []*kolab.Incidence
	for _, path := range f.Args() {
		raw, err := readInput(path)
		if err != nil {
			return fatal("Couldn't read event", err)
		}
		reader.Parse(raw)
		if s := reportSink(path, sink); s != subcommands.ExitSuccess {
			return s
		}
		ev := reader.Event()
		if ev == nil {
			return usage(fmt.Sprintf("%s: not an event", path))
		}
		events = append(events, ev)
	}
	sink.Clear()
	report := freebusy.Generate(events, start, end, kolab.Person{Name: fb.name, Email: fb.email}, sink)
	if s := reportSink("freebusy", sink); s != subcommands.ExitSuccess {
		return s
	}
	var out []byte
	if fb.ifb {
		out, err = freebusy.ToIFB(report, conf.ProductID)
		if err != nil {
			return fatal("Couldn't export report", err)
		}
	} else {
		// Free/busy reports only exist in the V3 format.
		writer := object.NewWriter(reg, sink)
		out = writer.Write(report, kolab.KolabV3, codec.WriteOptions{ProductID: conf.ProductID})
		if s := reportSink("freebusy", sink); s != subcommands.ExitSuccess || out == nil {
			return subcommands.ExitFailure
		}
	}
	if err := writeOutput(fb.output, out); err != nil {
		return fatal("Couldn't write report", err)
	}
	return subcommands.ExitSuccess
}

type ifbCmd struct {
	email  string
	name   string
	output string
}

func (*ifbCmd) Name() string {
	return "ifb"
}

func (*ifbCmd) Synopsis() string {
	return "merge free/busy objects into one iCalendar report"
}

func (*ifbCmd) Usage() string {
	return `ifb [options] <freebusy file>...:
	aggregate Kolab free/busy objects and write the result as an iTIP PUBLISH message
`
}

func (i *ifbCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&i.email, "email", "", "Organizer email of the merged report")
	f.StringVar(&i.name, "name", "", "Organizer name of the merged report")
	f.StringVar(&i.output, "o", "-", "Output file")
}

func (i *ifbCmd) Execute(
	_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usage("free/busy file required")
	}
	sink := errsink.New()
	reader := object.NewReader(codecs(), sink)
	var list []*kolab.Freebusy
	for _, path := range f.Args() {
		raw, err := readInput(path)
		if err != nil {
			return fatal("Couldn't read free/busy", err)
		}
		reader.Parse(raw)
		if s := reportSink(path, sink); s != subcommands.ExitSuccess {
			return s
		}
		report := reader.Freebusy()
		if report == nil {
			return usage(fmt.Sprintf("%s: not a free/busy object", path))
		}
		list = append(list, report)
	}
	merged := freebusy.Aggregate(list, i.email, i.name, true)
	out, err := freebusy.ToIFB(merged, conf.ProductID)
	if err != nil {
		return fatal("Couldn't export report", err)
	}
	if err := writeOutput(i.output, out); err != nil {
		return fatal("Couldn't write report", err)
	}
	return subcommands.ExitSuccess
}

// parseWindow reads a window bound, a date yielding a date-only value.
func parseWindow(s string) (kolab.DateTime, error) {
	if s == "" {
		return kolab.DateTime{}, fmt.Errorf("missing value")
	}
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return kolab.NewDate(d.Year(), d.Month(), d.Day()), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return kolab.DateTime{}, err
	}
	return kolab.NewDateTime(t), nil
}

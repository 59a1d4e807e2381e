package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/kolab"
	"github.com/kolabformat/kolabformat/pkg/object"
)

type readCmd struct {
	objType string
	version string
	strict  bool
}

func (*readCmd) Name() string {
	return "read"
}

func (*readCmd) Synopsis() string {
	return "summarize Kolab objects"
}

func (*readCmd) Usage() string {
	return `read [options] <file>...:
	parse Kolab MIME messages and print their type, version and uid
`
}

func (r *readCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.objType, "type", "", "Object type, overrides detection (event, todo, contact, ...)")
	f.StringVar(&r.version, "version", "", "Format version, overrides detection (v2 or v3)")
	f.BoolVar(&r.strict, "strict", false, "Report objects without a uid")
}

func (r *readCmd) Execute(
	_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usage("file required")
	}
	sink := errsink.New()
	reader := object.NewReader(codecs(), sink)
	reader.Strict = r.strict
	if r.objType != "" {
		t := kolab.ParseObjectType(r.objType)
		if t == kolab.InvalidObject {
			return usage(fmt.Sprintf("unknown object type %q", r.objType))
		}
		reader.SetObjectType(t)
	}
	if r.version != "" {
		v, ok := kolab.ParseVersion(r.version)
		if !ok {
			return usage(fmt.Sprintf("unknown version %q", r.version))
		}
		reader.SetVersion(v)
	}
	status := subcommands.ExitSuccess
	for _, path := range f.Args() {
		raw, err := readInput(path)
		if err != nil {
			return fatal("Couldn't read object", err)
		}
		t := reader.Parse(raw)
		if t == kolab.InvalidObject {
			fmt.Printf("%s: invalid\n", path)
		} else {
			fmt.Printf("%s: %v v%v uid=%s\n", path, t, reader.Version(), describe(reader.Object()))
		}
		if s := reportSink(path, sink); s != subcommands.ExitSuccess {
			status = s
		}
	}
	return status
}

// describe returns the uid of obj followed by a short detail, if it has one.
func describe(obj kolab.Object) string {
	switch o := obj.(type) {
	case *kolab.Incidence:
		return fmt.Sprintf("%s summary=%q attachments=%d", o.UID, o.Summary, len(o.Attachments))
	case *kolab.Contact:
		return fmt.Sprintf("%s name=%q", o.UID, o.FormattedName)
	case *kolab.DistList:
		return fmt.Sprintf("%s members=%d", o.UID, len(o.Members))
	case *kolab.Note:
		return fmt.Sprintf("%s summary=%q html=%v", o.UID, o.Summary, o.IsHTML)
	case *kolab.Dictionary:
		return fmt.Sprintf("%s language=%q entries=%d", o.UID, o.Language, len(o.Entries))
	case *kolab.Relation:
		return fmt.Sprintf("%s name=%q members=%d", o.UID, o.Name, len(o.Members))
	case *kolab.Freebusy:
		return fmt.Sprintf("%s periods=%d", o.UID, len(o.Periods))
	}
	fmt.Fprintf(os.Stderr, "unexpected object %T\n", obj)
	return ""
}

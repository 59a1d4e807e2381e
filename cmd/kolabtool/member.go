package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/relation"
	"github.com/kolabformat/kolabformat/pkg/storage"
)

type memberCmd struct {
	folder  string
	resolve string
}

func (*memberCmd) Name() string {
	return "member"
}

func (*memberCmd) Synopsis() string {
	return "decode relation member URIs, or address stored messages"
}

func (*memberCmd) Usage() string {
	return `member <uri>...:
	print the fields of relation member URIs
member -folder <folder> [-resolve <uri>] <file>...:
	store message files in a folder such as user/jane@example.org/Calendar, print the
	member URI of each and optionally resolve a member against the folder; with
	KOLAB_STORAGE_TYPE=file the folder persists between runs
`
}

func (m *memberCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&m.folder, "folder", "", "Folder the files are stored in")
	f.StringVar(&m.resolve, "resolve", "", "Member URI to resolve against the stored files")
}

func (m *memberCmd) Execute(
	_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usage("member URI or file required")
	}
	if m.folder == "" {
		return m.parse(f.Args())
	}
	store, err := storage.FromConfig(conf.Storage)
	if err != nil {
		return fatal("Couldn't create store", err)
	}
	for _, path := range f.Args() {
		raw, err := readInput(path)
		if err != nil {
			return fatal("Couldn't read message", err)
		}
		delivery, err := storage.NewDelivery(m.folder, raw)
		if err != nil {
			return fatal("Couldn't parse message", err)
		}
		id, err := store.AddObject(delivery)
		if err != nil {
			return fatal("Couldn't store message", err)
		}
		obj, err := store.GetObject(m.folder, id)
		if err != nil {
			return fatal("Couldn't load message", err)
		}
		member, err := relation.MemberFor(obj)
		if err != nil {
			return fatal("Couldn't address message", err)
		}
		fmt.Printf("%s: %s\n", path, relation.Format(member))
	}
	if m.resolve == "" {
		return subcommands.ExitSuccess
	}
	sink := errsink.New()
	member := relation.Parse(m.resolve, sink)
	if member.IsEmpty() {
		return reportSink(m.resolve, sink)
	}
	obj := relation.Resolve(store, member, sink)
	if obj == nil {
		return reportSink(m.resolve, sink)
	}
	fmt.Printf("%s -> %s/%s %v %q\n", m.resolve, obj.Folder(), obj.ID(), obj.Type(), obj.Subject())
	return reportSink(m.resolve, sink)
}

func (m *memberCmd) parse(uris []string) subcommands.ExitStatus {
	sink := errsink.New()
	status := subcommands.ExitSuccess
	for _, uri := range uris {
		sink.Clear()
		member := relation.Parse(uri, sink)
		switch {
		case member.GID != "":
			fmt.Printf("%s:\n\tgid: %s\n", uri, member.GID)
		case !member.IsEmpty():
			fmt.Printf("%s:\n", uri)
			if member.IsShared() {
				fmt.Println("\tshared: true")
			} else {
				fmt.Printf("\tuser: %s\n", member.User)
			}
			fmt.Printf("\tmailbox: %s\n", strings.Join(member.Mailbox, "/"))
			fmt.Printf("\tuid: %d\n", member.UID)
			fmt.Printf("\tmessage-id: %s\n", member.MessageID)
			fmt.Printf("\tsubject: %s\n", member.Subject)
			fmt.Printf("\tdate: %s\n", member.Date)
		default:
			fmt.Printf("%s: undecodable\n", uri)
			status = subcommands.ExitFailure
		}
		for _, e := range sink.Entries() {
			fmt.Printf("\t%v\n", e)
		}
	}
	return status
}

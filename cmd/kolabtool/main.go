// Package main implements a command line tool for inspecting and converting Kolab objects.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kolabformat/kolabformat/pkg/codec"
	"github.com/kolabformat/kolabformat/pkg/config"
	"github.com/kolabformat/kolabformat/pkg/errsink"
	"github.com/kolabformat/kolabformat/pkg/object"
	"github.com/kolabformat/kolabformat/pkg/storage"
	"github.com/kolabformat/kolabformat/pkg/storage/file"
	"github.com/kolabformat/kolabformat/pkg/storage/mem"
)

var (
	// version contains the build version number, populated during linking.
	version = "undefined"

	// date contains the build date, populated during linking.
	date = "undefined"
)

var (
	help    = flag.Bool("help", false, "Displays help on flags and env variables.")
	logfile = flag.String("logfile", "stderr", "Write out log into the specified file.")
	logjson = flag.Bool("logjson", false, "Logs are written in JSON format.")
)

// conf is the processed environment configuration.
var conf *config.Root

func init() {
	// Register storage implementations.
	storage.Constructors["file"] = file.New
	storage.Constructors["memory"] = mem.New
}

func main() {
	// Important top-level flags
	subcommands.ImportantFlag("logfile")

	// Setup standard helpers
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	// Setup my commands
	subcommands.Register(&readCmd{}, "objects")
	subcommands.Register(&convertCmd{}, "objects")
	subcommands.Register(&exportCmd{}, "objects")
	subcommands.Register(&freebusyCmd{}, "free/busy")
	subcommands.Register(&ifbCmd{}, "free/busy")
	subcommands.Register(&memberCmd{}, "relations")

	flag.Parse()
	if *help {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "")
		config.Usage()
		return
	}
	// Process configuration.
	config.Version = version
	config.BuildDate = date
	var err error
	conf, err = config.Process()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	closeLog, err := openLog(conf.LogLevel, *logfile, *logjson)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Log error: %v\n", err)
		os.Exit(1)
	}
	log.Debug().Str("phase", "startup").Str("version", config.Version).
		Str("buildDate", config.BuildDate).Msg("kolabtool starting")

	ctx := context.Background()
	status := subcommands.Execute(ctx)
	closeLog()
	os.Exit(int(status))
}

// openLog configures zerolog output, returns func to close logfile.
func openLog(level string, logfile string, json bool) (close func(), err error) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		return nil, fmt.Errorf("Log level %q not one of: debug, info, warn, error", level)
	}
	close = func() {}
	var w io.Writer
	color := runtime.GOOS != "windows"
	switch logfile {
	case "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		logf, err := os.OpenFile(logfile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return nil, err
		}
		bw := bufio.NewWriter(logf)
		w = bw
		color = false
		close = func() {
			_ = bw.Flush()
			_ = logf.Close()
		}
	}
	w = zerolog.SyncWriter(w)
	if json {
		log.Logger = log.Output(w)
		return close, nil
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:     w,
		NoColor: !color,
	})
	return close, nil
}

// codecs returns the registry for the configured capabilities.
func codecs() *codec.Registry {
	return object.NewCodecs(object.Capabilities{Relations: conf.Relations})
}

// readInput reads a file, "-" being stdin.
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to a file, "-" or "" being stdout.
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// reportSink prints the entries of sink at Warning or above, and returns the failure status when
// an error occurred.
func reportSink(name string, sink *errsink.Sink) subcommands.ExitStatus {
	for _, e := range sink.Entries() {
		if e.Severity >= errsink.Warning {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, e)
		}
	}
	if sink.ErrorOccurred() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func fatal(msg string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	return subcommands.ExitFailure
}

func usage(msg string) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, msg)
	return subcommands.ExitUsageError
}

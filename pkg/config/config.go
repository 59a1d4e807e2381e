package config

import (
	"log"
	"os"
	"text/tabwriter"

	"github.com/kelseyhightower/envconfig"

	"github.com/kolabformat/kolabformat/pkg/kolab"
)

const (
	prefix      = "kolab"
	tableFormat = `kolabtool is configured via the environment. The following environment
variables can be used:

KEY	DEFAULT	REQUIRED	DESCRIPTION
{{range .}}{{usage_key .}}	{{usage_default .}}	{{usage_required .}}	{{usage_description .}}
{{end}}`
)

var (
	// Version of this build, set by main
	Version = ""

	// BuildDate for this build, set by main
	BuildDate = ""
)

// Root wraps all other configurations.
type Root struct {
	LogLevel  string `required:"true" default:"INFO" desc:"DEBUG, INFO, WARN, or ERROR"`
	ProductID string `required:"true" default:"kolabtool" desc:"Product id written into objects"`
	Version   string `required:"true" default:"v3" desc:"Format version written, v2 or v3"`
	Timezone  string `desc:"Zone of floating times in v2 objects"`
	Relations bool   `required:"true" default:"true" desc:"Support relation (tag) objects?"`
	Storage   Storage
}

// Storage contains the object store configuration.
type Storage struct {
	Type          string            `required:"true" default:"memory" desc:"Storage impl: file or memory"`
	Params        map[string]string `desc:"Driver specific parameters: path, maxkb"`
	MailboxMsgCap int               `required:"true" default:"5000" desc:"Maximum objects per folder"`
}

// WriteVersion parses the Version setting.
func (r *Root) WriteVersion() (kolab.Version, bool) {
	return kolab.ParseVersion(r.Version)
}

// Process loads and parses configuration from the environment.
func Process() (*Root, error) {
	c := &Root{}
	err := envconfig.Process(prefix, c)
	return c, err
}

// Usage prints out the envconfig usage to Stderr.
func Usage() {
	tabs := tabwriter.NewWriter(os.Stderr, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef(prefix, &Root{}, tabs, tableFormat); err != nil {
		log.Fatalf("Unable to parse env config: %v", err)
	}
	tabs.Flush()
}

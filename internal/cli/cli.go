// Package cli parses the cathapult command line: one FlagSet per
// subcommand, global flags accepted anywhere, validation at parse time.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// Environment fallbacks shared by the positional defaults.
const (
	// EnvSummaryFile names the default bulk summary source.
	EnvSummaryFile = "CATHAPULT_SUMMARY_FILE"

	// EnvDataDir names the CATH reference table directory.
	EnvDataDir = "CATHAPULT_DATA_DIR"
)

// Global holds the flags every subcommand accepts.
type Global struct {
	LogLevel string
	LogJSON  bool
}

// RegisterGlobal registers the global flags on fs, writing into g. The
// root command and every subcommand register the same set, so the flags
// are accepted on either side of the subcommand name. Defaults come from
// the current values of g: registration must not clobber what an earlier
// parse already set.
func RegisterGlobal(fs *flag.FlagSet, g *Global) {
	if g.LogLevel == "" {
		g.LogLevel = "warn"
	}
	fs.StringVar(&g.LogLevel, "log-level", g.LogLevel, "log verbosity: debug | info | warn | error [warn]")
	fs.BoolVar(&g.LogJSON, "log-json", g.LogJSON, "emit logs as JSON [false]")
}

// synopses drive the per-subcommand usage headers.
var synopses = map[string]string{
	"fetch":      "fetch <ids.txt> [output.tsv]",
	"setup-db":   "setup-db [source]",
	"query":      "query [store]",
	"filter":     "filter [source]",
	"analyze":    "analyze <input.tsv> <output.tsv>",
	"odds-ratio": "odds-ratio <group1.tsv> <group2.tsv>",
	"mirror":     "mirror <ref> [dest]",
}

// NewFlagSet returns a ContinueOnError FlagSet for the named subcommand
// with a usage header matching its synopsis.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		if syn, ok := synopses[name]; ok {
			fmt.Fprintf(fs.Output(), "Usage: cathapult %s\n\nFlags:\n", syn)
		}
		fs.PrintDefaults()
	}
	return fs
}

// RootUsage prints the top-level command summary.
func RootUsage(w io.Writer) {
	fmt.Fprint(w, `cathapult: CATH/TED structural-domain annotation toolkit

Usage:
  cathapult <command> [flags] [args]

Commands:
  fetch       fetch domain summaries for a list of UniProt accessions
  setup-db    build a columnar store from a bulk summary file
  query       query a columnar store by accession set
  filter      filter a bulk summary file with a streaming scan
  analyze     count and annotate domains in a filtered table
  odds-ratio  compare domain enrichment between two protein groups
  mirror      copy a bulk file from object storage to disk
  version     print the version

Global flags (accepted by every command):
  -log-level string   log verbosity: debug | info | warn | error [warn]
  -log-json           emit logs as JSON [false]

Environment:
  CATHAPULT_SUMMARY_FILE   default bulk summary source
  CATHAPULT_DATA_DIR       CATH reference table directory

Run 'cathapult <command> -h' for the command's flags.
`)
}

// sliceValue allows repeatable string flags.
type sliceValue []string

func (s *sliceValue) String() string     { return strings.Join(*s, ",") }
func (s *sliceValue) Set(v string) error { *s = append(*s, v); return nil }

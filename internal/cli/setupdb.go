package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"cathapult/colstore"
	"cathapult/ted"
)

// SetupDBOptions holds the setup-db subcommand arguments.
type SetupDBOptions struct {
	Source string

	DB        string
	Overwrite bool
	BlockRows int
	Codec     colstore.Compression
	KeyColumn string
}

// ParseSetupDB registers and parses the setup-db flags and positionals.
// The source positional falls back to $CATHAPULT_SUMMARY_FILE; the store
// path defaults to the source path with the .colstore extension.
func ParseSetupDB(fs *flag.FlagSet, argv []string, g *Global) (SetupDBOptions, error) {
	var opt SetupDBOptions
	var codecName string
	RegisterGlobal(fs, g)

	fs.StringVar(&opt.DB, "db", "", "store path [source with "+colstore.DefaultExt+" extension]")
	fs.BoolVar(&opt.Overwrite, "overwrite", false, "rebuild an existing store [false]")
	fs.IntVar(&opt.BlockRows, "block-rows", 0,
		fmt.Sprintf("rows per block, 0 keeps the default [%d]", colstore.DefaultBlockRows))
	fs.StringVar(&codecName, "codec", "zstd", "block compression: zstd | lz4 | none [zstd]")
	fs.StringVar(&opt.KeyColumn, "key-column", ted.KeyColumn,
		"key column to index ["+ted.KeyColumn+"]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}

	args := fs.Args()
	switch {
	case len(args) > 1:
		return opt, fmt.Errorf("unexpected argument %q", args[1])
	case len(args) == 1:
		opt.Source = args[0]
	default:
		opt.Source = os.Getenv(EnvSummaryFile)
	}
	if opt.Source == "" {
		return opt, errors.New("a summary source is required (or set " + EnvSummaryFile + ")")
	}

	if opt.BlockRows < 0 {
		return opt, errors.New("--block-rows must be ≥ 0")
	}
	comp, err := colstore.ParseCompression(codecName)
	if err != nil {
		return opt, err
	}
	opt.Codec = comp
	if opt.KeyColumn == "" {
		return opt, errors.New("--key-column must not be empty")
	}
	return opt, nil
}

package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"cathapult/colstore"
	"cathapult/ted"
)

// Selection holds the row-selection flags shared by query and filter.
type Selection struct {
	IDsFile       string
	IDs           []string
	Keyword       string
	KeywordColumn string
	FoldCase      bool
}

func registerSelection(fs *flag.FlagSet, sel *Selection, ids *sliceValue) {
	fs.StringVar(&sel.IDsFile, "ids", "", "file of UniProt accessions, one per line")
	fs.Var(ids, "id", "UniProt accession (repeatable)")
	fs.StringVar(&sel.Keyword, "keyword", "", "substring the keyword column must contain")
	fs.StringVar(&sel.KeywordColumn, "keyword-column", ted.DefaultKeywordColumn,
		"column the keyword matches against ["+ted.DefaultKeywordColumn+"]")
	fs.BoolVar(&sel.FoldCase, "fold-case", false, "match the keyword case-insensitively [false]")
}

func (s *Selection) validate() error {
	if s.IDsFile == "" && len(s.IDs) == 0 {
		return errors.New("provide --ids or at least one --id")
	}
	return nil
}

// QueryOptions holds the query subcommand arguments.
type QueryOptions struct {
	Store string
	Selection
	Output string
}

// ParseQuery registers and parses the query flags and positionals. The
// store positional falls back to the conventional store path of
// $CATHAPULT_SUMMARY_FILE.
func ParseQuery(fs *flag.FlagSet, argv []string, g *Global) (QueryOptions, error) {
	var opt QueryOptions
	var ids sliceValue
	RegisterGlobal(fs, g)
	registerSelection(fs, &opt.Selection, &ids)
	fs.StringVar(&opt.Output, "output", "-", "output TSV path, .gz compresses, - is stdout [-]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	opt.IDs = ids

	args := fs.Args()
	switch {
	case len(args) > 1:
		return opt, fmt.Errorf("unexpected argument %q", args[1])
	case len(args) == 1:
		opt.Store = args[0]
	default:
		if src := os.Getenv(EnvSummaryFile); src != "" {
			opt.Store = colstore.DefaultPath(src)
		}
	}
	if opt.Store == "" {
		return opt, errors.New("a store path is required (or set " + EnvSummaryFile + ")")
	}
	return opt, opt.validate()
}

// FilterOptions holds the filter subcommand arguments.
type FilterOptions struct {
	Source string
	Selection
	Output string
}

// ParseFilter registers and parses the filter flags and positionals. The
// source positional falls back to $CATHAPULT_SUMMARY_FILE.
func ParseFilter(fs *flag.FlagSet, argv []string, g *Global) (FilterOptions, error) {
	var opt FilterOptions
	var ids sliceValue
	RegisterGlobal(fs, g)
	registerSelection(fs, &opt.Selection, &ids)
	fs.StringVar(&opt.Output, "output", "-", "output TSV path, .gz compresses, - is stdout [-]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	opt.IDs = ids

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
	return opt, opt.validate()
}

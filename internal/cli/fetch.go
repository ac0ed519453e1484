package cli

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cathapult/ted"
)

// FetchOptions holds the fetch subcommand arguments.
type FetchOptions struct {
	IDsFile string
	Output  string

	Concurrency int
	Rate        float64
	Timeout     time.Duration
	BaseURL     string
}

// ParseFetch registers and parses the fetch flags and positionals.
func ParseFetch(fs *flag.FlagSet, argv []string, g *Global) (FetchOptions, error) {
	var opt FetchOptions
	RegisterGlobal(fs, g)

	fs.IntVar(&opt.Concurrency, "concurrency", ted.DefaultConcurrency,
		fmt.Sprintf("max in-flight API requests [%d]", ted.DefaultConcurrency))
	fs.Float64Var(&opt.Rate, "rate", ted.DefaultRequestsPerSecond,
		fmt.Sprintf("API requests per second, 0 disables throttling [%d]", ted.DefaultRequestsPerSecond))
	fs.DurationVar(&opt.Timeout, "timeout", ted.DefaultTimeout,
		fmt.Sprintf("per-request timeout [%s]", ted.DefaultTimeout))
	fs.StringVar(&opt.BaseURL, "base-url", ted.DefaultBaseURL,
		"TED API root ["+ted.DefaultBaseURL+"]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}

	args := fs.Args()
	switch {
	case len(args) == 0:
		return opt, errors.New("an accession list file is required")
	case len(args) > 2:
		return opt, fmt.Errorf("unexpected argument %q", args[2])
	}
	opt.IDsFile = args[0]
	if len(args) == 2 {
		opt.Output = args[1]
	} else {
		// Default mirrors the input name: ids.txt writes ids.tsv.
		base := filepath.Base(opt.IDsFile)
		opt.Output = strings.TrimSuffix(base, filepath.Ext(base)) + ".tsv"
	}

	if opt.Concurrency < 1 {
		return opt, errors.New("--concurrency must be ≥ 1")
	}
	if opt.Rate < 0 {
		return opt, errors.New("--rate must be ≥ 0")
	}
	if opt.Timeout <= 0 {
		return opt, errors.New("--timeout must be positive")
	}
	if opt.BaseURL == "" {
		return opt, errors.New("--base-url must not be empty")
	}
	return opt, nil
}

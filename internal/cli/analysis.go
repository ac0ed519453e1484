package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"cathapult/enrich"
)

// AnalyzeOptions holds the analyze subcommand arguments.
type AnalyzeOptions struct {
	Input   string
	Output  string
	DataDir string
}

// ParseAnalyze registers and parses the analyze flags and positionals.
func ParseAnalyze(fs *flag.FlagSet, argv []string, g *Global) (AnalyzeOptions, error) {
	var opt AnalyzeOptions
	RegisterGlobal(fs, g)
	fs.StringVar(&opt.DataDir, "data-dir", os.Getenv(EnvDataDir),
		"CATH reference table directory, empty skips annotation [$"+EnvDataDir+"]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}

	args := fs.Args()
	switch {
	case len(args) < 2:
		return opt, errors.New("an input table and an output path are required")
	case len(args) > 2:
		return opt, fmt.Errorf("unexpected argument %q", args[2])
	}
	opt.Input, opt.Output = args[0], args[1]
	return opt, nil
}

// OddsRatioOptions holds the odds-ratio subcommand arguments.
type OddsRatioOptions struct {
	Group1 string
	Group2 string

	Output         string
	Plot           string
	Alpha          float64
	UniqueFeatures bool
	DataDir        string
}

// ParseOddsRatio registers and parses the odds-ratio flags and positionals.
func ParseOddsRatio(fs *flag.FlagSet, argv []string, g *Global) (OddsRatioOptions, error) {
	var opt OddsRatioOptions
	RegisterGlobal(fs, g)

	fs.StringVar(&opt.Output, "output", "-", "output TSV path, .gz compresses, - is stdout [-]")
	fs.StringVar(&opt.Plot, "plot", "", "forest plot SVG path, empty skips the plot")
	fs.Float64Var(&opt.Alpha, "alpha", enrich.DefaultAlpha,
		fmt.Sprintf("significance threshold the plot highlights at [%g]", enrich.DefaultAlpha))
	fs.BoolVar(&opt.UniqueFeatures, "unique-features", false,
		"count each feature once per protein [false]")
	fs.StringVar(&opt.DataDir, "data-dir", os.Getenv(EnvDataDir),
		"CATH reference table directory, empty skips annotation [$"+EnvDataDir+"]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}

	args := fs.Args()
	switch {
	case len(args) < 2:
		return opt, errors.New("two group tables are required")
	case len(args) > 2:
		return opt, fmt.Errorf("unexpected argument %q", args[2])
	}
	opt.Group1, opt.Group2 = args[0], args[1]

	if opt.Alpha <= 0 || opt.Alpha >= 1 {
		return opt, errors.New("--alpha must be between 0 and 1 exclusive")
	}
	return opt, nil
}

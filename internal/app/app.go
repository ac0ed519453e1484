// Package app wires the command line to the cathapult library: subcommand
// dispatch, logger setup, and the exit-code policy.
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cathapult"
	"cathapult/internal/cli"
	"cathapult/ted"
)

// Exit codes: 0 success, 1 operational failure, 2 usage error.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Run executes argv and returns the process exit code.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// RunContext is Run with a caller-supplied context, for tests and for
// callers wiring signal cancellation.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	var g cli.Global
	root := flag.NewFlagSet("cathapult", flag.ContinueOnError)
	root.SetOutput(io.Discard)
	root.Usage = func() {}
	cli.RegisterGlobal(root, &g)

	if err := root.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cli.RootUsage(outw)
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		cli.RootUsage(stderr)
		return exitUsage
	}

	args := root.Args()
	if len(args) == 0 {
		cli.RootUsage(outw)
		return exitOK
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "version":
		fmt.Fprintf(outw, "cathapult version %s\n", cathapult.Version)
		return exitOK
	case "help":
		cli.RootUsage(outw)
		return exitOK
	}

	fs := cli.NewFlagSet(cmd)
	fs.SetOutput(io.Discard)

	switch cmd {
	case "fetch":
		opt, err := cli.ParseFetch(fs, rest, &g)
		if err != nil {
			return parseFailed(fs, err, outw, stderr)
		}
		c, ok := newFacade(&g, stderr, fetchClient(opt))
		if !ok {
			return exitUsage
		}
		return runFetch(ctx, c, opt, outw, stderr)

	case "setup-db":
		opt, err := cli.ParseSetupDB(fs, rest, &g)
		if err != nil {
			return parseFailed(fs, err, outw, stderr)
		}
		c, ok := newFacade(&g, stderr)
		if !ok {
			return exitUsage
		}
		return runSetupDB(ctx, c, opt, outw, stderr)

	case "query":
		opt, err := cli.ParseQuery(fs, rest, &g)
		if err != nil {
			return parseFailed(fs, err, outw, stderr)
		}
		c, ok := newFacade(&g, stderr)
		if !ok {
			return exitUsage
		}
		return runQuery(ctx, c, opt, outw, stderr)

	case "filter":
		opt, err := cli.ParseFilter(fs, rest, &g)
		if err != nil {
			return parseFailed(fs, err, outw, stderr)
		}
		c, ok := newFacade(&g, stderr)
		if !ok {
			return exitUsage
		}
		return runFilter(ctx, c, opt, outw, stderr)

	case "analyze":
		opt, err := cli.ParseAnalyze(fs, rest, &g)
		if err != nil {
			return parseFailed(fs, err, outw, stderr)
		}
		c, ok := newFacade(&g, stderr)
		if !ok {
			return exitUsage
		}
		return runAnalyze(c, opt, outw, stderr)

	case "odds-ratio":
		opt, err := cli.ParseOddsRatio(fs, rest, &g)
		if err != nil {
			return parseFailed(fs, err, outw, stderr)
		}
		c, ok := newFacade(&g, stderr)
		if !ok {
			return exitUsage
		}
		return runOddsRatio(c, opt, outw, stderr)

	case "mirror":
		opt, err := cli.ParseMirror(fs, rest, &g)
		if err != nil {
			return parseFailed(fs, err, outw, stderr)
		}
		c, ok := newFacade(&g, stderr)
		if !ok {
			return exitUsage
		}
		return runMirror(ctx, c, opt, outw, stderr)
	}

	fmt.Fprintf(stderr, "unknown command %q\n", cmd)
	cli.RootUsage(stderr)
	return exitUsage
}

// parseFailed reports a subcommand parse error: help requests print usage
// to stdout and succeed, anything else prints the error plus usage to
// stderr and is a usage failure.
func parseFailed(fs *flag.FlagSet, err error, outw *bufio.Writer, stderr io.Writer) int {
	if errors.Is(err, flag.ErrHelp) {
		fs.SetOutput(outw)
		fs.Usage()
		return exitOK
	}
	fmt.Fprintln(stderr, err)
	fs.SetOutput(stderr)
	fs.Usage()
	return exitUsage
}

// newFacade builds the library facade with a logger honoring the global
// flags. Logs go to stderr so stdout stays machine-readable.
func newFacade(g *cli.Global, stderr io.Writer, extra ...cathapult.Option) (*cathapult.Cathapult, bool) {
	level, err := parseLevel(g.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil, false
	}

	var handler slog.Handler
	ho := &slog.HandlerOptions{Level: level}
	if g.LogJSON {
		handler = slog.NewJSONHandler(stderr, ho)
	} else {
		handler = slog.NewTextHandler(stderr, ho)
	}

	opts := append([]cathapult.Option{
		cathapult.WithLogger(cathapult.NewLogger(handler)),
	}, extra...)
	return cathapult.New(opts...), true
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", s)
}

// fetchClient carries the fetch flags into the TED client.
func fetchClient(opt cli.FetchOptions) cathapult.Option {
	return cathapult.WithClient(ted.NewClient(func(o *ted.Options) {
		o.BaseURL = opt.BaseURL
		o.RequestsPerSecond = opt.Rate
		o.Timeout = opt.Timeout
	}))
}

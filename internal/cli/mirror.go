package cli

import (
	"errors"
	"flag"
	"fmt"
)

// MirrorOptions holds the mirror subcommand arguments.
type MirrorOptions struct {
	Ref  string
	Dest string
}

// ParseMirror registers and parses the mirror flags and positionals.
func ParseMirror(fs *flag.FlagSet, argv []string, g *Global) (MirrorOptions, error) {
	var opt MirrorOptions
	RegisterGlobal(fs, g)

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}

	args := fs.Args()
	switch {
	case len(args) == 0:
		return opt, errors.New("a source ref is required (s3://…, minio://…, or a path)")
	case len(args) > 2:
		return opt, fmt.Errorf("unexpected argument %q", args[2])
	}
	opt.Ref = args[0]
	if len(args) == 2 {
		opt.Dest = args[1]
	}
	return opt, nil
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// errVersion is returned by parseArgs when -v/--version is given.
var errVersion = errors.New("version requested")

// errNoArgs is returned by parseArgs when the command line is empty.
var errNoArgs = errors.New("no arguments")

// cliOptions holds the parsed command line.
type cliOptions struct {
	inputFile    string
	output       string
	validate     bool
	quiet        bool
	report       bool
	renderInput  string
	renderOutput string
	configPath   string
}

// parseArgs parses args, allowing flags before and after the input file.
// It returns flag.ErrHelp for -h/--help and errVersion for -v/--version;
// both are only recognised as the first argument.
func parseArgs(args []string) (*cliOptions, error) {
	if len(args) == 0 {
		return nil, errNoArgs
	}

	switch args[0] {
	case "-h", "--help":
		return nil, flag.ErrHelp
	case "-v", "--version":
		return nil, errVersion
	}

	opts := &cliOptions{}
	var misplaced bool

	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.output, "o", "", "output file path")
	fs.StringVar(&opts.output, "output", "", "output file path")
	fs.BoolVar(&opts.validate, "validate", false, "only validate the input file")
	fs.BoolVar(&opts.quiet, "quiet", false, "suppress success messages")
	fs.BoolVar(&opts.report, "report", false, "print the frequency response report")
	fs.StringVar(&opts.renderInput, "render", "", "WAV file to render through the EQ")
	fs.StringVar(&opts.renderOutput, "render-output", "", "output path for --render")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	for _, name := range []string{"h", "help", "v", "version"} {
		fs.BoolVar(&misplaced, name, false, "only valid as the first argument")
	}

	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	if misplaced {
		var name string
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "h", "v":
				name = "-" + f.Name
			case "help", "version":
				name = "--" + f.Name
			}
		})
		return nil, fmt.Errorf("unknown argument '%s'", name)
	}

	switch len(positional) {
	case 0:
		return nil, errors.New("input file is required")
	case 1:
		opts.inputFile = positional[0]
	default:
		return nil, fmt.Errorf("unknown argument '%s'", positional[1])
	}

	if opts.renderOutput != "" && opts.renderInput == "" {
		return nil, errors.New("--render-output requires --render")
	}

	return opts, nil
}

// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/retroenv/agcasm/internal/options"
)

// ParseFlags parses command line flags and returns program and assembler options
func ParseFlags() (options.Program, options.Assembler, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Batch == "") {
		return opts, options.Assembler{}, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, options.Assembler{}, err
	}

	if err := validateOptions(opts); err != nil {
		return opts, options.Assembler{}, err
	}

	if opts.Batch == "" {
		opts.Input = args
	}

	asmOptions := options.NewAssembler()
	asmOptions.MaxPasses = opts.MaxPasses

	return opts, asmOptions, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: agcasm [options] <source files to assemble>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg != "" && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after source file, please pass the source files as last arguments", arg),
			}
		}
	}
	return nil
}

// validateOptions checks option values and combinations
func validateOptions(opts options.Program) error {
	if opts.MaxPasses < 1 {
		return fmt.Errorf("invalid number of resolution passes: %d", opts.MaxPasses)
	}
	if opts.Batch != "" && opts.Verify != "" {
		return fmt.Errorf("option -verify can not be combined with -batch")
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Output, "o", "", "name of the output binary file, derived from the first source file if no name given")
	flags.StringVar(&opts.Symbols, "s", "", "name of the symbol table file to write")
	flags.StringVar(&opts.Listing, "l", "", "name of the listing file to write")
	flags.StringVar(&opts.Verify, "verify", "", "reference binary file to compare the generated output against")
	flags.StringVar(&opts.Batch, "batch", "", "process a batch of given path and file mask and automatically .bin file naming, for example *.agc")
	flags.IntVar(&opts.MaxPasses, "passes", options.DefaultMaxPasses, "maximum number of symbol resolution passes")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}

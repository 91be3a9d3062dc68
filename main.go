// Package main implements the main entry point for an AGC4 assembler
package main

import (
	"context"
	"errors"
	"os"

	"github.com/retroenv/agcasm/internal/cli"
	"github.com/retroenv/agcasm/internal/config"
	"github.com/retroenv/agcasm/internal/fileprocessor"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, asmOptions, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Flags)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			fileprocessor.PrintBanner(logger, opts, version, commit, date)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Flags)
	fileprocessor.PrintBanner(logger, opts, version, commit, date)

	programs, err := fileprocessor.GetFilesToProcess(&opts)
	if err != nil {
		logger.Fatal(err.Error())
	}

	batch := opts.Batch != ""
	failed := false
	for _, files := range programs {
		programOpts := opts
		programOpts.Input = files
		if batch || opts.Output == "" {
			programOpts.Output = fileprocessor.GenerateOutputFilename(files[0], fileprocessor.BinaryExtension)
		}
		if batch && opts.Symbols != "" {
			programOpts.Symbols = fileprocessor.GenerateOutputFilename(files[0], fileprocessor.SymbolsExtension)
		}
		if batch && opts.Listing != "" {
			programOpts.Listing = fileprocessor.GenerateOutputFilename(files[0], fileprocessor.ListingExtension)
		}

		if err := fileprocessor.ProcessFile(ctx, logger, programOpts, asmOptions); err != nil {
			// Handle context cancellation (Ctrl+C) gracefully
			if errors.Is(err, context.Canceled) {
				logger.Info("Operation cancelled")
				return
			}
			logger.Error("Assembling failed", log.Err(err))
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

// Package fileprocessor handles file loading and processing operations
package fileprocessor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/retroenv/agcasm/internal/config"
	"github.com/retroenv/agcasm/internal/diag"
	"github.com/retroenv/agcasm/internal/loader"
	"github.com/retroenv/agcasm/internal/options"
	"github.com/retroenv/agcasm/internal/pipeline"
	"github.com/retroenv/retrogolib/log"
)

// Output file extensions.
const (
	BinaryExtension  = ".bin"
	SymbolsExtension = ".sym"
	ListingExtension = ".lst"
)

// ProcessFile handles the complete file processing workflow
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program, asmOptions options.Assembler) error {
	logger.Debug("Assembling", log.String("files", strings.Join(opts.Input, ", ")))

	var collector diag.Collector
	pipe := pipeline.NewWithSink(logger, config.CreateSink(logger, &collector), loader.New())
	result, err := pipe.Execute(ctx, opts, asmOptions)
	if err != nil {
		return fmt.Errorf("assembling: %w", err)
	}

	logger.Info("Assembly successful",
		log.String("output", opts.Output),
		log.Int("banks", len(result.Image.UsedBanks())),
		log.Int("warnings", collector.Count(diag.Warning)))
	return nil
}

// GetFilesToProcess returns the source files of every program to process.
// In batch mode every matching file is a program on its own, otherwise all
// input files form a single program.
func GetFilesToProcess(opts *options.Program) ([][]string, error) {
	if opts.Batch != "" {
		matches, err := filepath.Glob(opts.Batch)
		if err != nil {
			return nil, fmt.Errorf("globbing batch pattern: %w", err)
		}
		programs := make([][]string, 0, len(matches))
		for _, match := range matches {
			programs = append(programs, []string{match})
		}
		return programs, nil
	}
	return [][]string{opts.Input}, nil
}

// GenerateOutputFilename generates an output filename with the given
// extension for an input file.
func GenerateOutputFilename(inputFile, extension string) string {
	ext := filepath.Ext(inputFile)
	return inputFile[:len(inputFile)-len(ext)] + extension
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	versionString := version
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}

	logger.Info("agcasm", log.String("version", versionString))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}

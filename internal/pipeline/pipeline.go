// Package pipeline orchestrates the assembly workflow stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/agcasm/internal/assembler"
	"github.com/retroenv/agcasm/internal/diag"
	"github.com/retroenv/agcasm/internal/loader"
	"github.com/retroenv/agcasm/internal/memory"
	"github.com/retroenv/agcasm/internal/objectcode"
	"github.com/retroenv/agcasm/internal/options"
	"github.com/retroenv/agcasm/internal/verification"
	"github.com/retroenv/agcasm/internal/writer"
	"github.com/retroenv/retrogolib/log"
)

// ErrAssembly is returned when the source contains errors.
var ErrAssembly = errors.New("assembly failed")

// Pipeline orchestrates the complete assembly workflow.
type Pipeline struct {
	logger   *log.Logger
	loader   *loader.Loader
	geometry *memory.Geometry
	sink     diag.Sink
}

// New creates a new assembly pipeline that reports diagnostics to the logger.
func New(logger *log.Logger) *Pipeline {
	return NewWithSink(logger, diag.NewLogSink(logger), loader.New())
}

// NewWithSink creates a new assembly pipeline with a custom diagnostic sink
// and source loader.
func NewWithSink(logger *log.Logger, sink diag.Sink, ldr *loader.Loader) *Pipeline {
	return &Pipeline{
		logger:   logger,
		loader:   ldr,
		geometry: memory.New(),
		sink:     sink,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Assembly *assembler.Result
	Image    *objectcode.Image
}

// Execute runs the complete assembly pipeline and writes all requested
// output files.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, asmOpts options.Assembler) (*Result, error) {
	result, err := p.Assemble(ctx, opts.Input, asmOpts)
	if err != nil {
		// the listing shows the failed records
		if result != nil {
			if reportErr := p.writeReports(opts, result); reportErr != nil {
				p.logger.Error("Writing reports failed", log.Err(reportErr))
			}
		}
		return nil, err
	}

	if err := p.writeReports(opts, result); err != nil {
		return nil, err
	}
	if opts.Output != "" {
		err := p.writeFile(opts.Output, func(w *writer.Writer) error {
			return w.Binary(result.Image)
		})
		if err != nil {
			return nil, fmt.Errorf("writing binary: %w", err)
		}
	}

	if opts.Output != "" && opts.Verify != "" {
		if err := verification.VerifyOutput(p.logger, p.geometry, opts.Output, opts.Verify); err != nil {
			return nil, fmt.Errorf("verification failed: %w", err)
		}
		p.logger.Info("Verification successful")
	}
	return result, nil
}

// Assemble loads, assembles and builds the image of the given source files
// without writing any output.
func (p *Pipeline) Assemble(ctx context.Context, files []string, asmOpts options.Assembler) (*Result, error) {
	lines, err := p.loader.Load(files)
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}
	p.logger.Debug("Source loaded", log.Int("lines", len(lines)))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assembling: %w", err)
	}

	asm := assembler.New(p.logger, p.sink, asmOpts)
	res, err := asm.Assemble(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("assembling: %w", err)
	}

	p.logger.Info("Assembly finished",
		log.Int("symbols", res.Symbols.Len()),
		log.Int("errors", res.Errors),
		log.Int("warnings", res.Warnings))

	if res.Errors > 0 {
		return &Result{Assembly: res}, fmt.Errorf("%w: %d errors", ErrAssembly, res.Errors)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("building image: %w", err)
	}

	img, err := objectcode.Build(p.geometry, res.Records)
	if err != nil {
		return &Result{Assembly: res}, fmt.Errorf("building image: %w", err)
	}
	p.logBankUsage(img)

	return &Result{
		Assembly: res,
		Image:    img,
	}, nil
}

// writeReports writes the symbol table and listing files.
func (p *Pipeline) writeReports(opts options.Program, result *Result) error {
	if opts.Symbols != "" {
		err := p.writeFile(opts.Symbols, func(w *writer.Writer) error {
			return w.Symbols(result.Assembly.Symbols)
		})
		if err != nil {
			return fmt.Errorf("writing symbol table: %w", err)
		}
	}

	if opts.Listing != "" {
		err := p.writeFile(opts.Listing, func(w *writer.Writer) error {
			return w.Listing(result.Assembly.Records, result.Assembly.Symbols)
		})
		if err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) writeFile(name string, write func(w *writer.Writer) error) error {
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("creating file '%s': %w", name, err)
	}

	if err := write(writer.New(p.geometry, file)); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing file '%s': %w", name, err)
	}
	return nil
}

func (p *Pipeline) logBankUsage(img *objectcode.Image) {
	for _, n := range img.UsedBanks() {
		words := img.Words(n)
		used := 0
		for _, w := range words[:len(words)-objectcode.ReservedWords] {
			if w != 0 {
				used++
			}
		}
		p.logger.Debug("Bank usage",
			log.Int("bank", n),
			log.Int("words", used))
	}
}

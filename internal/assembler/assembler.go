// Package assembler implements the assembly engine: the context that is
// threaded through all source lines, the registry of mnemonics with their
// handlers and the multi-pass symbol resolution.
package assembler

import (
	"context"
	"errors"
	"fmt"

	"github.com/retroenv/agcasm/internal/diag"
	"github.com/retroenv/agcasm/internal/loader"
	"github.com/retroenv/agcasm/internal/options"
	"github.com/retroenv/agcasm/internal/parser"
	"github.com/retroenv/agcasm/internal/symbols"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// Assembler translates source lines into records with generated code.
type Assembler struct {
	logger *log.Logger
	sink   diag.Sink
	opts   options.Assembler
}

// Result of an assembly run.
type Result struct {
	Symbols *symbols.Table
	Records []*parser.Record

	Errors   int
	Warnings int
}

// New returns a new assembler. All diagnostics are reported to the sink.
func New(logger *log.Logger, sink diag.Sink, opts options.Assembler) *Assembler {
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = options.DefaultMaxPasses
	}
	return &Assembler{
		logger: logger,
		sink:   sink,
		opts:   opts,
	}
}

// Assemble processes all lines in order and resolves forward references.
// Per line errors are reported as diagnostics and counted in the result,
// a fatal error aborts the run and is returned.
func (a *Assembler) Assemble(ctx context.Context, lines []loader.Line) (*Result, error) {
	c := newContext(a.sink)

	for _, line := range lines {
		rec := parser.Parse(line.File, line.Number, line.Text)
		if err := c.add(rec); err != nil {
			return nil, err
		}
	}
	a.logger.Debug("Initial pass finished",
		log.Int("records", len(c.records)),
		log.Int("pending", len(c.pendingRecords())))

	if err := c.resolve(ctx, a.opts.MaxPasses, a.logger); err != nil {
		return nil, err
	}
	c.runChecks()

	return &Result{
		Symbols:  c.symbols,
		Records:  c.records,
		Errors:   c.errors,
		Warnings: c.warnings,
	}, nil
}

// add appends a new record and processes it for the first time.
func (c *Context) add(rec *parser.Record) error {
	rec.Index = len(c.records)
	rec.Address = c.location
	c.records = append(c.records, rec)
	c.frames = append(c.frames, c.state)

	status, err := c.dispatch(rec)
	if status == StatusFatal {
		return err
	}
	return nil
}

// redispatch processes a pending record again with the state that was
// active when the record was processed first.
func (c *Context) redispatch(rec *parser.Record) (Status, error) {
	live := c.state
	c.state = c.frames[rec.Index]
	c.reparse = true

	status, err := c.dispatch(rec)

	c.reparse = false
	c.state = live
	return status, err
}

// dispatch processes the record and classifies the result.
func (c *Context) dispatch(rec *parser.Record) (Status, error) {
	c.current = rec
	c.missing = nil
	c.notes = c.notes[:0]
	defer func() { c.current = nil }()

	switch rec.Kind {
	case parser.KindInclude, parser.KindBlank, parser.KindComment:
		rec.State = parser.StateComplete
		return StatusComplete, nil
	}

	err := c.process(rec)
	return c.classify(rec, err)
}

// process looks up the mnemonic of the record and calls its handler.
func (c *Context) process(rec *parser.Record) error {
	if rec.Mnemonic == "" {
		rec.Kind = parser.KindLabelOnly
		c.defineLabel(rec, c.location)
		return nil
	}

	op, err := c.lookup(rec.Mnemonic)
	if err != nil {
		return err
	}
	rec.Kind = op.kind
	if op.unsupported {
		return fmt.Errorf("%w: %s", ErrUnsupportedMnemonic, op.name)
	}
	// the word following EXTEND is executed as extended instruction
	if c.mode == ModeExtended && rec.Generative() && op.set != setBasic && op.set != setExtended {
		return fmt.Errorf("%w: %s after EXTEND", ErrMode, op.name)
	}

	if op.label == labelAtLocation {
		c.defineLabel(rec, c.location)
	}

	words := op.size(rec, c.registry)
	rec.Code = nil
	if rec.Generative() {
		if err := c.checkPlacement(words); err != nil {
			c.advance(words)
			return err
		}
	}

	err = op.handler(c, rec, op)
	c.advance(words)
	c.updateMode(op)

	if op.label == labelAfter {
		c.defineLabel(rec, c.location)
	}
	return err
}

// lookup returns the opcode of a mnemonic for the current instruction mode.
func (c *Context) lookup(mnemonic string) (*opcode, error) {
	if op, ok := c.registry.directives[mnemonic]; ok {
		return op, nil
	}
	if op, ok := c.registry.interpretive[mnemonic]; ok {
		return op, nil
	}

	primary, secondary := c.registry.basic, c.registry.extended
	if c.mode == ModeExtended {
		primary, secondary = secondary, primary
	}
	if op, ok := primary[mnemonic]; ok {
		if c.operands > 0 {
			c.expectOperands(0)
		}
		return op, nil
	}
	if _, ok := secondary[mnemonic]; ok {
		if c.mode == ModeExtended {
			return nil, fmt.Errorf("%w: basic instruction %s after EXTEND", ErrMode, mnemonic)
		}
		return nil, fmt.Errorf("%w: extended instruction %s without EXTEND", ErrMode, mnemonic)
	}

	if c.operands > 0 {
		return c.registry.operand, nil
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnknownMnemonic, mnemonic)
}

// classify converts the handler result into the record state.
func (c *Context) classify(rec *parser.Record, err error) (Status, error) {
	switch {
	case err == nil:
		rec.State = parser.StateComplete
		rec.Unresolved = nil
		c.flushNotes()
		return StatusComplete, nil

	case errors.Is(err, errPending):
		rec.State = parser.StatePending
		rec.Unresolved = unique(c.missing)
		c.notes = c.notes[:0]
		return StatusPending, nil

	case isFatal(err):
		rec.State = parser.StateFailed
		c.report(rec, diag.Error, err.Error())
		return StatusFatal, &FatalError{Err: err, Record: rec}

	default:
		rec.State = parser.StateFailed
		rec.Unresolved = nil
		c.flushNotes()
		c.report(rec, diag.Error, err.Error())
		return StatusFailed, err
	}
}

func (c *Context) pendingRecords() []*parser.Record {
	var pending []*parser.Record
	for _, rec := range c.records {
		if rec.State == parser.StatePending {
			pending = append(pending, rec)
		}
	}
	return pending
}

// resolve processes the pending records again until all of them are
// complete. A pass that does not reduce the number of pending records ends
// the resolution, the remaining records reference symbols that are never
// defined or that depend on each other.
func (c *Context) resolve(ctx context.Context, maxPasses int, logger *log.Logger) error {
	pending := c.pendingRecords()

	for pass := 1; len(pending) > 0 && pass <= maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("resolving symbols: %w", err)
		}

		for _, rec := range pending {
			status, err := c.redispatch(rec)
			if status == StatusFatal {
				return err
			}
		}

		next := c.pendingRecords()
		logger.Debug("Resolution pass finished",
			log.Int("pass", pass),
			log.Int("pending", len(next)))

		if len(next) >= len(pending) {
			pending = next
			break
		}
		pending = next
	}

	if len(pending) == 0 {
		return nil
	}

	c.failUndefined()
	pending = c.pendingRecords()
	if len(pending) == 0 {
		return nil
	}

	for _, rec := range pending {
		c.report(rec, diag.Error, fmt.Sprintf("%s: record %s waits for %v", ErrNonConvergence, rec.State, rec.Unresolved))
	}
	return &FatalError{
		Err:     ErrNonConvergence,
		Pending: pending,
	}
}

// failUndefined marks all pending records as failed that reference symbols
// which are not defined at all or whose definition failed.
func (c *Context) failUndefined() {
	for changed := true; changed; {
		changed = false

		for _, rec := range c.pendingRecords() {
			name, ok := c.undefinedReference(rec)
			if !ok {
				continue
			}
			rec.State = parser.StateFailed
			c.report(rec, diag.Error, fmt.Sprintf("%s: '%s'", ErrUndefinedSymbol, name))
			changed = true
		}
	}
}

func (c *Context) undefinedReference(rec *parser.Record) (string, bool) {
	for _, name := range rec.Unresolved {
		entry, ok := c.symbols.Get(name)
		if !ok {
			return name, true
		}
		if entry.Defined || entry.Record == symbols.NoRecord {
			continue
		}
		if c.records[entry.Record].State == parser.StateFailed {
			return name, true
		}
	}
	return "", false
}

// runChecks compares the values of all CHECK= directives.
func (c *Context) runChecks() {
	for _, chk := range c.checks {
		c.current = chk.record

		expected, defined, known := c.symbols.Lookup(chk.name)
		if !known || !defined {
			c.report(chk.record, diag.Error, fmt.Sprintf("%s: '%s'", ErrUndefinedSymbol, chk.name))
			continue
		}

		value, err := c.evaluate(chk.tokens, false)
		switch {
		case errors.Is(err, errPending):
			c.report(chk.record, diag.Error, fmt.Sprintf("%s: %v", ErrUndefinedSymbol, unique(c.missing)))
		case err != nil:
			c.report(chk.record, diag.Error, err.Error())
		case value != expected:
			c.report(chk.record, diag.Error, fmt.Sprintf("%s: %s is %06o, expected %06o", ErrCheck, chk.name, expected, value))
		}
		c.missing = nil
	}
	c.current = nil
}

func unique(names []string) []string {
	var result []string
	seen := set.New[string]()
	for _, name := range names {
		if seen.Contains(name) {
			continue
		}
		seen.Add(name)
		result = append(result, name)
	}
	return result
}

package assembler

import (
	"fmt"

	"github.com/retroenv/agcasm/internal/diag"
	"github.com/retroenv/agcasm/internal/expression"
	"github.com/retroenv/agcasm/internal/memory"
	"github.com/retroenv/agcasm/internal/parser"
	"github.com/retroenv/agcasm/internal/symbols"
)

// Mode is the instruction mode of the processor.
type Mode int

const (
	ModeBasic Mode = iota
	ModeExtended
)

func (m Mode) String() string {
	if m == ModeExtended {
		return "extended"
	}
	return "basic"
}

const (
	initialLocation = 0o4000 // start of fixed-fixed bank 2
	initialFBank    = 2
	noSuperBank     = -1
)

// state is the part of the context that gets restored when a record is
// processed again on a later pass.
type state struct {
	location int
	bank     int // start address of the bank the location counter belongs to
	ebank    int
	fbank    int
	sbank    int
	mode     Mode
	operands int // interpretive operand words still expected
}

// check is a deferred comparison of two symbol values.
type check struct {
	record *parser.Record
	name   string
	tokens []string
}

// Context is the mutable state of one assembly run.
type Context struct {
	geometry *memory.Geometry
	symbols  *symbols.Table
	registry *registry
	sink     diag.Sink

	records []*parser.Record
	frames  []state // state at the start of each record

	state
	saved  map[int]int // location counter per bank start address
	checks []check

	reparse bool
	current *parser.Record
	missing []string
	notes   []diag.Diagnostic

	errors   int
	warnings int
}

func newContext(sink diag.Sink) *Context {
	return &Context{
		geometry: memory.New(),
		symbols:  symbols.New(),
		registry: newRegistry(),
		sink:     sink,
		state: state{
			location: initialLocation,
			bank:     initialLocation,
			fbank:    initialFBank,
			sbank:    noSuperBank,
		},
		saved: map[int]int{},
	}
}

// Lookup implements expression.Scope.
func (c *Context) Lookup(name string) (int, bool, bool) {
	return c.symbols.Lookup(name)
}

// Location implements expression.Scope.
func (c *Context) Location() int {
	return c.location
}

// advance moves the location counter behind the words of the current record.
func (c *Context) advance(words int) {
	if c.reparse {
		return
	}
	c.location += words
}

// setLocation moves the location counter inside of the current bank.
func (c *Context) setLocation(address int) {
	if c.reparse {
		return
	}
	c.location = address
}

// moveTo saves the location counter of the current bank and continues at the
// given address.
func (c *Context) moveTo(address int, bank memory.Bank) {
	if c.reparse {
		return
	}
	c.saved[c.bank] = c.location
	c.location = address
	c.bank = bank.Start
	if bank.Kind == memory.Fixed {
		c.fbank = bank.Number
	}
}

// switchBank saves the location counter of the current bank and continues at
// the saved location of the new bank.
func (c *Context) switchBank(bank memory.Bank) {
	if c.reparse {
		return
	}
	c.saved[c.bank] = c.location
	location, ok := c.saved[bank.Start]
	if !ok {
		location = bank.Start
	}
	c.moveTo(location, bank)
	if bank.Kind == memory.Erasable {
		c.ebank = bank.Number
	}
}

func (c *Context) setEBank(number int) {
	if c.reparse {
		return
	}
	c.ebank = number
}

func (c *Context) setSBank(number int) {
	if c.reparse {
		return
	}
	c.sbank = number
}

func (c *Context) setMode(mode Mode) {
	if c.reparse {
		return
	}
	c.mode = mode
}

func (c *Context) expectOperands(words int) {
	if c.reparse {
		return
	}
	c.operands = max(words, 0)
}

// checkPlacement verifies that the given number of words can be placed at
// the location counter.
func (c *Context) checkPlacement(words int) error {
	bank, err := c.geometry.BankFor(c.location)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPlacement, err)
	}
	if bank.Kind != memory.Fixed {
		return fmt.Errorf("%w: code at %06o is not in fixed memory", ErrPlacement, c.location)
	}
	if c.location+words > bank.End() {
		return fmt.Errorf("%w: bank %02o is full", ErrPlacement, bank.Number)
	}
	return nil
}

// evaluate resolves the operand tokens of the current record. It returns
// errPending if a referenced symbol has no value yet.
func (c *Context) evaluate(tokens []string, relative bool) (int, error) {
	res, err := expression.Evaluate(c, tokens, relative)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	if c.current != nil {
		for _, name := range res.References {
			c.symbols.AddReference(name, c.current.Index)
		}
	}
	if !res.Resolved {
		c.missing = append(c.missing, res.Missing...)
		return 0, errPending
	}
	return res.Value, nil
}

// evaluateNow resolves operand tokens that can not refer to symbols that are
// defined later, as the result changes the location counter or bank registers.
func (c *Context) evaluateNow(tokens []string, what string) (int, error) {
	value, err := c.evaluate(tokens, false)
	if err == errPending {
		c.missing = nil
		return 0, fmt.Errorf("%w: forward reference in %s operand", ErrSyntax, what)
	}
	return value, err
}

// address resolves an address operand and checks its memory kind against
// the operand class.
func (c *Context) address(tokens []string, class operandClass) (int, memory.Bank, error) {
	address, err := c.evaluate(tokens, true)
	if err != nil {
		return 0, memory.Bank{}, err
	}

	bank, err := c.geometry.BankFor(address)
	if err != nil {
		return 0, memory.Bank{}, fmt.Errorf("%w: %w", ErrAddressClass, err)
	}

	switch class {
	case operandErasable:
		if bank.Kind != memory.Erasable {
			return 0, bank, fmt.Errorf("%w: erasable address expected, %06o is in fixed memory", ErrAddressClass, address)
		}
	case operandFixed:
		if bank.Kind != memory.Fixed {
			return 0, bank, fmt.Errorf("%w: fixed address expected, %06o is in erasable memory", ErrAddressClass, address)
		}
	}
	return address, bank, nil
}

// checkBank warns about addresses in a switched bank that is not selected.
func (c *Context) checkBank(bank memory.Bank) {
	if bank.Switching != memory.Switched {
		return
	}

	switch bank.Kind {
	case memory.Fixed:
		if bank.Number != c.fbank {
			c.warn("address in fixed bank %02o, current bank is %02o", bank.Number, c.fbank)
		}
	case memory.Erasable:
		if bank.Number != c.ebank {
			c.warn("address in erasable bank E%o, current bank is E%o", bank.Number, c.ebank)
		}
	}
}

// defineLabel assigns the value to the label of the record. A duplicate
// label is reported and the first definition is kept.
func (c *Context) defineLabel(rec *parser.Record, value int) {
	if rec.Label == "" || c.reparse {
		return
	}
	if _, err := c.symbols.DefineValue(rec.Label, value, rec.Index); err != nil {
		c.report(rec, diag.Error, fmt.Sprintf("%s: '%s'", ErrDuplicateSymbol, rec.Label))
	}
}

// warn buffers a warning for the current record. The warnings are reported
// once the record is not pending anymore.
func (c *Context) warn(format string, args ...any) {
	d := diag.Diagnostic{
		Severity: diag.Warning,
		Message:  fmt.Sprintf(format, args...),
	}
	if c.current != nil {
		d.File = c.current.File
		d.Line = c.current.Line
	}
	c.notes = append(c.notes, d)
}

func (c *Context) flushNotes() {
	for _, d := range c.notes {
		c.emit(d)
	}
	c.notes = c.notes[:0]
}

func (c *Context) report(rec *parser.Record, severity diag.Severity, message string) {
	c.emit(diag.Diagnostic{
		Severity: severity,
		File:     rec.File,
		Line:     rec.Line,
		Message:  message,
	})
}

func (c *Context) emit(d diag.Diagnostic) {
	switch d.Severity {
	case diag.Error:
		c.errors++
	case diag.Warning:
		c.warnings++
	}
	if c.sink != nil {
		c.sink.Report(d)
	}
}

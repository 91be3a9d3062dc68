package assembler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/retroenv/agcasm/internal/diag"
	"github.com/retroenv/agcasm/internal/loader"
	"github.com/retroenv/agcasm/internal/options"
	"github.com/retroenv/agcasm/internal/parser"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func assemble(t *testing.T, lines ...string) (*Result, *diag.Collector, error) {
	t.Helper()

	var collector diag.Collector
	a := New(log.NewTestLogger(t), &collector, options.NewAssembler())

	source := make([]loader.Line, 0, len(lines))
	for i, text := range lines {
		source = append(source, loader.Line{File: "test.agc", Number: i + 1, Text: text})
	}
	res, err := a.Assemble(context.Background(), source)
	return res, &collector, err
}

func addLines(t *testing.T, c *Context, lines ...string) []*parser.Record {
	t.Helper()

	records := make([]*parser.Record, 0, len(lines))
	for i, text := range lines {
		rec := parser.Parse("test.agc", i+1, text)
		assert.NoError(t, c.add(rec))
		records = append(records, rec)
	}
	return records
}

func symbolValue(t *testing.T, res *Result, name string) int {
	t.Helper()
	value, defined, known := res.Symbols.Lookup(name)
	assert.True(t, known)
	assert.True(t, defined)
	return value
}

func assertCode(t *testing.T, rec *parser.Record, expected ...int) {
	t.Helper()
	assert.Equal(t, parser.StateComplete, rec.State)
	assert.Equal(t, len(expected), len(rec.Code))
	for i, w := range expected {
		assert.Equal(t, w, rec.Code[i])
	}
}

func TestEqualsAndTransferControl(t *testing.T) {
	c := newContext(nil)

	records := addLines(t, c, "FOO\tEQUALS\t100")
	equalsRecord := records[0]
	assert.Equal(t, parser.StateComplete, equalsRecord.State)
	assert.Equal(t, parser.KindAssemblerConstant, equalsRecord.Kind)
	assert.Equal(t, 0, len(equalsRecord.Code))
	assert.Equal(t, 0o100, equalsRecord.Target)
	assert.Equal(t, initialLocation, c.location)

	value, defined, known := c.symbols.Lookup("FOO")
	assert.True(t, known)
	assert.True(t, defined)
	assert.Equal(t, 0o100, value)

	records = addLines(t, c, "\t\tTC\tFOO")
	tc := records[0]
	assertCode(t, tc, 0o100)
	assert.Equal(t, parser.KindExecutable, tc.Kind)
	assert.Equal(t, initialLocation, tc.Address)
	assert.Equal(t, initialLocation+1, c.location)
}

func TestForwardReference(t *testing.T) {
	inOrder, _, err := assemble(t,
		"FOO\tEQUALS\t100",
		"\t\tTC\tFOO",
	)
	assert.NoError(t, err)

	forward, _, err := assemble(t,
		"\t\tTC\tFOO",
		"FOO\tEQUALS\t100",
	)
	assert.NoError(t, err)
	assert.Equal(t, 0, forward.Errors)

	assertCode(t, inOrder.Records[1], 0o100)
	assertCode(t, forward.Records[0], 0o100)
	assert.Equal(t, inOrder.Records[1].Address, forward.Records[0].Address)
}

func TestForwardReferenceChain(t *testing.T) {
	res, _, err := assemble(t,
		"A\tEQUALS\tB + 1",
		"B\tEQUALS\tC",
		"C\tEQUALS\t10",
		"\t\tCA\tA",
	)
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Errors)
	assert.Equal(t, 0o11, symbolValue(t, res, "A"))
	assert.Equal(t, 0o10, symbolValue(t, res, "B"))
	assertCode(t, res.Records[3], 0o30011)
}

func TestForwardLabelKeepsLocation(t *testing.T) {
	res, _, err := assemble(t,
		"\t\tTC\tLATER",
		"\t\tBANK\t5",
		"LATER\tTC\tLATER",
	)
	assert.NoError(t, err)

	assert.Equal(t, 0o22000, symbolValue(t, res, "LATER"))
	first := res.Records[0]
	assert.Equal(t, 0o4000, first.Address)
	assertCode(t, first, 0o2000)
	assert.Equal(t, 0o22000, res.Records[2].Address)

	// the reference from bank 2 into bank 5 is reported once
	assert.Equal(t, 1, res.Warnings)
}

func TestCircularDefinition(t *testing.T) {
	_, collector, err := assemble(t,
		"A\tEQUALS\tB",
		"B\tEQUALS\tA",
	)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonConvergence))

	var fatal *FatalError
	assert.True(t, errors.As(err, &fatal))
	assert.Equal(t, 2, len(fatal.Pending))
	assert.Equal(t, 2, collector.Count(diag.Error))
}

func TestPassLimit(t *testing.T) {
	var collector diag.Collector
	a := New(log.NewTestLogger(t), &collector, options.Assembler{MaxPasses: 1})

	lines := []loader.Line{
		{File: "test.agc", Number: 1, Text: "A\tEQUALS\tB"},
		{File: "test.agc", Number: 2, Text: "B\tEQUALS\tC"},
		{File: "test.agc", Number: 3, Text: "C\tEQUALS\tD"},
		{File: "test.agc", Number: 4, Text: "D\tEQUALS\t1"},
	}
	_, err := a.Assemble(context.Background(), lines)
	assert.True(t, errors.Is(err, ErrNonConvergence))
}

func TestUndefinedSymbol(t *testing.T) {
	res, collector, err := assemble(t,
		"\t\tTC\tNOWHERE",
		"A\tEQUALS\tMISSING",
		"\t\tCA\tA",
	)
	assert.NoError(t, err)
	assert.Equal(t, 3, res.Errors)
	assert.Equal(t, parser.StateFailed, res.Records[0].State)
	assert.Equal(t, parser.StateFailed, res.Records[1].State)
	assert.Equal(t, parser.StateFailed, res.Records[2].State)

	messages := collector.Diagnostics()
	assert.Contains(t, messages[0].Message, "undefined symbol")
	assert.Equal(t, 1, messages[0].Line)
}

func TestDuplicateSymbol(t *testing.T) {
	res, collector, err := assemble(t,
		"A\tEQUALS\t1",
		"A\tEQUALS\t2",
		"B\tTC\tA",
		"B\tTC\tA",
	)
	assert.NoError(t, err)
	assert.Equal(t, 2, res.Errors)
	assert.Equal(t, 1, symbolValue(t, res, "A"))
	assert.Equal(t, 0o4000, symbolValue(t, res, "B"))
	assertCode(t, res.Records[3], 1)
	assert.Contains(t, collector.Diagnostics()[0].Message, "duplicate symbol")
}

func TestFatalMnemonics(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		err   error
	}{
		{name: "extended instruction without EXTEND", lines: []string{"\t\tDV\t10"}, err: ErrMode},
		{name: "basic instruction after EXTEND", lines: []string{"\t\tEXTEND", "\t\tTS\t10"}, err: ErrMode},
		{name: "constant after EXTEND", lines: []string{"\t\tSETLOC\t4000", "\t\tEXTEND", "\t\tOCT\t5", "\t\tDCA\t100"}, err: ErrMode},
		{name: "interpretive after EXTEND", lines: []string{"\t\tEXTEND", "\t\tEXIT"}, err: ErrMode},
		{name: "unknown mnemonic", lines: []string{"\t\tFOO\t10"}, err: ErrUnknownMnemonic},
		{name: "unsupported directive", lines: []string{"\t\tMEMORY\t10"}, err: ErrUnsupportedMnemonic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := assemble(t, tt.lines...)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.err))
			assert.False(t, errors.Is(err, ErrNonConvergence))
		})
	}
}

func TestCheckDirective(t *testing.T) {
	res, _, err := assemble(t,
		"A\tEQUALS\t10",
		"B\tEQUALS\t10",
		"C\tEQUALS\t11",
		"A\tCHECK=\tB",
	)
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Errors)

	res, collector, err := assemble(t,
		"A\tCHECK=\tC",
		"A\tEQUALS\t10",
		"C\tEQUALS\t11",
	)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Errors)
	assert.Contains(t, collector.Diagnostics()[0].Message, "check failed")
}

func TestAssembleListingOrder(t *testing.T) {
	lines := strings.Split("# header\n\nSTART\tCA\tSTART\n$other.agc\n\t\tTC\tSTART", "\n")
	res, _, err := assemble(t, lines...)
	assert.NoError(t, err)
	assert.Equal(t, 5, len(res.Records))

	kinds := []parser.Kind{
		parser.KindComment,
		parser.KindBlank,
		parser.KindExecutable,
		parser.KindInclude,
		parser.KindExecutable,
	}
	for i, kind := range kinds {
		assert.Equal(t, kind, res.Records[i].Kind)
		assert.Equal(t, i, res.Records[i].Index)
	}
	assertCode(t, res.Records[4], 0o4000)
}

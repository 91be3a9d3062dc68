package assembler

import (
	"testing"

	"github.com/retroenv/agcasm/internal/parser"
	"github.com/retroenv/retrogolib/assert"
)

func TestErase(t *testing.T) {
	res, _, err := assemble(t,
		"\t\tSETLOC\t1000",
		"A\tERASE",
		"B\tERASE\t5",
		"C\tERASE",
		"R\tERASE\t1400 - 1410",
		"D\tERASE",
		"S\tERASE\t1500-1502",
		"E\tERASE",
	)
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Errors)

	tests := []struct {
		name  string
		value int
	}{
		{name: "A", value: 0o1000},
		{name: "B", value: 0o1001},
		{name: "C", value: 0o1007},
		{name: "R", value: 0o1400},
		{name: "D", value: 0o1410},
		{name: "S", value: 0o1500},
		{name: "E", value: 0o1502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.value, symbolValue(t, res, tt.name))
		})
	}

	assert.Equal(t, parser.KindAssemblerConstant, res.Records[1].Kind)
	assert.Equal(t, 0, len(res.Records[1].Code))
	assert.Equal(t, 0o1400, res.Records[4].Address)
}

func TestEraseLocationCounter(t *testing.T) {
	c := newContext(nil)
	addLines(t, c, "\t\tSETLOC\t400")

	addLines(t, c, "\t\tERASE")
	assert.Equal(t, 0o401, c.location)

	addLines(t, c, "\t\tERASE\t5")
	assert.Equal(t, 0o407, c.location)
}

func TestEraseErrors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{name: "fixed memory", lines: []string{"A\tERASE"}},
		{name: "forward reference", lines: []string{"\t\tSETLOC\t400", "A\tERASE\tN", "N\tEQUALS\t2"}},
		{name: "bank overflow", lines: []string{"\t\tSETLOC\t770", "A\tERASE\t10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := assemble(t, tt.lines...)
			assert.NoError(t, err)
			assert.Equal(t, 1, res.Errors)
		})
	}
}

func TestBankSwitching(t *testing.T) {
	res, _, err := assemble(t,
		"\t\tBANK\t5",
		"B5A\tTC\tB5A",
		"\t\tBANK\t6",
		"B6A\tTC\tB5A",
		"\t\tBANK\t5",
		"B5B\tTC\tB5B",
		"\t\tBANK",
		"B5C\tNOOP",
		"\t\tBLOCK\t2",
		"B2A\tNOOP",
		"\t\tBLOCK\t0",
		"E0A\tERASE",
	)
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Errors)
	assert.Equal(t, 1, res.Warnings)

	assert.Equal(t, 0o22000, symbolValue(t, res, "B5A"))
	assert.Equal(t, 0o24000, symbolValue(t, res, "B6A"))
	assert.Equal(t, 0o22001, symbolValue(t, res, "B5B"))
	assert.Equal(t, 0o22002, symbolValue(t, res, "B5C"))
	assert.Equal(t, 0o4000, symbolValue(t, res, "B2A"))
	assert.Equal(t, 0, symbolValue(t, res, "E0A"))
}

func TestSetloc(t *testing.T) {
	res, _, err := assemble(t,
		"\t\tSETLOC\t6000",
		"F3\tNOOP",
		"\t\tSETLOC\tLATER",
		"LATER\tNOOP",
	)
	assert.NoError(t, err)
	assert.Equal(t, 0o6000, symbolValue(t, res, "F3"))
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, parser.StateFailed, res.Records[2].State)
}

func TestBankRegisters(t *testing.T) {
	c := newContext(nil)

	addLines(t, c, "\t\tEBANK=\t5")
	assert.Equal(t, 5, c.ebank)

	addLines(t, c, "X\tEQUALS\t3400", "\t\tEBANK=\tX")
	assert.Equal(t, 7, c.ebank)

	addLines(t, c, "\t\tSBANK=\t4")
	assert.Equal(t, 4, c.sbank)

	records := addLines(t, c, "\t\tEBANK=\t10")
	assert.Equal(t, parser.StateFailed, records[0].State)
	assert.Equal(t, 7, c.ebank)
}

func TestDataConstants(t *testing.T) {
	tests := []struct {
		line     string
		expected []int
	}{
		{line: "\t\tOCT\t1400", expected: []int{0o1400}},
		{line: "\t\tOCT\t-1", expected: []int{0o77776}},
		{line: "\t\t2OCT\t1234567012", expected: []int{0o12345, 0o67012}},
		{line: "\t\t2OCT\t12345 67012", expected: []int{0o12345, 0o67012}},
		{line: "\t\tDEC\t+120D", expected: []int{0o170}},
		{line: "\t\tDEC\t+120", expected: []int{0o170}},
		{line: "\t\tDEC*\t+120D*", expected: []int{0o170}},
		{line: "\t\tDEC\t-.5", expected: []int{0o57777}},
		{line: "\t\t2DEC\t+120", expected: []int{0, 0o170}},
		{line: "\t\t2DEC*\t.5", expected: []int{0o20000, 0}},
		{line: "\t\tMM\t37", expected: []int{37}},
		{line: "\t\tVN\t0621", expected: []int{6*128 + 21}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res, _, err := assemble(t, tt.line)
			assert.NoError(t, err)
			assert.Equal(t, 0, res.Errors)
			assert.Equal(t, parser.KindCodeConstant, res.Records[0].Kind)
			assertCode(t, res.Records[0], tt.expected...)
		})
	}
}

func TestDataConstantErrors(t *testing.T) {
	res, _, err := assemble(t,
		"\t\tOCT\t18",
		"\t\tOCT",
		"\t\tDEC\t1.5",
		"\t\tOCT\t1",
	)
	assert.NoError(t, err)
	assert.Equal(t, 3, res.Errors)
	assertCode(t, res.Records[3], 1)
	assert.Equal(t, 0o4003, res.Records[3].Address)
}

func TestDecimalSaturation(t *testing.T) {
	res, collector, err := assemble(t, "\t\tDEC\t1.0")
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Errors)
	assert.Equal(t, 1, res.Warnings)
	assertCode(t, res.Records[0], 0o37777)
	assert.Contains(t, collector.Diagnostics()[0].Message, "overflow")
}

func TestAddressConstants(t *testing.T) {
	prefix := []string{
		"E5\tEQUALS\t2401",
		"F5\tEQUALS\t22010",
		"F41\tEQUALS\t112000",
		"F2\tEQUALS\t4010",
	}

	tests := []struct {
		line     string
		expected []int
	}{
		{line: "\t\tECADR\tE5", expected: []int{0o2401}},
		{line: "\t\tGENADR\tE5", expected: []int{0o1401}},
		{line: "\t\tREMADR\tF5", expected: []int{0o2010}},
		{line: "\t\tGENADR\tF2", expected: []int{0o4010}},
		{line: "\t\t-GENADR\tF5", expected: []int{0o75767}},
		{line: "\t\tFCADR\tF5", expected: []int{0o12010}},
		{line: "\t\tFCADR\tF41", expected: []int{0o62000}},
		{line: "\t\tCADR\tF5", expected: []int{0o12010}},
		{line: "\t\tCADR\tE5", expected: []int{0o2401}},
		{line: "\t\tBBCON\tF5", expected: []int{0o12060}},
		{line: "\t\tBBCON\tF41", expected: []int{0o62100}},
		{line: "\t\t2CADR\tF5", expected: []int{0o2010, 0o12060}},
		{line: "\t\t2BCADR\tE5", expected: []int{0o1401, 5}},
		{line: "\t\t-2CADR\tF5", expected: []int{0o75767, 0o65717}},
		{line: "\t\t2FCADR\tF5", expected: []int{0o12010, 0o2010}},
		{line: "\t\t1DNADR\tE5", expected: []int{0o2401}},
		{line: "\t\t3DNADR\tE5", expected: []int{0o12401}},
		{line: "\t\t-1DNADR\tE5", expected: []int{0o75376}},
		{line: "\t\tDNCHAN\t30", expected: []int{0o34030}},
		{line: "\t\t-DNCHAN\t30", expected: []int{0o43747}},
		{line: "\t\tDNPTR\tF5", expected: []int{0o62010}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res, _, err := assemble(t, append(prefix, tt.line)...)
			assert.NoError(t, err)
			assert.Equal(t, 0, res.Errors)
			assertCode(t, res.Records[len(prefix)], tt.expected...)
		})
	}
}

func TestBbconWithRegisters(t *testing.T) {
	res, _, err := assemble(t,
		"F5\tEQUALS\t22010",
		"\t\tEBANK=\t6",
		"\t\tSBANK=\t5",
		"\t\tBBCON\tF5",
	)
	assert.NoError(t, err)
	assertCode(t, res.Records[3], 5<<10|5<<4|6)
}

func TestAddressConstantClass(t *testing.T) {
	res, collector, err := assemble(t,
		"E5\tEQUALS\t2401",
		"\t\tFCADR\tE5",
		"\t\tBBCON\tE5",
		"\t\tBBCON",
	)
	assert.NoError(t, err)
	assert.Equal(t, 3, res.Errors)

	messages := collector.Diagnostics()
	assert.Contains(t, messages[0].Message, ErrAddressClass.Error())
	assert.Contains(t, messages[2].Message, "missing operand")
}

func TestEqualsWithoutOperand(t *testing.T) {
	res, _, err := assemble(t,
		"\t\tNOOP",
		"HERE\tEQUALS",
		"\t\tNOOP",
	)
	assert.NoError(t, err)
	assert.Equal(t, 0o4001, symbolValue(t, res, "HERE"))
	assert.Equal(t, 0o4001, res.Records[2].Address)
}

func TestEqualsRequiresLabel(t *testing.T) {
	res, collector, err := assemble(t, "\t\tEQUALS\t10")
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Errors)
	assert.Contains(t, collector.Diagnostics()[0].Message, "requires a label")
}

func TestIgnoredDirectives(t *testing.T) {
	res, _, err := assemble(t,
		"\t\tBNKSUM\t5",
		"\t\tCOUNT*\t$$/INTER",
		"\t\tNOOP",
	)
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Errors)
	assert.Equal(t, parser.KindIgnored, res.Records[0].Kind)
	assert.Equal(t, 0o4000, res.Records[2].Address)
}

package assembler

import (
	"testing"

	"github.com/retroenv/agcasm/internal/parser"
	"github.com/retroenv/retrogolib/assert"
)

func TestInterpretive(t *testing.T) {
	res, _, err := assemble(t,
		"A\tEQUALS\t100",
		"B\tEQUALS\t101",
		"F5\tEQUALS\t22010",
		"\t\tDLOAD\tDMP",
		"\t\t\tA",
		"\t\t\tB",
		"\t\tSTORE\tA",
		"\t\tGOTO",
		"\t\t\tF5",
		"\t\tDLOAD\tA,1",
		"\t\tEXIT",
		"\t\tTC\tA",
	)
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Errors)

	tests := []struct {
		index    int
		expected []int
	}{
		{index: 3, expected: []int{0o74604}},
		{index: 4, expected: []int{0o100}},
		{index: 5, expected: []int{0o101}},
		{index: 6, expected: []int{0o77700, 0o100}},
		{index: 7, expected: []int{0o77650}},
		{index: 8, expected: []int{0o2010}},
		{index: 9, expected: []int{0o77762, 0o100}},
		{index: 10, expected: []int{0o77776}},
	}
	for _, tt := range tests {
		rec := res.Records[tt.index]
		t.Run(rec.Text, func(t *testing.T) {
			assert.Equal(t, parser.KindInterpretive, rec.Kind)
			assertCode(t, rec, tt.expected...)
		})
	}

	assert.Equal(t, 0o4003, res.Records[6].Address)
	assert.Equal(t, 0o4011, res.Records[10].Address)
	assert.Equal(t, parser.KindExecutable, res.Records[11].Kind)
	assertCode(t, res.Records[11], 0o100)
}

func TestInterpretiveOperandCount(t *testing.T) {
	c := newContext(nil)

	addLines(t, c, "\t\tBON\tRTB")
	assert.Equal(t, 3, c.operands)

	addLines(t, c, "\t\t\t1", "\t\t\t2")
	assert.Equal(t, 1, c.operands)

	records := addLines(t, c, "\t\tCA\t3")
	assertCode(t, records[0], 0o30003)
	assert.Equal(t, 0, c.operands)
}

func TestInterpretiveForwardOperand(t *testing.T) {
	res, _, err := assemble(t,
		"\t\tDLOAD",
		"\t\t\tLATER",
		"\t\tEXIT",
		"LATER\tEQUALS\t200",
	)
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Errors)
	assertCode(t, res.Records[1], 0o200)
	assert.Equal(t, parser.KindInterpretive, res.Records[2].Kind)
	assertCode(t, res.Records[2], 0o77776)
}

func TestInterpretiveErrors(t *testing.T) {
	res, _, err := assemble(t,
		"A\tEQUALS\t100",
		"\t\tDLOAD\tDMP\tA",
		"\t\tSTORE\tNOWHERE",
	)
	assert.NoError(t, err)
	assert.Equal(t, 2, res.Errors)
	assert.Equal(t, parser.StateFailed, res.Records[1].State)
	assert.Equal(t, parser.StateFailed, res.Records[2].State)
}

func TestStripIndex(t *testing.T) {
	tests := []struct {
		tokens   []string
		expected []string
	}{
		{tokens: []string{"A"}, expected: []string{"A"}},
		{tokens: []string{"A,1"}, expected: []string{"A"}},
		{tokens: []string{"A", "+", "1,2"}, expected: []string{"A", "+", "1"}},
		{tokens: nil, expected: nil},
	}

	for _, tt := range tests {
		result := stripIndex(tt.tokens)
		assert.Equal(t, len(tt.expected), len(result))
		for i := range tt.expected {
			assert.Equal(t, tt.expected[i], result[i])
		}
	}
}

package assembler

import (
	"github.com/retroenv/agcasm/internal/memory"
	"github.com/retroenv/agcasm/internal/parser"
)

// operandClass defines what kind of operand an opcode expects.
type operandClass int

const (
	operandNone operandClass = iota
	operandErasable
	operandFixed
	operandGeneral
	operandChannel
	operandNumeric
	operandSymbolic
)

// instructionSet groups the mnemonics by the context they are valid in.
type instructionSet int

const (
	setDirective instructionSet = iota
	setBasic
	setExtended
	setInterpretive
)

// labelMode defines when the label of a record gets defined.
type labelMode int

const (
	labelAtLocation labelMode = iota // before processing, at the location counter
	labelAfter                       // after processing, at the new location counter
	labelCustom                      // by the handler
)

type handlerFunc func(c *Context, rec *parser.Record, op *opcode) error

// addressEncoder converts a resolved address into the words of an address
// constant.
type addressEncoder func(c *Context, op *opcode, address int, bank memory.Bank) ([]int, error)

// opcode is a registry entry of a mnemonic.
type opcode struct {
	name  string
	set   instructionSet
	kind  parser.Kind
	code  int
	class operandClass
	words int
	label labelMode

	operands     int  // interpretive operand words following the opcode
	extend       bool // switches to extended mode for the next instruction
	keepExtended bool // does not reset the extended mode
	negate       bool // complement all generated words
	unsupported  bool

	encode  addressEncoder
	handler handlerFunc
}

// size returns the number of words that the record occupies.
func (op *opcode) size(rec *parser.Record, r *registry) int {
	if op.set == setInterpretive && op != r.operand {
		return interpretiveSize(rec, r)
	}
	return op.words
}

// registry maps mnemonics to their opcodes.
type registry struct {
	basic        map[string]*opcode
	extended     map[string]*opcode
	directives   map[string]*opcode
	interpretive map[string]*opcode

	operand *opcode // line containing an interpretive operand
}

func newRegistry() *registry {
	r := &registry{
		basic:        map[string]*opcode{},
		extended:     map[string]*opcode{},
		directives:   map[string]*opcode{},
		interpretive: map[string]*opcode{},
		operand: &opcode{
			name:    "operand",
			set:     setInterpretive,
			kind:    parser.KindInterpretive,
			words:   1,
			handler: interpretiveOperand,
		},
	}

	for _, op := range basicInstructions() {
		op.set = setBasic
		register(r.basic, op)
	}
	for _, op := range extendedInstructions() {
		op.set = setExtended
		register(r.extended, op)
	}
	for _, op := range directives() {
		op.set = setDirective
		register(r.directives, op)
	}
	for _, op := range interpretiveInstructions() {
		op.set = setInterpretive
		op.kind = parser.KindInterpretive
		op.handler = interpretive
		register(r.interpretive, op)
	}
	return r
}

func register(table map[string]*opcode, op opcode) {
	if op.set == setBasic || op.set == setExtended {
		op.kind = parser.KindExecutable
		op.words = 1
		op.handler = instruction
	}
	table[op.name] = &op
}

func basicInstructions() []opcode {
	return []opcode{
		{name: "TC", code: 0o00000, class: operandGeneral},
		{name: "TCR", code: 0o00000, class: operandGeneral},
		{name: "XXALQ", code: 0o00000},
		{name: "XLQ", code: 0o00001},
		{name: "RETURN", code: 0o00002},
		{name: "RELINT", code: 0o00003},
		{name: "INHINT", code: 0o00004},
		{name: "EXTEND", code: 0o00006, extend: true},
		{name: "CCS", code: 0o10000, class: operandErasable},
		{name: "TCF", code: 0o10000, class: operandFixed},
		{name: "DAS", code: 0o20001, class: operandErasable},
		{name: "DDOUBL", code: 0o20001},
		{name: "LXCH", code: 0o22000, class: operandErasable},
		{name: "ZL", code: 0o22007},
		{name: "INCR", code: 0o24000, class: operandErasable},
		{name: "ADS", code: 0o26000, class: operandErasable},
		{name: "CA", code: 0o30000, class: operandGeneral},
		{name: "CAE", code: 0o30000, class: operandErasable},
		{name: "CAF", code: 0o30000, class: operandFixed},
		{name: "NOOP", code: 0o30000},
		{name: "CS", code: 0o40000, class: operandGeneral},
		{name: "COM", code: 0o40000},
		{name: "INDEX", code: 0o50000, class: operandErasable},
		{name: "NDX", code: 0o50000, class: operandErasable},
		{name: "RESUME", code: 0o50017},
		{name: "DXCH", code: 0o52001, class: operandErasable},
		{name: "DTCF", code: 0o52005},
		{name: "DTCB", code: 0o52006},
		{name: "TS", code: 0o54000, class: operandErasable},
		{name: "OVSK", code: 0o54000},
		{name: "TCAA", code: 0o54005},
		{name: "XCH", code: 0o56000, class: operandErasable},
		{name: "AD", code: 0o60000, class: operandGeneral},
		{name: "DOUBLE", code: 0o60000},
		{name: "MASK", code: 0o70000, class: operandGeneral},
		{name: "MSK", code: 0o70000, class: operandGeneral},
	}
}

func extendedInstructions() []opcode {
	return []opcode{
		{name: "READ", code: 0o00000, class: operandChannel},
		{name: "WRITE", code: 0o01000, class: operandChannel},
		{name: "RAND", code: 0o02000, class: operandChannel},
		{name: "WAND", code: 0o03000, class: operandChannel},
		{name: "ROR", code: 0o04000, class: operandChannel},
		{name: "WOR", code: 0o05000, class: operandChannel},
		{name: "RXOR", code: 0o06000, class: operandChannel},
		{name: "EDRUPT", code: 0o07000},
		{name: "DV", code: 0o10000, class: operandErasable},
		{name: "BZF", code: 0o10000, class: operandFixed},
		{name: "MSU", code: 0o20000, class: operandErasable},
		{name: "QXCH", code: 0o22000, class: operandErasable},
		{name: "ZQ", code: 0o22007},
		{name: "AUG", code: 0o24000, class: operandErasable},
		{name: "DIM", code: 0o26000, class: operandErasable},
		{name: "DCA", code: 0o30001, class: operandGeneral},
		{name: "DCS", code: 0o40001, class: operandGeneral},
		{name: "DCOM", code: 0o40001},
		{name: "INDEX", code: 0o50000, class: operandGeneral, keepExtended: true},
		{name: "NDX", code: 0o50000, class: operandGeneral, keepExtended: true},
		{name: "SU", code: 0o60000, class: operandErasable},
		{name: "BZMF", code: 0o60000, class: operandFixed},
		{name: "MP", code: 0o70000, class: operandGeneral},
		{name: "SQUARE", code: 0o70000},
	}
}

func directives() []opcode {
	return []opcode{
		{name: "SETLOC", kind: parser.KindAssemblerConstant, class: operandSymbolic, label: labelAfter, handler: setLocation},
		{name: "BANK", kind: parser.KindAssemblerConstant, class: operandNumeric, label: labelAfter, handler: bankDirective},
		{name: "BLOCK", kind: parser.KindAssemblerConstant, class: operandNumeric, label: labelAfter, handler: blockDirective},
		{name: "EBANK=", kind: parser.KindAssemblerConstant, class: operandSymbolic, handler: ebankDirective},
		{name: "SBANK=", kind: parser.KindAssemblerConstant, class: operandSymbolic, handler: sbankDirective},

		{name: "EQUALS", kind: parser.KindAssemblerConstant, class: operandSymbolic, label: labelCustom, handler: equals},
		{name: "=", kind: parser.KindAssemblerConstant, class: operandSymbolic, label: labelCustom, handler: equals},
		{name: "ERASE", kind: parser.KindAssemblerConstant, class: operandSymbolic, label: labelCustom, handler: erase},
		{name: "CHECK=", kind: parser.KindAssemblerConstant, class: operandSymbolic, label: labelCustom, handler: checkDirective},

		{name: "OCT", kind: parser.KindCodeConstant, class: operandNumeric, words: 1, handler: octal},
		{name: "2OCT", kind: parser.KindCodeConstant, class: operandNumeric, words: 2, handler: octal},
		{name: "DEC", kind: parser.KindCodeConstant, class: operandNumeric, words: 1, handler: decimal},
		{name: "DEC*", kind: parser.KindCodeConstant, class: operandNumeric, words: 1, handler: decimal},
		{name: "2DEC", kind: parser.KindCodeConstant, class: operandNumeric, words: 2, handler: decimal},
		{name: "2DEC*", kind: parser.KindCodeConstant, class: operandNumeric, words: 2, handler: decimal},
		{name: "MM", kind: parser.KindCodeConstant, class: operandNumeric, words: 1, handler: majorMode},
		{name: "VN", kind: parser.KindCodeConstant, class: operandNumeric, words: 1, handler: verbNoun},

		{name: "ADRES", kind: parser.KindCodeConstant, class: operandGeneral, words: 1, encode: encodeAdres, handler: addressConstant},
		{name: "REMADR", kind: parser.KindCodeConstant, class: operandGeneral, words: 1, encode: encodeGenadr, handler: addressConstant},
		{name: "GENADR", kind: parser.KindCodeConstant, class: operandGeneral, words: 1, encode: encodeGenadr, handler: addressConstant},
		{name: "-GENADR", kind: parser.KindCodeConstant, class: operandGeneral, words: 1, encode: encodeGenadr, negate: true, handler: addressConstant},
		{name: "FCADR", kind: parser.KindCodeConstant, class: operandFixed, words: 1, encode: encodeFcadr, handler: addressConstant},
		{name: "ECADR", kind: parser.KindCodeConstant, class: operandErasable, words: 1, encode: encodeEcadr, handler: addressConstant},
		{name: "CADR", kind: parser.KindCodeConstant, class: operandGeneral, words: 1, encode: encodeCadr, handler: addressConstant},
		{name: "BBCON", kind: parser.KindCodeConstant, class: operandFixed, words: 1, encode: encodeBbcon, handler: addressConstant},
		{name: "2CADR", kind: parser.KindCodeConstant, class: operandGeneral, words: 2, encode: encode2Cadr, handler: addressConstant},
		{name: "-2CADR", kind: parser.KindCodeConstant, class: operandGeneral, words: 2, encode: encode2Cadr, negate: true, handler: addressConstant},
		{name: "2BCADR", kind: parser.KindCodeConstant, class: operandGeneral, words: 2, encode: encode2Cadr, handler: addressConstant},
		{name: "2FCADR", kind: parser.KindCodeConstant, class: operandFixed, words: 2, encode: encode2Fcadr, handler: addressConstant},
		{name: "DNPTR", kind: parser.KindCodeConstant, class: operandGeneral, words: 1, encode: encodeDnptr, handler: addressConstant},
		{name: "DNCHAN", kind: parser.KindCodeConstant, class: operandChannel, words: 1, handler: downlinkChannel},
		{name: "-DNCHAN", kind: parser.KindCodeConstant, class: operandChannel, words: 1, negate: true, handler: downlinkChannel},
		{name: "1DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 1, words: 1, encode: encodeDnadr, handler: addressConstant},
		{name: "2DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 2, words: 1, encode: encodeDnadr, handler: addressConstant},
		{name: "3DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 3, words: 1, encode: encodeDnadr, handler: addressConstant},
		{name: "4DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 4, words: 1, encode: encodeDnadr, handler: addressConstant},
		{name: "5DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 5, words: 1, encode: encodeDnadr, handler: addressConstant},
		{name: "6DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 6, words: 1, encode: encodeDnadr, handler: addressConstant},
		{name: "-1DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 1, words: 1, encode: encodeDnadr, negate: true, handler: addressConstant},
		{name: "-2DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 2, words: 1, encode: encodeDnadr, negate: true, handler: addressConstant},
		{name: "-3DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 3, words: 1, encode: encodeDnadr, negate: true, handler: addressConstant},
		{name: "-4DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 4, words: 1, encode: encodeDnadr, negate: true, handler: addressConstant},
		{name: "-5DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 5, words: 1, encode: encodeDnadr, negate: true, handler: addressConstant},
		{name: "-6DNADR", kind: parser.KindCodeConstant, class: operandErasable, code: 6, words: 1, encode: encodeDnadr, negate: true, handler: addressConstant},

		{name: "BNKSUM", kind: parser.KindIgnored, handler: ignored},
		{name: "COUNT", kind: parser.KindIgnored, handler: ignored},
		{name: "COUNT*", kind: parser.KindIgnored, handler: ignored},
		{name: "SUBRO", kind: parser.KindIgnored, handler: ignored},

		{name: "SECSIZ", kind: parser.KindCodeConstant, unsupported: true},
		{name: "MEMORY", kind: parser.KindAssemblerConstant, unsupported: true},
		{name: "=MINUS", kind: parser.KindAssemblerConstant, unsupported: true},
	}
}

// interpretiveInstructions returns the opcodes of the interpreter with the
// number of operand words that follow them.
func interpretiveInstructions() []opcode {
	return []opcode{
		{name: "EXIT", code: 0o000},
		{name: "SQRT", code: 0o010},
		{name: "SIN", code: 0o020},
		{name: "SINE", code: 0o020},
		{name: "UNIT", code: 0o024},
		{name: "COS", code: 0o030},
		{name: "COSINE", code: 0o030},
		{name: "ASIN", code: 0o040},
		{name: "ARCSIN", code: 0o040},
		{name: "ACOS", code: 0o050},
		{name: "ARCCOS", code: 0o050},
		{name: "DSQ", code: 0o060},
		{name: "ROUND", code: 0o070},
		{name: "DCOMP", code: 0o100},
		{name: "VCOMP", code: 0o100},
		{name: "VDEF", code: 0o110},
		{name: "ABVAL", code: 0o130},
		{name: "ABS", code: 0o130},
		{name: "VSQ", code: 0o104},
		{name: "PUSH", code: 0o170},
		{name: "RVQ", code: 0o160},

		{name: "DLOAD", code: 0o014, operands: 1},
		{name: "TLOAD", code: 0o025, operands: 1},
		{name: "VLOAD", code: 0o001, operands: 1},
		{name: "SLOAD", code: 0o041, operands: 1},
		{name: "PDDL", code: 0o064, operands: 1},
		{name: "PDVL", code: 0o074, operands: 1},
		{name: "DAD", code: 0o161, operands: 1},
		{name: "DSU", code: 0o121, operands: 1},
		{name: "BDSU", code: 0o155, operands: 1},
		{name: "DMP", code: 0o171, operands: 1},
		{name: "DMPR", code: 0o101, operands: 1},
		{name: "DDV", code: 0o105, operands: 1},
		{name: "BDDV", code: 0o111, operands: 1},
		{name: "TAD", code: 0o005, operands: 1},
		{name: "SIGN", code: 0o034, operands: 1},
		{name: "VAD", code: 0o121, operands: 1},
		{name: "VSU", code: 0o125, operands: 1},
		{name: "BVSU", code: 0o131, operands: 1},
		{name: "DOT", code: 0o135, operands: 1},
		{name: "VXV", code: 0o120, operands: 1},
		{name: "VXSC", code: 0o061, operands: 1},
		{name: "V/SC", code: 0o145, operands: 1},
		{name: "MXV", code: 0o055, operands: 1},
		{name: "VXM", code: 0o071, operands: 1},
		{name: "VPROJ", code: 0o075, operands: 1},
		{name: "NORM", code: 0o115, operands: 1},
		{name: "SL", code: 0o015, operands: 1},
		{name: "SR", code: 0o035, operands: 1},
		{name: "VSL", code: 0o011, operands: 1},
		{name: "VSR", code: 0o031, operands: 1},
		{name: "SETPD", code: 0o175, operands: 1},
		{name: "SSP", code: 0o045, operands: 1},
		{name: "STQ", code: 0o156, operands: 1},
		{name: "STADR", code: 0o150},
		{name: "STORE", code: 0o076, operands: 1},
		{name: "STODL", code: 0o077, operands: 2},
		{name: "STOVL", code: 0o103, operands: 2},
		{name: "STCALL", code: 0o107, operands: 2},
		{name: "GOTO", code: 0o126, operands: 1},
		{name: "CALL", code: 0o152, operands: 1},
		{name: "CALRB", code: 0o152, operands: 1},
		{name: "RTB", code: 0o142, operands: 1},
		{name: "BZE", code: 0o122, operands: 1},
		{name: "BPL", code: 0o132, operands: 1},
		{name: "BMN", code: 0o136, operands: 1},
		{name: "BHIZ", code: 0o146, operands: 1},
		{name: "BOV", code: 0o176, operands: 1},
		{name: "BOVB", code: 0o172, operands: 1},
		{name: "CGOTO", code: 0o021, operands: 2},
		{name: "CCALL", code: 0o065, operands: 2},
		{name: "BON", code: 0o162, operands: 2},
		{name: "BOFF", code: 0o163, operands: 2},
		{name: "BONSET", code: 0o164, operands: 2},
		{name: "BOFSET", code: 0o165, operands: 2},
		{name: "BONCLR", code: 0o166, operands: 2},
		{name: "BOFCLR", code: 0o167, operands: 2},
		{name: "SET", code: 0o173, operands: 1},
		{name: "CLEAR", code: 0o174, operands: 1},
		{name: "INVERT", code: 0o177, operands: 1},
		{name: "AXT,1", code: 0o006, operands: 1},
		{name: "AXT,2", code: 0o002, operands: 1},
		{name: "AXC,1", code: 0o016, operands: 1},
		{name: "AXC,2", code: 0o012, operands: 1},
		{name: "LXA,1", code: 0o026, operands: 1},
		{name: "LXA,2", code: 0o022, operands: 1},
		{name: "LXC,1", code: 0o036, operands: 1},
		{name: "LXC,2", code: 0o032, operands: 1},
		{name: "SXA,1", code: 0o046, operands: 1},
		{name: "SXA,2", code: 0o042, operands: 1},
		{name: "INCR,1", code: 0o066, operands: 1},
		{name: "INCR,2", code: 0o062, operands: 1},
		{name: "TIX,1", code: 0o076, operands: 1},
		{name: "TIX,2", code: 0o072, operands: 1},
	}
}

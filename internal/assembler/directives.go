package assembler

import (
	"fmt"
	"strings"

	"github.com/retroenv/agcasm/internal/memory"
	"github.com/retroenv/agcasm/internal/number"
	"github.com/retroenv/agcasm/internal/parser"
)

const (
	superBankFirst  = 0o30
	superBankSecond = 0o40
	superBankOffset = 0o10

	downlinkChannelBase = 0o34000
	downlinkPointerBase = 0o60000
)

// setLocation continues assembling at the given address.
func setLocation(c *Context, rec *parser.Record, op *opcode) error {
	address, err := c.evaluateNow(rec.Operands, op.name)
	if err != nil {
		return err
	}

	bank, err := c.geometry.BankFor(address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPlacement, err)
	}
	c.moveTo(address, bank)
	return nil
}

// bankDirective continues assembling in a fixed bank at its saved location.
// Without operand the current fixed bank is selected again.
func bankDirective(c *Context, rec *parser.Record, op *opcode) error {
	n := c.fbank
	if len(rec.Operands) > 0 {
		var err error
		n, err = c.evaluateNow(rec.Operands, op.name)
		if err != nil {
			return err
		}
	}

	bank, err := c.geometry.Lookup(memory.Fixed, n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPlacement, err)
	}
	c.switchBank(bank)
	return nil
}

// blockDirective selects erasable memory for block 0 and the fixed bank of
// the given number otherwise.
func blockDirective(c *Context, rec *parser.Record, op *opcode) error {
	n, err := c.evaluateNow(rec.Operands, op.name)
	if err != nil {
		return err
	}

	kind := memory.Fixed
	if n == 0 {
		kind = memory.Erasable
		n = c.ebank
	}

	bank, err := c.geometry.Lookup(kind, n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPlacement, err)
	}
	c.switchBank(bank)
	return nil
}

// ebankDirective sets the erasable bank register, either to a bank number or
// to the bank of an erasable address.
func ebankDirective(c *Context, rec *parser.Record, op *opcode) error {
	value, err := c.evaluateNow(rec.Operands, op.name)
	if err != nil {
		return err
	}

	if len(rec.Operands) == 1 && number.IsNumeric(rec.Operands[0]) {
		if value < 0 || value >= memory.ErasableBanks {
			return fmt.Errorf("%w: erasable bank %o does not exist", ErrPlacement, value)
		}
		c.setEBank(value)
		return nil
	}

	bank, err := c.geometry.BankFor(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAddressClass, err)
	}
	if bank.Kind != memory.Erasable {
		return fmt.Errorf("%w: %s expects an erasable address", ErrAddressClass, op.name)
	}
	c.setEBank(bank.Number)
	return nil
}

// sbankDirective sets the super bank register, either to a super bank number
// or to the super bank of a fixed address.
func sbankDirective(c *Context, rec *parser.Record, op *opcode) error {
	value, err := c.evaluateNow(rec.Operands, op.name)
	if err != nil {
		return err
	}

	if len(rec.Operands) == 1 && number.IsNumeric(rec.Operands[0]) {
		if value < 0 || value > 7 {
			return fmt.Errorf("%w: super bank %o does not exist", ErrPlacement, value)
		}
		c.setSBank(value)
		return nil
	}

	bank, err := c.geometry.BankFor(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAddressClass, err)
	}
	if bank.Kind != memory.Fixed || bank.SuperBank < 0 {
		return fmt.Errorf("%w: %s expects an address in a super bank", ErrAddressClass, op.name)
	}
	c.setSBank(bank.SuperBank)
	return nil
}

// equals assigns the value of the operand expression to the label. Without
// operand the label gets the value of the location counter.
func equals(c *Context, rec *parser.Record, op *opcode) error {
	if rec.Label == "" {
		return fmt.Errorf("%w: %s requires a label", ErrSyntax, op.name)
	}

	if !c.reparse {
		if _, err := c.symbols.Define(rec.Label, strings.Join(rec.Operands, " "), rec.Index); err != nil {
			return fmt.Errorf("%w: '%s'", ErrDuplicateSymbol, rec.Label)
		}
	}

	value := c.location
	if len(rec.Operands) > 0 {
		v, err := c.evaluate(rec.Operands, false)
		if err != nil {
			return err
		}
		value = v
	}

	rec.Target = value
	c.symbols.Resolve(rec.Label, value)
	return nil
}

// erase reserves erasable words. Without operand one word is reserved, a
// count n reserves n+1 words and a range lo - hi reserves hi-lo words
// starting at lo.
func erase(c *Context, rec *parser.Record, op *opcode) error {
	start := c.location
	words := 1

	switch lo, hi, ok := eraseRange(rec.Operands); {
	case ok:
		start = lo
		words = hi - lo
	case len(rec.Operands) > 0:
		n, err := c.evaluateNow(rec.Operands, op.name)
		if err != nil {
			return err
		}
		words = n + 1
	}

	bank, err := c.geometry.BankFor(start)
	if err != nil || bank.Kind != memory.Erasable {
		return fmt.Errorf("%w: %s at %06o is not in erasable memory", ErrPlacement, op.name, start)
	}
	if words < 0 || start+words > bank.End() {
		return fmt.Errorf("%w: %s of %d words exceeds erasable bank E%o", ErrPlacement, op.name, words, bank.Number)
	}

	rec.Address = start
	rec.Target = start
	c.defineLabel(rec, start)
	c.setLocation(start + words)
	return nil
}

// eraseRange parses the operand forms "lo - hi" and "lo-hi".
func eraseRange(tokens []string) (int, int, bool) {
	var lo, hi string
	switch len(tokens) {
	case 1:
		i := strings.IndexByte(tokens[0][1:], '-')
		if i < 0 {
			return 0, 0, false
		}
		lo, hi = tokens[0][:i+1], tokens[0][i+2:]
	case 3:
		if tokens[1] != "-" {
			return 0, 0, false
		}
		lo, hi = tokens[0], tokens[2]
	default:
		return 0, 0, false
	}

	low, err := number.ParseInt(lo)
	if err != nil {
		return 0, 0, false
	}
	high, err := number.ParseInt(hi)
	if err != nil {
		return 0, 0, false
	}
	return low, high, true
}

// checkDirective queues a comparison of the label value with the operand
// value that is performed after all symbols are resolved.
func checkDirective(c *Context, rec *parser.Record, op *opcode) error {
	if rec.Label == "" {
		return fmt.Errorf("%w: %s requires a label", ErrSyntax, op.name)
	}
	if len(rec.Operands) == 0 {
		return fmt.Errorf("%w: %s requires an operand", ErrSyntax, op.name)
	}
	if !c.reparse {
		c.checks = append(c.checks, check{
			record: rec,
			name:   rec.Label,
			tokens: rec.Operands,
		})
	}
	return nil
}

func ignored(*Context, *parser.Record, *opcode) error {
	return nil
}

// octal encodes octal constants, double words are given as one 10 digit
// number or as two 5 digit numbers.
func octal(c *Context, rec *parser.Record, op *opcode) error {
	if op.words == 2 && len(rec.Operands) == 2 {
		code := make([]int, 0, 2)
		for _, token := range rec.Operands {
			w, err := number.ParseOctal(token, number.SingleBits)
			if err != nil {
				return fmt.Errorf("%s: %w", op.name, err)
			}
			code = append(code, w.Value())
		}
		rec.Code = code
		return nil
	}

	if len(rec.Operands) != 1 {
		return fmt.Errorf("%w: %s expects one operand", ErrSyntax, op.name)
	}

	bits := uint(number.SingleBits)
	if op.words == 2 {
		bits = number.DoubleBits
	}
	w, err := number.ParseOctal(rec.Operands[0], bits)
	if err != nil {
		return fmt.Errorf("%s: %w", op.name, err)
	}
	rec.Code = wordValues(w)
	return nil
}

// decimal encodes scaled decimal constants.
func decimal(c *Context, rec *parser.Record, op *opcode) error {
	bits := uint(number.SingleBits)
	if op.words == 2 {
		bits = number.DoubleBits
	}

	w, overflow, err := number.ParseDecimal(rec.Operands, bits)
	if err != nil {
		return fmt.Errorf("%s: %w", op.name, err)
	}
	if overflow {
		c.warn("%s: %s saturated", op.name, number.ErrOverflow)
	}
	rec.Code = wordValues(w)
	return nil
}

// majorMode encodes a decimal major mode number.
func majorMode(c *Context, rec *parser.Record, op *opcode) error {
	if len(rec.Operands) != 1 {
		return fmt.Errorf("%w: %s expects one operand", ErrSyntax, op.name)
	}
	value, err := parseDecimalInt(rec.Operands[0])
	if err != nil {
		return fmt.Errorf("%s: %w", op.name, err)
	}
	rec.Code = []int{number.FromInt(value, number.SingleBits).Value()}
	return nil
}

// verbNoun encodes a decimal verb and noun pair, the last two digits are
// the noun.
func verbNoun(c *Context, rec *parser.Record, op *opcode) error {
	if len(rec.Operands) != 1 || len(rec.Operands[0]) < 3 {
		return fmt.Errorf("%w: %s expects a verb and noun number", ErrSyntax, op.name)
	}

	token := rec.Operands[0]
	verb, err := parseDecimalInt(token[:len(token)-2])
	if err != nil {
		return fmt.Errorf("%s: %w", op.name, err)
	}
	noun, err := parseDecimalInt(token[len(token)-2:])
	if err != nil {
		return fmt.Errorf("%s: %w", op.name, err)
	}
	rec.Code = []int{(verb*128 + noun) & number.SingleMask}
	return nil
}

func parseDecimalInt(s string) (int, error) {
	if !strings.HasSuffix(s, "D") {
		s += "D"
	}
	return number.ParseInt(s)
}

// addressConstant encodes the resolved operand address with the encoder of
// the directive.
func addressConstant(c *Context, rec *parser.Record, op *opcode) error {
	address, bank, err := c.address(rec.Operands, op.class)
	if err != nil {
		return err
	}

	code, err := op.encode(c, op, address, bank)
	if err != nil {
		return err
	}
	if op.negate {
		code = complement(code)
	}
	rec.Code = code
	return nil
}

// downlinkChannel encodes a channel for the downlink list.
func downlinkChannel(c *Context, rec *parser.Record, op *opcode) error {
	channel, err := c.evaluate(rec.Operands, false)
	if err != nil {
		return err
	}
	if channel < 0 || channel > maxChannel {
		return fmt.Errorf("%w: channel %o out of range", ErrAddressClass, channel)
	}

	code := []int{downlinkChannelBase | channel}
	if op.negate {
		code = complement(code)
	}
	rec.Code = code
	return nil
}

func encodeGenadr(c *Context, _ *opcode, address int, _ memory.Bank) ([]int, error) {
	machine, _, err := c.geometry.MachineAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAddressClass, err)
	}
	return []int{machine}, nil
}

func encodeAdres(c *Context, op *opcode, address int, bank memory.Bank) ([]int, error) {
	c.checkBank(bank)
	return encodeGenadr(c, op, address, bank)
}

// encodeFcadr returns the complete fixed address, bank number times bank
// size plus offset. Banks of the second super bank use the addresses of
// banks 30 to 33.
func encodeFcadr(_ *Context, _ *opcode, address int, bank memory.Bank) ([]int, error) {
	n := bank.Number
	if n >= superBankSecond {
		n -= superBankOffset
	}
	return []int{n*memory.FixedBankSize + address - bank.Start}, nil
}

// encodeEcadr returns the complete erasable address, which is identical to
// the pseudo-address.
func encodeEcadr(_ *Context, _ *opcode, address int, _ memory.Bank) ([]int, error) {
	return []int{address}, nil
}

func encodeCadr(c *Context, op *opcode, address int, bank memory.Bank) ([]int, error) {
	if bank.Kind == memory.Fixed {
		return encodeFcadr(c, op, address, bank)
	}
	return encodeEcadr(c, op, address, bank)
}

func encodeBbcon(c *Context, _ *opcode, _ int, bank memory.Bank) ([]int, error) {
	return []int{c.bbcon(bank)}, nil
}

// encode2Cadr returns the machine address followed by the bank word that
// selects the target.
func encode2Cadr(c *Context, op *opcode, address int, bank memory.Bank) ([]int, error) {
	code, err := encodeGenadr(c, op, address, bank)
	if err != nil {
		return nil, err
	}
	if bank.Kind == memory.Fixed {
		return append(code, c.bbcon(bank)), nil
	}
	return append(code, bank.Number), nil
}

// encode2Fcadr returns the complete fixed address followed by the machine
// address.
func encode2Fcadr(c *Context, op *opcode, address int, bank memory.Bank) ([]int, error) {
	code, err := encodeFcadr(c, op, address, bank)
	if err != nil {
		return nil, err
	}
	generic, err := encodeGenadr(c, op, address, bank)
	if err != nil {
		return nil, err
	}
	return append(code, generic...), nil
}

// encodeDnadr returns the erasable address with the number of word pairs
// to downlink, minus one, in bits 15-12.
func encodeDnadr(_ *Context, op *opcode, address int, _ memory.Bank) ([]int, error) {
	return []int{(op.code-1)<<11 | address}, nil
}

func encodeDnptr(c *Context, op *opcode, address int, bank memory.Bank) ([]int, error) {
	code, err := encodeGenadr(c, op, address, bank)
	if err != nil {
		return nil, err
	}
	return []int{downlinkPointerBase | code[0]}, nil
}

// bbcon returns the bank word of a fixed bank: bank number in bits 15-11,
// super bank in bits 7-5 and the erasable bank in bits 3-1.
func (c *Context) bbcon(bank memory.Bank) int {
	fb := bank.Number
	superBank := 3
	switch {
	case fb >= superBankSecond:
		fb -= superBankOffset
		superBank = 4
	case fb >= superBankFirst:
	case c.sbank != noSuperBank:
		superBank = c.sbank
	}
	return fb<<10 | superBank<<4 | c.ebank&7
}

func wordValues(w number.Word) []int {
	if w.Bits() == number.DoubleBits {
		high, low := w.Split()
		return []int{high.Value(), low.Value()}
	}
	return []int{w.Value()}
}

func complement(code []int) []int {
	result := make([]int, len(code))
	for i, w := range code {
		result[i] = number.Single(w).Complement().Value()
	}
	return result
}

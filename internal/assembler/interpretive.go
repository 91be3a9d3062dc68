package assembler

import (
	"fmt"
	"strings"

	"github.com/retroenv/agcasm/internal/memory"
	"github.com/retroenv/agcasm/internal/number"
	"github.com/retroenv/agcasm/internal/parser"
)

const interpretiveShift = 128

// interpretiveSize returns the words of an interpretive opcode line: the
// packed opcode word, followed by an operand word if the operand is given
// on the same line.
func interpretiveSize(rec *parser.Record, r *registry) int {
	if inlineOperand(rec, r) != nil {
		return 2
	}
	return 1
}

// inlineOperand returns the operand tokens that follow the opcodes of the line.
func inlineOperand(rec *parser.Record, r *registry) []string {
	if len(rec.Operands) == 0 {
		return nil
	}
	if _, ok := r.interpretive[rec.Operands[0]]; ok {
		return nil
	}
	return rec.Operands
}

// interpretive packs one or two interpretive opcodes into a word.
func interpretive(c *Context, rec *parser.Record, op *opcode) error {
	operands := op.operands
	var code int

	second, ok := c.secondOpcode(rec)
	if ok {
		if len(rec.Operands) > 1 {
			return fmt.Errorf("%w: unexpected operand after %s %s", ErrSyntax, op.name, second.name)
		}
		operands += second.operands
		code = ^((op.code*interpretiveShift + 1) + second.code + 1)
	} else {
		code = ^(op.code + 1)
	}
	code &= number.SingleMask

	inline := inlineOperand(rec, c.registry)
	if inline != nil {
		operands--
	}
	c.expectOperands(operands)

	rec.Code = []int{code}
	if inline == nil {
		return nil
	}

	word, err := c.interpretiveAddress(inline)
	if err != nil {
		return err
	}
	rec.Code = append(rec.Code, word)
	return nil
}

func (c *Context) secondOpcode(rec *parser.Record) (*opcode, bool) {
	if len(rec.Operands) == 0 {
		return nil, false
	}
	op, ok := c.registry.interpretive[rec.Operands[0]]
	return op, ok
}

// interpretiveOperand encodes a line that contains an operand of a
// previous interpretive opcode line.
func interpretiveOperand(c *Context, rec *parser.Record, _ *opcode) error {
	c.expectOperands(c.operands - 1)

	tokens := append([]string{rec.Mnemonic}, rec.Operands...)
	word, err := c.interpretiveAddress(tokens)
	if err != nil {
		return err
	}
	rec.Code = []int{word}
	return nil
}

// interpretiveAddress resolves an interpretive operand. Erasable operands are
// encoded as complete erasable address, fixed operands as machine address.
// An index register suffix ,1 or ,2 is ignored.
func (c *Context) interpretiveAddress(tokens []string) (int, error) {
	tokens = stripIndex(tokens)

	address, err := c.evaluate(tokens, false)
	if err != nil {
		return 0, err
	}

	machine, bank, err := c.geometry.MachineAddress(address)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAddressClass, err)
	}
	if bank.Kind == memory.Erasable {
		return address, nil
	}
	return machine, nil
}

func stripIndex(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	last := tokens[len(tokens)-1]
	if !strings.HasSuffix(last, ",1") && !strings.HasSuffix(last, ",2") {
		return tokens
	}

	result := make([]string, len(tokens))
	copy(result, tokens)
	result[len(result)-1] = last[:len(last)-2]
	return result
}

package assembler

import (
	"fmt"

	"github.com/retroenv/agcasm/internal/number"
	"github.com/retroenv/agcasm/internal/parser"
)

const maxChannel = 0o777

// instruction encodes a basic or extended machine instruction.
func instruction(c *Context, rec *parser.Record, op *opcode) error {
	switch op.class {
	case operandNone:
		if len(rec.Operands) > 0 {
			return fmt.Errorf("%w: %s does not take an operand", ErrSyntax, op.name)
		}
		rec.Code = []int{op.code}
		return nil

	case operandChannel:
		channel, err := c.evaluate(rec.Operands, false)
		if err != nil {
			return err
		}
		if channel < 0 || channel > maxChannel {
			return fmt.Errorf("%w: channel %o out of range", ErrAddressClass, channel)
		}
		rec.Code = []int{op.code + channel}
		return nil
	}

	address, _, err := c.address(rec.Operands, op.class)
	if err != nil {
		return err
	}

	machine, bank, err := c.geometry.MachineAddress(address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAddressClass, err)
	}
	c.checkBank(bank)

	rec.Code = []int{(op.code + machine) & number.SingleMask}
	return nil
}

// updateMode sets the instruction mode for the next instruction.
func (c *Context) updateMode(op *opcode) {
	if op.set != setBasic && op.set != setExtended {
		return
	}

	switch {
	case op.extend:
		c.setMode(ModeExtended)
	case c.mode == ModeExtended && op.keepExtended:
	default:
		c.setMode(ModeBasic)
	}
}

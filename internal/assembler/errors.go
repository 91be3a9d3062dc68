package assembler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/agcasm/internal/parser"
)

var (
	ErrSyntax              = errors.New("syntax error")
	ErrDuplicateSymbol     = errors.New("duplicate symbol")
	ErrUndefinedSymbol     = errors.New("undefined symbol")
	ErrMode                = errors.New("instruction mode error")
	ErrUnsupportedMnemonic = errors.New("unsupported mnemonic")
	ErrUnknownMnemonic     = errors.New("unknown mnemonic")
	ErrAddressClass        = errors.New("address class mismatch")
	ErrPlacement           = errors.New("invalid location")
	ErrCheck               = errors.New("check failed")
	ErrNonConvergence      = errors.New("symbol resolution does not converge")
)

// errPending signals that the record references a symbol without value.
var errPending = errors.New("pending")

// Status is the result of processing a record.
type Status int

const (
	StatusComplete Status = iota
	StatusPending
	StatusFailed
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	case StatusFatal:
		return "fatal"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// FatalError aborts the assembly run.
type FatalError struct {
	Err     error
	Record  *parser.Record   // record that caused the abort, if any
	Pending []*parser.Record // records left pending on non-convergence
}

func (e *FatalError) Error() string {
	var b strings.Builder
	if e.Record != nil {
		fmt.Fprintf(&b, "%s: ", e.Record.Position())
	}
	b.WriteString(e.Err.Error())
	if len(e.Pending) > 0 {
		fmt.Fprintf(&b, " (%d records pending)", len(e.Pending))
	}
	return b.String()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func isFatal(err error) bool {
	return errors.Is(err, ErrMode) ||
		errors.Is(err, ErrUnknownMnemonic) ||
		errors.Is(err, ErrUnsupportedMnemonic)
}

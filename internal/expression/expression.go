// Package expression evaluates the operand field of a source line.
//
// An operand field consists of one token, or of two terms combined by a
// standalone + or - token. There is no operator precedence and no nesting.
package expression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/agcasm/internal/number"
)

// ErrSyntax is returned for malformed operand fields.
var ErrSyntax = errors.New("invalid operand expression")

// Scope gives read access to the symbols and the current location counter.
type Scope interface {
	// Lookup returns the value of a symbol, whether it is defined and
	// whether the symbol is known at all.
	Lookup(name string) (value int, defined, known bool)
	// Location returns the pseudo-address of the current location counter.
	Location() int
}

// Result of an evaluation.
type Result struct {
	Value    int
	Resolved bool

	References []string // symbols used by the expression
	Missing    []string // symbols that are not yet defined
}

// Evaluate resolves the operand tokens. An expression that references symbols
// without a value is returned unresolved, this is not an error as the symbols
// can get defined on a later pass. If relative is set, a single signed number
// is an offset from the current location counter.
func Evaluate(scope Scope, tokens []string, relative bool) (Result, error) {
	switch len(tokens) {
	case 0:
		return Result{}, fmt.Errorf("%w: missing operand", ErrSyntax)

	case 1:
		return evaluateTerm(scope, tokens[0], relative)

	case 3:
		operator := tokens[1]
		if operator != "+" && operator != "-" {
			return Result{}, fmt.Errorf("%w: unsupported operator '%s'", ErrSyntax, operator)
		}

		left, err := evaluateTerm(scope, tokens[0], relative)
		if err != nil {
			return Result{}, err
		}
		right, err := evaluateTerm(scope, tokens[2], false)
		if err != nil {
			return Result{}, err
		}

		res := Result{
			Resolved:   left.Resolved && right.Resolved,
			References: append(left.References, right.References...),
			Missing:    append(left.Missing, right.Missing...),
		}
		if res.Resolved {
			if operator == "+" {
				res.Value = left.Value + right.Value
			} else {
				res.Value = left.Value - right.Value
			}
		}
		return res, nil

	default:
		return Result{}, fmt.Errorf("%w: '%s'", ErrSyntax, strings.Join(tokens, " "))
	}
}

func evaluateTerm(scope Scope, token string, relative bool) (Result, error) {
	if token == "" || token == "+" || token == "-" {
		return Result{}, fmt.Errorf("%w: sign without operand", ErrSyntax)
	}

	if value, defined, known := scope.Lookup(token); known {
		res := Result{
			References: []string{token},
		}
		if !defined {
			res.Missing = []string{token}
			return res, nil
		}
		res.Value = value
		res.Resolved = true
		return res, nil
	}

	value, err := number.ParseInt(token)
	if err != nil {
		// may be a symbol that is defined later
		return Result{
			References: []string{token},
			Missing:    []string{token},
		}, nil
	}

	if relative && (token[0] == '+' || token[0] == '-') {
		value += scope.Location()
	}
	return Result{Value: value, Resolved: true}, nil
}

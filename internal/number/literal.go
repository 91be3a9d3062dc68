package number

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	singleFractionBits = 14
	doubleFractionBits = 28
)

// ParseOctal encodes an octal literal with an optional sign. Negative values
// are encoded as the complement of the magnitude.
func ParseOctal(s string, bits uint) (Word, error) {
	negative, digits := splitSign(s)
	if digits == "" {
		return Word{}, fmt.Errorf("%w: '%s'", ErrSyntax, s)
	}

	v, err := strconv.ParseUint(digits, 8, 64)
	if err != nil {
		return Word{}, fmt.Errorf("%w: '%s'", ErrSyntax, s)
	}
	if v > uint64(mask(bits)) {
		return Word{}, fmt.Errorf("%w: octal '%s' exceeds %d bits", ErrRange, s, bits)
	}

	w := New(int(v), bits)
	if negative {
		w = w.Complement()
	}
	return w, nil
}

// ParseInt parses an integer used inside an address field. Numbers are octal
// unless they carry a trailing D, which marks them as decimal.
func ParseInt(s string) (int, error) {
	negative, digits := splitSign(s)
	base := 8
	if strings.HasSuffix(digits, "D") {
		digits = strings.TrimSuffix(digits, "D")
		base = 10
	}
	if digits == "" {
		return 0, fmt.Errorf("%w: '%s'", ErrSyntax, s)
	}

	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: '%s'", ErrSyntax, s)
	}
	if negative {
		v = -v
	}
	return int(v), nil
}

// IsNumeric returns whether the token is an integer accepted by ParseInt.
func IsNumeric(s string) bool {
	_, err := ParseInt(s)
	return err == nil
}

// ParseDecimal encodes a scaled decimal literal as a binary fraction of the
// given width. The first token is the mantissa, following tokens are binary
// (Bn) or decimal (En) scale factors. A mantissa without decimal point and
// without scale factor is interpreted as integer at full precision.
// The returned flag reports a value that saturated the fraction.
func ParseDecimal(tokens []string, bits uint) (Word, bool, error) {
	if len(tokens) == 0 {
		return Word{}, false, fmt.Errorf("%w: missing decimal value", ErrSyntax)
	}

	fractionBits := singleFractionBits
	if bits == DoubleBits {
		fractionBits = doubleFractionBits
	}

	parts := splitScales(tokens[0])
	mantissa := strings.TrimSuffix(strings.TrimSuffix(parts[0], "*"), "D")
	negative, digits := splitSign(mantissa)
	if digits == "" || strings.Trim(digits, "0123456789.") != "" {
		return Word{}, false, fmt.Errorf("%w: '%s'", ErrSyntax, tokens[0])
	}

	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return Word{}, false, fmt.Errorf("%w: '%s'", ErrSyntax, tokens[0])
	}

	scales := append(parts[1:], tokens[1:]...)
	for _, scale := range scales {
		value, err = applyScale(value, scale)
		if err != nil {
			return Word{}, false, err
		}
	}
	if len(scales) == 0 && !strings.Contains(digits, ".") {
		value = math.Ldexp(value, -fractionBits)
	}

	if value > 1.0 {
		return Word{}, false, fmt.Errorf("%w: decimal '%s' exceeds 1.0 after scaling", ErrRange, strings.Join(tokens, " "))
	}

	fraction, overflow := encodeFraction(value, fractionBits)

	var w Word
	if bits == DoubleBits {
		high := fraction >> singleFractionBits
		low := fraction & (1<<singleFractionBits - 1)
		w = Join(Single(high), Single(low))
	} else {
		w = Single(fraction)
	}

	if negative {
		w = w.Complement()
	}
	return w, overflow, nil
}

// encodeFraction converts a value in the range [0, 1] into a binary fraction
// by repeated doubling. The last remainder rounds the result up unless all
// bits are already set.
func encodeFraction(value float64, fractionBits int) (int, bool) {
	limit := 1<<fractionBits - 1
	acc := 0
	for range fractionBits {
		value *= 2
		acc <<= 1
		if value >= 1.0 {
			acc |= 1
			value -= 1.0
		}
	}

	if value >= 0.5 {
		if acc == limit {
			return acc, true
		}
		acc++
	}
	return acc, false
}

func applyScale(value float64, scale string) (float64, error) {
	if len(scale) < 2 {
		return 0, fmt.Errorf("%w: scale factor '%s'", ErrSyntax, scale)
	}

	exponent, err := strconv.Atoi(scale[1:])
	if err != nil {
		return 0, fmt.Errorf("%w: scale factor '%s'", ErrSyntax, scale)
	}

	switch scale[0] {
	case 'B':
		return math.Ldexp(value, exponent), nil
	case 'E':
		return value * math.Pow10(exponent), nil
	default:
		return 0, fmt.Errorf("%w: scale factor '%s'", ErrSyntax, scale)
	}
}

// splitScales splits scale factors that are attached to the mantissa,
// for example 1.5E-3B2.
func splitScales(s string) []string {
	var parts []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] == 'B' || s[i] == 'E' {
			parts = append(parts, s[start:i])
			start = i
		}
	}
	return append(parts, s[start:])
}

func splitSign(s string) (bool, string) {
	switch {
	case strings.HasPrefix(s, "-"):
		return true, s[1:]
	case strings.HasPrefix(s, "+"):
		return false, s[1:]
	default:
		return false, s
	}
}

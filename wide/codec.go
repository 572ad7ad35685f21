package wide

import (
	"strings"

	"github.com/holiman/uint256"

	"bitsmith/diag"
	"bitsmith/log"
)

// Parse parses input in the given format and checks that the value fits in
// width bits. Empty input yields zero.
//
// Hex input may carry a 0x prefix and binary input a 0b prefix. Malformed
// input is a ParseError, values above 2^width-1 or negative are RangeErrors.
func Parse(input string, f Format, width int) (uint256.Int, error) {
	checkWidth(width)

	s := strings.TrimSpace(input)
	if s == "" {
		return uint256.Int{}, nil
	}
	if rest, ok := strings.CutPrefix(s, "-"); ok && validDigits(stripPrefix(rest, f), f) {
		return uint256.Int{}, diag.Rangef("negative value %s", s)
	}

	var (
		v   uint256.Int
		err error
	)
	switch f {
	case Hex:
		v, err = parseHex(s)
	case Decimal:
		v, err = parseDecimal(s)
	case Binary:
		v, err = parseBinary(s)
	default:
		err = diag.Parsef("unknown value format %s", f)
	}
	if err != nil {
		return uint256.Int{}, err
	}
	if v.BitLen() > width {
		return uint256.Int{}, diag.Rangef("value %s does not fit in %d bits", s, width)
	}
	return v, nil
}

// ParseOrZero is Parse for interactive input: on error it returns the zero
// value of the register, which is what the bit viewer displays, along with
// the error so that the caller may log it.
func ParseOrZero(input string, f Format, width int) (uint256.Int, error) {
	v, err := Parse(input, f, width)
	if err != nil {
		log.ModValue.DebugZ("invalid input reset to zero").
			String("input", input).
			Stringer("format", f).
			Int("width", width).
			Error("err", err).
			End()
		return uint256.Int{}, err
	}
	return v, nil
}

// ParseLiteral parses an integer literal as found in device definitions:
// 0x-prefixed hex, 0b- or #-prefixed binary, or decimal.
func ParseLiteral(s string) (uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uint256.Int{}, diag.Parsef("empty integer literal")
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		return Parse(s, Hex, MaxWidth)
	case strings.HasPrefix(lower, "0b"):
		return Parse(s, Binary, MaxWidth)
	case strings.HasPrefix(s, "#"):
		return Parse(s[1:], Binary, MaxWidth)
	}
	return Parse(s, Decimal, MaxWidth)
}

func validDigits(s string, f Format) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch f {
		case Hex:
			if !isHexDigit(c) {
				return false
			}
		case Decimal:
			if c < '0' || c > '9' {
				return false
			}
		case Binary:
			if c != '0' && c != '1' {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func trimLeadingZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

// stripPrefix removes the 0x prefix of hex input or the 0b prefix of binary
// input.
func stripPrefix(s string, f Format) string {
	if len(s) < 2 || s[0] != '0' {
		return s
	}
	switch {
	case f == Hex && (s[1] == 'x' || s[1] == 'X'):
		return s[2:]
	case f == Binary && (s[1] == 'b' || s[1] == 'B'):
		return s[2:]
	}
	return s
}

func parseHex(s string) (uint256.Int, error) {
	digits := stripPrefix(s, Hex)
	if !validDigits(digits, Hex) {
		return uint256.Int{}, diag.Parsef("invalid hexadecimal value %q", s)
	}
	digits = trimLeadingZeros(digits)
	if len(digits) > HexDigits(MaxWidth) {
		return uint256.Int{}, diag.Rangef("value %s does not fit in %d bits", s, MaxWidth)
	}

	var v uint256.Int
	if err := v.SetFromHex("0x" + digits); err != nil {
		return uint256.Int{}, diag.Parsef("invalid hexadecimal value %q: %v", s, err)
	}
	return v, nil
}

func parseDecimal(s string) (uint256.Int, error) {
	if !validDigits(s, Decimal) {
		return uint256.Int{}, diag.Parsef("invalid decimal value %q", s)
	}
	var v uint256.Int
	if err := v.SetFromDecimal(trimLeadingZeros(s)); err != nil {
		return uint256.Int{}, diag.Rangef("value %s does not fit in %d bits", s, MaxWidth)
	}
	return v, nil
}

func parseBinary(s string) (uint256.Int, error) {
	digits := stripPrefix(s, Binary)
	if !validDigits(digits, Binary) {
		return uint256.Int{}, diag.Parsef("invalid binary value %q", s)
	}
	digits = trimLeadingZeros(digits)
	if len(digits) > MaxWidth {
		return uint256.Int{}, diag.Rangef("value %s does not fit in %d bits", s, MaxWidth)
	}

	var v uint256.Int
	n := len(digits)
	for i := range n {
		if digits[i] == '1' {
			bit := n - 1 - i
			v[bit/64] |= 1 << (bit % 64)
		}
	}
	return v, nil
}

// Repr holds the three textual representations of a value.
type Repr struct {
	Hex     string // uppercase, no prefix, ceil(width/4) digits
	Decimal string
	Binary  string // exactly width characters
}

// Represent returns the representations of v as a width-bit value. Bits of v
// above width are ignored.
func Represent(v *uint256.Int, width int) Repr {
	checkWidth(width)
	m := Truncate(v, width)
	return Repr{
		Hex:     formatHex(&m, width),
		Decimal: m.Dec(),
		Binary:  formatBinary(&m, width),
	}
}

// FormatHex returns v as uppercase hex, zero-padded to ceil(width/4) digits.
func FormatHex(v *uint256.Int, width int) string {
	checkWidth(width)
	m := Truncate(v, width)
	return formatHex(&m, width)
}

func formatHex(v *uint256.Int, width int) string {
	h := strings.ToUpper(v.Hex()[2:])
	if pad := HexDigits(width) - len(h); pad > 0 {
		h = strings.Repeat("0", pad) + h
	}
	return h
}

func formatBinary(v *uint256.Int, width int) string {
	buf := make([]byte, width)
	for i := range width {
		bit := width - 1 - i
		buf[i] = '0' + byte(v[bit/64]>>(bit%64)&1)
	}
	return string(buf)
}

// Literal returns v as a 0x-prefixed uppercase hex literal without padding,
// the form device definitions are written in.
func Literal(v *uint256.Int) string {
	return "0x" + strings.ToUpper(v.Hex()[2:])
}

// In returns the representation in format f.
func (r Repr) In(f Format) string {
	switch f {
	case Decimal:
		return r.Decimal
	case Binary:
		return r.Binary
	}
	return r.Hex
}

// Package wide converts register values between their hexadecimal, decimal
// and binary representations.
//
// Values are uint256.Int: register widths go up to 256 bits and addresses or
// sizes may exceed what a float64 holds exactly, so no native numeric type is
// ever used to carry them.
package wide

import (
	"fmt"
	"slices"
	"strings"
)

// Format is a textual representation of a register value.
type Format uint8

const (
	Hex Format = iota
	Decimal
	Binary
)

var formatNames = [...]string{Hex: "hex", Decimal: "decimal", Binary: "binary"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// ParseFormat accepts the format names and their usual abbreviations.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hex", "hexadecimal", "h", "x":
		return Hex, nil
	case "decimal", "dec", "d":
		return Decimal, nil
	case "binary", "bin", "b":
		return Binary, nil
	}
	return 0, fmt.Errorf("unknown value format %q (want hex, decimal or binary)", s)
}

func (f Format) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MaxWidth is the widest supported register, in bits.
const MaxWidth = 256

// AcceptedWidths lists the register widths a device definition may use.
var AcceptedWidths = []int{1, 2, 4, 8, 16, 24, 32, 64, 128, 256}

// IsAcceptedWidth reports whether w is a valid register width.
func IsAcceptedWidth(w int) bool { return slices.Contains(AcceptedWidths, w) }

// checkWidth panics on widths the codec can't represent. Such a width is a
// programming error on the caller side, not an input error.
func checkWidth(width int) {
	if width < 1 || width > MaxWidth {
		panic(fmt.Sprintf("wide: invalid width %d", width))
	}
}

// HexDigits returns the number of hexadecimal digits needed for width bits.
func HexDigits(width int) int { return (width + 3) / 4 }

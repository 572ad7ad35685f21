package wide

import (
	"math"

	"github.com/holiman/uint256"

	"bitsmith/bitrange"
	"bitsmith/diag"
)

// Max returns the largest width-bit value, 2^width - 1.
func Max(width int) uint256.Int {
	checkWidth(width)
	var s bitrange.Set
	s.SetRange(0, uint(width))
	return s.Uint256()
}

// Truncate returns v with the bits at and above width cleared.
func Truncate(v *uint256.Int, width int) uint256.Int {
	m := Max(width)
	var out uint256.Int
	out.And(v, &m)
	return out
}

func checkRange(width, high, low int) error {
	r := bitrange.Range{High: high, Low: low}
	return r.Validate(width)
}

// Extract returns the bits high..low of a width-bit register value, shifted
// down to bit 0: (v >> low) & (2^(high-low+1) - 1).
func Extract(v *uint256.Int, width, high, low int) (uint256.Int, error) {
	checkWidth(width)
	if err := checkRange(width, high, low); err != nil {
		return uint256.Int{}, err
	}

	var out uint256.Int
	out.Rsh(v, uint(low))
	mask := Max(high - low + 1)
	out.And(&out, &mask)
	return out, nil
}

// Insert returns v with bits high..low replaced by field. The field value
// must fit in high-low+1 bits.
func Insert(v *uint256.Int, width, high, low int, field *uint256.Int) (uint256.Int, error) {
	checkWidth(width)
	if err := checkRange(width, high, low); err != nil {
		return uint256.Int{}, err
	}
	if n := high - low + 1; field.BitLen() > n {
		return uint256.Int{}, diag.Rangef("value %s does not fit in %d bits", field.Hex(), n)
	}

	mask := bitrange.Range{High: high, Low: low}.Mask()
	var out, shifted uint256.Int
	out.Not(&mask)
	out.And(v, &out)
	shifted.Lsh(field, uint(low))
	out.Or(&out, &shifted)
	return out, nil
}

// Toggle flips one bit of a width-bit value, bit 0 being the LSB.
func Toggle(v *uint256.Int, width, bit int) (uint256.Int, error) {
	checkWidth(width)
	if bit < 0 || bit >= width {
		return uint256.Int{}, diag.Rangef("bit %d is outside a %d-bit register", bit, width)
	}

	var flip, out uint256.Int
	flip.Lsh(uint256.NewInt(1), uint(bit))
	out.Xor(v, &flip)
	return out, nil
}

// ToggleBinary flips one bit of a binary representation. The string length
// is the register width and bit 0 is the last character. The result is
// computed on the wide value, then formatted back.
func ToggleBinary(bin string, bit int) (string, error) {
	width := len(bin)
	if width < 1 || width > MaxWidth {
		return "", diag.Rangef("binary value of %d digits is not a valid register", width)
	}
	v, err := Parse(bin, Binary, width)
	if err != nil {
		return "", err
	}
	out, err := Toggle(&v, width, bit)
	if err != nil {
		return "", err
	}
	return formatBinary(&out, width), nil
}

// SafeBits is the number of bits a float64 holds without loss.
const SafeBits = 53

// Float converts v to a float64 for layout arithmetic. Values up to 2^53
// convert exactly. Wider values keep their 53 most significant bits, the
// rest is dropped (v >> shift, then scaled back by 2^shift), and exact is
// false so that the caller can report the reduction.
func Float(v *uint256.Int) (f float64, exact bool) {
	n := v.BitLen()
	if n <= SafeBits {
		return float64(v.Uint64()), true
	}
	shift := n - SafeBits
	var top uint256.Int
	top.Rsh(v, uint(shift))
	return math.Ldexp(float64(top.Uint64()), shift), false
}

// Package bitrange parses and validates the bit ranges of register fields.
package bitrange

import (
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"bitsmith/diag"
)

// Range is a closed interval of bit positions, High >= Low >= 0.
type Range struct {
	High int
	Low  int
}

// Parse parses a textual bit specification: "H:L" or a single bit "B".
// Surrounding spaces and one pair of square brackets are tolerated, so SVD
// style "[7:0]" is accepted too. A range whose low bit is above its high bit
// is rejected, it is never swapped.
func Parse(s string) (Range, error) {
	spec := strings.TrimSpace(s)
	if strings.HasPrefix(spec, "[") && strings.HasSuffix(spec, "]") {
		spec = strings.TrimSpace(spec[1 : len(spec)-1])
	}
	if spec == "" {
		return Range{}, diag.Parsef("empty bit range")
	}

	hi, lo, isRange := strings.Cut(spec, ":")
	high, err := parseBit(hi)
	if err != nil {
		return Range{}, diag.Parsef("bit range %q: %s", s, err.Msg)
	}
	if !isRange {
		return Range{High: high, Low: high}, nil
	}

	low, err := parseBit(lo)
	if err != nil {
		return Range{}, diag.Parsef("bit range %q: %s", s, err.Msg)
	}
	if low > high {
		return Range{}, diag.Parsef("bit range %q: low bit %d is above high bit %d", s, low, high)
	}
	return Range{High: high, Low: low}, nil
}

func parseBit(s string) (int, *diag.Issue) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, diag.Parsef("missing bit number")
	}
	if s[0] == '-' {
		return 0, diag.Parsef("negative bit number %s", s)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, diag.Parsef("invalid bit number %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, diag.Parsef("invalid bit number %q", s)
	}
	return n, nil
}

// FromOffsetWidth builds the range of a field given its LSB position and
// width in bits.
func FromOffsetWidth(offset, width int) (Range, error) {
	switch {
	case offset < 0:
		return Range{}, diag.Rangef("negative bit offset %d", offset)
	case width < 1:
		return Range{}, diag.Rangef("bit width %d is not positive", width)
	}
	return Range{High: offset + width - 1, Low: offset}, nil
}

// Width returns the number of bits in the range.
func (r Range) Width() int { return r.High - r.Low + 1 }

func (r Range) String() string {
	if r.High == r.Low {
		return strconv.Itoa(r.High)
	}
	return strconv.Itoa(r.High) + ":" + strconv.Itoa(r.Low)
}


// Intersect returns the common bits of r and o, and false if they have none.
func (r Range) Intersect(o Range) (Range, bool) {
	lo, hi := max(r.Low, o.Low), min(r.High, o.High)
	if lo > hi {
		return Range{}, false
	}
	return Range{High: hi, Low: lo}, true
}

// Validate checks that the range fits in a register of the given width.
func (r Range) Validate(width int) error {
	if r.Low < 0 || r.High < r.Low {
		return diag.Parsef("malformed bit range %d:%d", r.High, r.Low)
	}
	if r.High > width-1 {
		return diag.Rangef("bit %d is beyond register width %d (max bit %d)", r.High, width, width-1)
	}
	return nil
}

// Mask returns the register mask covering the range. Bits beyond 255 are
// dropped.
func (r Range) Mask() uint256.Int {
	var s Set
	if r.Low >= 0 && r.Low < NumBits && r.High >= r.Low {
		s.SetRange(uint(r.Low), uint(min(r.High, NumBits-1))+1)
	}
	return s.Uint256()
}

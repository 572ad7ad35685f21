// Package device defines the device tree (device, peripherals, registers,
// fields, enumerated values) and its ingestion boundary.
//
// Addresses, sizes and register values are uint256.Int. A tree returned by
// Load, DecodeJSON or ImportSVD has been checked against the device schema;
// call Validate for the semantic checks (bit ranges, overlaps, widths).
package device

import (
	"github.com/holiman/uint256"

	"bitsmith/bitrange"
)

type Device struct {
	ID           string
	Name         string
	Description  string
	LittleEndian bool
	DefaultClock uint64 // Hz
	Version      string
	Public       bool
	OwnerID      string // empty for public devices
	OriginalID   string // device this one was duplicated from, if any

	Peripherals []*Peripheral
}

type Peripheral struct {
	ID          string
	Name        string
	Description string
	BaseAddress uint256.Int
	Size        uint256.Int // bytes

	Registers []*Register
}

// End returns the first address past the peripheral, and false if it
// overflows 256 bits.
func (p *Peripheral) End() (uint256.Int, bool) {
	var end uint256.Int
	_, overflow := end.AddOverflow(&p.BaseAddress, &p.Size)
	return end, !overflow
}

type Register struct {
	ID            string
	Name          string
	Description   string
	Width         int // bits, one of wide.AcceptedWidths
	AddressOffset uint256.Int
	ResetValue    uint256.Int
	ResetMask     uint256.Int
	Access        Access

	IsArray     bool
	ArrayCount  int
	ArrayStride *uint256.Int // bytes between elements, nil if undefined
	NamePattern string       // %s is the register name, %d the element index

	Fields []*Field
}

// Field returns the first field with the given name, or nil.
func (r *Register) Field(name string) *Field {
	for _, f := range r.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type Field struct {
	ID          string
	Name        string
	Description string

	// A field position is given either by its textual bit range or by its
	// LSB position and width. Both may be present, in which case they must
	// agree (see Range).
	Bits      string
	BitOffset int
	BitWidth  int

	Access Access
	Values []*EnumeratedValue
}

// Range reconciles the two representations of the field position.
func (f *Field) Range() (bitrange.Range, error) {
	hasBits := f.Bits != ""
	hasOffsetWidth := f.BitWidth != 0

	switch {
	case hasBits && hasOffsetWidth:
		r, err := bitrange.Parse(f.Bits)
		if err != nil {
			return bitrange.Range{}, err
		}
		ow, err := bitrange.FromOffsetWidth(f.BitOffset, f.BitWidth)
		if err != nil {
			return bitrange.Range{}, err
		}
		if r != ow {
			return bitrange.Range{}, errDisagree(f, r, ow)
		}
		return r, nil
	case hasBits:
		return bitrange.Parse(f.Bits)
	case hasOffsetWidth:
		return bitrange.FromOffsetWidth(f.BitOffset, f.BitWidth)
	}
	return bitrange.Range{}, errNoRange(f)
}

// EnumValue returns the enumerated value whose value is v, or nil.
func (f *Field) EnumValue(v *uint256.Int) *EnumeratedValue {
	for _, ev := range f.Values {
		if ev.Value.Eq(v) {
			return ev
		}
	}
	return nil
}

type EnumeratedValue struct {
	Name        string
	Description string
	Value       uint256.Int
}

// Peripheral returns the first peripheral with the given name, or nil.
func (d *Device) Peripheral(name string) *Peripheral {
	for _, p := range d.Peripherals {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Register returns the first register with the given name, or nil.
func (p *Peripheral) Register(name string) *Register {
	for _, r := range p.Registers {
		if r.Name == name {
			return r
		}
	}
	return nil
}

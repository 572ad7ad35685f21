package view

import (
	"slices"
	"strconv"

	"github.com/holiman/uint256"

	"bitsmith/bitrange"
	"bitsmith/device"
	"bitsmith/diag"
	"bitsmith/log"
	"bitsmith/wide"
)

// BitViewer holds the value shown by the interactive bit viewer of one
// register. The value is never invalid: bad input resets it to zero.
type BitViewer struct {
	reg   *device.Register
	value uint256.Int

	// fields with a usable bit range, in declaration order
	fields []viewField
	issues diag.List
}

type viewField struct {
	*device.Field
	rng bitrange.Range
}

// NewBitViewer returns a viewer for reg, holding its reset value. Fields
// whose bit range is invalid are left out and reported by Issues.
func NewBitViewer(reg *device.Register) (*BitViewer, error) {
	if !wide.IsAcceptedWidth(reg.Width) {
		return nil, diag.Rangef("unsupported register width %d", reg.Width)
	}
	bv := &BitViewer{reg: reg}
	for i, f := range reg.Fields {
		r, err := f.Range()
		if err == nil {
			err = r.Validate(reg.Width)
		}
		if err != nil {
			bv.issues.Add(fieldPath(i), err)
			continue
		}
		bv.fields = append(bv.fields, viewField{Field: f, rng: r})
	}
	bv.Reset()
	return bv, nil
}

func fieldPath(i int) string {
	return "fields[" + strconv.Itoa(i) + "]"
}

// Register returns the register the viewer shows.
func (bv *BitViewer) Register() *device.Register { return bv.reg }

// Issues returns the problems found in the register fields.
func (bv *BitViewer) Issues() diag.List { return bv.issues }

// Value returns the current register value.
func (bv *BitViewer) Value() uint256.Int { return bv.value }

// Reset restores the register reset value.
func (bv *BitViewer) Reset() {
	bv.value = wide.Truncate(&bv.reg.ResetValue, bv.reg.Width)
}

// Set replaces the value with input, read in format f. Invalid input sets
// the value to zero; the error is returned for reporting only.
func (bv *BitViewer) Set(input string, f wide.Format) error {
	v, err := wide.ParseOrZero(input, f, bv.reg.Width)
	bv.value = v
	return err
}

// Toggle flips one bit, bit 0 being the LSB.
func (bv *BitViewer) Toggle(bit int) error {
	v, err := wide.Toggle(&bv.value, bv.reg.Width, bit)
	if err != nil {
		return err
	}
	bv.value = v
	return nil
}

// SetField replaces the bits of the named field with input, read in format
// f. Invalid input clears the field.
func (bv *BitViewer) SetField(name, input string, f wide.Format) error {
	i := slices.IndexFunc(bv.fields, func(vf viewField) bool { return vf.Name == name })
	if i < 0 {
		return diag.Parsef("no field %q in register %s", name, bv.reg.Name)
	}
	r := bv.fields[i].rng

	fv, perr := wide.ParseOrZero(input, f, r.Width())
	v, err := wide.Insert(&bv.value, bv.reg.Width, r.High, r.Low, &fv)
	if err != nil {
		return err
	}
	bv.value = v
	return perr
}

// Write stores written into the register as the hardware would, following
// the access mode of each field.
func (bv *BitViewer) Write(written *uint256.Int) {
	bv.value = device.ApplyWrite(bv.reg, &bv.value, written)
}

// Preview returns the state the register would have after written is
// stored into it. The viewer is left unchanged.
func (bv *BitViewer) Preview(written *uint256.Int) State {
	v := device.ApplyWrite(bv.reg, &bv.value, written)
	return bv.state(&v)
}

// FieldState is the decoded value of one field.
type FieldState struct {
	Name   string
	Range  bitrange.Range
	Access device.Access
	Value  wide.Repr // formatted with the field width
	Enum   string    // name of the matching enumerated value, if any
}

// State is everything the bit viewer displays.
type State struct {
	Register   string
	Width      int
	Value      wide.Repr
	Fields     []FieldState
	Unassigned []bitrange.Range // bits covered by no field, LSB first
}

// State returns the displayed state for the current value.
func (bv *BitViewer) State() State {
	return bv.state(&bv.value)
}

func (bv *BitViewer) state(v *uint256.Int) State {
	st := State{
		Register: bv.reg.Name,
		Width:    bv.reg.Width,
		Value:    wide.Represent(v, bv.reg.Width),
	}

	ranges := make([]bitrange.Range, 0, len(bv.fields))
	for _, f := range bv.fields {
		fv, err := wide.Extract(v, bv.reg.Width, f.rng.High, f.rng.Low)
		if err != nil {
			// Ranges were validated against the width.
			panic(err)
		}
		fs := FieldState{
			Name:   f.Name,
			Range:  f.rng,
			Access: f.Access.Or(bv.reg.Access),
			Value:  wide.Represent(&fv, f.rng.Width()),
		}
		if ev := f.EnumValue(&fv); ev != nil {
			fs.Enum = ev.Name
		}
		st.Fields = append(st.Fields, fs)
		ranges = append(ranges, f.rng)
	}
	st.Unassigned = bitrange.Unassigned(bv.reg.Width, ranges)

	log.ModBits.DebugZ("bit viewer state").
		String("register", bv.reg.Name).
		String("value", st.Value.Hex).
		Int("fields", len(st.Fields)).
		End()
	return st
}

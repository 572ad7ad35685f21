package device

import (
	"fmt"

	"bitsmith/bitrange"
	"bitsmith/diag"
	"bitsmith/wide"
)

// MaxArrayCount bounds the number of elements of an array register.
const MaxArrayCount = 1 << 16

func errDisagree(f *Field, bits, ow bitrange.Range) error {
	return diag.Parsef("bits %q (%s) disagree with bit offset %d and width %d (%s)",
		f.Bits, bits, f.BitOffset, f.BitWidth, ow)
}

func errNoRange(f *Field) error {
	return diag.Parsef("field %q has neither bits nor bit offset and width", f.Name)
}

// Validate runs the semantic checks on d and returns every issue found, in
// declaration order. Overlapping fields are reported but do not prevent the
// device from being displayed; use List.Blocking to decide whether it can be
// saved.
func Validate(d *Device) diag.List {
	var issues diag.List
	for pi, p := range d.Peripherals {
		path := fmt.Sprintf("peripherals[%d]", pi)
		issues.Append(path, validatePeripheral(p))
	}
	return issues
}

func validatePeripheral(p *Peripheral) diag.List {
	var issues diag.List
	if _, ok := p.End(); !ok {
		issues.Add("size", diag.Rangef("base address %s + size %s overflows 256 bits",
			wide.Literal(&p.BaseAddress), wide.Literal(&p.Size)))
	}
	for ri, r := range p.Registers {
		path := fmt.Sprintf("registers[%d]", ri)
		issues.Append(path, ValidateRegister(r))
		if r.IsArray && (r.ArrayCount <= 0 || arrayError(r) != nil) {
			continue
		}
		if _, err := ExpandRegister(&p.BaseAddress, r); err != nil {
			issues.Add(path+".addressOffset", err)
		}
	}
	return issues
}

// ValidateRegister checks one register on its own. Issue paths are relative
// to the register.
func ValidateRegister(r *Register) diag.List {
	var issues diag.List
	if !wide.IsAcceptedWidth(r.Width) {
		issues.Add("width", diag.Rangef("register width %d is not one of %v", r.Width, wide.AcceptedWidths))
		// Nothing below makes sense without a width.
		return issues
	}
	if n := r.ResetValue.BitLen(); n > r.Width {
		issues.Add("resetValue", diag.Rangef("reset value %s does not fit in %d bits", wide.Literal(&r.ResetValue), r.Width))
	}
	if n := r.ResetMask.BitLen(); n > r.Width {
		issues.Add("resetMask", diag.Rangef("reset mask %s does not fit in %d bits", wide.Literal(&r.ResetMask), r.Width))
	}
	if r.IsArray {
		switch {
		case r.ArrayCount <= 0:
			issues.Add("arrayCount", diag.Rangef("array register needs a positive element count, got %d", r.ArrayCount))
		case r.ArrayCount > MaxArrayCount:
			issues.Add("arrayCount", diag.Rangef("array of %d elements exceeds %d", r.ArrayCount, MaxArrayCount))
		}
		if r.ArrayStride == nil {
			issues.Add("arrayStride", diag.Rangef("array register has no stride"))
		}
	}

	var named []bitrange.Named
	for fi, f := range r.Fields {
		path := fmt.Sprintf("fields[%d]", fi)
		rng, err := f.Range()
		if err != nil {
			issues.Add(path+".bits", err)
			continue
		}
		if err := rng.Validate(r.Width); err != nil {
			issues.Add(path+".bits", err)
			continue
		}
		named = append(named, bitrange.Named{Path: path, Name: f.Name, Range: rng})

		for ei, ev := range f.Values {
			if ev.Value.BitLen() > rng.Width() {
				issues.Add(fmt.Sprintf("%s.enumeratedValues[%d]", path, ei),
					diag.Rangef("value %s of %q does not fit in %d bits", wide.Literal(&ev.Value), ev.Name, rng.Width()))
			}
		}
	}
	issues = append(issues, bitrange.CheckOverlaps(named)...)
	return issues
}

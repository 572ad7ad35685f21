package device

import (
	"github.com/google/uuid"
)

// Clone returns a deep copy of d. IDs are kept.
func (d *Device) Clone() *Device {
	out := *d
	out.Peripherals = make([]*Peripheral, len(d.Peripherals))
	for i, p := range d.Peripherals {
		out.Peripherals[i] = p.clone()
	}
	return &out
}

func (p *Peripheral) clone() *Peripheral {
	out := *p
	out.Registers = make([]*Register, len(p.Registers))
	for i, r := range p.Registers {
		out.Registers[i] = r.clone()
	}
	return &out
}

func (r *Register) clone() *Register {
	out := *r
	if r.ArrayStride != nil {
		stride := *r.ArrayStride
		out.ArrayStride = &stride
	}
	out.Fields = make([]*Field, len(r.Fields))
	for i, f := range r.Fields {
		out.Fields[i] = f.clone()
	}
	return &out
}

func (f *Field) clone() *Field {
	out := *f
	out.Values = make([]*EnumeratedValue, len(f.Values))
	for i, ev := range f.Values {
		cp := *ev
		out.Values[i] = &cp
	}
	return &out
}

// Duplicate returns a private copy of d owned by owner. Every node gets a
// fresh ID and the copy remembers the device it was made from.
func (d *Device) Duplicate(owner string) *Device {
	out := d.Clone()
	out.walkIDs(func(id *string) { *id = uuid.NewString() })
	out.OriginalID = d.ID
	out.OwnerID = owner
	out.Public = false
	return out
}

// AssignIDs gives an ID to every node which has none.
func (d *Device) AssignIDs() {
	d.walkIDs(func(id *string) {
		if *id == "" {
			*id = uuid.NewString()
		}
	})
}

func (d *Device) walkIDs(fn func(id *string)) {
	fn(&d.ID)
	for _, p := range d.Peripherals {
		fn(&p.ID)
		for _, r := range p.Registers {
			fn(&r.ID)
			for _, f := range r.Fields {
				fn(&f.ID)
			}
		}
	}
}

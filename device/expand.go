package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"bitsmith/diag"
	"bitsmith/log"
)

// Instance is one concrete register of a peripheral. Array registers yield
// one instance per element; everything but the identification and the
// address is read from Template.
type Instance struct {
	Template *Register

	ID            string
	Name          string
	Index         int // element index, -1 for a plain register
	AddressOffset uint256.Int
	Address       uint256.Int // peripheral base + AddressOffset
}

// InstanceName substitutes the first %s of pattern with base, then the
// first %d of the result with i. An empty pattern gives "base[i]".
func InstanceName(pattern, base string, i int) string {
	if pattern == "" {
		return base + "[" + strconv.Itoa(i) + "]"
	}
	name := strings.Replace(pattern, "%s", base, 1)
	return strings.Replace(name, "%d", strconv.Itoa(i), 1)
}

// arrayError reports why r can't be expanded as an array, or nil.
func arrayError(r *Register) error {
	switch {
	case r.ArrayCount > MaxArrayCount:
		return diag.Rangef("array of %d elements exceeds %d", r.ArrayCount, MaxArrayCount)
	case r.ArrayCount > 0 && r.ArrayStride == nil:
		return diag.Rangef("array register has no stride")
	}
	return nil
}

// ExpandRegister returns the instances of r in a peripheral at base.
//
// Element i lives at offset O + S*i. All arithmetic is done on 256 bits and
// an address that doesn't fit is a RangeError. An array with no element
// yields no instance.
func ExpandRegister(base *uint256.Int, r *Register) ([]Instance, error) {
	if !r.IsArray {
		var addr uint256.Int
		if _, overflow := addr.AddOverflow(base, &r.AddressOffset); overflow {
			return nil, diag.Rangef("address of %s overflows 256 bits", r.Name)
		}
		return []Instance{{
			Template:      r,
			ID:            r.ID,
			Name:          r.Name,
			Index:         -1,
			AddressOffset: r.AddressOffset,
			Address:       addr,
		}}, nil
	}
	if r.ArrayCount <= 0 {
		return nil, nil
	}
	if err := arrayError(r); err != nil {
		return nil, err
	}

	out := make([]Instance, 0, r.ArrayCount)
	for i := range r.ArrayCount {
		var step, off, addr uint256.Int
		_, o1 := step.MulOverflow(r.ArrayStride, uint256.NewInt(uint64(i)))
		_, o2 := off.AddOverflow(&r.AddressOffset, &step)
		_, o3 := addr.AddOverflow(base, &off)
		if o1 || o2 || o3 {
			return nil, diag.Rangef("address of %s element %d overflows 256 bits", r.Name, i)
		}
		out = append(out, Instance{
			Template:      r,
			ID:            r.ID + "_" + strconv.Itoa(i),
			Name:          InstanceName(r.NamePattern, r.Name, i),
			Index:         i,
			AddressOffset: off,
			Address:       addr,
		})
	}

	log.ModDevice.DebugZ("expanded array register").
		String("name", r.Name).
		Int("count", r.ArrayCount).
		Wide("stride", r.ArrayStride).
		End()
	return out, nil
}

// Expand flattens the registers of p in declaration order. Registers which
// can't be expanded are skipped and reported.
func (p *Peripheral) Expand() ([]Instance, diag.List) {
	var (
		out    []Instance
		issues diag.List
	)
	for ri, r := range p.Registers {
		insts, err := ExpandRegister(&p.BaseAddress, r)
		if err != nil {
			issues.Add(fmt.Sprintf("registers[%d]", ri), err)
			continue
		}
		out = append(out, insts...)
	}
	return out, issues
}

// PeripheralInstances groups the instances of one peripheral.
type PeripheralInstances struct {
	Peripheral *Peripheral
	Instances  []Instance
}

// Expand flattens every peripheral of d, in declaration order.
func (d *Device) Expand() ([]PeripheralInstances, diag.List) {
	var (
		out    []PeripheralInstances
		issues diag.List
	)
	for pi, p := range d.Peripherals {
		insts, iss := p.Expand()
		issues.Append(fmt.Sprintf("peripherals[%d]", pi), iss)
		out = append(out, PeripheralInstances{Peripheral: p, Instances: insts})
	}
	return out, issues
}

// FindInstance looks up a register instance by "PERIPH.REG" where REG is a
// register or instance name, e.g. "GPIOA.MODER" or "DMA.CH_2".
func (d *Device) FindInstance(path string) (*Peripheral, *Instance, error) {
	pname, rname, ok := strings.Cut(path, ".")
	if !ok {
		return nil, nil, diag.Parsef("register path %q is not PERIPHERAL.REGISTER", path)
	}
	p := d.Peripheral(pname)
	if p == nil {
		return nil, nil, diag.Parsef("no peripheral %q", pname)
	}
	insts, _ := p.Expand()
	for i := range insts {
		if insts[i].Name == rname {
			return p, &insts[i], nil
		}
	}
	for i := range insts {
		if insts[i].Template.Name == rname {
			return p, &insts[i], nil
		}
	}
	return nil, nil, diag.Parsef("no register %q in %s", rname, pname)
}

package device

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/holiman/uint256"

	"bitsmith/bitrange"
	"bitsmith/diag"
	"bitsmith/log"
	"bitsmith/wide"
)

// CMSIS-SVD subset. Only what maps onto the device tree is decoded.

// svdInt is an SVD scaled integer: decimal, 0x hex or #binary where 'x'
// digits (don't care) read as 0.
type svdInt uint256.Int

func (n *svdInt) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	v, err := parseSVDInt(s)
	if err != nil {
		return errors.Wrapf(err, "<%s>", start.Name.Local)
	}
	*n = svdInt(v)
	return nil
}

func (n *svdInt) wide() uint256.Int {
	if n == nil {
		return uint256.Int{}
	}
	return uint256.Int(*n)
}

func (n *svdInt) int() int {
	v := n.wide()
	if !v.IsUint64() || v.Uint64() > 1<<31 {
		return -1
	}
	return int(v.Uint64())
}

func parseSVDInt(s string) (uint256.Int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		s = strings.NewReplacer("x", "0", "X", "0").Replace(s)
	}
	return wide.ParseLiteral(s)
}

type svdRegProps struct {
	Size       *svdInt `xml:"size"`
	Access     string  `xml:"access"`
	ResetValue *svdInt `xml:"resetValue"`
	ResetMask  *svdInt `xml:"resetMask"`
}

// over returns p with the unset properties taken from parent.
func (p svdRegProps) over(parent svdRegProps) svdRegProps {
	if p.Size == nil {
		p.Size = parent.Size
	}
	if p.Access == "" {
		p.Access = parent.Access
	}
	if p.ResetValue == nil {
		p.ResetValue = parent.ResetValue
	}
	if p.ResetMask == nil {
		p.ResetMask = parent.ResetMask
	}
	return p
}

type svdDim struct {
	Dim          *svdInt `xml:"dim"`
	DimIncrement *svdInt `xml:"dimIncrement"`
	DimIndex     string  `xml:"dimIndex"`
}

type svdDevice struct {
	Name        string `xml:"name"`
	Version     string `xml:"version"`
	Description string `xml:"description"`
	CPU         *struct {
		Endian string `xml:"endian"`
	} `xml:"cpu"`
	svdRegProps
	Peripherals []*svdPeripheral `xml:"peripherals>peripheral"`
}

type svdPeripheral struct {
	DerivedFrom   string `xml:"derivedFrom,attr"`
	Name          string `xml:"name"`
	Description   string `xml:"description"`
	BaseAddress   svdInt `xml:"baseAddress"`
	svdRegProps
	AddressBlocks []svdAddressBlock `xml:"addressBlock"`
	Registers     []*svdRegister    `xml:"registers>register"`
	Clusters      []*svdCluster     `xml:"registers>cluster"`
}

type svdAddressBlock struct {
	Offset svdInt `xml:"offset"`
	Size   svdInt `xml:"size"`
}

type svdCluster struct {
	svdDim
	Name          string `xml:"name"`
	AddressOffset svdInt `xml:"addressOffset"`
	svdRegProps
	Registers []*svdRegister `xml:"register"`
	Clusters  []*svdCluster  `xml:"cluster"`
}

type svdRegister struct {
	svdDim
	Name                string `xml:"name"`
	Description         string `xml:"description"`
	AddressOffset       svdInt `xml:"addressOffset"`
	svdRegProps
	ModifiedWriteValues string      `xml:"modifiedWriteValues"`
	Fields              []*svdField `xml:"fields>field"`
}

type svdField struct {
	svdDim
	Name                string  `xml:"name"`
	Description         string  `xml:"description"`
	BitOffset           *svdInt `xml:"bitOffset"`
	BitWidth            *svdInt `xml:"bitWidth"`
	LSB                 *svdInt `xml:"lsb"`
	MSB                 *svdInt `xml:"msb"`
	BitRange            string  `xml:"bitRange"`
	Access              string  `xml:"access"`
	ModifiedWriteValues string  `xml:"modifiedWriteValues"`
	EnumeratedValues    []struct {
		Values []svdEnumValue `xml:"enumeratedValue"`
	} `xml:"enumeratedValues"`
}

type svdEnumValue struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Value       string `xml:"value"`
	IsDefault   bool   `xml:"isDefault"`
}

// ImportSVD converts a CMSIS-SVD description into a device tree.
//
// Derived peripherals get a copy of their base registers. Register arrays
// whose elements are numbered from 0 become array registers, other dim
// lists (and clusters) are expanded into plain registers. Registers default
// to 32 bits.
func ImportSVD(r io.Reader) (*Device, error) {
	var sd svdDevice
	if err := xml.NewDecoder(r).Decode(&sd); err != nil {
		return nil, errors.Wrap(err, "decode svd")
	}

	dev := &Device{
		Name:         sd.Name,
		Description:  oneLine(sd.Description),
		Version:      sd.Version,
		LittleEndian: sd.CPU == nil || sd.CPU.Endian != "big",
	}

	byName := make(map[string]*svdPeripheral, len(sd.Peripherals))
	for _, sp := range sd.Peripherals {
		byName[sp.Name] = sp
	}
	for _, sp := range sd.Peripherals {
		resolved, err := resolvePeripheral(sp, byName, 0)
		if err != nil {
			return nil, err
		}
		p, err := importPeripheral(resolved, sd.svdRegProps)
		if err != nil {
			return nil, errors.Wrapf(err, "peripheral %s", sp.Name)
		}
		dev.Peripherals = append(dev.Peripherals, p)
	}

	dev.AssignIDs()
	log.ModDevice.InfoZ("imported svd").
		String("device", dev.Name).
		Int("peripherals", len(dev.Peripherals)).
		End()
	return dev, nil
}

func resolvePeripheral(sp *svdPeripheral, byName map[string]*svdPeripheral, depth int) (*svdPeripheral, error) {
	if sp.DerivedFrom == "" {
		return sp, nil
	}
	if depth > len(byName) {
		return nil, diag.Parsef("peripheral %s: derivedFrom cycle", sp.Name)
	}
	base, ok := byName[sp.DerivedFrom]
	if !ok {
		return nil, diag.Parsef("peripheral %s derives from unknown peripheral %s", sp.Name, sp.DerivedFrom)
	}
	base, err := resolvePeripheral(base, byName, depth+1)
	if err != nil {
		return nil, err
	}

	out := *sp
	out.DerivedFrom = ""
	if out.Description == "" {
		out.Description = base.Description
	}
	out.svdRegProps = sp.svdRegProps.over(base.svdRegProps)
	if len(out.AddressBlocks) == 0 {
		out.AddressBlocks = base.AddressBlocks
	}
	if len(out.Registers) == 0 && len(out.Clusters) == 0 {
		out.Registers = base.Registers
		out.Clusters = base.Clusters
	}
	return &out, nil
}

func importPeripheral(sp *svdPeripheral, devProps svdRegProps) (*Peripheral, error) {
	p := &Peripheral{
		Name:        sp.Name,
		Description: oneLine(sp.Description),
		BaseAddress: sp.BaseAddress.wide(),
	}
	props := sp.svdRegProps.over(devProps)

	var zero uint256.Int
	for _, sr := range sp.Registers {
		regs, err := importRegister(sr, props, &zero, "")
		if err != nil {
			return nil, err
		}
		p.Registers = append(p.Registers, regs...)
	}
	for _, sc := range sp.Clusters {
		regs, err := importCluster(sc, props, &zero, "")
		if err != nil {
			return nil, err
		}
		p.Registers = append(p.Registers, regs...)
	}

	for _, ab := range sp.AddressBlocks {
		var end uint256.Int
		off, size := ab.Offset.wide(), ab.Size.wide()
		if _, overflow := end.AddOverflow(&off, &size); overflow {
			return nil, diag.Rangef("address block overflows 256 bits")
		}
		if end.Gt(&p.Size) {
			p.Size = end
		}
	}
	if len(sp.AddressBlocks) == 0 {
		p.Size = registersExtent(p.Registers)
	}
	return p, nil
}

// registersExtent returns the first offset past the last register byte.
func registersExtent(regs []*Register) uint256.Int {
	var zero, ext uint256.Int
	for _, r := range regs {
		insts, err := ExpandRegister(&zero, r)
		if err != nil {
			continue
		}
		for _, inst := range insts {
			var end uint256.Int
			end.Add(&inst.AddressOffset, uint256.NewInt(uint64((r.Width+7)/8)))
			if end.Gt(&ext) {
				ext = end
			}
		}
	}
	return ext
}

// dimLabels returns the element labels of a dim group, and whether they
// are the plain indices 0..dim-1.
func dimLabels(d svdDim) ([]string, bool, error) {
	n := d.Dim.int()
	if n <= 0 || n > MaxArrayCount {
		return nil, false, diag.Rangef("invalid dim %d", n)
	}
	idx := strings.TrimSpace(d.DimIndex)
	if idx == "" {
		labels := make([]string, n)
		for i := range labels {
			labels[i] = strconv.Itoa(i)
		}
		return labels, true, nil
	}

	var labels []string
	if lo, hi, ok := strings.Cut(idx, "-"); ok && !strings.Contains(idx, ",") {
		a, errA := strconv.Atoi(lo)
		b, errB := strconv.Atoi(hi)
		switch {
		case errA == nil && errB == nil && a <= b:
			for i := a; i <= b; i++ {
				labels = append(labels, strconv.Itoa(i))
			}
		case len(lo) == 1 && len(hi) == 1 && lo[0] <= hi[0]:
			for c := lo[0]; c <= hi[0]; c++ {
				labels = append(labels, string(c))
			}
		default:
			return nil, false, diag.Parsef("invalid dimIndex %q", idx)
		}
	} else {
		for _, l := range strings.Split(idx, ",") {
			labels = append(labels, strings.TrimSpace(l))
		}
	}
	if len(labels) != n {
		return nil, false, diag.Parsef("dimIndex %q has %d entries, dim is %d", idx, len(labels), n)
	}
	plain := true
	for i, l := range labels {
		if l != strconv.Itoa(i) {
			plain = false
		}
	}
	return labels, plain, nil
}

func substDim(name, label string) string {
	if strings.Contains(name, "[%s]") {
		return strings.Replace(name, "[%s]", label, 1)
	}
	return strings.Replace(name, "%s", label, 1)
}

// elementOffset returns base + off + i*inc.
func elementOffset(base, off *uint256.Int, inc *svdInt, i int) (uint256.Int, error) {
	var step, out uint256.Int
	stride := inc.wide()
	_, o1 := step.MulOverflow(&stride, uint256.NewInt(uint64(i)))
	_, o2 := out.AddOverflow(off, &step)
	_, o3 := out.AddOverflow(&out, base)
	if o1 || o2 || o3 {
		return uint256.Int{}, diag.Rangef("element %d offset overflows 256 bits", i)
	}
	return out, nil
}

func importCluster(sc *svdCluster, parent svdRegProps, base *uint256.Int, prefix string) ([]*Register, error) {
	props := sc.svdRegProps.over(parent)
	off := sc.AddressOffset.wide()

	labels := []string{""}
	if sc.Dim != nil {
		var err error
		if labels, _, err = dimLabels(sc.svdDim); err != nil {
			return nil, errors.Wrapf(err, "cluster %s", sc.Name)
		}
	}

	var out []*Register
	for i, label := range labels {
		start, err := elementOffset(base, &off, sc.DimIncrement, i)
		if err != nil {
			return nil, errors.Wrapf(err, "cluster %s", sc.Name)
		}
		name := prefix + substDim(sc.Name, label) + "_"
		for _, sr := range sc.Registers {
			regs, err := importRegister(sr, props, &start, name)
			if err != nil {
				return nil, err
			}
			out = append(out, regs...)
		}
		for _, child := range sc.Clusters {
			regs, err := importCluster(child, props, &start, name)
			if err != nil {
				return nil, err
			}
			out = append(out, regs...)
		}
	}
	return out, nil
}

func importRegister(sr *svdRegister, parent svdRegProps, base *uint256.Int, prefix string) ([]*Register, error) {
	props := sr.svdRegProps.over(parent)

	tmpl := &Register{
		Description: oneLine(sr.Description),
		Width:       32,
		ResetValue:  props.ResetValue.wide(),
		ResetMask:   props.ResetMask.wide(),
	}
	if props.Size != nil {
		tmpl.Width = props.Size.int()
	}
	if tmpl.Width >= 1 && tmpl.Width <= wide.MaxWidth {
		// Device level reset masks are written for the widest register.
		tmpl.ResetValue = wide.Truncate(&tmpl.ResetValue, tmpl.Width)
		tmpl.ResetMask = wide.Truncate(&tmpl.ResetMask, tmpl.Width)
	}
	var err error
	if tmpl.Access, err = svdAccess(props.Access, sr.ModifiedWriteValues); err != nil {
		return nil, errors.Wrapf(err, "register %s", sr.Name)
	}
	for _, sf := range sr.Fields {
		fields, err := importField(sf)
		if err != nil {
			return nil, errors.Wrapf(err, "register %s", sr.Name)
		}
		tmpl.Fields = append(tmpl.Fields, fields...)
	}

	off := sr.AddressOffset.wide()
	if sr.Dim == nil {
		tmpl.Name = prefix + sr.Name
		if _, overflow := tmpl.AddressOffset.AddOverflow(base, &off); overflow {
			return nil, diag.Rangef("register %s offset overflows 256 bits", sr.Name)
		}
		return []*Register{tmpl}, nil
	}

	labels, plain, err := dimLabels(sr.svdDim)
	if err != nil {
		return nil, errors.Wrapf(err, "register %s", sr.Name)
	}
	if plain {
		// Native array: X[%s] keeps the default naming, X%s becomes a pattern.
		tmpl.IsArray = true
		tmpl.ArrayCount = len(labels)
		stride := sr.DimIncrement.wide()
		tmpl.ArrayStride = &stride
		switch name := prefix + sr.Name; {
		case strings.Contains(name, "[%s]"):
			tmpl.Name = strings.Replace(name, "[%s]", "", 1)
		case strings.HasSuffix(name, "%s"):
			tmpl.Name = strings.TrimSuffix(name, "%s")
			tmpl.NamePattern = "%s%d"
		default:
			tmpl.Name = strings.Replace(name, "%s", "", 1)
			tmpl.NamePattern = strings.Replace(name, "%s", "%d", 1)
		}
		if _, overflow := tmpl.AddressOffset.AddOverflow(base, &off); overflow {
			return nil, diag.Rangef("register %s offset overflows 256 bits", sr.Name)
		}
		return []*Register{tmpl}, nil
	}

	out := make([]*Register, 0, len(labels))
	for i, label := range labels {
		r := tmpl.clone()
		r.Name = prefix + substDim(sr.Name, label)
		if r.AddressOffset, err = elementOffset(base, &off, sr.DimIncrement, i); err != nil {
			return nil, errors.Wrapf(err, "register %s", sr.Name)
		}
		out = append(out, r)
	}
	return out, nil
}

func importField(sf *svdField) ([]*Field, error) {
	access, err := svdAccess(sf.Access, sf.ModifiedWriteValues)
	if err != nil {
		return nil, errors.Wrapf(err, "field %s", sf.Name)
	}

	var rng bitrange.Range
	switch {
	case sf.BitRange != "":
		rng, err = bitrange.Parse(sf.BitRange)
	case sf.LSB != nil || sf.MSB != nil:
		lsb, msb := sf.LSB.int(), sf.MSB.int()
		if msb < lsb {
			err = diag.Parsef("msb %d is below lsb %d", msb, lsb)
			break
		}
		rng, err = bitrange.FromOffsetWidth(lsb, msb-lsb+1)
	default:
		width := 1
		if sf.BitWidth != nil {
			width = sf.BitWidth.int()
		}
		rng, err = bitrange.FromOffsetWidth(sf.BitOffset.int(), width)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "field %s", sf.Name)
	}

	f := &Field{
		Description: oneLine(sf.Description),
		BitOffset:   rng.Low,
		BitWidth:    rng.Width(),
		Access:      access,
	}
	for _, group := range sf.EnumeratedValues {
		for _, ev := range group.Values {
			if ev.IsDefault || ev.Value == "" {
				continue
			}
			v, err := parseSVDInt(ev.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s value %s", sf.Name, ev.Name)
			}
			f.Values = append(f.Values, &EnumeratedValue{
				Name:        ev.Name,
				Description: oneLine(ev.Description),
				Value:       v,
			})
		}
	}

	if sf.Dim == nil {
		f.Name = sf.Name
		return []*Field{f}, nil
	}
	labels, _, err := dimLabels(sf.svdDim)
	if err != nil {
		return nil, errors.Wrapf(err, "field %s", sf.Name)
	}
	inc := sf.DimIncrement.int()
	out := make([]*Field, 0, len(labels))
	for i, label := range labels {
		cp := f.clone()
		cp.Name = substDim(sf.Name, label)
		cp.BitOffset = rng.Low + i*inc
		out = append(out, cp)
	}
	return out, nil
}

func svdAccess(access, modified string) (Access, error) {
	switch modified {
	case "", "modify":
	default:
		if a, err := ParseAccess(modified); err == nil {
			return a, nil
		}
	}
	return ParseAccess(access)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

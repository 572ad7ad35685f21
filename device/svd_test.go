package device

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleSVD = `<?xml version="1.0" encoding="utf-8"?>
<device schemaVersion="1.3">
  <name>STM32X</name>
  <version>1.0</version>
  <description>Test
    device</description>
  <cpu><endian>little</endian></cpu>
  <size>32</size>
  <access>read-write</access>
  <resetValue>0x00000000</resetValue>
  <resetMask>0xFFFFFFFF</resetMask>
  <peripherals>
    <peripheral>
      <name>GPIOA</name>
      <description>General purpose I/O</description>
      <baseAddress>0x40020000</baseAddress>
      <addressBlock><offset>0x0</offset><size>0x400</size><usage>registers</usage></addressBlock>
      <registers>
        <register>
          <name>MODER</name>
          <addressOffset>0x00</addressOffset>
          <resetValue>0xA8000000</resetValue>
          <fields>
            <field>
              <name>MODER0</name>
              <bitOffset>0</bitOffset>
              <bitWidth>2</bitWidth>
              <enumeratedValues>
                <enumeratedValue><name>Input</name><value>0</value></enumeratedValue>
                <enumeratedValue><name>Output</name><value>#01</value></enumeratedValue>
                <enumeratedValue><name>Analog</name><value>0x3</value></enumeratedValue>
              </enumeratedValues>
            </field>
            <field>
              <name>MODER1</name>
              <lsb>2</lsb>
              <msb>3</msb>
            </field>
            <field>
              <name>MODER2</name>
              <bitRange>[5:4]</bitRange>
              <access>read-only</access>
            </field>
          </fields>
        </register>
        <register>
          <name>ISR</name>
          <addressOffset>0x04</addressOffset>
          <size>16</size>
          <fields>
            <field>
              <name>FLAG</name>
              <bitOffset>0</bitOffset>
              <bitWidth>1</bitWidth>
              <modifiedWriteValues>oneToClear</modifiedWriteValues>
            </field>
            <field>
              <name>SEL</name>
              <bitOffset>4</bitOffset>
              <bitWidth>2</bitWidth>
              <enumeratedValues>
                <enumeratedValue><name>Any</name><value>#1x</value></enumeratedValue>
                <enumeratedValue><name>Other</name><isDefault>true</isDefault></enumeratedValue>
              </enumeratedValues>
            </field>
          </fields>
        </register>
        <register>
          <dim>4</dim>
          <dimIncrement>0x4</dimIncrement>
          <name>AFR%s</name>
          <addressOffset>0x20</addressOffset>
        </register>
        <register>
          <dim>2</dim>
          <dimIncrement>0x4</dimIncrement>
          <name>BUF[%s]</name>
          <addressOffset>0x40</addressOffset>
        </register>
        <register>
          <dim>3</dim>
          <dimIncrement>0x4</dimIncrement>
          <dimIndex>A,B,C</dimIndex>
          <name>CFG%s</name>
          <addressOffset>0x50</addressOffset>
        </register>
        <cluster>
          <dim>2</dim>
          <dimIncrement>0x10</dimIncrement>
          <name>CH%s</name>
          <addressOffset>0x100</addressOffset>
          <register>
            <name>CR</name>
            <addressOffset>0x0</addressOffset>
          </register>
          <register>
            <name>NDTR</name>
            <addressOffset>0x4</addressOffset>
          </register>
        </cluster>
      </registers>
    </peripheral>
    <peripheral derivedFrom="GPIOA">
      <name>GPIOB</name>
      <baseAddress>0x40020400</baseAddress>
    </peripheral>
    <peripheral>
      <name>TIM</name>
      <baseAddress>0x40010000</baseAddress>
      <registers>
        <register>
          <name>CNT</name>
          <addressOffset>0x24</addressOffset>
        </register>
      </registers>
    </peripheral>
  </peripherals>
</device>`

type regSummary struct {
	Name    string
	Offset  uint64
	Width   int
	Array   int
	Pattern string
}

func TestImportSVD(t *testing.T) {
	dev, err := ImportSVD(strings.NewReader(sampleSVD))
	if err != nil {
		t.Fatal(err)
	}

	if dev.Name != "STM32X" || dev.Description != "Test device" || !dev.LittleEndian {
		t.Errorf("device header = %q %q %v", dev.Name, dev.Description, dev.LittleEndian)
	}
	if len(dev.Peripherals) != 3 {
		t.Fatalf("got %d peripherals, want 3", len(dev.Peripherals))
	}

	gpioa := dev.Peripherals[0]
	if gpioa.Size.Uint64() != 0x400 || gpioa.BaseAddress.Uint64() != 0x40020000 {
		t.Errorf("GPIOA base %s size %s", gpioa.BaseAddress.Hex(), gpioa.Size.Hex())
	}

	var got []regSummary
	for _, r := range gpioa.Registers {
		got = append(got, regSummary{r.Name, r.AddressOffset.Uint64(), r.Width, r.ArrayCount, r.NamePattern})
	}
	want := []regSummary{
		{"MODER", 0x00, 32, 0, ""},
		{"ISR", 0x04, 16, 0, ""},
		{"AFR", 0x20, 32, 4, "%s%d"},
		{"BUF", 0x40, 32, 2, ""},
		{"CFGA", 0x50, 32, 0, ""},
		{"CFGB", 0x54, 32, 0, ""},
		{"CFGC", 0x58, 32, 0, ""},
		{"CH0_CR", 0x100, 32, 0, ""},
		{"CH0_NDTR", 0x104, 32, 0, ""},
		{"CH1_CR", 0x110, 32, 0, ""},
		{"CH1_NDTR", 0x114, 32, 0, ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GPIOA registers mismatch (-want +got):\n%s", diff)
	}

	moder := gpioa.Register("MODER")
	if moder.ResetValue.Uint64() != 0xA8000000 || moder.ResetMask.Uint64() != 0xFFFFFFFF || moder.Access != ReadWrite {
		t.Errorf("MODER properties: reset %s mask %s access %v", moder.ResetValue.Hex(), moder.ResetMask.Hex(), moder.Access)
	}
	var ranges []string
	for _, f := range moder.Fields {
		r, err := f.Range()
		if err != nil {
			t.Fatalf("%s: %v", f.Name, err)
		}
		ranges = append(ranges, f.Name+"="+r.String())
	}
	if diff := cmp.Diff([]string{"MODER0=1:0", "MODER1=3:2", "MODER2=5:4"}, ranges); diff != "" {
		t.Errorf("MODER field ranges mismatch (-want +got):\n%s", diff)
	}
	if moder.Field("MODER2").Access != ReadOnly {
		t.Errorf("MODER2 access = %v", moder.Field("MODER2").Access)
	}

	var values []string
	for _, ev := range moder.Field("MODER0").Values {
		values = append(values, ev.Name+"="+ev.Value.Dec())
	}
	if diff := cmp.Diff([]string{"Input=0", "Output=1", "Analog=3"}, values); diff != "" {
		t.Errorf("MODER0 values mismatch (-want +got):\n%s", diff)
	}

	isr := gpioa.Register("ISR")
	if isr.Field("FLAG").Access != Write1Clear {
		t.Errorf("FLAG access = %v, want W1C", isr.Field("FLAG").Access)
	}
	if sel := isr.Field("SEL"); len(sel.Values) != 1 || sel.Values[0].Value.Uint64() != 2 {
		t.Errorf("SEL values = %+v", sel.Values)
	}

	afr := gpioa.Register("AFR")
	insts, err := ExpandRegister(&gpioa.BaseAddress, afr)
	if err != nil || len(insts) != 4 || insts[3].Name != "AFR3" || insts[3].Address.Uint64() != 0x4002002C {
		t.Errorf("AFR instances = %v, %v", summarize(insts), err)
	}
	buf, _ := ExpandRegister(&gpioa.BaseAddress, gpioa.Register("BUF"))
	if len(buf) != 2 || buf[1].Name != "BUF[1]" {
		t.Errorf("BUF instances = %v", summarize(buf))
	}

	gpiob := dev.Peripherals[1]
	if gpiob.Name != "GPIOB" || len(gpiob.Registers) != len(gpioa.Registers) || gpiob.Size.Uint64() != 0x400 {
		t.Errorf("derived GPIOB: %d registers, size %s", len(gpiob.Registers), gpiob.Size.Hex())
	}
	if gpiob.Registers[0] == gpioa.Registers[0] {
		t.Error("derived peripheral shares registers with its base")
	}
	if gpiob.Description != gpioa.Description {
		t.Errorf("GPIOB description = %q", gpiob.Description)
	}

	// No address block: size spans the registers.
	if tim := dev.Peripherals[2]; tim.Size.Uint64() != 0x28 {
		t.Errorf("TIM size = %s, want 0x28", tim.Size.Hex())
	}

	if issues := Validate(dev); len(issues) != 0 {
		t.Errorf("Validate(imported) = %v", issues)
	}
	for _, p := range dev.Peripherals {
		if p.ID == "" {
			t.Errorf("%s has no ID", p.Name)
		}
	}
}

func TestImportSVDErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not xml", "device"},
		{"unknown base", `<device><name>X</name><peripherals>
			<peripheral derivedFrom="NOPE"><name>A</name><baseAddress>0</baseAddress></peripheral>
			</peripherals></device>`},
		{"bad integer", `<device><name>X</name><peripherals>
			<peripheral><name>A</name><baseAddress>0xZZ</baseAddress></peripheral>
			</peripherals></device>`},
		{"bad dimIndex", `<device><name>X</name><peripherals>
			<peripheral><name>A</name><baseAddress>0</baseAddress><registers>
			<register><dim>2</dim><dimIncrement>4</dimIncrement><dimIndex>A,B,C</dimIndex><name>R%s</name><addressOffset>0</addressOffset></register>
			</registers></peripheral></peripherals></device>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ImportSVD(strings.NewReader(tt.in)); err == nil {
				t.Error("ImportSVD should fail")
			}
		})
	}
}

func TestDimLabels(t *testing.T) {
	n := func(v uint64) *svdInt {
		var s svdInt
		s[0] = v
		return &s
	}
	tests := []struct {
		dim   svdDim
		want  []string
		plain bool
	}{
		{svdDim{Dim: n(3)}, []string{"0", "1", "2"}, true},
		{svdDim{Dim: n(2), DimIndex: "0-1"}, []string{"0", "1"}, true},
		{svdDim{Dim: n(2), DimIndex: "3-4"}, []string{"3", "4"}, false},
		{svdDim{Dim: n(3), DimIndex: "A-C"}, []string{"A", "B", "C"}, false},
		{svdDim{Dim: n(2), DimIndex: "TX, RX"}, []string{"TX", "RX"}, false},
	}

	for _, tt := range tests {
		got, plain, err := dimLabels(tt.dim)
		if err != nil {
			t.Fatalf("dimLabels(%+v): %v", tt.dim, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" || plain != tt.plain {
			t.Errorf("dimLabels(%q) plain=%v mismatch (-want +got):\n%s", tt.dim.DimIndex, plain, diff)
		}
	}
}

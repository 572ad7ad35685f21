package device

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"

	"bitsmith/diag"
)

type issueSummary struct {
	Kind diag.Kind
	Path string
}

func summarizeIssues(l diag.List) []issueSummary {
	var out []issueSummary
	for _, iss := range l {
		out = append(out, issueSummary{iss.Kind, iss.Path})
	}
	return out
}

func validDevice() *Device {
	return &Device{
		Name: "MCU",
		Peripherals: []*Peripheral{{
			Name:        "GPIOA",
			BaseAddress: *uint256.NewInt(0x4002_0000),
			Size:        *uint256.NewInt(0x400),
			Registers: []*Register{{
				Name:       "MODER",
				Width:      32,
				ResetValue: *uint256.NewInt(0xA800_0000),
				Fields: []*Field{
					{Name: "MODE0", Bits: "1:0", Values: []*EnumeratedValue{
						{Name: "Input", Value: *uint256.NewInt(0)},
						{Name: "Analog", Value: *uint256.NewInt(3)},
					}},
					{Name: "MODE1", BitOffset: 2, BitWidth: 2},
				},
			}},
		}},
	}
}

func TestValidateOK(t *testing.T) {
	if issues := Validate(validDevice()); len(issues) != 0 {
		t.Errorf("Validate(valid device) = %v", issues)
	}
}

func TestValidateIssues(t *testing.T) {
	dev := validDevice()
	regs := &dev.Peripherals[0].Registers
	*regs = append(*regs,
		&Register{Name: "BAD_WIDTH", Width: 12},
		&Register{
			Name:       "FIELDS",
			Width:      8,
			ResetValue: *uint256.NewInt(0x100),
			Fields: []*Field{
				{Name: "HI", Bits: "7:4"},
				{Name: "LO", Bits: "5:0"},
				{Name: "OUT", Bits: "9:8"},
				{Name: "SWAP", Bits: "0:3"},
				{Name: "DISAGREE", Bits: "3:0", BitOffset: 1, BitWidth: 4},
				{Name: "ENUM", Bits: "6", Values: []*EnumeratedValue{{Name: "TWO", Value: *uint256.NewInt(2)}}},
				{Name: "NONE"},
			},
		},
		&Register{Name: "ARR", Width: 32, IsArray: true},
	)

	want := []issueSummary{
		{diag.RangeError, "peripherals[0].registers[1].width"},
		{diag.RangeError, "peripherals[0].registers[2].resetValue"},
		{diag.RangeError, "peripherals[0].registers[2].fields[2].bits"},
		{diag.ParseError, "peripherals[0].registers[2].fields[3].bits"},
		{diag.ParseError, "peripherals[0].registers[2].fields[4].bits"},
		{diag.RangeError, "peripherals[0].registers[2].fields[5].enumeratedValues[0]"},
		{diag.ParseError, "peripherals[0].registers[2].fields[6].bits"},
		{diag.OverlapError, "peripherals[0].registers[2].fields[1]"},
		{diag.OverlapError, "peripherals[0].registers[2].fields[5]"},
		{diag.RangeError, "peripherals[0].registers[3].arrayCount"},
		{diag.RangeError, "peripherals[0].registers[3].arrayStride"},
	}

	issues := Validate(dev)
	if diff := cmp.Diff(want, summarizeIssues(issues)); diff != "" {
		t.Fatalf("Validate mismatch (-want +got):\n%s", diff)
	}
	if !issues.Blocking() {
		t.Error("issues should be blocking")
	}

	// Deterministic.
	if diff := cmp.Diff(issues.Error(), Validate(dev).Error()); diff != "" {
		t.Errorf("Validate is not deterministic:\n%s", diff)
	}
}

func TestValidateOverlapMessage(t *testing.T) {
	dev := &Device{Peripherals: []*Peripheral{{
		Name: "P",
		Registers: []*Register{{
			Name:  "R",
			Width: 8,
			Fields: []*Field{
				{Name: "HI", Bits: "7:4"},
				{Name: "LO", Bits: "5:0"},
			},
		}},
	}}}

	issues := Validate(dev)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %v", len(issues), issues)
	}
	want := `peripherals[0].registers[0].fields[1]: overlap_error: field "LO" (bits 5:0) overlaps field "HI" (bits 7:4) at bits 5:4`
	if got := issues[0].Error(); got != want {
		t.Errorf("issue = %q, want %q", got, want)
	}
	if issues.Err() == nil {
		t.Error("overlaps are blocking issues")
	}
}

func TestFieldRange(t *testing.T) {
	tests := []struct {
		f       Field
		want    string
		wantErr bool
	}{
		{Field{Bits: "7:4"}, "7:4", false},
		{Field{BitOffset: 4, BitWidth: 4}, "7:4", false},
		{Field{Bits: "[7:4]", BitOffset: 4, BitWidth: 4}, "7:4", false},
		{Field{BitOffset: 3, BitWidth: 1}, "3", false},
		{Field{Bits: "7:4", BitOffset: 0, BitWidth: 4}, "", true},
		{Field{}, "", true},
		{Field{BitOffset: -1, BitWidth: 2}, "", true},
	}

	for _, tt := range tests {
		r, err := tt.f.Range()
		if (err != nil) != tt.wantErr {
			t.Errorf("%+v.Range() error = %v", tt.f, err)
			continue
		}
		if err == nil && r.String() != tt.want {
			t.Errorf("%+v.Range() = %s, want %s", tt.f, r, tt.want)
		}
	}
}

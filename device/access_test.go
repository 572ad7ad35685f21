package device

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestParseAccess(t *testing.T) {
	tests := []struct {
		in   string
		want Access
	}{
		{"read-write", ReadWrite},
		{"RW", ReadWrite},
		{"ro", ReadOnly},
		{"Read-Only", ReadOnly},
		{"WO", WriteOnly},
		{"writeOnce", WriteOnce},
		{"read-writeOnce", ReadWriteOnce},
		{"W1C", Write1Clear},
		{"write-1-to-clear", Write1Clear},
		{"oneToClear", Write1Clear},
		{"w1s", Write1Set},
		{"W0C", Write0Clear},
		{"W0S", Write0Set},
		{"W1T", Write1Toggle},
		{"RSVD", Reserved},
		{"reserved", Reserved},
		{"", AccessUnspecified},
	}

	for _, tt := range tests {
		got, err := ParseAccess(tt.in)
		if err != nil {
			t.Fatalf("ParseAccess(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseAccess(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseAccess("read-mostly"); err == nil {
		t.Error("ParseAccess(read-mostly) should fail")
	}
}

func TestAccessStringRoundTrip(t *testing.T) {
	for a := ReadWrite; a <= Reserved; a++ {
		for _, s := range []string{a.String(), a.Short()} {
			got, err := ParseAccess(s)
			if err != nil || got != a {
				t.Errorf("ParseAccess(%q) = %v, %v, want %v", s, got, err, a)
			}
		}
	}
}

func TestApplyWriteModes(t *testing.T) {
	// current 1100, written 1010
	tests := []struct {
		access Access
		want   uint64
	}{
		{ReadWrite, 0b1010},
		{WriteOnly, 0b1010},
		{WriteOnce, 0b1010},
		{ReadOnly, 0b1100},
		{Reserved, 0b1100},
		{Write1Clear, 0b0100},
		{Write1Set, 0b1110},
		{Write0Clear, 0b1000},
		{Write0Set, 0b1101},
		{Write1Toggle, 0b0110},
	}

	for _, tt := range tests {
		t.Run(tt.access.String(), func(t *testing.T) {
			reg := &Register{
				Name:  "R",
				Width: 4,
				Fields: []*Field{
					{Name: "F", Bits: "3:0", Access: tt.access},
				},
			}
			got := ApplyWrite(reg, uint256.NewInt(0b1100), uint256.NewInt(0b1010))
			if got.Uint64() != tt.want {
				t.Errorf("ApplyWrite = %04b, want %04b", got.Uint64(), tt.want)
			}
		})
	}
}

func TestApplyWriteMask(t *testing.T) {
	reg := &Register{
		Name:   "CTRL",
		Width:  8,
		Access: ReadWrite,
		Fields: []*Field{
			{Name: "STATUS", Bits: "7:4", Access: ReadOnly},
			{Name: "MODE", BitOffset: 0, BitWidth: 4},
		},
	}

	cur := uint256.NewInt(0x11)
	got := ApplyWrite(reg, cur, uint256.NewInt(0x77))
	if got.Uint64() != 0x17 {
		t.Errorf("read-only field not respected: %x", got.Uint64())
	}

	got = ApplyWrite(reg, &got, uint256.NewInt(0x88))
	if got.Uint64() != 0x18 {
		t.Errorf("read-only field not respected: %x", got.Uint64())
	}
}

func TestApplyWriteUnassignedBits(t *testing.T) {
	reg := &Register{
		Name:   "SR",
		Width:  8,
		Access: ReadOnly,
		Fields: []*Field{
			{Name: "FLAGS", Bits: "1:0", Access: Write1Clear},
		},
	}

	// bits 7:2 follow the register (read-only), 1:0 are cleared by ones.
	got := ApplyWrite(reg, uint256.NewInt(0xFF), uint256.NewInt(0x01))
	if got.Uint64() != 0xFE {
		t.Errorf("ApplyWrite = %#x, want 0xfe", got.Uint64())
	}
}

func TestApplyWriteFullWidth(t *testing.T) {
	reg := &Register{
		Name:   "KEY",
		Width:  256,
		Access: ReadOnly,
		Fields: []*Field{
			{Name: "LOCK", Bits: "0", Access: ReadWrite},
		},
	}

	var cur uint256.Int
	cur.SetAllOne()
	got := ApplyWrite(reg, &cur, new(uint256.Int))

	var want uint256.Int
	want.SetAllOne()
	want.Lsh(&want, 1)
	if !got.Eq(&want) {
		t.Errorf("ApplyWrite = %s, want %s", got.Hex(), want.Hex())
	}
}

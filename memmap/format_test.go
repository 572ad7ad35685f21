package memmap

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		v    *uint256.Int
		want string
	}{
		{uint256.NewInt(0), "0x00000000"},
		{uint256.NewInt(0x1000), "0x00001000"},
		{uint256.NewInt(0x4001_ABCD), "0x4001ABCD"},
		{uint256.NewInt(0x1_0000_0000), "0x100000000"},
	}
	for _, tt := range tests {
		if got := FormatAddress(tt.v); got != tt.want {
			t.Errorf("FormatAddress(%s) = %q, want %q", tt.v.Hex(), got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		v    uint64
		want string
	}{
		{0, "0 bytes"},
		{512, "512 bytes"},
		{1023, "1023 bytes"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1100, "1.07 KB"},
		{1048575, "1024.00 KB"},
		{1 << 20, "1.00 MB"},
		{3 << 29, "1536.00 MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(uint256.NewInt(tt.v)); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

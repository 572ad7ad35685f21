package log

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/holiman/uint256"
)

func TestParseModules(t *testing.T) {
	tests := []struct {
		names   []string
		want    ModuleMask
		wantErr bool
	}{
		{names: nil, want: 0},
		{names: []string{"mmap"}, want: ModMMap.Mask()},
		{names: []string{"bits", "value"}, want: ModBits.Mask() | ModValue.Mask()},
		{names: []string{"bits", "all"}, want: ModuleMaskAll},
		{names: []string{"nope"}, wantErr: true},
		{names: []string{"<error>"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.names, ","), func(t *testing.T) {
			got, err := ParseModules(tt.names)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseModules(%q) should have failed", tt.names)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ParseModules(%q) = %x, want %x", tt.names, got, tt.want)
			}
		})
	}
}

func TestEntryZ(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	ModMMap.WarnZ("value reduced").
		String("path", "peripherals[0].size").
		Wide("value", uint256.NewInt(0xabcd)).
		Int("shift", 3).
		End()

	out := buf.String()
	for _, want := range []string{"value reduced", "mmap", "peripherals[0].size", "0xABCD", "shift=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q doesn't contain %q", out, want)
		}
	}

	// Debug is off by default, the entry is nil and must be safe to use.
	buf.Reset()
	ModMMap.DebugZ("hidden").String("k", "v").End()
	if buf.Len() != 0 {
		t.Errorf("debug entry should be discarded, got %q", buf.String())
	}
}

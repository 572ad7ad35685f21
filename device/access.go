package device

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"bitsmith/bitrange"
	"bitsmith/diag"
	"bitsmith/log"
	"bitsmith/wide"
)

// Access is the access mode of a register or field.
type Access uint8

const (
	AccessUnspecified Access = iota
	ReadWrite
	ReadOnly
	WriteOnly
	WriteOnce
	ReadWriteOnce
	Write1Clear
	Write1Set
	Write0Clear
	Write0Set
	Write1Toggle
	Reserved
)

var accessNames = [...]string{
	AccessUnspecified: "",
	ReadWrite:         "read-write",
	ReadOnly:          "read-only",
	WriteOnly:         "write-only",
	WriteOnce:         "write-once",
	ReadWriteOnce:     "read-write-once",
	Write1Clear:       "write-1-to-clear",
	Write1Set:         "write-1-to-set",
	Write0Clear:       "write-0-to-clear",
	Write0Set:         "write-0-to-set",
	Write1Toggle:      "write-1-to-toggle",
	Reserved:          "reserved",
}

var accessShort = [...]string{
	ReadWrite:     "RW",
	ReadOnly:      "RO",
	WriteOnly:     "WO",
	WriteOnce:     "WO1",
	ReadWriteOnce: "RW1",
	Write1Clear:   "W1C",
	Write1Set:     "W1S",
	Write0Clear:   "W0C",
	Write0Set:     "W0S",
	Write1Toggle:  "W1T",
	Reserved:      "RSVD",
}

// lowercase alias -> mode. Includes the CMSIS-SVD spellings.
var accessAliases = map[string]Access{
	"rw": ReadWrite, "ro": ReadOnly, "wo": WriteOnly,
	"wo1": WriteOnce, "rw1": ReadWriteOnce,
	"w1c": Write1Clear, "w1s": Write1Set, "w0c": Write0Clear, "w0s": Write0Set,
	"w1t": Write1Toggle, "rsvd": Reserved,

	"writeonce":      WriteOnce,
	"read-writeonce": ReadWriteOnce,
	"onetoclear":     Write1Clear,
	"onetoset":       Write1Set,
	"zerotoclear":    Write0Clear,
	"zerotoset":      Write0Set,
	"onetotoggle":    Write1Toggle,
}

func (a Access) String() string {
	if int(a) < len(accessNames) {
		return accessNames[a]
	}
	return fmt.Sprintf("access(%d)", uint8(a))
}

// Short returns the abbreviated form used in tables (RO, W1C...).
func (a Access) Short() string {
	if int(a) < len(accessShort) && accessShort[a] != "" {
		return accessShort[a]
	}
	return "-"
}

// ParseAccess accepts the long names and the short aliases, ignoring case.
// An empty string is AccessUnspecified.
func ParseAccess(s string) (Access, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AccessUnspecified, nil
	}
	for a, name := range accessNames {
		if name != "" && name == s {
			return Access(a), nil
		}
	}
	if a, ok := accessAliases[s]; ok {
		return a, nil
	}
	return AccessUnspecified, diag.Parsef("unknown access mode %q", s)
}

func (a Access) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Access) UnmarshalText(text []byte) error {
	v, err := ParseAccess(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Readable reports whether a read returns the register content.
func (a Access) Readable() bool {
	switch a {
	case WriteOnly, WriteOnce, Reserved:
		return false
	}
	return true
}

// Writable reports whether a write may change the content.
func (a Access) Writable() bool {
	switch a {
	case ReadOnly, Reserved:
		return false
	}
	return true
}

// Or returns a if it is specified, else def. Fields inherit the register
// access mode this way.
func (a Access) Or(def Access) Access {
	if a == AccessUnspecified {
		return def
	}
	return a
}

// apply returns the content of the bits selected by mask after writing
// written over cur.
func (a Access) apply(cur, written, mask *uint256.Int) uint256.Int {
	var out, tmp uint256.Int
	switch a {
	case ReadOnly, Reserved:
		out.Set(cur)
	case Write1Clear:
		tmp.Not(written)
		out.And(cur, &tmp)
	case Write1Set:
		out.Or(cur, written)
	case Write0Clear:
		out.And(cur, written)
	case Write0Set:
		tmp.Not(written)
		out.Or(cur, &tmp)
	case Write1Toggle:
		out.Xor(cur, written)
	default:
		out.Set(written)
	}
	return *out.And(&out, mask)
}

// ApplyWrite returns the register content after written is stored over cur.
//
// Each field follows its access mode (the register's when unspecified):
// read-only and reserved bits keep their value, the write-1/write-0 modes
// apply their side effect, other bits take the written value. Bits outside
// any field follow the register access mode. Fields with an invalid bit
// range are ignored.
func ApplyWrite(reg *Register, cur, written *uint256.Int) uint256.Int {
	c := wide.Truncate(cur, reg.Width)
	w := wide.Truncate(written, reg.Width)

	// bits of the register claimed by no field
	var rest bitrange.Set
	rest.SetAll()
	if reg.Width < bitrange.NumBits {
		rest.ClearRange(uint(reg.Width), bitrange.NumBits)
	}

	out := uint256.Int{}
	for _, f := range reg.Fields {
		r, err := f.Range()
		if err != nil || r.Validate(reg.Width) != nil {
			continue
		}
		mask := r.Mask()
		bits := f.Access.Or(reg.Access).apply(&c, &w, &mask)
		out.Or(&out, &bits)
		rest.RemoveRange(r)
	}

	restMask := rest.Uint256()
	bits := reg.Access.apply(&c, &w, &restMask)
	out.Or(&out, &bits)

	if !out.Eq(&w) {
		log.ModBits.DebugZ("write side effects").
			String("reg", reg.Name).
			Wide("written", &w).
			Wide("result", &out).
			End()
	}
	return out
}

package memmap

import (
	"strings"

	"github.com/holiman/uint256"
)

// FormatAddress returns v as "0x" followed by uppercase hex digits, padded to
// at least 8 digits.
func FormatAddress(v *uint256.Int) string {
	h := strings.ToUpper(v.Hex()[2:])
	if len(h) < 8 {
		h = strings.Repeat("0", 8-len(h)) + h
	}
	return "0x" + h
}

var (
	kib = uint256.NewInt(1024)
	mib = uint256.NewInt(1024 * 1024)
)

// FormatSize returns a human readable byte count: "N bytes" below 1 KB,
// then "N.NN KB" below 1 MB, then "N.NN MB". Fractions are rounded half up
// on the exact value.
func FormatSize(v *uint256.Int) string {
	switch {
	case v.Lt(kib):
		return v.Dec() + " bytes"
	case v.Lt(mib):
		return scaled(v, kib) + " KB"
	}
	return scaled(v, mib) + " MB"
}

// scaled returns v/unit with two decimals.
func scaled(v, unit *uint256.Int) string {
	var q, r uint256.Int
	q.DivMod(v, unit, &r)

	// frac = round(r * 100 / unit); r < unit <= 2^20 so nothing overflows.
	var frac, half uint256.Int
	frac.Mul(&r, uint256.NewInt(100))
	half.Rsh(unit, 1)
	frac.Add(&frac, &half)
	frac.Div(&frac, unit)
	if frac.Uint64() >= 100 {
		q.Add(&q, uint256.NewInt(1))
		frac.Clear()
	}

	f := frac.Uint64()
	return q.Dec() + "." + string(rune('0'+f/10)) + string(rune('0'+f%10))
}

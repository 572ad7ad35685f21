package bitrange

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	NumBits  = 256                // widest register
	wordSize = 64                 // using 64-bit words
	numWords = NumBits / wordSize // 4 words, same layout as uint256.Int
)

// Set is a 256-bit set, bit 0 being the register LSB. Zero value is an empty
// set (all bits cleared).
type Set struct {
	words [numWords]uint64
}

// Set sets the bit at index i.
func (b *Set) Set(i uint) {
	b.words[i/wordSize] |= 1 << (i % wordSize)
}

// Test returns true if the bit at index i is set.
func (b *Set) Test(i uint) bool {
	return (b.words[i/wordSize] & (1 << (i % wordSize))) != 0
}

// SetRange sets all bits in the half-open interval [start, end).
// It panics if start >= end or end > NumBits.
func (b *Set) SetRange(start, end uint) {
	b.applyRange(start, end, func(w *uint64, mask uint64) { *w |= mask })
}

// ClearRange clears all bits in the half-open interval [start, end).
// It panics if start >= end or end > NumBits.
func (b *Set) ClearRange(start, end uint) {
	b.applyRange(start, end, func(w *uint64, mask uint64) { *w &^= mask })
}

func (b *Set) applyRange(start, end uint, op func(w *uint64, mask uint64)) {
	if start >= end || end > NumBits {
		panic(fmt.Sprintf("invalid range [%d, %d)", start, end))
	}
	startWord := start / wordSize
	endWord := (end - 1) / wordSize
	startBit := start % wordSize
	endBit := (end - 1) % wordSize

	if startWord == endWord {
		op(&b.words[startWord], lowMask(endBit-startBit+1)<<startBit)
		return
	}

	op(&b.words[startWord], ^uint64(0)<<startBit)
	for i := startWord + 1; i < endWord; i++ {
		op(&b.words[i], ^uint64(0))
	}
	op(&b.words[endWord], lowMask(endBit+1))
}

// lowMask returns a mask of the n low bits, n in [1, 64].
func lowMask(n uint) uint64 {
	if n == wordSize {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// AddRange sets the bits covered by r.
func (b *Set) AddRange(r Range) {
	b.SetRange(uint(r.Low), uint(r.High)+1)
}

// RemoveRange clears the bits covered by r.
func (b *Set) RemoveRange(r Range) {
	b.ClearRange(uint(r.Low), uint(r.High)+1)
}

// SetAll sets all bits in the Set.
func (b *Set) SetAll() {
	for i := range b.words {
		b.words[i] = ^uint64(0)
	}
}

// Uint256 returns the set as a register mask.
func (b *Set) Uint256() uint256.Int {
	return uint256.Int(b.words)
}

// Unassigned returns, from LSB to MSB, the maximal bit ranges of a register
// of the given width that none of ranges covers. Ranges reaching beyond width
// are clipped.
func Unassigned(width int, ranges []Range) []Range {
	if width <= 0 || width > NumBits {
		return nil
	}
	var used Set
	for _, r := range ranges {
		if r.Low >= width || r.Low < 0 || r.High < r.Low {
			continue
		}
		used.AddRange(Range{High: min(r.High, width-1), Low: r.Low})
	}

	var free []Range
	start := -1
	for i := 0; i <= width; i++ {
		isFree := i < width && !used.Test(uint(i))
		switch {
		case isFree && start < 0:
			start = i
		case !isFree && start >= 0:
			free = append(free, Range{High: i - 1, Low: start})
			start = -1
		}
	}
	return free
}

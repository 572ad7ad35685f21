// Package memmap computes the proportional 1-D layout of a device address
// space: one segment per peripheral and one per hole between peripherals.
//
// Sizes are turned into widths relative to the whole mapped span. Holes are
// compressed logarithmically so that a few large reserved ranges do not
// squash every peripheral, and small peripherals get a minimum width so that
// they stay visible. Positions and widths are finally expressed as
// percentages of the accumulated total width.
package memmap

import (
	"fmt"
	"math"
	"slices"

	"github.com/holiman/uint256"

	"bitsmith/device"
	"bitsmith/diag"
	"bitsmith/log"
	"bitsmith/wide"
)

// Options tune the layout.
type Options struct {
	// GapScale weighs the holes before logarithmic compression.
	GapScale float64 `toml:"gap_scale"`
	// MinPeripheralWidth is the floor of a peripheral width, in percent of
	// the nominal span.
	MinPeripheralWidth float64 `toml:"min_peripheral_width"`
}

func DefaultOptions() Options {
	return Options{GapScale: 0.1, MinPeripheralWidth: 5}
}

func invalidOption(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v < 0
}

// Validate reports the settings which are negative or not finite.
func (o Options) Validate() diag.List {
	var issues diag.List
	if invalidOption(o.GapScale) {
		issues.Add("gap_scale", diag.Rangef("gap scale %v is not a finite, non-negative number", o.GapScale))
	}
	if invalidOption(o.MinPeripheralWidth) {
		issues.Add("min_peripheral_width", diag.Rangef("minimum peripheral width %v is not a finite, non-negative number", o.MinPeripheralWidth))
	}
	return issues
}

// orDefault returns o with its invalid settings replaced by the default ones.
func (o Options) orDefault() Options {
	def := DefaultOptions()
	if invalidOption(o.GapScale) {
		o.GapScale = def.GapScale
	}
	if invalidOption(o.MinPeripheralWidth) {
		o.MinPeripheralWidth = def.MinPeripheralWidth
	}
	return o
}

// Region is an address range to lay out.
type Region struct {
	Name        string
	Description string
	Base        uint256.Int
	Size        uint256.Int
}

// RegionsOf returns the regions of the peripherals of d, in declaration
// order.
func RegionsOf(d *device.Device) []Region {
	regions := make([]Region, len(d.Peripherals))
	for i, p := range d.Peripherals {
		regions[i] = Region{
			Name:        p.Name,
			Description: p.Description,
			Base:        p.BaseAddress,
			Size:        p.Size,
		}
	}
	return regions
}

type SegmentKind uint8

//go:generate go tool stringer -type=SegmentKind -linecomment

const (
	PeripheralSegment SegmentKind = iota // peripheral
	GapSegment                           // gap
)

// Tooltip holds the formatted address information of a segment.
type Tooltip struct {
	BaseAddress string
	EndAddress  string
	Size        string
}

type Segment struct {
	Kind        SegmentKind
	Name        string // empty for gaps
	Description string
	Region      int // index in the input regions, -1 for gaps

	Base uint256.Int
	End  uint256.Int // Base + Size, saturated at 2^256-1
	Size uint256.Int

	// Absolute position and width, in layout units.
	Start float64
	Width float64

	// Position and width as a percentage of the total width.
	StartPct float64
	WidthPct float64

	Tooltip Tooltip
}

// Overlap records two consecutive regions (in address order) sharing
// addresses. The overlapping range gets no width.
type Overlap struct {
	First  string
	Second string
	Bytes  uint256.Int
}

type Layout struct {
	Segments   []Segment
	TotalWidth float64
	Overlaps   []Overlap

	// Precision warnings raised by values too large for exact float
	// arithmetic, and invalid options replaced by their default.
	Issues diag.List
}

type sorted struct {
	Region
	index int
	end   uint256.Int
}

// Compute lays out regions. It is a pure function of its input: the same
// regions and options always give the same layout.
//
// Regions are ordered by base address, regions sharing a base address keep
// their input order. Invalid options fall back to their default and are
// reported in Issues.
func Compute(regions []Region, opts Options) *Layout {
	lay := &Layout{}
	if issues := opts.Validate(); len(issues) > 0 {
		lay.Issues.Append("options", issues)
		opts = opts.orDefault()
		log.ModMMap.WarnZ("invalid layout options, using defaults").
			Float("gap_scale", opts.GapScale).
			Float("min_peripheral_width", opts.MinPeripheralWidth).
			End()
	}
	if len(regions) == 0 {
		return lay
	}

	rs := make([]sorted, len(regions))
	for i, r := range regions {
		rs[i] = sorted{Region: r, index: i}
		if _, overflow := rs[i].end.AddOverflow(&r.Base, &r.Size); overflow {
			rs[i].end.SetAllOne()
		}
	}
	slices.SortStableFunc(rs, func(a, b sorted) int { return a.Base.Cmp(&b.Base) })

	// Holes between consecutive regions. A region starting before the end of
	// the previous one overlaps it.
	gaps := make([]uint256.Int, len(rs))
	for i := 1; i < len(rs); i++ {
		prev, cur := &rs[i-1], &rs[i]
		if cur.Base.Lt(&prev.end) {
			var n uint256.Int
			n.Sub(&prev.end, &cur.Base)
			lay.Overlaps = append(lay.Overlaps, Overlap{First: prev.Name, Second: cur.Name, Bytes: n})
			log.ModMMap.WarnZ("overlapping regions").
				String("first", prev.Name).
				String("second", cur.Name).
				Wide("bytes", &n).
				End()
			continue
		}
		gaps[i].Sub(&cur.Base, &prev.end)
	}

	// Denominator: sizes and positive holes.
	var (
		denom    uint256.Int
		overflow bool
	)
	for i := range rs {
		var o1, o2 bool
		_, o1 = denom.AddOverflow(&denom, &rs[i].Size)
		_, o2 = denom.AddOverflow(&denom, &gaps[i])
		overflow = overflow || o1 || o2
	}
	var denomf float64
	if overflow {
		// The span exceeds 256 bits, sum the reduced magnitudes instead.
		for i := range rs {
			denomf += lay.float(&rs[i].Size, "size of "+rs[i].Name) + lay.float(&gaps[i], "gap before "+rs[i].Name)
		}
		lay.Issues = append(lay.Issues, diag.Precisionf("address span exceeds 256 bits, using %g", denomf))
	} else {
		denomf = lay.float(&denom, "address span")
	}

	var cursor float64
	for i := range rs {
		r := &rs[i]
		if !gaps[i].IsZero() {
			g := lay.float(&gaps[i], "gap before "+r.Name)
			var w float64
			if denomf > 0 {
				w = math.Log1p(g * opts.GapScale * 100 / denomf)
			}
			prev := &rs[i-1]
			lay.Segments = append(lay.Segments, Segment{
				Kind:   GapSegment,
				Region: -1,
				Base:   prev.end,
				End:    r.Base,
				Size:   gaps[i],
				Start:  cursor,
				Width:  w,
			})
			cursor += w
		}

		w := opts.MinPeripheralWidth
		if denomf > 0 {
			w = max(lay.float(&r.Size, "size of "+r.Name)/denomf*100, opts.MinPeripheralWidth)
		}
		lay.Segments = append(lay.Segments, Segment{
			Kind:        PeripheralSegment,
			Name:        r.Name,
			Description: r.Description,
			Region:      r.index,
			Base:        r.Base,
			End:         r.end,
			Size:        r.Size,
			Start:       cursor,
			Width:       w,
		})
		cursor += w
	}
	lay.TotalWidth = cursor

	for i := range lay.Segments {
		s := &lay.Segments[i]
		if lay.TotalWidth > 0 {
			s.StartPct = s.Start / lay.TotalWidth * 100
			s.WidthPct = s.Width / lay.TotalWidth * 100
		}
		s.Tooltip = Tooltip{
			BaseAddress: FormatAddress(&s.Base),
			EndAddress:  FormatAddress(&s.End),
			Size:        FormatSize(&s.Size),
		}
	}

	log.ModMMap.DebugZ("layout computed").
		Int("regions", len(regions)).
		Int("segments", len(lay.Segments)).
		Float("total", lay.TotalWidth).
		End()
	return lay
}

// float converts v for layout arithmetic, recording a precision warning when
// the value had to be reduced.
func (lay *Layout) float(v *uint256.Int, what string) float64 {
	f, exact := wide.Float(v)
	if !exact {
		iss := diag.Precisionf("%s %s reduced to %d significant bits (%g)", what, wide.Literal(v), wide.SafeBits, f)
		lay.Issues = append(lay.Issues, iss)
		log.ModMMap.WarnZ("precision reduced").
			String("what", what).
			Wide("value", v).
			Float("approx", f).
			End()
	}
	return f
}

// Peripheral returns the segment of the region with the given input index.
func (lay *Layout) Peripheral(region int) (Segment, bool) {
	i := slices.IndexFunc(lay.Segments, func(s Segment) bool {
		return s.Kind == PeripheralSegment && s.Region == region
	})
	if i < 0 {
		return Segment{}, false
	}
	return lay.Segments[i], true
}

func (s Segment) String() string {
	name := s.Name
	if s.Kind == GapSegment {
		name = "(gap)"
	}
	return fmt.Sprintf("%s %s-%s %s [%.2f%% +%.2f%%]",
		name, s.Tooltip.BaseAddress, s.Tooltip.EndAddress, s.Tooltip.Size, s.StartPct, s.WidthPct)
}

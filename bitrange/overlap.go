package bitrange

import "bitsmith/diag"

// Named is a field range with the identification used in reports.
type Named struct {
	Path  string // element path, e.g. "fields[2]"
	Name  string
	Range Range
}

// CheckOverlaps compares every pair of fields, in declaration order, and
// reports one OverlapError per intersecting pair. The issue is attached to
// the later field of the pair.
func CheckOverlaps(fields []Named) diag.List {
	var issues diag.List
	for j := 1; j < len(fields); j++ {
		for i := 0; i < j; i++ {
			common, ok := fields[i].Range.Intersect(fields[j].Range)
			if !ok {
				continue
			}
			iss := diag.Overlapf("field %q (bits %s) overlaps field %q (bits %s) at bits %s",
				fields[j].Name, fields[j].Range, fields[i].Name, fields[i].Range, common)
			issues = append(issues, iss.At(fields[j].Path))
		}
	}
	return issues
}

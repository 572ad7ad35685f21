package memmap

import (
	"github.com/go-faster/jx"

	"bitsmith/wide"
)

// Encode writes the layout as a JSON object.
func (lay *Layout) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.Field("totalWidth", func(e *jx.Encoder) { e.Float64(lay.TotalWidth) })
	e.Field("segments", func(e *jx.Encoder) {
		e.ArrStart()
		for i := range lay.Segments {
			lay.Segments[i].encode(e)
		}
		e.ArrEnd()
	})
	e.Field("overlaps", func(e *jx.Encoder) {
		e.ArrStart()
		for _, o := range lay.Overlaps {
			e.Obj(func(e *jx.Encoder) {
				e.Field("first", func(e *jx.Encoder) { e.Str(o.First) })
				e.Field("second", func(e *jx.Encoder) { e.Str(o.Second) })
				e.Field("bytes", func(e *jx.Encoder) { e.Str(wide.Literal(&o.Bytes)) })
			})
		}
		e.ArrEnd()
	})
	e.Field("issues", lay.Issues.Encode)
	e.ObjEnd()
}

func (s *Segment) encode(e *jx.Encoder) {
	e.ObjStart()
	e.Field("kind", func(e *jx.Encoder) { e.Str(s.Kind.String()) })
	if s.Kind == PeripheralSegment {
		e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
		e.Field("index", func(e *jx.Encoder) { e.Int(s.Region) })
		if s.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(s.Description) })
		}
	}
	e.Field("start", func(e *jx.Encoder) { e.Float64(s.StartPct) })
	e.Field("width", func(e *jx.Encoder) { e.Float64(s.WidthPct) })
	e.Field("tooltip", func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("baseAddress", func(e *jx.Encoder) { e.Str(s.Tooltip.BaseAddress) })
			e.Field("endAddress", func(e *jx.Encoder) { e.Str(s.Tooltip.EndAddress) })
			e.Field("size", func(e *jx.Encoder) { e.Str(s.Tooltip.Size) })
		})
	})
	e.ObjEnd()
}

// EncodeJSON returns the layout as indented JSON.
func (lay *Layout) EncodeJSON() []byte {
	var e jx.Encoder
	e.SetIdent(2)
	lay.Encode(&e)
	return e.Bytes()
}

package view

import (
	"github.com/go-faster/jx"

	"bitsmith/wide"
)

// EncodeRows writes rows as a JSON array.
func EncodeRows(e *jx.Encoder, rows []Row) {
	e.ArrStart()
	for i := range rows {
		r := &rows[i]
		e.Obj(func(e *jx.Encoder) {
			e.Field("peripheral", func(e *jx.Encoder) { e.Str(r.Peripheral) })
			e.Field("register", func(e *jx.Encoder) { e.Str(r.Register) })
			e.Field("name", func(e *jx.Encoder) { e.Str(r.Name) })
			e.Field("id", func(e *jx.Encoder) { e.Str(r.ID) })
			if r.Index >= 0 {
				e.Field("index", func(e *jx.Encoder) { e.Int(r.Index) })
			}
			e.Field("width", func(e *jx.Encoder) { e.Int(r.Width) })
			e.Field("access", func(e *jx.Encoder) { e.Str(r.Access.Short()) })
			e.Field("offset", func(e *jx.Encoder) { e.Str(r.Offset) })
			e.Field("address", func(e *jx.Encoder) { e.Str(r.Address) })
			e.Field("resetValue", func(e *jx.Encoder) { e.Str(r.Reset) })
			if r.Description != "" {
				e.Field("description", func(e *jx.Encoder) { e.Str(r.Description) })
			}
		})
	}
	e.ArrEnd()
}

func encodeRepr(e *jx.Encoder, r wide.Repr) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("hex", func(e *jx.Encoder) { e.Str(r.Hex) })
		e.Field("decimal", func(e *jx.Encoder) { e.Str(r.Decimal) })
		e.Field("binary", func(e *jx.Encoder) { e.Str(r.Binary) })
	})
}

// Encode writes the bit viewer state as a JSON object.
func (st *State) Encode(e *jx.Encoder) {
	e.ObjStart()
	if st.Register != "" {
		e.Field("register", func(e *jx.Encoder) { e.Str(st.Register) })
	}
	e.Field("width", func(e *jx.Encoder) { e.Int(st.Width) })
	e.Field("value", func(e *jx.Encoder) { encodeRepr(e, st.Value) })
	e.Field("fields", func(e *jx.Encoder) {
		e.ArrStart()
		for _, f := range st.Fields {
			e.Obj(func(e *jx.Encoder) {
				e.Field("name", func(e *jx.Encoder) { e.Str(f.Name) })
				e.Field("bits", func(e *jx.Encoder) { e.Str(f.Range.String()) })
				e.Field("access", func(e *jx.Encoder) { e.Str(f.Access.Short()) })
				e.Field("value", func(e *jx.Encoder) { encodeRepr(e, f.Value) })
				if f.Enum != "" {
					e.Field("enum", func(e *jx.Encoder) { e.Str(f.Enum) })
				}
			})
		}
		e.ArrEnd()
	})
	e.Field("unassigned", func(e *jx.Encoder) {
		e.ArrStart()
		for _, r := range st.Unassigned {
			e.Str(r.String())
		}
		e.ArrEnd()
	})
	e.ObjEnd()
}

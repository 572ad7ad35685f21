package diag

import "github.com/go-faster/jx"

// Encode writes the issues as a JSON array of {"kind","path","message"}.
func (l List) Encode(e *jx.Encoder) {
	e.ArrStart()
	for _, iss := range l {
		e.Obj(func(e *jx.Encoder) {
			e.Field("kind", func(e *jx.Encoder) { e.Str(iss.Kind.String()) })
			e.Field("path", func(e *jx.Encoder) { e.Str(iss.Path) })
			e.Field("message", func(e *jx.Encoder) { e.Str(iss.Msg) })
		})
	}
	e.ArrEnd()
}

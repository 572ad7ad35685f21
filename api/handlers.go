package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"bitsmith/device"
	"bitsmith/diag"
	"bitsmith/log"
	"bitsmith/memmap"
	"bitsmith/view"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		log.ModAPI.DebugZ("write response").Error("err", err).End()
	}
}

func writeIssues(w http.ResponseWriter, status int, issues diag.List) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("issues", issues.Encode)
		})
	})
}

// fail reports err with status 422 if it is or wraps diag issues, 400
// otherwise.
func fail(w http.ResponseWriter, err error) {
	var issues diag.List
	switch {
	case errors.As(err, &issues):
	case errors.As(err, new(*diag.Issue)):
		issues.Add("", err)
	default:
		writeIssues(w, http.StatusBadRequest, diag.List{diag.Parsef("%v", err)})
		return
	}
	writeIssues(w, http.StatusUnprocessableEntity, issues)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeIssues(w, status, diag.List{diag.Parsef("read request: %v", err)})
		return nil, false
	}
	if !jx.Valid(body) {
		writeIssues(w, http.StatusBadRequest, diag.List{diag.Parsef("request body is not valid JSON")})
		return nil, false
	}
	return body, true
}

// readDevice decodes the device in the request body. It writes the error
// response and returns nil on failure.
func readDevice(w http.ResponseWriter, r *http.Request) *device.Device {
	body, ok := readBody(w, r)
	if !ok {
		return nil
	}
	dev, err := device.DecodeJSON(body)
	if err != nil {
		fail(w, err)
		return nil
	}
	return dev
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
		})
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	dev := readDevice(w, r)
	if dev == nil {
		return
	}
	issues := device.Validate(dev)
	if issues.Blocking() {
		writeIssues(w, http.StatusUnprocessableEntity, issues)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("valid", func(e *jx.Encoder) { e.Bool(true) })
			e.Field("issues", issues.Encode)
		})
	})
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	dev := readDevice(w, r)
	if dev == nil {
		return
	}
	rows, issues := view.Rows(dev)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("rows", func(e *jx.Encoder) { view.EncodeRows(e, rows) })
			e.Field("issues", issues.Encode)
		})
	})
}

// layoutOptions reads the gap_scale and min_width query parameters over the
// server defaults.
func (s *Server) layoutOptions(r *http.Request) (memmap.Options, *diag.Issue) {
	opts := s.layout
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"gap_scale", &opts.GapScale},
		{"min_width", &opts.MinPeripheralWidth},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, diag.Parsef("invalid %s %q", p.name, v).At(p.name)
		}
		*p.dst = f
	}
	if issues := opts.Validate(); len(issues) > 0 {
		return opts, issues[0]
	}
	return opts, nil
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, iss := s.layoutOptions(r)
	if iss != nil {
		writeIssues(w, http.StatusBadRequest, diag.List{iss})
		return
	}
	dev := readDevice(w, r)
	if dev == nil {
		return
	}
	lay := memmap.Compute(memmap.RegionsOf(dev), opts)
	writeJSON(w, http.StatusOK, lay.Encode)
}

func (s *Server) handleBits(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := decodeBitsRequest(body)
	if err != nil {
		fail(w, err)
		return
	}
	st, warnings, inputErr, err := req.run()
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("state", st.Encode)
			if len(warnings) > 0 {
				e.Field("issues", warnings.Encode)
			}
			if inputErr != nil {
				e.Field("inputError", func(e *jx.Encoder) { e.Str(inputErr.Error()) })
			}
		})
	})
}

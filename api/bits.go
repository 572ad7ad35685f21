package api

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"bitsmith/device"
	"bitsmith/diag"
	"bitsmith/view"
	"bitsmith/wide"
)

// bitsRequest describes a register on its own, with the value to display.
//
//	{"width": 32, "value": "F0F0F0F0", "format": "hex", "access": "RW",
//	 "fields": [{"name": "LOW", "bits": "7:0"}], "toggle": [0, 3],
//	 "write": "0x1"}
type bitsRequest struct {
	reg    device.Register
	value  string
	format wide.Format
	toggle []int

	write    string
	hasWrite bool
}

func decodeBitsRequest(data []byte) (*bitsRequest, error) {
	req := &bitsRequest{reg: device.Register{Name: "register"}}
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "width":
			req.reg.Width, err = d.Int()
		case "value":
			req.value, err = d.Str()
		case "format":
			var s string
			if s, err = d.Str(); err == nil {
				if req.format, err = wide.ParseFormat(s); err != nil {
					err = diag.Parsef("%v", err).At("format")
				}
			}
		case "access":
			var s string
			if s, err = d.Str(); err == nil {
				req.reg.Access, err = device.ParseAccess(s)
			}
		case "fields":
			err = d.Arr(func(d *jx.Decoder) error {
				f, err := decodeBitsField(d)
				req.reg.Fields = append(req.reg.Fields, f)
				return err
			})
		case "toggle":
			err = d.Arr(func(d *jx.Decoder) error {
				bit, err := d.Int()
				req.toggle = append(req.toggle, bit)
				return err
			})
		case "write":
			req.hasWrite = true
			req.write, err = d.Str()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func decodeBitsField(d *jx.Decoder) (*device.Field, error) {
	f := &device.Field{}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			f.Name, err = d.Str()
		case "bits":
			f.Bits, err = d.Str()
		case "access":
			var s string
			if s, err = d.Str(); err == nil {
				f.Access, err = device.ParseAccess(s)
			}
		default:
			err = d.Skip()
		}
		return err
	})
	return f, err
}

// run computes the displayed state. warnings are register issues which don't
// prevent the display, such as overlapping fields. inputErr reports a value
// that could not be read and was replaced by zero; err is a request the
// register engine rejects.
func (req *bitsRequest) run() (st view.State, warnings diag.List, inputErr, err error) {
	warnings = device.ValidateRegister(&req.reg)
	if warnings.Fatal() {
		return st, nil, nil, warnings
	}
	bv, err := view.NewBitViewer(&req.reg)
	if err != nil {
		return st, nil, nil, err
	}

	inputErr = bv.Set(req.value, req.format)

	var issues diag.List
	for i, bit := range req.toggle {
		issues.Add(fmt.Sprintf("toggle[%d]", i), bv.Toggle(bit))
	}
	if len(issues) > 0 {
		return st, nil, inputErr, issues
	}

	if !req.hasWrite {
		return bv.State(), warnings, inputErr, nil
	}
	w, err := wide.Parse(req.write, req.format, req.reg.Width)
	if err != nil {
		issues.Add("write", err)
		return st, nil, inputErr, issues
	}
	return bv.Preview(&w), warnings, inputErr, nil
}

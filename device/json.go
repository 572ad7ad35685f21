package device

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/holiman/uint256"

	"bitsmith/wide"
)

// DecodeJSON checks data against the device schema, then decodes it. Schema
// violations are returned as a diag.List. Missing IDs are assigned.
func DecodeJSON(data []byte) (*Device, error) {
	if issues := CheckSchema(data); len(issues) > 0 {
		return nil, issues
	}

	dev := &Device{}
	if err := decodeDevice(jx.DecodeBytes(data), dev); err != nil {
		return nil, errors.Wrap(err, "decode device")
	}
	dev.AssignIDs()
	return dev, nil
}

func decodeDevice(d *jx.Decoder, dev *Device) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			dev.ID, err = decodeOptStr(d)
		case "name":
			dev.Name, err = d.Str()
		case "description":
			dev.Description, err = decodeOptStr(d)
		case "littleEndian":
			dev.LittleEndian, err = d.Bool()
		case "defaultClockFrequency":
			dev.DefaultClock, err = d.UInt64()
		case "version":
			dev.Version, err = d.Str()
		case "isPublic":
			dev.Public, err = d.Bool()
		case "ownerId":
			dev.OwnerID, err = decodeOptStr(d)
		case "originalDeviceId":
			dev.OriginalID, err = decodeOptStr(d)
		case "peripherals":
			err = d.Arr(func(d *jx.Decoder) error {
				p := &Peripheral{}
				if err := decodePeripheral(d, p); err != nil {
					return err
				}
				dev.Peripherals = append(dev.Peripherals, p)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
}

func decodePeripheral(d *jx.Decoder, p *Peripheral) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = decodeOptStr(d)
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = decodeOptStr(d)
		case "baseAddress":
			p.BaseAddress, err = decodeWide(d)
		case "size":
			p.Size, err = decodeWide(d)
		case "registers":
			err = d.Arr(func(d *jx.Decoder) error {
				r := &Register{}
				if err := decodeRegister(d, r); err != nil {
					return err
				}
				p.Registers = append(p.Registers, r)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
}

func decodeRegister(d *jx.Decoder, r *Register) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			r.ID, err = decodeOptStr(d)
		case "name":
			r.Name, err = d.Str()
		case "description":
			r.Description, err = decodeOptStr(d)
		case "width":
			r.Width, err = d.Int()
		case "addressOffset":
			r.AddressOffset, err = decodeWide(d)
		case "resetValue":
			r.ResetValue, err = decodeWide(d)
		case "resetMask":
			r.ResetMask, err = decodeWide(d)
		case "access":
			r.Access, err = decodeAccess(d)
		case "isArray":
			r.IsArray, err = d.Bool()
		case "arrayCount":
			r.ArrayCount, err = d.Int()
		case "arrayStride":
			if d.Next() == jx.Null {
				err = d.Null()
				break
			}
			var v uint256.Int
			v, err = decodeWide(d)
			r.ArrayStride = &v
		case "namePattern":
			r.NamePattern, err = decodeOptStr(d)
		case "fields":
			err = d.Arr(func(d *jx.Decoder) error {
				f := &Field{}
				if err := decodeField(d, f); err != nil {
					return err
				}
				r.Fields = append(r.Fields, f)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
}

func decodeField(d *jx.Decoder, f *Field) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			f.ID, err = decodeOptStr(d)
		case "name":
			f.Name, err = d.Str()
		case "description":
			f.Description, err = decodeOptStr(d)
		case "bits":
			f.Bits, err = d.Str()
		case "bitOffset":
			f.BitOffset, err = d.Int()
		case "bitWidth":
			f.BitWidth, err = d.Int()
		case "access":
			f.Access, err = decodeAccess(d)
		case "enumeratedValues":
			err = d.Arr(func(d *jx.Decoder) error {
				ev := &EnumeratedValue{}
				if err := decodeEnumeratedValue(d, ev); err != nil {
					return err
				}
				f.Values = append(f.Values, ev)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
}

func decodeEnumeratedValue(d *jx.Decoder, ev *EnumeratedValue) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			ev.Name, err = d.Str()
		case "description":
			ev.Description, err = decodeOptStr(d)
		case "value":
			ev.Value, err = decodeWide(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
}

func decodeOptStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func decodeAccess(d *jx.Decoder) (Access, error) {
	s, err := decodeOptStr(d)
	if err != nil {
		return AccessUnspecified, err
	}
	return ParseAccess(s)
}

// decodeWide reads an integer written either as a JSON string literal
// ("0x40000000", "0b1010", "#0101", "1024") or as a JSON number. Numbers are
// taken from their raw text, never through float64.
func decodeWide(d *jx.Decoder) (uint256.Int, error) {
	switch tt := d.Next(); tt {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return uint256.Int{}, err
		}
		return wide.ParseLiteral(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return uint256.Int{}, err
		}
		return wide.ParseLiteral(n.String())
	default:
		return uint256.Int{}, errors.Errorf("expected integer, got %s", tt)
	}
}

// EncodeJSON writes d in the format read by DecodeJSON. Wide values are
// written as hex string literals.
func EncodeJSON(dev *Device) []byte {
	var e jx.Encoder
	e.SetIdent(2)
	encodeDevice(&e, dev)
	return e.Bytes()
}

func encodeDevice(e *jx.Encoder, dev *Device) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(dev.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(dev.Name) })
		if dev.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(dev.Description) })
		}
		e.Field("littleEndian", func(e *jx.Encoder) { e.Bool(dev.LittleEndian) })
		if dev.DefaultClock != 0 {
			e.Field("defaultClockFrequency", func(e *jx.Encoder) { e.UInt64(dev.DefaultClock) })
		}
		if dev.Version != "" {
			e.Field("version", func(e *jx.Encoder) { e.Str(dev.Version) })
		}
		e.Field("isPublic", func(e *jx.Encoder) { e.Bool(dev.Public) })
		encodeOptStr(e, "ownerId", dev.OwnerID)
		encodeOptStr(e, "originalDeviceId", dev.OriginalID)
		e.Field("peripherals", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range dev.Peripherals {
					encodePeripheral(e, p)
				}
			})
		})
	})
}

func encodePeripheral(e *jx.Encoder, p *Peripheral) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		if p.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		}
		encodeWide(e, "baseAddress", &p.BaseAddress)
		encodeWide(e, "size", &p.Size)
		e.Field("registers", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, r := range p.Registers {
					encodeRegister(e, r)
				}
			})
		})
	})
}

func encodeRegister(e *jx.Encoder, r *Register) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(r.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(r.Name) })
		if r.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(r.Description) })
		}
		e.Field("width", func(e *jx.Encoder) { e.Int(r.Width) })
		encodeWide(e, "addressOffset", &r.AddressOffset)
		encodeWide(e, "resetValue", &r.ResetValue)
		encodeWide(e, "resetMask", &r.ResetMask)
		if r.Access != AccessUnspecified {
			e.Field("access", func(e *jx.Encoder) { e.Str(r.Access.String()) })
		}
		if r.IsArray {
			e.Field("isArray", func(e *jx.Encoder) { e.Bool(true) })
			e.Field("arrayCount", func(e *jx.Encoder) { e.Int(r.ArrayCount) })
			if r.ArrayStride != nil {
				encodeWide(e, "arrayStride", r.ArrayStride)
			}
			if r.NamePattern != "" {
				e.Field("namePattern", func(e *jx.Encoder) { e.Str(r.NamePattern) })
			}
		}
		e.Field("fields", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, f := range r.Fields {
					encodeField(e, f)
				}
			})
		})
	})
}

func encodeField(e *jx.Encoder, f *Field) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(f.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(f.Name) })
		if f.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(f.Description) })
		}
		if f.Bits != "" {
			e.Field("bits", func(e *jx.Encoder) { e.Str(f.Bits) })
		}
		if f.BitWidth != 0 {
			e.Field("bitOffset", func(e *jx.Encoder) { e.Int(f.BitOffset) })
			e.Field("bitWidth", func(e *jx.Encoder) { e.Int(f.BitWidth) })
		}
		if f.Access != AccessUnspecified {
			e.Field("access", func(e *jx.Encoder) { e.Str(f.Access.String()) })
		}
		if len(f.Values) == 0 {
			return
		}
		e.Field("enumeratedValues", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ev := range f.Values {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(ev.Name) })
						if ev.Description != "" {
							e.Field("description", func(e *jx.Encoder) { e.Str(ev.Description) })
						}
						encodeWide(e, "value", &ev.Value)
					})
				}
			})
		})
	})
}

func encodeWide(e *jx.Encoder, name string, v *uint256.Int) {
	e.Field(name, func(e *jx.Encoder) { e.Str(wide.Literal(v)) })
}

func encodeOptStr(e *jx.Encoder, name, s string) {
	e.Field(name, func(e *jx.Encoder) {
		if s == "" {
			e.Null()
			return
		}
		e.Str(s)
	})
}

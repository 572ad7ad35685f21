package log

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"gopkg.in/Sirupsen/logrus.v0"
)

const maxZFields = 16

// EntryZ is a structured log entry built field by field and emitted by End.
// A nil *EntryZ is valid and discards everything, which is what disabled
// modules return.
type EntryZ struct {
	lvl   Level
	msg   string
	mod   Module
	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{New: func() any { return new(EntryZ) }}

func NewEntryZ() *EntryZ {
	e := entryPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (z *EntryZ) add(f ZField) *EntryZ {
	if z == nil {
		return nil
	}
	if z.zfidx < len(z.zfbuf) {
		z.zfbuf[z.zfidx] = f
		z.zfidx++
	}
	return z
}

func (z *EntryZ) String(key, val string) *EntryZ {
	return z.add(ZField{Type: FieldTypeString, Key: key, String: val})
}

func (z *EntryZ) Bool(key string, val bool) *EntryZ {
	return z.add(ZField{Type: FieldTypeBool, Key: key, Boolean: val})
}

func (z *EntryZ) Int(key string, val int) *EntryZ {
	return z.add(ZField{Type: FieldTypeInt, Key: key, Integer: uint64(val)})
}

func (z *EntryZ) Uint(key string, val uint64) *EntryZ {
	return z.add(ZField{Type: FieldTypeUint, Key: key, Integer: val})
}

func (z *EntryZ) Hex(key string, val uint64) *EntryZ {
	return z.add(ZField{Type: FieldTypeHex, Key: key, Integer: val})
}

func (z *EntryZ) Wide(key string, val *uint256.Int) *EntryZ {
	return z.add(ZField{Type: FieldTypeWide, Key: key, Wide: *val})
}

func (z *EntryZ) Float(key string, val float64) *EntryZ {
	return z.add(ZField{Type: FieldTypeFloat, Key: key, Float: val})
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	return z.add(ZField{Type: FieldTypeError, Key: key, Error: err})
}

func (z *EntryZ) Stringer(key string, val fmt.Stringer) *EntryZ {
	return z.add(ZField{Type: FieldTypeStringer, Key: key, Interface: val})
}

// End emits the entry and releases it. The entry must not be used after.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = z.mod.String()
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	entry := logrus.StandardLogger().WithFields(fields)

	switch z.lvl {
	case DebugLevel:
		entry.Debug(z.msg)
	case InfoLevel:
		entry.Info(z.msg)
	case WarnLevel:
		entry.Warn(z.msg)
	case ErrorLevel:
		entry.Error(z.msg)
	case FatalLevel:
		entry.Fatal(z.msg)
	default:
		entry.Panic(z.msg)
	}

	*z = EntryZ{}
	entryPool.Put(z)
}

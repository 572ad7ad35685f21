package log

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

type FieldType int

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeHex
	FieldTypeWide
	FieldTypeInt
	FieldTypeUint
	FieldTypeFloat
	FieldTypeError
	FieldTypeStringer
)

type ZField struct {
	Type FieldType
	Key  string

	// Possible values. Only one of these is populated, depending on Type
	String    string
	Integer   uint64
	Float     float64
	Wide      uint256.Int
	Error     error
	Interface any
	Boolean   bool
}

func (f *ZField) Value() string {
	switch f.Type {
	case FieldTypeBool:
		return strconv.FormatBool(f.Boolean)
	case FieldTypeString:
		return f.String
	case FieldTypeUint:
		return strconv.FormatUint(f.Integer, 10)
	case FieldTypeInt:
		return strconv.FormatInt(int64(f.Integer), 10)
	case FieldTypeHex:
		return fmt.Sprintf("0x%X", f.Integer)
	case FieldTypeWide:
		return "0x" + strings.ToUpper(f.Wide.Hex()[2:])
	case FieldTypeFloat:
		return strconv.FormatFloat(f.Float, 'g', -1, 64)
	case FieldTypeError:
		if f.Error == nil {
			return "<nil>"
		}
		return f.Error.Error()
	case FieldTypeStringer:
		return f.Interface.(fmt.Stringer).String()
	}
	return ""
}

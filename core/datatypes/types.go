// Package datatypes implements the tagged binary codec for the sixteen
// scalar and variable-length value types stored in slabdb pages.
package datatypes

import (
	"fmt"
	"math"
	"strings"
)

// DataType is the one-byte tag written in front of every encoded value.
type DataType uint8

const (
	TypeByte DataType = iota + 1
	TypeShort
	TypeInt
	TypeLong
	TypeUByte
	TypeUShort
	TypeUInt
	TypeULong
	TypeShortText
	TypeText
	TypeLongText
	TypeShortBinary
	TypeBinary
	TypeLongBinary
	TypeDateTime
	TypeUUID
)

var typeNames = [...]string{
	TypeByte:        "Byte",
	TypeShort:       "Short",
	TypeInt:         "Int",
	TypeLong:        "Long",
	TypeUByte:       "UByte",
	TypeUShort:      "UShort",
	TypeUInt:        "UInt",
	TypeULong:       "ULong",
	TypeShortText:   "ShortText",
	TypeText:        "Text",
	TypeLongText:    "LongText",
	TypeShortBinary: "ShortBinary",
	TypeBinary:      "Binary",
	TypeLongBinary:  "LongBinary",
	TypeDateTime:    "DateTime",
	TypeUUID:        "Uuid",
}

// TypeFromCode resolves a tag byte. Codes 0 and anything above 16 are rejected.
func TypeFromCode(code uint8) (DataType, error) {
	t := DataType(code)
	if !t.valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownTypeCode, code)
	}
	return t, nil
}

// ParseType resolves a type by its name, ignoring case.
func ParseType(name string) (DataType, error) {
	for code := TypeByte; code <= TypeUUID; code++ {
		if strings.EqualFold(typeNames[code], name) {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTypeCode, name)
}

func (t DataType) valid() bool { return t >= TypeByte && t <= TypeUUID }

// Code returns the tag byte for t.
func (t DataType) Code() uint8 { return uint8(t) }

func (t DataType) String() string {
	if !t.valid() {
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
	return typeNames[t]
}

// Length reports the payload length expected for t.
//
// For variable-width types this is the class maximum (255, 65535 or
// 4294967295), not the length of any particular stored value. The plain
// codec writes no length prefix, so a caller slicing a page with this value
// will over-read unless it tracks the real length itself. The framed
// encoding carries the length and does not need this.
func (t DataType) Length() uint64 {
	switch t {
	case TypeByte, TypeUByte:
		return 1
	case TypeShort, TypeUShort:
		return 2
	case TypeInt, TypeUInt:
		return 4
	case TypeLong, TypeULong, TypeDateTime:
		return 8
	case TypeUUID:
		return 16
	case TypeShortText, TypeShortBinary:
		return math.MaxUint8
	case TypeText, TypeBinary:
		return math.MaxUint16
	case TypeLongText, TypeLongBinary:
		return math.MaxUint32
	default:
		return 0
	}
}

// IsFixedWidth reports whether every payload of t has the same length.
func (t DataType) IsFixedWidth() bool {
	return t.valid() && prefixWidth(t) == 0
}

// IsText reports whether t carries UTF-8 text.
func (t DataType) IsText() bool {
	return t == TypeShortText || t == TypeText || t == TypeLongText
}

// prefixWidth is the size of the length prefix used by the framed encoding.
func prefixWidth(t DataType) int {
	switch t {
	case TypeShortText, TypeShortBinary:
		return 1
	case TypeText, TypeBinary:
		return 2
	case TypeLongText, TypeLongBinary:
		return 4
	default:
		return 0
	}
}

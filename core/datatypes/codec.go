package datatypes

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Encode serializes v as its tag byte followed by the payload. Numeric and
// temporal payloads are big-endian; text is raw UTF-8 and binary is copied
// as is. No length is written for variable-width values and no class limit
// is enforced; see Validate and EncodeFramed for that.
func Encode(v Value) []byte {
	buf := make([]byte, 0, 1+payloadLen(v))
	buf = append(buf, v.Type().Code())
	return appendPayload(buf, v)
}

func appendPayload(dst []byte, v Value) []byte {
	switch x := v.(type) {
	case Byte:
		return append(dst, byte(x))
	case Short:
		return binary.BigEndian.AppendUint16(dst, uint16(x))
	case Int:
		return binary.BigEndian.AppendUint32(dst, uint32(x))
	case Long:
		return binary.BigEndian.AppendUint64(dst, uint64(x))
	case UByte:
		return append(dst, byte(x))
	case UShort:
		return binary.BigEndian.AppendUint16(dst, uint16(x))
	case UInt:
		return binary.BigEndian.AppendUint32(dst, uint32(x))
	case ULong:
		return binary.BigEndian.AppendUint64(dst, uint64(x))
	case ShortText:
		return append(dst, x...)
	case Text:
		return append(dst, x...)
	case LongText:
		return append(dst, x...)
	case ShortBinary:
		return append(dst, x...)
	case Binary:
		return append(dst, x...)
	case LongBinary:
		return append(dst, x...)
	case DateTime:
		return binary.BigEndian.AppendUint64(dst, uint64(x))
	case UUID:
		return append(dst, x[:]...)
	default:
		return dst
	}
}

func payloadLen(v Value) int {
	switch x := v.(type) {
	case ShortText:
		return len(x)
	case Text:
		return len(x)
	case LongText:
		return len(x)
	case ShortBinary:
		return len(x)
	case Binary:
		return len(x)
	case LongBinary:
		return len(x)
	default:
		return int(v.Type().Length())
	}
}

// Validate checks that a variable-width value fits the maximum of its
// length class. Fixed-width values always pass.
func Validate(v Value) error {
	t := v.Type()
	if t.IsFixedWidth() {
		return nil
	}
	if n := uint64(payloadLen(v)); n > t.Length() {
		return fmt.Errorf("%w: %s holds at most %d bytes, got %d", ErrValueTooLarge, t, t.Length(), n)
	}
	return nil
}

// Decode rebuilds a value of type t from its payload. raw must not include
// the tag byte. Fixed-width types (UUID included) require an exact length.
// The returned value never aliases raw.
func Decode(raw []byte, t DataType) (Value, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTypeCode, uint8(t))
	}
	if t.IsFixedWidth() && uint64(len(raw)) != t.Length() {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrLengthMismatch, t, t.Length(), len(raw))
	}

	switch t {
	case TypeByte:
		return Byte(int8(raw[0])), nil
	case TypeShort:
		return Short(int16(binary.BigEndian.Uint16(raw))), nil
	case TypeInt:
		return Int(int32(binary.BigEndian.Uint32(raw))), nil
	case TypeLong:
		return Long(int64(binary.BigEndian.Uint64(raw))), nil
	case TypeUByte:
		return UByte(raw[0]), nil
	case TypeUShort:
		return UShort(binary.BigEndian.Uint16(raw)), nil
	case TypeUInt:
		return UInt(binary.BigEndian.Uint32(raw)), nil
	case TypeULong:
		return ULong(binary.BigEndian.Uint64(raw)), nil
	case TypeShortText, TypeText, TypeLongText:
		return decodeText(raw, t)
	case TypeShortBinary:
		return ShortBinary(cloneBytes(raw)), nil
	case TypeBinary:
		return Binary(cloneBytes(raw)), nil
	case TypeLongBinary:
		return LongBinary(cloneBytes(raw)), nil
	case TypeDateTime:
		return DateTime(int64(binary.BigEndian.Uint64(raw))), nil
	default: // TypeUUID
		u, err := uuid.FromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLengthMismatch, err)
		}
		return UUID(u), nil
	}
}

func decodeText(raw []byte, t DataType) (Value, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: %s payload of %d bytes", ErrUtf8Decode, t, len(raw))
	}
	s := string(raw)
	switch t {
	case TypeShortText:
		return ShortText(s), nil
	case TypeText:
		return Text(s), nil
	default:
		return LongText(s), nil
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

package datatypes

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Format renders v for humans, e.g. `ShortText: "Hello"` or `Binary: 0x0a0b`.
func Format(v Value) string {
	var s string
	switch x := v.(type) {
	case ShortText:
		s = strconv.Quote(string(x))
	case Text:
		s = strconv.Quote(string(x))
	case LongText:
		s = strconv.Quote(string(x))
	case ShortBinary:
		s = "0x" + hex.EncodeToString(x)
	case Binary:
		s = "0x" + hex.EncodeToString(x)
	case LongBinary:
		s = "0x" + hex.EncodeToString(x)
	case DateTime:
		s = x.Time().Format(time.RFC3339Nano)
	case UUID:
		s = x.String()
	default:
		s = fmt.Sprintf("%d", x)
	}
	return v.Type().String() + ": " + s
}

// Parse builds a value of type t from its textual form. Integers are base
// 10, binary is hex (an optional 0x prefix is allowed), DateTime accepts
// RFC 3339 or integer nanoseconds since the epoch.
func Parse(t DataType, s string) (Value, error) {
	v, err := parse(t, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrInvalidLiteral, t, s, err)
	}
	if err := Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

func parse(t DataType, s string) (Value, error) {
	switch t {
	case TypeByte:
		n, err := strconv.ParseInt(s, 10, 8)
		return Byte(n), err
	case TypeShort:
		n, err := strconv.ParseInt(s, 10, 16)
		return Short(n), err
	case TypeInt:
		n, err := strconv.ParseInt(s, 10, 32)
		return Int(n), err
	case TypeLong:
		n, err := strconv.ParseInt(s, 10, 64)
		return Long(n), err
	case TypeUByte:
		n, err := strconv.ParseUint(s, 10, 8)
		return UByte(n), err
	case TypeUShort:
		n, err := strconv.ParseUint(s, 10, 16)
		return UShort(n), err
	case TypeUInt:
		n, err := strconv.ParseUint(s, 10, 32)
		return UInt(n), err
	case TypeULong:
		n, err := strconv.ParseUint(s, 10, 64)
		return ULong(n), err
	case TypeShortText:
		return ShortText(s), nil
	case TypeText:
		return Text(s), nil
	case TypeLongText:
		return LongText(s), nil
	case TypeShortBinary:
		b, err := parseHex(s)
		return ShortBinary(b), err
	case TypeBinary:
		b, err := parseHex(s)
		return Binary(b), err
	case TypeLongBinary:
		b, err := parseHex(s)
		return LongBinary(b), err
	case TypeDateTime:
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return DateTimeOf(ts), nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		return DateTime(n), err
	case TypeUUID:
		u, err := uuid.Parse(s)
		return UUID(u), err
	default:
		return nil, fmt.Errorf("unknown type code %d", uint8(t))
	}
}

func parseHex(s string) ([]byte, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return hex.DecodeString(s)
}

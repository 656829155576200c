package datatypes

import (
	"encoding/binary"
	"fmt"
)

// Framed layout:
//
//	fixed-width:    [tag][payload]
//	variable-width: [tag][len][payload]
//
// len is big-endian and 1, 2 or 4 bytes wide for the short, normal and long
// class respectively, so a reader always knows where the next value starts.

// FramedSize returns the number of bytes EncodeFramed produces for v.
func FramedSize(v Value) int {
	return 1 + prefixWidth(v.Type()) + payloadLen(v)
}

// EncodeFramed serializes v with a length prefix for variable-width types.
func EncodeFramed(v Value) ([]byte, error) {
	if err := Validate(v); err != nil {
		return nil, err
	}
	t := v.Type()
	buf := make([]byte, 0, FramedSize(v))
	buf = append(buf, t.Code())

	n := payloadLen(v)
	switch prefixWidth(t) {
	case 1:
		buf = append(buf, uint8(n))
	case 2:
		buf = binary.BigEndian.AppendUint16(buf, uint16(n))
	case 4:
		buf = binary.BigEndian.AppendUint32(buf, uint32(n))
	}
	return appendPayload(buf, v), nil
}

// DecodeFramed reads one framed value from the start of raw and reports how
// many bytes it occupied. Trailing bytes are ignored.
func DecodeFramed(raw []byte) (Value, int, error) {
	if len(raw) == 0 {
		return nil, 0, fmt.Errorf("%w: missing tag", ErrTruncated)
	}
	t, err := TypeFromCode(raw[0])
	if err != nil {
		return nil, 0, err
	}

	pos := 1
	var n uint64
	switch pw := prefixWidth(t); pw {
	case 0:
		n = t.Length()
	default:
		if len(raw) < pos+pw {
			return nil, 0, fmt.Errorf("%w: %s length prefix needs %d bytes, have %d", ErrTruncated, t, pw, len(raw)-pos)
		}
		switch pw {
		case 1:
			n = uint64(raw[pos])
		case 2:
			n = uint64(binary.BigEndian.Uint16(raw[pos:]))
		case 4:
			n = uint64(binary.BigEndian.Uint32(raw[pos:]))
		}
		pos += pw
	}

	if uint64(len(raw)-pos) < n {
		return nil, 0, fmt.Errorf("%w: %s payload needs %d bytes, have %d", ErrTruncated, t, n, len(raw)-pos)
	}
	end := pos + int(n)
	v, err := Decode(raw[pos:end], t)
	if err != nil {
		return nil, 0, err
	}
	return v, end, nil
}

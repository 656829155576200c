// Package valuelog stores typed values back to back in a page's payload
// region using the framed encoding, so they can be read again without any
// length bookkeeping outside the page.
package valuelog

import (
	"errors"
	"fmt"

	"github.com/sushant-115/slabdb/core/datatypes"
	pagemanager "github.com/sushant-115/slabdb/core/write_engine/page_manager"
)

var ErrInvalidOffset = errors.New("offset does not address a stored value")

// Append frames v and writes it at the page tip, returning the offset of its
// tag byte. A value that does not fit leaves the page untouched and returns
// an error wrapping pagemanager.ErrOutOfSpace.
func Append(p *pagemanager.Page, v datatypes.Value) (uint16, error) {
	framed, err := datatypes.EncodeFramed(v)
	if err != nil {
		return 0, err
	}
	offset := p.Tip()
	if err := p.AppendWrite(framed); err != nil {
		return 0, err
	}
	return offset, nil
}

// ReadAt decodes the framed value whose tag is at offset and reports how
// many bytes it occupies.
func ReadAt(p *pagemanager.Page, offset uint16) (datatypes.Value, int, error) {
	tip := p.Tip()
	if offset < pagemanager.HeaderSize || offset >= tip {
		return nil, 0, fmt.Errorf("%w: %d (payload region is [%d, %d))", ErrInvalidOffset, offset, pagemanager.HeaderSize, tip)
	}
	raw, err := p.ReadSpanChecked(int(offset), int(tip-offset))
	if err != nil {
		return nil, 0, err
	}
	return datatypes.DecodeFramed(raw)
}

// Scan calls fn for every value between HeaderSize and the tip, in the
// order they were appended. It stops at the first error from fn or from
// decoding.
func Scan(p *pagemanager.Page, fn func(offset uint16, v datatypes.Value) error) error {
	tip := p.Tip()
	for offset := uint16(pagemanager.HeaderSize); offset < tip; {
		v, n, err := ReadAt(p, offset)
		if err != nil {
			return fmt.Errorf("scan at offset %d: %w", offset, err)
		}
		if err := fn(offset, v); err != nil {
			return err
		}
		offset += uint16(n)
	}
	return nil
}

// ReadRaw reads a value written with the plain, unframed encoding: the tag
// at offset followed by the payload. Fixed-width types know their length;
// for variable-width types the caller passes the payload length it
// recorded when the value was written. A payload running past the page
// fails with pagemanager.ErrOutOfRange.
func ReadRaw(p *pagemanager.Page, offset uint16, length int) (datatypes.Value, error) {
	t, err := datatypes.TypeFromCode(p.ReadByteAt(int(offset)))
	if err != nil {
		return nil, err
	}
	if t.IsFixedWidth() {
		length = int(t.Length())
	}
	payload, err := p.ReadSpanChecked(int(offset)+1, length)
	if err != nil {
		return nil, err
	}
	return datatypes.Decode(payload, t)
}

package pagemanager

import (
	"encoding/binary"
	"fmt"
	"math"
)

// --- Page Layout ---
//
//	[0,4)      reserved
//	[4,6)      tip, uint16 big-endian: offset of the first unwritten byte
//	[6,256)    reserved header allowance
//	[256,4096) payload region, appended in order
const (
	PageSize   = 4096
	TipOffset  = 4
	TipSize    = 2
	HeaderSize = 256 // tip of a freshly created page
)

// Page is an in-memory copy of one fixed-size on-disk page. Space is handed
// out by advancing the tip; nothing below the tip is ever reused.
//
// A Page is not safe for concurrent use. PageManager provides the
// single-writer boundary when one is needed.
type Page struct {
	data    [PageSize]byte
	isDirty bool
}

// NewPage returns an empty page with its tip at HeaderSize.
func NewPage() *Page {
	p := &Page{}
	p.setTip(HeaderSize)
	p.isDirty = true
	return p
}

// Tip returns the persisted write cursor.
func (p *Page) Tip() uint16 {
	return binary.BigEndian.Uint16(p.data[TipOffset : TipOffset+TipSize])
}

func (p *Page) setTip(tip uint16) {
	binary.BigEndian.PutUint16(p.data[TipOffset:TipOffset+TipSize], tip)
}

// AppendWrite copies b to the tip and advances it. A write that would run
// past the end of the page fails with ErrOutOfSpace and leaves the page
// untouched. A tip below HeaderSize fails with ErrCorruptedTip.
func (p *Page) AppendWrite(b []byte) error {
	currentTip := int(p.Tip())
	if currentTip < HeaderSize {
		return fmt.Errorf("%w: tip %d, payload starts at %d", ErrCorruptedTip, currentTip, HeaderSize)
	}
	newTip := currentTip + len(b)

	if newTip > PageSize {
		return fmt.Errorf("%w: need %d bytes, %d free", ErrOutOfSpace, len(b), p.FreeSpace())
	}
	if newTip > math.MaxUint16 {
		return fmt.Errorf("%w: %d", ErrTipOverflow, newTip)
	}

	copy(p.data[currentTip:newTip], b)
	p.setTip(uint16(newTip))
	p.isDirty = true
	return nil
}

// ReadByteAt returns the byte at offset, or 0 when offset is outside the page.
// Out-of-range reads are treated as reads of the unallocated tail; use
// InBounds to tell the two apart.
func (p *Page) ReadByteAt(offset int) byte {
	if offset >= 0 && offset < PageSize {
		return p.data[offset]
	}
	return 0
}

// ReadSpan returns a copy of [offset, offset+length) when offset+length is
// strictly below PageSize, and an empty slice otherwise. The strict bound
// means a span can never include the final byte of the page; ReadSpanChecked
// has no such gap.
func (p *Page) ReadSpan(offset, length int) []byte {
	if offset >= 0 && length >= 0 && offset+length < PageSize {
		out := make([]byte, length)
		copy(out, p.data[offset:offset+length])
		return out
	}
	return []byte{}
}

// ReadSpanChecked returns a copy of [offset, offset+length) or ErrOutOfRange.
func (p *Page) ReadSpanChecked(offset, length int) ([]byte, error) {
	if !InBounds(offset, length) {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfRange, offset, offset+length, PageSize)
	}
	out := make([]byte, length)
	copy(out, p.data[offset:offset+length])
	return out, nil
}

// InBounds reports whether [offset, offset+length) lies inside a page.
func InBounds(offset, length int) bool {
	return offset >= 0 && length >= 0 && offset <= PageSize-length
}

// FreeSpace returns PageSize minus the tip. A corrupted tip beyond the page
// reports no free space.
func (p *Page) FreeSpace() uint16 {
	tip := p.Tip()
	if tip >= PageSize {
		return 0
	}
	return PageSize - tip
}

// Bytes returns a copy of the whole page.
func (p *Page) Bytes() []byte {
	out := make([]byte, PageSize)
	copy(out, p.data[:])
	return out
}

func (p *Page) IsDirty() bool       { return p.isDirty }
func (p *Page) SetDirty(dirty bool) { p.isDirty = dirty }

// Package page provides fixed-size byte-level primitives shared by the
// Node and DataPage codecs: a Page wraps one PAGE_SIZE-aligned slice of the
// tree file and knows how to read/write big-endian offsets and fixed-width,
// zero-padded byte strings at a given position. It has no notion of what a
// node or a data page actually holds.
package page

import "encoding/binary"

// Size is the standard on-disk page size, the same value as
// pager.DefaultPageSize. 4096 matches common OS page sizes.
const Size = 4096

// PtrSize is the width, in bytes, of every offset and index stored in a
// page: parent pointers, child pointers, data-page offsets and value
// indices all occupy PtrSize bytes, big-endian.
const PtrSize = 8

// Page is a thin view over one page's raw bytes.
type Page struct {
	data []byte
}

// New wraps an existing byte slice as a Page. The slice must be exactly
// sized for the page; New does not copy it.
func New(data []byte) *Page {
	return &Page{data: data}
}

// Bytes returns the page's raw backing slice.
func (p *Page) Bytes() []byte {
	return p.data
}

// Len returns the page size in bytes.
func (p *Page) Len() int {
	return len(p.data)
}

// Byte reads a single byte at offset.
func (p *Page) Byte(offset int) byte {
	return p.data[offset]
}

// SetByte writes a single byte at offset.
func (p *Page) SetByte(offset int, b byte) {
	p.data[offset] = b
}

// GetOffset reads a PtrSize-wide big-endian unsigned integer at offset.
// Used for file offsets, child pointers, data-page offsets and value
// indices alike — they all share the same width and encoding.
func (p *Page) GetOffset(offset int) uint64 {
	return binary.BigEndian.Uint64(p.data[offset : offset+PtrSize])
}

// PutOffset writes v as a PtrSize-wide big-endian unsigned integer at
// offset.
func (p *Page) PutOffset(offset int, v uint64) {
	binary.BigEndian.PutUint64(p.data[offset:offset+PtrSize], v)
}

// GetFixed reads a width-byte field at offset and trims trailing zero
// padding, returning the meaningful prefix. Keys are stored this way so
// that a short key does not need to carry its own length.
func (p *Page) GetFixed(offset, width int) []byte {
	raw := p.data[offset : offset+width]
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	out := make([]byte, end)
	copy(out, raw[:end])
	return out
}

// PutFixed writes value into a width-byte field at offset, zero-padding
// any remaining bytes. It returns ErrValueTooLarge if value does not fit.
func (p *Page) PutFixed(offset, width int, value []byte) error {
	if len(value) > width {
		return ErrValueTooLarge
	}
	field := p.data[offset : offset+width]
	n := copy(field, value)
	for i := n; i < width; i++ {
		field[i] = 0
	}
	return nil
}

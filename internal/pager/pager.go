// internal/pager/pager.go
//
// Package pager implements the tree file's page-level I/O: reading a page
// at an offset, appending a new page at the write cursor, and overwriting a
// page already on disk in place. It is the only package that touches the
// tree file directly; Node and DataPage never see anything but Page-sized
// byte slices.
//
// Pages are served out of a memory-mapped file, grown geometrically as the
// append cursor advances past the current mapping, mirroring the teacher's
// own mmap-backed page store. The mapping itself lives directly on Pager —
// there is no separate generic mmap-file type to go through, since nothing
// outside this package ever needs an unmapped view of the bytes.
package pager

import (
	"errors"
	"os"
)

// DefaultPageSize is used when Options.PageSize is left at zero.
const DefaultPageSize = 4096

// initialMmapPages sizes the very first mapping so that Open never has to
// mmap a zero-length file (which mmap forbids on every platform).
const initialMmapPages = 16

var (
	// ErrOffsetOutOfRange is returned by GetPage/WritePageAtOffset when the
	// requested offset does not fall within the pages written so far.
	ErrOffsetOutOfRange = errors.New("pager: offset out of range")
	// ErrPageSizeMismatch is returned when a caller hands WritePage or
	// WritePageAtOffset a slice that isn't exactly one page wide.
	ErrPageSizeMismatch = errors.New("pager: page data is not page-sized")
)

// Options configures a Pager.
type Options struct {
	// PageSize is the fixed size, in bytes, of every page. Defaults to
	// DefaultPageSize.
	PageSize int
}

// Pager manages byte-level access to the tree file: offset-addressed reads,
// cursor-appended writes, and in-place overwrites. It keeps no page cache —
// every Get returns a fresh copy, since a growing mapping's backing slice is
// invalidated on every remap.
//
// mapped, mappedSize and platform are the memory-mapped view of file; the
// split between them and pageSize/cursor is the same split the teacher's
// own pager draws between "the mapping" and "the page store built on it" —
// here it is just one struct instead of two, since this pager has no other
// client for the mapping.
type Pager struct {
	file       *os.File
	mapped     []byte
	mappedSize int64
	platform   platformState

	pageSize int
	cursor   int64 // offset one past the last page written
}

// Open creates (truncating any existing contents) the tree file at path,
// maps it, and returns a Pager with its write cursor at 0, per spec.
func Open(path string, opts Options) (*Pager, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	// The file starts empty from the caller's point of view (cursor == 0)
	// but the mapping is pre-sized so mapFile never sees a zero-length
	// file; everything past the cursor is unreferenced until appended to.
	initialSize := int64(initialMmapPages) * int64(pageSize)
	if err := f.Truncate(initialSize); err != nil {
		f.Close()
		return nil, err
	}

	data, platform, err := mapFile(f, initialSize)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Pager{
		file:       f,
		mapped:     data,
		mappedSize: initialSize,
		platform:   platform,
		pageSize:   pageSize,
		cursor:     0,
	}, nil
}

// PageSize returns the fixed page size this Pager was opened with.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// Cursor returns the offset at which the next appended page will land.
func (p *Pager) Cursor() int64 {
	return p.cursor
}

// GetPage reads the page at offset and returns a copy of its bytes. The
// offset must be page-aligned and fall within [0, cursor).
func (p *Pager) GetPage(offset int64) ([]byte, error) {
	if offset < 0 || offset+int64(p.pageSize) > p.cursor {
		return nil, ErrOffsetOutOfRange
	}
	src := p.pageSlice(int(offset), p.pageSize)
	if src == nil {
		return nil, ErrOffsetOutOfRange
	}
	out := make([]byte, p.pageSize)
	copy(out, src)
	return out, nil
}

// WritePage appends data as a new page at the current write cursor and
// returns the offset it was written at. The cursor advances by PageSize.
func (p *Pager) WritePage(data []byte) (int64, error) {
	if len(data) != p.pageSize {
		return 0, ErrPageSizeMismatch
	}
	if err := p.ensureCapacity(p.cursor + int64(p.pageSize)); err != nil {
		return 0, err
	}
	dst := p.pageSlice(int(p.cursor), p.pageSize)
	copy(dst, data)
	offset := p.cursor
	p.cursor += int64(p.pageSize)
	return offset, nil
}

// WritePageAtOffset overwrites the page already written at offset, without
// advancing the write cursor.
func (p *Pager) WritePageAtOffset(data []byte, offset int64) error {
	if len(data) != p.pageSize {
		return ErrPageSizeMismatch
	}
	if offset < 0 || offset+int64(p.pageSize) > p.cursor {
		return ErrOffsetOutOfRange
	}
	dst := p.pageSlice(int(offset), p.pageSize)
	if dst == nil {
		return ErrOffsetOutOfRange
	}
	copy(dst, data)
	return nil
}

// pageSlice returns a slice of the mapping at the given offset and length,
// or nil if the range falls outside the current mapping.
func (p *Pager) pageSlice(offset, length int) []byte {
	if offset < 0 || length < 0 || offset+length > len(p.mapped) {
		return nil
	}
	return p.mapped[offset : offset+length]
}

// ensureCapacity grows the mapping, geometrically, until it can hold
// `needed` bytes.
func (p *Pager) ensureCapacity(needed int64) error {
	if needed <= p.mappedSize {
		return nil
	}
	newSize := p.mappedSize * 2
	if newSize < needed {
		newSize = needed
	}
	return p.remapFile(newSize)
}

// Sync flushes all written pages to disk.
func (p *Pager) Sync() error {
	return p.syncMapping()
}

// Close flushes and releases the underlying file mapping.
func (p *Pager) Close() error {
	syncErr := p.syncMapping()
	mapErr := p.closeMapping()
	fileErr := p.file.Close()

	switch {
	case syncErr != nil:
		return syncErr
	case mapErr != nil:
		return mapErr
	default:
		return fileErr
	}
}

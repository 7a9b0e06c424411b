//go:build windows

// internal/pager/mmap_windows.go
package pager

import (
	"os"
	"reflect"
	"unsafe"

	"golang.org/x/sys/windows"
)

// platformState holds the Windows file-mapping handle that must be closed
// alongside the mapped view; Unix has no equivalent handle to track.
type platformState struct {
	mapHandle windows.Handle
}

// mapFile maps the first size bytes of f.
func mapFile(f *os.File, size int64) ([]byte, platformState, error) {
	mapHandle, err := windows.CreateFileMapping(
		windows.Handle(f.Fd()), nil, windows.PAGE_READWRITE,
		uint32(size>>32), uint32(size&0xFFFFFFFF), nil)
	if err != nil {
		return nil, platformState{}, err
	}

	addr, err := windows.MapViewOfFile(mapHandle,
		windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(mapHandle)
		return nil, platformState{}, err
	}

	var data []byte
	header := (*reflect.SliceHeader)(unsafe.Pointer(&data))
	header.Data = addr
	header.Len = int(size)
	header.Cap = int(size)

	return data, platformState{mapHandle: mapHandle}, nil
}

// syncMapping flushes the mapping's dirty pages to disk.
func (p *Pager) syncMapping() error {
	if len(p.mapped) == 0 {
		return nil
	}
	return windows.FlushViewOfFile(uintptr(unsafe.Pointer(&p.mapped[0])), uintptr(len(p.mapped)))
}

// remapFile extends the backing file to newSize and remaps it in place.
// Every slice previously returned by pageSlice is invalidated.
func (p *Pager) remapFile(newSize int64) error {
	if len(p.mapped) > 0 {
		if err := p.syncMapping(); err != nil {
			return err
		}
		if err := windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&p.mapped[0]))); err != nil {
			return err
		}
	}
	if p.platform.mapHandle != 0 {
		if err := windows.CloseHandle(p.platform.mapHandle); err != nil {
			return err
		}
	}

	if err := p.file.Truncate(newSize); err != nil {
		return err
	}

	data, platform, err := mapFile(p.file, newSize)
	if err != nil {
		return err
	}
	p.mapped = data
	p.mappedSize = newSize
	p.platform = platform
	return nil
}

// closeMapping unmaps the file and closes its mapping handle; the caller is
// responsible for closing p.file separately.
func (p *Pager) closeMapping() error {
	var firstErr error

	if len(p.mapped) > 0 {
		if err := windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&p.mapped[0]))); err != nil && firstErr == nil {
			firstErr = err
		}
		p.mapped = nil
	}

	if p.platform.mapHandle != 0 {
		if err := windows.CloseHandle(p.platform.mapHandle); err != nil && firstErr == nil {
			firstErr = err
		}
		p.platform.mapHandle = 0
	}

	return firstErr
}

//go:build unix || darwin || linux || freebsd || openbsd || netbsd

// internal/pager/mmap_unix.go
package pager

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// platformState is empty on Unix: syscall.Mmap/Munmap operate directly on
// the *os.File descriptor Pager already holds, so there is no extra handle
// that needs to outlive the mapped slice.
type platformState struct{}

// mapFile maps the first size bytes of f.
func mapFile(f *os.File, size int64) ([]byte, platformState, error) {
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, platformState{}, err
	}
	return data, platformState{}, nil
}

// syncMapping flushes the mapping's dirty pages to disk.
func (p *Pager) syncMapping() error {
	if len(p.mapped) == 0 {
		return nil
	}
	return unix.Msync(p.mapped, unix.MS_SYNC)
}

// remapFile extends the backing file to newSize and remaps it in place.
// Every slice previously returned by pageSlice is invalidated.
func (p *Pager) remapFile(newSize int64) error {
	// Flush dirty pages before unmapping: with MAP_SHARED, writes land in
	// the kernel page cache but aren't guaranteed on disk until synced.
	if err := p.syncMapping(); err != nil {
		return err
	}
	if err := syscall.Munmap(p.mapped); err != nil {
		return err
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

// closeMapping unmaps the file; the caller is responsible for closing
// p.file separately.
func (p *Pager) closeMapping() error {
	if p.mapped == nil {
		return nil
	}
	err := syscall.Munmap(p.mapped)
	p.mapped = nil
	return err
}

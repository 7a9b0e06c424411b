// Package wal implements the tiny write-ahead log this engine relies on
// for commit atomicity: a single datum, the offset of the currently live
// tree root, swapped atomically on every successful insert or delete.
//
// # WAL FILE FORMAT
//
// The WAL file is a fixed HeaderSize-byte record:
//
//	0-3:  Magic number (0x57414c31, "WAL1")
//	4-7:  Format version
//	8-15: Root offset (big-endian uint64)
//
// Unlike a conventional WAL, this file never accumulates frames — every
// commit rewrites the whole record. Atomicity comes from writing the new
// record to a temporary file in the same directory and renaming it over
// the live WAL path, which POSIX and Windows both guarantee is atomic for
// same-volume renames.
package wal

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
)

const (
	// HeaderSize is the fixed size of a WAL file in bytes.
	HeaderSize = 16

	// magicNumber identifies a WAL file belonging to this engine.
	magicNumber = 0x57414c31

	// version is the WAL record format version.
	version = 1

	rootOffsetPos = 8
)

var (
	// ErrInvalidMagic is returned when an existing WAL file's header does
	// not carry this engine's magic number.
	ErrInvalidMagic = errors.New("wal: invalid magic number")
	// ErrInvalidVersion is returned when an existing WAL file's version
	// field does not match what this engine understands.
	ErrInvalidVersion = errors.New("wal: invalid version")
)

// WAL persists the current tree root offset.
type WAL struct {
	path string
	root uint64
}

// Open opens the WAL file at path, creating it (initialized to root
// offset 0) if it does not already exist.
func Open(path string) (*WAL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		w := &WAL{path: path, root: 0}
		if err := w.writeRecord(0); err != nil {
			return nil, err
		}
		return w, nil
	}

	if len(data) < HeaderSize {
		return nil, ErrInvalidMagic
	}
	if binary.BigEndian.Uint32(data[0:4]) != magicNumber {
		return nil, ErrInvalidMagic
	}
	if binary.BigEndian.Uint32(data[4:8]) != version {
		return nil, ErrInvalidVersion
	}

	root := binary.BigEndian.Uint64(data[rootOffsetPos : rootOffsetPos+8])
	return &WAL{path: path, root: root}, nil
}

// GetRoot returns the current root offset.
func (w *WAL) GetRoot() uint64 {
	return w.root
}

// SetRoot atomically updates the live root offset. It commits by writing
// the new record to a temporary file and renaming it over the WAL path, so
// a reader never observes a partially written record.
func (w *WAL) SetRoot(offset uint64) error {
	if err := w.writeRecord(offset); err != nil {
		return err
	}
	w.root = offset
	return nil
}

func (w *WAL) writeRecord(offset uint64) error {
	record := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(record[0:4], magicNumber)
	binary.BigEndian.PutUint32(record[4:8], version)
	binary.BigEndian.PutUint64(record[rootOffsetPos:rootOffsetPos+8], offset)

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".wal-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(record); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, w.path)
}

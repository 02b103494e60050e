package ports

import "errors"

// ErrNotFoundInRom is returned by RomStore implementations when the named
// internal file does not exist.
var ErrNotFoundInRom = errors.New("file not found in ROM")

// RomStore is the port for a ROM image treated as an opaque byte-level
// key-value store of named files. The internal layout is the adapter's
// business; the editor only gets, replaces, and persists whole blobs.
type RomStore interface {
	// GetFile returns the contents of the named internal file.
	GetFile(name string) ([]byte, error)
	// SetFile replaces (or creates) the named internal file in memory.
	SetFile(name string, data []byte)
	// WriteTo persists the whole store to the given path.
	WriteTo(path string) error
}

// RomOpener opens a ROM image from disk and returns its store.
type RomOpener func(path string) (RomStore, error)

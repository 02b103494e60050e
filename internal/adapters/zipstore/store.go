// Package zipstore backs the RomStore port with a ZIP container: each
// named internal file is one STORE-method entry. It exists so the editor
// and CLI have a concrete byte-level key-value store to work against;
// real ROM formats plug in behind the same port.
package zipstore

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/hailam/packfile/internal/ports"
)

// Store holds the whole container in memory; WriteTo persists it.
type Store struct {
	names []string // insertion order, kept stable across rewrites
	files map[string][]byte
}

// New returns an empty store.
func New() *Store {
	return &Store{files: make(map[string][]byte)}
}

// Open reads a ZIP container from path into memory.
func Open(path string) (ports.RomStore, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	defer zr.Close()

	s := New()
	for _, f := range zr.File {
		r, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}
		s.SetFile(f.Name, data)
	}
	return s, nil
}

// GetFile returns the named file's contents.
func (s *Store) GetFile(name string) ([]byte, error) {
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrNotFoundInRom, name)
	}
	return data, nil
}

// SetFile replaces or creates the named file in memory.
func (s *Store) SetFile(name string, data []byte) {
	if _, ok := s.files[name]; !ok {
		s.names = append(s.names, name)
	}
	s.files[name] = data
}

// Names returns the stored file names in insertion order.
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// WriteTo persists the container to path.
func (s *Store) WriteTo(path string) error {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, name := range s.names {
		hdr := &zip.FileHeader{Name: name, Method: zip.Store}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			zw.Close()
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := w.Write(s.files[name]); err != nil {
			zw.Close()
			return fmt.Errorf("write entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write store %s: %w", path, err)
	}
	return nil
}

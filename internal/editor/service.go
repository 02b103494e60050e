// Package editor holds the stateful pack editing service: loading packs
// from standalone files or a ROM store, entry-level edits with
// modification tracking, and checksum bookkeeping around the load/save
// boundary.
package editor

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hailam/packfile/internal/binpack"
	"github.com/hailam/packfile/internal/pkdpx"
	"github.com/hailam/packfile/internal/ports"
	"github.com/hailam/packfile/internal/sniff"
)

// KnownPackFiles lists the internal pack paths game ROMs are known to carry.
var KnownPackFiles = []string{
	"EFFECT/effect.bin",
	"DUNGEON/dungeon.bin",
	"MONSTER/monster.bin",
	"MONSTER/m_attack.bin",
	"MONSTER/m_ground.bin",
	"BALANCE/m_level.bin",
}

var (
	// ErrNoOrigin means the operation needs a loaded pack or save target.
	ErrNoOrigin = errors.New("no pack loaded")
	// ErrNoRom means the operation needs a ROM origin.
	ErrNoRom = errors.New("no ROM loaded")
	// ErrIndexOutOfRange means the entry index does not exist.
	ErrIndexOutOfRange = errors.New("entry index out of range")
)

// Service edits one pack at a time. It is not safe for concurrent use.
type Service struct {
	openRom ports.RomOpener

	pack     *binpack.BinPack
	rom      ports.RomStore
	packPath string // internal name inside the ROM, "" for standalone packs
	filePath string // path of the standalone pack or of the ROM image

	modified        bool
	modifiedIndices map[int]struct{}

	loadedData     []byte
	loadedChecksum string

	currentValid    bool
	currentChecksum string
	currentSize     int
}

// NewService returns a service that opens ROM images through openRom.
// openRom may be nil when only standalone pack files are used.
func NewService(openRom ports.RomOpener) *Service {
	return &Service{
		openRom:         openRom,
		modifiedIndices: make(map[int]struct{}),
	}
}

// NewEmpty starts a fresh pack with no origin.
func (s *Service) NewEmpty() {
	s.pack = binpack.New()
	s.rom = nil
	s.packPath = ""
	s.filePath = ""
	s.modified = true
	s.modifiedIndices = make(map[int]struct{})
	s.loadedData = nil
	s.loadedChecksum = ""
	s.invalidateCurrent()
}

// LoadFile loads a standalone pack file and returns its entry count.
func (s *Service) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read pack: %w", err)
	}
	pack, err := parseValidated(data)
	if err != nil {
		return 0, err
	}

	s.pack = pack
	s.rom = nil
	s.packPath = ""
	s.filePath = path
	s.adoptLoaded(data)
	return s.pack.Len(), nil
}

// LoadRom opens a ROM image and loads the named pack from it.
func (s *Service) LoadRom(path, packPath string) (int, error) {
	if s.openRom == nil {
		return 0, fmt.Errorf("%w: no ROM opener configured", ErrNoRom)
	}
	rom, err := s.openRom(path)
	if err != nil {
		return 0, fmt.Errorf("open ROM: %w", err)
	}
	data, err := rom.GetFile(packPath)
	if err != nil {
		return 0, err
	}
	pack, err := parseValidated(data)
	if err != nil {
		return 0, err
	}

	s.pack = pack
	s.rom = rom
	s.packPath = packPath
	s.filePath = path
	s.adoptLoaded(data)
	return s.pack.Len(), nil
}

// SwitchPack loads a different named pack from the already open ROM.
func (s *Service) SwitchPack(packPath string) (int, error) {
	if s.rom == nil {
		return 0, ErrNoRom
	}
	data, err := s.rom.GetFile(packPath)
	if err != nil {
		return 0, err
	}
	pack, err := parseValidated(data)
	if err != nil {
		return 0, err
	}

	s.pack = pack
	s.packPath = packPath
	s.adoptLoaded(data)
	return s.pack.Len(), nil
}

func parseValidated(data []byte) (*binpack.BinPack, error) {
	if err := binpack.ValidateHeader(data); err != nil {
		return nil, err
	}
	return binpack.Parse(data)
}

// Save writes the pack back to its recorded origin.
func (s *Service) Save() error {
	if s.pack == nil || s.filePath == "" {
		return ErrNoOrigin
	}
	if s.rom != nil {
		return s.saveToRom(s.filePath)
	}
	return s.saveToFile(s.filePath)
}

// SaveAs writes to path. With asRom set and a ROM origin loaded, the whole
// ROM image is written with the pack replaced inside it; otherwise a
// standalone pack file is written (the ROM origin, if any, stays loaded).
func (s *Service) SaveAs(path string, asRom bool) error {
	if s.pack == nil {
		return ErrNoOrigin
	}
	if asRom && s.rom != nil {
		return s.saveToRom(path)
	}
	return s.saveToFile(path)
}

func (s *Service) saveToFile(path string) error {
	data, err := s.pack.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write pack: %w", err)
	}
	if s.rom == nil {
		s.filePath = path
	}
	s.adoptLoaded(data)
	return nil
}

func (s *Service) saveToRom(path string) error {
	data, err := s.pack.Bytes()
	if err != nil {
		return err
	}
	s.rom.SetFile(s.packPath, data)
	if err := s.rom.WriteTo(path); err != nil {
		return fmt.Errorf("write ROM: %w", err)
	}
	s.filePath = path
	s.adoptLoaded(data)
	return nil
}

// adoptLoaded records data as the new load/save boundary snapshot.
func (s *Service) adoptLoaded(data []byte) {
	s.modified = false
	s.modifiedIndices = make(map[int]struct{})
	s.loadedData = data
	s.loadedChecksum = md5hex(data)
	s.currentValid = true
	s.currentChecksum = s.loadedChecksum
	s.currentSize = len(data)
}

// Get returns the entry at i. With decompress set, a PKDPX entry is
// expanded to its inner bytes.
func (s *Service) Get(i int, decompress bool) ([]byte, error) {
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}
	data := s.pack.Get(i)
	if decompress && sniff.Detect(data) == ports.KindPKDPX {
		return pkdpx.Decompress(data)
	}
	return data, nil
}

// Set replaces the entry at i and reports the stored entry's kind. With
// compress set, data is wrapped in a PKDPX container first.
func (s *Service) Set(i int, data []byte, compress bool) (ports.EntryKind, error) {
	if err := s.checkIndex(i); err != nil {
		return "", err
	}
	if compress {
		data = pkdpx.Compress(data)
	}
	s.pack.Set(i, data)
	s.markModified(i)
	return sniff.Detect(data), nil
}

// Insert places data at index i, or appends when i is negative. It returns
// the index the entry ended up at.
func (s *Service) Insert(i int, data []byte, compress bool) (int, error) {
	if s.pack == nil {
		return 0, ErrNoOrigin
	}
	if compress {
		data = pkdpx.Compress(data)
	}
	if i < 0 || i > s.pack.Len() {
		i = s.pack.Len()
	}
	s.pack.Insert(i, data)
	s.markModified(i)
	return i, nil
}

// Remove deletes the entry at i. Modified indices above i shift down with
// the entries they track.
func (s *Service) Remove(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.pack.Remove(i)

	remapped := make(map[int]struct{}, len(s.modifiedIndices))
	for j := range s.modifiedIndices {
		switch {
		case j < i:
			remapped[j] = struct{}{}
		case j > i:
			remapped[j-1] = struct{}{}
		}
	}
	s.modifiedIndices = remapped
	s.modified = true
	s.invalidateCurrent()
	return nil
}

// ExportAll writes every entry to dir as entry_NNNN with an extension
// chosen from its detected kind. With decompress set, PKDPX entries are
// expanded and named after their inner kind; entries that fail to expand
// are written as-is.
func (s *Service) ExportAll(dir string, decompress bool) (int, error) {
	if s.pack == nil {
		return 0, ErrNoOrigin
	}
	for i, data := range s.pack.Entries() {
		kind := sniff.Detect(data)
		if decompress && kind == ports.KindPKDPX {
			if inner, err := pkdpx.Decompress(data); err == nil {
				data = inner
				kind = sniff.Detect(inner)
			}
		}
		name := fmt.Sprintf("entry_%04d%s", i, kind.Ext())
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return 0, fmt.Errorf("export entry %d: %w", i, err)
		}
	}
	return s.pack.Len(), nil
}

// ImportAll replaces all entries with the files of dir, read in sorted
// filename order. An empty directory is a no-op returning 0. The loaded
// snapshot is left untouched so the checksums still compare against the
// pre-import state; every index is marked modified instead.
func (s *Service) ImportAll(dir string, compress bool) (int, error) {
	if s.pack == nil {
		return 0, ErrNoOrigin
	}
	listing, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read directory: %w", err)
	}

	var blobs [][]byte
	for _, ent := range listing {
		if ent.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, ent.Name()))
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", ent.Name(), err)
		}
		if compress {
			data = pkdpx.Compress(data)
		}
		blobs = append(blobs, data)
	}
	if len(blobs) == 0 {
		return 0, nil
	}

	s.pack.Clear()
	s.pack.Extend(blobs)
	s.modified = true
	s.modifiedIndices = make(map[int]struct{}, len(blobs))
	for i := range blobs {
		s.modifiedIndices[i] = struct{}{}
	}
	s.invalidateCurrent()
	return len(blobs), nil
}

// EntryInfo reports the detected kind and size of the entry at i.
func (s *Service) EntryInfo(i int) (ports.EntryKind, int, error) {
	if err := s.checkIndex(i); err != nil {
		return "", 0, err
	}
	data := s.pack.Get(i)
	return sniff.Detect(data), len(data), nil
}

// Len returns the entry count, 0 when no pack is loaded.
func (s *Service) Len() int {
	if s.pack == nil {
		return 0
	}
	return s.pack.Len()
}

// Entries returns a read-only view of the entry sequence.
func (s *Service) Entries() [][]byte {
	if s.pack == nil {
		return nil
	}
	return s.pack.Entries()
}

// Modified reports whether the pack differs from the last load/save.
func (s *Service) Modified() bool { return s.modified }

// ModifiedIndices returns the tracked indices in ascending order.
func (s *Service) ModifiedIndices() []int {
	out := make([]int, 0, len(s.modifiedIndices))
	for i := range s.modifiedIndices {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// PackPath returns the internal ROM name of the loaded pack, "" when the
// origin is a standalone file.
func (s *Service) PackPath() string { return s.packPath }

// FilePath returns the path of the standalone pack or ROM image.
func (s *Service) FilePath() string { return s.filePath }

// HasRom reports whether a ROM origin is loaded.
func (s *Service) HasRom() bool { return s.rom != nil }

// LoadedChecksum returns the MD5 of the last loaded or saved pack bytes,
// "-" when there is none.
func (s *Service) LoadedChecksum() string {
	if s.loadedChecksum == "" {
		return "-"
	}
	return s.loadedChecksum
}

// LoadedSize returns the byte length of the last loaded or saved pack.
func (s *Service) LoadedSize() int { return len(s.loadedData) }

// CurrentChecksum returns the MD5 of the in-memory pack as it would
// serialize right now, "-" when no pack is loaded.
func (s *Service) CurrentChecksum() (string, error) {
	if s.pack == nil {
		return "-", nil
	}
	if err := s.refreshCurrent(); err != nil {
		return "", err
	}
	return s.currentChecksum, nil
}

// CurrentSize returns the serialized length of the in-memory pack.
func (s *Service) CurrentSize() (int, error) {
	if s.pack == nil {
		return 0, nil
	}
	if err := s.refreshCurrent(); err != nil {
		return 0, err
	}
	return s.currentSize, nil
}

func (s *Service) refreshCurrent() error {
	if s.currentValid {
		return nil
	}
	data, err := s.pack.Bytes()
	if err != nil {
		return err
	}
	s.currentChecksum = md5hex(data)
	s.currentSize = len(data)
	s.currentValid = true
	return nil
}

func (s *Service) checkIndex(i int) error {
	if s.pack == nil || i < 0 || i >= s.pack.Len() {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return nil
}

func (s *Service) markModified(i int) {
	s.modified = true
	s.modifiedIndices[i] = struct{}{}
	s.invalidateCurrent()
}

func (s *Service) invalidateCurrent() {
	s.currentValid = false
	s.currentChecksum = ""
	s.currentSize = 0
}

func md5hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

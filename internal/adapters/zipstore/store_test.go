package zipstore

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hailam/packfile/internal/ports"
)

func TestRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.zip")

	s := New()
	s.SetFile("EFFECT/effect.bin", []byte{1, 2, 3})
	s.SetFile("MONSTER/monster.bin", bytes.Repeat([]byte{0xFF}, 64))
	s.SetFile("empty.bin", nil)
	if err := s.WriteTo(path); err != nil {
		t.Fatalf("WriteTo() error: %v", err)
	}

	loaded, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	got, err := loaded.GetFile("EFFECT/effect.bin")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("GetFile() = %v, want [1 2 3]", got)
	}
	if _, err := loaded.GetFile("missing"); !errors.Is(err, ports.ErrNotFoundInRom) {
		t.Errorf("GetFile(missing) = %v, want ErrNotFoundInRom", err)
	}
}

func TestSetFileKeepsOrder(t *testing.T) {
	s := New()
	s.SetFile("b", []byte{1})
	s.SetFile("a", []byte{2})
	s.SetFile("b", []byte{3}) // overwrite must not duplicate or reorder

	if got := s.Names(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Names() = %v, want [b a]", got)
	}
	got, err := s.GetFile("b")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{3}) {
		t.Errorf("GetFile(b) = %v, want [3]", got)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.zip")); err == nil {
		t.Error("Open() on a missing file must fail")
	}
}

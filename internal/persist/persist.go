// Package persist stores battery RAM, save-state slots and the resume file
// of an emulator session on disk.
package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/cart"
)

// Slots is the number of numbered save-state slots per game.
const Slots = 4

var (
	ErrNoSaveName = errors.New("persist: no game loaded")
	ErrBadSlot    = errors.New("persist: slot out of range")
	ErrNoBattery  = errors.New("persist: cartridge has no battery RAM")
)

// Machine is the part of the emulator persist works with.
type Machine interface {
	SaveName() string
	SupportsSaving() bool
	LoadCartridgeRAM(io.Reader) error
	WriteCartridgeRAM(io.Writer) error
	SaveState(io.Writer) error
	LoadState(io.Reader) error
	LoadGame(path string) cart.Status
}

// Store keeps every file below one directory.
type Store struct {
	Dir string
}

func New(dir string) *Store { return &Store{Dir: dir} }

// BatteryPath is <dir>/<name>.sav.
func (s *Store) BatteryPath(name string) string {
	return filepath.Join(s.Dir, name+".sav")
}

// StatePath is <dir>/<name>.state<slot>.
func (s *Store) StatePath(name string, slot int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s.state%d", name, slot))
}

// SaveBattery writes cartridge RAM if the game supports saving.
func (s *Store) SaveBattery(m Machine) error {
	name := m.SaveName()
	if name == "" {
		return ErrNoSaveName
	}
	if !m.SupportsSaving() {
		return ErrNoBattery
	}
	return writeAtomic(s.BatteryPath(name), m.WriteCartridgeRAM)
}

// LoadBattery restores cartridge RAM. A missing file is reported with an
// error satisfying errors.Is(err, fs.ErrNotExist).
func (s *Store) LoadBattery(m Machine) error {
	name := m.SaveName()
	if name == "" {
		return ErrNoSaveName
	}
	if !m.SupportsSaving() {
		return ErrNoBattery
	}
	f, err := os.Open(s.BatteryPath(name))
	if err != nil {
		return err
	}
	defer f.Close()
	return m.LoadCartridgeRAM(f)
}

func (s *Store) slotPath(m Machine, slot int) (string, error) {
	if slot < 0 || slot >= Slots {
		return "", fmt.Errorf("%w: %d", ErrBadSlot, slot)
	}
	name := m.SaveName()
	if name == "" {
		return "", ErrNoSaveName
	}
	return s.StatePath(name, slot), nil
}

func (s *Store) SaveSlot(m Machine, slot int) error {
	path, err := s.slotPath(m, slot)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := m.SaveState(&buf); err != nil {
		return err
	}
	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// LoadSlot restores a slot. A broken file leaves the machine as it was.
func (s *Store) LoadSlot(m Machine, slot int) error {
	path, err := s.slotPath(m, slot)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.LoadState(f)
}

// writeAtomic writes to a temporary file next to path and renames it into
// place once fill and the close succeeded.
func writeAtomic(path string, fill func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist: create dir: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	if err = fill(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("persist: sync: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("persist: close: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("persist: rename: %w", err)
	}
	return nil
}

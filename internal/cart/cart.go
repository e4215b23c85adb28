// Package cart decodes cartridge headers and implements the memory bank
// controllers that map ROM and external RAM into the CPU address space.
package cart

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000

	// MaxROMSize is the largest image any supported controller can address.
	MaxROMSize = 512 * romBankSize
)

// ErrNoRAM is returned by the RAM stream methods of cartridges without RAM.
var ErrNoRAM = errors.New("cart: cartridge has no external RAM")

// Cartridge is the bus-facing side of a loaded cartridge. Addresses are CPU
// addresses: ROM and controller registers at 0x0000–0x7FFF, external RAM at
// 0xA000–0xBFFF.
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)

	state.Stater

	// HasBattery reports whether RAM (or the clock) survives power off.
	HasBattery() bool
	// RAMSize is the size of the raw RAM dump in bytes.
	RAMSize() int
	// LoadRAM replaces external RAM with a raw dump.
	LoadRAM(r io.Reader) error
	// WriteRAM writes the raw external RAM.
	WriteRAM(w io.Writer) error
}

type kind int

const (
	kindROM kind = iota
	kindMBC1
	kindMBC2
	kindMBC3
	kindMBC5
)

type cartKind struct {
	kind     kind
	battery  bool
	rtc      bool
	maxBanks int
	maxRAM   int
}

var cartKinds = map[byte]cartKind{
	0x00: {kind: kindROM, maxBanks: 2, maxRAM: 8 * 1024},
	0x08: {kind: kindROM, maxBanks: 2, maxRAM: 8 * 1024},
	0x09: {kind: kindROM, battery: true, maxBanks: 2, maxRAM: 8 * 1024},
	0x01: {kind: kindMBC1, maxBanks: 128, maxRAM: 32 * 1024},
	0x02: {kind: kindMBC1, maxBanks: 128, maxRAM: 32 * 1024},
	0x03: {kind: kindMBC1, battery: true, maxBanks: 128, maxRAM: 32 * 1024},
	0x05: {kind: kindMBC2, maxBanks: 16},
	0x06: {kind: kindMBC2, battery: true, maxBanks: 16},
	0x0F: {kind: kindMBC3, battery: true, rtc: true, maxBanks: 128, maxRAM: 64 * 1024},
	0x10: {kind: kindMBC3, battery: true, rtc: true, maxBanks: 128, maxRAM: 64 * 1024},
	0x11: {kind: kindMBC3, maxBanks: 128, maxRAM: 64 * 1024},
	0x12: {kind: kindMBC3, maxBanks: 128, maxRAM: 64 * 1024},
	0x13: {kind: kindMBC3, battery: true, maxBanks: 128, maxRAM: 64 * 1024},
	0x19: {kind: kindMBC5, maxBanks: 512, maxRAM: 128 * 1024},
	0x1A: {kind: kindMBC5, maxBanks: 512, maxRAM: 128 * 1024},
	0x1B: {kind: kindMBC5, battery: true, maxBanks: 512, maxRAM: 128 * 1024},
	0x1C: {kind: kindMBC5, maxBanks: 512, maxRAM: 128 * 1024},
	0x1D: {kind: kindMBC5, maxBanks: 512, maxRAM: 128 * 1024},
	0x1E: {kind: kindMBC5, battery: true, maxBanks: 512, maxRAM: 128 * 1024},
}

// Clock supplies wall-clock time to the real time clock of MBC3 carts.
type Clock func() time.Time

type options struct {
	clock Clock
}

// Option configures Load.
type Option func(*options)

// WithClock replaces time.Now for the cartridge clock.
func WithClock(c Clock) Option { return func(o *options) { o.clock = c } }

// Load validates a ROM image and builds the matching controller, powered
// on with bank 1 selected and RAM disabled. The header is returned whenever
// it could be decoded, also on failure.
func Load(rom []byte, opts ...Option) (Cartridge, *Header, Status) {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	// oversized images with a valid header are size mismatches
	unreadable := ROMParseError
	if len(rom) > MaxROMSize {
		unreadable = ROMTooBig
	}
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, nil, unreadable
	}
	if !HeaderChecksumOK(rom) || h.ROMBanks == 0 {
		return nil, h, unreadable
	}
	if len(rom) != h.ROMSizeBytes {
		return nil, h, ROMSizeMismatch
	}
	ck, ok := cartKinds[h.CartType]
	if !ok {
		return nil, h, ROMUnsupportedMBC
	}
	if h.ROMBanks > ck.maxBanks {
		return nil, h, ROMTooBig
	}
	ramSize := h.RAMSizeBytes
	if ck.kind == kindMBC2 {
		ramSize = mbc2RAMSize
	} else if ramSize < 0 || ramSize > ck.maxRAM {
		return nil, h, RAMSizeUnsupported
	}

	mem := newMemory(rom, ramSize, ck.battery)
	switch ck.kind {
	case kindMBC1:
		return newMBC1(mem), h, Loaded
	case kindMBC2:
		return newMBC2(mem), h, Loaded
	case kindMBC3:
		m := newMBC3(mem)
		if ck.rtc {
			m.rtc = newRTC(o.clock)
		}
		return m, h, Loaded
	case kindMBC5:
		return newMBC5(mem), h, Loaded
	default:
		return newROMOnly(mem), h, Loaded
	}
}

// memory holds ROM and RAM shared by every controller and clamps bank
// numbers to the banks physically present.
type memory struct {
	rom      []byte
	ram      []byte
	romBanks int
	ramBanks int
	battery  bool
}

func newMemory(rom []byte, ramSize int, battery bool) memory {
	m := memory{rom: rom, battery: battery, romBanks: max(1, len(rom)/romBankSize)}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
		m.ramBanks = max(1, ramSize/ramBankSize)
	}
	return m
}

func (m *memory) romBank(bank int) int { return bank % m.romBanks }

func (m *memory) ramBank(bank int) int {
	if m.ramBanks == 0 {
		return 0
	}
	return bank % m.ramBanks
}

func (m *memory) readROM(bank int, addr uint16) byte {
	off := m.romBank(bank)*romBankSize + int(addr&0x3FFF)
	if off >= len(m.rom) {
		return 0xFF
	}
	return m.rom[off]
}

func (m *memory) ramOffset(bank int, addr uint16) int {
	off := m.ramBank(bank)*ramBankSize + int(addr&0x1FFF)
	return off % len(m.ram)
}

func (m *memory) readRAM(bank int, addr uint16) byte {
	if len(m.ram) == 0 {
		return 0xFF
	}
	return m.ram[m.ramOffset(bank, addr)]
}

func (m *memory) writeRAM(bank int, addr uint16, v byte) {
	if len(m.ram) == 0 {
		return
	}
	m.ram[m.ramOffset(bank, addr)] = v
}

func (m *memory) HasBattery() bool { return m.battery }

func (m *memory) RAMSize() int { return len(m.ram) }

func (m *memory) LoadRAM(r io.Reader) error {
	if len(m.ram) == 0 {
		return ErrNoRAM
	}
	buf := make([]byte, len(m.ram))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("cart: read RAM dump: %w", err)
	}
	copy(m.ram, buf)
	return nil
}

func (m *memory) WriteRAM(w io.Writer) error {
	if len(m.ram) == 0 {
		return ErrNoRAM
	}
	_, err := w.Write(m.ram)
	return err
}

func (m *memory) saveRAM(w *state.Writer) { w.WriteData(m.ram) }

func (m *memory) loadRAM(r *state.Reader) { r.ReadData(m.ram) }

func ramEnableValue(v byte) bool { return v&0x0F == 0x0A }

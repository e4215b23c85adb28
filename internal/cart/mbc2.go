package cart

import "github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"

// mbc2RAMSize is the built-in 512 x 4 bit RAM, stored one nibble per byte.
const mbc2RAMSize = 512

// MBC2 supports up to 256 KiB ROM. Address bit 8 in 0000-3FFF selects
// between RAM enable (clear) and ROM bank select (set). The RAM repeats
// through A000-BFFF and only the low nibble is stored.
type MBC2 struct {
	memory

	ramEnabled bool
	bank       byte
}

func newMBC2(mem memory) *MBC2 { return &MBC2{memory: mem, bank: 1} }

// ROMBank returns the effective bank mapped at 4000-7FFF.
func (m *MBC2) ROMBank() int { return m.romBank(int(m.bank)) }

func (m *MBC2) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.readROM(0, addr)
	case addr < 0x8000:
		return m.readROM(int(m.bank), addr)
	case addr >= 0xA000 && addr < 0xC000:
		if !m.ramEnabled {
			return 0xFF
		}
		return 0xF0 | m.ram[int(addr)&(mbc2RAMSize-1)]
	}
	return 0xFF
}

func (m *MBC2) Write(addr uint16, value byte) {
	switch {
	case addr < 0x4000:
		if addr&0x0100 == 0 {
			m.ramEnabled = ramEnableValue(value)
			return
		}
		m.bank = value & 0x0F
		if m.bank == 0 {
			m.bank = 1
		}
	case addr >= 0xA000 && addr < 0xC000:
		if m.ramEnabled {
			m.ram[int(addr)&(mbc2RAMSize-1)] = value & 0x0F
		}
	}
}

func (m *MBC2) Save(w *state.Writer) {
	w.WriteBool(m.ramEnabled)
	w.Write8(m.bank)
	m.saveRAM(w)
}

func (m *MBC2) Load(r *state.Reader) {
	m.ramEnabled = r.ReadBool()
	m.bank = r.Read8() & 0x0F
	if m.bank == 0 {
		m.bank = 1
	}
	m.loadRAM(r)
}

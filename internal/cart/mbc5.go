package cart

import "github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"

// MBC5 supports up to 8 MiB ROM and 128 KiB RAM. Unlike the older
// controllers bank 0 can be mapped at 4000-7FFF.
//
//	0000-1FFF  RAM enable
//	2000-2FFF  ROM bank bits 0-7
//	3000-3FFF  ROM bank bit 8
//	4000-5FFF  RAM bank 0-15 (bit 3 drives the rumble motor on rumble carts)
type MBC5 struct {
	memory

	ramEnabled bool
	romBankReg uint16
	ramBankReg byte
}

func newMBC5(mem memory) *MBC5 { return &MBC5{memory: mem, romBankReg: 1} }

// ROMBank returns the effective bank mapped at 4000-7FFF.
func (m *MBC5) ROMBank() int { return m.romBank(int(m.romBankReg)) }

func (m *MBC5) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.readROM(0, addr)
	case addr < 0x8000:
		return m.readROM(int(m.romBankReg), addr)
	case addr >= 0xA000 && addr < 0xC000:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.readRAM(int(m.ramBankReg), addr)
	}
	return 0xFF
}

func (m *MBC5) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = ramEnableValue(value)
	case addr < 0x3000:
		m.romBankReg = m.romBankReg&0x100 | uint16(value)
	case addr < 0x4000:
		m.romBankReg = m.romBankReg&0xFF | uint16(value&0x01)<<8
	case addr < 0x6000:
		m.ramBankReg = value & 0x0F
	case addr >= 0xA000 && addr < 0xC000:
		if m.ramEnabled {
			m.writeRAM(int(m.ramBankReg), addr, value)
		}
	}
}

func (m *MBC5) Save(w *state.Writer) {
	w.WriteBool(m.ramEnabled)
	w.Write16(m.romBankReg)
	w.Write8(m.ramBankReg)
	m.saveRAM(w)
}

func (m *MBC5) Load(r *state.Reader) {
	m.ramEnabled = r.ReadBool()
	m.romBankReg = r.Read16() & 0x1FF
	m.ramBankReg = r.Read8() & 0x0F
	m.loadRAM(r)
}

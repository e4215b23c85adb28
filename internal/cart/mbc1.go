package cart

import "github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"

// MBC1 supports up to 2 MiB ROM and 32 KiB RAM.
//
//	0000-1FFF  RAM enable (0x0A in the low nibble)
//	2000-3FFF  ROM bank, low 5 bits (0 selects 1)
//	4000-5FFF  upper 2 bits: RAM bank or ROM bank bits 5-6
//	6000-7FFF  mode: 0 simple, 1 upper bits also bank 0000-3FFF and RAM
type MBC1 struct {
	memory

	ramEnabled bool
	bank1      byte
	bank2      byte
	mode       byte
}

func newMBC1(mem memory) *MBC1 { return &MBC1{memory: mem, bank1: 1} }

func (m *MBC1) lowBank() int {
	if m.mode == 1 {
		return int(m.bank2) << 5
	}
	return 0
}

func (m *MBC1) highBank() int { return int(m.bank2)<<5 | int(m.bank1) }

func (m *MBC1) ramBankIndex() int {
	if m.mode == 1 {
		return int(m.bank2)
	}
	return 0
}

// ROMBank returns the effective bank mapped at 4000-7FFF.
func (m *MBC1) ROMBank() int { return m.romBank(m.highBank()) }

func (m *MBC1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.readROM(m.lowBank(), addr)
	case addr < 0x8000:
		return m.readROM(m.highBank(), addr)
	case addr >= 0xA000 && addr < 0xC000:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.readRAM(m.ramBankIndex(), addr)
	}
	return 0xFF
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = ramEnableValue(value)
	case addr < 0x4000:
		m.bank1 = value & 0x1F
		if m.bank1 == 0 {
			m.bank1 = 1
		}
	case addr < 0x6000:
		m.bank2 = value & 0x03
	case addr < 0x8000:
		m.mode = value & 0x01
	case addr >= 0xA000 && addr < 0xC000:
		if m.ramEnabled {
			m.writeRAM(m.ramBankIndex(), addr, value)
		}
	}
}

func (m *MBC1) Save(w *state.Writer) {
	w.WriteBool(m.ramEnabled)
	w.Write8(m.bank1)
	w.Write8(m.bank2)
	w.Write8(m.mode)
	m.saveRAM(w)
}

func (m *MBC1) Load(r *state.Reader) {
	m.ramEnabled = r.ReadBool()
	m.bank1 = r.Read8() & 0x1F
	if m.bank1 == 0 {
		m.bank1 = 1
	}
	m.bank2 = r.Read8() & 0x03
	m.mode = r.Read8() & 0x01
	m.loadRAM(r)
}

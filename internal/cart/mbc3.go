package cart

import "github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"

// MBC3 supports up to 2 MiB ROM, 64 KiB RAM and an optional clock.
//
//	0000-1FFF  RAM and RTC enable (0x0A in the low nibble)
//	2000-3FFF  ROM bank, 7 bits (0 selects 1)
//	4000-5FFF  RAM bank 0-7 or RTC register 08-0C
//	6000-7FFF  write 00 then 01 to latch the clock
type MBC3 struct {
	memory

	ramEnabled bool
	romBankReg byte
	ramSelect  byte

	rtc *rtc
}

func newMBC3(mem memory) *MBC3 { return &MBC3{memory: mem, romBankReg: 1} }

// ROMBank returns the effective bank mapped at 4000-7FFF.
func (m *MBC3) ROMBank() int { return m.romBank(int(m.romBankReg)) }

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.readROM(0, addr)
	case addr < 0x8000:
		return m.readROM(int(m.romBankReg), addr)
	case addr >= 0xA000 && addr < 0xC000:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.ramSelect >= rtcS {
			if m.rtc == nil {
				return 0xFF
			}
			return m.rtc.read(m.ramSelect)
		}
		return m.readRAM(int(m.ramSelect), addr)
	}
	return 0xFF
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = ramEnableValue(value)
	case addr < 0x4000:
		m.romBankReg = value & 0x7F
		if m.romBankReg == 0 {
			m.romBankReg = 1
		}
	case addr < 0x6000:
		if value <= 0x07 || (value >= rtcS && value <= rtcDH) {
			m.ramSelect = value
		}
	case addr < 0x8000:
		if m.rtc != nil {
			m.rtc.latch(value)
		}
	case addr >= 0xA000 && addr < 0xC000:
		if !m.ramEnabled {
			return
		}
		if m.ramSelect >= rtcS {
			if m.rtc != nil {
				m.rtc.write(m.ramSelect, value)
			}
			return
		}
		m.writeRAM(int(m.ramSelect), addr, value)
	}
}

func (m *MBC3) Save(w *state.Writer) {
	w.WriteBool(m.ramEnabled)
	w.Write8(m.romBankReg)
	w.Write8(m.ramSelect)
	m.saveRAM(w)
	w.WriteBool(m.rtc != nil)
	if m.rtc != nil {
		m.rtc.save(w)
	}
}

func (m *MBC3) Load(r *state.Reader) {
	m.ramEnabled = r.ReadBool()
	m.romBankReg = r.Read8() & 0x7F
	if m.romBankReg == 0 {
		m.romBankReg = 1
	}
	m.ramSelect = r.Read8()
	m.loadRAM(r)
	if r.ReadBool() && m.rtc != nil {
		m.rtc.load(r)
	}
}

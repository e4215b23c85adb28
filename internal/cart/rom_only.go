package cart

import "github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"

// ROMOnly maps 32 KiB of ROM directly, with optional unbanked RAM.
type ROMOnly struct {
	memory
}

func newROMOnly(mem memory) *ROMOnly { return &ROMOnly{memory: mem} }

func (c *ROMOnly) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return c.readROM(0, addr)
	case addr < 0x8000:
		return c.readROM(1, addr)
	case addr >= 0xA000 && addr < 0xC000:
		return c.readRAM(0, addr)
	}
	return 0xFF
}

func (c *ROMOnly) Write(addr uint16, value byte) {
	if addr >= 0xA000 && addr < 0xC000 {
		c.writeRAM(0, addr, value)
	}
}

func (c *ROMOnly) Save(w *state.Writer) { c.saveRAM(w) }

func (c *ROMOnly) Load(r *state.Reader) { c.loadRAM(r) }

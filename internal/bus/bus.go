// Package bus wires the cartridge, memories and IO devices into the
// 64 KiB DMG address space.
package bus

import (
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/apu"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/cart"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/joypad"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/serial"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/timer"
)

const (
	IF   = 0xFF0F
	DMA  = 0xFF46
	BOOT = 0xFF50
	IE   = 0xFFFF

	// BootROMSize is the size of the DMG boot ROM overlay.
	BootROMSize = 0x100

	dmaLength = 0xA0
	// one byte is copied every machine cycle
	dmaCyclesPerByte = 4
)

// Options carries the host collaborators handed to the devices.
type Options struct {
	Display    controller.DisplayController
	Audio      controller.AudioController
	Joypad     controller.JoypadController
	SampleRate int
}

type Bus struct {
	cart cart.Cartridge

	boot        []byte
	bootEnabled bool

	wram [0x2000]byte // 8KB internal RAM
	hram [0x7F]byte

	IRQ    *interrupts.Controller
	PPU    *ppu.PPU
	APU    *apu.APU
	Timer  *timer.Timer
	Serial *serial.Serial
	Joypad *joypad.Joypad

	dmaActive bool
	dmaSrc    uint16
	dmaIndex  int
	dmaCycles int
}

// New builds a bus around c. A nil cartridge reads as open bus (0xFF).
func New(c cart.Cartridge, opts Options) *Bus {
	irq := interrupts.New()
	return &Bus{
		cart:   c,
		IRQ:    irq,
		PPU:    ppu.New(irq, opts.Display),
		APU:    apu.New(opts.SampleRate, opts.Audio),
		Timer:  timer.New(irq),
		Serial: serial.New(irq),
		Joypad: joypad.New(irq, opts.Joypad),
	}
}

func (b *Bus) Cart() cart.Cartridge { return b.cart }

// SetBootROM maps the first 256 bytes of data over 0000–00FF until FF50 is
// written. Shorter data disables the overlay.
func (b *Bus) SetBootROM(data []byte) {
	if len(data) < BootROMSize {
		b.boot, b.bootEnabled = nil, false
		return
	}
	b.boot = append([]byte(nil), data[:BootROMSize]...)
	b.bootEnabled = true
}

// BootROMMapped reports whether the boot ROM overlay is active.
func (b *Bus) BootROMMapped() bool { return b.bootEnabled }

// Reset clears RAM, stops DMA, and resets every device to power-on.
// The boot ROM overlay is re-enabled when one is installed.
func (b *Bus) Reset() {
	b.wram = [0x2000]byte{}
	b.hram = [0x7F]byte{}
	b.bootEnabled = b.boot != nil
	b.dmaActive, b.dmaSrc, b.dmaIndex, b.dmaCycles = false, 0, 0, 0
	b.IRQ.SetFlag(0)
	b.IRQ.SetEnable(0)
	b.PPU.Reset()
	b.APU.Reset()
	b.Timer.Reset()
	b.Serial.Reset()
	b.Joypad.Reset()
}

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000: // ROM area
		if b.bootEnabled && addr < BootROMSize {
			return b.boot[addr]
		}
		return b.cartRead(addr)
	case addr < 0xA000:
		return b.PPU.CPURead(addr)
	case addr < 0xC000:
		return b.cartRead(addr)
	case addr < 0xE000:
		return b.wram[addr-0xC000]
	case addr < 0xFE00: // echo of C000–DDFF
		return b.wram[addr-0xE000]
	case addr < 0xFEA0:
		if b.dmaActive {
			return 0xFF
		}
		return b.PPU.CPURead(addr)
	case addr < 0xFF00: // unusable
		return 0xFF
	case addr >= 0xFF80 && addr < 0xFFFF:
		return b.hram[addr-0xFF80]
	case addr == IE:
		return b.IRQ.Enable()
	}
	return b.readIO(addr)
}

func (b *Bus) readIO(addr uint16) byte {
	switch {
	case addr == joypad.P1:
		return b.Joypad.Read()
	case addr == serial.SB || addr == serial.SC:
		return b.Serial.Read(addr)
	case addr >= timer.DIV && addr <= timer.TAC:
		return b.Timer.Read(addr)
	case addr == IF:
		return b.IRQ.Flag()
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return b.APU.CPURead(addr)
	case addr == DMA:
		return byte(b.dmaSrc >> 8)
	case addr >= ppu.LCDC && addr <= ppu.WX:
		return b.PPU.CPURead(addr)
	}
	return 0xFF
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cartWrite(addr, value)
	case addr < 0xA000:
		b.PPU.CPUWrite(addr, value)
	case addr < 0xC000:
		b.cartWrite(addr, value)
	case addr < 0xE000:
		b.wram[addr-0xC000] = value
	case addr < 0xFE00:
		b.wram[addr-0xE000] = value
	case addr < 0xFEA0:
		if !b.dmaActive {
			b.PPU.CPUWrite(addr, value)
		}
	case addr < 0xFF00: // unusable
	case addr >= 0xFF80 && addr < 0xFFFF:
		b.hram[addr-0xFF80] = value
	case addr == IE:
		b.IRQ.SetEnable(value)
	default:
		b.writeIO(addr, value)
	}
}

func (b *Bus) writeIO(addr uint16, value byte) {
	switch {
	case addr == joypad.P1:
		b.Joypad.Write(value)
	case addr == serial.SB || addr == serial.SC:
		b.Serial.Write(addr, value)
	case addr >= timer.DIV && addr <= timer.TAC:
		b.Timer.Write(addr, value)
	case addr == IF:
		b.IRQ.SetFlag(value)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		b.APU.CPUWrite(addr, value)
	case addr == DMA:
		b.startDMA(value)
	case addr >= ppu.LCDC && addr <= ppu.WX:
		b.PPU.CPUWrite(addr, value)
	case addr == BOOT:
		if value != 0 {
			b.bootEnabled = false
		}
	}
}

func (b *Bus) cartRead(addr uint16) byte {
	if b.cart == nil {
		return 0xFF
	}
	return b.cart.Read(addr)
}

func (b *Bus) cartWrite(addr uint16, value byte) {
	if b.cart != nil {
		b.cart.Write(addr, value)
	}
}

func (b *Bus) startDMA(page byte) {
	b.dmaSrc = uint16(page) << 8
	// sources above DFFF read the echo RAM mirror
	if b.dmaSrc >= 0xE000 {
		b.dmaSrc -= 0x2000
	}
	b.dmaActive = true
	b.dmaIndex = 0
	b.dmaCycles = 0
}

// dmaRead fetches a DMA source byte without the OAM lock.
func (b *Bus) dmaRead(addr uint16) byte {
	if addr >= 0x8000 && addr < 0xA000 {
		return b.PPU.ReadVRAM(addr)
	}
	return b.Read(addr)
}

func (b *Bus) stepDMA(cycles int) {
	if !b.dmaActive {
		return
	}
	b.dmaCycles += cycles
	for b.dmaCycles >= dmaCyclesPerByte && b.dmaActive {
		b.dmaCycles -= dmaCyclesPerByte
		b.PPU.WriteOAM(b.dmaIndex, b.dmaRead(b.dmaSrc+uint16(b.dmaIndex)))
		b.dmaIndex++
		if b.dmaIndex == dmaLength {
			b.dmaActive = false
			b.dmaCycles = 0
		}
	}
}

// DMAActive reports whether an OAM DMA transfer is in progress.
func (b *Bus) DMAActive() bool { return b.dmaActive }

// Tick advances every clocked device by the given number of cycles.
func (b *Bus) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	b.stepDMA(cycles)
	b.Timer.Tick(cycles)
	b.Serial.Tick(cycles)
	b.PPU.Tick(cycles)
	b.APU.Tick(cycles)
}

// Save writes the bus section of a save state: work RAM, high RAM, the
// boot overlay switch and any DMA in flight.
func (b *Bus) Save(w *state.Writer) {
	w.WriteData(b.wram[:])
	w.WriteData(b.hram[:])
	w.WriteBool(b.bootEnabled)
	w.WriteBool(b.dmaActive)
	w.Write16(b.dmaSrc)
	w.Write8(byte(b.dmaIndex))
	w.Write8(byte(b.dmaCycles))
}

func (b *Bus) Load(r *state.Reader) {
	r.ReadData(b.wram[:])
	r.ReadData(b.hram[:])
	b.bootEnabled = r.ReadBool() && b.boot != nil
	b.dmaActive = r.ReadBool()
	b.dmaSrc = r.Read16()
	b.dmaIndex = int(r.Read8())
	b.dmaCycles = int(r.Read8() % dmaCyclesPerByte)
	if b.dmaIndex >= dmaLength {
		b.dmaActive, b.dmaIndex = false, 0
	}
}

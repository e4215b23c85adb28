package bus

import (
	"bytes"
	"io"
	"testing"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

// flatCart maps a plain 32 KiB ROM and 8 KiB of always-enabled RAM.
type flatCart struct {
	rom [0x8000]byte
	ram [0x2000]byte
}

func (c *flatCart) Read(addr uint16) byte {
	if addr < 0x8000 {
		return c.rom[addr]
	}
	return c.ram[addr-0xA000]
}

func (c *flatCart) Write(addr uint16, v byte) {
	if addr >= 0xA000 && addr < 0xC000 {
		c.ram[addr-0xA000] = v
	}
}

func (c *flatCart) Save(w *state.Writer) { w.WriteData(c.ram[:]) }
func (c *flatCart) Load(r *state.Reader) { r.ReadData(c.ram[:]) }
func (c *flatCart) HasBattery() bool     { return false }
func (c *flatCart) RAMSize() int         { return len(c.ram) }

func (c *flatCart) LoadRAM(r io.Reader) error {
	_, err := io.ReadFull(r, c.ram[:])
	return err
}

func (c *flatCart) WriteRAM(w io.Writer) error {
	_, err := w.Write(c.ram[:])
	return err
}

func newBus(opts Options) (*Bus, *flatCart) {
	c := &flatCart{}
	return New(c, opts), c
}

func tick(b *Bus, n int) {
	for i := 0; i < n; i++ {
		b.Tick(1)
	}
}

func TestBus_ROMAndRAM(t *testing.T) {
	b, c := newBus(Options{})
	c.rom[0x0100] = 0x42

	if got := b.Read(0x0100); got != 0x42 {
		t.Fatalf("ROM read got %02x, want 42", got)
	}

	b.Write(0xC000, 0x99)
	if got := b.Read(0xC000); got != 0x99 {
		t.Fatalf("RAM read got %02x, want 99", got)
	}

	// Echo RAM mirrors C000–DDFF
	b.Write(0xE000, 0x55)
	if got := b.Read(0xC000); got != 0x55 {
		t.Fatalf("Echo write did not mirror to WRAM: got %02x", got)
	}
	b.Write(0xDDFF, 0x66)
	if got := b.Read(0xFDFF); got != 0x66 {
		t.Fatalf("Echo read at FDFF got %02x, want 66", got)
	}

	b.Write(0xFF80, 0xAB)
	if got := b.Read(0xFF80); got != 0xAB {
		t.Fatalf("HRAM read got %02x, want AB", got)
	}

	b.Write(0xA123, 0x77)
	if got := b.Read(0xA123); got != 0x77 || c.ram[0x123] != 0x77 {
		t.Fatalf("cart RAM got %02x, want 77", got)
	}

	// FEA0–FEFF is unusable
	b.Write(0xFEA0, 0x12)
	if got := b.Read(0xFEA0); got != 0xFF {
		t.Fatalf("unusable region got %02x, want FF", got)
	}
	if got := b.Read(0xFF7F); got != 0xFF {
		t.Fatalf("unmapped IO got %02x, want FF", got)
	}
}

func TestBus_NoCartridge(t *testing.T) {
	b := New(nil, Options{})
	if got := b.Read(0x0100); got != 0xFF {
		t.Fatalf("ROM read without cartridge got %02x", got)
	}
	b.Write(0x2000, 0x01)
	if got := b.Read(0xA000); got != 0xFF {
		t.Fatalf("RAM read without cartridge got %02x", got)
	}
}

func TestBus_VRAM_OAM_InterruptRegs(t *testing.T) {
	b, _ := newBus(Options{})

	b.Write(0x8000, 0x11)
	if got := b.Read(0x8000); got != 0x11 {
		t.Fatalf("VRAM read got %02x, want 11", got)
	}

	b.Write(0xFE00, 0x22)
	if got := b.Read(0xFE00); got != 0x22 {
		t.Fatalf("OAM read got %02x, want 22", got)
	}

	// IF register at 0xFF0F (lower 5 bits)
	b.Write(IF, 0x3F)
	if got := b.Read(IF); got != 0xE0|0x1F {
		t.Fatalf("IF read got %02x, want FF (E0|1F)", got)
	}

	b.Write(IE, 0x1B)
	if got := b.Read(IE); got != 0x1B {
		t.Fatalf("IE read got %02x, want 1B", got)
	}
}

func TestBus_JOYP_And_Timers(t *testing.T) {
	keys := &controller.KeyState{}
	b, _ := newBus(Options{Joypad: keys})

	if got := b.Read(0xFF00); got&0x0F != 0x0F {
		t.Fatalf("JOYP default lower bits got %02x want 0x0F", got)
	}

	// Select D-Pad (P14=0), press Right+Up
	b.Write(0xFF00, 0x20)
	keys.Set(controller.KeyRight, true)
	keys.Set(controller.KeyUp, true)
	if got := b.Read(0xFF00); got&0x0F != 0x0A {
		t.Fatalf("JOYP D-Pad got %02x want 0x0A", got&0x0F)
	}

	// Select Buttons (P15=0), press A+Start
	keys.Clear()
	b.Write(0xFF00, 0x10)
	keys.Set(controller.KeyA, true)
	keys.Set(controller.KeyStart, true)
	if got := b.Read(0xFF00); got&0x0F != 0x06 {
		t.Fatalf("JOYP Buttons got %02x want 0x06", got&0x0F)
	}

	b.Write(0xFF04, 0x12) // DIV write resets to 0
	if got := b.Read(0xFF04); got != 0x00 {
		t.Fatalf("DIV got %02x want 00", got)
	}
	b.Write(0xFF05, 0x77)
	if got := b.Read(0xFF05); got != 0x77 {
		t.Fatalf("TIMA got %02x want 77", got)
	}
	b.Write(0xFF06, 0x88)
	if got := b.Read(0xFF06); got != 0x88 {
		t.Fatalf("TMA got %02x want 88", got)
	}
	b.Write(0xFF07, 0xFD)
	if got := b.Read(0xFF07); got != (0xF8 | (0xFD & 0x07)) {
		t.Fatalf("TAC got %02x want %02x", got, 0xF8|(0xFD&0x07))
	}
}

func TestBus_TimerInterruptViaTick(t *testing.T) {
	b, _ := newBus(Options{})
	b.Write(0xFF06, 0xF0)
	b.Write(0xFF05, 0xFF)
	b.Write(0xFF07, 0x05) // 16 cycles per increment
	b.Write(0xFF04, 0)
	b.Tick(16 + 4)
	if b.Read(IF)&(1<<2) == 0 {
		t.Fatalf("timer IF not set after overflow")
	}
	if got := b.Read(0xFF05); got != 0xF0 {
		t.Fatalf("TIMA after reload got %02x want F0", got)
	}
}

func TestBus_Serial(t *testing.T) {
	b, _ := newBus(Options{})
	var out bytes.Buffer
	b.Serial.SetWriter(&out)

	b.Write(0xFF01, 0x41) // 'A'
	b.Write(0xFF02, 0x81) // start, internal clock
	if out.String() != "A" {
		t.Fatalf("serial out got %q want A", out.String())
	}
	b.Tick(8 * 512)
	if got := b.Read(0xFF02); got&0x80 != 0 {
		t.Fatalf("serial control bit7 not cleared: %02x", got)
	}
	if b.Read(IF)&(1<<3) == 0 {
		t.Fatalf("serial IF bit not set after transfer")
	}
}

func TestBus_OAMDMA_StepwiseAndBlocking(t *testing.T) {
	b, _ := newBus(Options{})
	for i := 0; i < 0xA0; i++ {
		b.Write(0xC000+uint16(i), byte(i))
	}
	b.Write(DMA, 0xC0)
	if !b.DMAActive() {
		t.Fatalf("DMA not active after FF46 write")
	}
	if got := b.Read(0xFE00); got != 0xFF {
		t.Fatalf("OAM read during DMA got %02X want FF", got)
	}
	b.Write(0xFE00, 0xEE) // ignored
	tick(b, 320)
	if got := b.Read(0xFE10); got != 0xFF {
		t.Fatalf("mid-DMA OAM read got %02X want FF", got)
	}
	// HRAM stays reachable
	b.Write(0xFF90, 0x5A)
	if got := b.Read(0xFF90); got != 0x5A {
		t.Fatalf("HRAM during DMA got %02X", got)
	}
	// only OAM is blocked; WRAM keeps serving the CPU
	if got := b.Read(0xC005); got != 0x05 {
		t.Fatalf("WRAM during DMA got %02X want 05", got)
	}
	tick(b, 320)
	if b.DMAActive() {
		t.Fatalf("DMA still active after 640 cycles")
	}
	for i := 0; i < 0xA0; i++ {
		if got := b.Read(0xFE00 + uint16(i)); got != byte(i) {
			t.Fatalf("OAM[%02X] got %02X want %02X", i, got, byte(i))
		}
	}
	b.Write(0xFE00, 0x99)
	if got := b.Read(0xFE00); got != 0x99 {
		t.Fatalf("OAM write post-DMA failed: got %02X", got)
	}
	if got := b.Read(DMA); got != 0xC0 {
		t.Fatalf("FF46 read got %02X want C0", got)
	}
}

func TestBus_BootROMOverlay(t *testing.T) {
	b, c := newBus(Options{})
	c.rom[0x0000] = 0xAA
	c.rom[0x0100] = 0xBB
	boot := make([]byte, BootROMSize)
	boot[0] = 0x31
	b.SetBootROM(boot)

	if got := b.Read(0x0000); got != 0x31 {
		t.Fatalf("boot overlay read got %02x want 31", got)
	}
	if got := b.Read(0x0100); got != 0xBB {
		t.Fatalf("read past overlay got %02x want BB", got)
	}
	b.Write(BOOT, 0x00)
	if !b.BootROMMapped() {
		t.Fatalf("writing 0 to FF50 unmapped the boot ROM")
	}
	b.Write(BOOT, 0x01)
	if got := b.Read(0x0000); got != 0xAA {
		t.Fatalf("read after FF50 got %02x want AA", got)
	}
	b.Reset()
	if !b.BootROMMapped() {
		t.Fatalf("Reset did not remap the boot ROM")
	}
}

func TestBus_TickDrivesPPU(t *testing.T) {
	b, _ := newBus(Options{})
	b.Write(0xFF40, 0x80)
	b.Tick(144 * 456)
	if ly := b.Read(0xFF44); ly != 144 {
		t.Fatalf("LY at vblank start got %d want 144", ly)
	}
	if b.Read(IF)&0x01 == 0 {
		t.Fatalf("VBlank IF not set on entering vblank")
	}
	b.Tick(10 * 456)
	if ly := b.Read(0xFF44); ly != 0 {
		t.Fatalf("LY after vblank wrap got %d want 0", ly)
	}
}

func TestBus_StateRoundTrip(t *testing.T) {
	b, _ := newBus(Options{})
	b.SetBootROM(make([]byte, BootROMSize))
	b.Write(0xC123, 0x10)
	b.Write(0xFF85, 0x20)
	b.Write(DMA, 0xC1)
	b.Tick(40)

	w := state.NewWriter(0)
	b.Save(w)

	d, _ := newBus(Options{})
	r := state.NewReader(w.Bytes())
	d.Load(r)
	if r.Err() != nil || r.Remaining() != 0 {
		t.Fatalf("Load err=%v remaining=%d", r.Err(), r.Remaining())
	}
	if d.Read(0xC123) != 0x10 || d.Read(0xFF85) != 0x20 {
		t.Fatalf("RAM not restored")
	}
	if !d.DMAActive() {
		t.Fatalf("DMA in flight not restored")
	}
	if d.BootROMMapped() {
		t.Fatalf("boot overlay restored without a boot ROM installed")
	}
}

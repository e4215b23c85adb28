package cart

import (
	"math/rand"
	"testing"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

type bankReporter interface {
	ROMBank() int
}

func TestBankIndexAlwaysInRange(t *testing.T) {
	roms := []struct {
		name     string
		cartType byte
		sizeCode byte
	}{
		{"mbc1", 0x01, 0x02},
		{"mbc2", 0x05, 0x01},
		{"mbc3", 0x11, 0x03},
		{"mbc5", 0x19, 0x02},
	}
	rng := rand.New(rand.NewSource(1))
	for _, r := range roms {
		t.Run(r.name, func(t *testing.T) {
			_, banks := decodeROMSize(r.sizeCode)
			c := mustLoad(t, buildROM("CLAMP", r.cartType, r.sizeCode, 0x00))
			br := c.(bankReporter)
			for i := 0; i < 2000; i++ {
				addr := uint16(rng.Intn(0x8000))
				c.Write(addr, byte(rng.Intn(256)))
				if b := br.ROMBank(); b < 0 || b >= banks {
					t.Fatalf("bank %d out of range [0,%d)", b, banks)
				}
				if got := bankAt(c, 0x4000); got != br.ROMBank() {
					t.Fatalf("mapped bank %d, reported %d", got, br.ROMBank())
				}
			}
		})
	}
}

func TestMBC2RAMNibbles(t *testing.T) {
	c := mustLoad(t, buildROM("MBC2", 0x06, 0x03, 0x00))
	if c.RAMSize() != mbc2RAMSize {
		t.Fatalf("RAMSize got %d want %d", c.RAMSize(), mbc2RAMSize)
	}
	// address bit 8 set: ROM bank select
	c.Write(0x2100, 0x07)
	if got := bankAt(c, 0x4000); got != 7 {
		t.Fatalf("bank got %d want 7", got)
	}
	// address bit 8 clear: RAM enable
	c.Write(0x0000, 0x0A)
	c.Write(0xA001, 0xAB)
	if got := c.Read(0xA001); got != 0xFB {
		t.Fatalf("nibble RAM got %02x want fb", got)
	}
	if got := c.Read(0xA201); got != 0xFB {
		t.Fatalf("RAM echo got %02x want fb", got)
	}
	// writes with bit 8 clear never touch the bank
	c.Write(0x2000, 0x03)
	if got := bankAt(c, 0x4000); got != 7 {
		t.Fatalf("bank after RAM-enable write got %d want 7", got)
	}
}

func TestMBC5NineBitBank(t *testing.T) {
	// 8 MiB: 512 banks
	c := mustLoad(t, buildROM("MBC5", 0x19, 0x08, 0x00))
	c.Write(0x2000, 0x00)
	if got := bankAt(c, 0x4000); got != 0 {
		t.Fatalf("MBC5 bank 0 got %d want 0", got)
	}
	c.Write(0x2000, 0x34)
	c.Write(0x3000, 0x01)
	if got := bankAt(c, 0x4000); got != 0x134 {
		t.Fatalf("MBC5 bank got %#x want 0x134", got)
	}
}

func TestMBC5StateRoundTrip(t *testing.T) {
	c := mustLoad(t, buildROM("MBC5", 0x1B, 0x03, 0x03))
	c.Write(0x0000, 0x0A)
	c.Write(0x2000, 0x09)
	c.Write(0x4000, 0x02)
	c.Write(0xB000, 0x66)

	w := state.NewWriter(0)
	c.Save(w)
	d := mustLoad(t, buildROM("MBC5", 0x1B, 0x03, 0x03))
	d.Load(state.NewReader(w.Bytes()))
	if got := bankAt(d, 0x4000); got != 9 {
		t.Fatalf("restored bank got %d want 9", got)
	}
	if got := d.Read(0xB000); got != 0x66 {
		t.Fatalf("restored RAM got %02x want 66", got)
	}
}

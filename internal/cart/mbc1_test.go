package cart

import "testing"

func mustLoad(t *testing.T, rom []byte) Cartridge {
	t.Helper()
	c, _, st := Load(rom)
	if st != Loaded {
		t.Fatalf("Load got %v", st)
	}
	return c
}

func bankAt(c Cartridge, addr uint16) int {
	return int(c.Read(addr)) | int(c.Read(addr+1))<<8
}

func TestMBC1BankSwitching(t *testing.T) {
	// 1 MiB: 64 banks
	c := mustLoad(t, buildROM("MBC1", 0x01, 0x05, 0x00))

	c.Write(0x2000, 0x00)
	if got := bankAt(c, 0x4000); got != 1 {
		t.Fatalf("bank 0 write got bank %d want 1", got)
	}
	c.Write(0x2000, 0x1F)
	if got := bankAt(c, 0x4000); got != 0x1F {
		t.Fatalf("bank got %d want 31", got)
	}
	c.Write(0x4000, 0x01)
	if got := bankAt(c, 0x4000); got != 0x3F {
		t.Fatalf("bank with upper bits got %d want 63", got)
	}
	// mode 1 maps the upper bits into 0000-3FFF as well
	c.Write(0x6000, 0x01)
	if got := bankAt(c, 0x0000); got != 0x20 {
		t.Fatalf("mode 1 low bank got %d want 32", got)
	}
	c.Write(0x6000, 0x00)
	if got := c.Read(0x0100); got != 0 {
		t.Fatalf("mode 0 low bank byte got %02x want 00", got)
	}
}

func TestMBC1RAMBanking(t *testing.T) {
	c := mustLoad(t, buildROM("MBC1", 0x03, 0x00, 0x03))
	c.Write(0x0000, 0x0A)
	c.Write(0x6000, 0x01)
	for bank := 0; bank < 4; bank++ {
		c.Write(0x4000, byte(bank))
		c.Write(0xA000, byte(0x10+bank))
	}
	for bank := 0; bank < 4; bank++ {
		c.Write(0x4000, byte(bank))
		if got := c.Read(0xA000); got != byte(0x10+bank) {
			t.Fatalf("RAM bank %d got %02x want %02x", bank, got, 0x10+bank)
		}
	}
	// mode 0 always uses RAM bank 0
	c.Write(0x6000, 0x00)
	c.Write(0x4000, 0x03)
	if got := c.Read(0xA000); got != 0x10 {
		t.Fatalf("mode 0 RAM got %02x want 10", got)
	}
	c.Write(0x0000, 0x00)
	if got := c.Read(0xA000); got != 0xFF {
		t.Fatalf("disabled RAM got %02x want ff", got)
	}
}

func TestMBC1SmallRAMMirrors(t *testing.T) {
	c := mustLoad(t, buildROM("MBC1", 0x03, 0x00, 0x01))
	c.Write(0x0000, 0x0A)
	c.Write(0xA000, 0x5A)
	if got := c.Read(0xA800); got != 0x5A {
		t.Fatalf("2 KiB RAM mirror got %02x want 5a", got)
	}
}

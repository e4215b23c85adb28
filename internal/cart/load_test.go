package cart

import (
	"bytes"
	"errors"
	"testing"
)

func TestLoadStatuses(t *testing.T) {
	cases := []struct {
		name string
		rom  func() []byte
		want Status
	}{
		{"rom only", func() []byte { return buildROM("OK", 0x00, 0x00, 0x00) }, Loaded},
		{"mbc1 ram", func() []byte { return buildROM("OK", 0x03, 0x02, 0x03) }, Loaded},
		{"mbc2", func() []byte { return buildROM("OK", 0x06, 0x03, 0x00) }, Loaded},
		{"mbc3 rtc", func() []byte { return buildROM("OK", 0x10, 0x04, 0x03) }, Loaded},
		{"mbc5", func() []byte { return buildROM("OK", 0x1B, 0x05, 0x04) }, Loaded},
		{"short", func() []byte { return make([]byte, 0x100) }, ROMParseError},
		{"bad checksum", func() []byte {
			rom := buildROM("OK", 0x00, 0x00, 0x00)
			rom[0x014D]++
			return rom
		}, ROMParseError},
		{"unknown size code", func() []byte {
			rom := buildROM("OK", 0x00, 0x00, 0x00)
			rom[0x0148] = 0x20
			fixChecksums(rom)
			return rom
		}, ROMParseError},
		{"truncated", func() []byte { return buildROM("OK", 0x01, 0x02, 0x00)[:64*1024] }, ROMSizeMismatch},
		{"padded", func() []byte { return append(buildROM("OK", 0x00, 0x00, 0x00), 0) }, ROMSizeMismatch},
		{"unsupported mbc", func() []byte { return buildROM("OK", 0x22, 0x00, 0x00) }, ROMUnsupportedMBC},
		{"huc1", func() []byte { return buildROM("OK", 0xFF, 0x00, 0x00) }, ROMUnsupportedMBC},
		{"too big for mbc1", func() []byte { return buildROM("OK", 0x01, 0x07, 0x00) }, ROMTooBig},
		{"too big for rom only", func() []byte { return buildROM("OK", 0x00, 0x01, 0x00) }, ROMTooBig},
		{"larger than any mbc", func() []byte { return make([]byte, MaxROMSize+1) }, ROMTooBig},
		{"oversized with 32k header", func() []byte {
			rom := make([]byte, MaxROMSize+1)
			copy(rom, buildROM("OK", 0x00, 0x00, 0x00))
			return rom
		}, ROMSizeMismatch},
		{"ram code unknown", func() []byte { return buildROM("OK", 0x03, 0x00, 0x07) }, RAMSizeUnsupported},
		{"ram too big for mbc1", func() []byte { return buildROM("OK", 0x03, 0x00, 0x04) }, RAMSizeUnsupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, st := Load(tc.rom())
			if st != tc.want {
				t.Fatalf("status got %v want %v", st, tc.want)
			}
			if (c != nil) != (st == Loaded) {
				t.Fatalf("cartridge %v with status %v", c, st)
			}
		})
	}
}

func TestLoadPowerOnState(t *testing.T) {
	c, h, st := Load(buildROM("BANKS", 0x03, 0x02, 0x02))
	if st != Loaded || h == nil {
		t.Fatalf("Load got %v", st)
	}
	if got := c.Read(0x4000); got != 1 {
		t.Fatalf("bank at 4000 got %d want 1", got)
	}
	c.Write(0xA000, 0x42)
	if got := c.Read(0xA000); got != 0xFF {
		t.Fatalf("RAM read with RAM disabled got %02x want ff", got)
	}
}

func TestRAMStreams(t *testing.T) {
	c, _, _ := Load(buildROM("SAVE", 0x03, 0x00, 0x02))
	if !c.HasBattery() || c.RAMSize() != 8*1024 {
		t.Fatalf("battery=%v ram=%d", c.HasBattery(), c.RAMSize())
	}
	c.Write(0x0000, 0x0A)
	c.Write(0xA010, 0x77)

	var buf bytes.Buffer
	if err := c.WriteRAM(&buf); err != nil {
		t.Fatalf("WriteRAM: %v", err)
	}
	if buf.Len() != 8*1024 || buf.Bytes()[0x10] != 0x77 {
		t.Fatalf("RAM dump len %d byte %02x", buf.Len(), buf.Bytes()[0x10])
	}

	d, _, _ := Load(buildROM("SAVE", 0x03, 0x00, 0x02))
	if err := d.LoadRAM(&buf); err != nil {
		t.Fatalf("LoadRAM: %v", err)
	}
	d.Write(0x0000, 0x0A)
	if got := d.Read(0xA010); got != 0x77 {
		t.Fatalf("restored RAM got %02x want 77", got)
	}

	if err := d.LoadRAM(bytes.NewReader([]byte{1, 2, 3})); err == nil {
		t.Fatalf("LoadRAM accepted a short dump")
	}
	if got := d.Read(0xA000); got != 0 {
		t.Fatalf("short dump modified RAM: %02x", got)
	}

	none, _, _ := Load(buildROM("NORAM", 0x00, 0x00, 0x00))
	if err := none.WriteRAM(&buf); !errors.Is(err, ErrNoRAM) {
		t.Fatalf("WriteRAM without RAM got %v", err)
	}
}

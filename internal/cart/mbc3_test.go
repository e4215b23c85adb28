package cart

import (
	"testing"
	"time"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

func loadMBC3(t *testing.T, clk *fakeClock) Cartridge {
	t.Helper()
	c, _, st := Load(buildROM("RTC", 0x10, 0x02, 0x03), WithClock(clk.Now))
	if st != Loaded {
		t.Fatalf("Load got %v", st)
	}
	return c
}

func readRTC(c Cartridge, reg byte) byte {
	c.Write(0x4000, reg)
	return c.Read(0xA000)
}

func latch(c Cartridge) {
	c.Write(0x6000, 0x00)
	c.Write(0x6000, 0x01)
}

func TestMBC3RTCLatchAndRead(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	c := loadMBC3(t, clk)
	c.Write(0x0000, 0x0A)

	clk.advance(5*time.Second + 6*time.Minute + 7*time.Hour + 24*time.Hour)
	latch(c)
	if got := readRTC(c, rtcS); got != 5 {
		t.Fatalf("latched sec got %d want 5", got)
	}
	if got := readRTC(c, rtcM); got != 6 {
		t.Fatalf("latched min got %d want 6", got)
	}
	if got := readRTC(c, rtcH); got != 7 {
		t.Fatalf("latched hour got %d want 7", got)
	}
	if got := readRTC(c, rtcDL); got != 1 {
		t.Fatalf("latched day got %d want 1", got)
	}

	// live clock moves, latched copy does not
	clk.advance(30 * time.Second)
	if got := readRTC(c, rtcS); got != 5 {
		t.Fatalf("latched sec changed unexpectedly: got %d", got)
	}
	latch(c)
	if got := readRTC(c, rtcS); got != 35 {
		t.Fatalf("relatched sec got %d want 35", got)
	}

	// a single 1 write is not a latch sequence
	clk.advance(10 * time.Second)
	c.Write(0x6000, 0x01)
	if got := readRTC(c, rtcS); got != 35 {
		t.Fatalf("sec after lone 01 write got %d want 35", got)
	}
}

func TestMBC3RTCHaltAndCarry(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	c := loadMBC3(t, clk)
	c.Write(0x0000, 0x0A)

	// set day 511, 23:59:50
	c.Write(0x4000, rtcDL)
	c.Write(0xA000, 0xFF)
	c.Write(0x4000, rtcDH)
	c.Write(0xA000, 0x01)
	c.Write(0x4000, rtcH)
	c.Write(0xA000, 23)
	c.Write(0x4000, rtcM)
	c.Write(0xA000, 59)
	c.Write(0x4000, rtcS)
	c.Write(0xA000, 50)

	clk.advance(15 * time.Second)
	latch(c)
	if got := readRTC(c, rtcS); got != 5 {
		t.Fatalf("sec after wrap got %d want 5", got)
	}
	if got := readRTC(c, rtcDL); got != 0 {
		t.Fatalf("day low after wrap got %d want 0", got)
	}
	dh := readRTC(c, rtcDH)
	if dh&rtcCarryBit == 0 || dh&0x01 != 0 {
		t.Fatalf("DH after wrap got %02x, want carry set and day bit 8 clear", dh)
	}

	// halt stops the clock
	c.Write(0x4000, rtcDH)
	c.Write(0xA000, rtcHaltBit)
	clk.advance(time.Hour)
	latch(c)
	if got := readRTC(c, rtcS); got != 5 {
		t.Fatalf("halted clock advanced to sec %d", got)
	}
	if got := readRTC(c, rtcDH); got&rtcHaltBit == 0 {
		t.Fatalf("halt bit not reported, DH=%02x", got)
	}
}

func TestMBC3RAMAndRTCSelect(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	c := loadMBC3(t, clk)
	c.Write(0x0000, 0x0A)
	c.Write(0x4000, 0x02)
	c.Write(0xA123, 0x99)
	c.Write(0x4000, rtcS)
	if got := c.Read(0xA123); got == 0x99 {
		t.Fatalf("RTC register read returned RAM contents")
	}
	c.Write(0x4000, 0x02)
	if got := c.Read(0xA123); got != 0x99 {
		t.Fatalf("RAM bank 2 got %02x want 99", got)
	}
}

func TestMBC3StateRoundTrip(t *testing.T) {
	clk := &fakeClock{now: time.Unix(500, 0)}
	c := loadMBC3(t, clk)
	c.Write(0x0000, 0x0A)
	c.Write(0x2000, 0x05)
	c.Write(0x4000, 0x01)
	c.Write(0xA000, 0x3C)
	clk.advance(42 * time.Second)
	latch(c)

	w := state.NewWriter(0)
	c.Save(w)

	d := loadMBC3(t, clk)
	r := state.NewReader(w.Bytes())
	d.Load(r)
	if r.Err() != nil || r.Remaining() != 0 {
		t.Fatalf("Load err=%v remaining=%d", r.Err(), r.Remaining())
	}
	if got := bankAt(d, 0x4000); got != 5 {
		t.Fatalf("restored ROM bank got %d want 5", got)
	}
	if got := d.Read(0xA000); got != 0x3C {
		t.Fatalf("restored RAM got %02x want 3c", got)
	}
	if got := readRTC(d, rtcS); got != 42 {
		t.Fatalf("restored latched sec got %d want 42", got)
	}
}

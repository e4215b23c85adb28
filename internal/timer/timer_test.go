package timer

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/interrupts"
)

func newTimer() (*Timer, *interrupts.Controller) {
	irq := interrupts.New()
	irq.SetEnable(0x1F)
	return New(irq), irq
}

func TestDividerAndReset(t *testing.T) {
	tm, _ := newTimer()
	tm.Tick(256 * 3)
	if got := tm.Read(DIV); got != 3 {
		t.Fatalf("DIV got %d want 3", got)
	}
	tm.Write(DIV, 0x55)
	if got := tm.Read(DIV); got != 0 {
		t.Fatalf("DIV after write got %d want 0", got)
	}
}

func TestTIMARates(t *testing.T) {
	cases := []struct {
		tac    byte
		period int
	}{
		{0x04, 1024},
		{0x05, 16},
		{0x06, 64},
		{0x07, 256},
	}
	for _, tc := range cases {
		tm, _ := newTimer()
		tm.Write(TAC, tc.tac)
		tm.Tick(tc.period*3 - 1)
		if got := tm.Read(TIMA); got != 2 {
			t.Fatalf("TAC %02x: TIMA got %d want 2 before third edge", tc.tac, got)
		}
		tm.Tick(1)
		if got := tm.Read(TIMA); got != 3 {
			t.Fatalf("TAC %02x: TIMA got %d want 3", tc.tac, got)
		}
	}
}

func TestTIMADisabled(t *testing.T) {
	tm, _ := newTimer()
	tm.Write(TAC, 0x01)
	tm.Tick(4096)
	if got := tm.Read(TIMA); got != 0 {
		t.Fatalf("TIMA got %d with timer disabled", got)
	}
	if got := tm.Read(TAC); got != 0xF9 {
		t.Fatalf("TAC got %02x want f9", got)
	}
}

func TestOverflowReloadsAfterDelay(t *testing.T) {
	tm, irq := newTimer()
	tm.Write(TMA, 0xFE)
	tm.Write(TIMA, 0xFF)
	tm.Write(TAC, 0x05)
	tm.Tick(16)
	if got := tm.Read(TIMA); got != 0 {
		t.Fatalf("TIMA right after overflow got %02x want 00", got)
	}
	if _, ok := irq.Next(); ok {
		t.Fatalf("timer interrupt raised before reload")
	}
	tm.Tick(4)
	if got := tm.Read(TIMA); got != 0xFE {
		t.Fatalf("TIMA after reload got %02x want fe", got)
	}
	if src, ok := irq.Next(); !ok || src != interrupts.Timer {
		t.Fatalf("expected timer interrupt, got %d,%v", src, ok)
	}
}

func TestDIVWriteClocksTIMAOnFallingEdge(t *testing.T) {
	tm, _ := newTimer()
	tm.Write(TAC, 0x05)
	tm.Tick(8) // bit 3 now set
	tm.Write(DIV, 0)
	if got := tm.Read(TIMA); got != 1 {
		t.Fatalf("TIMA got %d want 1 after DIV reset edge", got)
	}
}

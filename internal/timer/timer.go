// Package timer implements DIV/TIMA/TMA/TAC.
//
// The divider is the upper byte of a 16-bit counter advanced every cycle.
// TIMA is clocked by the falling edge of one counter bit selected by TAC,
// ANDed with the TAC enable bit, so writes to DIV or TAC can clock it too.
package timer

import (
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

const (
	DIV  = 0xFF04
	TIMA = 0xFF05
	TMA  = 0xFF06
	TAC  = 0xFF07
)

// reloadDelay is the number of cycles TIMA reads 0 after overflowing.
const reloadDelay = 4

var tacBits = [4]uint16{1 << 9, 1 << 3, 1 << 5, 1 << 7}

type Timer struct {
	counter uint16
	tima    byte
	tma     byte
	tac     byte

	reload int // cycles until TMA is loaded after an overflow, 0 if idle

	irq *interrupts.Controller
}

func New(irq *interrupts.Controller) *Timer {
	return &Timer{irq: irq}
}

// Reset sets the state found after the DMG boot ROM.
func (t *Timer) Reset() {
	t.counter = 0xABCC
	t.tima, t.tma, t.tac = 0, 0, 0
	t.reload = 0
}

func (t *Timer) signal() bool {
	return t.tac&0x04 != 0 && t.counter&tacBits[t.tac&3] != 0
}

func (t *Timer) increment() {
	t.tima++
	if t.tima == 0 {
		t.reload = reloadDelay
	}
}

// Tick advances the timer by the given number of cycles.
func (t *Timer) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		if t.reload > 0 {
			t.reload--
			if t.reload == 0 {
				t.tima = t.tma
				t.irq.Request(interrupts.Timer)
			}
		}
		prev := t.signal()
		t.counter++
		if prev && !t.signal() {
			t.increment()
		}
	}
}

// ResetDivider clears the internal counter, as a DIV write or STOP does.
func (t *Timer) ResetDivider() {
	prev := t.signal()
	t.counter = 0
	if prev {
		t.increment()
	}
}

func (t *Timer) Read(addr uint16) byte {
	switch addr {
	case DIV:
		return byte(t.counter >> 8)
	case TIMA:
		return t.tima
	case TMA:
		return t.tma
	case TAC:
		return 0xF8 | t.tac
	}
	return 0xFF
}

func (t *Timer) Write(addr uint16, v byte) {
	switch addr {
	case DIV:
		t.ResetDivider()
	case TIMA:
		// a write during the reload window cancels the reload
		t.tima = v
		t.reload = 0
	case TMA:
		t.tma = v
	case TAC:
		prev := t.signal()
		t.tac = v & 0x07
		if prev && !t.signal() {
			t.increment()
		}
	}
}

// Divider returns the full internal counter.
func (t *Timer) Divider() uint16 { return t.counter }

func (t *Timer) Save(w *state.Writer) {
	w.Write16(t.counter)
	w.Write8(t.tima)
	w.Write8(t.tma)
	w.Write8(t.tac)
	w.WriteInt(t.reload)
}

func (t *Timer) Load(r *state.Reader) {
	t.counter = r.Read16()
	t.tima = r.Read8()
	t.tma = r.Read8()
	t.tac = r.Read8() & 0x07
	t.reload = r.ReadInt()
}

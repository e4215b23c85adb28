package joypad

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/interrupts"
)

func TestP1GroupSelection(t *testing.T) {
	irq := interrupts.New()
	var keys controller.KeyState
	j := New(irq, &keys)

	keys.Set(controller.KeyDown, true)
	keys.Set(controller.KeyStart, true)

	j.Write(0x20) // directions
	if got := j.Read(); got != 0xE7 {
		t.Fatalf("directions P1 got %02x want e7", got)
	}
	j.Write(0x10) // actions
	if got := j.Read(); got != 0xD7 {
		t.Fatalf("actions P1 got %02x want d7", got)
	}
	j.Write(0x30)
	if got := j.Read(); got != 0xFF {
		t.Fatalf("no group P1 got %02x want ff", got)
	}
}

func TestPressEdgeRequestsInterrupt(t *testing.T) {
	irq := interrupts.New()
	irq.SetEnable(1 << interrupts.Joypad)
	var keys controller.KeyState
	j := New(irq, &keys)
	j.Write(0x10) // actions selected

	keys.Set(controller.KeyUp, true)
	if !j.Poll() {
		t.Fatalf("Poll did not report press")
	}
	if _, ok := irq.Next(); ok {
		t.Fatalf("interrupt for unselected group")
	}

	keys.Set(controller.KeyA, true)
	j.Poll()
	if src, ok := irq.Next(); !ok || src != interrupts.Joypad {
		t.Fatalf("expected joypad interrupt, got %d,%v", src, ok)
	}
	irq.Clear(interrupts.Joypad)

	// holding the key is not a new edge
	j.Poll()
	if _, ok := irq.Next(); ok {
		t.Fatalf("interrupt raised again while key held")
	}
}

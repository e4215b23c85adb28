// Package joypad implements the P1 register on top of a polled
// controller.JoypadController.
package joypad

import (
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

const P1 = 0xFF00

const (
	selectDirections = 1 << 4
	selectActions    = 1 << 5
)

type Joypad struct {
	sel  byte  // P1 bits 4-5 as written, 0 means selected
	keys uint8 // last polled mask, KeyRight in bit 0

	src controller.JoypadController
	irq *interrupts.Controller
}

func New(irq *interrupts.Controller, src controller.JoypadController) *Joypad {
	return &Joypad{irq: irq, src: src, sel: selectDirections | selectActions}
}

// SetSource replaces the controller the key state is polled from.
func (j *Joypad) SetSource(src controller.JoypadController) { j.src = src }

func (j *Joypad) Reset() {
	j.sel = selectDirections | selectActions
	j.keys = 0
}

// Poll samples the controller. It requests the joypad interrupt when a key
// in a selected group went down and reports whether any key went down.
func (j *Joypad) Poll() bool {
	if j.src == nil {
		return false
	}
	var m uint8
	for _, k := range controller.Keys {
		if j.src.IsKeyPressed(k) {
			m |= 1 << k
		}
	}
	pressed := m &^ j.keys
	j.keys = m
	if pressed == 0 {
		return false
	}
	if j.lines(pressed) != 0 {
		j.irq.Request(interrupts.Joypad)
	}
	return true
}

// lines returns the active-high input lines of the selected groups.
func (j *Joypad) lines(m uint8) byte {
	var v byte
	if j.sel&selectDirections == 0 {
		v |= m & 0x0F
	}
	if j.sel&selectActions == 0 {
		v |= m >> 4
	}
	return v
}

func (j *Joypad) Read() byte {
	j.Poll()
	return 0xC0 | j.sel | (0x0F &^ j.lines(j.keys))
}

func (j *Joypad) Write(v byte) {
	j.sel = v & (selectDirections | selectActions)
}

func (j *Joypad) Save(w *state.Writer) {
	w.Write8(j.sel)
	w.Write8(j.keys)
}

func (j *Joypad) Load(r *state.Reader) {
	j.sel = r.Read8() & (selectDirections | selectActions)
	j.keys = r.Read8()
}

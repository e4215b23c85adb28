// Package serial implements the link port registers SB and SC. Without a
// link partner every transfer shifts in 0xFF.
package serial

import (
	"io"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

const (
	SB = 0xFF01
	SC = 0xFF02
)

// cyclesPerBit at the 8192 Hz internal clock.
const cyclesPerBit = 512

type Serial struct {
	sb, sc    byte
	remaining int // cycles left in the current transfer

	out io.Writer
	irq *interrupts.Controller
}

func New(irq *interrupts.Controller) *Serial {
	return &Serial{irq: irq}
}

// SetWriter attaches a sink that receives each transmitted byte.
func (s *Serial) SetWriter(w io.Writer) { s.out = w }

func (s *Serial) Reset() {
	s.sb, s.sc, s.remaining = 0, 0, 0
}

func (s *Serial) Read(addr uint16) byte {
	switch addr {
	case SB:
		return s.sb
	case SC:
		return 0x7E | s.sc
	}
	return 0xFF
}

func (s *Serial) Write(addr uint16, v byte) {
	switch addr {
	case SB:
		s.sb = v
	case SC:
		s.sc = v & 0x81
		if s.sc == 0x81 {
			if s.out != nil {
				_, _ = s.out.Write([]byte{s.sb})
			}
			s.remaining = 8 * cyclesPerBit
		}
	}
}

func (s *Serial) Tick(cycles int) {
	if s.remaining <= 0 {
		return
	}
	s.remaining -= cycles
	if s.remaining <= 0 {
		s.remaining = 0
		s.sb = 0xFF
		s.sc &^= 0x80
		s.irq.Request(interrupts.Serial)
	}
}

func (s *Serial) Save(w *state.Writer) {
	w.Write8(s.sb)
	w.Write8(s.sc)
	w.WriteInt(s.remaining)
}

func (s *Serial) Load(r *state.Reader) {
	s.sb = r.Read8()
	s.sc = r.Read8()
	s.remaining = r.ReadInt()
}

package emu

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/cart"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

// sections lists the state components in blob order.
func (g *engine) sections() []state.Stater {
	b := g.bus
	return []state.Stater{g.cpu, b.IRQ, b.Timer, b.Serial, b.Joypad, b.PPU, b.APU, b, g.cart}
}

func (g *engine) save() []byte {
	w := state.NewWriter(64 * 1024)
	for _, s := range g.sections() {
		s.Save(w)
	}
	return w.Bytes()
}

func (g *engine) load(payload []byte) error {
	r := state.NewReader(payload)
	for _, s := range g.sections() {
		s.Load(r)
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: %v", state.ErrSizeMismatch, err)
	}
	if n := r.Remaining(); n != 0 {
		return fmt.Errorf("%w: %d trailing bytes", state.ErrSizeMismatch, n)
	}
	return nil
}

// SaveState writes a sealed snapshot of the running machine to w.
func (e *Emulator) SaveState(w io.Writer) error {
	if e.eng == nil {
		return ErrNoCartridge
	}
	blob, err := state.Seal(e.eng.save())
	if err != nil {
		return err
	}
	if _, err := w.Write(blob); err != nil {
		return fmt.Errorf("emu: write state: %w", err)
	}
	e.log.WithField("bytes", len(blob)).Debug("state saved")
	return nil
}

// LoadState restores a snapshot written by SaveState. The blob is decoded
// into a separate machine first; on any error the running one is untouched.
func (e *Emulator) LoadState(r io.Reader) error {
	if e.eng == nil {
		return ErrNoCartridge
	}
	blob, err := io.ReadAll(io.LimitReader(r, state.MaxSize+1))
	if err != nil {
		return fmt.Errorf("emu: read state: %w", err)
	}
	payload, err := state.Open(blob)
	if err != nil {
		return err
	}
	eng, _, st := e.newEngine(e.rom)
	if st != cart.Loaded {
		return fmt.Errorf("emu: rebuild cartridge: %s", st)
	}
	if err := eng.load(payload); err != nil {
		e.log.WithError(err).Warn("state rejected")
		return err
	}
	eng.cycles = e.eng.cycles
	e.eng = eng
	e.log.WithFields(logrus.Fields{"bytes": len(blob)}).Debug("state loaded")
	return nil
}

// Package emu ties the core components into a runnable Game Boy.
package emu

import (
	"bytes"
	"errors"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/bus"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/cart"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/romloader"
)

// RetCode is the bit set returned by DoTick.
type RetCode uint32

const (
	// RetNewFrame reports that the PPU presented a frame during the tick.
	RetNewFrame RetCode = 1 << iota
)

var ErrNoCartridge = errors.New("emu: no cartridge loaded")

// Emulator owns one Game Boy. It is not safe for concurrent use except for
// SetInputState and IsKeyPressed.
type Emulator struct {
	cfg  Config
	opts options
	log  logrus.FieldLogger

	keys controller.KeyState

	eng    *engine
	rom    []byte
	header *cart.Header
	status cart.Status

	frames atomic.Uint64
}

// engine is everything a save state covers.
type engine struct {
	bus  *bus.Bus
	cpu  *cpu.CPU
	cart cart.Cartridge

	cycles uint64
}

func New(cfg Config, opts ...Option) *Emulator {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = Defaults().SampleRate
	}
	e := &Emulator{cfg: cfg, status: cart.NoROMLoaded}
	for _, opt := range opts {
		opt(&e.opts)
	}
	e.log = e.opts.log
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e.log = l
	}
	return e
}

// LoadGame reads a ROM file, unpacking archives, and loads it.
func (e *Emulator) LoadGame(path string) cart.Status {
	data, err := romloader.ReadFile(path)
	if err != nil {
		st := cart.ROMFileNotReadable
		if errors.Is(err, romloader.ErrTooBig) {
			st = cart.ROMTooBig
		}
		e.unload(st)
		e.log.WithField("rom", path).WithError(err).Warn("cannot read ROM")
		return st
	}
	st := e.LoadROM(data)
	e.log.WithFields(logrus.Fields{"rom": path, "status": st.String()}).Info("load game")
	return st
}

// LoadROM loads a ROM image. On failure no cartridge remains loaded and
// DoTick does nothing until the next successful load.
func (e *Emulator) LoadROM(data []byte) cart.Status {
	rom := append([]byte(nil), data...)
	eng, h, st := e.newEngine(rom)
	e.header = h
	if st != cart.Loaded {
		e.unload(st)
		return st
	}
	e.eng, e.rom, e.status = eng, rom, st
	e.frames.Store(0)
	e.log.WithFields(logrus.Fields{
		"title": h.Title,
		"type":  h.CartTypeStr,
		"bytes": len(rom),
	}).Debug("cartridge inserted")
	return st
}

func (e *Emulator) unload(st cart.Status) {
	e.eng, e.rom, e.status = nil, nil, st
}

// newEngine builds a powered-on machine around a fresh cartridge.
func (e *Emulator) newEngine(rom []byte) (*engine, *cart.Header, cart.Status) {
	var copts []cart.Option
	if e.opts.clock != nil {
		copts = append(copts, cart.WithClock(e.opts.clock))
	}
	c, h, st := cart.Load(rom, copts...)
	if st != cart.Loaded {
		return nil, h, st
	}

	b := bus.New(c, bus.Options{
		Display:    e.opts.display,
		Audio:      e.opts.audio,
		Joypad:     e,
		SampleRate: e.cfg.SampleRate,
	})
	b.Serial.SetWriter(e.opts.serial)
	eng := &engine{bus: b, cpu: cpu.New(b, b.IRQ), cart: c}
	if e.cfg.Trace {
		eng.cpu.SetTracer(e.trace)
	}
	e.powerOn(eng)
	return eng, h, st
}

func (e *Emulator) powerOn(eng *engine) {
	eng.bus.Reset()
	if len(e.cfg.BootROM) >= bus.BootROMSize {
		eng.bus.SetBootROM(e.cfg.BootROM)
		eng.cpu.ResetBoot()
		return
	}
	eng.cpu.ResetNoBoot()
	applyDMGPostBootIO(eng.bus)
}

func (e *Emulator) trace(pc uint16, op byte) {
	e.log.WithFields(logrus.Fields{"pc": pc, "op": op}).Trace("exec")
}

// applyDMGPostBootIO sets a minimal set of IO registers to DMG post-boot defaults,
// so ROMs can start from PC=0x0100 without a boot ROM and still have LCD enabled.
func applyDMGPostBootIO(b *bus.Bus) {
	// Joypad: no group selected
	b.Write(0xFF00, 0xCF)
	// Timers
	b.Write(0xFF05, 0x00) // TIMA
	b.Write(0xFF06, 0x00) // TMA
	b.Write(0xFF07, 0x00) // TAC (disabled)
	// APU first: LCD on below starts the frame clock
	b.Write(0xFF26, 0x80) // NR52 power
	b.Write(0xFF24, 0x77) // NR50: Vin off, L=7, R=7
	b.Write(0xFF25, 0xF3) // NR51
	// PPU regs
	b.Write(0xFF42, 0x00) // SCY
	b.Write(0xFF43, 0x00) // SCX
	b.Write(0xFF45, 0x00) // LYC
	b.Write(0xFF47, 0xFC) // BGP
	b.Write(0xFF48, 0xFF) // OBP0
	b.Write(0xFF49, 0xFF) // OBP1
	b.Write(0xFF4A, 0x00) // WY
	b.Write(0xFF4B, 0x00) // WX
	b.Write(0xFF40, 0x91) // LCDC: LCD on, BG on, tile data 8000, BG map 9800
	b.Write(0xFF50, 0x01) // boot ROM unmapped
	b.Write(0xFFFF, 0x00)
	b.IRQ.SetFlag(0x01)
}

// DoTick runs the machine until the PPU presents a frame or one frame worth
// of cycles has elapsed, whichever comes first.
func (e *Emulator) DoTick() RetCode {
	eng := e.eng
	if eng == nil {
		return 0
	}
	if eng.bus.Joypad.Poll() {
		eng.cpu.Wake()
	}
	var ret RetCode
	for spent := 0; spent < ppu.DotsPerFrame; {
		n := eng.cpu.Step()
		spent += n
		eng.cycles += uint64(n)
		if eng.bus.PPU.FrameDone() {
			ret |= RetNewFrame
			e.frames.Add(1)
			break
		}
	}
	return ret
}

// SetInputState presses or releases a key. It may be called from any goroutine.
func (e *Emulator) SetInputState(key controller.Key, pressed bool) {
	e.keys.Set(key, pressed)
}

// IsKeyPressed reports the key as set through SetInputState or held on the
// controller given to WithJoypad.
func (e *Emulator) IsKeyPressed(key controller.Key) bool {
	if e.keys.IsKeyPressed(key) {
		return true
	}
	return e.opts.joypad != nil && e.opts.joypad.IsKeyPressed(key)
}

// Reset power-cycles the loaded game. Cartridge RAM survives.
func (e *Emulator) Reset() {
	if e.eng == nil {
		return
	}
	var ram bytes.Buffer
	if e.eng.cart.RAMSize() > 0 {
		if err := e.eng.cart.WriteRAM(&ram); err != nil {
			e.log.WithError(err).Warn("reset: cartridge RAM not kept")
			ram.Reset()
		}
	}
	eng, _, st := e.newEngine(e.rom)
	if st != cart.Loaded {
		return
	}
	if ram.Len() > 0 {
		if err := eng.cart.LoadRAM(&ram); err != nil {
			e.log.WithError(err).Warn("reset: cartridge RAM not restored")
		}
	}
	e.eng = eng
	e.log.Debug("reset")
}

// LoadCartridgeRAM fills battery backed RAM from r.
func (e *Emulator) LoadCartridgeRAM(r io.Reader) error {
	if e.eng == nil {
		return ErrNoCartridge
	}
	return e.eng.cart.LoadRAM(r)
}

// WriteCartridgeRAM dumps battery backed RAM to w.
func (e *Emulator) WriteCartridgeRAM(w io.Writer) error {
	if e.eng == nil {
		return ErrNoCartridge
	}
	return e.eng.cart.WriteRAM(w)
}

// SupportsSaving reports whether the cartridge has battery backed RAM.
func (e *Emulator) SupportsSaving() bool {
	return e.eng != nil && e.eng.cart.HasBattery() && e.eng.cart.RAMSize() > 0
}

// Header of the last ROM passed to LoadROM, nil if it was unreadable.
func (e *Emulator) Header() *cart.Header { return e.header }

func (e *Emulator) Status() cart.Status { return e.status }

// SaveName is the file stem for battery and state files, empty without a
// cartridge.
func (e *Emulator) SaveName() string {
	if e.eng == nil || e.header == nil {
		return ""
	}
	return e.header.SaveName()
}

// Cycles returns the T-cycles executed since the game was loaded.
func (e *Emulator) Cycles() uint64 {
	if e.eng == nil {
		return 0
	}
	return e.eng.cycles
}

// Frames returns the number of frames presented since the game was loaded.
func (e *Emulator) Frames() uint64 { return e.frames.Load() }

// CPUState exposes the processor run state for hosts that detect hangs.
func (e *Emulator) CPUState() (cpu.State, bool) {
	if e.eng == nil {
		return cpu.Running, false
	}
	return e.eng.cpu.State(), e.eng.cpu.Locked()
}

// Logger is the logger given to WithLogger.
func (e *Emulator) Logger() logrus.FieldLogger { return e.log }

// Package cpu implements the SM83 interpreter.
package cpu

import (
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

// Bus is the CPU's view of the address space. Tick advances every other
// clocked component.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
	Tick(cycles int)
}

// State is the CPU run state.
type State byte

const (
	Running State = iota
	Halted
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

const divAddr = 0xFF04

// CPU implements the SM83 core.
type CPU struct {
	// 8-bit registers
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	IME   bool
	state State
	// imeDelay counts down to the instruction boundary where EI takes effect
	imeDelay int
	// haltBug makes the next fetch leave PC in place
	haltBug bool
	locked  bool

	bus    Bus
	irq    *interrupts.Controller
	tracer func(pc uint16, op byte)
}

// New creates a CPU in the state it has when the boot ROM starts.
func New(b Bus, irq *interrupts.Controller) *CPU {
	return &CPU{bus: b, irq: irq, SP: 0xFFFE}
}

// SetPC allows tests or a boot stub to set the program counter.
func (c *CPU) SetPC(pc uint16) { c.PC = pc }

// SetTracer installs a hook called with PC and opcode before each
// instruction. nil removes it.
func (c *CPU) SetTracer(fn func(pc uint16, op byte)) { c.tracer = fn }

// ResetNoBoot sets registers to typical DMG post-boot state.
// Useful when running without a boot ROM.
func (c *CPU) ResetNoBoot() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.clearRunState()
}

// ResetBoot sets the power-on state used when a boot ROM runs from 0x0000.
func (c *CPU) ResetBoot() {
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0, 0, 0
	c.SP = 0xFFFE
	c.PC = 0x0000
	c.clearRunState()
}

func (c *CPU) clearRunState() {
	c.IME = false
	c.state = Running
	c.imeDelay = 0
	c.haltBug = false
	c.locked = false
}

// State reports whether the CPU is running, halted or stopped.
func (c *CPU) State() State { return c.state }

// Locked reports whether an illegal opcode hung the CPU.
func (c *CPU) Locked() bool { return c.locked }

// Wake leaves STOP mode. The joypad calls it on a key press.
func (c *CPU) Wake() {
	if c.state == Stopped {
		c.state = Running
	}
}

// Step executes one instruction (or services one interrupt) and returns
// the T-cycles consumed. The bus is ticked by the same amount.
func (c *CPU) Step() (cycles int) {
	defer func() {
		if cycles > 0 {
			c.bus.Tick(cycles)
		}
	}()

	if c.locked {
		return 4
	}

	switch c.state {
	case Stopped:
		if c.irq.Pending()&(1<<interrupts.Joypad) == 0 {
			return 4
		}
		c.state = Running
	case Halted:
		if c.irq.Pending() == 0 {
			return 4
		}
		// a pending interrupt wakes HALT whether or not IME allows servicing
		c.state = Running
		if c.IME {
			return c.serviceInterrupt() + 4
		}
	}

	if c.IME {
		if cyc := c.serviceInterrupt(); cyc != 0 {
			return cyc
		}
	}

	pc := c.PC
	op := c.fetch8()
	if c.tracer != nil {
		c.tracer(pc, op)
	}
	cycles = c.execute(op)

	// EI takes effect after the instruction that follows it
	if c.imeDelay > 0 {
		c.imeDelay--
		if c.imeDelay == 0 {
			c.IME = true
		}
	}
	return cycles
}

// serviceInterrupt dispatches the highest priority pending interrupt.
// It returns 0 when none is pending.
func (c *CPU) serviceInterrupt() int {
	src, ok := c.irq.Next()
	if !ok {
		return 0
	}
	c.irq.Clear(src)
	c.IME = false
	c.imeDelay = 0
	ret := c.PC
	if c.haltBug {
		// EI; HALT with an interrupt pending returns to the HALT itself
		c.haltBug = false
		ret--
	}
	c.push16(ret)
	c.PC = interrupts.Vector(src)
	return 20
}

func (c *CPU) halt() {
	if !c.IME && c.irq.Pending() != 0 {
		c.haltBug = true
		return
	}
	c.state = Halted
}

func (c *CPU) stop() {
	c.fetch8()
	c.bus.Write(divAddr, 0)
	c.state = Stopped
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	if c.haltBug {
		c.haltBug = false
		return b
	}
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | (hi << 8)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | (hi << 8)
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v&0x00FF))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) getAF() uint16 { return uint16(c.A)<<8 | uint16(c.F&0xF0) }
func (c *CPU) setAF(v uint16) {
	c.A = byte(v >> 8)
	c.F = byte(v) & 0xF0
}
func (c *CPU) getBC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) setBC(v uint16) {
	c.B = byte(v >> 8)
	c.C = byte(v)
}
func (c *CPU) getDE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) setDE(v uint16) {
	c.D = byte(v >> 8)
	c.E = byte(v)
}
func (c *CPU) getHL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) setHL(v uint16) {
	c.H = byte(v >> 8)
	c.L = byte(v)
}

// AF, BC, DE and HL expose the register pairs.
func (c *CPU) AF() uint16 { return c.getAF() }
func (c *CPU) BC() uint16 { return c.getBC() }
func (c *CPU) DE() uint16 { return c.getDE() }
func (c *CPU) HL() uint16 { return c.getHL() }

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

// Save writes the CPU section of a save state.
func (c *CPU) Save(w *state.Writer) {
	for _, r := range [...]byte{c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L} {
		w.Write8(r)
	}
	w.Write16(c.SP)
	w.Write16(c.PC)
	w.WriteBool(c.IME)
	w.Write8(byte(c.state))
	w.Write8(byte(c.imeDelay))
	w.WriteBool(c.haltBug)
	w.WriteBool(c.locked)
}

func (c *CPU) Load(r *state.Reader) {
	for _, reg := range [...]*byte{&c.A, &c.F, &c.B, &c.C, &c.D, &c.E, &c.H, &c.L} {
		*reg = r.Read8()
	}
	c.F &= 0xF0
	c.SP = r.Read16()
	c.PC = r.Read16()
	c.IME = r.ReadBool()
	c.state = State(r.Read8())
	if c.state > Stopped {
		c.state = Running
	}
	c.imeDelay = int(r.Read8() % 3)
	c.haltBug = r.ReadBool()
	c.locked = r.ReadBool()
}

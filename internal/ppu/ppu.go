package ppu

import (
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

const (
	LCDC = 0xFF40
	STAT = 0xFF41
	SCY  = 0xFF42
	SCX  = 0xFF43
	LY   = 0xFF44
	LYC  = 0xFF45
	BGP  = 0xFF47
	OBP0 = 0xFF48
	OBP1 = 0xFF49
	WY   = 0xFF4A
	WX   = 0xFF4B
)

const (
	DotsPerLine  = 456
	Lines        = 154
	VisibleLines = controller.Height
	// DotsPerFrame is the length of one full LCD frame in CPU cycles.
	DotsPerFrame = DotsPerLine * Lines

	oamDots   = 80
	drawDots  = 172
	hblankDot = oamDots + drawDots
)

// LCD modes as reported in STAT bits 0-1.
const (
	ModeHBlank = 0
	ModeVBlank = 1
	ModeOAM    = 2
	ModeDraw   = 3
)

// PPU models VRAM/OAM, LCDC/STAT regs, LY/LYC and line timing. Each visible
// line is rendered when it enters mode 3 and handed to the display; the
// frame is presented on VBlank entry.
type PPU struct {
	// memory
	vram vram       // 0x8000–0x9FFF
	oam  [0xA0]byte // 0xFE00–0xFE9F

	// regs
	lcdc byte // FF40
	stat byte // FF41 (mode bits 0-1, coincidence flag bit2, enables bits3-6)
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	dot int // dots within current line [0..455]

	// window line counter, advanced only on lines where the window was drawn
	winLine byte
	// level of the combined STAT interrupt line; requests fire on its rising edge
	statLine bool

	frameDone bool
	row       [controller.Width]uint8

	irq     *interrupts.Controller
	display controller.DisplayController
}

func New(irq *interrupts.Controller, display controller.DisplayController) *PPU {
	if display == nil {
		display = controller.NopDisplay{}
	}
	return &PPU{irq: irq, display: display}
}

// SetDisplay swaps the scanline sink. A nil display discards output.
func (p *PPU) SetDisplay(d controller.DisplayController) {
	if d == nil {
		d = controller.NopDisplay{}
	}
	p.display = d
}

// Reset clears memory and registers. The LCD starts switched off.
func (p *PPU) Reset() {
	p.vram = vram{}
	p.oam = [0xA0]byte{}
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc = 0, 0, 0, 0, 0, 0
	p.bgp, p.obp0, p.obp1, p.wy, p.wx = 0, 0, 0, 0, 0
	p.dot, p.winLine = 0, 0
	p.statLine, p.frameDone = false, false
}

func (p *PPU) mode() byte { return p.stat & 0x03 }

func (p *PPU) lcdOn() bool { return p.lcdc&0x80 != 0 }

// CPURead returns bytes for VRAM, OAM, and PPU IO registers. Returns 0xFF for others.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		// VRAM is inaccessible to CPU during mode 3
		if p.mode() == ModeDraw {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if m := p.mode(); m == ModeOAM || m == ModeDraw {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	}
	switch addr {
	case LCDC:
		return p.lcdc
	case STAT:
		// bit7 reads as 1
		return 0x80 | (p.stat & 0x7F)
	case SCY:
		return p.scy
	case SCX:
		return p.scx
	case LY:
		return p.ly
	case LYC:
		return p.lyc
	case BGP:
		return p.bgp
	case OBP0:
		return p.obp0
	case OBP1:
		return p.obp1
	case WY:
		return p.wy
	case WX:
		return p.wx
	}
	return 0xFF
}

// CPUWrite handles writes to VRAM, OAM, and PPU IO regs. Others are ignored here.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.mode() == ModeDraw {
			return
		}
		p.vram[addr-0x8000] = value
		return
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if m := p.mode(); m == ModeOAM || m == ModeDraw {
			return
		}
		p.oam[addr-0xFE00] = value
		return
	}
	switch addr {
	case LCDC:
		prev := p.lcdc
		p.lcdc = value
		switch {
		case !p.lcdOn() && prev&0x80 != 0:
			// Turning LCD off resets LY/mode
			p.ly = 0
			p.dot = 0
			p.setMode(ModeHBlank)
			p.updateLYC()
		case p.lcdOn() && prev&0x80 == 0:
			p.ly = 0
			p.dot = 0
			p.winLine = 0
			p.setMode(ModeOAM)
			p.updateLYC()
		}
	case STAT:
		p.stat = (p.stat & 0x07) | (value & 0x78)
		p.updateSTAT()
	case SCY:
		p.scy = value
	case SCX:
		p.scx = value
	case LY:
		// read only
	case LYC:
		p.lyc = value
		p.updateLYC()
	case BGP:
		p.bgp = value
	case OBP0:
		p.obp0 = value
	case OBP1:
		p.obp1 = value
	case WY:
		p.wy = value
	case WX:
		p.wx = value
	}
}

// WriteOAM stores a byte in OAM regardless of the current mode, as DMA does.
func (p *PPU) WriteOAM(index int, value byte) {
	if index >= 0 && index < len(p.oam) {
		p.oam[index] = value
	}
}

// ReadVRAM returns a VRAM byte without the mode 3 lock, as DMA sees it.
func (p *PPU) ReadVRAM(addr uint16) byte { return p.vram.Read(addr) }

// Tick advances PPU state by the given number of dots (CPU cycles).
func (p *PPU) Tick(cycles int) {
	if !p.lcdOn() {
		return
	}
	for i := 0; i < cycles; i++ {
		p.dot++
		if p.ly < VisibleLines {
			switch p.dot {
			case oamDots:
				p.setMode(ModeDraw)
				p.renderLine()
			case hblankDot:
				p.setMode(ModeHBlank)
			}
		}
		if p.dot < DotsPerLine {
			continue
		}

		p.dot = 0
		p.ly++
		switch {
		case p.ly == VisibleLines:
			p.setMode(ModeVBlank)
			p.request(interrupts.VBlank)
			p.display.DrawScreen()
			p.frameDone = true
		case p.ly >= Lines:
			p.ly = 0
			p.winLine = 0
			p.setMode(ModeOAM)
		case p.ly < VisibleLines:
			p.setMode(ModeOAM)
		}
		p.updateLYC()
	}
}

// FrameDone reports whether a frame was presented since the last call and
// clears the flag.
func (p *PPU) FrameDone() bool {
	done := p.frameDone
	p.frameDone = false
	return done
}

func (p *PPU) request(source int) {
	if p.irq != nil {
		p.irq.Request(source)
	}
}

func (p *PPU) setMode(mode byte) {
	if p.mode() == mode {
		return
	}
	p.stat = (p.stat &^ 0x03) | (mode & 0x03)
	p.updateSTAT()
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
	} else {
		p.stat &^= 1 << 2
	}
	p.updateSTAT()
}

// updateSTAT recomputes the STAT interrupt line and raises LCDStat on a
// rising edge, so overlapping sources only request once.
func (p *PPU) updateSTAT() {
	line := false
	if p.lcdOn() {
		switch p.mode() {
		case ModeHBlank:
			line = p.stat&(1<<3) != 0
		case ModeVBlank:
			line = p.stat&(1<<4) != 0
		case ModeOAM:
			line = p.stat&(1<<5) != 0
		}
		if p.stat&(1<<2) != 0 && p.stat&(1<<6) != 0 {
			line = true
		}
	}
	if line && !p.statLine {
		p.request(interrupts.LCDStat)
	}
	p.statLine = line
}

// renderLine composes the current line and passes it to the display.
func (p *PPU) renderLine() {
	p.row = p.composeLine()
	p.display.DrawScanLine(int(p.ly), &p.row)
}

// Save writes the PPU section of a save state.
func (p *PPU) Save(w *state.Writer) {
	w.WriteData(p.vram[:])
	w.WriteData(p.oam[:])
	for _, r := range [...]byte{p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc, p.bgp, p.obp0, p.obp1, p.wy, p.wx, p.winLine} {
		w.Write8(r)
	}
	w.Write16(uint16(p.dot))
	w.WriteBool(p.statLine)
}

func (p *PPU) Load(r *state.Reader) {
	r.ReadData(p.vram[:])
	r.ReadData(p.oam[:])
	for _, reg := range [...]*byte{&p.lcdc, &p.stat, &p.scy, &p.scx, &p.ly, &p.lyc, &p.bgp, &p.obp0, &p.obp1, &p.wy, &p.wx, &p.winLine} {
		*reg = r.Read8()
	}
	p.dot = int(r.Read16()) % DotsPerLine
	if p.ly >= Lines {
		p.ly = 0
	}
	p.statLine = r.ReadBool()
	p.frameDone = false
}

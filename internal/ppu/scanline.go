package ppu

import "github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"

const width = controller.Width

// renderBGScanline returns the background colour indices of line ly.
func renderBGScanline(mem VRAMReader, mapBase uint16, tileData8000 bool, scx, scy, ly byte) [width]byte {
	var out [width]byte
	y := uint16(ly) + uint16(scy)
	w := mapWalker{
		mem:      mem,
		row:      mapBase + (y>>3&31)*32,
		col:      uint16(scx >> 3),
		fineY:    byte(y),
		unsigned: tileData8000,
	}
	for i := byte(0); i < scx&7; i++ {
		w.next()
	}
	for x := range out {
		out[x] = w.next()
	}
	return out
}

// renderWindowScanline overlays window pixels onto line from screen column
// startX (WX-7, may be negative) to the right edge. winLine is the window's
// own line counter.
func renderWindowScanline(mem VRAMReader, mapBase uint16, tileData8000 bool, startX int, winLine byte, line *[width]byte) {
	if startX >= width {
		return
	}
	w := mapWalker{mem: mem, row: mapBase + uint16(winLine>>3)*32, fineY: winLine, unsigned: tileData8000}
	x := startX
	for ; x < 0; x++ {
		w.next()
	}
	for ; x < width; x++ {
		line[x] = w.next()
	}
}

// shade maps a 2-bit color index through a DMG palette register.
func shade(palette, ci byte) uint8 { return (palette >> (ci * 2)) & 0x03 }

func (p *PPU) windowVisible() bool {
	// the window needs both BG (bit0) and window (bit5) enabled
	return p.lcdc&0x21 == 0x21 && p.ly >= p.wy && p.wx <= 166
}

// composeLine mixes background, window and sprites for LY into shades 0..3.
func (p *PPU) composeLine() [width]uint8 {
	var (
		ci  [width]byte
		out [width]uint8
	)
	data8000 := p.lcdc&0x10 != 0
	if p.lcdc&0x01 != 0 {
		bgMap := uint16(0x9800)
		if p.lcdc&0x08 != 0 {
			bgMap = 0x9C00
		}
		ci = renderBGScanline(&p.vram, bgMap, data8000, p.scx, p.scy, p.ly)
		if p.windowVisible() {
			winMap := uint16(0x9800)
			if p.lcdc&0x40 != 0 {
				winMap = 0x9C00
			}
			renderWindowScanline(&p.vram, winMap, data8000, int(p.wx)-7, p.winLine, &ci)
			p.winLine++
		}
		for x := range out {
			out[x] = shade(p.bgp, ci[x])
		}
	}

	if p.lcdc&0x02 != 0 {
		tall := p.lcdc&0x04 != 0
		sprites := SelectSprites(p.oam[:], p.ly, tall)
		obj, pal := ComposeSpriteLine(&p.vram, sprites, p.ly, &ci, tall)
		for x := range out {
			if obj[x] == 0 {
				continue
			}
			if pal[x] == 0 {
				out[x] = shade(p.obp0, obj[x])
			} else {
				out[x] = shade(p.obp1, obj[x])
			}
		}
	}
	return out
}

package ppu

// VRAMReader is read access to video memory for the line renderers.
type VRAMReader interface {
	Read(addr uint16) byte
}

// vram is the PPU's own video memory; the renderer reads it without the
// CPU access restrictions.
type vram [0x2000]byte

func (v *vram) Read(addr uint16) byte {
	if addr < 0x8000 || addr > 0x9FFF {
		return 0xFF
	}
	return v[addr-0x8000]
}

// tileAddr returns the address of row fineY of tile n. With unsigned set
// tiles are numbered from 0x8000, otherwise n is signed around 0x9000.
func tileAddr(n, fineY byte, unsigned bool) uint16 {
	row := uint16(fineY&7) << 1
	if unsigned {
		return 0x8000 + uint16(n)<<4 + row
	}
	return uint16(0x9000+int(int8(n))<<4) + row
}

// shifter holds one tile row as two bit planes and emits colour indices
// leftmost pixel first.
type shifter struct {
	lo, hi byte
	left   int
}

func (s *shifter) load(lo, hi byte) { s.lo, s.hi, s.left = lo, hi, 8 }

func (s *shifter) empty() bool { return s.left == 0 }

func (s *shifter) shift() byte {
	ci := (s.hi>>7)<<1 | s.lo>>7
	s.lo <<= 1
	s.hi <<= 1
	s.left--
	return ci
}

// mapWalker streams the pixels of one tile map row, wrapping after 32
// tiles.
type mapWalker struct {
	mem      VRAMReader
	row      uint16 // first map entry of the row
	col      uint16
	fineY    byte
	unsigned bool
	px       shifter
}

func (w *mapWalker) fetch() {
	a := tileAddr(w.mem.Read(w.row+w.col), w.fineY, w.unsigned)
	w.px.load(w.mem.Read(a), w.mem.Read(a+1))
	w.col = (w.col + 1) & 31
}

func (w *mapWalker) next() byte {
	if w.px.empty() {
		w.fetch()
	}
	return w.px.shift()
}

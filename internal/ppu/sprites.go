package ppu

import "slices"

// MaxSpritesPerLine is the OAM scan limit for one line.
const MaxSpritesPerLine = 10

// Sprite attribute bits.
const (
	AttrBehindBG = 1 << 7
	AttrYFlip    = 1 << 6
	AttrXFlip    = 1 << 5
	AttrPalette  = 1 << 4
)

// Sprite is one OAM entry in screen coordinates.
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	OAMIndex int
}

func spriteHeight(tall bool) int {
	if tall {
		return 16
	}
	return 8
}

// SelectSprites scans OAM in order and returns at most ten sprites that
// overlap line ly.
func SelectSprites(oam []byte, ly byte, tall bool) []Sprite {
	h := spriteHeight(tall)
	out := make([]Sprite, 0, MaxSpritesPerLine)
	for i := 0; i+3 < len(oam) && len(out) < MaxSpritesPerLine; i += 4 {
		y := int(oam[i]) - 16
		if int(ly) < y || int(ly) >= y+h {
			continue
		}
		out = append(out, Sprite{
			X:        int(oam[i+1]) - 8,
			Y:        y,
			Tile:     oam[i+2],
			Attr:     oam[i+3],
			OAMIndex: i / 4,
		})
	}
	return out
}

// ComposeSpriteLine draws sprites for line ly and returns per-pixel color
// indices (0 means no sprite) and palette selects (0: OBP0, 1: OBP1).
// Where sprites overlap, the lower X wins and ties go to the lower OAM
// index. The winning pixel is hidden when it has the behind-BG attribute
// and bgci is non-zero there.
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci *[width]byte, tall bool) (ci, pal [width]byte) {
	ordered := slices.Clone(sprites)
	slices.SortStableFunc(ordered, func(a, b Sprite) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.OAMIndex - b.OAMIndex
	})

	h := spriteHeight(tall)
	var behind [width]bool
	// lowest priority first so higher priority pixels overwrite
	for i := len(ordered) - 1; i >= 0; i-- {
		s := ordered[i]
		row := int(ly) - s.Y
		if row < 0 || row >= h {
			continue
		}
		if s.Attr&AttrYFlip != 0 {
			row = h - 1 - row
		}
		tile := s.Tile
		if tall {
			tile &= 0xFE
		}
		addr := 0x8000 + uint16(tile)*16 + uint16(row)*2
		lo, hi := mem.Read(addr), mem.Read(addr+1)
		for px := 0; px < 8; px++ {
			x := s.X + px
			if x < 0 || x >= width {
				continue
			}
			bit := 7 - byte(px)
			if s.Attr&AttrXFlip != 0 {
				bit = byte(px)
			}
			c := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			if c == 0 {
				continue
			}
			ci[x] = c
			pal[x] = (s.Attr & AttrPalette) >> 4
			behind[x] = s.Attr&AttrBehindBG != 0
		}
	}
	for x := range ci {
		if behind[x] && bgci[x] != 0 {
			ci[x] = 0
		}
	}
	return ci, pal
}

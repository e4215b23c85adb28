package ppu

import "testing"

func TestSelectSpritesLimitAndOrder(t *testing.T) {
	oam := make([]byte, 0xA0)
	for i := 0; i < 40; i++ {
		oam[i*4] = 16 + 4  // y = 4
		oam[i*4+1] = byte(160 - i)
	}
	// entry 3 is off this line
	oam[3*4] = 0
	got := SelectSprites(oam, 6, false)
	if len(got) != MaxSpritesPerLine {
		t.Fatalf("selected %d sprites, want %d", len(got), MaxSpritesPerLine)
	}
	want := []int{0, 1, 2, 4, 5, 6, 7, 8, 9, 10}
	for i, s := range got {
		if s.OAMIndex != want[i] {
			t.Fatalf("sprite %d has OAM index %d want %d", i, s.OAMIndex, want[i])
		}
	}
	if got[0].Y != 4 || got[0].X != 152 {
		t.Fatalf("screen coords got (%d,%d)", got[0].X, got[0].Y)
	}
}

func TestSelectSpritesTall(t *testing.T) {
	oam := make([]byte, 0xA0)
	oam[0] = 16
	if len(SelectSprites(oam, 12, false)) != 0 {
		t.Fatalf("8x8 sprite selected on row 12")
	}
	if len(SelectSprites(oam, 12, true)) != 1 {
		t.Fatalf("8x16 sprite not selected on row 12")
	}
}

func TestComposeSpriteLinePriorityAndTransparency(t *testing.T) {
	mem := mockVRAM{}
	// single opaque leftmost pixel
	mem[0x8000] = 0x80
	sprites := []Sprite{{X: 10, Y: 5, Tile: 0, OAMIndex: 0}}
	var bgci [width]byte
	out, _ := ComposeSpriteLine(mem, sprites, 5, &bgci, false)
	if out[10] == 0 || out[11] != 0 {
		t.Fatalf("expected a single sprite pixel at x=10, got %v", out[9:12])
	}
	sprites[0].Attr = AttrBehindBG
	bgci[10] = 1
	out, _ = ComposeSpriteLine(mem, sprites, 5, &bgci, false)
	if out[10] != 0 {
		t.Fatalf("expected sprite pixel to be hidden behind BG")
	}
	bgci[10] = 0
	out, _ = ComposeSpriteLine(mem, sprites, 5, &bgci, false)
	if out[10] == 0 {
		t.Fatalf("behind-BG sprite should show over BG color 0")
	}
}

func TestComposeSpriteLineLowerXWins(t *testing.T) {
	mem := mockVRAM{}
	mem[0x8000] = 0xFF // tile 0: color 1
	mem[0x8010] = 0xFF // tile 1: color 3
	mem[0x8011] = 0xFF
	s0 := Sprite{X: 19, Tile: 0, OAMIndex: 5}
	s1 := Sprite{X: 20, Tile: 1, OAMIndex: 3}
	var bgci [width]byte
	out, _ := ComposeSpriteLine(mem, []Sprite{s1, s0}, 0, &bgci, false)
	if out[20] != 1 {
		t.Fatalf("x=20 got color %d, want 1 from the lower-X sprite", out[20])
	}
	if out[27] != 3 {
		t.Fatalf("x=27 got color %d, want 3 from the right sprite", out[27])
	}
}

func TestComposeSpriteLineTieGoesToLowerOAMIndex(t *testing.T) {
	mem := mockVRAM{}
	mem[0x8000] = 0x80
	s0 := Sprite{X: 12, Attr: 0, OAMIndex: 5}           // OBP0, higher index
	s1 := Sprite{X: 12, Attr: AttrPalette, OAMIndex: 3} // OBP1, lower index
	var bgci [width]byte
	ci, pal := ComposeSpriteLine(mem, []Sprite{s0, s1}, 0, &bgci, false)
	if ci[12] == 0 {
		t.Fatalf("expected sprite pixel at x=12")
	}
	if pal[12] != 1 {
		t.Fatalf("expected OBP1 at x=12 due to lower OAM index, got pal=%d", pal[12])
	}
}

func TestComposeSpriteLineTransparentFallsThrough(t *testing.T) {
	mem := mockVRAM{}
	mem[0x8000] = 0x01 // tile 0: only the rightmost pixel
	mem[0x8010] = 0xFF // tile 1: full row
	hi := Sprite{X: 10, Tile: 0, OAMIndex: 0}
	lo := Sprite{X: 12, Tile: 1, Attr: AttrPalette, OAMIndex: 1}
	var bgci [width]byte
	ci, pal := ComposeSpriteLine(mem, []Sprite{hi, lo}, 0, &bgci, false)
	if ci[12] != 1 || pal[12] != 1 {
		t.Fatalf("x=12 got ci=%d pal=%d, want the lower priority sprite", ci[12], pal[12])
	}
	if pal[17] != 0 {
		t.Fatalf("x=17 should come from the higher priority sprite")
	}
}

func TestComposeSpriteLineFlips(t *testing.T) {
	mem := mockVRAM{}
	mem[0x8000] = 0x80   // row 0: leftmost pixel
	mem[0x8000+14] = 0x01 // row 7: rightmost pixel
	var bgci [width]byte

	ci, _ := ComposeSpriteLine(mem, []Sprite{{X: 0, Attr: AttrXFlip}}, 0, &bgci, false)
	if ci[7] == 0 || ci[0] != 0 {
		t.Fatalf("xflip row got %v", ci[:8])
	}
	ci, _ = ComposeSpriteLine(mem, []Sprite{{X: 0, Attr: AttrYFlip}}, 0, &bgci, false)
	if ci[7] == 0 || ci[0] != 0 {
		t.Fatalf("yflip row got %v", ci[:8])
	}
}

func TestComposeSpriteLineTallIgnoresTileBit0(t *testing.T) {
	mem := mockVRAM{}
	mem[0x8020+2*10] = 0xFF // tile 2, row 10 lives in tile 3
	var bgci [width]byte
	ci, _ := ComposeSpriteLine(mem, []Sprite{{X: 0, Tile: 3}}, 10, &bgci, true)
	if ci[0] != 1 {
		t.Fatalf("8x16 row 10 got %d want 1", ci[0])
	}
}

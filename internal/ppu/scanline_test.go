package ppu

import "testing"

func tileRowPixel(lo, hi byte, i int) byte {
	b := 7 - byte(i)
	return ((hi>>b)&1)<<1 | ((lo >> b) & 1)
}

func TestScanlineSCXOffsetAndTileWrap(t *testing.T) {
	// 32-tile row map at 0x9800 with sequential tile numbers 0..31.
	mapBase := uint16(0x9800)
	mem := mockVRAM{}
	for tile := 0; tile < 32; tile++ {
		mem[mapBase+uint16(tile)] = byte(tile)
		base := uint16(0x8000 + tile*16)
		mem[base] = byte(tile)
		mem[base+1] = ^byte(tile)
	}

	// scx=5 discards the first 5 pixels of tile 0
	out := renderBGScanline(mem, mapBase, true, 5, 0, 0)
	for i := 0; i < 3; i++ {
		if want := tileRowPixel(0, 0xFF, 5+i); out[i] != want {
			t.Fatalf("px %d got %d want %d", i, out[i], want)
		}
	}
	for i := 0; i < 8; i++ {
		if want := tileRowPixel(1, ^byte(1), i); out[3+i] != want {
			t.Fatalf("tile1 px %d got %d want %d", i, out[3+i], want)
		}
	}

	// scx=248 starts on tile 31 and wraps to tile 0
	out = renderBGScanline(mem, mapBase, true, 248, 0, 0)
	if want := tileRowPixel(31, ^byte(31), 0); out[0] != want {
		t.Fatalf("wrap px 0 got %d want %d", out[0], want)
	}
	if want := tileRowPixel(0, 0xFF, 0); out[8] != want {
		t.Fatalf("wrap px 8 got %d want %d", out[8], want)
	}
}

func TestScanlineSCYSelectsRow(t *testing.T) {
	mem := mockVRAM{}
	mem[0x9800+32] = 1 // map row 1, column 0
	mem[0x8000+16+3*2] = 0xFF
	out := renderBGScanline(mem, 0x9800, true, 0, 10, 1) // bgY = 11 -> map row 1, fineY 3
	if out[0] != 1 || out[7] != 1 || out[8] != 0 {
		t.Fatalf("scy row got %v", out[:9])
	}
}

func TestWindowScanlineWXAndTiles(t *testing.T) {
	mem := mockVRAM{}
	mapBase := uint16(0x9800)
	mem[mapBase+0] = 0
	mem[mapBase+1] = 1
	winLine := byte(2)
	base0 := uint16(0x8000) + uint16(winLine)*2
	mem[base0] = 0xAA
	mem[base0+1] = 0x0F
	base1 := uint16(0x8000) + 16 + uint16(winLine)*2
	mem[base1] = 0x55
	mem[base1+1] = 0xF0

	var line [width]byte
	for i := range line {
		line[i] = 3
	}
	renderWindowScanline(mem, mapBase, true, 20, winLine, &line)
	for x := 0; x < 20; x++ {
		if line[x] != 3 {
			t.Fatalf("pre-window px %d = %d, want background 3", x, line[x])
		}
	}
	for i := 0; i < 8; i++ {
		if want := tileRowPixel(0xAA, 0x0F, i); line[20+i] != want {
			t.Fatalf("tile0 px %d got %d want %d", i, line[20+i], want)
		}
		if want := tileRowPixel(0x55, 0xF0, i); line[28+i] != want {
			t.Fatalf("tile1 px %d got %d want %d", i, line[28+i], want)
		}
	}

	// WX < 7 clips the left edge of the first tile
	renderWindowScanline(mem, mapBase, true, -3, winLine, &line)
	if want := tileRowPixel(0xAA, 0x0F, 3); line[0] != want {
		t.Fatalf("clipped px 0 got %d want %d", line[0], want)
	}
}

func TestShade(t *testing.T) {
	const bgp = 0xE4 // 3,2,1,0
	for ci := byte(0); ci < 4; ci++ {
		if got := shade(bgp, ci); got != ci {
			t.Fatalf("shade(e4, %d) = %d", ci, got)
		}
	}
	if got := shade(0x1B, 0); got != 3 {
		t.Fatalf("inverted palette shade got %d want 3", got)
	}
}

package controller

import "image"

// Framebuffer is a DisplayController that composes lines into an RGBA
// image. The back buffer is filled line by line and copied to the front
// image on DrawScreen, so Image never shows a half drawn frame.
type Framebuffer struct {
	Palette Palette

	back   [Height][Width]uint8
	front  *image.RGBA
	frames uint64
}

// NewFramebuffer returns a framebuffer using pal.
func NewFramebuffer(pal Palette) *Framebuffer {
	return &Framebuffer{
		Palette: pal,
		front:   image.NewRGBA(image.Rect(0, 0, Width, Height)),
	}
}

func (f *Framebuffer) DrawScanLine(line int, row *[Width]uint8) {
	if line < 0 || line >= Height {
		return
	}
	f.back[line] = *row
}

func (f *Framebuffer) DrawScreen() {
	for y := 0; y < Height; y++ {
		off := y * f.front.Stride
		for x := 0; x < Width; x++ {
			c := f.Palette[f.back[y][x]&3]
			f.front.Pix[off+x*4+0] = c.R
			f.front.Pix[off+x*4+1] = c.G
			f.front.Pix[off+x*4+2] = c.B
			f.front.Pix[off+x*4+3] = c.A
		}
	}
	f.frames++
}

// Image returns the last completed frame. The image is reused.
func (f *Framebuffer) Image() *image.RGBA { return f.front }

// Shades returns the shade index of a pixel in the line buffer.
func (f *Framebuffer) Shades(x, y int) uint8 { return f.back[y][x] }

// Frames counts completed frames.
func (f *Framebuffer) Frames() uint64 { return f.frames }

package ui

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/apu"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
)

// Config contains window, input and audio settings.
type Config struct {
	Title       string // window title
	Scale       int    // integer upscaling factor for the window and screenshots
	SampleRate  int    // must match the emulator's
	Muted       bool
	QueueFrames int // audio queue capacity in stereo frames
	FastForward int // frames per update while fast forwarding

	ScreenshotDir string
	Palette       controller.Palette
	Keys          map[ebiten.Key]controller.Key
}

// DefaultKeys maps the keyboard to the Game Boy buttons. Select has two
// bindings.
func DefaultKeys() map[ebiten.Key]controller.Key {
	return map[ebiten.Key]controller.Key{
		ebiten.KeyArrowRight: controller.KeyRight,
		ebiten.KeyArrowLeft:  controller.KeyLeft,
		ebiten.KeyArrowUp:    controller.KeyUp,
		ebiten.KeyArrowDown:  controller.KeyDown,
		ebiten.KeyZ:          controller.KeyA,
		ebiten.KeyX:          controller.KeyB,
		ebiten.KeyEnter:      controller.KeyStart,
		ebiten.KeyBackspace:  controller.KeySelect,
		ebiten.KeyShiftRight: controller.KeySelect,
	}
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "funkyboy"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.SampleRate <= 0 {
		c.SampleRate = apu.DefaultSampleRate
	}
	if c.QueueFrames <= 0 {
		c.QueueFrames = controller.DefaultQueueFrames
	}
	if c.FastForward <= 1 {
		c.FastForward = 5
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "."
	}
	if c.Palette == (controller.Palette{}) {
		c.Palette = controller.DMGPalette
	}
	if c.Keys == nil {
		c.Keys = DefaultKeys()
	}
}

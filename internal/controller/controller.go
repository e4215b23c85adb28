// Package controller defines the boundary between the emulation core and
// its host: where pixels go, where samples go and where key state comes from.
package controller

import (
	"fmt"
	"image/color"
	"strings"
)

// Width and Height of the LCD in pixels.
const (
	Width  = 160
	Height = 144
)

// DisplayController receives rendered lines and the frame-complete signal.
// Row values are shade indices 0..3 after palette mapping.
type DisplayController interface {
	DrawScanLine(line int, row *[Width]uint8)
	DrawScreen()
}

// AudioController receives one stereo sample per audio tick, in [-1, 1].
type AudioController interface {
	PushSample(left, right float32)
}

// JoypadController is polled by the core for the current key state.
type JoypadController interface {
	IsKeyPressed(Key) bool
}

// Key is one of the eight Game Boy buttons.
type Key uint8

const (
	KeyRight Key = iota
	KeyLeft
	KeyUp
	KeyDown
	KeyA
	KeyB
	KeySelect
	KeyStart

	keyCount
)

// Keys lists every key in mask bit order.
var Keys = [keyCount]Key{KeyRight, KeyLeft, KeyUp, KeyDown, KeyA, KeyB, KeySelect, KeyStart}

var keyNames = [keyCount]string{"right", "left", "up", "down", "a", "b", "select", "start"}

func (k Key) String() string {
	if k < keyCount {
		return keyNames[k]
	}
	return fmt.Sprintf("Key(%d)", uint8(k))
}

// Valid reports whether k names a real button.
func (k Key) Valid() bool { return k < keyCount }

// ParseKey resolves a case-insensitive key name.
func ParseKey(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range keyNames {
		if n == s {
			return Key(i), nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", s)
}

// Palette maps shade indices to display colours.
type Palette [4]color.RGBA

// DMGPalette is the classic four-level grey ramp.
var DMGPalette = Palette{
	{0xFF, 0xFF, 0xFF, 0xFF},
	{0xC0, 0xC0, 0xC0, 0xFF},
	{0x60, 0x60, 0x60, 0xFF},
	{0x00, 0x00, 0x00, 0xFF},
}

// NopDisplay discards all output.
type NopDisplay struct{}

func (NopDisplay) DrawScanLine(int, *[Width]uint8) {}
func (NopDisplay) DrawScreen()                     {}

// NopAudio discards all samples.
type NopAudio struct{}

func (NopAudio) PushSample(float32, float32) {}

type multiDisplay []DisplayController

// MultiDisplay fans out to every non-nil display in order.
func MultiDisplay(ds ...DisplayController) DisplayController {
	var m multiDisplay
	for _, d := range ds {
		if d != nil {
			m = append(m, d)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multiDisplay) DrawScanLine(line int, row *[Width]uint8) {
	for _, d := range m {
		d.DrawScanLine(line, row)
	}
}

func (m multiDisplay) DrawScreen() {
	for _, d := range m {
		d.DrawScreen()
	}
}

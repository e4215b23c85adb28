package emu

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/cart"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
)

type options struct {
	display controller.DisplayController
	audio   controller.AudioController
	joypad  controller.JoypadController
	serial  io.Writer
	log     logrus.FieldLogger
	clock   cart.Clock
}

// Option configures an Emulator.
type Option func(*options)

// WithDisplay sets the scanline sink.
func WithDisplay(d controller.DisplayController) Option {
	return func(o *options) { o.display = d }
}

// WithAudio sets the sample sink. Without one the APU generates nothing.
func WithAudio(a controller.AudioController) Option {
	return func(o *options) { o.audio = a }
}

// WithJoypad adds a controller polled alongside SetInputState.
func WithJoypad(j controller.JoypadController) Option {
	return func(o *options) { o.joypad = j }
}

// WithSerial receives every byte sent over the serial port.
func WithSerial(w io.Writer) Option {
	return func(o *options) { o.serial = w }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithClock sets the time source of cartridge real-time clocks.
func WithClock(c cart.Clock) Option {
	return func(o *options) { o.clock = c }
}

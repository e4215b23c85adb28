package emu

import "github.com/FabianRolfMatthiasNoll/funkyboy/internal/apu"

// Config contains settings that affect emulation behavior.
type Config struct {
	SampleRate int    // audio samples per second handed to the AudioController
	BootROM    []byte // optional 256-byte DMG boot ROM; nil starts at 0x0100
	Trace      bool   // log CPU instructions at trace level
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{SampleRate: apu.DefaultSampleRate}
}

// Package apu implements the four DMG sound channels, the 512 Hz frame
// sequencer and NR50/NR51 stereo mixing.
package apu

import (
	"math"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

// CPU frequency in Hz (DMG)
const cpuHz = 4194304

const DefaultSampleRate = 48000

const (
	NR10 = 0xFF10
	NR52 = 0xFF26

	waveStart = 0xFF30
	waveEnd   = 0xFF3F
)

// readMasks are ORed into register reads; write-only bits read as 1.
var readMasks = [0x17]byte{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // unused, NR21-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // unused, NR41-NR44
	0x00, 0x00, 0x70, // NR50-NR52
}

// APU is a DMG audio unit. Samples are pushed to an AudioController at the
// configured rate; without one no samples are produced.
type APU struct {
	power bool
	regs  [0x17]byte // last written values of FF10-FF26

	sampleRate      int
	cyclesPerSample float64
	cycAccum        float64
	mixGain         float64
	out             controller.AudioController

	// frame sequencer (512 Hz)
	fsCounter int // cycles until next step
	fsStep    int // 0..7

	ch1 square
	ch2 square
	ch3 wave
	ch4 noise
}

func New(sampleRate int, out controller.AudioController) *APU {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &APU{
		sampleRate:      sampleRate,
		cyclesPerSample: float64(cpuHz) / float64(sampleRate),
		mixGain:         0.25,
		fsCounter:       cpuHz / 512,
		out:             out,
	}
}

// SetOutput replaces the sample sink. nil disables sample generation.
func (a *APU) SetOutput(out controller.AudioController) { a.out = out }

func (a *APU) SampleRate() int { return a.sampleRate }

// Reset powers the unit off and clears every register except wave RAM.
func (a *APU) Reset() {
	ram := a.ch3.ram
	*a = APU{
		sampleRate:      a.sampleRate,
		cyclesPerSample: a.cyclesPerSample,
		mixGain:         a.mixGain,
		fsCounter:       cpuHz / 512,
		out:             a.out,
	}
	a.ch3.ram = ram
}

// CPURead reads an APU register.
func (a *APU) CPURead(addr uint16) byte {
	switch {
	case addr >= waveStart && addr <= waveEnd:
		return a.ch3.ram[addr-waveStart]
	case addr == NR52:
		v := byte(0x70)
		if a.power {
			v |= 0x80
		}
		for i, on := range [...]bool{a.ch1.on, a.ch2.on, a.ch3.on, a.ch4.on} {
			if on {
				v |= 1 << i
			}
		}
		return v
	case addr >= NR10 && addr < NR52:
		i := addr - NR10
		return a.regs[i] | readMasks[i]
	}
	return 0xFF
}

// CPUWrite writes an APU register. While powered off only NR52 and wave
// RAM accept writes.
func (a *APU) CPUWrite(addr uint16, v byte) {
	if addr >= waveStart && addr <= waveEnd {
		a.ch3.ram[addr-waveStart] = v
		return
	}
	if addr == NR52 {
		on := v&0x80 != 0
		if !on && a.power {
			a.Reset()
		}
		a.power = on
		return
	}
	if addr < NR10 || addr >= NR52 || !a.power {
		return
	}
	a.regs[addr-NR10] = v

	switch addr {
	case 0xFF10: // NR10 sweep
		a.ch1.sweepPeriod = (v >> 4) & 7
		a.ch1.sweepNeg = v&0x08 != 0
		a.ch1.sweepShift = v & 7
	case 0xFF11: // NR11 duty/length
		a.ch1.duty = v >> 6
		a.ch1.length.load(64, v&0x3F)
	case 0xFF12: // NR12 envelope
		a.ch1.env.write(v)
		if !a.ch1.env.dac() {
			a.ch1.on = false
		}
	case 0xFF13:
		a.ch1.freq = (a.ch1.freq & 0x0700) | uint16(v)
	case 0xFF14:
		a.ch1.length.enabled = v&0x40 != 0
		a.ch1.freq = (a.ch1.freq & 0x00FF) | uint16(v&7)<<8
		if v&0x80 != 0 {
			a.ch1.trigger(true)
		}
	case 0xFF16: // NR21
		a.ch2.duty = v >> 6
		a.ch2.length.load(64, v&0x3F)
	case 0xFF17:
		a.ch2.env.write(v)
		if !a.ch2.env.dac() {
			a.ch2.on = false
		}
	case 0xFF18:
		a.ch2.freq = (a.ch2.freq & 0x0700) | uint16(v)
	case 0xFF19:
		a.ch2.length.enabled = v&0x40 != 0
		a.ch2.freq = (a.ch2.freq & 0x00FF) | uint16(v&7)<<8
		if v&0x80 != 0 {
			a.ch2.trigger(false)
		}
	case 0xFF1A: // NR30 DAC
		a.ch3.dac = v&0x80 != 0
		if !a.ch3.dac {
			a.ch3.on = false
		}
	case 0xFF1B:
		a.ch3.length.load(256, v)
	case 0xFF1C:
		a.ch3.volCode = (v >> 5) & 3
	case 0xFF1D:
		a.ch3.freq = (a.ch3.freq & 0x0700) | uint16(v)
	case 0xFF1E:
		a.ch3.length.enabled = v&0x40 != 0
		a.ch3.freq = (a.ch3.freq & 0x00FF) | uint16(v&7)<<8
		if v&0x80 != 0 {
			a.ch3.trigger()
		}
	case 0xFF20: // NR41
		a.ch4.length.load(64, v&0x3F)
	case 0xFF21:
		a.ch4.env.write(v)
		if !a.ch4.env.dac() {
			a.ch4.on = false
		}
	case 0xFF22: // NR43 polynomial
		a.ch4.shift = v >> 4
		a.ch4.width7 = v&0x08 != 0
		a.ch4.divSel = v & 7
	case 0xFF23:
		a.ch4.length.enabled = v&0x40 != 0
		if v&0x80 != 0 {
			a.ch4.trigger()
		}
	}
}

// Tick advances the APU by the given number of CPU cycles, and pushes samples when due.
func (a *APU) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		if a.power {
			a.fsCounter--
			if a.fsCounter <= 0 {
				a.fsCounter += cpuHz / 512
				a.stepSequencer()
			}
			if a.ch1.on {
				a.ch1.step()
			}
			if a.ch2.on {
				a.ch2.step()
			}
			if a.ch3.on {
				a.ch3.step()
			}
			if a.ch4.on {
				a.ch4.step()
			}
		}
		if a.out == nil {
			continue
		}
		// samples keep flowing while powered off so the sink stays paced
		a.cycAccum++
		if a.cycAccum >= a.cyclesPerSample {
			a.cycAccum -= a.cyclesPerSample
			a.out.PushSample(a.mix())
		}
	}
}

func (a *APU) stepSequencer() {
	a.fsStep = (a.fsStep + 1) & 7
	// length on steps 0,2,4,6
	if a.fsStep%2 == 0 {
		if a.ch1.length.clock() {
			a.ch1.on = false
		}
		if a.ch2.length.clock() {
			a.ch2.on = false
		}
		if a.ch3.length.clock() {
			a.ch3.on = false
		}
		if a.ch4.length.clock() {
			a.ch4.on = false
		}
	}
	if a.fsStep == 2 || a.fsStep == 6 {
		a.ch1.clockSweep()
	}
	if a.fsStep == 7 {
		a.ch1.env.clock()
		a.ch2.env.clock()
		a.ch4.env.clock()
	}
}

// mix computes one stereo sample pair according to NR50/NR51.
func (a *APU) mix() (float32, float32) {
	if !a.power {
		return 0, 0
	}
	ch := [4]float64{a.ch1.output(), a.ch2.output(), a.ch3.output(), a.ch4.output()}
	// NR51: lower nibble = right (SO1), upper nibble = left (SO2)
	nr51 := a.regs[0xFF25-NR10]
	var l, r float64
	for i, v := range ch {
		if nr51&(0x10<<i) != 0 {
			l += v
		}
		if nr51&(1<<i) != 0 {
			r += v
		}
	}
	// NR50: levels 0..7 map to 1/8..8/8
	nr50 := a.regs[0xFF24-NR10]
	l *= float64((nr50>>4)&7+1) / 8 * a.mixGain
	r *= float64(nr50&7+1) / 8 * a.mixGain
	return float32(clamp(l)), float32(clamp(r))
}

func clamp(v float64) float64 { return max(-1, min(1, v)) }

func (a *APU) Save(w *state.Writer) {
	w.WriteBool(a.power)
	w.WriteData(a.regs[:])
	w.Write64(math.Float64bits(a.cycAccum))
	w.WriteInt(a.fsCounter)
	w.Write8(byte(a.fsStep))
	a.ch1.save(w)
	a.ch2.save(w)
	a.ch3.save(w)
	a.ch4.save(w)
}

func (a *APU) Load(r *state.Reader) {
	a.power = r.ReadBool()
	r.ReadData(a.regs[:])
	a.cycAccum = math.Float64frombits(r.Read64())
	if math.IsNaN(a.cycAccum) || a.cycAccum < 0 || a.cycAccum > a.cyclesPerSample {
		a.cycAccum = 0
	}
	a.fsCounter = r.ReadInt()
	if a.fsCounter <= 0 || a.fsCounter > cpuHz/512 {
		a.fsCounter = cpuHz / 512
	}
	a.fsStep = int(r.Read8() & 7)
	a.ch1.load(r)
	a.ch2.load(r)
	a.ch3.load(r)
	a.ch4.load(r)
}

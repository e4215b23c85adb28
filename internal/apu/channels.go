package apu

import "github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"

var dutyTable = [4][8]byte{
	// 12.5%, 25%, 50%, 75%
	{0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 0},
}

var noiseDivisors = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// envelope is the NRx2 volume unit shared by channels 1, 2 and 4.
type envelope struct {
	initVol byte // 0..15
	up      bool
	period  byte // 0..7, 0 stops the envelope
	vol     byte
	timer   byte
}

func (e *envelope) write(v byte) {
	e.initVol = v >> 4
	e.up = v&0x08 != 0
	e.period = v & 0x07
}

// dac reports whether NRx2 leaves the channel DAC powered.
func (e *envelope) dac() bool { return e.initVol != 0 || e.up }

func (e *envelope) trigger() {
	e.vol = e.initVol
	e.timer = e.period
	if e.timer == 0 {
		e.timer = 8
	}
}

func (e *envelope) clock() {
	if e.period == 0 {
		return
	}
	if e.timer > 0 {
		e.timer--
	}
	if e.timer != 0 {
		return
	}
	e.timer = e.period
	if e.up && e.vol < 15 {
		e.vol++
	} else if !e.up && e.vol > 0 {
		e.vol--
	}
}

func (e *envelope) save(w *state.Writer) {
	w.Write8(e.initVol)
	w.WriteBool(e.up)
	w.Write8(e.period)
	w.Write8(e.vol)
	w.Write8(e.timer)
}

func (e *envelope) load(r *state.Reader) {
	e.initVol = r.Read8() & 0x0F
	e.up = r.ReadBool()
	e.period = r.Read8() & 0x07
	e.vol = r.Read8() & 0x0F
	e.timer = r.Read8()
}

// length is the NRx1 length counter. It disables its channel when it hits 0.
type length struct {
	value   int
	enabled bool
}

func (l *length) load(max int, v byte) { l.value = max - int(v) }

func (l *length) trigger(max int) {
	if l.value == 0 {
		l.value = max
	}
}

// clock returns true when the counter expired on this step.
func (l *length) clock() bool {
	if !l.enabled || l.value == 0 {
		return false
	}
	l.value--
	return l.value == 0
}

// square is channels 1 and 2. Only channel 1 uses the sweep unit.
type square struct {
	on     bool
	duty   byte
	length length
	env    envelope
	freq   uint16
	timer  int
	phase  int

	sweepPeriod byte
	sweepNeg    bool
	sweepShift  byte
	sweepTimer  byte
	sweepOn     bool
	shadow      uint16
}

func (c *square) reload() { c.timer = 4 * (2048 - int(c.freq&0x7FF)) }

func (c *square) trigger(sweep bool) {
	c.on = c.env.dac()
	c.length.trigger(64)
	c.reload()
	c.env.trigger()
	if !sweep {
		return
	}
	c.shadow = c.freq & 0x7FF
	c.sweepTimer = c.sweepPeriod
	if c.sweepTimer == 0 {
		c.sweepTimer = 8
	}
	c.sweepOn = c.sweepPeriod != 0 || c.sweepShift != 0
	if c.sweepShift != 0 && c.sweepNext() > 2047 {
		c.on = false
	}
}

func (c *square) sweepNext() int {
	base := int(c.shadow)
	delta := base >> c.sweepShift
	if c.sweepNeg {
		return base - delta
	}
	return base + delta
}

func (c *square) clockSweep() {
	if !c.on || !c.sweepOn {
		return
	}
	if c.sweepTimer > 0 {
		c.sweepTimer--
	}
	if c.sweepTimer != 0 {
		return
	}
	c.sweepTimer = c.sweepPeriod
	if c.sweepTimer == 0 {
		c.sweepTimer = 8
		return
	}
	nf := c.sweepNext()
	if nf > 2047 {
		c.on = false
		return
	}
	if c.sweepShift == 0 {
		return
	}
	c.shadow = uint16(nf)
	c.freq = uint16(nf)
	// second overflow check against the new frequency
	if c.sweepNext() > 2047 {
		c.on = false
	}
}

func (c *square) step() {
	c.timer--
	if c.timer <= 0 {
		c.reload()
		c.phase = (c.phase + 1) & 7
	}
}

func (c *square) output() float64 {
	if !c.on {
		return 0
	}
	amp := float64(c.env.vol) / 15.0
	if dutyTable[c.duty][c.phase] != 0 {
		return amp
	}
	return -amp
}

func (c *square) save(w *state.Writer) {
	w.WriteBool(c.on)
	w.Write8(c.duty)
	w.WriteInt(c.length.value)
	w.WriteBool(c.length.enabled)
	c.env.save(w)
	w.Write16(c.freq)
	w.WriteInt(c.timer)
	w.Write8(byte(c.phase))
	w.Write8(c.sweepPeriod)
	w.WriteBool(c.sweepNeg)
	w.Write8(c.sweepShift)
	w.Write8(c.sweepTimer)
	w.WriteBool(c.sweepOn)
	w.Write16(c.shadow)
}

func (c *square) load(r *state.Reader) {
	c.on = r.ReadBool()
	c.duty = r.Read8() & 3
	c.length.value = r.ReadInt()
	c.length.enabled = r.ReadBool()
	c.env.load(r)
	c.freq = r.Read16() & 0x7FF
	c.timer = r.ReadInt()
	c.phase = int(r.Read8() & 7)
	c.sweepPeriod = r.Read8() & 7
	c.sweepNeg = r.ReadBool()
	c.sweepShift = r.Read8() & 7
	c.sweepTimer = r.Read8()
	c.sweepOn = r.ReadBool()
	c.shadow = r.Read16()
}

// wave is channel 3, playing 32 4-bit samples from wave RAM.
type wave struct {
	on      bool
	dac     bool
	length  length
	volCode byte // 0 mute, 1:100%, 2:50%, 3:25%
	freq    uint16
	timer   int
	pos     int
	ram     [16]byte
}

func (c *wave) reload() { c.timer = 2 * (2048 - int(c.freq&0x7FF)) }

func (c *wave) trigger() {
	c.on = c.dac
	c.length.trigger(256)
	c.pos = 0
	c.reload()
}

func (c *wave) step() {
	c.timer--
	if c.timer <= 0 {
		c.reload()
		c.pos = (c.pos + 1) & 31
	}
}

func (c *wave) output() float64 {
	if !c.on || c.volCode == 0 {
		return 0
	}
	b := c.ram[c.pos>>1]
	n := b >> 4
	if c.pos&1 != 0 {
		n = b & 0x0F
	}
	shift := c.volCode - 1
	return float64(n>>shift)/15*2 - 1
}

func (c *wave) save(w *state.Writer) {
	w.WriteBool(c.on)
	w.WriteBool(c.dac)
	w.WriteInt(c.length.value)
	w.WriteBool(c.length.enabled)
	w.Write8(c.volCode)
	w.Write16(c.freq)
	w.WriteInt(c.timer)
	w.Write8(byte(c.pos))
	w.WriteData(c.ram[:])
}

func (c *wave) load(r *state.Reader) {
	c.on = r.ReadBool()
	c.dac = r.ReadBool()
	c.length.value = r.ReadInt()
	c.length.enabled = r.ReadBool()
	c.volCode = r.Read8() & 3
	c.freq = r.Read16() & 0x7FF
	c.timer = r.ReadInt()
	c.pos = int(r.Read8() & 31)
	r.ReadData(c.ram[:])
}

// noise is channel 4, a 15 or 7 bit LFSR.
type noise struct {
	on     bool
	length length
	env    envelope
	shift  byte // 0..15 clock shift
	width7 bool
	divSel byte
	timer  int
	lfsr   uint16
}

func (c *noise) reload() { c.timer = noiseDivisors[c.divSel&7] << c.shift }

func (c *noise) trigger() {
	c.on = c.env.dac()
	c.length.trigger(64)
	c.env.trigger()
	c.lfsr = 0x7FFF
	c.reload()
}

func (c *noise) step() {
	c.timer--
	if c.timer > 0 {
		return
	}
	c.reload()
	x := (c.lfsr ^ (c.lfsr >> 1)) & 1
	c.lfsr = (c.lfsr >> 1) | (x << 14)
	if c.width7 {
		c.lfsr = (c.lfsr &^ (1 << 6)) | (x << 6)
	}
}

func (c *noise) output() float64 {
	if !c.on {
		return 0
	}
	amp := float64(c.env.vol) / 15.0
	if c.lfsr&1 == 0 {
		return amp
	}
	return -amp
}

func (c *noise) save(w *state.Writer) {
	w.WriteBool(c.on)
	w.WriteInt(c.length.value)
	w.WriteBool(c.length.enabled)
	c.env.save(w)
	w.Write8(c.shift)
	w.WriteBool(c.width7)
	w.Write8(c.divSel)
	w.WriteInt(c.timer)
	w.Write16(c.lfsr)
}

func (c *noise) load(r *state.Reader) {
	c.on = r.ReadBool()
	c.length.value = r.ReadInt()
	c.length.enabled = r.ReadBool()
	c.env.load(r)
	c.shift = r.Read8() & 0x0F
	c.width7 = r.ReadBool()
	c.divSel = r.Read8() & 7
	c.timer = r.ReadInt()
	c.lfsr = r.Read16() & 0x7FFF
}

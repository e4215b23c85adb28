package cart

import (
	"time"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"
)

// RTC register indices as selected through 0x4000-0x5FFF.
const (
	rtcS  = 0x08
	rtcM  = 0x09
	rtcH  = 0x0A
	rtcDL = 0x0B
	rtcDH = 0x0C
)

const (
	rtcHaltBit  = 1 << 6
	rtcCarryBit = 1 << 7
)

// rtc is the MBC3 real time clock. It follows wall-clock time, not CPU
// cycles, and is only brought up to date when the CPU touches it.
type rtc struct {
	clock Clock
	last  time.Time

	sec, min, hour byte
	day            uint16 // 9 bits
	halt, carry    bool

	latched   [5]byte
	latchPrev byte
}

func newRTC(clock Clock) *rtc {
	return &rtc{clock: clock, last: clock(), latchPrev: 0xFF}
}

// sync folds the time elapsed since the last sync into the counters.
func (r *rtc) sync() {
	now := r.clock()
	if r.halt {
		r.last = now
		return
	}
	elapsed := int64(now.Sub(r.last) / time.Second)
	if elapsed <= 0 {
		return
	}
	r.last = r.last.Add(time.Duration(elapsed) * time.Second)
	r.advance(elapsed)
}

func (r *rtc) advance(secs int64) {
	total := int64(r.sec) + secs
	r.sec = byte(total % 60)
	total = int64(r.min) + total/60
	r.min = byte(total % 60)
	total = int64(r.hour) + total/60
	r.hour = byte(total % 24)
	days := int64(r.day) + total/24
	if days > 0x1FF {
		r.carry = true
		days %= 0x200
	}
	r.day = uint16(days)
}

func (r *rtc) dh() byte {
	v := byte(r.day>>8) & 0x01
	if r.halt {
		v |= rtcHaltBit
	}
	if r.carry {
		v |= rtcCarryBit
	}
	return v
}

// latch copies the live counters on a 0x00 then 0x01 write sequence.
func (r *rtc) latch(v byte) {
	if r.latchPrev == 0x00 && v == 0x01 {
		r.sync()
		r.latched = [5]byte{r.sec, r.min, r.hour, byte(r.day), r.dh()}
	}
	r.latchPrev = v
}

func (r *rtc) read(reg byte) byte {
	if reg < rtcS || reg > rtcDH {
		return 0xFF
	}
	return r.latched[reg-rtcS]
}

func (r *rtc) write(reg, v byte) {
	r.sync()
	switch reg {
	case rtcS:
		r.sec = v & 0x3F
	case rtcM:
		r.min = v & 0x3F
	case rtcH:
		r.hour = v & 0x1F
	case rtcDL:
		r.day = r.day&0x100 | uint16(v)
	case rtcDH:
		r.day = r.day&0xFF | uint16(v&0x01)<<8
		wasHalted := r.halt
		r.halt = v&rtcHaltBit != 0
		r.carry = v&rtcCarryBit != 0
		if wasHalted && !r.halt {
			r.last = r.clock()
		}
	}
}

func (r *rtc) save(w *state.Writer) {
	r.sync()
	w.Write8(r.sec)
	w.Write8(r.min)
	w.Write8(r.hour)
	w.Write16(r.day)
	w.WriteBool(r.halt)
	w.WriteBool(r.carry)
	w.WriteData(r.latched[:])
	w.Write8(r.latchPrev)
	w.Write64(uint64(r.last.Unix()))
}

func (r *rtc) load(rd *state.Reader) {
	r.sec = rd.Read8()
	r.min = rd.Read8()
	r.hour = rd.Read8()
	r.day = rd.Read16() & 0x1FF
	r.halt = rd.ReadBool()
	r.carry = rd.ReadBool()
	rd.ReadData(r.latched[:])
	r.latchPrev = rd.Read8()
	r.last = time.Unix(int64(rd.Read64()), 0)
}

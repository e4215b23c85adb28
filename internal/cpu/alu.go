package cpu

// Flags helpers
const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

func (c *CPU) setZNHC(z, n, h, carry bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if carry {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) carry() bool { return c.F&flagC != 0 }

func (c *CPU) carryBit() byte {
	if c.carry() {
		return 1
	}
	return 0
}

// Arithmetic selectors for the 0x80-0xBF block and the d8 immediates.
const (
	aluADD = iota
	aluADC
	aluSUB
	aluSBC
	aluAND
	aluXOR
	aluOR
	aluCP
)

// alu applies one of the eight accumulator operations to v.
func (c *CPU) alu(op int, v byte) {
	a := c.A
	switch op {
	case aluADD, aluADC:
		ci := byte(0)
		if op == aluADC {
			ci = c.carryBit()
		}
		r := uint16(a) + uint16(v) + uint16(ci)
		c.A = byte(r)
		c.setZNHC(c.A == 0, false, (a&0x0F)+(v&0x0F)+ci > 0x0F, r > 0xFF)
	case aluSUB, aluSBC, aluCP:
		ci := byte(0)
		if op == aluSBC {
			ci = c.carryBit()
		}
		r := int(a) - int(v) - int(ci)
		res := byte(r)
		c.setZNHC(res == 0, true, int(a&0x0F)-int(v&0x0F)-int(ci) < 0, r < 0)
		if op != aluCP {
			c.A = res
		}
	case aluAND:
		c.A = a & v
		c.setZNHC(c.A == 0, false, true, false)
	case aluXOR:
		c.A = a ^ v
		c.setZNHC(c.A == 0, false, false, false)
	case aluOR:
		c.A = a | v
		c.setZNHC(c.A == 0, false, false, false)
	}
}

// inc8 and dec8 leave the carry flag untouched.
func (c *CPU) inc8(v byte) byte {
	r := v + 1
	c.setZNHC(r == 0, false, v&0x0F == 0x0F, c.carry())
	return r
}

func (c *CPU) dec8(v byte) byte {
	r := v - 1
	c.setZNHC(r == 0, true, v&0x0F == 0x00, c.carry())
	return r
}

// addHL performs ADD HL,rr. Z is preserved, H is the carry out of bit 11.
func (c *CPU) addHL(v uint16) {
	hl := c.getHL()
	r := uint32(hl) + uint32(v)
	c.setZNHC(c.F&flagZ != 0, false, (hl&0x0FFF)+(v&0x0FFF) > 0x0FFF, r > 0xFFFF)
	c.setHL(uint16(r))
}

// spOffset computes SP+e for ADD SP,e and LD HL,SP+e. H and C come from the
// unsigned low byte addition, Z and N are cleared.
func (c *CPU) spOffset(e byte) uint16 {
	sp := c.SP
	r := uint16(int32(sp) + int32(int8(e)))
	lo := byte(sp)
	c.setZNHC(false, false, (lo&0x0F)+(e&0x0F) > 0x0F, uint16(lo)+uint16(e) > 0xFF)
	return r
}

func (c *CPU) daa() {
	a := c.A
	n := c.F&flagN != 0
	h := c.F&flagH != 0
	cy := c.carry()
	if !n {
		if cy || a > 0x99 {
			a += 0x60
			cy = true
		}
		if h || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if cy {
			a -= 0x60
		}
		if h {
			a -= 0x06
		}
	}
	c.A = a
	c.setZNHC(a == 0, n, false, cy)
}

// Rotate and shift selectors for the first quarter of the CB table.
const (
	rotRLC = iota
	rotRRC
	rotRL
	rotRR
	rotSLA
	rotSRA
	rotSWAP
	rotSRL
)

// rotate applies a CB rotate/shift and sets Z from the result.
func (c *CPU) rotate(op int, v byte) byte {
	var r byte
	var cy bool
	switch op {
	case rotRLC:
		cy = v&0x80 != 0
		r = v<<1 | v>>7
	case rotRRC:
		cy = v&0x01 != 0
		r = v>>1 | v<<7
	case rotRL:
		cy = v&0x80 != 0
		r = v<<1 | c.carryBit()
	case rotRR:
		cy = v&0x01 != 0
		r = v>>1 | c.carryBit()<<7
	case rotSLA:
		cy = v&0x80 != 0
		r = v << 1
	case rotSRA:
		cy = v&0x01 != 0
		r = v>>1 | v&0x80
	case rotSWAP:
		r = v<<4 | v>>4
	case rotSRL:
		cy = v&0x01 != 0
		r = v >> 1
	}
	c.setZNHC(r == 0, false, false, cy)
	return r
}

// rotateA is the accumulator form (RLCA, RRCA, RLA, RRA), which always clears Z.
func (c *CPU) rotateA(op int) {
	c.A = c.rotate(op, c.A)
	c.F &^= flagZ
}

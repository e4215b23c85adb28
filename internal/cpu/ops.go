package cpu

// reg reads an 8-bit operand by its 3-bit encoding. Index 6 is (HL).
func (c *CPU) reg(i byte) byte {
	switch i & 7 {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.getHL())
	default:
		return c.A
	}
}

func (c *CPU) setReg(i byte, v byte) {
	switch i & 7 {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.write8(c.getHL(), v)
	default:
		c.A = v
	}
}

// pair reads a 16-bit register by its 2-bit encoding (BC, DE, HL, SP).
func (c *CPU) pair(i byte) uint16 {
	switch i & 3 {
	case 0:
		return c.getBC()
	case 1:
		return c.getDE()
	case 2:
		return c.getHL()
	default:
		return c.SP
	}
}

func (c *CPU) setPair(i byte, v uint16) {
	switch i & 3 {
	case 0:
		c.setBC(v)
	case 1:
		c.setDE(v)
	case 2:
		c.setHL(v)
	default:
		c.SP = v
	}
}

// cond evaluates NZ, Z, NC, C.
func (c *CPU) cond(i byte) bool {
	switch i & 3 {
	case 0:
		return c.F&flagZ == 0
	case 1:
		return c.F&flagZ != 0
	case 2:
		return c.F&flagC == 0
	default:
		return c.F&flagC != 0
	}
}

func isIllegal(op byte) bool {
	switch op {
	case 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		return true
	}
	return false
}

// execute runs one already fetched opcode and returns its cycle cost.
func (c *CPU) execute(op byte) int {
	// LD r,r' and HALT
	if op >= 0x40 && op <= 0x7F {
		if op == 0x76 {
			c.halt()
			return 4
		}
		dst, src := (op>>3)&7, op&7
		c.setReg(dst, c.reg(src))
		if dst == 6 || src == 6 {
			return 8
		}
		return 4
	}
	// ALU A,r
	if op >= 0x80 && op <= 0xBF {
		src := op & 7
		c.alu(int(op>>3)&7, c.reg(src))
		if src == 6 {
			return 8
		}
		return 4
	}
	if isIllegal(op) {
		c.locked = true
		c.PC--
		return 4
	}

	switch op {
	case 0x00: // NOP
		return 4
	case 0x01, 0x11, 0x21, 0x31: // LD rr,d16
		c.setPair(op>>4, c.fetch16())
		return 12
	case 0x02: // LD (BC),A
		c.write8(c.getBC(), c.A)
		return 8
	case 0x12:
		c.write8(c.getDE(), c.A)
		return 8
	case 0x22: // LD (HL+),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl + 1)
		return 8
	case 0x32: // LD (HL-),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl - 1)
		return 8
	case 0x0A:
		c.A = c.read8(c.getBC())
		return 8
	case 0x1A:
		c.A = c.read8(c.getDE())
		return 8
	case 0x2A:
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl + 1)
		return 8
	case 0x3A:
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl - 1)
		return 8
	case 0x03, 0x13, 0x23, 0x33: // INC rr
		c.setPair(op>>4, c.pair(op>>4)+1)
		return 8
	case 0x0B, 0x1B, 0x2B, 0x3B: // DEC rr
		c.setPair(op>>4, c.pair(op>>4)-1)
		return 8
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x34, 0x3C: // INC r
		r := (op >> 3) & 7
		c.setReg(r, c.inc8(c.reg(r)))
		if r == 6 {
			return 12
		}
		return 4
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x35, 0x3D: // DEC r
		r := (op >> 3) & 7
		c.setReg(r, c.dec8(c.reg(r)))
		if r == 6 {
			return 12
		}
		return 4
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E: // LD r,d8
		r := (op >> 3) & 7
		c.setReg(r, c.fetch8())
		if r == 6 {
			return 12
		}
		return 8
	case 0x07:
		c.rotateA(rotRLC)
		return 4
	case 0x0F:
		c.rotateA(rotRRC)
		return 4
	case 0x17:
		c.rotateA(rotRL)
		return 4
	case 0x1F:
		c.rotateA(rotRR)
		return 4
	case 0x08: // LD (a16),SP
		c.write16(c.fetch16(), c.SP)
		return 20
	case 0x09, 0x19, 0x29, 0x39: // ADD HL,rr
		c.addHL(c.pair(op >> 4))
		return 8
	case 0x10:
		c.stop()
		return 4
	case 0x18: // JR e
		e := int8(c.fetch8())
		c.PC = uint16(int32(c.PC) + int32(e))
		return 12
	case 0x20, 0x28, 0x30, 0x38: // JR cc,e
		e := int8(c.fetch8())
		if c.cond(op >> 3) {
			c.PC = uint16(int32(c.PC) + int32(e))
			return 12
		}
		return 8
	case 0x27:
		c.daa()
		return 4
	case 0x2F: // CPL
		c.A = ^c.A
		c.F |= flagN | flagH
		return 4
	case 0x37: // SCF
		c.setZNHC(c.F&flagZ != 0, false, false, true)
		return 4
	case 0x3F: // CCF
		c.setZNHC(c.F&flagZ != 0, false, false, !c.carry())
		return 4

	case 0xC0, 0xC8, 0xD0, 0xD8: // RET cc
		if c.cond(op >> 3) {
			c.PC = c.pop16()
			return 20
		}
		return 8
	case 0xC9:
		c.PC = c.pop16()
		return 16
	case 0xD9: // RETI
		c.PC = c.pop16()
		c.IME = true
		c.imeDelay = 0
		return 16
	case 0xC1, 0xD1, 0xE1: // POP rr
		c.setPair(op>>4, c.pop16())
		return 12
	case 0xF1: // POP AF
		c.setAF(c.pop16())
		return 12
	case 0xC5, 0xD5, 0xE5: // PUSH rr
		c.push16(c.pair(op >> 4))
		return 16
	case 0xF5:
		c.push16(c.getAF())
		return 16
	case 0xC2, 0xCA, 0xD2, 0xDA: // JP cc,a16
		addr := c.fetch16()
		if c.cond(op >> 3) {
			c.PC = addr
			return 16
		}
		return 12
	case 0xC3:
		c.PC = c.fetch16()
		return 16
	case 0xE9: // JP HL
		c.PC = c.getHL()
		return 4
	case 0xC4, 0xCC, 0xD4, 0xDC: // CALL cc,a16
		addr := c.fetch16()
		if c.cond(op >> 3) {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12
	case 0xCD:
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		return 24
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF: // RST
		c.push16(c.PC)
		c.PC = uint16(op & 0x38)
		return 16
	case 0xC6, 0xCE, 0xD6, 0xDE, 0xE6, 0xEE, 0xF6, 0xFE: // ALU A,d8
		c.alu(int(op>>3)&7, c.fetch8())
		return 8
	case 0xCB:
		return c.executeCB(c.fetch8())

	case 0xE0: // LDH (a8),A
		c.write8(0xFF00|uint16(c.fetch8()), c.A)
		return 12
	case 0xF0: // LDH A,(a8)
		c.A = c.read8(0xFF00 | uint16(c.fetch8()))
		return 12
	case 0xE2: // LD (C),A
		c.write8(0xFF00|uint16(c.C), c.A)
		return 8
	case 0xF2:
		c.A = c.read8(0xFF00 | uint16(c.C))
		return 8
	case 0xEA:
		c.write8(c.fetch16(), c.A)
		return 16
	case 0xFA:
		c.A = c.read8(c.fetch16())
		return 16
	case 0xE8: // ADD SP,e
		c.SP = c.spOffset(c.fetch8())
		return 16
	case 0xF8: // LD HL,SP+e
		c.setHL(c.spOffset(c.fetch8()))
		return 12
	case 0xF9:
		c.SP = c.getHL()
		return 8
	case 0xF3: // DI
		c.IME = false
		c.imeDelay = 0
		return 4
	case 0xFB: // EI
		if !c.IME && c.imeDelay == 0 {
			c.imeDelay = 2
		}
		return 4
	}
	return 4
}

// executeCB runs a 0xCB-prefixed opcode. The prefix fetch is included in
// the returned cost.
func (c *CPU) executeCB(op byte) int {
	r := op & 7
	bit := (op >> 3) & 7
	cycles := 8
	if r == 6 {
		cycles = 16
	}
	switch op >> 6 {
	case 0:
		c.setReg(r, c.rotate(int(bit), c.reg(r)))
	case 1: // BIT
		v := c.reg(r)
		c.setZNHC(v&(1<<bit) == 0, false, true, c.carry())
		if r == 6 {
			cycles = 12
		}
	case 2: // RES
		c.setReg(r, c.reg(r)&^(1<<bit))
	case 3: // SET
		c.setReg(r, c.reg(r)|1<<bit)
	}
	return cycles
}

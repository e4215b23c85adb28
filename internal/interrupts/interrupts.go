// Package interrupts holds the IF/IE register pair.
package interrupts

import "github.com/FabianRolfMatthiasNoll/funkyboy/internal/state"

// Interrupt sources in priority order; the value is the IF/IE bit index.
const (
	VBlank = iota
	LCDStat
	Timer
	Serial
	Joypad
)

const mask = 0x1F

// Controller tracks requested (IF) and enabled (IE) interrupts.
type Controller struct {
	flag   byte
	enable byte
}

func New() *Controller { return &Controller{} }

// Request raises the IF bit for source.
func (c *Controller) Request(source int) { c.flag |= (1 << source) & mask }

// Clear acknowledges source.
func (c *Controller) Clear(source int) { c.flag &^= 1 << source }

// Pending returns the enabled and requested bits.
func (c *Controller) Pending() byte { return c.flag & c.enable & mask }

// Next returns the highest priority pending source.
func (c *Controller) Next() (int, bool) {
	p := c.Pending()
	if p == 0 {
		return 0, false
	}
	for bit := 0; bit < 5; bit++ {
		if p&(1<<bit) != 0 {
			return bit, true
		}
	}
	return 0, false
}

// Vector is the handler address of source.
func Vector(source int) uint16 { return 0x40 + uint16(source)*8 }

// Flag reads IF. The unused upper bits read as 1.
func (c *Controller) Flag() byte { return 0xE0 | c.flag }

func (c *Controller) SetFlag(v byte) { c.flag = v & mask }

func (c *Controller) Enable() byte { return c.enable }

func (c *Controller) SetEnable(v byte) { c.enable = v }

func (c *Controller) Save(w *state.Writer) {
	w.Write8(c.flag)
	w.Write8(c.enable)
}

func (c *Controller) Load(r *state.Reader) {
	c.flag = r.Read8() & mask
	c.enable = r.Read8()
}

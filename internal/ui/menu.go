package ui

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/persist"
)

type menuAction int

const (
	actSave menuAction = iota
	actLoad
	actSlot
	actReset
	actMute
	actClose

	actCount
)

// menu is the overlay opened with Escape. It only tracks selection; the
// App performs the chosen action.
type menu struct {
	open bool
	idx  int
	slot int
}

func (m *menu) toggle() {
	m.open = !m.open
	m.idx = 0
}

func (m *menu) move(delta int) {
	m.idx = (m.idx + delta + int(actCount)) % int(actCount)
}

func (m *menu) selected() menuAction { return menuAction(m.idx) }

func (m *menu) nextSlot() { m.slot = (m.slot + 1) % persist.Slots }

func (m *menu) lines(muted bool) []string {
	sound := "Mute"
	if muted {
		sound = "Unmute"
	}
	items := [actCount]string{
		actSave:  fmt.Sprintf("Save state (slot %d)", m.slot+1),
		actLoad:  fmt.Sprintf("Load state (slot %d)", m.slot+1),
		actSlot:  "Next slot",
		actReset: "Reset",
		actMute:  sound,
		actClose: "Close",
	}
	out := make([]string, 0, len(items)+1)
	out = append(out, "Menu:")
	for i, s := range items {
		prefix := "  "
		if i == m.idx {
			prefix = "> "
		}
		out = append(out, prefix+s)
	}
	return out
}

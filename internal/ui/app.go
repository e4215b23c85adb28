// Package ui hosts the emulator in an ebiten window.
package ui

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/emu"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/persist"
)

var slotKeys = [persist.Slots]ebiten.Key{ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4}

type App struct {
	cfg   Config
	log   logrus.FieldLogger
	store *persist.Store

	emu    *emu.Emulator
	fb     *controller.Framebuffer
	sink   *AudioSink
	player *audio.Player

	tex     *ebiten.Image
	overlay *ebiten.Image
	paused  bool
	fast    bool
	menu    menu

	toast      string
	toastUntil time.Time
}

// NewApp prepares the window host. Pass Display and Audio to the emulator
// before calling Run.
func NewApp(cfg Config, log logrus.FieldLogger, store *persist.Store) *App {
	cfg.Defaults()
	return &App{
		cfg:   cfg,
		log:   log,
		store: store,
		fb:    controller.NewFramebuffer(cfg.Palette),
		sink:  NewAudioSink(cfg.QueueFrames),
	}
}

// Display is the framebuffer the window shows.
func (a *App) Display() *controller.Framebuffer { return a.fb }

// Audio is the emulator's audio sink.
func (a *App) Audio() *AudioSink { return a.sink }

// Run opens the window and blocks until it is closed.
func (a *App) Run(e *emu.Emulator) error {
	a.emu = e
	ebiten.SetWindowTitle(a.cfg.Title)
	ebiten.SetWindowSize(controller.Width*a.cfg.Scale, controller.Height*a.cfg.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	a.sink.SetMuted(a.cfg.Muted)
	if !a.cfg.Muted {
		p, err := newPlayer(a.cfg.SampleRate, a.sink.Queue)
		if err != nil {
			a.log.WithError(err).Warn("audio unavailable, continuing muted")
			a.cfg.Muted = true
			a.sink.SetMuted(true)
		} else {
			a.player = p
		}
	}
	defer func() {
		a.sink.Close()
		if a.player != nil {
			a.player.Close()
		}
	}()
	return ebiten.RunGame(a)
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.menu.toggle()
	}
	if a.menu.open {
		a.releaseKeys()
		a.updateMenu()
		return nil
	}

	a.hotkeys()
	a.pollKeys()

	if a.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			a.emu.DoTick()
		}
		return nil
	}
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)
	a.sink.SetMuted(a.cfg.Muted || a.fast)
	frames := 1
	if a.fast {
		frames = a.cfg.FastForward
	}
	for range frames {
		a.emu.DoTick()
	}
	return nil
}

func (a *App) hotkeys() {
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft)
	for slot, k := range slotKeys {
		if !inpututil.IsKeyJustPressed(k) {
			continue
		}
		if shift {
			a.loadSlot(slot)
		} else {
			a.saveSlot(slot)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
		a.sink.SetMuted(a.cfg.Muted || a.paused)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.emu.Reset()
		a.notify("Reset")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		path, err := SaveScreenshot(a.cfg.ScreenshotDir, a.fb.Image(), a.cfg.Scale, time.Now())
		if err != nil {
			a.fail("Screenshot", err)
		} else {
			a.log.WithField("path", path).Info("screenshot saved")
			a.notify("Screenshot saved")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if err := CopyScreenshot(a.fb.Image(), a.cfg.Scale); err != nil {
			a.fail("Copy", err)
		} else {
			a.notify("Screenshot copied")
		}
	}
}

func (a *App) pollKeys() {
	mask := keyMask(a.cfg.Keys, ebiten.IsKeyPressed)
	for _, k := range controller.Keys {
		a.emu.SetInputState(k, mask&(1<<k) != 0)
	}
}

func (a *App) releaseKeys() {
	for _, k := range controller.Keys {
		a.emu.SetInputState(k, false)
	}
}

// keyMask folds every bound host key that is down into a button mask.
func keyMask(keys map[ebiten.Key]controller.Key, pressed func(ebiten.Key) bool) uint8 {
	var mask uint8
	for hk, k := range keys {
		if k.Valid() && pressed(hk) {
			mask |= 1 << k
		}
	}
	return mask
}

func (a *App) updateMenu() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		a.menu.move(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		a.menu.move(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		a.menu.open = false
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		a.apply(a.menu.selected())
	}
}

func (a *App) apply(act menuAction) {
	switch act {
	case actSave:
		a.saveSlot(a.menu.slot)
	case actLoad:
		a.loadSlot(a.menu.slot)
	case actSlot:
		a.menu.nextSlot()
		return
	case actReset:
		a.emu.Reset()
	case actMute:
		a.cfg.Muted = !a.cfg.Muted
		a.sink.SetMuted(a.cfg.Muted)
		return
	}
	a.menu.open = false
}

func (a *App) saveSlot(slot int) {
	if err := a.store.SaveSlot(a.emu, slot); err != nil {
		a.fail("Save", err)
		return
	}
	a.log.WithField("slot", slot).Info("state saved")
	a.notify(fmt.Sprintf("Saved slot %d", slot+1))
}

func (a *App) loadSlot(slot int) {
	if err := a.store.LoadSlot(a.emu, slot); err != nil {
		a.fail("Load", err)
		return
	}
	a.log.WithField("slot", slot).Info("state loaded")
	a.notify(fmt.Sprintf("Loaded slot %d", slot+1))
}

func (a *App) fail(what string, err error) {
	a.log.WithError(err).Warn(what + " failed")
	a.notify(what + " failed")
}

func (a *App) notify(msg string) {
	a.toast = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(controller.Width, controller.Height)
		a.overlay = ebiten.NewImage(controller.Width, controller.Height)
		a.overlay.Fill(color.RGBA{0, 0, 0, 160})
	}
	a.tex.WritePixels(a.fb.Image().Pix)
	screen.DrawImage(a.tex, nil)

	if a.menu.open {
		screen.DrawImage(a.overlay, nil)
		for i, s := range a.menu.lines(a.cfg.Muted) {
			ebitenutil.DebugPrintAt(screen, s, 8, 8+i*14)
		}
		return
	}
	switch {
	case time.Now().Before(a.toastUntil):
		ebitenutil.DebugPrintAt(screen, a.toast, 4, controller.Height-18)
	case a.paused:
		ebitenutil.DebugPrintAt(screen, "Paused", 4, controller.Height-18)
	}
}

func (a *App) Layout(int, int) (int, int) { return controller.Width, controller.Height }

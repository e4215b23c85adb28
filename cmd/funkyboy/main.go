package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sqweek/dialog"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/cart"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/emu"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/persist"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/romloader"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/stream"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/ui"
)

type CLIFlags struct {
	ROMPath  string
	BootROM  string
	Scale    int
	Title    string
	Trace    bool
	SaveDir  string
	Stream   string // listen address for the websocket frame stream
	Audio    bool
	Resume   bool
	LogLevel string

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb, .gbc, or a zip/7z/gz/rar archive holding one)")
	flag.StringVar(&f.BootROM, "bootrom", "", "optional DMG boot ROM")
	flag.IntVar(&f.Scale, "scale", 3, "window and screenshot scale")
	flag.StringVar(&f.Title, "title", "funkyboy", "window title")
	flag.BoolVar(&f.Trace, "trace", false, "log every executed opcode (debug level)")
	flag.StringVar(&f.SaveDir, "savedir", "saves", "directory for battery saves, state slots and the resume file")
	flag.StringVar(&f.Stream, "stream", "", "serve frames over websocket on this address (e.g. :8090)")
	flag.BoolVar(&f.Audio, "audio", true, "play audio")
	flag.BoolVar(&f.Resume, "resume", false, "continue the last session and record it again on exit")
	flag.StringVar(&f.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last frame to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

func newLogger(level string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
		DisableSorting:   true,
		DisableQuote:     true,
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return log, err
	}
	log.SetLevel(lvl)
	return log, nil
}

func main() {
	f := parseFlags()
	log, err := newLogger(f.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("bad -log-level")
	}
	if err := run(f, log); err != nil {
		log.WithError(err).Fatal("funkyboy")
	}
}

func run(f CLIFlags, log *logrus.Logger) error {
	store := persist.New(f.SaveDir)

	romPath, err := resolveROM(f, store)
	if err != nil {
		return err
	}
	if romPath == "" {
		log.Info("no ROM selected")
		return nil
	}

	cfg := emu.Defaults()
	cfg.Trace = f.Trace
	if f.BootROM != "" {
		if cfg.BootROM, err = os.ReadFile(f.BootROM); err != nil {
			return fmt.Errorf("read boot ROM: %w", err)
		}
	}

	var e *emu.Emulator
	var hub *stream.Hub
	var streamDisplay controller.DisplayController
	if f.Stream != "" {
		hub = stream.NewHub(log, func(k controller.Key, pressed bool) { e.SetInputState(k, pressed) })
		streamDisplay = stream.NewDisplay(hub)
	}

	var app *ui.App
	opts := []emu.Option{emu.WithLogger(log)}
	var fb *controller.Framebuffer
	if f.Headless {
		fb = controller.NewFramebuffer(controller.DMGPalette)
		opts = append(opts, emu.WithDisplay(controller.MultiDisplay(fb, streamDisplay)))
		if f.Audio {
			sound, err := newHeadlessAudio(cfg.SampleRate)
			if err != nil {
				log.WithError(err).Warn("audio unavailable, running silent")
			} else {
				defer sound.Close()
				opts = append(opts, emu.WithAudio(sound.Queue))
			}
		}
	} else {
		app = ui.NewApp(ui.Config{
			Title:      f.Title,
			Scale:      f.Scale,
			SampleRate: cfg.SampleRate,
			Muted:      !f.Audio,
		}, log, store)
		fb = app.Display()
		opts = append(opts,
			emu.WithDisplay(controller.MultiDisplay(fb, streamDisplay)),
			emu.WithAudio(app.Audio()))
	}
	e = emu.New(cfg, opts...)

	if err := startGame(e, store, romPath, f.Resume, log); err != nil {
		return err
	}

	if hub != nil {
		srv := &http.Server{Addr: f.Stream, Handler: hub.Handler()}
		go hub.Run()
		go func() {
			log.WithField("addr", f.Stream).Info("streaming frames")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("stream server")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("stream server shutdown")
			}
			hub.Close()
		}()
	}

	if f.Headless {
		err = runHeadless(e, fb, f.Frames, f.PNGOut, f.Expect, f.Scale, log)
	} else {
		err = app.Run(e)
	}
	shutdown(e, store, romPath, f.Resume, log)
	return err
}

// resolveROM picks the ROM from -rom, the resume file or a file dialog.
func resolveROM(f CLIFlags, store *persist.Store) (string, error) {
	if f.ROMPath != "" {
		return f.ROMPath, nil
	}
	if f.Resume {
		if r, err := store.ReadResume(); err == nil {
			return r.ROMPath, nil
		}
	}
	if f.Headless {
		return "", errors.New("-rom is required in headless mode")
	}
	path, err := pickROM()
	if errors.Is(err, dialog.ErrCancelled) {
		return "", nil
	}
	return path, err
}

func pickROM() (string, error) {
	exts := make([]string, 0, len(romloader.Extensions)+5)
	for _, ext := range romloader.Extensions {
		exts = append(exts, ext[1:])
	}
	exts = append(exts, "zip", "7z", "gz", "tgz", "rar")
	return dialog.File().Title("Open Game Boy ROM").Filter("Game Boy ROMs", exts...).Load()
}

func startGame(e *emu.Emulator, store *persist.Store, romPath string, resume bool, log *logrus.Logger) error {
	if resume {
		if _, err := store.RestoreResume(e, romPath); err == nil {
			log.WithField("rom", romPath).Info("session resumed")
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("resume failed, starting fresh")
		}
	}
	if st := e.LoadGame(romPath); st != cart.Loaded {
		return fmt.Errorf("load %s: %s", romPath, st)
	}
	h := e.Header()
	log.WithFields(logrus.Fields{
		"title": h.Title,
		"type":  h.CartTypeStr,
		"save":  e.SupportsSaving(),
	}).Info("cartridge loaded")
	if e.SupportsSaving() {
		if err := store.LoadBattery(e); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("battery save not loaded")
		}
	}
	return nil
}

func shutdown(e *emu.Emulator, store *persist.Store, romPath string, resume bool, log *logrus.Logger) {
	if e.SupportsSaving() {
		if err := store.SaveBattery(e); err != nil {
			log.WithError(err).Error("battery save failed")
		} else {
			log.WithField("path", store.BatteryPath(e.SaveName())).Info("battery saved")
		}
	}
	if resume {
		if err := store.WriteResume(e, romPath); err != nil {
			log.WithError(err).Error("resume file not written")
		}
	}
}

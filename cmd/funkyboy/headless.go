package main

import (
	"fmt"
	"hash/crc32"
	"os"
	"strings"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/emu"
	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/ui"
)

func runHeadless(e *emu.Emulator, fb *controller.Framebuffer, frames int, pngPath, expectCRC string, scale int, log logrus.FieldLogger) error {
	if frames <= 0 {
		frames = 1
	}

	start := time.Now()
	presented := 0
	for i := 0; i < frames; i++ {
		if e.DoTick()&emu.RetNewFrame != 0 {
			presented++
		}
	}
	dur := time.Since(start)

	crc := crc32.ChecksumIEEE(fb.Image().Pix)
	log.WithFields(logrus.Fields{
		"frames":    frames,
		"presented": presented,
		"elapsed":   dur.Truncate(time.Millisecond),
		"fps":       fmt.Sprintf("%.2f", float64(frames)/dur.Seconds()),
		"fb_crc32":  fmt.Sprintf("%08x", crc),
	}).Info("headless run finished")

	if pngPath != "" {
		data, err := ui.EncodePNG(fb.Image(), scale)
		if err != nil {
			return err
		}
		if err := os.WriteFile(pngPath, data, 0o644); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.WithField("path", pngPath).Info("frame written")
	}

	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

// headlessAudio plays the emulator's samples on the default device. The
// blocking queue makes the device clock pace the run.
type headlessAudio struct {
	Queue  *controller.SampleQueue
	player *oto.Player
}

func newHeadlessAudio(sampleRate int) (*headlessAudio, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("oto: %w", err)
	}
	<-ready
	q := controller.NewSampleQueue(controller.DefaultQueueFrames)
	p := ctx.NewPlayer(q)
	p.Play()
	return &headlessAudio{Queue: q, player: p}, nil
}

func (a *headlessAudio) Close() {
	a.Queue.Close()
	a.player.Close()
}

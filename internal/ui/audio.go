package ui

import (
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
)

// AudioSink is the emulator's AudioController in windowed mode. Samples go
// to a blocking SampleQueue, so the audio device paces emulation. While
// muted or fast forwarding samples are discarded instead.
type AudioSink struct {
	Queue *controller.SampleQueue
	muted atomic.Bool
}

// NewAudioSink returns a sink backed by a queue of the given capacity.
func NewAudioSink(frames int) *AudioSink {
	return &AudioSink{Queue: controller.NewSampleQueue(frames)}
}

func (s *AudioSink) PushSample(left, right float32) {
	if s.muted.Load() {
		return
	}
	s.Queue.PushSample(left, right)
}

// SetMuted switches between queueing and discarding samples.
func (s *AudioSink) SetMuted(m bool) { s.muted.Store(m) }

// Muted reports whether samples are being discarded.
func (s *AudioSink) Muted() bool { return s.muted.Load() }

// Close releases a producer blocked on the queue.
func (s *AudioSink) Close() { s.Queue.Close() }

// newPlayer starts an ebiten audio player pulling PCM from q.
func newPlayer(sampleRate int, q *controller.SampleQueue) (*audio.Player, error) {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(sampleRate)
	}
	p, err := ctx.NewPlayer(q)
	if err != nil {
		return nil, err
	}
	p.SetBufferSize(40 * time.Millisecond)
	p.Play()
	return p, nil
}

package controller

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
)

// DefaultQueueFrames is the default SampleQueue capacity in stereo frames.
const DefaultQueueFrames = 4096

// SampleQueue is a bounded single-producer/single-consumer queue of stereo
// samples. The producer blocks while the queue is full and never drops a
// sample; the consumer reads 16-bit little-endian PCM and gets silence when
// the queue runs dry.
type SampleQueue struct {
	mu      sync.Mutex
	notFull *sync.Cond
	buf     [][2]float32
	head    int
	n       int
	closed  bool

	underruns atomic.Uint64
}

// NewSampleQueue returns a queue holding up to frames stereo samples.
func NewSampleQueue(frames int) *SampleQueue {
	if frames <= 0 {
		frames = DefaultQueueFrames
	}
	q := &SampleQueue{buf: make([][2]float32, frames)}
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// PushSample implements AudioController. It waits for the consumer while
// the queue is full. After Close it returns immediately.
func (q *SampleQueue) PushSample(left, right float32) {
	q.mu.Lock()
	for q.n == len(q.buf) && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.buf[(q.head+q.n)%len(q.buf)] = [2]float32{left, right}
	q.n++
	q.mu.Unlock()
}

// Pop moves up to len(dst) frames into dst and returns how many were moved.
func (q *SampleQueue) Pop(dst [][2]float32) int {
	q.mu.Lock()
	k := min(len(dst), q.n)
	for i := 0; i < k; i++ {
		dst[i] = q.buf[q.head]
		q.head = (q.head + 1) % len(q.buf)
	}
	q.n -= k
	if k > 0 {
		q.notFull.Broadcast()
	}
	q.mu.Unlock()
	return k
}

// Read fills p with interleaved stereo int16 PCM. Missing frames are
// written as silence and counted as underruns.
func (q *SampleQueue) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		clear(p)
		return len(p), nil
	}
	tmp := make([][2]float32, frames)
	got := q.Pop(tmp)
	for i := 0; i < got; i++ {
		binary.LittleEndian.PutUint16(p[i*4:], uint16(toPCM(tmp[i][0])))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(toPCM(tmp[i][1])))
	}
	if got < frames {
		clear(p[got*4 : frames*4])
		q.underruns.Add(1)
	}
	return frames * 4, nil
}

// Len returns the number of queued frames.
func (q *SampleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Cap returns the queue capacity in frames.
func (q *SampleQueue) Cap() int { return len(q.buf) }

// Underruns counts reads that had to pad with silence.
func (q *SampleQueue) Underruns() uint64 { return q.underruns.Load() }

// Close releases a blocked producer. Later pushes are discarded.
func (q *SampleQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.notFull.Broadcast()
	q.mu.Unlock()
}

func toPCM(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(math.Round(float64(v) * math.MaxInt16))
}

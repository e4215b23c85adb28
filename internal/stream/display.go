package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/cespare/xxhash"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
)

// FrameSize is the length of a decoded frame: one shade byte per pixel.
const FrameSize = controller.Width * controller.Height

// ErrBadFrame reports a message that is not a well formed frame.
var ErrBadFrame = errors.New("stream: bad frame message")

// Broadcaster is the sink for encoded frames; *Hub implements it.
type Broadcaster interface {
	Broadcast(msg []byte)
}

// Display is a DisplayController that forwards completed frames to a
// Broadcaster. A frame identical to the previous one is not sent again.
type Display struct {
	out   Broadcaster
	level int

	frame   [FrameSize]byte
	hash    uint64
	hasHash bool
	buf     bytes.Buffer

	sent, skipped uint64
}

// NewDisplay returns a display writing to out with the default brotli
// quality.
func NewDisplay(out Broadcaster) *Display {
	return &Display{out: out, level: 5}
}

// SetQuality sets the brotli quality, 0 (fastest) to 11.
func (d *Display) SetQuality(level int) {
	d.level = max(brotli.BestSpeed, min(level, brotli.BestCompression))
}

func (d *Display) DrawScanLine(line int, row *[controller.Width]uint8) {
	if line < 0 || line >= controller.Height {
		return
	}
	copy(d.frame[line*controller.Width:], row[:])
}

func (d *Display) DrawScreen() {
	h := xxhash.Sum64(d.frame[:])
	if d.hasHash && h == d.hash {
		d.skipped++
		return
	}
	d.hash, d.hasHash = h, true

	d.buf.Reset()
	d.buf.WriteByte(MsgFrame)
	w := brotli.NewWriterLevel(&d.buf, d.level)
	w.Write(d.frame[:])
	w.Close()

	msg := make([]byte, d.buf.Len())
	copy(msg, d.buf.Bytes())
	d.out.Broadcast(msg)
	d.sent++
}

// Stats returns how many frames were sent and how many were skipped as
// duplicates.
func (d *Display) Stats() (sent, skipped uint64) { return d.sent, d.skipped }

// DecodeFrame unpacks a MsgFrame message into shade bytes, row major.
func DecodeFrame(msg []byte) ([]byte, error) {
	if len(msg) < 2 || msg[0] != MsgFrame {
		return nil, ErrBadFrame
	}
	r := brotli.NewReader(bytes.NewReader(msg[1:]))
	out, err := io.ReadAll(io.LimitReader(r, FrameSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if len(out) != FrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(out))
	}
	return out, nil
}

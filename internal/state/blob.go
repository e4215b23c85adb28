package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash"
)

// Version is the current payload layout. Bump it whenever a component
// changes what it writes.
const Version uint16 = 3

// HeaderSize is the size of the blob header: magic, version, length, hash.
const HeaderSize = 4 + 2 + 4 + 8

// MaxSize is the largest blob the engine produces or accepts.
const MaxSize = 256 * 1024

var magic = [4]byte{'F', 'B', 'S', 'T'}

var (
	ErrBadMagic         = errors.New("state: not a save state")
	ErrVersionMismatch  = errors.New("state: layout version mismatch")
	ErrSizeMismatch     = errors.New("state: payload size mismatch")
	ErrChecksumMismatch = errors.New("state: checksum mismatch")
	ErrTooLarge         = errors.New("state: blob exceeds maximum size")
)

// Seal wraps payload in a versioned header.
func Seal(payload []byte) ([]byte, error) {
	if HeaderSize+len(payload) > MaxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, HeaderSize+len(payload))
	}
	out := make([]byte, HeaderSize, HeaderSize+len(payload))
	copy(out[0:4], magic[:])
	binary.LittleEndian.PutUint16(out[4:6], Version)
	binary.LittleEndian.PutUint32(out[6:10], uint32(len(payload)))
	binary.LittleEndian.PutUint64(out[10:18], xxhash.Sum64(payload))
	return append(out, payload...), nil
}

// Open validates a sealed blob and returns its payload.
func Open(blob []byte) ([]byte, error) {
	if len(blob) > MaxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(blob))
	}
	if len(blob) < HeaderSize || [4]byte(blob[0:4]) != magic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(blob[4:6]); v != Version {
		return nil, fmt.Errorf("%w: got %d want %d", ErrVersionMismatch, v, Version)
	}
	n := int(binary.LittleEndian.Uint32(blob[6:10]))
	payload := blob[HeaderSize:]
	if n != len(payload) {
		return nil, fmt.Errorf("%w: header says %d, have %d", ErrSizeMismatch, n, len(payload))
	}
	if xxhash.Sum64(payload) != binary.LittleEndian.Uint64(blob[10:18]) {
		return nil, ErrChecksumMismatch
	}
	return payload, nil
}

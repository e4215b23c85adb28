package controller

import "sync/atomic"

// KeyState is a JoypadController backed by an atomic bit mask. Set may be
// called from any goroutine; presses that are released again before the
// core polls are lost.
type KeyState struct {
	mask atomic.Uint32
}

// Set records the new state of key.
func (s *KeyState) Set(key Key, pressed bool) {
	if !key.Valid() {
		return
	}
	bit := uint32(1) << key
	for {
		old := s.mask.Load()
		next := old &^ bit
		if pressed {
			next = old | bit
		}
		if old == next || s.mask.CompareAndSwap(old, next) {
			return
		}
	}
}

func (s *KeyState) IsKeyPressed(key Key) bool {
	if !key.Valid() {
		return false
	}
	return s.mask.Load()&(1<<key) != 0
}

// Mask returns all keys as bits, KeyRight in bit 0.
func (s *KeyState) Mask() uint8 { return uint8(s.mask.Load()) }

// Clear releases every key.
func (s *KeyState) Clear() { s.mask.Store(0) }

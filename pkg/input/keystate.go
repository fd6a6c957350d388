// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Package input converts raw "is this key down right now" polling into
// press/release edge events. Polling is used instead of event subscription
// because the host process owns the input loop cadence; callers poll once
// per frame or tick. At most one transition is detectable per poll
// interval, so a press and release between two polls is invisible.
package input

import "sync/atomic"

// Sampler reports whether the key identified by a virtual-key code is
// physically down at the moment of the call. No buffering, no queue.
type Sampler func(vk int) bool

// KeyState tracks one key's previous sample for edge detection. The
// previous/current swap is a single atomic read-modify-write, so concurrent
// pollers never observe a torn pair, though the intended use is a single
// poller per KeyState.
type KeyState struct {
	vk     int
	sample Sampler
	down   atomic.Bool
}

// NewKeyState creates a detector for vk. The previous state is seeded from
// one immediate sample: a key already held down when the tool starts must
// not produce a spurious press edge on the first poll.
func NewKeyState(vk int, sample Sampler) *KeyState {
	k := &KeyState{vk: vk, sample: sample}
	k.down.Store(sample(vk))
	return k
}

// VK returns the virtual-key code this state tracks.
func (k *KeyState) VK() int { return k.vk }

// Poll samples the key and atomically swaps the stored previous state,
// returning the pair the edge queries are derived from.
func (k *KeyState) Poll() (wasDown, isDown bool) {
	isDown = k.sample(k.vk)
	wasDown = k.down.Swap(isDown)
	return wasDown, isDown
}

// Keydown polls and reports a press edge: up before, down now.
func (k *KeyState) Keydown() bool {
	was, is := k.Poll()
	return !was && is
}

// Keyup polls and reports a release edge: down before, up now.
func (k *KeyState) Keyup() bool {
	was, is := k.Poll()
	return was && !is
}

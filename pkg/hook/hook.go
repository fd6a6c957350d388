// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Package hook implements the in-process function-hooking engine: it
// redirects a target function to a detour, keeps the original callable
// through a trampoline, and batches order-sensitive enable/disable
// transitions so one user action never leaves the process half-toggled.
package hook

// State is the logical lifecycle state of a hook.
type State int

const (
	// StateCreated means the hook exists but has never been enabled.
	// Equivalent to disabled from the target's point of view.
	StateCreated State = iota
	// StateEnabled means calls to the target are redirected to the detour.
	StateEnabled
	// StateDisabled means the redirection is installed but inactive.
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	default:
		return "invalid"
	}
}

type pendingOp int

const (
	pendingNone pendingOp = iota
	pendingEnable
	pendingDisable
)

// Hook is one target→detour binding. Hooks are created and exclusively
// owned by an Engine; other components only borrow the trampoline address.
//
// The trampoline is written once at creation and never mutated, so detour
// functions may read it concurrently with the engine toggling other hooks.
// Casting target, detour and trampoline to concrete function signatures is
// the caller's unchecked contract.
type Hook struct {
	target     uintptr
	detour     uintptr
	trampoline uintptr

	// Mutated only under the owning engine's lock.
	state   State
	pending pendingOp
}

// Target returns the address of the intercepted function.
func (h *Hook) Target() uintptr { return h.target }

// Detour returns the address of the replacement function.
func (h *Hook) Detour() uintptr { return h.detour }

// Trampoline returns the address through which the original function's
// behavior remains reachable while the hook is enabled. Non-zero for every
// hook an engine hands out.
func (h *Hook) Trampoline() uintptr { return h.trampoline }

// State returns the hook's logical state. Meaningful only on the thread
// driving the owning engine.
func (h *Hook) State() State { return h.state }

// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package hook

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mbeema/detour/pkg/patch"
	"github.com/mbeema/detour/pkg/status"
)

// Engine owns the set of all hooks in the process and drives the patching
// primitive. All methods are synchronous and safe for concurrent use; the
// engine never spawns threads and never terminates the process on a
// hooking failure, since the host must keep running whatever happens.
type Engine struct {
	prim   patch.Primitive
	logger *zap.Logger

	mu          sync.Mutex
	hooks       map[uintptr]*Hook
	initialized bool
}

// New creates an engine on top of the given patching primitive. The engine
// is unusable until Initialize succeeds.
func New(prim patch.Primitive, logger *zap.Logger) *Engine {
	return &Engine{
		prim:   prim,
		logger: logger,
		hooks:  make(map[uintptr]*Hook),
	}
}

// Initialize prepares the patching primitive. Must succeed exactly once
// before any Create call; a second Initialize fails with
// status.ErrAlreadyInitialized.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return status.ErrAlreadyInitialized
	}
	st := e.prim.Initialize()
	e.logger.Debug("primitive initialize", zap.Stringer("status", st))
	if err := st.Err(); err != nil {
		return fmt.Errorf("initialize primitive: %w", err)
	}
	e.initialized = true
	return nil
}

// Uninitialize tears down the primitive and forgets all hooks. The
// surrounding application calls this exactly once at shutdown.
func (e *Engine) Uninitialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return status.ErrNotInitialized
	}
	st := e.prim.Uninitialize()
	e.logger.Debug("primitive uninitialize", zap.Stringer("status", st))
	if err := st.Err(); err != nil {
		return fmt.Errorf("uninitialize primitive: %w", err)
	}
	e.initialized = false
	e.hooks = make(map[uintptr]*Hook)
	return nil
}

// Create registers a hook redirecting target to detour. The hook starts
// disabled. At most one hook may exist per target address; a duplicate
// Create fails with status.ErrAlreadyExists and leaves the original hook
// untouched. A failed Create registers nothing.
func (e *Engine) Create(target, detour uintptr) (*Hook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, status.ErrNotInitialized
	}
	if _, ok := e.hooks[target]; ok {
		return nil, fmt.Errorf("create hook for 0x%x: %w", target, status.ErrAlreadyExists)
	}

	trampoline, st := e.prim.CreateHook(target, detour)
	e.logger.Debug("primitive create hook",
		zap.Uintptr("target", target),
		zap.Stringer("status", st),
	)
	if err := st.Err(); err != nil {
		return nil, fmt.Errorf("create hook for 0x%x: %w", target, err)
	}

	h := &Hook{
		target:     target,
		detour:     detour,
		trampoline: trampoline,
		state:      StateCreated,
	}
	e.hooks[target] = h

	e.logger.Info("hook created",
		zap.Uintptr("target", target),
		zap.Uintptr("detour", detour),
		zap.Uintptr("trampoline", trampoline),
	)
	return h, nil
}

// Enable activates h immediately. Enabling an already-enabled hook is a
// benign no-op: the primitive's "already enabled" status is logged and
// folded into success, because repeated toggling from user input is
// expected and must not alarm the caller.
func (e *Engine) Enable(h *Hook) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setEnabled(h, true)
}

// Disable deactivates h immediately. Idempotent like Enable.
func (e *Engine) Disable(h *Hook) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setEnabled(h, false)
}

func (e *Engine) setEnabled(h *Hook, enable bool) error {
	if !e.initialized {
		return status.ErrNotInitialized
	}
	if err := e.owned(h); err != nil {
		return err
	}

	var st status.Status
	if enable {
		st = e.prim.EnableHook(h.target)
	} else {
		st = e.prim.DisableHook(h.target)
	}
	if st.Benign() {
		e.logger.Debug("hook toggle was a no-op",
			zap.Uintptr("target", h.target),
			zap.Stringer("status", st),
		)
	}
	if err := st.Err(); err != nil {
		return fmt.Errorf("toggle hook 0x%x: %w", h.target, err)
	}

	if enable {
		h.state = StateEnabled
	} else {
		h.state = StateDisabled
	}
	return nil
}

// QueueEnable marks h to be enabled by the next ApplyQueue. Pure
// bookkeeping; executable memory is untouched until ApplyQueue commits.
func (e *Engine) QueueEnable(h *Hook) error {
	return e.queue(h, pendingEnable)
}

// QueueDisable marks h to be disabled by the next ApplyQueue.
func (e *Engine) QueueDisable(h *Hook) error {
	return e.queue(h, pendingDisable)
}

func (e *Engine) queue(h *Hook, op pendingOp) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.owned(h); err != nil {
		return err
	}
	h.pending = op
	return nil
}

// ApplyQueue commits the queued transitions of exactly the given hooks as
// one batch. Each hook's queued transition is submitted to the primitive in
// the order given here, then a single batch commit flips them together, so
// a ten-hook keybind never leaves some hooks active and others not across
// the commit boundary. Hooks without a queued transition are skipped.
// Afterwards the queue marks are cleared.
func (e *Engine) ApplyQueue(hooks ...*Hook) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return status.ErrNotInitialized
	}
	for _, h := range hooks {
		if err := e.owned(h); err != nil {
			return err
		}
	}

	submitted := 0
	for _, h := range hooks {
		var st status.Status
		switch h.pending {
		case pendingEnable:
			st = e.prim.QueueEnableHook(h.target)
		case pendingDisable:
			st = e.prim.QueueDisableHook(h.target)
		default:
			continue
		}
		e.logger.Debug("primitive queue transition",
			zap.Uintptr("target", h.target),
			zap.Stringer("status", st),
		)
		if err := st.Err(); err != nil {
			return fmt.Errorf("queue hook 0x%x: %w", h.target, err)
		}
		submitted++
	}

	if submitted > 0 {
		st := e.prim.ApplyQueued()
		e.logger.Debug("primitive apply queued",
			zap.Int("hooks", submitted),
			zap.Stringer("status", st),
		)
		if err := st.Err(); err != nil {
			return fmt.Errorf("apply queued transitions: %w", err)
		}
	}

	for _, h := range hooks {
		switch h.pending {
		case pendingEnable:
			h.state = StateEnabled
		case pendingDisable:
			h.state = StateDisabled
		}
		h.pending = pendingNone
	}
	return nil
}

// Remove disables h if needed, destroys the underlying hook and forgets the
// record. The trampoline must not be called after Remove returns.
func (e *Engine) Remove(h *Hook) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return status.ErrNotInitialized
	}
	if err := e.owned(h); err != nil {
		return err
	}

	if h.state == StateEnabled {
		st := e.prim.DisableHook(h.target)
		if err := st.Err(); err != nil {
			return fmt.Errorf("disable hook 0x%x before removal: %w", h.target, err)
		}
	}
	st := e.prim.RemoveHook(h.target)
	if err := st.Err(); err != nil {
		return fmt.Errorf("remove hook 0x%x: %w", h.target, err)
	}

	delete(e.hooks, h.target)
	e.logger.Info("hook removed", zap.Uintptr("target", h.target))
	return nil
}

// Count returns the number of hooks the engine currently owns.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.hooks)
}

// owned verifies h was created by this engine and is still registered.
// Caller holds e.mu.
func (e *Engine) owned(h *Hook) error {
	if h == nil {
		return status.ErrNotCreated
	}
	if got, ok := e.hooks[h.target]; !ok || got != h {
		return fmt.Errorf("hook 0x%x: %w", h.target, status.ErrNotCreated)
	}
	return nil
}

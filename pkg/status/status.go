// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Package status defines the status enumeration reported by the code
// patching primitive and translates it into typed errors. Every call into
// the primitive crosses this boundary exactly once; no raw status code is
// interpreted anywhere else.
package status

import "errors"

// Status mirrors the patching primitive's C-style result enumeration.
type Status int32

const (
	// Unknown should never be reported by a healthy primitive.
	Unknown Status = -1
	// OK means the operation succeeded.
	OK Status = iota - 1
	// AlreadyInitialized means the primitive was initialized twice.
	AlreadyInitialized
	// NotInitialized means the primitive is not initialized yet, or was
	// already uninitialized.
	NotInitialized
	// AlreadyCreated means a hook for the target function already exists.
	AlreadyCreated
	// NotCreated means no hook exists for the target function.
	NotCreated
	// AlreadyEnabled means the hook for the target is already enabled.
	AlreadyEnabled
	// NotEnabled means the hook for the target is not enabled yet, or was
	// already disabled.
	NotEnabled
	// NotExecutable means the target points into non-allocated or
	// non-executable memory.
	NotExecutable
	// UnsupportedFunction means the target function cannot be hooked.
	UnsupportedFunction
	// MemoryAlloc means the primitive failed to allocate memory for a
	// trampoline.
	MemoryAlloc
	// MemoryProtect means changing memory protection failed.
	MemoryProtect
	// ModuleNotFound means the requested module is not loaded.
	ModuleNotFound
	// FunctionNotFound means the requested function was not found.
	FunctionNotFound
)

// Typed errors surfaced to callers of the hook engine. Hooking failures
// degrade a single feature; none of these may take the host process down.
var (
	ErrAlreadyExists          = errors.New("hook already exists for target")
	ErrNotCreated             = errors.New("no hook created for target")
	ErrNotSupported           = errors.New("target function cannot be hooked")
	ErrAllocationFailed       = errors.New("trampoline allocation failed")
	ErrProtectionChangeFailed = errors.New("memory protection change failed")
	ErrNotInitialized         = errors.New("patching primitive not initialized")
	ErrAlreadyInitialized     = errors.New("patching primitive already initialized")
	ErrModuleNotFound         = errors.New("module not found")
	ErrFunctionNotFound       = errors.New("function not found")
	ErrUnknown                = errors.New("unknown patching primitive failure")
)

var statusNames = map[Status]string{
	Unknown:             "UNKNOWN",
	OK:                  "OK",
	AlreadyInitialized:  "ALREADY_INITIALIZED",
	NotInitialized:      "NOT_INITIALIZED",
	AlreadyCreated:      "ALREADY_CREATED",
	NotCreated:          "NOT_CREATED",
	AlreadyEnabled:      "ALREADY_ENABLED",
	NotEnabled:          "NOT_ENABLED",
	NotExecutable:       "NOT_EXECUTABLE",
	UnsupportedFunction: "UNSUPPORTED_FUNCTION",
	MemoryAlloc:         "MEMORY_ALLOC",
	MemoryProtect:       "MEMORY_PROTECT",
	ModuleNotFound:      "MODULE_NOT_FOUND",
	FunctionNotFound:    "FUNCTION_NOT_FOUND",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// Benign reports whether s is one of the idempotent-toggle statuses
// (already enabled, already disabled). Repeated toggling from user input is
// expected; the engine logs these at debug level and reports success.
func (s Status) Benign() bool {
	return s == AlreadyEnabled || s == NotEnabled
}

// Err translates a primitive status into a typed error. OK and the benign
// toggle statuses map to nil; callers that need to distinguish a benign
// outcome check Benign on the status itself.
func (s Status) Err() error {
	switch s {
	case OK, AlreadyEnabled, NotEnabled:
		return nil
	case AlreadyInitialized:
		return ErrAlreadyInitialized
	case NotInitialized:
		return ErrNotInitialized
	case AlreadyCreated:
		return ErrAlreadyExists
	case NotCreated:
		return ErrNotCreated
	case NotExecutable, UnsupportedFunction:
		return ErrNotSupported
	case MemoryAlloc:
		return ErrAllocationFailed
	case MemoryProtect:
		return ErrProtectionChangeFailed
	case ModuleNotFound:
		return ErrModuleNotFound
	case FunctionNotFound:
		return ErrFunctionNotFound
	default:
		return ErrUnknown
	}
}

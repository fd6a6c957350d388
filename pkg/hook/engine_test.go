package hook

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/mbeema/detour/pkg/status"
)

// fakePrimitive mimics the patching primitive's status semantics and
// records every call in order.
type fakePrimitive struct {
	calls       []string
	initialized bool
	created     map[uintptr]bool
	enabled     map[uintptr]bool

	createStatus status.Status // forced CreateHook failure when non-OK
}

func newFakePrimitive() *fakePrimitive {
	return &fakePrimitive{
		created: make(map[uintptr]bool),
		enabled: make(map[uintptr]bool),
	}
}

func (f *fakePrimitive) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakePrimitive) Initialize() status.Status {
	f.record("initialize")
	if f.initialized {
		return status.AlreadyInitialized
	}
	f.initialized = true
	return status.OK
}

func (f *fakePrimitive) Uninitialize() status.Status {
	f.record("uninitialize")
	if !f.initialized {
		return status.NotInitialized
	}
	f.initialized = false
	f.created = make(map[uintptr]bool)
	f.enabled = make(map[uintptr]bool)
	return status.OK
}

func (f *fakePrimitive) CreateHook(target, detour uintptr) (uintptr, status.Status) {
	f.record("create:%#x", target)
	if f.createStatus != status.OK {
		return 0, f.createStatus
	}
	if f.created[target] {
		return 0, status.AlreadyCreated
	}
	f.created[target] = true
	return target + 0x1000, status.OK
}

func (f *fakePrimitive) EnableHook(target uintptr) status.Status {
	f.record("enable:%#x", target)
	if !f.created[target] {
		return status.NotCreated
	}
	if f.enabled[target] {
		return status.AlreadyEnabled
	}
	f.enabled[target] = true
	return status.OK
}

func (f *fakePrimitive) DisableHook(target uintptr) status.Status {
	f.record("disable:%#x", target)
	if !f.created[target] {
		return status.NotCreated
	}
	if !f.enabled[target] {
		return status.NotEnabled
	}
	f.enabled[target] = false
	return status.OK
}

func (f *fakePrimitive) RemoveHook(target uintptr) status.Status {
	f.record("remove:%#x", target)
	if !f.created[target] {
		return status.NotCreated
	}
	delete(f.created, target)
	delete(f.enabled, target)
	return status.OK
}

func (f *fakePrimitive) QueueEnableHook(target uintptr) status.Status {
	f.record("queue_enable:%#x", target)
	if !f.created[target] {
		return status.NotCreated
	}
	return status.OK
}

func (f *fakePrimitive) QueueDisableHook(target uintptr) status.Status {
	f.record("queue_disable:%#x", target)
	if !f.created[target] {
		return status.NotCreated
	}
	return status.OK
}

func (f *fakePrimitive) ApplyQueued() status.Status {
	f.record("apply_queued")
	return status.OK
}

func newTestEngine(t *testing.T) (*Engine, *fakePrimitive) {
	t.Helper()
	prim := newFakePrimitive()
	e := New(prim, zap.NewNop())
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return e, prim
}

func TestCreateReturnsTrampoline(t *testing.T) {
	e, _ := newTestEngine(t)

	h, err := e.Create(0x1000, 0x2000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.Trampoline() == 0 {
		t.Fatal("trampoline must be non-zero after successful create")
	}
	if h.Target() != 0x1000 || h.Detour() != 0x2000 {
		t.Errorf("hook = (%#x, %#x), want (0x1000, 0x2000)", h.Target(), h.Detour())
	}
	if h.State() != StateCreated {
		t.Errorf("state = %v, want created", h.State())
	}
}

func TestCreateDuplicateTarget(t *testing.T) {
	e, _ := newTestEngine(t)

	h1, err := e.Create(0x1000, 0x2000)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	tramp := h1.Trampoline()

	if _, err := e.Create(0x1000, 0x3000); !errors.Is(err, status.ErrAlreadyExists) {
		t.Fatalf("second Create error = %v, want ErrAlreadyExists", err)
	}

	// Original record must be untouched.
	if h1.Trampoline() != tramp {
		t.Error("original trampoline changed by failed duplicate create")
	}
	if e.Count() != 1 {
		t.Errorf("Count = %d, want 1", e.Count())
	}
	if err := e.Enable(h1); err != nil {
		t.Errorf("original hook unusable after duplicate create: %v", err)
	}
}

func TestCreateFailureRegistersNothing(t *testing.T) {
	e, prim := newTestEngine(t)
	prim.createStatus = status.UnsupportedFunction

	if _, err := e.Create(0x1000, 0x2000); !errors.Is(err, status.ErrNotSupported) {
		t.Fatalf("Create error = %v, want ErrNotSupported", err)
	}
	if e.Count() != 0 {
		t.Errorf("Count = %d after failed create, want 0", e.Count())
	}

	// The target stays free for a later attempt.
	prim.createStatus = status.OK
	if _, err := e.Create(0x1000, 0x2000); err != nil {
		t.Fatalf("retry Create: %v", err)
	}
}

func TestCreateBeforeInitialize(t *testing.T) {
	e := New(newFakePrimitive(), zap.NewNop())
	if _, err := e.Create(0x1000, 0x2000); !errors.Is(err, status.ErrNotInitialized) {
		t.Fatalf("Create error = %v, want ErrNotInitialized", err)
	}
}

func TestInitializeTwice(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Initialize(); !errors.Is(err, status.ErrAlreadyInitialized) {
		t.Fatalf("second Initialize error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestUninitializeTwice(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Uninitialize(); err != nil {
		t.Fatalf("Uninitialize: %v", err)
	}
	if err := e.Uninitialize(); !errors.Is(err, status.ErrNotInitialized) {
		t.Fatalf("second Uninitialize error = %v, want ErrNotInitialized", err)
	}
}

func TestEnableDisableIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	h, err := e.Create(0x1000, 0x2000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := e.Enable(h); err != nil {
			t.Fatalf("Enable #%d: %v", i+1, err)
		}
		if h.State() != StateEnabled {
			t.Fatalf("state after Enable #%d = %v, want enabled", i+1, h.State())
		}
	}

	for i := 0; i < 2; i++ {
		if err := e.Disable(h); err != nil {
			t.Fatalf("Disable #%d: %v", i+1, err)
		}
		if h.State() != StateDisabled {
			t.Fatalf("state after Disable #%d = %v, want disabled", i+1, h.State())
		}
	}
}

func TestEnableForeignHook(t *testing.T) {
	e, _ := newTestEngine(t)

	other, _ := newTestEngine(t)
	h, err := other.Create(0x1000, 0x2000)
	if err != nil {
		t.Fatalf("Create on other engine: %v", err)
	}

	if err := e.Enable(h); !errors.Is(err, status.ErrNotCreated) {
		t.Fatalf("Enable error = %v, want ErrNotCreated", err)
	}
	if err := e.Enable(nil); !errors.Is(err, status.ErrNotCreated) {
		t.Fatalf("Enable(nil) error = %v, want ErrNotCreated", err)
	}
}

func TestQueueIsPureBookkeeping(t *testing.T) {
	e, prim := newTestEngine(t)
	h, err := e.Create(0x1000, 0x2000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	before := len(prim.calls)
	if err := e.QueueEnable(h); err != nil {
		t.Fatalf("QueueEnable: %v", err)
	}
	if err := e.QueueDisable(h); err != nil {
		t.Fatalf("QueueDisable: %v", err)
	}
	if len(prim.calls) != before {
		t.Errorf("queueing touched the primitive: %v", prim.calls[before:])
	}
	if h.State() != StateCreated {
		t.Errorf("state = %v, queueing must not move state", h.State())
	}
}

func TestApplyQueueSubmitsInArgumentOrder(t *testing.T) {
	e, prim := newTestEngine(t)

	a, _ := e.Create(0xa000, 0x1)
	b, _ := e.Create(0xb000, 0x2)
	c, _ := e.Create(0xc000, 0x3)

	// Queue in a different order than submission.
	if err := e.QueueEnable(c); err != nil {
		t.Fatalf("QueueEnable(c): %v", err)
	}
	if err := e.QueueEnable(a); err != nil {
		t.Fatalf("QueueEnable(a): %v", err)
	}
	if err := e.QueueEnable(b); err != nil {
		t.Fatalf("QueueEnable(b): %v", err)
	}

	prim.calls = nil
	if err := e.ApplyQueue(a, b, c); err != nil {
		t.Fatalf("ApplyQueue: %v", err)
	}

	want := []string{
		"queue_enable:0xa000",
		"queue_enable:0xb000",
		"queue_enable:0xc000",
		"apply_queued",
	}
	if len(prim.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", prim.calls, want)
	}
	for i := range want {
		if prim.calls[i] != want[i] {
			t.Fatalf("calls[%d] = %q, want %q (full: %v)", i, prim.calls[i], want[i], prim.calls)
		}
	}

	for _, h := range []*Hook{a, b, c} {
		if h.State() != StateEnabled {
			t.Errorf("hook %#x state = %v, want enabled", h.Target(), h.State())
		}
	}
}

func TestApplyQueueMixedTransitions(t *testing.T) {
	e, prim := newTestEngine(t)

	a, _ := e.Create(0xa000, 0x1)
	b, _ := e.Create(0xb000, 0x2)
	if err := e.Enable(b); err != nil {
		t.Fatalf("Enable(b): %v", err)
	}

	e.QueueEnable(a)
	e.QueueDisable(b)

	prim.calls = nil
	if err := e.ApplyQueue(a, b); err != nil {
		t.Fatalf("ApplyQueue: %v", err)
	}

	want := []string{"queue_enable:0xa000", "queue_disable:0xb000", "apply_queued"}
	for i := range want {
		if prim.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", prim.calls, want)
		}
	}
	if a.State() != StateEnabled || b.State() != StateDisabled {
		t.Errorf("states = (%v, %v), want (enabled, disabled)", a.State(), b.State())
	}
}

func TestApplyQueueSkipsUnqueuedHooks(t *testing.T) {
	e, prim := newTestEngine(t)

	a, _ := e.Create(0xa000, 0x1)
	b, _ := e.Create(0xb000, 0x2)
	e.QueueEnable(a)

	prim.calls = nil
	if err := e.ApplyQueue(a, b); err != nil {
		t.Fatalf("ApplyQueue: %v", err)
	}
	for _, call := range prim.calls {
		if call == "queue_enable:0xb000" || call == "queue_disable:0xb000" {
			t.Fatalf("unqueued hook submitted: %v", prim.calls)
		}
	}
	if b.State() != StateCreated {
		t.Errorf("unqueued hook state = %v, want created", b.State())
	}
}

func TestApplyQueueWithNothingQueued(t *testing.T) {
	e, prim := newTestEngine(t)
	a, _ := e.Create(0xa000, 0x1)

	prim.calls = nil
	if err := e.ApplyQueue(a); err != nil {
		t.Fatalf("ApplyQueue: %v", err)
	}
	if len(prim.calls) != 0 {
		t.Errorf("empty batch touched the primitive: %v", prim.calls)
	}
}

func TestApplyQueueClearsQueueMarks(t *testing.T) {
	e, prim := newTestEngine(t)
	a, _ := e.Create(0xa000, 0x1)

	e.QueueEnable(a)
	if err := e.ApplyQueue(a); err != nil {
		t.Fatalf("ApplyQueue: %v", err)
	}

	// A second apply over the same hook submits nothing.
	prim.calls = nil
	if err := e.ApplyQueue(a); err != nil {
		t.Fatalf("second ApplyQueue: %v", err)
	}
	if len(prim.calls) != 0 {
		t.Errorf("stale queue mark resubmitted: %v", prim.calls)
	}
}

func TestApplyQueueForeignHookSubmitsNothing(t *testing.T) {
	e, prim := newTestEngine(t)
	a, _ := e.Create(0xa000, 0x1)
	e.QueueEnable(a)

	other, _ := newTestEngine(t)
	foreign, _ := other.Create(0xb000, 0x2)

	prim.calls = nil
	if err := e.ApplyQueue(a, foreign); !errors.Is(err, status.ErrNotCreated) {
		t.Fatalf("ApplyQueue error = %v, want ErrNotCreated", err)
	}
	if len(prim.calls) != 0 {
		t.Errorf("batch with foreign hook touched the primitive: %v", prim.calls)
	}
}

func TestRemoveDisablesFirst(t *testing.T) {
	e, prim := newTestEngine(t)
	h, _ := e.Create(0x1000, 0x2000)
	if err := e.Enable(h); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	prim.calls = nil
	if err := e.Remove(h); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	want := []string{"disable:0x1000", "remove:0x1000"}
	for i := range want {
		if prim.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", prim.calls, want)
		}
	}
	if e.Count() != 0 {
		t.Errorf("Count = %d after remove, want 0", e.Count())
	}

	// The target is free again.
	if _, err := e.Create(0x1000, 0x2000); err != nil {
		t.Errorf("Create after Remove: %v", err)
	}
}

func TestCreateEnableDisableScenario(t *testing.T) {
	e, _ := newTestEngine(t)

	h, err := e.Create(0x7000, 0x8000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.Trampoline() == 0 {
		t.Fatal("missing trampoline")
	}
	if _, err := e.Create(0x7000, 0x9000); !errors.Is(err, status.ErrAlreadyExists) {
		t.Fatalf("duplicate Create error = %v, want ErrAlreadyExists", err)
	}
	if err := e.Enable(h); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := e.Disable(h); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if err := e.Disable(h); err != nil {
		t.Fatalf("repeated Disable must be benign, got: %v", err)
	}
}

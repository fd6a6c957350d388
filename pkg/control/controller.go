// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Package control drives the hook engine from key input. Each registered
// feature is an ordered set of hooks that flips as one batch on a key-down
// edge, so a single keypress never leaves the feature half-applied.
package control

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/mbeema/detour/pkg/config"
	"github.com/mbeema/detour/pkg/hook"
	"github.com/mbeema/detour/pkg/input"
	"github.com/mbeema/detour/pkg/keymap"
)

// feature is a named, ordered set of hooks toggled together.
type feature struct {
	name    string
	hooks   []*hook.Hook
	enabled bool
}

// binding pairs a feature with the key state that toggles it.
type binding struct {
	feature *feature
	key     *input.KeyState
}

// Controller owns the poll loop. All hook transitions it performs go
// through the engine's queue/apply path; it never toggles hooks one by one.
type Controller struct {
	engine  *hook.Engine
	sampler input.Sampler
	logger  *zap.Logger

	mu           sync.Mutex
	pollInterval time.Duration
	features     map[string]*feature
	bindings     []*binding
	bindingCfg   []config.Binding

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a controller. Features are registered after New and bound to
// keys when Start or Reload resolves the configured bindings.
func New(cfg *config.Config, engine *hook.Engine, sampler input.Sampler, logger *zap.Logger) *Controller {
	return &Controller{
		engine:       engine,
		sampler:      sampler,
		logger:       logger,
		pollInterval: cfg.PollInterval,
		features:     make(map[string]*feature),
		bindingCfg:   cfg.Bindings,
		stopCh:       make(chan struct{}),
	}
}

// RegisterFeature registers a named toggle over the given hooks. The hook
// order given here is the order transitions are submitted in each batch.
func (c *Controller) RegisterFeature(name string, hooks ...*hook.Hook) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name == "" {
		return fmt.Errorf("feature name is required")
	}
	if _, ok := c.features[name]; ok {
		return fmt.Errorf("feature %q already registered", name)
	}
	if len(hooks) == 0 {
		return fmt.Errorf("feature %q has no hooks", name)
	}

	c.features[name] = &feature{name: name, hooks: hooks}
	c.logger.Info("feature registered",
		zap.String("feature", name),
		zap.Int("hooks", len(hooks)),
	)
	return nil
}

// Start resolves the configured key bindings and spawns the poll loop.
// Hosts that drive their own frame loop skip Start and call Tick directly.
func (c *Controller) Start(ctx context.Context) error {
	c.logProcessIdentity()

	c.mu.Lock()
	c.rebind(c.bindingCfg)
	c.mu.Unlock()

	c.wg.Add(1)
	go c.loop(ctx)
	return nil
}

// Tick polls every bound key once and toggles features whose key reports a
// press edge. Intended to be called from exactly one thread.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range c.bindings {
		if b.key.Keydown() {
			c.toggle(b.feature)
		}
	}
}

// Reload applies a new configuration: poll cadence and key bindings swap
// live, feature registrations are untouched.
func (c *Controller) Reload(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pollInterval = cfg.PollInterval
	c.bindingCfg = cfg.Bindings
	c.rebind(cfg.Bindings)
}

// Stop ends the poll loop and batch-disables every enabled feature so the
// host process is left running its original code.
func (c *Controller) Stop() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	var hooks []*hook.Hook
	for _, f := range c.features {
		if !f.enabled {
			continue
		}
		for _, h := range f.hooks {
			if err := c.engine.QueueDisable(h); err != nil {
				return fmt.Errorf("queue disable for %s: %w", f.name, err)
			}
		}
		hooks = append(hooks, f.hooks...)
		f.enabled = false
	}
	if len(hooks) == 0 {
		return nil
	}
	if err := c.engine.ApplyQueue(hooks...); err != nil {
		return fmt.Errorf("disable features on stop: %w", err)
	}
	c.logger.Info("all features disabled", zap.Int("hooks", len(hooks)))
	return nil
}

func (c *Controller) loop(ctx context.Context) {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		interval := c.pollInterval
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-time.After(interval):
			c.Tick()
		}
	}
}

// rebind rebuilds the key states from binding config. Caller holds c.mu.
// A fresh KeyState per binding reseeds the previous sample, so a key held
// across a reload does not fire a spurious edge.
func (c *Controller) rebind(cfgBindings []config.Binding) {
	bindings := make([]*binding, 0, len(cfgBindings))
	for _, b := range cfgBindings {
		f, ok := c.features[b.Feature]
		if !ok {
			c.logger.Warn("binding references unregistered feature",
				zap.String("feature", b.Feature),
				zap.String("key", b.Key),
			)
			continue
		}
		vk, ok := keymap.Code(b.Key)
		if !ok {
			c.logger.Warn("binding references unknown key",
				zap.String("feature", b.Feature),
				zap.String("key", b.Key),
			)
			continue
		}
		bindings = append(bindings, &binding{
			feature: f,
			key:     input.NewKeyState(vk, c.sampler),
		})
		c.logger.Info("feature bound",
			zap.String("feature", b.Feature),
			zap.String("key", b.Key),
		)
	}
	c.bindings = bindings
}

// toggle queues the opposite state for every hook of f and commits them as
// one batch. Caller holds c.mu.
func (c *Controller) toggle(f *feature) {
	queue := c.engine.QueueEnable
	if f.enabled {
		queue = c.engine.QueueDisable
	}
	for _, h := range f.hooks {
		if err := queue(h); err != nil {
			c.logger.Error("failed to queue hook transition",
				zap.String("feature", f.name),
				zap.Uintptr("target", h.Target()),
				zap.Error(err),
			)
			return
		}
	}
	if err := c.engine.ApplyQueue(f.hooks...); err != nil {
		c.logger.Error("failed to apply feature toggle",
			zap.String("feature", f.name),
			zap.Error(err),
		)
		return
	}

	f.enabled = !f.enabled
	c.logger.Info("feature toggled",
		zap.String("feature", f.name),
		zap.Bool("enabled", f.enabled),
		zap.Int("hooks", len(f.hooks)),
	)
}

// logProcessIdentity records which process the hooks live in. Purely
// informational; failures are ignored beyond a debug line.
func (c *Controller) logProcessIdentity() {
	pid := os.Getpid()
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		c.logger.Debug("process introspection unavailable", zap.Error(err))
		return
	}
	name, _ := p.Name()
	exe, _ := p.Exe()
	c.logger.Info("controller started",
		zap.Int("pid", pid),
		zap.String("process", name),
		zap.String("exe", exe),
	)
}

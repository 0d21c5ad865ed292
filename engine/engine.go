// Copyright 2025 OpenDesign Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package engine wires the live-component pipeline: security pre-scan,
// normalization, off-thread compilation, sequenced result application,
// sandboxed execution, and bounded self-healing.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/OpenDesignlabs/vectra/internal/cache"
	"github.com/OpenDesignlabs/vectra/internal/log"
	"github.com/OpenDesignlabs/vectra/sandbox"
)

// CodeStore receives the pipeline's two write-backs: cleaned source on a
// successful compile and corrected source on a successful heal. Both writes
// are last-writer-wins against the shared element tree.
type CodeStore interface {
	UpdateCode(owner, code string)
}

// Options configures an Engine.
type Options struct {
	// Workers is the number of compile goroutines (default 1).
	Workers int
	// AutoHeal lets classified failures trigger the fix collaborator
	// without user action, within the per-owner budget.
	AutoHeal bool
	// Fixer is the external fix collaborator; nil disables healing.
	Fixer Fixer
	// FixTimeout bounds one fix call (default DefaultFixTimeout).
	FixTimeout time.Duration
	// Cache, when set, short-circuits compilation of identical sources.
	Cache cache.Cache
	// Store, when set, receives source write-backs.
	Store CodeStore
	// ExtraRules extends the security deny-list.
	ExtraRules []sandbox.Rule
	// EventBuffer sizes the event channel (default 128).
	EventBuffer int
}

// EventKind tags pipeline events surfaced to the editor.
type EventKind string

const (
	EventRendered          EventKind = "rendered"
	EventCompileError      EventKind = "compile_error"
	EventRuntimeError      EventKind = "runtime_error"
	EventSecurityViolation EventKind = "security_violation"
	EventHealing           EventKind = "healing"
	EventHealFailed        EventKind = "heal_failed"
	EventHealExhausted     EventKind = "heal_exhausted"
)

// Event is one user-visible pipeline outcome. Component is set only for
// EventRendered; Err carries the classified message otherwise.
type Event struct {
	Owner     string
	Seq       int64
	Kind      EventKind
	Err       string
	Component *sandbox.Component
}

type pendingRequest struct {
	owner  string
	source string
}

// Engine is the live component compilation engine. One instance serves all
// owners; per-owner isolation comes from the sequencer and the heal arena.
type Engine struct {
	opts    Options
	scanner *sandbox.Scanner
	worker  *sandbox.Worker
	host    *sandbox.Host
	seq     *Sequencer
	healer  *Healer

	events chan Event

	mu      sync.Mutex
	pending map[int64]pendingRequest

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts an engine and its dispatch loop.
func New(opts Options) *Engine {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 128
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opts:    opts,
		scanner: sandbox.NewScanner(opts.ExtraRules...),
		worker:  sandbox.NewWorker(opts.Workers),
		host:    sandbox.NewHost(),
		seq:     NewSequencer(),
		healer:  NewHealer(opts.Fixer, opts.FixTimeout),
		events:  make(chan Event, opts.EventBuffer),
		pending: make(map[int64]pendingRequest),
		ctx:     ctx,
		cancel:  cancel,
	}
	e.wg.Add(1)
	go e.dispatch()
	return e
}

// Events is the stream of pipeline outcomes, one per applied result. Stale
// results produce no event; their discard is routine, not an error.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Healer exposes the heal arena, mainly for inspection.
func (e *Engine) Healer() *Healer {
	return e.healer
}

// Submit runs the pre-scan and, if clean, enqueues a sequenced compile
// request. The returned id supersedes every earlier request for the owner.
// A scan violation is fatal for the fragment: no request is issued and no
// heal is attempted.
func (e *Engine) Submit(owner, source string) (int64, error) {
	if v := e.scanner.Scan(source); v != nil {
		log.Info("scan rejected fragment for %s: %v", owner, v)
		e.emit(Event{Owner: owner, Kind: EventSecurityViolation, Err: v.Error()})
		return 0, v
	}
	id := e.seq.Next(owner)
	e.mu.Lock()
	e.pending[id] = pendingRequest{owner: owner, source: source}
	e.mu.Unlock()
	if !e.worker.Submit(sandbox.Request{ID: id, Code: source}) {
		return 0, fmt.Errorf("engine closed")
	}
	return id, nil
}

// ResetHeal clears the owner's heal budget, e.g. when the user edits the
// fragment by hand and a new owner generation begins.
func (e *Engine) ResetHeal(owner string) {
	e.healer.Reset(owner)
}

// ManualHeal is the explicit user action available once the automatic budget
// is exhausted: it resets the counter, performs one heal, and resubmits the
// corrected source through the whole pipeline.
func (e *Engine) ManualHeal(ctx context.Context, owner, source, errorMessage string) (int64, error) {
	e.healer.Reset(owner)
	fixed, err := e.healer.Heal(ctx, owner, source, errorMessage)
	if err != nil {
		return 0, err
	}
	if e.opts.Store != nil {
		e.opts.Store.UpdateCode(owner, fixed)
	}
	return e.Submit(owner, fixed)
}

// CompileOnce runs the pipeline synchronously for one fragment, outside the
// sequenced async path: scan, cache lookup, normalize, compile, execute.
// Used by the CLI, the HTTP API, and the MCP tools. Returns the component,
// the cleaned source, and a classified error.
func (e *Engine) CompileOnce(ctx context.Context, source string) (*sandbox.Component, string, error) {
	if v := e.scanner.Scan(source); v != nil {
		return nil, "", v
	}
	key := cache.Key(source)
	if e.opts.Cache != nil {
		ent, ok, err := e.opts.Cache.Get(ctx, key)
		if err != nil {
			log.Debug("cache get failed: %v", err)
		} else if ok {
			comp, execErr := e.host.Execute(ent.SandboxCode)
			return comp, ent.CleanCode, execErr
		}
	}
	clean := sandbox.Normalize(source)
	sandboxCode, err := sandbox.Compile(clean)
	if err != nil {
		return nil, clean, err
	}
	if e.opts.Cache != nil {
		if err := e.opts.Cache.Set(ctx, key, cache.Entry{SandboxCode: sandboxCode, CleanCode: clean}); err != nil {
			log.Debug("cache set failed: %v", err)
		}
	}
	comp, err := e.host.Execute(sandboxCode)
	return comp, clean, err
}

// Close stops the worker and dispatch loop and waits for in-flight heals.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.worker.Close()
		e.cancel()
		e.wg.Wait()
		close(e.events)
	})
}

func (e *Engine) dispatch() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case resp := <-e.worker.Responses():
			e.apply(resp)
		}
	}
}

// apply consumes one worker response. Staleness is decided here, once,
// against the sequencer: anything but the owner's newest id is dropped.
func (e *Engine) apply(resp sandbox.Response) {
	e.mu.Lock()
	p, ok := e.pending[resp.ID]
	delete(e.pending, resp.ID)
	e.mu.Unlock()
	if !ok {
		return
	}
	if !e.seq.IsCurrent(p.owner, resp.ID) {
		log.Debug("discarding stale result %d for %s", resp.ID, p.owner)
		return
	}

	if resp.Error != "" {
		e.fail(p, resp.ID, EventCompileError, resp.Error)
		return
	}

	comp, err := e.host.Execute(resp.SandboxCode)
	if !e.seq.IsCurrent(p.owner, resp.ID) {
		// superseded while executing
		return
	}
	if err != nil {
		kind := EventRuntimeError
		if IsCompileError(err) {
			kind = EventCompileError
		}
		e.fail(p, resp.ID, kind, err.Error())
		return
	}

	e.healer.Reset(p.owner)
	if e.opts.Store != nil && resp.CleanCode != "" {
		e.opts.Store.UpdateCode(p.owner, resp.CleanCode)
	}
	e.emit(Event{Owner: p.owner, Seq: resp.ID, Kind: EventRendered, Component: comp})
}

func (e *Engine) fail(p pendingRequest, id int64, kind EventKind, msg string) {
	e.emit(Event{Owner: p.owner, Seq: id, Kind: kind, Err: msg})
	if !e.opts.AutoHeal || e.opts.Fixer == nil {
		return
	}
	e.wg.Add(1)
	go e.heal(p, id, msg)
}

// heal drives one automatic heal cycle in the background: fix, then resubmit
// the corrected source as a brand-new fragment through the full pipeline,
// pre-scan included.
func (e *Engine) heal(p pendingRequest, id int64, errorMessage string) {
	defer e.wg.Done()
	// A spent budget must read as a refusal, not another healing flash.
	if e.healer.State(p.owner) != HealExhausted {
		e.emit(Event{Owner: p.owner, Seq: id, Kind: EventHealing, Err: errorMessage})
	}

	fixed, err := e.healer.Heal(e.ctx, p.owner, p.source, errorMessage)
	if err != nil {
		if IsHealExhausted(err) {
			e.emit(Event{Owner: p.owner, Seq: id, Kind: EventHealExhausted, Err: err.Error()})
		} else {
			e.emit(Event{Owner: p.owner, Seq: id, Kind: EventHealFailed, Err: err.Error()})
		}
		return
	}
	if e.opts.Store != nil {
		e.opts.Store.UpdateCode(p.owner, fixed)
	}
	if _, err := e.Submit(p.owner, fixed); err != nil {
		log.Error("resubmit after heal failed for %s: %v", p.owner, err)
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.ctx.Done():
	}
}

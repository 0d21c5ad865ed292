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

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/OpenDesignlabs/vectra/internal/log"
)

// MaxHealAttempts bounds automatic heals per owner. Once spent, healing stays
// off until a clean render or an explicit reset (e.g. the user edits the
// fragment, which starts a new owner generation).
const MaxHealAttempts = 2

// DefaultFixTimeout bounds one fix-collaborator call. The upstream design
// had none, which left a hung call in Healing forever; this is our explicit
// policy instead.
const DefaultFixTimeout = 600 * time.Second

// Fixer is the external fix collaborator: failing source and error text in,
// corrected source out. Possibly slow, possibly failing; no retry policy is
// applied to the call itself.
type Fixer interface {
	FixComponentError(ctx context.Context, source, errorMessage string) (string, error)
}

// HealState is the per-owner position in the heal state machine.
type HealState string

const (
	HealIdle      HealState = "idle"
	HealHealing   HealState = "healing"
	HealExhausted HealState = "exhausted"
)

// Healer tracks heal attempts per owner and drives the fix collaborator.
// Counters live in an arena keyed by owner id, so concurrent owners are
// isolated.
type Healer struct {
	fixer   Fixer
	timeout time.Duration

	mu       sync.Mutex
	attempts map[string]int
	healing  map[string]bool
}

// NewHealer wraps a fix collaborator. timeout <= 0 selects DefaultFixTimeout.
func NewHealer(fixer Fixer, timeout time.Duration) *Healer {
	if timeout <= 0 {
		timeout = DefaultFixTimeout
	}
	return &Healer{
		fixer:    fixer,
		timeout:  timeout,
		attempts: make(map[string]int),
		healing:  make(map[string]bool),
	}
}

// State reports the owner's current heal state.
func (h *Healer) State(owner string) HealState {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.healing[owner]:
		return HealHealing
	case h.attempts[owner] >= MaxHealAttempts:
		return HealExhausted
	default:
		return HealIdle
	}
}

// Attempts returns the owner's used heal budget.
func (h *Healer) Attempts(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts[owner]
}

// Reset clears the owner's counter. Called on a clean successful render and
// on explicit user edits.
func (h *Healer) Reset(owner string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.attempts, owner)
	delete(h.healing, owner)
}

// Heal asks the fix collaborator for a corrected fragment. The attempt is
// counted before the call, so a failing collaborator still consumes budget.
// When the budget is spent it returns *HealExhaustedError without calling
// the collaborator. A collaborator failure returns to Idle with the original
// error preserved and concatenated, so nothing is lost.
func (h *Healer) Heal(ctx context.Context, owner, source, errorMessage string) (string, error) {
	h.mu.Lock()
	if h.fixer == nil {
		h.mu.Unlock()
		return "", fmt.Errorf("no fix collaborator configured")
	}
	if h.attempts[owner] >= MaxHealAttempts {
		attempts := h.attempts[owner]
		h.mu.Unlock()
		return "", &HealExhaustedError{Owner: owner, Attempts: attempts, LastErr: errorMessage}
	}
	h.attempts[owner]++
	attempt := h.attempts[owner]
	h.healing[owner] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.healing[owner] = false
		h.mu.Unlock()
	}()

	log.Info("healing %s (attempt %d/%d): %s", owner, attempt, MaxHealAttempts, errorMessage)

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	fixed, err := h.fixer.FixComponentError(callCtx, source, errorMessage)
	if err != nil {
		return "", fmt.Errorf("%s; heal attempt %d failed: %v", errorMessage, attempt, err)
	}
	return fixed, nil
}

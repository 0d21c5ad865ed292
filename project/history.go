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

package project

import "sync"

const maxHistory = 50

// History is a bounded undo/redo stack of serialized document states.
// Pushing after an undo discards the redo branch; when the stack overflows
// the oldest state falls off the bottom.
type History struct {
	mu    sync.Mutex
	stack []string
	index int
}

func NewHistory(initial string) *History {
	return &History{stack: []string{initial}}
}

func (h *History) Push(state string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < len(h.stack)-1 {
		h.stack = h.stack[:h.index+1]
	}
	h.stack = append(h.stack, state)
	h.index++
	if len(h.stack) > maxHistory {
		h.stack = h.stack[1:]
		h.index--
	}
}

func (h *History) Undo() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == 0 {
		return "", false
	}
	h.index--
	return h.stack[h.index], true
}

func (h *History) Redo() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.stack)-1 {
		return "", false
	}
	h.index++
	return h.stack[h.index], true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.stack)-1
}

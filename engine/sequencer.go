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
	"sync"
)

// Sequencer allocates a monotonically increasing id per compile request and
// remembers the newest id per owner. Discarding any response whose id is not
// the owner's current one is the engine's sole cancellation mechanism:
// in-flight work is never aborted, only its result is ignored.
type Sequencer struct {
	mu      sync.Mutex
	next    int64
	current map[string]int64
}

// NewSequencer returns an empty sequencer. Ids start at 1.
func NewSequencer() *Sequencer {
	return &Sequencer{current: make(map[string]int64)}
}

// Next allocates the next sequence id and records it as owner's current one,
// superseding any in-flight request for that owner.
func (s *Sequencer) Next(owner string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.current[owner] = s.next
	return s.next
}

// Current returns the owner's newest issued id, or 0 if none.
func (s *Sequencer) Current(owner string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[owner]
}

// IsCurrent reports whether id is still the owner's newest request. This is
// the single point where staleness is decided.
func (s *Sequencer) IsCurrent(owner string, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[owner] == id
}

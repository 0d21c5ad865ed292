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

package sandbox

import (
	"fmt"
	"sync"

	"github.com/OpenDesignlabs/vectra/internal/log"
)

// Request asks the worker to compile one fragment. ID is the caller's
// sequence id and is echoed verbatim on the response.
type Request struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
}

// Response carries the compile outcome back across the channel boundary.
// Exactly one of Error or SandboxCode is meaningful. CleanCode is the
// normalized source, suitable for writing back to the element tree.
type Response struct {
	ID          int64  `json:"id"`
	Error       string `json:"error,omitempty"`
	SandboxCode string `json:"sandboxCode,omitempty"`
	CleanCode   string `json:"cleanCode,omitempty"`
}

// Worker runs normalization and compilation off the caller's goroutine.
// It never panics across the channel boundary: every failure, including a
// transform panic, is delivered as a tagged Response.
type Worker struct {
	reqs  chan Request
	resps chan Response

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewWorker starts n compile goroutines. n < 1 means one.
func NewWorker(n int) *Worker {
	if n < 1 {
		n = 1
	}
	w := &Worker{
		reqs:  make(chan Request, 16),
		resps: make(chan Response, 16),
		done:  make(chan struct{}),
	}
	w.wg.Add(n)
	for i := 0; i < n; i++ {
		go w.run()
	}
	return w
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case req := <-w.reqs:
			select {
			case w.resps <- w.compile(req):
			case <-w.done:
				return
			}
		}
	}
}

func (w *Worker) compile(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = Response{ID: req.ID, Error: fmt.Sprintf("compile panic: %v", r)}
		}
	}()

	clean := Normalize(req.Code)
	sandboxCode, err := Compile(clean)
	if err != nil {
		log.Debug("worker: compile %d failed: %v", req.ID, err)
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, SandboxCode: sandboxCode, CleanCode: clean}
}

// Submit queues a compile request. It returns false when the worker is
// closed.
func (w *Worker) Submit(req Request) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case <-w.done:
		return false
	case w.reqs <- req:
		return true
	}
}

// Responses is the channel compile outcomes arrive on, in completion order.
// Each response is delivered at most once.
func (w *Worker) Responses() <-chan Response {
	return w.resps
}

// Close stops the worker goroutines. Pending requests may be dropped;
// callers treat an unanswered request like any other superseded one.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}

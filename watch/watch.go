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

// Package watch feeds on-disk component edits into the engine, so fragments
// edited in an external editor re-render live like canvas edits do.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/OpenDesignlabs/vectra/engine"
	"github.com/OpenDesignlabs/vectra/internal/log"
)

// Watcher tails a directory of .tsx fragments. Each write resubmits the file
// through the async pipeline with the relative path as the owner key, so a
// burst of saves collapses to the newest one.
type Watcher struct {
	engine *engine.Engine
	dir    string
	fw     *fsnotify.Watcher
}

func New(e *engine.Engine, dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{engine: e, dir: dir, fw: fw}, nil
}

// Run pumps filesystem events until ctx is canceled or the watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".tsx") {
				continue
			}
			w.submit(ev.Name)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error: %v", err)
		}
	}
}

func (w *Watcher) submit(path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Error("read %s: %v", path, err)
		return
	}
	owner, err := filepath.Rel(w.dir, path)
	if err != nil {
		owner = filepath.Base(path)
	}
	log.Debug("resubmitting %s", owner)
	if _, err := w.engine.Submit(owner, string(src)); err != nil {
		log.Info("submit %s rejected: %v", owner, err)
	}
}

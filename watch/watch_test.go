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

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenDesignlabs/vectra/engine"
)

func TestWatcherSubmitsOnWrite(t *testing.T) {
	dir := t.TempDir()
	e := engine.New(engine.Options{})
	defer e.Close()

	w, err := New(e, dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	src := `export default function Box() { return <div>from disk</div>; }`
	if err := os.WriteFile(filepath.Join(dir, "box.tsx"), []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev := <-e.Events():
		if ev.Kind != engine.EventRendered {
			t.Fatalf("expected rendered event, got %s (%s)", ev.Kind, ev.Err)
		}
		if ev.Owner != "box.tsx" {
			t.Errorf("owner should be the relative path, got %q", ev.Owner)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event after file write")
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	e := engine.New(engine.Options{})
	defer e.Close()

	w, err := New(e, dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a component"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev := <-e.Events():
		t.Fatalf("unexpected event for non-tsx file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

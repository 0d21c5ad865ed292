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

package shell

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/OpenDesignlabs/vectra/engine"
	"github.com/OpenDesignlabs/vectra/sandbox"
)

func compileFixture(t *testing.T, src string) string {
	t.Helper()
	code, err := sandbox.Compile(sandbox.Normalize(src))
	if err != nil {
		t.Fatalf("compile fixture: %v", err)
	}
	return code
}

func startPair(t *testing.T) (*Client, func()) {
	t.Helper()
	hostEnd, shellEnd := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	sh := New()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sh.Run(ctx, shellEnd)
	}()

	client := NewClient(ctx, hostEnd)
	cleanup := func() {
		client.Close()
		cancel()
		<-done
	}
	return client, cleanup
}

func waitReady(t *testing.T, c *Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !c.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("shell never announced ready")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestShellRendersComponent(t *testing.T) {
	client, cleanup := startPair(t)
	defer cleanup()
	waitReady(t, client)

	code := compileFixture(t, `export default function Box() { return <div className="box">hi</div>; }`)
	res, err := client.Render(context.Background(), code)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(res.HTML, `class="box"`) || !strings.Contains(res.HTML, "hi") {
		t.Errorf("unexpected render output: %s", res.HTML)
	}
}

func TestShellEmptyCodeIsPlaceholder(t *testing.T) {
	client, cleanup := startPair(t)
	defer cleanup()
	waitReady(t, client)

	res, err := client.Render(context.Background(), "")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if res.Err != "" {
		t.Errorf("empty code must not be an error, got %q", res.Err)
	}
	if !strings.Contains(res.HTML, "vectra-placeholder") {
		t.Errorf("expected placeholder, got: %s", res.HTML)
	}
}

func TestShellRendersDiagnosticOnFailure(t *testing.T) {
	client, cleanup := startPair(t)
	defer cleanup()
	waitReady(t, client)

	code := compileFixture(t, `export default function Boom() { return missingThing.x; }`)
	res, err := client.Render(context.Background(), code)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if res.Err == "" {
		t.Fatal("expected a runtime diagnostic")
	}
	if !strings.Contains(res.HTML, "vectra-error") {
		t.Errorf("expected diagnostic node in output: %s", res.HTML)
	}
}

func TestShellRootSurvivesUpdates(t *testing.T) {
	client, cleanup := startPair(t)
	defer cleanup()
	waitReady(t, client)

	first := compileFixture(t, `export default function A() { return <p>one</p>; }`)
	second := compileFixture(t, `export default function B() { return <p>two</p>; }`)

	if _, err := client.Render(context.Background(), first); err != nil {
		t.Fatalf("first render: %v", err)
	}
	res, err := client.Render(context.Background(), second)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !strings.Contains(res.HTML, "two") || strings.Contains(res.HTML, "one") {
		t.Errorf("second update did not replace first: %s", res.HTML)
	}
}

func TestClientRejectsBeforeReady(t *testing.T) {
	hostEnd, shellEnd := net.Pipe()
	defer hostEnd.Close()
	defer shellEnd.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// No shell on the other end yet: nothing has announced ready.
	client := NewClient(ctx, hostEnd)
	defer client.Close()

	err := client.UpdateCode(ctx, "whatever")
	if !errors.Is(err, engine.ErrShellNotReady) {
		t.Fatalf("expected ErrShellNotReady, got %v", err)
	}
}

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
	"io"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/OpenDesignlabs/vectra/engine"
	"github.com/OpenDesignlabs/vectra/internal/log"
)

// Client is the host side of the shell channel. Until the shell announces
// MethodReady, UpdateCode returns engine.ErrShellNotReady and only the latest
// rejected code is remembered; it is flushed automatically on ready, so the
// shell's first paint is the newest state rather than a replay of history.
type Client struct {
	conn *jsonrpc2.Conn

	mu      sync.Mutex
	ready   bool
	pending string
	hasPend bool
}

// NewClient attaches to the shell's end of rwc and starts listening.
func NewClient(ctx context.Context, rwc io.ReadWriteCloser) *Client {
	c := &Client{}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	c.conn = jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(c.handle))
	return c
}

func (c *Client) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	if req.Method != MethodReady {
		return nil, nil
	}
	c.mu.Lock()
	c.ready = true
	flush, has := c.pending, c.hasPend
	c.pending, c.hasPend = "", false
	c.mu.Unlock()

	if has {
		if err := conn.Notify(ctx, MethodUpdateCode, &UpdateCodeParams{Code: flush}); err != nil {
			log.Error("shell: flush pending code: %v", err)
		}
	}
	return nil, nil
}

// UpdateCode ships compiled code to the shell as a notification.
func (c *Client) UpdateCode(ctx context.Context, code string) error {
	c.mu.Lock()
	if !c.ready {
		c.pending, c.hasPend = code, true
		c.mu.Unlock()
		return engine.ErrShellNotReady
	}
	c.mu.Unlock()
	return c.conn.Notify(ctx, MethodUpdateCode, &UpdateCodeParams{Code: code})
}

// Render ships code as a call and waits for the shell's resulting HTML.
func (c *Client) Render(ctx context.Context, code string) (*RenderResult, error) {
	c.mu.Lock()
	if !c.ready {
		c.pending, c.hasPend = code, true
		c.mu.Unlock()
		return nil, engine.ErrShellNotReady
	}
	c.mu.Unlock()

	var res RenderResult
	if err := c.conn.Call(ctx, MethodUpdateCode, &UpdateCodeParams{Code: code}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Ready reports whether the shell has announced itself.
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Client) Close() error {
	return c.conn.Close()
}

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
	"encoding/json"
	"io"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/OpenDesignlabs/vectra/internal/log"
	"github.com/OpenDesignlabs/vectra/internal/utils"
	"github.com/OpenDesignlabs/vectra/sandbox"
)

// maxDiagnosticLen bounds the error text rendered inline in the shell.
const maxDiagnosticLen = 300

// Shell owns the persistent render root on the isolated side of the channel.
// Successive code updates reconcile into the same root node, so the document
// identity survives across updates; only the root's contents change.
type Shell struct {
	host *sandbox.Host

	mu   sync.Mutex
	root *sandbox.Node
}

func New() *Shell {
	s := &Shell{
		host: sandbox.NewHost(),
		root: sandbox.NewNode("div"),
	}
	s.renderPlaceholder()
	return s
}

// Run pumps messages from rwc until the peer disconnects or ctx is canceled.
// It announces MethodReady once, immediately after the connection is up;
// updates arriving as calls are answered with the resulting root HTML.
func (s *Shell) Run(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle))
	defer conn.Close()

	// Bootstrap is complete once the connection exists; the host side holds
	// back code until it sees this.
	if err := conn.Notify(ctx, MethodReady, struct{}{}); err != nil {
		return utils.WrapError(err, "announce ready")
	}

	select {
	case <-conn.DisconnectNotify():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Shell) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case MethodUpdateCode:
		var params UpdateCodeParams
		if req.Params != nil {
			if err := json.Unmarshal(*req.Params, &params); err != nil {
				return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
			}
		}
		errText := s.update(params.Code)
		if req.Notif {
			return nil, nil
		}
		return &RenderResult{HTML: s.HTML(), Err: errText}, nil
	default:
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: req.Method}
	}
}

// update replaces the root's contents for the given code. It never fails the
// channel: execution errors become an inline diagnostic so the user sees what
// broke where the component would have been.
func (s *Shell) update(code string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if code == "" {
		s.renderPlaceholder()
		return ""
	}

	comp, err := s.host.Execute(code)
	if err != nil {
		log.Error("shell render failed: %v", err)
		s.renderDiagnostic(err.Error())
		return err.Error()
	}
	sandbox.Reconcile(s.root, comp.Root)
	return ""
}

// HTML renders the current state of the persistent root.
func (s *Shell) HTML() string {
	return s.root.HTML()
}

func (s *Shell) renderPlaceholder() {
	placeholder := sandbox.NewNode("div")
	placeholder.Props["className"] = "vectra-placeholder"
	placeholder.Children = append(placeholder.Children, sandbox.NewText("Nothing to render yet"))
	sandbox.Reconcile(s.root, placeholder)
}

func (s *Shell) renderDiagnostic(msg string) {
	diag := sandbox.NewNode("pre")
	diag.Props["className"] = "vectra-error"
	diag.Children = append(diag.Children, sandbox.NewText(utils.Truncate(msg, maxDiagnosticLen)))
	sandbox.Reconcile(s.root, diag)
}

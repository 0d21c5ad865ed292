/**
 * Copyright 2025 OpenDesign Labs
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/OpenDesignlabs/vectra/engine"
)

func sendAndRecv(t *testing.T, request any, stdinWriter *io.PipeWriter, scanner *bufio.Scanner) map[string]any {
	t.Helper()
	requestBytes, err := json.Marshal(request)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := stdinWriter.Write(append(requestBytes, '\n')); err != nil {
		t.Fatal(err)
	}
	if !scanner.Scan() {
		t.Fatal("failed to read response")
	}
	var response map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return response
}

func TestServerCompileTool(t *testing.T) {
	e := engine.New(engine.Options{})
	defer e.Close()

	svr := NewServer(e, ServerOptions{
		ServerName:    "vectra",
		ServerVersion: "1.0.0",
	})

	stdinReader, stdinWriter := io.Pipe()
	stdoutReader, stdoutWriter := io.Pipe()

	stdioServer := server.NewStdioServer(svr.Server)
	stdioServer.SetErrorLogger(log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = stdioServer.Listen(ctx, stdinReader, stdoutWriter)
		stdoutWriter.Close()
	}()

	time.Sleep(100 * time.Millisecond)
	scanner := bufio.NewScanner(stdoutReader)

	initRequest := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": "2024-11-05",
			"clientInfo": map[string]any{
				"name":    "test-client",
				"version": "1.0.0",
			},
		},
	}
	resp := sendAndRecv(t, initRequest, stdinWriter, scanner)
	if resp["error"] != nil {
		t.Fatalf("initialize failed: %v", resp["error"])
	}

	callRequest := map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/call",
		"params": map[string]any{
			"name": ToolCompileComponent,
			"arguments": map[string]any{
				"source": `export default function Box() { return <div className="box">hi</div>; }`,
			},
		},
	}
	resp = sendAndRecv(t, callRequest, stdinWriter, scanner)
	js, _ := json.Marshal(resp)
	if !strings.Contains(string(js), `class=\"box\"`) && !strings.Contains(string(js), `class="box"`) {
		t.Errorf("compile tool did not return rendered HTML: %s", js)
	}

	cancel()
	stdinWriter.Close()
}

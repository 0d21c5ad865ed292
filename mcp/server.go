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

// Package mcp exposes the engine to AI assistants as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/OpenDesignlabs/vectra/engine"
	"github.com/OpenDesignlabs/vectra/internal/log"
)

type ServerOptions struct {
	ServerName    string
	ServerVersion string
	Verbose       bool
}

type Server struct {
	Server *server.MCPServer
}

func NewServer(e *engine.Engine, opts ServerOptions) *Server {
	if opts.Verbose {
		log.SetLogLevel(log.DebugLevel)
	}
	svr := server.NewMCPServer(opts.ServerName, opts.ServerVersion)
	for _, t := range engineTools(e) {
		svr.AddTool(t.Tool, t.Handler)
	}
	return &Server{Server: svr}
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.Server)
}

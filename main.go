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

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/OpenDesignlabs/vectra/engine"
	"github.com/OpenDesignlabs/vectra/internal/cache"
	"github.com/OpenDesignlabs/vectra/internal/config"
	"github.com/OpenDesignlabs/vectra/internal/log"
	"github.com/OpenDesignlabs/vectra/llm"
	"github.com/OpenDesignlabs/vectra/mcp"
	"github.com/OpenDesignlabs/vectra/server"
	"github.com/OpenDesignlabs/vectra/shell"
	"github.com/OpenDesignlabs/vectra/version"
	"github.com/OpenDesignlabs/vectra/watch"
)

const Usage = `vectra <Action> [Path] [Flags]
Action:
   compile      compile a single component file and print the rendered HTML
   serve        run the HTTP API for the editor frontend
   watch        watch a directory of .tsx fragments and recompile on save
   shell        run the isolated render shell on stdin/stdout
   mcp          run as a MCP server exposing the compile tools
   version      print the version of vectra
`

func main() {
	flags := flag.NewFlagSet("vectra", flag.ExitOnError)

	flagHelp := flags.Bool("h", false, "Show help message.")
	flagVerbose := flags.Bool("verbose", false, "Verbose mode.")
	flagConfig := flags.String("config", "", "Config file path.")
	flagAddr := flags.String("addr", "", "Listen address for serve (overrides config).")

	flags.Usage = func() {
		fmt.Fprint(os.Stderr, Usage)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flags.PrintDefaults()
	}

	if len(os.Args) < 2 {
		flags.Usage()
		os.Exit(1)
	}
	action := os.Args[1]

	switch action {
	case "version":
		fmt.Fprintf(os.Stdout, "%s\n", version.Version)

	case "compile":
		path := parseArgsAndFlags(flags, flagHelp, flagVerbose)
		if path == "" {
			log.Error("Argument Path is required\n")
			os.Exit(1)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			log.Error("Failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		e, _ := buildEngine(*flagConfig)
		defer e.Close()
		comp, _, err := e.CompileOnce(context.Background(), string(src))
		if err != nil {
			log.Error("Compile failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "%s\n", comp.Root.HTML())

	case "serve":
		parseArgsAndFlags(flags, flagHelp, flagVerbose)
		e, cfg := buildEngine(*flagConfig)
		defer e.Close()
		addr := cfg.Server.Addr
		if *flagAddr != "" {
			addr = *flagAddr
		}
		log.Info("serving on %s", addr)
		if err := http.ListenAndServe(addr, server.NewHandler(e)); err != nil {
			log.Error("Server failed: %v\n", err)
			os.Exit(1)
		}

	case "watch":
		dir := parseArgsAndFlags(flags, flagHelp, flagVerbose)
		e, cfg := buildEngine(*flagConfig)
		defer e.Close()
		if dir == "" {
			dir = cfg.Watch.Dir
		}
		if dir == "" {
			log.Error("Argument Path is required\n")
			os.Exit(1)
		}
		w, err := watch.New(e, dir)
		if err != nil {
			log.Error("Failed to watch %s: %v\n", dir, err)
			os.Exit(1)
		}
		go printEvents(e)
		if err := w.Run(context.Background()); err != nil && err != context.Canceled {
			log.Error("Watch failed: %v\n", err)
			os.Exit(1)
		}

	case "shell":
		parseArgsAndFlags(flags, flagHelp, flagVerbose)
		sh := shell.New()
		if err := sh.Run(context.Background(), stdioPipe{}); err != nil {
			log.Error("Shell failed: %v\n", err)
			os.Exit(1)
		}

	case "mcp":
		parseArgsAndFlags(flags, flagHelp, flagVerbose)
		e, _ := buildEngine(*flagConfig)
		defer e.Close()
		svr := mcp.NewServer(e, mcp.ServerOptions{
			ServerName:    "vectra",
			ServerVersion: version.Version,
			Verbose:       *flagVerbose,
		})
		if err := svr.ServeStdio(); err != nil {
			log.Error("Failed to run MCP server: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown action: %s\n", action)
		flags.Usage()
		os.Exit(1)
	}
}

// parseArgsAndFlags parses flags after the action verb and returns the
// positional path argument, if any.
func parseArgsAndFlags(flags *flag.FlagSet, flagHelp, flagVerbose *bool) string {
	args := os.Args[2:]
	path := ""
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		path = args[0]
		args = args[1:]
	}
	_ = flags.Parse(args)
	if *flagHelp {
		flags.Usage()
		os.Exit(0)
	}
	if *flagVerbose {
		log.SetLogLevel(log.DebugLevel)
	}
	return path
}

func buildEngine(configPath string) (*engine.Engine, *config.Config) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	rules, err := cfg.ExtraRules()
	if err != nil {
		log.Error("Invalid scanner config: %v\n", err)
		os.Exit(1)
	}

	var store cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		var opts []cache.Option
		if cfg.Cache.Redis.TTL > 0 {
			opts = append(opts, cache.WithTTL(cfg.Cache.Redis.TTL))
		}
		store = cache.NewRedis(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB, opts...)
	default:
		store = cache.NewMemory()
	}

	var fixer engine.Fixer
	if cfg.HasFixer() {
		f, err := llm.NewFixer(cfg.Heal.Model)
		if err != nil {
			log.Error("Failed to build fix collaborator: %v\n", err)
			os.Exit(1)
		}
		fixer = f
	}

	e := engine.New(engine.Options{
		Workers:    cfg.Workers,
		AutoHeal:   cfg.Heal.Auto,
		Fixer:      fixer,
		FixTimeout: cfg.Heal.Timeout,
		Cache:      store,
		ExtraRules: rules,
	})
	return e, cfg
}

func printEvents(e *engine.Engine) {
	for ev := range e.Events() {
		switch ev.Kind {
		case engine.EventRendered:
			log.Info("%s rendered (seq %d)", ev.Owner, ev.Seq)
		default:
			log.Info("%s %s: %s", ev.Owner, ev.Kind, ev.Err)
		}
	}
}

// stdioPipe adapts stdin/stdout to the shell's byte stream.
type stdioPipe struct{}

func (stdioPipe) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioPipe) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioPipe) Close() error                { return nil }

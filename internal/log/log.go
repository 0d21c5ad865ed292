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

// Package log provides a minimal leveled, printf-style logger shared by all
// engine packages.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	ErrorLevel
)

var (
	mu    sync.Mutex
	level = InfoLevel
	out   io.Writer = os.Stderr
)

// SetLogLevel sets the minimum level that will be written.
func SetLogLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// SetOutput redirects log output (default: stderr).
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

func logf(l Level, tag string, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(out, "[%s] %s %s\n", tag, ts, fmt.Sprintf(format, args...))
}

func Debug(format string, args ...interface{}) {
	logf(DebugLevel, "DEBUG", format, args...)
}

func Info(format string, args ...interface{}) {
	logf(InfoLevel, "INFO", format, args...)
}

func Error(format string, args ...interface{}) {
	logf(ErrorLevel, "ERROR", format, args...)
}

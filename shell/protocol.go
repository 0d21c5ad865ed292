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

// Package shell runs compiled fragments in an isolated rendering context
// reachable only through an asynchronous, serializable message channel.
package shell

// Wire methods. The shell context and its host share no memory; everything
// crosses as JSON-RPC messages over a byte stream.
const (
	// MethodUpdateCode carries compiled function source host -> shell.
	MethodUpdateCode = "UPDATE_CODE"
	// MethodReady is sent shell -> host exactly once, after the shell's own
	// bootstrap completes. The host must not send code before observing it.
	MethodReady = "SHELL_READY"
)

// UpdateCodeParams is the payload of MethodUpdateCode. An empty Code means
// "clear to placeholder", not an error.
type UpdateCodeParams struct {
	Code string `json:"code"`
}

// RenderResult answers an UPDATE_CODE sent as a call rather than a
// notification: the HTML of the persistent render root after the update.
type RenderResult struct {
	HTML string `json:"html"`
	Err  string `json:"err,omitempty"`
}

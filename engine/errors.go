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

package engine

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/OpenDesignlabs/vectra/sandbox"
)

// The error taxonomy end to end:
//
//   SecurityViolation  fatal for the fragment, never healed
//   CompileError       recoverable, heal-eligible, side-effect free
//   RuntimeError       recoverable, heal-eligible, may follow side effects
//   HealExhausted      terminal until an explicit reset
//   ShellNotReady      transient, resend after readiness

// ErrShellNotReady reports a code message sent before the shell signaled
// readiness. The message was dropped; resend once ready.
var ErrShellNotReady = errors.New("shell not ready")

// HealExhaustedError is returned once an owner has used up its automatic
// heal budget.
type HealExhaustedError struct {
	Owner    string
	Attempts int
	LastErr  string
}

func (e *HealExhaustedError) Error() string {
	return fmt.Sprintf("heal budget exhausted for %s after %d attempts: %s", e.Owner, e.Attempts, e.LastErr)
}

// IsCompileError reports whether err is a transform-stage failure, always
// safe to retry.
func IsCompileError(err error) bool {
	var ce *sandbox.CompileError
	return errors.As(err, &ce)
}

// IsRuntimeError reports whether err was raised while fragment code ran.
func IsRuntimeError(err error) bool {
	var re *sandbox.RuntimeError
	return errors.As(err, &re)
}

// IsSecurityViolation reports whether err is a pre-scan rejection.
func IsSecurityViolation(err error) bool {
	var v *sandbox.Violation
	return errors.As(err, &v)
}

// IsHealExhausted reports whether err is a spent heal budget.
func IsHealExhausted(err error) bool {
	var he *HealExhaustedError
	return errors.As(err, &he)
}

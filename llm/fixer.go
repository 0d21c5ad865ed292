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

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/OpenDesignlabs/vectra/internal/log"
	"github.com/OpenDesignlabs/vectra/internal/utils"
)

const fixSystemPrompt = `You repair broken UI component fragments.
You receive a component source and the error it produced.
Return ONLY the corrected component source, in a single code block.
Keep the component's intent; change the minimum needed to make it run.
Do not add imports: rendering primitives, cx, Icon and motion are provided.
The component must keep a single default export.`

// Fixer calls the fix collaborator for a failing fragment. One Fix call is
// one model round trip; bounded retries cover transient transport failures
// only, never bad model output.
type Fixer struct {
	model   ChatModel
	retries int
	timeout time.Duration
}

// NewFixer builds a Fixer from a model config.
func NewFixer(cfg ModelConfig) (*Fixer, error) {
	m, err := newChatModel(cfg)
	if err != nil {
		return nil, utils.WrapError(err, "fix collaborator")
	}
	cfg = cfg.withDefaults()
	return &Fixer{
		model:   m,
		retries: cfg.Retries,
		timeout: cfg.Timeout,
	}, nil
}

// NewFixerFromModel wraps an existing chat model (used by tests).
func NewFixerFromModel(m ChatModel) *Fixer {
	return &Fixer{model: m, retries: defaultRetries, timeout: defaultTimeout}
}

// FixComponentError implements the fix collaborator contract: failing source
// and error text in, corrected source out.
func (f *Fixer) FixComponentError(ctx context.Context, source, errorMessage string) (string, error) {
	input := fmt.Sprintf("The component below failed with:\n%s\n\nComponent source:\n```tsx\n%s\n```", errorMessage, source)
	msgs := []*schema.Message{
		schema.SystemMessage(fixSystemPrompt),
		schema.UserMessage(input),
	}

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			log.Info("Retrying fix call (attempt %d/%d)...", attempt+1, f.retries+1)
			// Exponential backoff: wait 1s, 2s, 4s...
			waitTime := time.Duration(1<<uint(attempt-1)) * time.Second
			if waitTime > 10*time.Second {
				waitTime = 10 * time.Second
			}
			time.Sleep(waitTime)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		out, err := f.model.Generate(attemptCtx, msgs)
		cancel()
		if err == nil {
			fixed := ExtractCode(out.Content)
			if strings.TrimSpace(fixed) == "" {
				return "", fmt.Errorf("fix collaborator returned empty source")
			}
			return fixed, nil
		}

		lastErr = err
		if !isRetryable(err) {
			log.Error("Non-retryable error occurred: %v", err)
			return "", utils.WrapError(err, "fix call error")
		}
		log.Info("Retryable error occurred (attempt %d/%d): %v", attempt+1, f.retries+1, err)
	}

	return "", utils.WrapError(fmt.Errorf("failed after %d retries: %w", f.retries+1, lastErr), "fix call error")
}

func isRetryable(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "operation timed out") ||
		strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "read tcp") ||
		strings.Contains(errStr, "write tcp")
}

// ExtractCode pulls the first fenced code block out of a model reply, or the
// whole reply when there is no fence.
func ExtractCode(reply string) string {
	start := strings.Index(reply, "```")
	if start < 0 {
		return strings.TrimSpace(reply)
	}
	rest := reply[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// drop the language tag line
		if lang := strings.TrimSpace(rest[:nl]); lang == "" || isLangTag(lang) {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func isLangTag(s string) bool {
	switch strings.ToLower(s) {
	case "tsx", "jsx", "ts", "js", "typescript", "javascript":
		return true
	}
	return false
}

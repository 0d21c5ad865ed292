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
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// scriptedModel replays canned replies, one per Generate call.
type scriptedModel struct {
	replies []string
	errs    []error
	calls   int
	last    []*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	i := m.calls
	m.calls++
	m.last = in
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.replies) {
		return nil, fmt.Errorf("no scripted reply for call %d", i+1)
	}
	return schema.AssistantMessage(m.replies[i], nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("stream not supported")
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func TestExtractCode(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  string
	}{
		{
			name:  "fenced with language tag",
			reply: "Here you go:\n```tsx\nconst x = 1;\n```\nDone.",
			want:  "const x = 1;",
		},
		{
			name:  "fenced without language tag",
			reply: "```\nconst x = 1;\n```",
			want:  "const x = 1;",
		},
		{
			name:  "uppercase language tag",
			reply: "```TSX\nconst x = 1;\n```",
			want:  "const x = 1;",
		},
		{
			name:  "no fence passes through",
			reply: "  const x = 1;  ",
			want:  "const x = 1;",
		},
		{
			name:  "unterminated fence runs to end",
			reply: "```jsx\nconst x = 1;",
			want:  "const x = 1;",
		},
		{
			name:  "code on the fence line survives",
			reply: "```const x = 1;\nconst y = 2;\n```",
			want:  "const x = 1;\nconst y = 2;",
		},
		{
			name:  "first block wins",
			reply: "```js\nfirst\n```\ntext\n```js\nsecond\n```",
			want:  "first",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractCode(tc.reply); got != tc.want {
				t.Errorf("ExtractCode(%q) = %q, want %q", tc.reply, got, tc.want)
			}
		})
	}
}

func TestFixComponentError(t *testing.T) {
	m := &scriptedModel{replies: []string{"```tsx\nfunction Fixed() { return null; }\n```"}}
	f := NewFixerFromModel(m)

	fixed, err := f.FixComponentError(context.Background(), "function Broken() {", "syntax error")
	if err != nil {
		t.Fatalf("FixComponentError: %v", err)
	}
	if fixed != "function Fixed() { return null; }" {
		t.Errorf("fixed = %q", fixed)
	}
	if m.calls != 1 {
		t.Errorf("model calls = %d", m.calls)
	}

	// The prompt carries both the error and the failing source.
	if len(m.last) != 2 {
		t.Fatalf("message count = %d", len(m.last))
	}
	user := m.last[1].Content
	if !strings.Contains(user, "syntax error") || !strings.Contains(user, "function Broken() {") {
		t.Errorf("user message = %q", user)
	}
}

func TestFixComponentErrorEmptyReply(t *testing.T) {
	m := &scriptedModel{replies: []string{"```tsx\n\n```"}}
	f := NewFixerFromModel(m)

	if _, err := f.FixComponentError(context.Background(), "src", "err"); err == nil {
		t.Fatal("expected error on empty reply")
	}
}

func TestFixComponentErrorNonRetryable(t *testing.T) {
	m := &scriptedModel{errs: []error{fmt.Errorf("invalid api key")}}
	f := NewFixerFromModel(m)

	if _, err := f.FixComponentError(context.Background(), "src", "err"); err == nil {
		t.Fatal("expected error")
	}
	if m.calls != 1 {
		t.Errorf("non-retryable error retried: %d calls", m.calls)
	}
}

func TestNewFixerRejectsUnknownProvider(t *testing.T) {
	_, err := NewFixer(ModelConfig{APIType: "bogus", ModelName: "m"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "unsupported model type") {
		t.Errorf("error = %v", err)
	}
}

func TestModelConfigDefaults(t *testing.T) {
	got := ModelConfig{}.withDefaults()
	if got.MaxTokens != defaultMaxTokens || got.Timeout != defaultTimeout || got.Retries != defaultRetries {
		t.Errorf("defaults = %+v", got)
	}

	set := ModelConfig{MaxTokens: 1024, Timeout: time.Minute, Retries: 1}.withDefaults()
	if set.MaxTokens != 1024 || set.Timeout != time.Minute || set.Retries != 1 {
		t.Errorf("explicit values overridden: %+v", set)
	}
}

func TestModelConfigBaseURL(t *testing.T) {
	if got := (ModelConfig{APIType: ModelTypeDeepSeek}).baseURL(); got != "https://api.deepseek.com" {
		t.Errorf("deepseek default = %q", got)
	}
	if got := (ModelConfig{APIType: ModelTypeDashScope}).baseURL(); !strings.Contains(got, "dashscope") {
		t.Errorf("dashscope default = %q", got)
	}
	if got := (ModelConfig{APIType: ModelTypeDeepSeek, BaseURL: "http://proxy"}).baseURL(); got != "http://proxy" {
		t.Errorf("explicit base url overridden: %q", got)
	}
	if got := (ModelConfig{APIType: ModelTypeOpenAI}).baseURL(); got != "" {
		t.Errorf("openai default = %q, want empty", got)
	}
}

func TestNewModelType(t *testing.T) {
	cases := map[string]ModelType{
		"Ollama":    ModelTypeOllama,
		"doubao":    ModelTypeARK,
		"gpt":       ModelTypeOpenAI,
		"Anthropic": ModelTypeClaude,
		"qwen":      ModelTypeDashScope,
		"tongyi":    ModelTypeDashScope,
		"deepseek":  ModelTypeDeepSeek,
		"mystery":   ModelTypeUnknown,
	}
	for in, want := range cases {
		if got := NewModelType(in); got != want {
			t.Errorf("NewModelType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFixComponentErrorRetriesTransport(t *testing.T) {
	m := &scriptedModel{
		errs:    []error{fmt.Errorf("dial: connection refused"), nil},
		replies: []string{"", "```tsx\nok\n```"},
	}
	f := NewFixerFromModel(m)

	fixed, err := f.FixComponentError(context.Background(), "src", "err")
	if err != nil {
		t.Fatalf("FixComponentError: %v", err)
	}
	if fixed != "ok" {
		t.Errorf("fixed = %q", fixed)
	}
	if m.calls != 2 {
		t.Errorf("model calls = %d, want 2", m.calls)
	}
}

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
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
)

// ModelConfig describes the endpoint the fix collaborator talks to. The
// zero values of MaxTokens, Timeout and Retries select the defaults below.
type ModelConfig struct {
	APIType     ModelType     `json:"type" yaml:"type"`
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	APIKey      string        `json:"api_key" yaml:"api_key"`
	ModelName   string        `json:"model_name" yaml:"model_name"`
	Temperature *float32      `json:"temperature" yaml:"temperature"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Retries     int           `json:"retries" yaml:"retries"`
}

const (
	defaultMaxTokens = 16 * 1024
	defaultTimeout   = 600 * time.Second
	defaultRetries   = 3
)

func (m ModelConfig) withDefaults() ModelConfig {
	if m.MaxTokens == 0 {
		m.MaxTokens = defaultMaxTokens
	}
	if m.Timeout == 0 {
		m.Timeout = defaultTimeout
	}
	if m.Retries == 0 {
		m.Retries = defaultRetries
	}
	return m
}

type ModelType string

const (
	ModelTypeUnknown   ModelType = ""
	ModelTypeOllama    ModelType = "ollama"
	ModelTypeARK       ModelType = "ark"
	ModelTypeOpenAI    ModelType = "openai"
	ModelTypeClaude    ModelType = "claude"
	ModelTypeDashScope ModelType = "dashscope"
	ModelTypeDeepSeek  ModelType = "deepseek"
)

var modelTypeAliases = map[string]ModelType{
	"ollama":    ModelTypeOllama,
	"ark":       ModelTypeARK,
	"doubao":    ModelTypeARK,
	"openai":    ModelTypeOpenAI,
	"gpt":       ModelTypeOpenAI,
	"claude":    ModelTypeClaude,
	"anthropic": ModelTypeClaude,
	"dashscope": ModelTypeDashScope,
	"qwen":      ModelTypeDashScope,
	"tongyi":    ModelTypeDashScope,
	"deepseek":  ModelTypeDeepSeek,
}

// NewModelType maps a user-facing provider name (including common aliases)
// to its ModelType, or ModelTypeUnknown.
func NewModelType(t string) ModelType {
	return modelTypeAliases[strings.ToLower(t)]
}

// ChatModel is the slice of the eino model surface the fixer needs.
type ChatModel interface {
	model.ToolCallingChatModel
}

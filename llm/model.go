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

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"

	"github.com/OpenDesignlabs/vectra/internal/utils"
)

// Providers that omit BaseURL get their public endpoint.
var defaultBaseURL = map[ModelType]string{
	ModelTypeDashScope: "https://dashscope.aliyuncs.com/compatible-mode/v1",
	ModelTypeDeepSeek:  "https://api.deepseek.com",
}

func (m ModelConfig) baseURL() string {
	if m.BaseURL != "" {
		return m.BaseURL
	}
	return defaultBaseURL[m.APIType]
}

// newChatModel builds the provider-specific eino chat model behind the
// fixer. DeepSeek rides the OpenAI-compatible client.
func newChatModel(cfg ModelConfig) (ChatModel, error) {
	cfg = cfg.withDefaults()
	ctx := context.Background()

	var (
		m   ChatModel
		err error
	)
	switch cfg.APIType {
	case ModelTypeARK:
		m, err = ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     cfg.baseURL(),
			APIKey:      cfg.APIKey,
			Model:       cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxTokens:   &cfg.MaxTokens,
		})
	case ModelTypeOpenAI, ModelTypeDeepSeek:
		m, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     cfg.baseURL(),
			APIKey:      cfg.APIKey,
			Model:       cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxTokens:   &cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
	case ModelTypeDashScope:
		m, err = qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			BaseURL:     cfg.baseURL(),
			APIKey:      cfg.APIKey,
			Model:       cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxTokens:   &cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
	case ModelTypeOllama:
		m, err = ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.baseURL(),
			Model:   cfg.ModelName,
		})
	case ModelTypeClaude:
		conf := &claude.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}
		if cfg.BaseURL != "" {
			conf.BaseURL = &cfg.BaseURL
		}
		m, err = claude.NewChatModel(ctx, conf)
	default:
		return nil, fmt.Errorf("unsupported model type %q", cfg.APIType)
	}
	if err != nil {
		return nil, utils.WrapError(err, fmt.Sprintf("%s model", cfg.APIType))
	}
	return m, nil
}

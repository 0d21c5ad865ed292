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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenDesignlabs/vectra/llm"
)

const sampleConfig = `
server:
  addr: ":9090"
cache:
  backend: redis
  redis:
    addr: "localhost:6379"
    ttl: 1h
heal:
  auto: true
  timeout: 120s
  model:
    type: claude
    model_name: claude-sonnet-4
    api_key: test-key
scanner:
  extra_rules:
    - name: no-alert
      pattern: '\balert\s*\('
      message: "alert is not allowed"
workers: 4
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectra.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server addr: %s", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.Redis.Addr != "localhost:6379" {
		t.Errorf("cache config: %+v", cfg.Cache)
	}
	if !cfg.Heal.Auto || cfg.Heal.Model.APIType != llm.ModelTypeClaude {
		t.Errorf("heal config: %+v", cfg.Heal)
	}
	if !cfg.HasFixer() {
		t.Error("HasFixer should be true with model name and type set")
	}
	if cfg.Workers != 4 {
		t.Errorf("workers: %d", cfg.Workers)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_TYPE", "")
	t.Setenv("API_KEY", "")
	t.Setenv("MODEL_NAME", "")
	t.Setenv("BASE_URL", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8787" {
		t.Errorf("default addr: %s", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("default cache backend: %s", cfg.Cache.Backend)
	}
	if cfg.HasFixer() {
		t.Error("HasFixer must be false without model config")
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("API_TYPE", "openai")
	t.Setenv("API_KEY", "env-key")
	t.Setenv("MODEL_NAME", "gpt-4o")
	t.Setenv("BASE_URL", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Heal.Model.APIType != llm.ModelTypeOpenAI || cfg.Heal.Model.APIKey != "env-key" {
		t.Errorf("env fallback not applied: %+v", cfg.Heal.Model)
	}
}

func TestExtraRules(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rules, err := cfg.ExtraRules()
	if err != nil {
		t.Fatalf("ExtraRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Name != "no-alert" {
		t.Fatalf("rules: %+v", rules)
	}
	if !rules[0].Pattern.MatchString(`alert("hi")`) {
		t.Error("compiled pattern does not match")
	}
}

func TestExtraRulesBadPattern(t *testing.T) {
	cfg := &Config{Scanner: ScannerConfig{ExtraRules: []RuleConfig{{Name: "bad", Pattern: "("}}}}
	if _, err := cfg.ExtraRules(); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

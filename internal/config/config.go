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

// Package config loads the engine configuration from a YAML file, with the
// fix collaborator's credentials falling back to environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/OpenDesignlabs/vectra/llm"
	"github.com/OpenDesignlabs/vectra/sandbox"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Watch   WatchConfig   `yaml:"watch"`
	Heal    HealConfig    `yaml:"heal"`
	Scanner ScannerConfig `yaml:"scanner"`
	Workers int           `yaml:"workers"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string `yaml:"backend"`
	Redis   struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
}

type WatchConfig struct {
	Dir string `yaml:"dir"`
}

type HealConfig struct {
	Auto    bool            `yaml:"auto"`
	Timeout time.Duration   `yaml:"timeout"`
	Model   llm.ModelConfig `yaml:"model"`
}

type ScannerConfig struct {
	ExtraRules []RuleConfig `yaml:"extra_rules"`
}

type RuleConfig struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

// Load reads path when non-empty, then applies environment fallbacks for the
// fix collaborator the same way the env-only setup works without a file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Addr = ":8787"
	cfg.Cache.Backend = "memory"

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if cfg.Heal.Model.APIType == "" {
		cfg.Heal.Model.APIType = llm.NewModelType(os.Getenv("API_TYPE"))
	}
	if cfg.Heal.Model.APIKey == "" {
		cfg.Heal.Model.APIKey = os.Getenv("API_KEY")
	}
	if cfg.Heal.Model.ModelName == "" {
		cfg.Heal.Model.ModelName = os.Getenv("MODEL_NAME")
	}
	if cfg.Heal.Model.BaseURL == "" {
		cfg.Heal.Model.BaseURL = os.Getenv("BASE_URL")
	}
	return cfg, nil
}

// ExtraRules compiles the configured deny-list extensions.
func (c *Config) ExtraRules() ([]sandbox.Rule, error) {
	rules := make([]sandbox.Rule, 0, len(c.Scanner.ExtraRules))
	for _, rc := range c.Scanner.ExtraRules {
		re, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("scanner rule %s: %w", rc.Name, err)
		}
		rules = append(rules, sandbox.Rule{Name: rc.Name, Pattern: re, Message: rc.Message})
	}
	return rules, nil
}

// HasFixer reports whether enough model config is present to build the fix
// collaborator.
func (c *Config) HasFixer() bool {
	return c.Heal.Model.ModelName != "" && c.Heal.Model.APIType != ""
}

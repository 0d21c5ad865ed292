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

// Package cache stores compile outputs keyed by source hash, so identical
// fragments skip the transform stage.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Entry is one cached compile output.
type Entry struct {
	SandboxCode string `json:"sandboxCode"`
	CleanCode   string `json:"cleanCode"`
}

// Cache is the storage contract. A miss is (zero, false, nil); errors are
// reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
}

// Key derives the cache key for a fragment source.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

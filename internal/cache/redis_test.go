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

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestRedis(t *testing.T, opts ...Option) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return NewRedisFromClient(client, opts...), mr
}

func TestRedisRoundTrip(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	_, ok, err := r.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	want := Entry{SandboxCode: "function C() {}", CleanCode: "const n = 1;"}
	assert.NoError(t, r.Set(ctx, "k", want))

	got, ok, err := r.Get(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisKeyPrefix(t *testing.T) {
	r, mr := newTestRedis(t, WithPrefix("custom:"))
	ctx := context.Background()

	assert.NoError(t, r.Set(ctx, "k", Entry{SandboxCode: "x"}))
	assert.True(t, mr.Exists("custom:k"))
	assert.False(t, mr.Exists("k"))
}

func TestRedisTTL(t *testing.T) {
	r, mr := newTestRedis(t, WithTTL(time.Minute))
	ctx := context.Background()

	assert.NoError(t, r.Set(ctx, "k", Entry{SandboxCode: "x"}))

	mr.FastForward(2 * time.Minute)
	_, ok, err := r.Get(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCorruptEntry(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, mr.Set("vectra:compile:k", "not json"))
	_, ok, err := r.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

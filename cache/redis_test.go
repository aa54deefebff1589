/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestCache(t *testing.T, configure func(*RedisConfig)) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := RedisConfig{Address: mr.Addr()}
	if configure != nil {
		configure(&cfg)
	}
	c, err := NewRedisCache(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()

	assert.Equal(t, "127.0.0.1:6379", cfg.Address)
	assert.Equal(t, 5*time.Minute, cfg.DefaultTTL)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 10, cfg.PoolSize)
}

func TestRedisCacheConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(RedisConfig{Address: addr, DialTimeout: 300 * time.Millisecond})
	assert.Error(t, err)
}

func TestRedisCacheSetAndGet(t *testing.T) {
	c, _ := newRedisTestCache(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", sample{Name: "magpie", Count: 4}, 0))

	var got sample
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "magpie", Count: 4}, got)
}

func TestRedisCacheMissingKey(t *testing.T) {
	c, _ := newRedisTestCache(t, nil)

	var got sample
	found, err := c.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheDelete(t *testing.T) {
	c, _ := newRedisTestCache(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", sample{}, 0))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))

	var got sample
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheEntriesExpire(t *testing.T) {
	c, mr := newRedisTestCache(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", sample{Name: "short"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got sample
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheKeyPrefix(t *testing.T) {
	c, mr := newRedisTestCache(t, func(cfg *RedisConfig) { cfg.KeyPrefix = "magpie:" })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", sample{}, 0))
	assert.True(t, mr.Exists("magpie:k"))

	var got sample
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRedisCacheFlushRespectsPrefix(t *testing.T) {
	c, mr := newRedisTestCache(t, func(cfg *RedisConfig) { cfg.KeyPrefix = "magpie:" })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", sample{}, 0))
	require.NoError(t, c.Set(ctx, "b", sample{}, 0))
	require.NoError(t, mr.Set("other", "untouched"))

	require.NoError(t, c.Flush(ctx))

	assert.False(t, mr.Exists("magpie:a"))
	assert.False(t, mr.Exists("magpie:b"))
	assert.True(t, mr.Exists("other"))
}

func TestRedisCacheFlushWithoutPrefixClearsDatabase(t *testing.T) {
	c, mr := newRedisTestCache(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", sample{}, 0))
	require.NoError(t, c.Set(ctx, "b", sample{}, 0))

	require.NoError(t, c.Flush(ctx))

	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

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

package repository

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/tomoncle/magpie/cache"

	"github.com/google/uuid"
)

// CacheOptions tunes a cached repository.
type CacheOptions struct {
	// KeyPrefix namespaces this entity kind's cache entries. Empty means
	// the entity's type name.
	KeyPrefix string
	// TTL bounds how long a cached entity may serve reads; zero or less
	// keeps the cache backend's default.
	TTL time.Duration
}

type cachedRepositoryImpl[T any] struct {
	Repository[T]
	store  cache.Cache
	prefix string
	ttl    time.Duration
}

// NewCachedRepository decorates base with read-through caching of point
// lookups. GetByID and Exists consult the cache before the database and fill
// it on a hit from the database; absence is never cached. Collection reads
// (GetAll, Count, Page) always go to the database, since list results cannot
// be invalidated by key.
//
// Staging an update or delete for an entity drops its cache entry, so reads
// after Save observe whatever was committed. Cached entities round-trip
// through JSON; fields hidden from JSON come back zero on cache hits.
func NewCachedRepository[T any](base Repository[T], store cache.Cache, options ...CacheOptions) Repository[T] {
	opts := CacheOptions{}
	if len(options) > 0 {
		opts = options[0]
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		var entity T
		prefix = fmt.Sprintf("%T", entity)
	}
	return &cachedRepositoryImpl[T]{
		Repository: base,
		store:      store,
		prefix:     prefix,
		ttl:        opts.TTL,
	}
}

func (r *cachedRepositoryImpl[T]) cacheKey(id uuid.UUID) string {
	return r.prefix + ":" + id.String()
}

func (r *cachedRepositoryImpl[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var cached T
	// cache failures read as misses
	if found, err := r.store.Get(ctx, r.cacheKey(id), &cached); err == nil && found {
		return &cached, nil
	}
	entity, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity != nil {
		_ = r.store.Set(ctx, r.cacheKey(id), entity, r.ttl)
	}
	return entity, nil
}

func (r *cachedRepositoryImpl[T]) Exists(ctx context.Context, id uuid.UUID) (bool, *T, error) {
	entity, err := r.GetByID(ctx, id)
	if err != nil {
		return false, nil, err
	}
	return entity != nil, entity, nil
}

func (r *cachedRepositoryImpl[T]) Update(entity *T) {
	r.Repository.Update(entity)
	r.invalidate(entity)
}

func (r *cachedRepositoryImpl[T]) Delete(entity *T) {
	r.Repository.Delete(entity)
	r.invalidate(entity)
}

// invalidate drops the cache entry keyed by the entity's uuid primary key.
// Entities whose identifier cannot be read are left alone; they were keyed
// by lookup id, which only GetByID produces.
func (r *cachedRepositoryImpl[T]) invalidate(entity *T) {
	if id, ok := entityID(entity); ok {
		_ = r.store.Delete(context.Background(), r.cacheKey(id))
	}
}

// entityID extracts the uuid primary key from an entity struct: a field of
// type uuid.UUID named ID, directly declared or promoted from an embedded
// struct such as types.Model.
func entityID(entity interface{}) (uuid.UUID, bool) {
	value := reflect.ValueOf(entity)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return uuid.Nil, false
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return uuid.Nil, false
	}
	field := value.FieldByName("ID")
	if !field.IsValid() {
		return uuid.Nil, false
	}
	id, ok := field.Interface().(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

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
	"time"
)

// Cache is the contract shared by cache backends. Get reports absence
// through the found flag rather than an error, the same way repositories
// report missing rows.
type Cache interface {
	// Get unmarshals the entry stored under key into value and reports
	// whether one existed.
	Get(ctx context.Context, key string, value interface{}) (bool, error)

	// Set stores value under key for ttl. A ttl of zero or less keeps the
	// backend's default expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Flush drops every entry owned by this cache.
	Flush(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

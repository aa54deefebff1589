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

package types

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a random (version 4) entity identifier. Repositories never
// generate identifiers; callers assign them before staging a create.
func NewID() uuid.UUID {
	return uuid.New()
}

// ParseID parses the canonical string form of an entity identifier.
func ParseID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// MustParseID parses s or panics. Intended for fixtures and tests.
func MustParseID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

// Model is an embeddable base for entities stored through magpie
// repositories: a UUID primary key plus create/update timestamps filled by
// the database when left zero.
type Model struct {
	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}
